// Package database holds the frozen, read-only lookup tables a
// constellation search runs against: the star catalog, the sorted
// interstar-distance pair table, and the K-vector index over it.
package database

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lodestar-space/startracker/pkg/containers"
	"github.com/lodestar-space/startracker/pkg/kvector"
	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// StarPair names two catalog indices whose angular separation is on
// record. A and B are not ordered relative to each other; callers that
// need the "other" star given one of the pair use FindSame/Other.
type StarPair struct {
	A int
	B int
}

/*****************************************************************************************************************/

// FindSame returns the catalog index shared between p and o, and true
// if exactly one such index exists. Two identical pairs or two
// disjoint pairs both report false, matching the original's refusal to
// guess which shared index is "the" link in a degenerate pair.
func (p StarPair) FindSame(o StarPair) (int, bool) {
	switch {
	case p.A == o.A && p.B != o.B:
		return p.A, true
	case p.A == o.B && p.B != o.A:
		return p.A, true
	case p.B == o.A && p.A != o.B:
		return p.B, true
	case p.B == o.B && p.A != o.A:
		return p.B, true
	default:
		return 0, false
	}
}

/*****************************************************************************************************************/

// Other returns the element of the pair that is not star, and false if
// star is not a member of the pair.
func (p StarPair) Other(star int) (int, bool) {
	switch star {
	case p.A:
		return p.B, true
	case p.B:
		return p.A, true
	default:
		return 0, false
	}
}

/*****************************************************************************************************************/

// Params records the configuration a Database was generated under, so
// a pipeline run can confirm the database matches the sensor it is
// being used with.
type Params struct {
	FieldOfView    units.Radians `json:"fov"`
	AngleTolerance units.Radians `json:"angle_tolerance"`
	MagnitudeMin   float64       `json:"magnitude_min"`
	MagnitudeMax   float64       `json:"magnitude_max"`
}

/*****************************************************************************************************************/

// Database is the frozen, read-only set of tables a Pyramid search
// runs against: every catalog star's equatorial position, every
// retained close star pair sorted by angular separation, and the
// K-vector index into that sorted pair table.
type Database struct {
	Params   Params             `json:"params"`
	Catalog  []units.Equatorial `json:"catalog"`
	Pairs    []StarPair         `json:"pairs"`
	Distance []units.Radians    `json:"distance"`
	KVector  kvector.KVector    `json:"k_vector"`
	KBins    []int              `json:"k_bins"`
}

/*****************************************************************************************************************/

// New builds a Database from a catalog, a sorted-by-distance pair
// table and its matching distances, and a K-vector index calibrated
// over that sorted distance array.
func New(params Params, catalog []units.Equatorial, pairs []StarPair, distance []units.Radians, kv kvector.KVector, kBins []int) Database {
	return Database{
		Params:   params,
		Catalog:  catalog,
		Pairs:    pairs,
		Distance: distance,
		KVector:  kv,
		KBins:    kBins,
	}
}

/*****************************************************************************************************************/

// FindStar returns the catalog position at index, or ErrOutOfBounds if
// index does not name a catalog entry.
func (d Database) FindStar(index int) (units.Equatorial, error) {
	if index < 0 || len(d.Catalog) <= index {
		return units.Equatorial{}, fmt.Errorf("catalog index %d: %w", index, xerrors.ErrOutOfBounds)
	}
	return d.Catalog[index], nil
}

/*****************************************************************************************************************/

// GetFOV returns the diagonal field of view the database was built
// for.
func (d Database) GetFOV() units.Radians {
	return d.Params.FieldOfView
}

/*****************************************************************************************************************/

// FindCloseRef fills found with every star pair whose recorded angular
// separation lies close to find, ordered outward from the midpoint of
// the matching K-vector bin range, nearest first, up to found's
// capacity. If find falls outside the K-vector's calibrated range,
// found is left untouched, since "no nearby pair" is a normal outcome
// of a search, not a malformed query.
func (d Database) FindCloseRef(find units.Radians, found *containers.List[StarPair]) {
	kRange, err := d.KVector.GetBins(find)
	if err != nil {
		return
	}

	lowerBounds := d.KBins[kRange.Low]
	upperBounds := d.KBins[kRange.High]
	length := upperBounds - lowerBounds
	mid := (upperBounds + lowerBounds) / 2

	for i := 0; i <= length/2; i++ {
		if !found.IsFull() {
			found.PushBack(d.Pairs[mid+i])
		}
		if !found.IsFull() && i != 0 {
			found.PushBack(d.Pairs[mid-i])
		}
	}
	if !found.IsFull() && length%2 != 0 {
		found.PushBack(d.Pairs[upperBounds-1])
	}
}

/*****************************************************************************************************************/

// Load decodes a Database previously written by Save.
func Load(r io.Reader) (Database, error) {
	var d Database
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Database{}, fmt.Errorf("decode database: %w", err)
	}
	return d, nil
}

/*****************************************************************************************************************/

// Save encodes the database as indented JSON, matching the original's
// one-struct-per-file layout but in a format that can be loaded back
// without a recompile.
func Save(w io.Writer, d Database) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode database: %w", err)
	}
	return nil
}

/*****************************************************************************************************************/

// Package catalogbuilder implements the offline database-builder tool
// described in spec.md §6: it fetches a magnitude- and density-limited
// star field from the GAIA DR3 archive, stages it in sqlite, and freezes
// the resulting catalog, pair table, and K-vector index to the JSON
// layout pkg/database reads at runtime.
package catalogbuilder

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"

	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

var errNotEnoughPairs = fmt.Errorf("fewer than two catalog pairs survived the field-of-view cut: %w", xerrors.ErrInvalidSize)

/*****************************************************************************************************************/

// Config mirrors the build_database config JSON of spec.md §6. FOVDeg and
// AngleTolDeg are required by the CLI layer before a Config reaches
// Build; the remaining fields carry their documented defaults once
// WithDefaults has run.
type Config struct {
	FOVDeg         float64 `json:"fov_deg"`
	AngleTolDeg    float64 `json:"angle_tol_deg"`
	MagnitudeMax   float64 `json:"magnitude_max"`
	RegionSizeDeg  float64 `json:"region_size_deg"`
	RegionNumStars int     `json:"region_num_stars"`
}

/*****************************************************************************************************************/

// WithDefaults fills every optional field left at its zero value with
// the default spec.md §6 names: magnitude_max derived from the field of
// view (wider fields need brighter-only catalogs to keep density
// manageable), region_size_deg at half the field of view, and
// region_num_stars at 8.
func (c Config) WithDefaults() Config {
	if c.MagnitudeMax == 0 {
		c.MagnitudeMax = magnitudeFromFOV(c.FOVDeg)
	}
	if c.RegionSizeDeg == 0 {
		c.RegionSizeDeg = c.FOVDeg / 2
	}
	if c.RegionNumStars == 0 {
		c.RegionNumStars = 8
	}
	return c
}

/*****************************************************************************************************************/

// magnitudeFromFOV approximates a sensible dullest-star cutoff for a
// given diagonal field of view: wider fields collect more stars at any
// fixed magnitude, so the limit tightens as fovDeg grows, loosely
// following the same area-vs-density tradeoff region_num_stars targets
// per region.
func magnitudeFromFOV(fovDeg float64) float64 {
	switch {
	case fovDeg <= 5:
		return 9.0
	case fovDeg <= 20:
		return 7.5
	default:
		return 6.0
	}
}

/*****************************************************************************************************************/

// Result is a finished build: the frozen Database plus the build's
// provenance stamp.
type Result struct {
	Database    database.Database
	BuildID     string
	BuildEpoch  float64 // Julian Date of the build, UTC
	StarsStaged int
}

/*****************************************************************************************************************/

// Build runs the full pipeline: tile the sky, fetch each tile from GAIA,
// stage the fetched rows in store, cap density per region, and freeze
// the capped catalog into a pair table and K-vector index.
func Build(cfg Config, client *GAIAClient, store *Store, maxConcurrentFetches int) (Result, error) {
	cfg = cfg.WithDefaults()

	regions := TileSky(cfg.RegionSizeDeg)
	fetched, err := FetchRegions(client, regions, cfg.MagnitudeMax, maxConcurrentFetches)
	if err != nil {
		return Result{}, fmt.Errorf("fetch gaia regions: %w", err)
	}

	if err := store.Stage(fetched); err != nil {
		return Result{}, err
	}
	staged, err := store.All()
	if err != nil {
		return Result{}, err
	}

	capped := CapRegions(staged, cfg.RegionSizeDeg, cfg.RegionNumStars)

	catalog := make([]units.Equatorial, len(capped))
	for i, s := range capped {
		catalog[i] = units.Equatorial{RA: s.RA.ToRadians(), Dec: s.Dec.ToRadians()}
	}

	fov := units.Degrees(cfg.FOVDeg).ToRadians()
	angleTolerance := units.Degrees(cfg.AngleTolDeg).ToRadians()
	numBins := numBinsFor(fov, angleTolerance, len(catalog))
	pairs, distances, kv, bins, err := BuildPairs(catalog, fov, numBins)
	if err != nil {
		return Result{}, err
	}

	params := database.Params{
		FieldOfView:    fov,
		AngleTolerance: angleTolerance,
		MagnitudeMin:   0,
		MagnitudeMax:   cfg.MagnitudeMax,
	}

	id, epoch := stampBuild()

	return Result{
		Database:    database.New(params, catalog, pairs, distances, kv, bins),
		BuildID:     id,
		BuildEpoch:  epoch,
		StarsStaged: len(staged),
	}, nil
}

/*****************************************************************************************************************/

// numBinsFor picks a K-vector bin count from the configured matching
// tolerance: kvector.KVector.GetBins widens a query by half a bin's
// gradient either side (see pkg/kvector), so a gradient of
// 2*angleTolerance across the field's distance range makes that
// half-bin widening equal to the tolerance the database was asked to
// match within. numStars caps the result so a sparse catalog, which
// could never fill a fine-grained index, doesn't over-allocate empty
// bins; a degenerate (zero) tolerance falls back to the coarsest bin
// count rather than dividing by zero.
func numBinsFor(fov, angleTolerance units.Radians, numStars int) int {
	n := 16
	if angleTolerance > 0 {
		n = int(float64(fov) / (2 * float64(angleTolerance)))
	}
	if density := numStars * numStars / 8; n > density {
		n = density
	}
	if n < 16 {
		n = 16
	}
	if n > 4096 {
		n = 4096
	}
	return n
}

/*****************************************************************************************************************/

// stampBuild mints a ULID build identifier and the Julian Date of the
// build instant, both returned on Result. Neither is written into the
// saved database, and the builder applies no proper motion.
func stampBuild() (string, float64) {
	now := time.Now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	var jd unit.JD = julian.TimeToJD(now)
	return id.String(), float64(jd)
}

/*****************************************************************************************************************/

// Package constellation resolves a candidate star triangle (and, when
// enough stars are present, a confirming pilot star) into a list of
// observed-to-catalog matches: the final stage of Pyramid star
// identification, consumed directly by the attitude solver.
package constellation

import (
	"math"

	"github.com/lodestar-space/startracker/pkg/containers"
	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/triangle"
	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

// StarPyramid names four elements that form a pyramid: the original
// triangle plus a pilot star used to confirm the match is not a mirror
// image of the true constellation.
type StarPyramid[T any] struct {
	A T
	B T
	C T
	D T
}

/*****************************************************************************************************************/

// Status reports how a resolve attempt concluded.
type Status int

const (
	// StatusSuccess means a triangle (3 stars) or pyramid (4+ stars)
	// match was confirmed.
	StatusSuccess Status = iota
	// StatusNoTriangleMatch means the candidate list was exhausted
	// without finding a specularity-consistent triangle.
	StatusNoTriangleMatch
	// StatusInsufficientPyramids means one or more triangles passed
	// specularity but none could be confirmed with a pilot star.
	StatusInsufficientPyramids
	// StatusAborted means the abort policy fired before resolution
	// completed.
	StatusAborted
)

/*****************************************************************************************************************/

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusNoTriangleMatch:
		return "ErrorNoTriangleMatch"
	case StatusInsufficientPyramids:
		return "ErrorInsufficientPyramids"
	case StatusAborted:
		return "ErrorAborted"
	default:
		return "Unknown"
	}
}

/*****************************************************************************************************************/

// Result is the outcome of a single Resolve call. Exactly one of
// Triangle or Pyramid is populated when Status is StatusSuccess,
// depending on how many stars were available to resolve against.
type Result struct {
	Status   Status
	Triangle triangle.Match[triangle.StarTriangle[units.Equatorial]]
	Pyramid  triangle.Match[StarPyramid[units.Equatorial]]
	Fails    int
}

/*****************************************************************************************************************/

// SpecularityCheck reports whether an observed triangle and the
// catalog triangle it was matched to have the same chirality, i.e. one
// is not the mirror image of the other.
type SpecularityCheck interface {
	Same(input, output triangle.StarTriangle[units.Vector3]) bool
}

/*****************************************************************************************************************/

// DefaultSpecularityMin is the signed-volume magnitude below which a
// triangle is treated as degenerate (too close to a straight line to
// carry chirality information) and the specularity check is skipped.
const DefaultSpecularityMin = 1e-5

/*****************************************************************************************************************/

// DeterminantSpecularity implements the chirality check as the sign of
// the scalar triple product of the triangle's three vertex vectors:
// (A x B) . C. Matching sign between the observed and catalog
// triangles is an invariant of rigid rotation; a mismatch means the
// match is a reflection, not a rotation, and must be rejected.
type DeterminantSpecularity struct {
	Min float64
}

/*****************************************************************************************************************/

// Same implements SpecularityCheck.
func (s DeterminantSpecularity) Same(input, output triangle.StarTriangle[units.Vector3]) bool {
	di := tripleProduct(input)
	do := tripleProduct(output)
	if math.Abs(di) < s.Min || math.Abs(do) < s.Min {
		return true
	}
	return (di > 0) == (do > 0)
}

/*****************************************************************************************************************/

func tripleProduct(t triangle.StarTriangle[units.Vector3]) float64 {
	return t.A.Cross(t.B).Dot(t.C)
}

/*****************************************************************************************************************/

// PilotFinder extends a confirmed triangle match to a pyramid by
// locating a fourth, independent star that agrees with every triangle
// vertex simultaneously.
type PilotFinder interface {
	FindPilot(stars []units.Equatorial, db database.Database, input, output triangle.StarTriangle[int]) (triangle.Match[int], bool)
}

/*****************************************************************************************************************/

// GreedyPilotFinder searches observed stars outside the triangle in
// list order and returns the first one whose angular distance to every
// triangle vertex matches a catalog pair anchored at the corresponding
// catalog vertex, with the same candidate star at the other end of all
// three pairs.
type GreedyPilotFinder struct {
	PairsPerSide int
}

/*****************************************************************************************************************/

// FindPilot implements PilotFinder.
func (p GreedyPilotFinder) FindPilot(stars []units.Equatorial, db database.Database, input, output triangle.StarTriangle[int]) (triangle.Match[int], bool) {
	vertices := [3]struct{ obsIdx, catIdx int }{
		{input.A, output.A},
		{input.B, output.B},
		{input.C, output.C},
	}

	for s := range stars {
		if input.Has(s) {
			continue
		}

		candidate := 0
		agree := true
		for vi, v := range vertices {
			dist := units.AngularSeparation(stars[s], stars[v.obsIdx])

			matches := containers.NewList[database.StarPair](p.PairsPerSide)
			db.FindCloseRef(dist, matches)

			other, ok := firstOtherEnd(matches, v.catIdx)
			if !ok {
				agree = false
				break
			}
			if vi == 0 {
				candidate = other
			} else if other != candidate {
				agree = false
				break
			}
		}

		if agree {
			return triangle.Match[int]{Input: s, Output: candidate, Weight: 1.0}, true
		}
	}
	return triangle.Match[int]{}, false
}

/*****************************************************************************************************************/

func firstOtherEnd(matches *containers.List[database.StarPair], catIdx int) (int, bool) {
	for _, pair := range matches.Slice() {
		if other, ok := pair.Other(catIdx); ok {
			return other, true
		}
	}
	return 0, false
}

/*****************************************************************************************************************/

// AbortPolicy is consulted between triangle candidates so a caller can
// bound how long resolution is allowed to run.
type AbortPolicy interface {
	ShouldAbort(fails int) bool
}

/*****************************************************************************************************************/

// ErrorCountAbort fires once Max consecutive candidates have failed
// (specularity mismatch or no pilot found). A success usually arrives
// in well under ten failures; a high fail count is itself a sign the
// observation is unreliable.
type ErrorCountAbort struct {
	Max int
}

/*****************************************************************************************************************/

// ShouldAbort implements AbortPolicy.
func (a ErrorCountAbort) ShouldAbort(fails int) bool {
	return fails >= a.Max
}

/*****************************************************************************************************************/

// DeadlineAbort fires once Now() reaches or passes Deadline, for
// callers that need a hard wall-clock bound rather than a failure
// count. With Now left nil, ShouldAbort never fires.
type DeadlineAbort struct {
	Deadline Clock
	Now      func() Clock
}

/*****************************************************************************************************************/

// Clock is a monotonically comparable instant; callers on hosted
// platforms pass time.Time values converted through UnixNano, embedded
// platforms a tick counter, without this package depending on a
// particular clock source.
type Clock int64

/*****************************************************************************************************************/

// ShouldAbort implements AbortPolicy.
func (a DeadlineAbort) ShouldAbort(fails int) bool {
	if a.Now == nil {
		return false
	}
	return a.Now() >= a.Deadline
}

/*****************************************************************************************************************/

// Resolve runs the Pyramid constellation algorithm: it walks the
// candidate triangle matches in candidates, checks each against the
// catalog for matching chirality, and — when more than three stars are
// available — confirms the match with a pilot star before returning.
// It returns on the first success; candidates are consulted in the
// order triangle.FindMatchTriangle produces them.
func Resolve(
	stars []units.Equatorial,
	db database.Database,
	candidates *containers.List[triangle.Match[triangle.StarTriangle[int]]],
	spec SpecularityCheck,
	pilot PilotFinder,
	abort AbortPolicy,
) Result {
	if len(stars) < 3 {
		return Result{Status: StatusNoTriangleMatch}
	}

	fails := 0
	sawSpecularMatch := false

	for _, m := range candidates.Slice() {
		inputEq, errIn := m.Input.SearchList(stars)
		outputEq, errOut := m.Output.SearchDatabase(db)
		if errIn != nil || errOut != nil {
			continue
		}

		if !spec.Same(inputEq.ToVector3(), outputEq.ToVector3()) {
			fails++
			if abort.ShouldAbort(fails) {
				return Result{Status: StatusAborted, Fails: fails}
			}
			continue
		}
		sawSpecularMatch = true

		if len(stars) == 3 {
			return Result{
				Status: StatusSuccess,
				Triangle: triangle.Match[triangle.StarTriangle[units.Equatorial]]{
					Input:  inputEq,
					Output: outputEq,
					Weight: 1.0,
				},
				Fails: fails,
			}
		}

		pilotMatch, ok := pilot.FindPilot(stars, db, m.Input, m.Output)
		if !ok {
			fails++
			if abort.ShouldAbort(fails) {
				return Result{Status: StatusAborted, Fails: fails}
			}
			continue
		}

		pilotCatalog, err := db.FindStar(pilotMatch.Output)
		if err != nil {
			fails++
			if abort.ShouldAbort(fails) {
				return Result{Status: StatusAborted, Fails: fails}
			}
			continue
		}

		return Result{
			Status: StatusSuccess,
			Pyramid: triangle.Match[StarPyramid[units.Equatorial]]{
				Input: StarPyramid[units.Equatorial]{
					A: inputEq.A, B: inputEq.B, C: inputEq.C, D: stars[pilotMatch.Input],
				},
				Output: StarPyramid[units.Equatorial]{
					A: outputEq.A, B: outputEq.B, C: outputEq.C, D: pilotCatalog,
				},
				Weight: 1.0,
			},
			Fails: fails,
		}
	}

	if sawSpecularMatch {
		return Result{Status: StatusInsufficientPyramids, Fails: fails}
	}
	return Result{Status: StatusNoTriangleMatch, Fails: fails}
}

/*****************************************************************************************************************/

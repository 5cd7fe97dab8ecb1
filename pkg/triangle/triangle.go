// Package triangle builds star triangles from a set of observed
// directions and searches a database for triangles whose side lengths
// match, the first stage of Pyramid star identification.
package triangle

import (
	"fmt"

	"github.com/lodestar-space/startracker/pkg/containers"
	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// StarTriangle names three elements that form a triangle: either three
// catalog/observation indices (int) or the three resolved directions
// (units.Equatorial, units.Vector3).
type StarTriangle[T any] struct {
	A T
	B T
	C T
}

/*****************************************************************************************************************/

// Has reports whether the triangle contains star. Only StarTriangle[int]
// is supported; for any other element type Has reports false.
func (t StarTriangle[T]) Has(star T) bool {
	switch v := any(star).(type) {
	case int:
		a, _ := any(t.A).(int)
		b, _ := any(t.B).(int)
		c, _ := any(t.C).(int)
		return a == v || b == v || c == v
	default:
		return false
	}
}

/*****************************************************************************************************************/

// Match pairs a predicted input with the value the database matched it
// to, plus a confidence weight.
type Match[T any] struct {
	Input  T
	Output T
	Weight float64
}

/*****************************************************************************************************************/

// ConstructTriangle attempts to build a StarTriangle[int] from three
// star pairs. A triangle exists only if the three pairs share exactly
// three distinct catalog indices arranged in a 3-cycle: pairA and
// pairB share one index, pairA and pairC share a different one, and
// pairB and pairC share the third.
func ConstructTriangle(pairA, pairB, pairC database.StarPair) (StarTriangle[int], bool) {
	sameAB, okAB := pairA.FindSame(pairB)
	sameAC, okAC := pairA.FindSame(pairC)
	sameBC, okBC := pairB.FindSame(pairC)

	if okAB && okAC && okBC && sameAB != sameAC && sameAB != sameBC && sameAC != sameBC {
		return StarTriangle[int]{A: sameAB, B: sameAC, C: sameBC}, true
	}
	return StarTriangle[int]{}, false
}

/*****************************************************************************************************************/

// SearchDatabase resolves a StarTriangle[int] of catalog indices into
// their equatorial positions.
func (t StarTriangle[T]) SearchDatabase(db database.Database) (StarTriangle[units.Equatorial], error) {
	idx, ok := any(t).(StarTriangle[int])
	if !ok {
		return StarTriangle[units.Equatorial]{}, fmt.Errorf("search_database requires StarTriangle[int]: %w", xerrors.ErrInvalidValue)
	}

	a, errA := db.FindStar(idx.A)
	b, errB := db.FindStar(idx.B)
	c, errC := db.FindStar(idx.C)
	if errA != nil || errB != nil || errC != nil {
		return StarTriangle[units.Equatorial]{}, fmt.Errorf("resolving triangle against database: %w", xerrors.ErrNoMatch)
	}
	return StarTriangle[units.Equatorial]{A: a, B: b, C: c}, nil
}

/*****************************************************************************************************************/

// SearchList resolves a StarTriangle[int] of observation indices into
// their directions in list.
func (t StarTriangle[T]) SearchList(list []units.Equatorial) (StarTriangle[units.Equatorial], error) {
	idx, ok := any(t).(StarTriangle[int])
	if !ok {
		return StarTriangle[units.Equatorial]{}, fmt.Errorf("search_list requires StarTriangle[int]: %w", xerrors.ErrInvalidValue)
	}

	if idx.A < 0 || idx.B < 0 || idx.C < 0 || len(list) <= idx.A || len(list) <= idx.B || len(list) <= idx.C {
		return StarTriangle[units.Equatorial]{}, fmt.Errorf("triangle index out of range of list: %w", xerrors.ErrNoMatch)
	}
	return StarTriangle[units.Equatorial]{A: list[idx.A], B: list[idx.B], C: list[idx.C]}, nil
}

/*****************************************************************************************************************/

// ToVector3 converts an equatorial triangle to unit direction vectors.
func (t StarTriangle[T]) ToVector3() StarTriangle[units.Vector3] {
	eq, ok := any(t).(StarTriangle[units.Equatorial])
	if !ok {
		return StarTriangle[units.Vector3]{}
	}
	return StarTriangle[units.Vector3]{
		A: eq.A.ToVector3(),
		B: eq.B.ToVector3(),
		C: eq.C.ToVector3(),
	}
}

/*****************************************************************************************************************/

// Iterator walks every combination (i, j, k) with 0 <= i < j < k < n
// exactly once, one Step() at a time, so a caller can interleave the
// combinatorial search with other work (or abort early) instead of
// building the whole triangle set up front.
type Iterator struct {
	I, J, K int
	n       int
	started bool
}

/*****************************************************************************************************************/

// NewIterator returns an Iterator over the combinations of n elements.
// n < 3 yields an iterator that never steps.
func NewIterator(n int) *Iterator {
	return &Iterator{n: n}
}

/*****************************************************************************************************************/

// Step advances to the next (I, J, K) combination and reports whether
// one exists. Call it before reading I/J/K for the first time.
func (it *Iterator) Step() bool {
	if it.n < 3 {
		return false
	}
	if !it.started {
		it.started = true
		it.I, it.J, it.K = 0, 1, 2
		return true
	}

	it.K++
	if it.K < it.n {
		return true
	}
	it.J++
	it.K = it.J + 1
	if it.K < it.n {
		return true
	}
	it.I++
	it.J = it.I + 1
	it.K = it.J + 1
	return it.J < it.n && it.K < it.n
}

/*****************************************************************************************************************/

// FindMatchTriangle walks every triple of observed directions, looks
// up each side's angular separation in db, and emits every
// self-consistent triangle match found (input = observation indices,
// output = matching catalog indices). It does not check specularity;
// the caller (pkg/constellation) is responsible for rejecting
// mirror-image matches. triangles is filled up to its capacity.
func FindMatchTriangle(stars []units.Equatorial, db database.Database, pairsPerSide int, triangles *containers.List[Match[StarTriangle[int]]]) {
	iter := NewIterator(len(stars))

	for iter.Step() {
		i, j, k := iter.I, iter.J, iter.K

		sideA := units.AngularSeparation(stars[i], stars[j])
		sideB := units.AngularSeparation(stars[i], stars[k])
		sideC := units.AngularSeparation(stars[j], stars[k])

		matchesA := containers.NewList[database.StarPair](pairsPerSide)
		matchesB := containers.NewList[database.StarPair](pairsPerSide)
		matchesC := containers.NewList[database.StarPair](pairsPerSide)

		db.FindCloseRef(sideA, matchesA)
		db.FindCloseRef(sideB, matchesB)
		db.FindCloseRef(sideC, matchesC)

		if matchesA.IsEmpty() || matchesB.IsEmpty() || matchesC.IsEmpty() {
			continue
		}

		for _, pairA := range matchesA.Slice() {
			for _, pairB := range matchesB.Slice() {
				for _, pairC := range matchesC.Slice() {
					output, ok := ConstructTriangle(pairA, pairB, pairC)
					if !ok || triangles.IsFull() {
						continue
					}
					triangles.PushBack(Match[StarTriangle[int]]{
						Input:  StarTriangle[int]{A: i, B: j, C: k},
						Output: output,
						Weight: 1.0,
					})
				}
			}
		}
	}
}

/*****************************************************************************************************************/

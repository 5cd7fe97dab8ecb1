package triangle

import (
	"testing"

	"github.com/lodestar-space/startracker/pkg/containers"
	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/kvector"
	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

func TestConstructTriangleNoMatch(t *testing.T) {
	a := database.StarPair{A: 0, B: 0}
	b := database.StarPair{A: 1, B: 1}
	c := database.StarPair{A: 2, B: 2}
	d := database.StarPair{A: 0, B: 1}

	cases := [][3]database.StarPair{{a, b, c}, {a, b, d}, {a, d, b}, {d, a, b}}
	for i, pairs := range cases {
		if _, ok := ConstructTriangle(pairs[0], pairs[1], pairs[2]); ok {
			t.Errorf("case %d: ConstructTriangle should fail", i)
		}
	}
}

/*****************************************************************************************************************/

func TestConstructTriangleLessThanThreeElements(t *testing.T) {
	a := database.StarPair{A: 0, B: 0}
	b := database.StarPair{A: 0, B: 1}
	c := database.StarPair{A: 0, B: 2}

	if _, ok := ConstructTriangle(a, a, a); ok {
		t.Errorf("ConstructTriangle(a,a,a) should fail")
	}
	if _, ok := ConstructTriangle(a, b, c); ok {
		t.Errorf("ConstructTriangle(a,b,c) should fail when only 2 distinct elements appear")
	}
}

/*****************************************************************************************************************/

func TestConstructTriangle(t *testing.T) {
	a := database.StarPair{A: 0, B: 1}
	b := database.StarPair{A: 1, B: 2}
	c := database.StarPair{A: 2, B: 0}

	check := func(pairA, pairB, pairC database.StarPair, want StarTriangle[int]) {
		t.Helper()
		got, ok := ConstructTriangle(pairA, pairB, pairC)
		if !ok {
			t.Fatalf("ConstructTriangle() failed, want %+v", want)
		}
		if got != want {
			t.Errorf("ConstructTriangle() = %+v, want %+v", got, want)
		}
	}

	check(a, b, c, StarTriangle[int]{1, 0, 2})
	check(a, c, b, StarTriangle[int]{0, 1, 2})
	check(b, a, c, StarTriangle[int]{1, 2, 0})
	check(b, c, a, StarTriangle[int]{2, 1, 0})
	check(c, a, b, StarTriangle[int]{0, 2, 1})
	check(c, b, a, StarTriangle[int]{2, 0, 1})
}

/*****************************************************************************************************************/

func TestHas(t *testing.T) {
	tri := StarTriangle[int]{A: 0, B: 1, C: 2}
	if !tri.Has(0) || !tri.Has(1) || !tri.Has(2) {
		t.Errorf("Has() should be true for every member")
	}
	if tri.Has(3) {
		t.Errorf("Has(3) should be false")
	}

	other := StarTriangle[int]{A: 1, B: 2, C: 3}
	if other.Has(0) || other.Has(4) {
		t.Errorf("Has() should be false for non-members")
	}
}

/*****************************************************************************************************************/

func TestSearchDatabase(t *testing.T) {
	db := database.Database{
		Catalog: []units.Equatorial{
			{RA: 1, Dec: 2},
			{RA: 2, Dec: 3},
			{RA: 3, Dec: 4},
		},
	}
	tri := StarTriangle[int]{A: 0, B: 1, C: 2}

	got, err := tri.SearchDatabase(db)
	if err != nil {
		t.Fatalf("SearchDatabase() returned unexpected error: %v", err)
	}
	if got.A.RA != 1 || got.A.Dec != 2 || got.C.RA != 3 || got.C.Dec != 4 {
		t.Errorf("SearchDatabase() = %+v", got)
	}
}

/*****************************************************************************************************************/

func TestSearchDatabaseInvalid(t *testing.T) {
	db := database.Database{Catalog: nil}
	tri := StarTriangle[int]{A: 1, B: 1, C: 1}
	if _, err := tri.SearchDatabase(db); err == nil {
		t.Errorf("SearchDatabase() should fail for an out-of-range catalog index")
	}
}

/*****************************************************************************************************************/

func TestSearchList(t *testing.T) {
	eq := units.Equatorial{RA: 0, Dec: 0}
	tri := StarTriangle[int]{A: 1, B: 2, C: 3}

	for n := 0; n < 3; n++ {
		list := make([]units.Equatorial, n)
		for i := range list {
			list[i] = eq
		}
		if _, err := tri.SearchList(list); err == nil {
			t.Errorf("SearchList() with %d elements should fail", n)
		}
	}
}

/*****************************************************************************************************************/

func TestToVector3(t *testing.T) {
	eq := units.Equatorial{RA: units.Radians(0.2), Dec: units.Radians(3.4)}
	tri := StarTriangle[units.Equatorial]{A: eq, B: eq, C: eq}
	got := tri.ToVector3()
	want := eq.ToVector3()
	if got.A != want || got.B != want || got.C != want {
		t.Errorf("ToVector3() = %+v, want every vertex %+v", got, want)
	}
}

/*****************************************************************************************************************/

func TestIteratorCoversEveryCombination(t *testing.T) {
	iter := NewIterator(4)
	var got [][3]int
	for iter.Step() {
		got = append(got, [3]int{iter.I, iter.J, iter.K})
	}

	want := [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d (%v)", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("combination %d = %v, want %v", i, got[i], w)
		}
	}
}

/*****************************************************************************************************************/

func TestIteratorTooFewElements(t *testing.T) {
	iter := NewIterator(2)
	if iter.Step() {
		t.Errorf("Step() should never succeed with fewer than 3 elements")
	}
}

/*****************************************************************************************************************/

func TestFindMatchTriangle(t *testing.T) {
	stars := []units.Equatorial{
		{RA: 0, Dec: 0},
		{RA: 0.1, Dec: 0},
		{RA: 0, Dec: 0.1},
	}

	dist01 := units.AngularSeparation(stars[0], stars[1])
	dist02 := units.AngularSeparation(stars[0], stars[2])
	dist12 := units.AngularSeparation(stars[1], stars[2])

	db := database.Database{
		Distance: []units.Radians{dist01, dist02, dist12},
		Pairs: []database.StarPair{
			{A: 10, B: 11},
			{A: 10, B: 12},
			{A: 11, B: 12},
		},
		KVector: kvector.New(1, float64(min3(dist01, dist02, dist12)), float64(max3(dist01, dist02, dist12))),
		KBins:   []int{0, 3},
	}

	triangles := containers.NewList[Match[StarTriangle[int]]](128)
	FindMatchTriangle(stars, db, 10, triangles)

	isCatalogTriangle := func(tri StarTriangle[int]) bool {
		seen := map[int]bool{tri.A: true, tri.B: true, tri.C: true}
		return len(seen) == 3 && seen[10] && seen[11] && seen[12]
	}

	found := false
	for _, m := range triangles.Slice() {
		if m.Input != (StarTriangle[int]{A: 0, B: 1, C: 2}) {
			t.Errorf("Input = %+v, want {0 1 2}", m.Input)
		}
		if isCatalogTriangle(m.Output) {
			found = true
		}
	}
	if !found {
		t.Errorf("FindMatchTriangle() did not find the catalog triangle {10,11,12} in any arrangement, got %+v", triangles.Slice())
	}
}

/*****************************************************************************************************************/

func min3(a, b, c units.Radians) units.Radians {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c units.Radians) units.Radians {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

/*****************************************************************************************************************/

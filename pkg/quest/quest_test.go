package quest

import (
	"errors"
	"math"
	"testing"

	"github.com/lodestar-space/startracker/pkg/triangle"
	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

/*****************************************************************************************************************/

func vectorsClose(a, b units.Vector3, tolerance float64) bool {
	return almostEqual(a.X, b.X, tolerance) && almostEqual(a.Y, b.Y, tolerance) && almostEqual(a.Z, b.Z, tolerance)
}

/*****************************************************************************************************************/

func TestEstimateEmptyInput(t *testing.T) {
	if _, err := Estimate(nil); !errors.Is(err, xerrors.ErrInvalidSize) {
		t.Errorf("Estimate(nil) err = %v, want ErrInvalidSize", err)
	}
}

/*****************************************************************************************************************/

func TestEstimateZeroWeight(t *testing.T) {
	matches := []triangle.Match[units.Vector3]{
		{Input: units.Vector3{X: 1}, Output: units.Vector3{X: 1}, Weight: 0},
	}
	if _, err := Estimate(matches); !errors.Is(err, xerrors.ErrInvalidValue) {
		t.Errorf("Estimate() err = %v, want ErrInvalidValue", err)
	}
}

/*****************************************************************************************************************/

// TestEstimateIdenticalFramesReturnsIdentity confirms that when the
// observed directions exactly equal the catalog directions, QUEST
// returns the identity rotation: the orthonormal basis makes B
// symmetric, so z is the zero vector and the Rodrigues parameter
// collapses to zero regardless of the eigenvalue found.
func TestEstimateIdenticalFramesReturnsIdentity(t *testing.T) {
	basis := []units.Vector3{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}

	matches := make([]triangle.Match[units.Vector3], len(basis))
	for i, v := range basis {
		matches[i] = triangle.Match[units.Vector3]{Input: v, Output: v, Weight: 1.0}
	}

	got, err := Estimate(matches)
	if err != nil {
		t.Fatalf("Estimate() returned unexpected error: %v", err)
	}

	want := units.IdentityQuaternion()
	if !got.Equals(want) {
		t.Errorf("Estimate() = %+v, want identity %+v", got, want)
	}
}

/*****************************************************************************************************************/

// TestEstimateRecoversKnownRotation builds observed directions by
// rotating a catalog basis with a known quaternion and checks that
// Estimate recovers that same rotation: the returned quaternion maps
// each catalog direction (Match.Output) onto its observed direction
// (Match.Input).
func TestEstimateRecoversKnownRotation(t *testing.T) {
	catalog := []units.Vector3{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}

	half := math.Pi / 4 // 90 degree rotation about Z
	rotation := units.Quaternion{W: math.Cos(half), X: 0, Y: 0, Z: math.Sin(half)}

	matches := make([]triangle.Match[units.Vector3], len(catalog))
	for i, c := range catalog {
		matches[i] = triangle.Match[units.Vector3]{
			Input:  rotation.Rotate(c),
			Output: c,
			Weight: 1.0,
		}
	}

	got, err := Estimate(matches)
	if err != nil {
		t.Fatalf("Estimate() returned unexpected error: %v", err)
	}

	want := rotation
	if !got.Equals(want) {
		t.Errorf("Estimate() = %+v, want rotation = %+v", got, want)
	}

	for i, m := range matches {
		rotated := got.Rotate(m.Output)
		if !vectorsClose(rotated, m.Input, 1e-9) {
			t.Errorf("Estimate() rotated catalog[%d] = %+v, want observed %+v", i, rotated, m.Input)
		}
	}
}

/*****************************************************************************************************************/

// TestEstimateWeightsNeedNotSumToOne checks that an unnormalised weight
// set still produces the same attitude as its normalised equivalent.
func TestEstimateWeightsNeedNotSumToOne(t *testing.T) {
	catalog := []units.Vector3{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	half := math.Pi / 6
	rotation := units.Quaternion{W: math.Cos(half), X: 0, Y: math.Sin(half), Z: 0}

	unnormalised := make([]triangle.Match[units.Vector3], len(catalog))
	normalised := make([]triangle.Match[units.Vector3], len(catalog))
	for i, c := range catalog {
		obs := rotation.Rotate(c)
		unnormalised[i] = triangle.Match[units.Vector3]{Input: obs, Output: c, Weight: 10.0}
		normalised[i] = triangle.Match[units.Vector3]{Input: obs, Output: c, Weight: 1.0 / 3.0}
	}

	got1, err1 := Estimate(unnormalised)
	got2, err2 := Estimate(normalised)
	if err1 != nil || err2 != nil {
		t.Fatalf("Estimate() returned unexpected errors: %v, %v", err1, err2)
	}
	if !got1.Equals(got2) {
		t.Errorf("Estimate() with scaled weights = %+v, want %+v", got1, got2)
	}
}

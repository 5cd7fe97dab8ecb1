package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

/*****************************************************************************************************************/

func TestRadiansDegreesRoundTrip(t *testing.T) {
	got := Degrees(Radians(45))
	if !almostEqual(got, 45, 1e-9) {
		t.Errorf("Degrees(Radians(45)) = %v, want 45", got)
	}
}

/*****************************************************************************************************************/

func TestIntrinsicRoundTrip(t *testing.T) {
	in := NewIntrinsic(units.Radians(Radians(60)), 1000, units.Vector2{X: 500, Y: 500})

	p := units.Vector2{X: 600, Y: 450}
	camera := in.FromImage(p)
	if camera.Z <= 0 {
		t.Fatalf("FromImage should yield a forward-facing direction, got z=%v", camera.Z)
	}

	back, err := in.ToImage(camera)
	if err != nil {
		t.Fatalf("ToImage() returned unexpected error: %v", err)
	}
	if !almostEqual(back.X, p.X, 1e-6) || !almostEqual(back.Y, p.Y, 1e-6) {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
}

/*****************************************************************************************************************/

func TestIntrinsicToImageBehindSensor(t *testing.T) {
	in := NewIntrinsic(units.Radians(Radians(60)), 1000, units.Vector2{X: 500, Y: 500})
	_, err := in.ToImage(units.Vector3{X: 0, Y: 0, Z: -1})
	if !errors.Is(err, xerrors.ErrInvalidValue) {
		t.Errorf("ToImage behind sensor = %v, want ErrInvalidValue", err)
	}
}

/*****************************************************************************************************************/

func TestLookAtColinearFails(t *testing.T) {
	forward := units.Vector3{X: 0, Y: 0, Z: 1}
	up := units.Vector3{X: 0, Y: 0, Z: 2}
	_, err := LookAt(forward, up)
	if !errors.Is(err, xerrors.ErrInvalidValue) {
		t.Errorf("LookAt with colinear vectors = %v, want ErrInvalidValue", err)
	}
}

/*****************************************************************************************************************/

func TestLookAtForwardMapsToCameraZ(t *testing.T) {
	forward := units.Vector3{X: 1, Y: 0, Z: 0}
	up := units.Vector3{X: 0, Y: 0, Z: 1}

	ex, err := LookAt(forward, up)
	if err != nil {
		t.Fatalf("LookAt() returned unexpected error: %v", err)
	}

	camera := ex.ToImage(forward)
	if !almostEqual(camera.Z, 1, 1e-9) {
		t.Errorf("forward direction should map to camera +Z, got %+v", camera)
	}
}

/*****************************************************************************************************************/

func TestExtrinsicRoundTrip(t *testing.T) {
	forward := units.Vector3{X: 0, Y: 1, Z: 0}
	up := units.Vector3{X: 0, Y: 0, Z: 1}
	ex, err := LookAt(forward, up)
	if err != nil {
		t.Fatalf("LookAt() returned unexpected error: %v", err)
	}

	world := units.Vector3{X: 0.3, Y: 0.8, Z: -0.2}.Normalized()
	camera := ex.ToImage(world)
	back := ex.ToWorld(camera)

	if !almostEqual(back.X, world.X, 1e-9) || !almostEqual(back.Y, world.Y, 1e-9) || !almostEqual(back.Z, world.Z, 1e-9) {
		t.Errorf("round trip = %+v, want %+v", back, world)
	}
}

/*****************************************************************************************************************/

func TestIdentityExtrinsicIsNoOp(t *testing.T) {
	ex := IdentityExtrinsic()
	world := units.Vector3{X: 1, Y: 2, Z: 3}
	camera := ex.ToImage(world)
	if camera != world {
		t.Errorf("IdentityExtrinsic().ToImage(v) = %+v, want %+v", camera, world)
	}
}

/*****************************************************************************************************************/

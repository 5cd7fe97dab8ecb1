// Package projection implements the pinhole camera model mapping image
// pixels to camera-space direction vectors (Intrinsic) and camera space
// to world space (Extrinsic).
package projection

import (
	"fmt"
	"math"

	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// RAD2DEG converts radians to degrees by multiplication.
var RAD2DEG = 180 / math.Pi

// DEG2RAD converts degrees to radians by multiplication.
var DEG2RAD = math.Pi / 180

/*****************************************************************************************************************/

// Radians converts a plain float64 in degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * DEG2RAD
}

/*****************************************************************************************************************/

// Degrees converts a plain float64 in radians to degrees.
func Degrees(radians float64) float64 {
	return radians * RAD2DEG
}

/*****************************************************************************************************************/

// Intrinsic holds the pinhole camera's focal length and principal point,
// both in pixel units.
type Intrinsic struct {
	FocalLength    float64
	PrincipalPoint units.Vector2
}

/*****************************************************************************************************************/

// NewIntrinsic derives an Intrinsic from the diagonal field of view and
// diagonal sensor size (both in the image's own units: fovDiagonal in
// radians, sensorDiagonal in pixels), per f = sensor_diagonal /
// (2*tan(fov/2)).
func NewIntrinsic(fovDiagonal units.Radians, sensorDiagonal float64, principalPoint units.Vector2) Intrinsic {
	f := sensorDiagonal / (2 * math.Tan(float64(fovDiagonal)/2))
	return Intrinsic{FocalLength: f, PrincipalPoint: principalPoint}
}

/*****************************************************************************************************************/

// FromImage maps an image point (u, v) to a normalized camera-space
// direction vector.
func (in Intrinsic) FromImage(p units.Vector2) units.Vector3 {
	v := units.Vector3{
		X: p.X - in.PrincipalPoint.X,
		Y: p.Y - in.PrincipalPoint.Y,
		Z: in.FocalLength,
	}
	return v.Normalized()
}

/*****************************************************************************************************************/

// ToImage maps a camera-space point with z > 0 back to an image point.
// Points with z <= 0 lie behind the sensor and are not represented in
// the image; the caller must check before relying on the result.
func (in Intrinsic) ToImage(camera units.Vector3) (units.Vector2, error) {
	if camera.Z <= 0 {
		return units.Vector2{}, fmt.Errorf("point behind sensor (z=%v): %w", camera.Z, xerrors.ErrInvalidValue)
	}
	return units.Vector2{
		X: in.FocalLength*camera.X/camera.Z + in.PrincipalPoint.X,
		Y: in.FocalLength*camera.Y/camera.Z + in.PrincipalPoint.Y,
	}, nil
}

/*****************************************************************************************************************/

// Extrinsic holds the world-to-camera rotation.
type Extrinsic struct {
	R [3][3]float64
}

/*****************************************************************************************************************/

// IdentityExtrinsic returns the no-rotation extrinsic (camera frame
// equals world frame).
func IdentityExtrinsic() Extrinsic {
	return Extrinsic{R: [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}}
}

/*****************************************************************************************************************/

// LookAt builds an Extrinsic whose camera-space +Z axis points along
// forward and whose camera-space +Y axis is in the plane spanned by
// forward and up. forward and up must not be colinear.
func LookAt(forward, up units.Vector3) (Extrinsic, error) {
	f := forward.Normalized()
	right := up.Cross(f)
	if right.Magnitude() < units.Epsilon {
		return Extrinsic{}, fmt.Errorf("look_at with colinear forward/up: %w", xerrors.ErrInvalidValue)
	}
	right = right.Normalized()
	camUp := f.Cross(right)

	// Rows of R are the camera axes (right, up, forward) expressed in
	// world coordinates, so R * world = camera.
	return Extrinsic{R: [3][3]float64{
		{right.X, right.Y, right.Z},
		{camUp.X, camUp.Y, camUp.Z},
		{f.X, f.Y, f.Z},
	}}, nil
}

/*****************************************************************************************************************/

func matVec(m [3][3]float64, v units.Vector3) units.Vector3 {
	return units.Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

/*****************************************************************************************************************/

func transpose(m [3][3]float64) [3][3]float64 {
	var t [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[j][i] = m[i][j]
		}
	}
	return t
}

/*****************************************************************************************************************/

// ToImage maps a world-space direction into camera space: R * world.
func (ex Extrinsic) ToImage(world units.Vector3) units.Vector3 {
	return matVec(ex.R, world)
}

/*****************************************************************************************************************/

// ToWorld maps a camera-space direction back to world space: Rᵀ * camera.
func (ex Extrinsic) ToWorld(camera units.Vector3) units.Vector3 {
	return matVec(transpose(ex.R), camera)
}

/*****************************************************************************************************************/

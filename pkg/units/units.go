// Package units holds the scalar and vector types shared across the
// star-tracker pipeline: angle wrappers, cartesian vectors, equatorial
// coordinates, and quaternions. Radians is the canonical angle
// representation; Degrees and Hours exist only at external boundaries
// (catalog ingestion, CLI flags, visualisation).
package units

import "math"

/*****************************************************************************************************************/

// Epsilon is the default tolerance used for float comparisons across the
// pipeline (vector equality, degenerate-triangle checks, etc).
const Epsilon = 1e-9

/*****************************************************************************************************************/

// Radians is an angle in radians, the canonical internal angle unit.
type Radians float64

/*****************************************************************************************************************/

// Degrees is an angle in degrees, used only at external boundaries.
type Degrees float64

/*****************************************************************************************************************/

// Hours is a right-ascension-style angle in hours, used only at external
// boundaries (e.g. HMS-formatted catalog input).
type Hours float64

/*****************************************************************************************************************/

// ToRadians converts Degrees to Radians.
func (d Degrees) ToRadians() Radians {
	return Radians(float64(d) * math.Pi / 180)
}

/*****************************************************************************************************************/

// ToDegrees converts Radians to Degrees.
func (r Radians) ToDegrees() Degrees {
	return Degrees(float64(r) * 180 / math.Pi)
}

/*****************************************************************************************************************/

// ToRadians converts Hours to Radians (1h = 15 degrees).
func (h Hours) ToRadians() Radians {
	return Radians(float64(h) * 15 * math.Pi / 180)
}

/*****************************************************************************************************************/

// Pixel is a discrete location in an image grid.
type Pixel struct {
	X int
	Y int
}

/*****************************************************************************************************************/

// Vector2 is a cartesian point in the image/camera plane.
type Vector2 struct {
	X float64
	Y float64
}

/*****************************************************************************************************************/

// Equals reports whether two Vector2 are equal within Epsilon.
func (v Vector2) Equals(o Vector2) bool {
	return math.Abs(v.X-o.X) < Epsilon && math.Abs(v.Y-o.Y) < Epsilon
}

/*****************************************************************************************************************/

// Vector3 is a cartesian direction or point in camera or world space.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

/*****************************************************************************************************************/

// Magnitude returns the Euclidean norm of v.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

/*****************************************************************************************************************/

// Normalized returns v scaled to unit length. If v has zero magnitude, the
// zero vector is returned unchanged.
func (v Vector3) Normalized() Vector3 {
	m := v.Magnitude()
	if m == 0 {
		return v
	}
	return Vector3{X: v.X / m, Y: v.Y / m, Z: v.Z / m}
}

/*****************************************************************************************************************/

// Dot returns the dot product of v and o.
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

/*****************************************************************************************************************/

// Cross returns the cross product v x o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

/*****************************************************************************************************************/

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

/*****************************************************************************************************************/

// Scale returns v scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

/*****************************************************************************************************************/

// AngleTo returns the angle between v and o, in radians, via the dot
// product of their normalized forms. Degenerate (zero-length) vectors
// return 0.
func (v Vector3) AngleTo(o Vector3) Radians {
	vn := v.Normalized()
	on := o.Normalized()
	if vn.Magnitude() == 0 || on.Magnitude() == 0 {
		return 0
	}
	d := vn.Dot(on)
	// Clamp for floating-point drift outside [-1, 1]:
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return Radians(math.Acos(d))
}

/*****************************************************************************************************************/

// Equatorial is a celestial coordinate: right ascension in [0, 2pi) and
// declination in [-pi/2, pi/2]. This is the storage form of a sky
// direction in the frozen catalog.
type Equatorial struct {
	RA  Radians
	Dec Radians
}

/*****************************************************************************************************************/

// ToVector3 converts an Equatorial direction to a unit Vector3 in the
// inertial frame.
func (eq Equatorial) ToVector3() Vector3 {
	cosDec := math.Cos(float64(eq.Dec))
	return Vector3{
		X: cosDec * math.Cos(float64(eq.RA)),
		Y: cosDec * math.Sin(float64(eq.RA)),
		Z: math.Sin(float64(eq.Dec)),
	}
}

/*****************************************************************************************************************/

// EquatorialFromVector3 converts a unit Vector3 back to an Equatorial
// direction.
func EquatorialFromVector3(v Vector3) Equatorial {
	n := v.Normalized()
	ra := math.Atan2(n.Y, n.X)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec := math.Asin(clamp(n.Z, -1, 1))
	return Equatorial{RA: Radians(ra), Dec: Radians(dec)}
}

/*****************************************************************************************************************/

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

/*****************************************************************************************************************/

// AngularSeparation returns the great-circle angle between two
// Equatorial directions, in radians.
func AngularSeparation(a, b Equatorial) Radians {
	return a.ToVector3().AngleTo(b.ToVector3())
}

/*****************************************************************************************************************/

// Quaternion is a unit quaternion (W, X, Y, Z) representing a 3D rotation,
// the output of the QUEST solver and the pipeline as a whole.
type Quaternion struct {
	W float64
	X float64
	Y float64
	Z float64
}

/*****************************************************************************************************************/

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

/*****************************************************************************************************************/

// Magnitude returns the norm of q.
func (q Quaternion) Magnitude() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

/*****************************************************************************************************************/

// Normalized returns q scaled to unit norm. A zero-norm input returns the
// identity quaternion.
func (q Quaternion) Normalized() Quaternion {
	m := q.Magnitude()
	if m == 0 {
		return IdentityQuaternion()
	}
	return Quaternion{W: q.W / m, X: q.X / m, Y: q.Y / m, Z: q.Z / m}
}

/*****************************************************************************************************************/

// Conjugate returns the conjugate of q, which for a unit quaternion is
// also its inverse.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

/*****************************************************************************************************************/

// Mul returns the Hamilton product q * o, i.e. the rotation q applied
// after o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

/*****************************************************************************************************************/

// Rotate applies q's rotation to the vector v, via q * (0, v) * q^-1.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	p := Quaternion{W: 0, X: v.X, Y: v.Y, Z: v.Z}
	r := q.Mul(p).Mul(q.Conjugate())
	return Vector3{X: r.X, Y: r.Y, Z: r.Z}
}

/*****************************************************************************************************************/

// Equals reports whether two quaternions are equal within Epsilon,
// accounting for the double-cover ambiguity (q and -q represent the same
// rotation).
func (q Quaternion) Equals(o Quaternion) bool {
	same := math.Abs(q.W-o.W) < Epsilon && math.Abs(q.X-o.X) < Epsilon &&
		math.Abs(q.Y-o.Y) < Epsilon && math.Abs(q.Z-o.Z) < Epsilon
	negated := math.Abs(q.W+o.W) < Epsilon && math.Abs(q.X+o.X) < Epsilon &&
		math.Abs(q.Y+o.Y) < Epsilon && math.Abs(q.Z+o.Z) < Epsilon
	return same || negated
}

/*****************************************************************************************************************/

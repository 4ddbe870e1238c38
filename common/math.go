package common

import (
	"math"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// WorldUp is the +Y axis used as the default up vector for orientation helpers.
	WorldUp = r3.Vec{X: 0, Y: 1, Z: 0}

	// WorldForward is the +Z axis, the local forward direction of every transform.
	WorldForward = r3.Vec{X: 0, Y: 0, Z: 1}

	// IdentityRotation is the rotation that leaves every vector unchanged.
	IdentityRotation = r3.Rotation{Real: 1}
)

// CeilDiv returns n divided by d rounded up. It is used to turn a texture dimension into a
// compute dispatch group count. A zero divisor returns zero.
//
// Parameters:
//   - n: the dividend (e.g. a texture dimension in texels)
//   - d: the divisor (e.g. the workgroup size along the same axis)
//
// Returns:
//   - uint32: ceil(n / d)
func CeilDiv(n, d uint32) uint32 {
	if d == 0 {
		return 0
	}
	return (n + d - 1) / d
}

// DegToRad converts an angle in degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// ToVec converts a float32 triple into a gonum r3.Vec.
func ToVec(v [3]float32) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// FromVec converts a gonum r3.Vec into a float32 triple.
func FromVec(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Vec4 widens a float32 triple into a 4-component shader vector with the given w.
func Vec4(v [3]float32, w float32) [4]float32 {
	return [4]float32{v[0], v[1], v[2], w}
}

// Normalize3 returns v scaled to unit length.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - [3]float32: the unit-length vector, or v unchanged when it has zero or non-finite length
//   - bool: false if v could not be normalized
func Normalize3(v [3]float32) ([3]float32, bool) {
	l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return v, false
	}
	inv := 1 / l
	return [3]float32{v[0] * inv, v[1] * inv, v[2] * inv}, true
}

// Length3 returns the Euclidean length of v.
func Length3(v [3]float32) float32 {
	return math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// ComposeRotations returns the rotation that applies first and then second.
//
// Parameters:
//   - first: the rotation applied first
//   - second: the rotation applied after first
//
// Returns:
//   - r3.Rotation: the combined rotation, renormalized to unit length
func ComposeRotations(first, second r3.Rotation) r3.Rotation {
	q := quat.Mul(quat.Number(second), quat.Number(first))
	if l := quat.Abs(q); l != 0 && l != 1 {
		q = quat.Scale(1/l, q)
	}
	return r3.Rotation(q)
}

// Forward returns the world-space forward axis (+Z rotated by orientation).
func Forward(orientation r3.Rotation) r3.Vec {
	return orientation.Rotate(WorldForward)
}

// RotateAround rotates a transform about a pivot point. Both the position and the orientation
// are rotated, matching the behavior of orbiting an object around a world-space center.
// A zero axis leaves the transform unchanged.
//
// Parameters:
//   - position: the current world-space position
//   - orientation: the current orientation
//   - center: the pivot point
//   - axis: the rotation axis (need not be normalized)
//   - degrees: the rotation angle in degrees, counter-clockwise about axis
//
// Returns:
//   - r3.Vec: the rotated position
//   - r3.Rotation: the rotated orientation
func RotateAround(position r3.Vec, orientation r3.Rotation, center, axis r3.Vec, degrees float64) (r3.Vec, r3.Rotation) {
	if r3.Norm2(axis) == 0 || degrees == 0 {
		return position, orientation
	}
	rot := r3.NewRotation(DegToRad(degrees), axis)
	offset := rot.Rotate(r3.Sub(position, center))
	return r3.Add(center, offset), ComposeRotations(orientation, rot)
}

// LookRotation builds the orientation whose forward axis points along forward and whose up
// axis is as close to up as possible. When forward is parallel to up, +Z (or +X if forward is
// itself along Z) is used as the fallback up vector.
//
// Parameters:
//   - forward: the desired forward direction (need not be normalized)
//   - up: the reference up direction
//
// Returns:
//   - r3.Rotation: the orientation, or IdentityRotation if forward is zero
func LookRotation(forward, up r3.Vec) r3.Rotation {
	if r3.Norm2(forward) == 0 {
		return IdentityRotation
	}
	f := r3.Unit(forward)
	right := r3.Cross(up, f)
	if r3.Norm2(right) < 1e-12 {
		fallback := WorldForward
		if math.Abs(f.Z) > 0.9 {
			fallback = r3.Vec{X: 1}
		}
		right = r3.Cross(fallback, f)
	}
	right = r3.Unit(right)
	u := r3.Cross(f, right)

	// columns of the rotation matrix are (right, u, f)
	m00, m01, m02 := right.X, u.X, f.X
	m10, m11, m12 := right.Y, u.Y, f.Y
	m20, m21, m22 := right.Z, u.Z, f.Z

	var q quat.Number
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	if l := quat.Abs(q); l != 0 {
		q = quat.Scale(1/l, q)
	}
	return r3.Rotation(q)
}

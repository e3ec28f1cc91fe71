// Package quat implements the unit-quaternion rotation convention
// this system uses everywhere: (w, x, y, z), applied to vectors via
// the explicit 3x3 expansion of q*p*q^-1 rather than a library call.
//
// This is the one place spec.md §4.2 requires hand-rolled math over a
// library ("this is the only place the core depends on the quaternion
// convention — document (w,x,y,z)").
package quat

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Quat is a unit quaternion in (w, x, y, z) order.
type Quat struct {
	W, X, Y, Z float64
}

// Identity returns the no-rotation quaternion.
func Identity() Quat { return Quat{W: 1} }

// Norm returns the quaternion's Euclidean norm.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns q scaled to unit norm. If q is the zero
// quaternion, Identity is returned rather than dividing by zero.
func (q Quat) Normalized() Quat {
	n := q.Norm()
	if n < 1e-12 {
		return Identity()
	}
	return Quat{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// RotationMatrix expands the unit quaternion into its equivalent 3x3
// rotation matrix, the explicit form of q*p*q^-1 spec.md §4.2 mandates.
func (q Quat) RotationMatrix() [3][3]float64 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// Rotate applies the quaternion's rotation to a vector.
func (q Quat) Rotate(v r3.Vec) r3.Vec {
	m := q.RotationMatrix()
	return r3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Euler holds roll/pitch/yaw in radians.
type Euler struct {
	Roll, Pitch, Yaw float64
}

// ToEuler derives Euler angles from the quaternion using the
// conventions in spec.md §3.
func (q Quat) ToEuler() Euler {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	roll := math.Atan2(2*(w*x+y*z), w*w-x*x-y*y+z*z)
	sinp := 2 * (w*y - x*z)
	var pitch float64
	switch {
	case sinp >= 1:
		pitch = math.Pi / 2
	case sinp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sinp)
	}
	yaw := math.Atan2(2*(w*z+x*y), w*w+x*x-y*y-z*z)
	return Euler{Roll: roll, Pitch: pitch, Yaw: yaw}
}

package quat

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-3

func TestIdentityRotationIsNoop(t *testing.T) {
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	got := Identity().Rotate(v)
	if math.Abs(got.X-v.X) > eps || math.Abs(got.Y-v.Y) > eps || math.Abs(got.Z-v.Z) > eps {
		t.Fatalf("identity rotation changed vector: got %v want %v", got, v)
	}
}

func TestToEuler90DegYaw(t *testing.T) {
	// 90 degree yaw
	half := math.Pi / 4
	q := Quat{W: math.Cos(half), X: 0, Y: 0, Z: math.Sin(half)}.Normalized()
	e := q.ToEuler()
	if math.Abs(e.Yaw-math.Pi/2) > eps {
		t.Fatalf("yaw = %v, want ~pi/2", e.Yaw)
	}
	if math.Abs(e.Roll) > eps || math.Abs(e.Pitch) > eps {
		t.Fatalf("unexpected roll/pitch: %+v", e)
	}
}

func TestRotateUnitX90DegYaw(t *testing.T) {
	half := math.Pi / 4
	q := Quat{W: math.Cos(half), X: 0, Y: 0, Z: math.Sin(half)}.Normalized()
	got := q.Rotate(r3.Vec{X: 1})
	if math.Abs(got.X) > eps || math.Abs(got.Y-1) > eps {
		t.Fatalf("rotate(1,0,0) by 90deg yaw = %v, want (0,1,0)", got)
	}
}

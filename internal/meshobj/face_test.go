package meshobj

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func flatTriangle() *Face {
	v := [3]r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	n := [3]r3.Vec{
		{Z: 1}, {Z: 1}, {Z: 1},
	}
	return NewFace(0, v, n)
}

func TestProjectPointInsideAboveFace(t *testing.T) {
	f := flatTriangle()
	inside, depth := f.ProjectPoint(r3.Vec{X: 0.25, Y: 0.25, Z: 0.5})
	if !inside {
		t.Fatalf("expected point to project inside the triangle")
	}
	if math.Abs(depth-0.5) > 1e-9 {
		t.Fatalf("depth = %v, want 0.5", depth)
	}
}

func TestProjectPointOutsideFace(t *testing.T) {
	f := flatTriangle()
	inside, _ := f.ProjectPoint(r3.Vec{X: 2, Y: 2, Z: 0})
	if inside {
		t.Fatalf("expected point outside the triangle footprint")
	}
}

func TestRayIntersectionHit(t *testing.T) {
	f := flatTriangle()
	dist, ok := f.RayIntersection(r3.Vec{X: 0.2, Y: 0.2, Z: 5}, r3.Vec{Z: -1})
	if !ok {
		t.Fatalf("expected ray to hit the triangle")
	}
	if math.Abs(dist-5) > 1e-6 {
		t.Fatalf("dist = %v, want 5", dist)
	}
}

func TestRayIntersectionMiss(t *testing.T) {
	f := flatTriangle()
	_, ok := f.RayIntersection(r3.Vec{X: 5, Y: 5, Z: 5}, r3.Vec{Z: -1})
	if ok {
		t.Fatalf("expected ray to miss the triangle")
	}
}

package worldmap

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const boxOBJ = `v 0 0 0
v 10 0 0
v 10 10 0
v 0 10 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1
f 1/1/1 3/1/1 4/1/1
`

func loadTestMap(t *testing.T) *Map {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "map.obj")
	if err := os.WriteFile(path, []byte(boxOBJ), 0o644); err != nil {
		t.Fatalf("write test obj: %v", err)
	}
	m, err := Load(path, Params{
		CollisionPlusEps:  0.05,
		CollisionMinusEps: -0.05,
		Grid:              "2,2,1",
		MinimalDist:       0.25,
		MapOffset:         5,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func TestCheckWallsDetectsNearbyFloor(t *testing.T) {
	m := loadTestMap(t)
	normals := m.CheckWalls(r3.Vec{X: 2, Y: 2, Z: 0.02}, 0)
	if len(normals) == 0 {
		t.Fatalf("expected at least one wall normal near the floor")
	}
}

func TestCheckWallsEmptyFarFromFloor(t *testing.T) {
	m := loadTestMap(t)
	normals := m.CheckWalls(r3.Vec{X: 2, Y: 2, Z: 5}, 0)
	if len(normals) != 0 {
		t.Fatalf("expected no wall normals far from the floor, got %d", len(normals))
	}
}

func TestOutOfBounds(t *testing.T) {
	m := loadTestMap(t)
	if m.OutOfBounds(r3.Vec{X: 5, Y: 5, Z: 0}) {
		t.Fatalf("center of map should not be out of bounds")
	}
	if !m.OutOfBounds(r3.Vec{X: 1000, Y: 1000, Z: 1000}) {
		t.Fatalf("far point should be out of bounds")
	}
}

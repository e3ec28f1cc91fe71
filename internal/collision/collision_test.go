package collision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/uav"
	"github.com/nats-uav/aggregator/internal/worldmap"
)

const floorOBJ = `v -10 -10 0
v 10 -10 0
v 10 10 0
v -10 10 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1
f 1/1/1 3/1/1 4/1/1
`

func testMap(t *testing.T) *worldmap.Map {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "floor.obj")
	if err := os.WriteFile(path, []byte(floorOBJ), 0o644); err != nil {
		t.Fatalf("write floor obj: %v", err)
	}
	m, err := worldmap.Load(path, worldmap.Params{
		CollisionPlusEps:  0.05,
		CollisionMinusEps: -0.05,
		Grid:              "2,2,1",
		SphereRadius:      0.1,
		MinimalDist:       0.5,
		MapOffset:         5,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func TestCheckBoundaryLeavesCacheUntilNextCapture(t *testing.T) {
	m := testMap(t)
	objs := object.NewRegistry("")
	objs.ReplaceAll([]object.State{
		{ID: 1, Pos: r3.Vec{X: 0, Y: 0, Z: 0}},
		{ID: 2, Pos: r3.Vec{X: 1000, Y: 1000, Z: 1000}},
	})

	e := NewEngine(m, uav.NewRegistry(4), objs, 0.5, nil)
	e.checkBoundary(context.Background())

	// Boundary eviction is fire-and-forget against the free-body
	// child; the local cache itself is only refreshed by the next
	// capture, so this just confirms the call does not panic when
	// both in-bounds and out-of-bounds objects are present.
	if len(objs.Snapshot()) != 2 {
		t.Fatalf("expected registry snapshot unaffected until next capture")
	}
}

func TestCheckProximityNoLoggerDoesNotPanic(t *testing.T) {
	m := testMap(t)
	uavs := uav.NewRegistry(4)
	uavs.Add("alpha", nil, nil, nil, "")
	uavs.Add("bravo", nil, nil, nil, "")

	e := NewEngine(m, uavs, object.NewRegistry(""), 100, nil)
	e.checkProximity() // both UAVs share the sentinel position, so minimal_dist=100 guarantees a "collision"; must not panic with nil Logger
}

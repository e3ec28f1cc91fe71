package cargo

import (
	"context"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/quat"
	"github.com/nats-uav/aggregator/internal/uav"
)

func TestTickKeepsLinkWhenRopeSlack(t *testing.T) {
	uavs := uav.NewRegistry(4)
	slot, _ := uavs.Add("alpha", nil, nil, nil, "")
	_ = slot

	objs := object.NewRegistry("")
	objs.ReplaceAll([]object.State{{ID: 1, Pos: r3.Vec{X: 0, Y: 0, Z: 0}}})

	e := NewEngine(uavs, objs, 10)
	e.AddLink(slot.ID, 1, 5.0, 10.0, 1.0, r3.Vec{})

	// drone at its sentinel position (-1,-1,-1), object at origin:
	// rope length sqrt(3) < L=5, slack.
	e.Tick(context.Background())
	if len(e.links) != 1 {
		t.Fatalf("expected link to survive a slack tick")
	}
}

func TestTickTimesOutMissingEndpoint(t *testing.T) {
	uavs := uav.NewRegistry(4)
	objs := object.NewRegistry("")
	e := NewEngine(uavs, objs, 2)
	e.AddLink(99, 1, 1.0, 1.0, 1.0, r3.Vec{})

	e.Tick(context.Background())
	e.Tick(context.Background())
	if _, ok := e.links[LinkKey{99, 1}]; ok {
		t.Fatalf("expected link to be discarded after reaching timeout limit")
	}
}

func TestIdentityHookRotationKeepsOffset(t *testing.T) {
	q := quat.Quat{W: 1}
	rotated := q.Rotate(r3.Vec{X: 1})
	if rotated.X != 1 {
		t.Fatalf("identity rotation should not move hook offset")
	}
}

func TestRemoveAllForDrone(t *testing.T) {
	e := NewEngine(uav.NewRegistry(1), object.NewRegistry(""), 10)
	e.AddLink(1, 10, 1, 1, 1, r3.Vec{})
	e.AddLink(1, 11, 1, 1, 1, r3.Vec{})
	e.AddLink(2, 12, 1, 1, 1, r3.Vec{})

	e.RemoveAllForDrone(1)
	if len(e.links) != 1 {
		t.Fatalf("expected only drone 2's link to remain, got %d links", len(e.links))
	}
}

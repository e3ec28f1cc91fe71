// Package cargo implements the tether engine: spring-damper ropes
// linking a UAV's hook point to an object's center of mass.
//
// Grounded on original_source/src/cargo.rs, extended with the damping
// term and rope approach-rate spec.md §4.3 adds (the original only
// modeled the spring term) and with quaternion instead of Euler-angle
// hook rotation.
package cargo

import (
	"context"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/quat"
	"github.com/nats-uav/aggregator/internal/uav"
)

// Period is the tether engine's tick interval.
const Period = 2 * time.Millisecond

// LinkKey identifies a tether by its ordered endpoint pair.
type LinkKey struct {
	DroneID int
	ObjID   int
}

// Link is one tether's spring-damper parameters plus its timeout counter.
type Link struct {
	Length     float64
	K          float64
	B          float64
	HookOffset r3.Vec
	Timeout    int
}

// defaultTimeoutLimit is the number of ticks with a missing endpoint a
// link tolerates before being discarded, used when NewEngine is given
// a limit <= 0.
const defaultTimeoutLimit = 10

// pendingForce is one tick's resolved force/torque pair for a single link.
type pendingForce struct {
	droneID, objID int
	forceOnObject  r3.Vec
	forceOnUAV     r3.Vec
	torqueOnUAV    r3.Vec
}

// Engine owns the live link set and the UAV/object registries it
// reads poses from and writes forces into.
type Engine struct {
	links        map[LinkKey]*Link
	timeoutLimit int
	uavs         *uav.Registry
	objects      *object.Registry
}

// NewEngine builds an Engine with an empty link set.
func NewEngine(uavs *uav.Registry, objects *object.Registry, timeoutLimit int) *Engine {
	if timeoutLimit <= 0 {
		timeoutLimit = defaultTimeoutLimit
	}
	return &Engine{
		links:        make(map[LinkKey]*Link),
		timeoutLimit: timeoutLimit,
		uavs:         uavs,
		objects:      objects,
	}
}

// AddLink creates a tether between droneID and objID.
func (e *Engine) AddLink(droneID, objID int, length, k, b float64, hookOffset r3.Vec) {
	e.links[LinkKey{droneID, objID}] = &Link{Length: length, K: k, B: b, HookOffset: hookOffset}
}

// RemoveLink discards the tether between droneID and objID, if any
// (the "release" control command's effect).
func (e *Engine) RemoveLink(droneID, objID int) {
	delete(e.links, LinkKey{droneID, objID})
}

// RemoveAllForDrone discards every tether owned by droneID.
func (e *Engine) RemoveAllForDrone(droneID int) {
	for k := range e.links {
		if k.DroneID == droneID {
			delete(e.links, k)
		}
	}
}

// Links returns a shallow copy of the current link set, for the
// notification worker's periodic broadcast.
func (e *Engine) Links() map[LinkKey]Link {
	out := make(map[LinkKey]Link, len(e.links))
	for k, v := range e.links {
		out[k] = *v
	}
	return out
}

// Tick resolves one pass of the tether engine: snapshot poses, compute
// spring-damper forces, apply them, and age out stale links.
func (e *Engine) Tick(ctx context.Context) {
	if len(e.links) == 0 {
		return
	}

	poses := e.uavs.PoseAndVelocities()
	objStates := make(map[int]object.State)
	for _, s := range e.objects.Snapshot() {
		objStates[s.ID] = s
	}

	var forces []pendingForce
	for key, link := range e.links {
		drone, droneOK := poses[key.DroneID]
		obj, objOK := objStates[key.ObjID]
		if !droneOK || !objOK {
			link.Timeout++
			continue
		}

		dronePos := r3.Vec{X: drone.Pos[0], Y: drone.Pos[1], Z: drone.Pos[2]}
		droneVel := r3.Vec{X: drone.Vel[0], Y: drone.Vel[1], Z: drone.Vel[2]}
		q := quat.Quat{W: drone.Orientation.W, X: drone.Orientation.X, Y: drone.Orientation.Y, Z: drone.Orientation.Z}

		hookWorld := q.Rotate(link.HookOffset)
		anchor := r3.Add(dronePos, hookWorld)
		delta := r3.Sub(obj.Pos, anchor)
		length := r3.Norm(delta)
		if length <= link.Length || length < 1e-9 {
			continue
		}
		dir := r3.Scale(1/length, delta)

		approachRate := r3.Dot(obj.Vel, dir) - r3.Dot(droneVel, dir)
		magnitude := link.K*(length-link.Length) + link.B*approachRate
		forceOnObject := r3.Scale(-magnitude, dir)
		forceOnUAV := r3.Scale(-1, forceOnObject)
		torqueOnUAV := r3.Cross(hookWorld, forceOnUAV)

		forces = append(forces, pendingForce{
			droneID:       key.DroneID,
			objID:         key.ObjID,
			forceOnObject: forceOnObject,
			forceOnUAV:    forceOnUAV,
			torqueOnUAV:   torqueOnUAV,
		})
	}

	for k, link := range e.links {
		if link.Timeout >= e.timeoutLimit {
			delete(e.links, k)
		}
	}

	e.applyForces(ctx, forces)
}

// applyForces sends each object its single resolved force, and sums
// every UAV's forces from multiple ropes into one update message —
// exactly the batching spec.md §4.3 requires.
func (e *Engine) applyForces(ctx context.Context, forces []pendingForce) {
	if len(forces) == 0 {
		return
	}

	for _, f := range forces {
		e.objects.SetForce(ctx, f.objID, f.forceOnObject)
	}

	perDroneForce := make(map[int]r3.Vec)
	perDroneTorque := make(map[int]r3.Vec)
	for _, f := range forces {
		perDroneForce[f.droneID] = r3.Add(perDroneForce[f.droneID], f.forceOnUAV)
		perDroneTorque[f.droneID] = r3.Add(perDroneTorque[f.droneID], f.torqueOnUAV)
	}
	for droneID, force := range perDroneForce {
		e.uavs.ApplyExternalForce(ctx, droneID, force, perDroneTorque[droneID])
	}
}

// Run ticks the engine every Period until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Package object manages the free-body registry: projectiles and
// dropped cargo bodies tracked by a single shared physics child
// process, bridged over the aggregator's own control and state
// channels instead of the original's zmq XSUB/XPUB proxy.
//
// Grounded on original_source/src/objects.rs.
package object

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/ipc"
)

// State is one tracked object's latest position and velocity.
type State struct {
	ID  int
	Pos r3.Vec
	Vel r3.Vec
}

// ParseState parses one "id,px,py,pz,vx,vy,vz" segment of the
// free-body child's state broadcast — the Go equivalent of
// ObjectState::fromInfo.
func ParseState(info string) (State, error) {
	fields := strings.Split(info, ",")
	if len(fields) != 7 {
		return State{}, fmt.Errorf("object state has %d fields, want 7", len(fields))
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return State{}, fmt.Errorf("parse object id: %w", err)
	}
	nums := make([]float64, 6)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return State{}, fmt.Errorf("parse object field %d: %w", i+1, err)
		}
		nums[i] = v
	}
	return State{
		ID:  id,
		Pos: r3.Vec{X: nums[0], Y: nums[1], Z: nums[2]},
		Vel: r3.Vec{X: nums[3], Y: nums[4], Z: nums[5]},
	}, nil
}

// Registry is the aggregator's own cache of the free-body child's
// reported state, refreshed by the state capturer and queried by the
// collision/cargo/atmosphere workers without round-tripping to the
// child on every tick.
type Registry struct {
	mu         sync.RWMutex
	states     map[int]State
	controlAddr string
}

// NewRegistry builds a registry that issues control requests at controlAddr.
func NewRegistry(controlAddr string) *Registry {
	return &Registry{states: make(map[int]State), controlAddr: controlAddr}
}

// ReplaceAll swaps the cached state with a freshly parsed batch — the
// capturer calls this once per incoming state broadcast, mirroring
// parseInfo's full-replace semantics (the original never merges,
// it overwrites the whole Vec each time).
func (r *Registry) ReplaceAll(states []State) {
	next := make(map[int]State, len(states))
	for _, s := range states {
		next[s.ID] = s
	}
	r.mu.Lock()
	r.states = next
	r.mu.Unlock()
}

// Get returns the cached state for id.
func (r *Registry) Get(id int) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[id]
	return s, ok
}

// Positions implements atmosphere.ObjectSource.
func (r *Registry) Positions() map[int]r3.Vec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]r3.Vec, len(r.states))
	for id, s := range r.states {
		out[id] = s.Pos
	}
	return out
}

// Snapshot returns every cached object state.
func (r *Registry) Snapshot() []State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]State, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s)
	}
	return out
}

// Info carries the add() parameters spec.md §4.6 groups as
// "info{model, radius}": the projectile/cargo model name and the
// collision radius the collision engine's sphere checks use.
type Info struct {
	Model  string
	Radius float64
}

// Add implements spec.md §4.6's add(mass, CS, pos, vel, info{model,
// radius}) -> id contract: it asks the free-body child to spawn a new
// object and returns the id the child allocates for it (distinct from
// every UAV id). The object itself appears in the registry's own
// cache on the next state broadcast; Add only returns once the child
// has acknowledged the request.
func (r *Registry) Add(ctx context.Context, mass, cs float64, pos, vel r3.Vec, info Info) (int, error) {
	payload := fmt.Sprintf("a:%v,%v,%v,%v,%v,%v,%v,%v,%s,%v", mass, cs,
		pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z, info.Model, info.Radius)
	reply, err := ipc.Request(ctx, r.controlAddr, payload, defaultTimeout)
	if err != nil {
		return 0, err
	}
	status, rest, _ := strings.Cut(reply, ";")
	if status != "ok" {
		return 0, fmt.Errorf("object add rejected: %s", reply)
	}
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, fmt.Errorf("parse add reply id %q: %w", rest, err)
	}
	if id < 0 {
		return 0, fmt.Errorf("object add rejected (id=%d)", id)
	}
	return id, nil
}

// Remove asks the free-body child to drop object id.
func (r *Registry) Remove(ctx context.Context, id int) error {
	_, err := ipc.Request(ctx, r.controlAddr, fmt.Sprintf("r:%d", id), defaultTimeout)
	return err
}

// UpdateWinds implements atmosphere.ObjectWindNotifier: pushes a
// batch of per-object wind vectors to the free-body child in one
// request.
func (r *Registry) UpdateWinds(winds map[int]r3.Vec) {
	if len(winds) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("w:")
	for id, w := range winds {
		fmt.Fprintf(&b, "%d,%v,%v,%v;", id, w.X, w.Y, w.Z)
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	ipc.Request(ctx, r.controlAddr, b.String(), defaultTimeout)
}

// ApplySurfaceCollision reports a map/object contact to the free-body
// child so it can apply the bounce response.
func (r *Registry) ApplySurfaceCollision(ctx context.Context, id int, point, normal r3.Vec) error {
	payload := fmt.Sprintf("collision:%d,%v,%v,%v,%v,%v,%v", id,
		point.X, point.Y, point.Z, normal.X, normal.Y, normal.Z)
	_, err := ipc.Request(ctx, r.controlAddr, payload, defaultTimeout)
	return err
}

// SetForce applies an external force (e.g. a cargo tether pull) to
// object id.
func (r *Registry) SetForce(ctx context.Context, id int, force r3.Vec) error {
	payload := fmt.Sprintf("force:%d,%v,%v,%v", id, force.X, force.Y, force.Z)
	_, err := ipc.Request(ctx, r.controlAddr, payload, defaultTimeout)
	return err
}

package uav

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/config"
	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/meshobj"
	"github.com/nats-uav/aggregator/internal/quat"
)

// Slot is one occupied registry entry: a live UAV's identity,
// configuration, child processes and latest state.
type Slot struct {
	ID int
	// Index is the slot table index spec.md §3 means by "slot": the
	// lowest free index at spawn time, reused once the slot is freed.
	// TCP port offsets are derived from Index, never from ID.
	Index  int
	Name   string
	Config *config.DroneConfig
	// Mesh is the UAV's collision hull, loaded once at spawn time and
	// immutable thereafter.
	Mesh *meshobj.Obj

	Sim        *ipc.ChildProcess
	Controller *ipc.ChildProcess
	ControlAddr string

	mu    sync.RWMutex
	state State
	prev  State
}

// attachProcesses fills in a slot's child processes and control
// address after the slot has already been inserted into the registry.
// Used by the session manager, which must reserve a slot (whose index
// determines the ports) before it knows what to spawn.
func (s *Slot) attachProcesses(sim, controller *ipc.ChildProcess, controlAddr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sim = sim
	s.Controller = controller
	s.ControlAddr = controlAddr
}

func (s *Slot) setState(st State) {
	s.mu.Lock()
	s.prev = s.state
	s.state = st
	s.mu.Unlock()
}

// State returns the slot's latest snapshot.
func (s *Slot) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AccelerationMagnitude computes |a| from the current and previous
// state using the interval dt (seconds).
func (s *Slot) AccelerationMagnitude(dt float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccelerationMagnitude(s.prev, dt)
}

// Registry is the world's UAV slot table: dense monotonically
// increasing ids, never reused within a session, each bound to a
// reused slot index drawn from a fixed-size free list.
//
// Grounded on original_source/src/drones.rs's Vec<UAV>/Vec<DroneState>
// pair, generalized into addressable ids (the original indexed by
// Vec position alone, which spec.md §3's "never reused" invariant
// rules out) so removal doesn't shift any other UAV's identity. The
// slot index — separate from the id — is what spec.md §3/§4.1 mean by
// "slot table": a fixed-size table of client_limit slots, the lowest
// free one allocated on spawn and freed (and reusable) on despawn.
type Registry struct {
	mu       sync.RWMutex
	nextID   int
	slots    map[int]*Slot
	limit    int
	occupied []bool // occupied[i] true iff slot index i is currently assigned
}

// NewRegistry creates an empty registry with a slot table of limit entries.
func NewRegistry(limit int) *Registry {
	return &Registry{nextID: 1, slots: make(map[int]*Slot), limit: limit, occupied: make([]bool, limit)}
}

// allocateIndex returns the lowest free slot index per spec.md §4.1
// step 1, or an error if the table is full.
func (r *Registry) allocateIndex() (int, error) {
	for i, taken := range r.occupied {
		if !taken {
			r.occupied[i] = true
			return i, nil
		}
	}
	return 0, fmt.Errorf("registry at capacity (%d slots)", r.limit)
}

// Add inserts a new slot, assigning it the next monotonic id and the
// lowest free slot index. Returns an error if every slot is occupied.
func (r *Registry) Add(name string, cfg *config.DroneConfig, sim, controller *ipc.ChildProcess, controlAddr string) (*Slot, error) {
	return r.AddWithMesh(name, cfg, nil, sim, controller, controlAddr)
}

// AddWithMesh is Add with the UAV's loaded collision hull attached.
func (r *Registry) AddWithMesh(name string, cfg *config.DroneConfig, mesh *meshobj.Obj, sim, controller *ipc.ChildProcess, controlAddr string) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.allocateIndex()
	if err != nil {
		return nil, err
	}

	slot := &Slot{
		ID:          r.nextID,
		Index:       index,
		Name:        name,
		Config:      cfg,
		Mesh:        mesh,
		Sim:         sim,
		Controller:  controller,
		ControlAddr: controlAddr,
		state:       NewState(),
		prev:        NewState(),
	}
	r.slots[slot.ID] = slot
	r.nextID++
	return slot, nil
}

// AttachProcesses fills in a reserved slot's child processes and
// control address. Called once, synchronously, before any goroutine
// that reads ControlAddr is started (the state listener, the steer
// bridge and the control listener are all launched after this call
// returns), so ControlAddr itself needs no separate lock.
func (r *Registry) AttachProcesses(id int, sim, controller *ipc.ChildProcess, controlAddr string) bool {
	r.mu.RLock()
	slot, ok := r.slots[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	slot.attachProcesses(sim, controller, controlAddr)
	return true
}

// Remove frees the slot with the given id, returning its slot index
// to the free list so a later Add can reuse it. Callers are
// responsible for terminating its child processes and control
// sockets first.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return
	}
	r.occupied[slot.Index] = false
	delete(r.slots, id)
}

// Get returns the slot for id, if still live.
func (r *Registry) Get(id int) (*Slot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	return s, ok
}

// Names returns every occupied slot's name. The session manager's
// name-clash check does not use it; it keeps its own set of taken names.
func (r *Registry) Names() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make(map[string]struct{}, len(r.slots))
	for _, s := range r.slots {
		names[s.Name] = struct{}{}
	}
	return names
}

// Snapshot returns every live slot, for callers (collision, cargo)
// that need a stable read-only view for one tick.
func (r *Registry) Snapshot() []*Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Slot, 0, len(r.slots))
	for _, s := range r.slots {
		out = append(out, s)
	}
	return out
}

// Positions implements atmosphere.UAVSource: a snapshot of every
// live UAV's position, keyed by id.
func (r *Registry) Positions() map[int]r3.Vec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]r3.Vec, len(r.slots))
	for id, s := range r.slots {
		st := s.State()
		out[id] = r3.Vec{X: st.Pos[0], Y: st.Pos[1], Z: st.Pos[2]}
	}
	return out
}

// PoseAndVelocities returns position, orientation and both velocities
// for every live UAV — the batched read spec.md §4.1 names as
// pose_and_velocities.
func (r *Registry) PoseAndVelocities() map[int]State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]State, len(r.slots))
	for id, s := range r.slots {
		out[id] = s.State()
	}
	return out
}

// EulerPoseAndVelocities is PoseAndVelocities with orientation
// expressed as Euler angles instead of a quaternion.
func (r *Registry) EulerPoseAndVelocities() map[int]quat.Euler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]quat.Euler, len(r.slots))
	for id, s := range r.slots {
		out[id] = s.State().Euler()
	}
	return out
}

// Types returns every live UAV's configured airframe type, keyed by id.
func (r *Registry) Types() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]string, len(r.slots))
	for id, s := range r.slots {
		if s.Config != nil {
			out[id] = s.Config.Type
		}
	}
	return out
}

// Count returns the number of occupied slots.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

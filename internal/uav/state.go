// Package uav holds the UAV supervisor and world registry: per-slot
// spawned physics/controller child processes, their state listeners,
// and the batched snapshot reads the other workers poll.
//
// Grounded on original_source/src/uav.rs (DroneState/UAV) and
// src/drones.rs (the registry, slot table and batch getters),
// extended with the orientation quaternion spec.md §3 requires and
// the original's uav.rs lacked.
package uav

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nats-uav/aggregator/internal/quat"
)

// State is one UAV's latest kinematic snapshot.
type State struct {
	Time        float64
	Pos         [3]float64
	Orientation quat.Quat
	Vel         [3]float64
	Omega       [3]float64
	RotorSpeeds []float64
}

// NewState returns the sentinel state a slot holds before its first
// state frame arrives, mirroring the original DroneState::new's -1
// fill values.
func NewState() State {
	return State{
		Time:        -1,
		Pos:         [3]float64{-1, -1, -1},
		Orientation: quat.Identity(),
		Vel:         [3]float64{-1, -1, -1},
		Omega:       [3]float64{-1, -1, -1},
	}
}

// String renders the state in the publisher's wire format:
// t,px,py,pz,qw,qx,qy,qz,vx,vy,vz,ox,oy,oz[,rotor...].
func (s State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%v",
		s.Time,
		s.Pos[0], s.Pos[1], s.Pos[2],
		s.Orientation.W, s.Orientation.X, s.Orientation.Y, s.Orientation.Z,
		s.Vel[0], s.Vel[1], s.Vel[2],
		s.Omega[0], s.Omega[1], s.Omega[2],
	)
	for _, r := range s.RotorSpeeds {
		fmt.Fprintf(&b, ",%v", r)
	}
	return b.String()
}

// ParseState parses the wire format String produces, the inverse
// operation the state listener performs on incoming frames.
func ParseState(s string) (State, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 14 {
		return State{}, fmt.Errorf("state frame has %d fields, want at least 14", len(fields))
	}
	nums := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return State{}, fmt.Errorf("parse state field %d (%q): %w", i, f, err)
		}
		nums[i] = v
	}
	st := State{
		Time:        nums[0],
		Pos:         [3]float64{nums[1], nums[2], nums[3]},
		Orientation: quat.Quat{W: nums[4], X: nums[5], Y: nums[6], Z: nums[7]},
		Vel:         [3]float64{nums[8], nums[9], nums[10]},
		Omega:       [3]float64{nums[11], nums[12], nums[13]},
	}
	if len(nums) > 14 {
		st.RotorSpeeds = append([]float64(nil), nums[14:]...)
	}
	return st, nil
}

// Euler returns the derived roll/pitch/yaw for this state's orientation.
func (s State) Euler() quat.Euler {
	return s.Orientation.ToEuler()
}

// AccelerationMagnitude estimates |a| via finite difference against a
// previous state separated by dt seconds — the fallback spec.md's
// Resolved Open Questions settle on, since acceleration isn't part of
// the wire state and the physics child never reports it directly.
func (s State) AccelerationMagnitude(prev State, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	var sum float64
	for i := 0; i < 3; i++ {
		a := (s.Vel[i] - prev.Vel[i]) / dt
		sum += a * a
	}
	return math.Sqrt(sum)
}

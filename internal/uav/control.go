package uav

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/atmosphere"
	"github.com/nats-uav/aggregator/internal/ipc"
)

const controlTimeout = time.Second

// sendControl issues one request on the slot's control channel and
// returns its single-line reply. Grounded on original_source/src/
// uav.rs's _sendControlMsg, generalized from zmq REQ/REP to the
// framed TCP protocol internal/ipc provides.
func sendControl(ctx context.Context, slot *Slot, payload string) (string, error) {
	return ipc.Request(ctx, slot.ControlAddr, payload, controlTimeout)
}

// NotifyAtmosphere pushes one UAV's wind/air state to its physics
// child. Implements atmosphere.UAVNotifier.
func (r *Registry) NotifyAtmosphere(id int, info atmosphere.AirInfo) {
	slot, ok := r.Get(id)
	if !ok {
		return
	}
	payload := fmt.Sprintf("atmosphere:%v,%v,%v,%v,%v,%v",
		info.Wind.X, info.Wind.Y, info.Wind.Z,
		info.Temperature, info.Pressure, info.Density)
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()
	sendControl(ctx, slot, payload)
}

// ApplyExternalForce delivers a force+torque pair (e.g. summed cargo
// tether pull, or a collision impulse) to a UAV's physics child.
func (r *Registry) ApplyExternalForce(ctx context.Context, id int, force, torque r3.Vec) error {
	slot, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("no such UAV slot %d", id)
	}
	payload := fmt.Sprintf("force:%v,%v,%v,%v,%v,%v", force.X, force.Y, force.Z, torque.X, torque.Y, torque.Z)
	_, err := sendControl(ctx, slot, payload)
	return err
}

// NotifySurfaceCollision reports a contact (the deepest
// per-UAV-per-tick collision the collision engine computed) to the
// UAV's physics child, carrying the restitution/friction constants it
// needs to resolve the bounce.
func (r *Registry) NotifySurfaceCollision(ctx context.Context, id int, cor, miS, miD float64, point, normal r3.Vec) error {
	slot, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("no such UAV slot %d", id)
	}
	payload := fmt.Sprintf("collision:%v,%v,%v,%v,%v,%v,%v,%v",
		cor, miS, miD,
		point.X, point.Y, point.Z,
		normal.X, normal.Y, normal.Z)
	_, err := sendControl(ctx, slot, payload)
	return err
}

// Beep, Shoot, Drop, Release and Kill implement the per-UAV control
// socket commands spec.md §4.5 defines, as forwarded by the session
// manager's per-UAV control listener.

// Beep issues a "beep" command and returns its raw reply.
func (r *Registry) Beep(ctx context.Context, id int) (string, error) {
	slot, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("no such UAV slot %d", id)
	}
	return sendControl(ctx, slot, "beep")
}

// Shoot issues "shoot;<i>" for ammo slot i and returns the controller's
// raw "ok;<res>" / "error;<res>" reply. The object this command spawns
// is not allocated by the controller: the session manager calls
// object.Registry.Add itself once this confirms the slot fired, per
// spec.md §4.6's add() contract living on the object registry rather
// than on any per-UAV child.
func (r *Registry) Shoot(ctx context.Context, id, slotIndex int) (string, error) {
	slot, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("no such UAV slot %d", id)
	}
	return sendControl(ctx, slot, fmt.Sprintf("shoot;%d", slotIndex))
}

// Drop issues "drop;<i>" for cargo slot i and returns the controller's
// raw "ok;<res>" / "error;<res>" reply, for the same reason Shoot's
// reply carries no object id.
func (r *Registry) Drop(ctx context.Context, id, slotIndex int) (string, error) {
	slot, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("no such UAV slot %d", id)
	}
	return sendControl(ctx, slot, fmt.Sprintf("drop;%d", slotIndex))
}

// Release issues "release" and returns its raw reply. It does not touch
// the cargo links; the session manager removes those itself.
func (r *Registry) Release(ctx context.Context, id int) (string, error) {
	slot, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("no such UAV slot %d", id)
	}
	return sendControl(ctx, slot, "release")
}

// Kill issues "kill" and then removes the slot from the registry
// regardless of the child's reply, since the slot is being torn down
// either way.
func (r *Registry) Kill(ctx context.Context, id int) (string, error) {
	slot, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("no such UAV slot %d", id)
	}
	reply, err := sendControl(ctx, slot, "kill")
	r.Remove(id)
	if slot.Sim != nil {
		slot.Sim.Kill()
	}
	if slot.Controller != nil {
		slot.Controller.Kill()
	}
	return reply, err
}

// ParseActionReply splits a controller's "ok;<res>" or "error;<res>"
// reply (the internal shoot/drop acknowledgement, distinct from the
// "ok;<res>,<obj_id>" shape spec.md §6 defines for the client-facing
// reply once the object registry has allocated an id) into its status
// and result value.
func ParseActionReply(reply string) (ok bool, res float64, err error) {
	parts := strings.SplitN(reply, ";", 2)
	if len(parts) != 2 {
		return false, 0, fmt.Errorf("malformed reply %q", reply)
	}
	ok = parts[0] == "ok"
	if _, err := fmt.Sscanf(parts[1], "%g", &res); err != nil {
		return false, 0, fmt.Errorf("parse res: %w", err)
	}
	return ok, res, nil
}

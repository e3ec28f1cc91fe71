package session

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/uav"
)

// controlTimeout is the 1 s receive deadline spec.md §4.5 assigns to
// both the session reply socket and the per-UAV control listener.
const controlTimeout = time.Second

// startControlListener serves one UAV's public control socket:
// beep/shoot/drop/release/kill, with heartbeat accounting — every
// missed receive increments a per-connection counter, reset on any
// received message, and the UAV is despawned once the counter reaches
// hb_disconnect.
//
// The original (src/clients.rs, src/uav.rs) has no equivalent: its
// control plane was a single internal REQ/REP pair with no liveness
// tracking at all. This listener is built directly from spec.md
// §4.5/§6, using internal/ipc.ReqRepServer's OnTimeout hook exactly
// for the heartbeat-miss counting it documents.
func (m *Manager) startControlListener(ctx context.Context, slotID, publicPort int) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(publicPort))
	srv := ipc.NewReqRepServer(addr, controlTimeout, m.logger, func(net.Conn) ipc.ConnHandler {
		misses := 0
		return ipc.ConnHandler{
			OnMessage: func(line string) string {
				misses = 0
				return m.handleControl(ctx, slotID, line)
			},
			OnTimeout: func() bool {
				misses++
				if misses >= m.cfg.HBDisconnect {
					m.logger.WithField("uav", slotID).Warn("heartbeat disconnect")
					m.despawn(slotID)
					return true
				}
				return false
			},
		}
	})

	go func() {
		if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
			m.logger.WithError(err).WithField("port", publicPort).Warn("control listener exited")
		}
	}()
}

// handleControl dispatches one client control frame to the matching
// uav.Registry method and relays its reply verbatim, except for
// "shoot;<i>"/"drop;<i>" which also allocate the fired/dropped object
// in the object registry (and, for drop, open a cargo tether link) on
// success.
func (m *Manager) handleControl(ctx context.Context, id int, line string) string {
	cmd, arg, _ := strings.Cut(line, ";")
	switch cmd {
	case "beep":
		reply, err := m.uavs.Beep(ctx, id)
		return orError(reply, err)

	case "shoot":
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return "error;-1,-1"
		}
		return m.handleShoot(ctx, id, idx)

	case "drop":
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return "error;-1,-1"
		}
		return m.handleDrop(ctx, id, idx)

	case "release":
		reply, err := m.uavs.Release(ctx, id)
		if err == nil && m.cargoEngine != nil {
			m.cargoEngine.RemoveAllForDrone(id)
		}
		return orError(reply, err)

	case "kill":
		reply, err := m.uavs.Kill(ctx, id)
		if m.cargoEngine != nil {
			m.cargoEngine.RemoveAllForDrone(id)
		}
		m.despawn(id)
		return orError(reply, err)

	default:
		return "error"
	}
}

// handleShoot forwards "shoot;<i>" to the UAV's controller for
// confirmation, then — on success — allocates the new projectile in
// the object registry itself, per spec.md §4.6's add(mass, CS, pos,
// vel, info{model, radius}) -> id contract living on the registry
// rather than on any per-UAV child. Replies "ok;<res>,<obj_id>" or
// "error;<res>,<obj_id>" per spec.md §6.
func (m *Manager) handleShoot(ctx context.Context, droneID, slotIndex int) string {
	reply, err := m.uavs.Shoot(ctx, droneID, slotIndex)
	if err != nil {
		return "error;-1,-1"
	}
	ok, res, err := uav.ParseActionReply(reply)
	if err != nil || !ok {
		return fmt.Sprintf("error;%v,-1", res)
	}

	slot, found := m.uavs.Get(droneID)
	if !found || slot.Config == nil || slotIndex < 0 || slotIndex >= len(slot.Config.AmmoSlots) {
		return fmt.Sprintf("error;%v,-1", res)
	}
	ammo := slot.Config.AmmoSlots[slotIndex]
	pos, vel := launchPose(slot.State(), r3.Vec{}, ammo.Speed)

	objID, err := m.objects.Add(ctx, ammo.Mass, ammo.CS, pos, vel, object.Info{Model: ammo.Model, Radius: ammo.Radius})
	if err != nil {
		m.logger.WithError(err).Warn("failed to add shot projectile to object registry")
		return fmt.Sprintf("error;%v,-1", res)
	}
	return fmt.Sprintf("ok;%v,%d", res, objID)
}

// handleDrop is handleShoot's cargo counterpart: on success it
// additionally opens a tether link using the cargo slot's
// spring/damper/hook parameters from the UAV's own drone config, per
// spec.md §6: "on res >= 0 a tether link is created with the cargo's
// (length,k,b,hook)".
func (m *Manager) handleDrop(ctx context.Context, droneID, slotIndex int) string {
	reply, err := m.uavs.Drop(ctx, droneID, slotIndex)
	if err != nil {
		return "error;-1,-1"
	}
	ok, res, err := uav.ParseActionReply(reply)
	if err != nil || !ok {
		return fmt.Sprintf("error;%v,-1", res)
	}

	slot, found := m.uavs.Get(droneID)
	if !found || slot.Config == nil || slotIndex < 0 || slotIndex >= len(slot.Config.CargoSlots) {
		return fmt.Sprintf("error;%v,-1", res)
	}
	cs := slot.Config.CargoSlots[slotIndex]
	hook := r3.Vec{X: cs.HookX, Y: cs.HookY, Z: cs.HookZ}
	pos, vel := launchPose(slot.State(), hook, 0)

	objID, err := m.objects.Add(ctx, cs.Mass, cs.CS, pos, vel, object.Info{Model: cs.Model, Radius: cs.Radius})
	if err != nil {
		m.logger.WithError(err).Warn("failed to add dropped cargo to object registry")
		return fmt.Sprintf("error;%v,-1", res)
	}
	if res >= 0 && m.cargoEngine != nil {
		m.cargoEngine.AddLink(droneID, objID, cs.Length, cs.K, cs.B, hook)
	}
	return fmt.Sprintf("ok;%v,%d", res, objID)
}

// launchPose transforms a UAV-body-frame offset/forward speed into
// world space, the same hook-rotation spec.md §4.3 defines for the
// cargo tether (h_w = R(quat)·hook): the new object starts at the
// UAV's position plus the rotated offset, moving at the UAV's
// velocity plus the rotated forward (+X body axis) component.
func launchPose(state uav.State, bodyOffset r3.Vec, forwardSpeed float64) (pos, vel r3.Vec) {
	dronePos := r3.Vec{X: state.Pos[0], Y: state.Pos[1], Z: state.Pos[2]}
	droneVel := r3.Vec{X: state.Vel[0], Y: state.Vel[1], Z: state.Vel[2]}
	offsetWorld := state.Orientation.Rotate(bodyOffset)
	forwardWorld := state.Orientation.Rotate(r3.Vec{X: forwardSpeed})
	return r3.Add(dronePos, offsetWorld), r3.Add(droneVel, forwardWorld)
}

func orError(reply string, err error) string {
	if err != nil {
		return "error;-1,-1"
	}
	return reply
}

package session

import (
	"context"
	"fmt"

	"github.com/nats-uav/aggregator/internal/config"
	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/meshobj"
	"github.com/nats-uav/aggregator/internal/uav"
)

// Port bands, relative to first_port, for the internal endpoints the
// physics and controller children bind to. The public-facing steer
// and control ports (first_port+slot and first_port+slot+1000) are the
// only ones spec.md §6 names; these internal bands are a private
// wiring detail, playing the role the original's per-name ipc://
// socket paths did (ipc:///tmp/<name>/steer, .../control), now
// expressed as TCP ports since children are opaque subprocesses
// rather than threads sharing the aggregator's zmq context.
const (
	controlPortOffset = 1000
	childControlOffset = 2000
	childStateOffset    = 3000
	childSteerOffset    = 4000
)

// spawnUAV reserves a registry slot, launches the physics-engine and
// controller children, and starts that slot's state listener, steer
// bridge and control listener.
//
// Grounded on original_source/src/uav.rs's UAV::new (two
// Command::new child spawns with "-c <config> -n <name>") and
// src/clients.rs's per-connection steer proxy setup.
func (m *Manager) spawnUAV(ctx context.Context, name, configPath string, droneCfg *config.DroneConfig, mesh *meshobj.Obj) (*uav.Slot, int, int, error) {
	slot, err := m.uavs.AddWithMesh(name, droneCfg, mesh, nil, nil, "")
	if err != nil {
		return nil, 0, 0, err
	}

	// Ports are derived from the reused slot index, never the id —
	// spec.md §3 ties the TCP port offsets to the slot table, which
	// is why a despawned slot's ports become available again as soon
	// as the next Add reuses its index.
	steerPort := m.cfg.FirstPort + slot.Index
	controlPort := steerPort + controlPortOffset
	childControlAddr := fmt.Sprintf("127.0.0.1:%d", m.cfg.FirstPort+slot.Index+childControlOffset)
	childStateAddr := fmt.Sprintf("127.0.0.1:%d", m.cfg.FirstPort+slot.Index+childStateOffset)
	childSteerAddr := fmt.Sprintf("127.0.0.1:%d", m.cfg.FirstPort+slot.Index+childSteerOffset)

	sim, err := ipc.SpawnChild(ctx, m.logger, slot.Index, "sim", m.cfg.PhysicsEngineExe,
		"-c", configPath, "-n", name,
		"--control-addr", childControlAddr,
		"--state-addr", childStateAddr,
		"--steer-addr", childSteerAddr)
	if err != nil {
		m.uavs.Remove(slot.ID)
		return nil, 0, 0, fmt.Errorf("spawn physics engine: %w", err)
	}

	controller, err := ipc.SpawnChild(ctx, m.logger, slot.Index, "ctl", m.cfg.ControllerExe,
		"-c", configPath, "-n", name,
		"--control-addr", childControlAddr)
	if err != nil {
		sim.Kill()
		m.uavs.Remove(slot.ID)
		return nil, 0, 0, fmt.Errorf("spawn controller: %w", err)
	}

	m.uavs.AttachProcesses(slot.ID, sim, controller, childControlAddr)

	go uav.StartStateListener(ctx, slot, childStateAddr, m.logger)
	m.startSteerBridge(ctx, slot.ID, steerPort, childSteerAddr)
	m.startControlListener(ctx, slot.ID, controlPort)

	m.logger.WithFields(map[string]interface{}{
		"uav": name, "id": slot.ID, "slot": slot.Index, "steer_port": steerPort, "control_port": controlPort,
	}).Info("UAV spawned")

	return slot, steerPort, controlPort, nil
}

// Package notify runs the state publisher and the lower-frequency
// notification fan-out (UAV types, cargo links, overload prompts).
//
// Grounded on original_source/src/drones.rs's state-publisher thread
// (the "serialize every drone, publish one frame" loop) and
// src/notification.rs's fire-and-forget publisher, generalized from
// zmq PUB sockets to internal/ipc's WebSocket Broadcaster.
package notify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/uav"
)

// StatePeriod is the state publisher's tick interval.
const StatePeriod = 10 * time.Millisecond

// StatePublisher serializes every live UAV's state into one frame per
// tick: "id,<state>;id,<state>;..." or ";" when the registry is empty.
type StatePublisher struct {
	uavs        *uav.Registry
	broadcaster *ipc.Broadcaster
}

// NewStatePublisher builds a StatePublisher broadcasting over b.
func NewStatePublisher(uavs *uav.Registry, b *ipc.Broadcaster) *StatePublisher {
	return &StatePublisher{uavs: uavs, broadcaster: b}
}

// Run ticks every StatePeriod until ctx is cancelled.
func (p *StatePublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(StatePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *StatePublisher) tick() {
	poses := p.uavs.PoseAndVelocities()
	if len(poses) == 0 {
		p.broadcaster.Publish("state", []byte(";"))
		return
	}
	var b strings.Builder
	for id, st := range poses {
		b.WriteString(strconv.Itoa(id))
		b.WriteByte(',')
		b.WriteString(st.String())
		b.WriteByte(';')
	}
	p.broadcaster.Publish("state", []byte(b.String()))
}

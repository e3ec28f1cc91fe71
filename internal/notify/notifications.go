package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-uav/aggregator/internal/cargo"
	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/uav"
)

// Overload g-force thresholds: orange between 4g and 6g, red above.
const (
	overloadOrangeG = 4.0
	overloadRedG    = 6.0
	gravity         = 9.8067
)

// Notifier runs the lower-frequency notification fan-out: UAV types,
// cargo links, and acceleration-overload prompts, each throttled to
// notify_period.
type Notifier struct {
	uavs        *uav.Registry
	cargoEngine *cargo.Engine
	broadcaster *ipc.Broadcaster
	period      time.Duration
}

// NewNotifier builds a Notifier ticking at period (notify_period ms).
func NewNotifier(uavs *uav.Registry, cargoEngine *cargo.Engine, b *ipc.Broadcaster, period time.Duration) *Notifier {
	return &Notifier{uavs: uavs, cargoEngine: cargoEngine, broadcaster: b, period: period}
}

// Run ticks every notify_period until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.tick()
		}
	}
}

func (n *Notifier) tick() {
	n.sendTypes()
	n.sendLinks()
	n.sendOverloadPrompts()
}

func (n *Notifier) sendTypes() {
	types := n.uavs.Types()
	var b strings.Builder
	b.WriteString("t:")
	for id, t := range types {
		fmt.Fprintf(&b, "%d,%s;", id, t)
	}
	n.broadcaster.Publish("notify", []byte(b.String()))
}

func (n *Notifier) sendLinks() {
	if n.cargoEngine == nil {
		return
	}
	links := n.cargoEngine.Links()
	var b strings.Builder
	b.WriteString("l:")
	for key, link := range links {
		fmt.Fprintf(&b, "%d,%d,%v,%v,%v,%v;",
			key.DroneID, key.ObjID, link.Length,
			link.HookOffset.X, link.HookOffset.Y, link.HookOffset.Z)
	}
	n.broadcaster.Publish("notify", []byte(b.String()))
}

func (n *Notifier) sendOverloadPrompts() {
	dt := n.period.Seconds()
	for id, slot := range snapshotByID(n.uavs) {
		a := slot.AccelerationMagnitude(dt)
		gForce := a / gravity
		if gForce < overloadOrangeG {
			continue
		}
		color := "#FFA500"
		if gForce >= overloadRedG {
			color = "#FF0000"
		}
		msg := fmt.Sprintf("p:%d,OVERLOAD,%s,1000,overload %.1fg;", id, color, gForce)
		n.broadcaster.Publish("notify", []byte(msg))
	}
}

func snapshotByID(r *uav.Registry) map[int]*uav.Slot {
	out := make(map[int]*uav.Slot)
	for _, s := range r.Snapshot() {
		out[s.ID] = s
	}
	return out
}

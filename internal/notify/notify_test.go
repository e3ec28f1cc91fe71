package notify

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nats-uav/aggregator/internal/cargo"
	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/uav"
)

func TestStatePublisherTickEmptyRegistry(t *testing.T) {
	uavs := uav.NewRegistry(4)
	b := ipc.NewBroadcaster(logrus.New())
	p := NewStatePublisher(uavs, b)

	// tick() must not block or panic against an empty registry; the
	// broadcaster drops frames with no subscribers, so this only
	// exercises the empty-frame path for correctness under race/panic
	// detection rather than inspecting wire content.
	p.tick()
}

func TestStatePublisherTickWithUAVs(t *testing.T) {
	uavs := uav.NewRegistry(4)
	uavs.Add("alpha", nil, nil, nil, "")
	b := ipc.NewBroadcaster(logrus.New())
	p := NewStatePublisher(uavs, b)
	p.tick()
}

func TestNotifierTypesLinksOverloadDoNotPanic(t *testing.T) {
	uavs := uav.NewRegistry(4)
	uavs.Add("alpha", nil, nil, nil, "")

	e := cargo.NewEngine(uavs, object.NewRegistry(""), 10)
	b := ipc.NewBroadcaster(logrus.New())
	n := NewNotifier(uavs, e, b, 50*time.Millisecond)
	n.tick()
}

func TestNotifierWithoutCargoEngine(t *testing.T) {
	uavs := uav.NewRegistry(4)
	b := ipc.NewBroadcaster(logrus.New())
	n := NewNotifier(uavs, nil, b, time.Millisecond)
	n.tick()
}

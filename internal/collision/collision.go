// Package collision runs the world's contact detection: UAV-vs-map,
// object-vs-map, UAV/object proximity, and boundary-box eviction.
//
// Grounded on original_source/src/collision.rs's all-pairs proximity
// check, generalized per spec.md §4.2 to the full map-contact and
// boundary-kill behavior the original's simplistic UAV-UAV check
// never covered.
package collision

import (
	"context"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"github.com/sirupsen/logrus"

	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/uav"
	"github.com/nats-uav/aggregator/internal/worldmap"
)

// NominalPeriod is the collision worker's default tick interval.
const NominalPeriod = 20 * time.Millisecond

// emaRetention is the exponential moving average's retention
// coefficient: t_new = 0.7*t_old + 0.3*t_measured.
const emaRetention = 0.7

// Contact is one resolved UAV-map collision: the contact point and
// face normal reported for that UAV this tick. The response constants
// (COR, friction) are taken from the Map when the contact is sent.
type Contact struct {
	UAVID  int
	Point  r3.Vec
	Normal r3.Vec
}

// ObjectContact is one object-map hit.
type ObjectContact struct {
	ObjID  int
	Point  r3.Vec
	Normal r3.Vec
}

// Engine detects contacts for one world tick.
type Engine struct {
	Map         *worldmap.Map
	UAVs        *uav.Registry
	Objects     *object.Registry
	MinimalDist float64
	Logger      *logrus.Logger

	period time.Duration
}

// NewEngine builds an Engine starting at NominalPeriod.
func NewEngine(m *worldmap.Map, uavs *uav.Registry, objects *object.Registry, minimalDist float64, logger *logrus.Logger) *Engine {
	return &Engine{Map: m, UAVs: uavs, Objects: objects, MinimalDist: minimalDist, Logger: logger, period: NominalPeriod}
}

// Run ticks the engine with an EMA-smoothed adaptive period until ctx
// is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		e.Tick(ctx, e.period.Seconds())
		measured := time.Since(start)
		e.period = time.Duration(emaRetention*float64(e.period) + (1-emaRetention)*float64(measured))
		if e.period <= 0 {
			e.period = NominalPeriod
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.period):
		}
	}
}

// Tick runs one full detection pass: UAV-map, object-map, proximity,
// and boundary eviction.
func (e *Engine) Tick(ctx context.Context, dt float64) {
	e.checkUAVMapContacts(ctx)
	e.checkObjectMapContacts(ctx, dt)
	e.checkProximity()
	e.checkBoundary(ctx)
}

package atmosphere

import (
	"context"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sirupsen/logrus"
)

// Period is the atmosphere worker's tick interval: 200ms, matching
// the original's four sequential 50ms sleeps per iteration
// (snapshot UAVs -> notify UAVs -> snapshot objects -> notify objects).
const Period = 200 * time.Millisecond

// UAVSource snapshots the positions of every live UAV, keyed by id.
type UAVSource interface {
	Positions() map[int]r3.Vec
}

// UAVNotifier delivers one UAV's computed atmosphere state.
type UAVNotifier interface {
	NotifyAtmosphere(id int, info AirInfo)
}

// ObjectSource snapshots the positions of every tracked object.
type ObjectSource interface {
	Positions() map[int]r3.Vec
}

// ObjectWindNotifier delivers the batch of per-object wind updates.
type ObjectWindNotifier interface {
	UpdateWinds(winds map[int]r3.Vec)
}

// Worker runs the periodic atmosphere tick: compute wind + ISA air
// state for every UAV, push it out, then do the same (wind only) for
// every tracked object.
type Worker struct {
	field       *Field
	turbulence  *Turbulence
	t0, p0      float64
	uavs        UAVSource
	uavNotify   UAVNotifier
	objects     ObjectSource
	objectWinds ObjectWindNotifier
	logger      *logrus.Logger
}

// NewWorker builds a Worker from its configured field/turbulence and
// the registries it pushes state into.
func NewWorker(field *Field, turbulence *Turbulence, t0, p0 float64,
	uavs UAVSource, uavNotify UAVNotifier,
	objects ObjectSource, objectWinds ObjectWindNotifier,
	logger *logrus.Logger) *Worker {
	return &Worker{
		field: field, turbulence: turbulence, t0: t0, p0: p0,
		uavs: uavs, uavNotify: uavNotify,
		objects: objects, objectWinds: objectWinds,
		logger: logger,
	}
}

// Run ticks every Period until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("atmosphere worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Worker) tick() {
	turbulence := w.turbulence.Next()

	for id, pos := range w.uavs.Positions() {
		temp, pressure, density := AirInfoAt(pos, w.t0, w.p0)
		wind := r3.Add(w.field.WindAt(pos), turbulence)
		w.uavNotify.NotifyAtmosphere(id, AirInfo{
			Wind:        wind,
			Temperature: temp,
			Pressure:    pressure,
			Density:     density,
		})
	}

	objectPos := w.objects.Positions()
	if len(objectPos) == 0 {
		return
	}
	winds := make(map[int]r3.Vec, len(objectPos))
	for id, pos := range objectPos {
		winds[id] = w.field.WindAt(pos)
	}
	w.objectWinds.UpdateWinds(winds)
}

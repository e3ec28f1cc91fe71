package collision

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// checkProximity runs the all-pairs UAV-UAV and UAV-object distance
// check: |delta-p|^2 < minimal_dist logs a collision. UAV-object
// pairs also require the object to be approaching (delta-p . v_obj
// > 0), so a receding object already clear of the UAV isn't flagged.
//
// Grounded on original_source/src/collision.rs's MINIMAL_DISTANCE2
// all-pairs loop, extended to UAV-object pairs per spec.md §4.2.
func (e *Engine) checkProximity() {
	minDist2 := e.MinimalDist // minimal_dist is already a squared distance

	uavs := e.UAVs.Snapshot()
	for i := range uavs {
		for j := i + 1; j < len(uavs); j++ {
			a, b := uavs[i].State(), uavs[j].State()
			pa := r3.Vec{X: a.Pos[0], Y: a.Pos[1], Z: a.Pos[2]}
			pb := r3.Vec{X: b.Pos[0], Y: b.Pos[1], Z: b.Pos[2]}
			delta := r3.Sub(pa, pb)
			if r3.Dot(delta, delta) < minDist2 {
				e.logUAVCollision(uavs[i].ID, uavs[j].ID)
			}
		}
	}

	objs := e.Objects.Snapshot()
	for _, uavSlot := range uavs {
		st := uavSlot.State()
		pos := r3.Vec{X: st.Pos[0], Y: st.Pos[1], Z: st.Pos[2]}
		for _, obj := range objs {
			delta := r3.Sub(pos, obj.Pos)
			if r3.Dot(delta, delta) >= minDist2 {
				continue
			}
			if r3.Dot(delta, obj.Vel) > 0 {
				e.logUAVObjectCollision(uavSlot.ID, obj.ID)
			}
		}
	}
}

func (e *Engine) logUAVCollision(a, b int) {
	if e.Logger == nil {
		return
	}
	e.Logger.WithFields(logrus.Fields{"uav_a": a, "uav_b": b}).Info("proximity collision")
}

func (e *Engine) logUAVObjectCollision(uavID, objID int) {
	if e.Logger == nil {
		return
	}
	e.Logger.WithFields(logrus.Fields{"uav": uavID, "object": objID}).Info("proximity collision")
}

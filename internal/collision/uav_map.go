package collision

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// checkUAVMapContacts rotates each live UAV's hull by its current
// orientation, translates by its position, and tests every vertex
// against the faces in its chunk. The deepest contact per UAV per
// tick (minimum signed depth) is the one reported, plus a predictive
// ray cast along each vertex's world velocity.
func (e *Engine) checkUAVMapContacts(ctx context.Context) {
	for _, slot := range e.UAVs.Snapshot() {
		if slot.Mesh == nil {
			continue
		}
		st := slot.State()
		pos := r3.Vec{X: st.Pos[0], Y: st.Pos[1], Z: st.Pos[2]}
		vel := r3.Vec{X: st.Vel[0], Y: st.Vel[1], Z: st.Vel[2]}
		omega := r3.Vec{X: st.Omega[0], Y: st.Omega[1], Z: st.Omega[2]}

		var penetrating, predictive *Contact
		bestDepth := math.Inf(1)
		bestRayDist := math.Inf(1)

		for _, v := range slot.Mesh.Vertices {
			offset := st.Orientation.Rotate(v)
			world := r3.Add(pos, offset)

			for _, face := range e.Map.FacesNear(world) {
				inside, depth := face.ProjectPoint(world)
				if !inside {
					continue
				}
				if depth < e.Map.CollisionMinusEps || depth > e.Map.CollisionPlusEps {
					continue
				}
				if depth < bestDepth {
					bestDepth = depth
					penetrating = &Contact{UAVID: slot.ID, Point: world, Normal: face.Normal}
				}
			}

			// Predictive ray cast along this vertex's world velocity.
			vertexVel := r3.Add(vel, r3.Cross(omega, offset))
			speed := r3.Norm(vertexVel)
			if speed < 1e-9 {
				continue
			}
			dir := r3.Scale(1/speed, vertexVel)
			rayLen := speed * e.period.Seconds()
			for _, face := range e.Map.FacesNear(world) {
				t, hit := face.RayIntersection(world, dir)
				if !hit || t > rayLen {
					continue
				}
				if t < bestRayDist {
					bestRayDist = t
					predictive = &Contact{UAVID: slot.ID, Point: r3.Add(world, r3.Scale(t, dir)), Normal: face.Normal}
				}
			}
		}

		// An actual penetration always takes priority over a merely
		// predicted future contact.
		best := penetrating
		if best == nil {
			best = predictive
		}
		if best != nil {
			e.UAVs.NotifySurfaceCollision(ctx, best.UAVID, e.Map.COR, e.Map.MiS, e.Map.MiD, best.Point, best.Normal)
		}
	}
}

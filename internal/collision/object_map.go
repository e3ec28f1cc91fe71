package collision

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"
)

// sampleFractions are the step fractions spec.md §4.2 samples an
// object's predicted path at: p + s*dt*v for s in {0, 0.33, 0.66, 1.0}.
var sampleFractions = [4]float64{0, 0.33, 0.66, 1.0}

// checkObjectMapContacts treats every tracked object as a sphere and
// tests project_point against the map at four points along its
// predicted step, reporting every hit (unlike the UAV case, object
// contacts are not deduplicated to one-per-tick).
func (e *Engine) checkObjectMapContacts(ctx context.Context, dt float64) {
	for _, obj := range e.Objects.Snapshot() {
		for _, s := range sampleFractions {
			point := r3.Add(obj.Pos, r3.Scale(s*dt, obj.Vel))
			for _, face := range e.Map.FacesNear(point) {
				inside, depth := face.ProjectPoint(point)
				if !inside {
					continue
				}
				depth -= e.Map.ProjectileRadius
				if depth < e.Map.CollisionMinusEps || depth > e.Map.CollisionPlusEps {
					continue
				}
				e.Objects.ApplySurfaceCollision(ctx, obj.ID, point, face.Normal)
			}
		}
	}
}

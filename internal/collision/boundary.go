package collision

import "context"

// checkBoundary removes every tracked object whose position has left
// the map's bounding box expanded by map_offset. UAVs are not
// auto-killed here: a UAV leaving bounds is a session-manager concern
// (it still owns a live client), matching spec.md §4.2's scope of
// "any object".
func (e *Engine) checkBoundary(ctx context.Context) {
	for _, obj := range e.Objects.Snapshot() {
		if e.Map.OutOfBounds(obj.Pos) {
			e.Objects.Remove(ctx, obj.ID)
		}
	}
}

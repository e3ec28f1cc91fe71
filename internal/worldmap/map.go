// Package worldmap builds a spatial-hash index over a loaded mesh so
// the collision engine can query nearby faces without scanning every
// triangle in the map every tick.
//
// Grounded on original_source/src/map.rs.
package worldmap

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nats-uav/aggregator/internal/meshobj"
)

type chunkKey struct {
	i, j, k int
}

// Map is the collidable world boundary: a triangle mesh plus the
// chunk grid indexing it, and the collision-response constants that
// apply uniformly across every face.
type Map struct {
	obj  *meshobj.Obj
	min  r3.Vec
	max  r3.Vec
	step r3.Vec

	facesInChunk map[chunkKey][]*meshobj.Face

	CollisionPlusEps  float64
	CollisionMinusEps float64
	SphereRadius      float64
	ProjectileRadius  float64
	COR               float64
	MiS               float64
	MiD               float64
	MinimalDist       float64
	MapOffset         float64
}

// Params collects the constants a Map is constructed with, mirroring
// the field list of original_source/src/map.rs's Map::new.
type Params struct {
	CollisionPlusEps  float64
	CollisionMinusEps float64
	Grid              string // "gx,gy,gz"
	SphereRadius      float64
	ProjectileRadius  float64
	COR               float64
	MiS               float64
	MiD               float64
	MinimalDist       float64
	MapOffset         float64
}

// Load reads the OBJ mesh at path and builds its chunk index.
func Load(path string, p Params) (*Map, error) {
	obj, err := meshobj.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load map mesh: %w", err)
	}
	grid, err := parseGrid(p.Grid)
	if err != nil {
		return nil, fmt.Errorf("parse grid %q: %w", p.Grid, err)
	}

	min, max := obj.BoundingBox()
	step := r3.Vec{
		X: safeDiv(max.X-min.X, grid.X),
		Y: safeDiv(max.Y-min.Y, grid.Y),
		Z: safeDiv(max.Z-min.Z, grid.Z),
	}

	m := &Map{
		obj:  obj,
		min:  min,
		max:  max,
		step: step,

		facesInChunk: make(map[chunkKey][]*meshobj.Face),

		CollisionPlusEps:  p.CollisionPlusEps,
		CollisionMinusEps: p.CollisionMinusEps,
		SphereRadius:      p.SphereRadius,
		ProjectileRadius:  p.ProjectileRadius,
		COR:               p.COR,
		MiS:               p.MiS,
		MiD:               p.MiD,
		MinimalDist:       p.MinimalDist,
		MapOffset:         p.MapOffset,
	}
	m.insertFaces()
	return m, nil
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 1
	}
	return a / b
}

func parseGrid(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, fmt.Errorf("expected 3 comma-separated components, got %d", len(parts))
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, err
		}
		vals[i] = v
	}
	return r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func (m *Map) calcChunk(p r3.Vec) chunkKey {
	return chunkKey{
		i: int(floorDiv(p.X-m.min.X, m.step.X)),
		j: int(floorDiv(p.Y-m.min.Y, m.step.Y)),
		k: int(floorDiv(p.Z-m.min.Z, m.step.Z)),
	}
}

func floorDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if q < 0 {
		return q - 1 // not clamped: a point below the map's min gets a negative chunk, which holds no faces
	}
	return q
}

func (m *Map) insertFaces() {
	for _, face := range m.obj.Faces {
		verts := face.Vertices
		chunks := [3]chunkKey{m.calcChunk(verts[0]), m.calcChunk(verts[1]), m.calcChunk(verts[2])}
		minC, maxC := chunks[0], chunks[0]
		for _, c := range chunks[1:] {
			minC = chunkMin(minC, c)
			maxC = chunkMax(maxC, c)
		}
		for i := minC.i; i <= maxC.i; i++ {
			for j := minC.j; j <= maxC.j; j++ {
				for k := minC.k; k <= maxC.k; k++ {
					key := chunkKey{i, j, k}
					m.facesInChunk[key] = append(m.facesInChunk[key], face)
				}
			}
		}
	}
}

func chunkMin(a, b chunkKey) chunkKey {
	return chunkKey{i: minI(a.i, b.i), j: minI(a.j, b.j), k: minI(a.k, b.k)}
}

func chunkMax(a, b chunkKey) chunkKey {
	return chunkKey{i: maxI(a.i, b.i), j: maxI(a.j, b.j), k: maxI(a.k, b.k)}
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CheckWalls returns the outward normals of every wall face within
// collisionPlusEps/collisionMinusEps of a sphere of the given radius
// centered at point.
func (m *Map) CheckWalls(point r3.Vec, radius float64) []r3.Vec {
	var normals []r3.Vec
	chunk := m.calcChunk(point)
	for _, face := range m.facesInChunk[chunk] {
		inside, dist := face.ProjectPoint(point)
		if !inside {
			continue
		}
		dist -= radius
		if dist <= m.CollisionPlusEps && dist >= m.CollisionMinusEps {
			normals = append(normals, face.Normal)
		}
	}
	return normals
}

// FacesNear returns every face indexed in point's chunk, for callers
// (the ray-cast predictive check, object-map contact) that need more
// than the projected-normal summary CheckWalls returns.
func (m *Map) FacesNear(point r3.Vec) []*meshobj.Face {
	return m.facesInChunk[m.calcChunk(point)]
}

// BoundingBox returns the map's mesh extents.
func (m *Map) BoundingBox() (min, max r3.Vec) {
	return m.min, m.max
}

// OutOfBounds reports whether point lies outside the map's bounding
// box expanded by MapOffset on every side — the boundary-box kill
// check collision uses to despawn anything that has flown off the map.
func (m *Map) OutOfBounds(point r3.Vec) bool {
	return point.X < m.min.X-m.MapOffset || point.X > m.max.X+m.MapOffset ||
		point.Y < m.min.Y-m.MapOffset || point.Y > m.max.Y+m.MapOffset ||
		point.Z < m.min.Z-m.MapOffset || point.Z > m.max.Z+m.MapOffset
}

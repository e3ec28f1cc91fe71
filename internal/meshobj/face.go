package meshobj

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const rayEpsilon = 1e-3

// NewFace builds a Face from its three vertices (CCW) and the vertex
// normals OBJ attached to them. The face normal is the cross product
// of its two edges, sign-flipped if it points against the mean of the
// vertex normals — the same "does the computed normal agree with the
// authored one" check original_source/src/obj.rs performs on load.
func NewFace(id int, v, vn [3]r3.Vec) *Face {
	s := r3.Sub(v[1], v[0])
	t := r3.Sub(v[2], v[0])
	n := r3.Unit(r3.Cross(s, t))

	mean := r3.Scale(1.0/3.0, r3.Add(r3.Add(vn[0], vn[1]), vn[2]))
	if r3.Dot(n, mean) < 0 {
		n = r3.Scale(-1, n)
	}

	f := &Face{
		ID:       id,
		Vertices: v,
		Normal:   n,
		s:        s,
		t:        t,
		base:     v[0],
	}

	m := mat.NewDense(3, 3, []float64{
		s.X, t.X, n.X,
		s.Y, t.Y, n.Y,
		s.Z, t.Z, n.Z,
	})
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(m); err == nil {
		f.project = inv
	}
	return f
}

// ProjectPoint expresses p in the face's (s, t, n) basis relative to
// base. inside reports whether p's footprint lies within the
// triangle; depth is the signed distance along the face normal
// (positive on the side the normal points toward).
func (f *Face) ProjectPoint(p r3.Vec) (inside bool, depth float64) {
	if f.project == nil {
		return false, 0
	}
	d := r3.Sub(p, f.base)
	local := mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})
	var u mat.VecDense
	u.MulVec(f.project, local)

	u0, u1, u2 := u.AtVec(0), u.AtVec(1), u.AtVec(2)
	inside = u0 >= 0 && u0 <= 1 && u1 >= 0 && u1 <= 1 && u0+u1 <= 1
	return inside, u2
}

// RayIntersection implements the Möller-Trumbore ray/triangle test,
// returning the distance along the ray to the intersection point, or
// ok=false if the ray misses the triangle or is parallel to it.
func (f *Face) RayIntersection(origin, dir r3.Vec) (dist float64, ok bool) {
	edge1 := f.s
	edge2 := f.t
	h := r3.Cross(dir, edge2)
	a := r3.Dot(edge1, h)
	if math.Abs(a) < rayEpsilon {
		return 0, false
	}
	invA := 1 / a
	s := r3.Sub(origin, f.base)
	u := invA * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, edge1)
	v := invA * r3.Dot(dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := invA * r3.Dot(edge2, q)
	if t < rayEpsilon {
		return 0, false
	}
	return t, true
}

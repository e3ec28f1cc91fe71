// Package meshobj parses Wavefront OBJ triangle meshes and exposes
// the per-face projection/ray-intersection primitives the collision
// engine needs.
//
// Grounded on original_source/src/obj.rs and src/map.rs.
package meshobj

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Obj is a parsed OBJ file: vertices, vertex normals, and triangle faces.
type Obj struct {
	Vertices []r3.Vec
	Normals  []r3.Vec
	Faces    []*Face
}

// Face is one triangle of a parsed OBJ mesh, carrying the precomputed
// values the collision engine's point/ray queries need.
type Face struct {
	ID       int
	Vertices [3]r3.Vec
	Normal   r3.Vec

	s, t    r3.Vec
	base    r3.Vec
	project *mat.Dense // 3x3, inverse of [s t n]
}

// Load reads an OBJ file from disk. Parsing errors in individual
// lines are not fatal for non-triangular or malformed faces — those
// are skipped silently — but vertex/normal lines with
// the wrong number of components are a hard error, mirroring the
// original's `assert_eq!` on well-formed "v"/"vn" records.
func Load(path string) (*Obj, error) {
	f, err := os.Open(path)
	if err != nil {
		// Matches the original's graceful empty-obj fallback for a
		// missing map/mesh asset — callers decide whether that's fatal.
		return &Obj{}, fmt.Errorf("open obj file %q: %w", path, err)
	}
	defer f.Close()

	obj := &Obj{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("invalid vertex %q: %w", line, err)
			}
			obj.Vertices = append(obj.Vertices, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("invalid normal %q: %w", line, err)
			}
			obj.Normals = append(obj.Normals, normalize(n))
		case "f":
			if len(fields) != 4 {
				continue // not a triangle, skip
			}
			var vs, ns [3]r3.Vec
			ok := true
			for i, tok := range fields[1:] {
				parts := strings.Split(tok, "/")
				if len(parts) < 3 || parts[2] == "" {
					ok = false
					break
				}
				vi, err := strconv.Atoi(parts[0])
				if err != nil {
					ok = false
					break
				}
				ni, err := strconv.Atoi(parts[2])
				if err != nil {
					ok = false
					break
				}
				if vi-1 < 0 || vi-1 >= len(obj.Vertices) || ni-1 < 0 || ni-1 >= len(obj.Normals) {
					ok = false
					break
				}
				vs[i] = obj.Vertices[vi-1]
				ns[i] = obj.Normals[ni-1]
			}
			if !ok {
				continue
			}
			obj.Faces = append(obj.Faces, NewFace(len(obj.Faces), vs, ns))
		default:
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obj file: %w", err)
	}
	return obj, nil
}

func parseVec3(fields []string) (r3.Vec, error) {
	if len(fields) != 3 {
		return r3.Vec{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return r3.Vec{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return r3.Vec{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Vec{X: x, Y: y, Z: z}, nil
}

func normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < 1e-12 {
		return v
	}
	return r3.Scale(1/n, v)
}

// BoundingBox returns the minimal axis-aligned box containing every vertex.
func (o *Obj) BoundingBox() (min, max r3.Vec) {
	if len(o.Vertices) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min, max = o.Vertices[0], o.Vertices[0]
	for _, v := range o.Vertices[1:] {
		min = componentMin(min, v)
		max = componentMax(max, v)
	}
	return min, max
}

func componentMin(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: minF(a.X, b.X), Y: minF(a.Y, b.Y), Z: minF(a.Z, b.Z)}
}

func componentMax(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: maxF(a.X, b.X), Y: maxF(a.Y, b.Y), Z: maxF(a.Z, b.Z)}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Mesh returns the vertices as a 3xN matrix, one column per vertex —
// the "hull mesh as a 3×N matrix of vertex coordinates" spec.md §3
// describes as a UAV attribute.
func (o *Obj) Mesh() *mat.Dense {
	m := mat.NewDense(3, len(o.Vertices), nil)
	for col, v := range o.Vertices {
		m.Set(0, col, v.X)
		m.Set(1, col, v.Y)
		m.Set(2, col, v.Z)
	}
	return m
}

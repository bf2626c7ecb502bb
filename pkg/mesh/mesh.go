// Package mesh holds the triangle output model for surface extraction.
// Extraction emits a triangle soup in which adjacent cells duplicate
// vertices bit-for-bit; Weld merges those into an indexed vertex/face
// mesh. The census helpers (boundary edges, manifold test, signed
// volume, area) operate on the soup directly, so they work before or
// after welding.
package mesh

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangle is one output triangle. Vertices wind counterclockwise when
// viewed from outside the enclosed region.
type Triangle [3]v3.Vec

// Normal returns the unit normal of the triangle plane, or the zero
// vector for a degenerate triangle.
func (t Triangle) Normal() v3.Vec {
	e1 := t[1].Sub(t[0])
	e2 := t[2].Sub(t[0])
	n := e1.Cross(e2)
	if n.Length() == 0 {
		return v3.Vec{}
	}
	return n.Normalize()
}

// Area returns the triangle's area.
func (t Triangle) Area() float64 {
	e1 := t[1].Sub(t[0])
	e2 := t[2].Sub(t[0])
	return e1.Cross(e2).Length() / 2
}

// Degenerate reports whether any two vertices coincide exactly.
func (t Triangle) Degenerate() bool {
	return t[0] == t[1] || t[1] == t[2] || t[2] == t[0]
}

// Mesh is an indexed vertex/face mesh.
type Mesh struct {
	Vertices []v3.Vec
	Faces    [][3]int
}

// Weld merges exactly coincident vertices of a triangle soup into an
// indexed mesh. Face order follows triangle order; vertex order follows
// first appearance.
func Weld(tris []Triangle) *Mesh {
	m := &Mesh{Faces: make([][3]int, 0, len(tris))}
	index := make(map[v3.Vec]int)
	for _, t := range tris {
		var f [3]int
		for i, v := range t {
			idx, ok := index[v]
			if !ok {
				idx = len(m.Vertices)
				index[v] = idx
				m.Vertices = append(m.Vertices, v)
			}
			f[i] = idx
		}
		m.Faces = append(m.Faces, f)
	}
	return m
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// Triangles expands the indexed mesh back into a triangle soup.
func (m *Mesh) Triangles() []Triangle {
	tris := make([]Triangle, len(m.Faces))
	for i, f := range m.Faces {
		tris[i] = Triangle{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
	}
	return tris
}

// directedEdges counts each directed edge of the soup by vertex value.
func directedEdges(tris []Triangle) map[[2]v3.Vec]int {
	edges := make(map[[2]v3.Vec]int, len(tris)*3)
	for _, t := range tris {
		for i := 0; i < 3; i++ {
			edges[[2]v3.Vec{t[i], t[(i+1)%3]}]++
		}
	}
	return edges
}

// BoundaryEdges returns the number of directed edges without an
// opposing partner. A watertight mesh has none.
func BoundaryEdges(tris []Triangle) int {
	edges := directedEdges(tris)
	n := 0
	for e, c := range edges {
		r := edges[[2]v3.Vec{e[1], e[0]}]
		if c > r {
			n += c - r
		}
	}
	return n
}

// IsManifold reports whether every edge of the soup is shared by
// exactly two triangles with opposite direction. An empty soup counts
// as manifold.
func IsManifold(tris []Triangle) bool {
	edges := directedEdges(tris)
	for e, c := range edges {
		if c != 1 || edges[[2]v3.Vec{e[1], e[0]}] != 1 {
			return false
		}
	}
	return true
}

// Volume returns the signed volume enclosed by the soup via the
// divergence theorem. Positive for a closed surface with outward
// winding; meaningless for open surfaces.
func Volume(tris []Triangle) float64 {
	var v float64
	for _, t := range tris {
		v += t[0].Dot(t[1].Cross(t[2]))
	}
	return v / 6
}

// Area returns the total surface area of the soup.
func Area(tris []Triangle) float64 {
	var a float64
	for _, t := range tris {
		a += t.Area()
	}
	return a
}

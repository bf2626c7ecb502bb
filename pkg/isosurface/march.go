package isosurface

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/grid"
	"github.com/chazu/isoform/pkg/mesh"
)

// interpEps guards edge interpolation against near-constant edges; the
// crossing falls back to the edge midpoint.
const interpEps = 1e-9

// marcher walks the grid cells and accumulates surface triangles.
type marcher struct {
	g       *grid.Grid3
	lo, hi  float64
	closed  bool
	reverse bool
	active  int
	tris    []mesh.Triangle
}

// march extracts the surface triangles for the band [lo, hi] and
// returns them with the number of cells that produced geometry.
func march(g *grid.Grid3, iso Isovalue, closed, reverse bool) ([]mesh.Triangle, int) {
	m := &marcher{g: g, lo: iso.Min, hi: iso.Max, closed: closed, reverse: reverse}
	nx, ny, nz := g.N[0], g.N[1], g.N[2]
	var vs [8]float64
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				for c, off := range cornerOffset {
					vs[c] = g.Value(i+off[0], j+off[1], k+off[2])
				}
				m.cell(i, j, k, &vs)
			}
		}
	}
	return m.tris, m.active
}

func (m *marcher) cell(i, j, k int, vs *[8]float64) {
	vmin, vmax := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}
	before := len(m.tris)
	// A bound is triangulated only when it actually crosses the cell.
	// Infinite bounds never do (corner values are clamped finite).
	if vmin <= m.lo && m.lo <= vmax {
		m.interior(i, j, k, vs, m.lo, &caseTable)
	}
	if vmin <= m.hi && m.hi <= vmax {
		m.interior(i, j, k, vs, m.hi, &caseTableReversed)
	}
	if m.closed {
		m.caps(i, j, k, vs)
	}
	if len(m.tris) != before {
		m.active++
	}
}

// interior emits the case table triangles for one bound.
func (m *marcher) interior(i, j, k int, vs *[8]float64, iso float64, table *[256][]int) {
	mask := 0
	for c, v := range vs {
		if v >= iso {
			mask |= 1 << c
		}
	}
	row := table[mask]
	for t := 0; t < len(row); t += 3 {
		m.emit(
			m.edgePoint(i, j, k, row[t], iso),
			m.edgePoint(i, j, k, row[t+1], iso),
			m.edgePoint(i, j, k, row[t+2], iso),
		)
	}
}

// caps closes the cell's bounding-box faces with clip table triangles.
func (m *marcher) caps(i, j, k int, vs *[8]float64) {
	touch := [6]bool{
		i == 0, i == m.g.N[0]-1,
		j == 0, j == m.g.N[1]-1,
		k == 0, k == m.g.N[2]-1,
	}
	for f := 0; f < 6; f++ {
		if !touch[f] {
			continue
		}
		idx := 0
		for c, fc := range faceCorners[f] {
			b := 0
			if vs[fc] >= m.lo {
				b++
			}
			if vs[fc] >= m.hi {
				b++
			}
			idx += b * pow3[c]
		}
		for _, tri := range clipTable[idx] {
			m.emit(
				m.facePoint(i, j, k, f, tri[0]),
				m.facePoint(i, j, k, f, tri[1]),
				m.facePoint(i, j, k, f, tri[2]),
			)
		}
	}
}

// edgePoint interpolates the iso crossing on cell edge e. The edge's
// endpoints are ordered by global grid index first, so every cell
// touching the edge computes a bit-identical vertex and the surface
// needs no welding to close.
func (m *marcher) edgePoint(i, j, k, e int, iso float64) v3.Vec {
	ca, cb := edgeCorners[e][0], edgeCorners[e][1]
	ia := [3]int{i + cornerOffset[ca][0], j + cornerOffset[ca][1], k + cornerOffset[ca][2]}
	ib := [3]int{i + cornerOffset[cb][0], j + cornerOffset[cb][1], k + cornerOffset[cb][2]}
	if lexLess(ib, ia) {
		ia, ib = ib, ia
	}
	va := m.g.Value(ia[0], ia[1], ia[2])
	vb := m.g.Value(ib[0], ib[1], ib[2])
	u := 0.5
	if den := vb - va; math.Abs(den) >= interpEps {
		u = (iso - va) / den
	}
	pa := m.g.Corner(ia[0], ia[1], ia[2])
	pb := m.g.Corner(ib[0], ib[1], ib[2])
	return pa.Add(pb.Sub(pa).MulScalar(u))
}

// facePoint resolves a face-local cap vertex code: 0-3 face corner,
// 4+e lower-bound crossing on face edge e, 8+e upper-bound crossing.
func (m *marcher) facePoint(i, j, k, f, code int) v3.Vec {
	if code < 4 {
		off := cornerOffset[faceCorners[f][code]]
		return m.g.Corner(i+off[0], j+off[1], k+off[2])
	}
	e := faceEdges[f][code%4]
	iso := m.lo
	if code >= 8 {
		iso = m.hi
	}
	return m.edgePoint(i, j, k, e, iso)
}

// emit appends a triangle unless two vertices coincide. The comparison
// is exact: adjacent cells emit the same sliver edges, so an area
// epsilon here would open holes in the surface.
func (m *marcher) emit(a, b, c v3.Vec) {
	if a == b || b == c || c == a {
		return
	}
	if m.reverse {
		b, c = c, b
	}
	m.tris = append(m.tris, mesh.Triangle{a, b, c})
}

func lexLess(a, b [3]int) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2]
}

package contour

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/isoform/pkg/grid"
)

// interpEps guards edge interpolation against near-constant edges; the
// crossing falls back to the edge midpoint.
const interpEps = 1e-9

// segment is one directed contour piece with the in-band region on its
// left.
type segment struct {
	a, b v2.Vec
}

// marcher walks the grid pixels and accumulates contour segments.
type marcher struct {
	g       *grid.Grid2
	lo, hi  float64
	closed  bool
	reverse bool
	centers []float64 // per-pixel center samples; nil without UseCenters
	active  int
	segs    []segment
}

// march extracts directed contour segments for the band [lo, hi] and
// returns them with the number of pixels that produced geometry.
func march(g *grid.Grid2, iso Isovalue, closed, reverse bool, centers []float64) ([]segment, int) {
	m := &marcher{g: g, lo: iso.Min, hi: iso.Max, closed: closed, reverse: reverse, centers: centers}
	nx, ny := g.N[0], g.N[1]
	var vs [4]float64
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			for c, off := range cornerOffset2 {
				vs[c] = g.Value(i+off[0], j+off[1])
			}
			m.pixel(i, j, &vs)
		}
	}
	return m.segs, m.active
}

func (m *marcher) pixel(i, j int, vs *[4]float64) {
	vmin, vmax := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}
	var cv float64
	if m.centers != nil {
		cv = m.centers[j*m.g.N[0]+i]
		if cv < vmin {
			vmin = cv
		}
		if cv > vmax {
			vmax = cv
		}
	}
	before := len(m.segs)
	// A bound contours the pixel only when it actually crosses it.
	// Infinite bounds never do (samples are clamped finite).
	if vmin <= m.lo && m.lo <= vmax {
		if m.centers != nil {
			m.fan(i, j, vs, cv, m.lo, &triSegments)
		} else {
			m.interior(i, j, vs, m.lo, &segTable)
		}
	}
	if vmin <= m.hi && m.hi <= vmax {
		if m.centers != nil {
			m.fan(i, j, vs, cv, m.hi, &triSegmentsReversed)
		} else {
			m.interior(i, j, vs, m.hi, &segTableReversed)
		}
	}
	if m.closed {
		m.rim(i, j)
	}
	if len(m.segs) != before {
		m.active++
	}
}

// interior emits the segment table entries for one bound.
func (m *marcher) interior(i, j int, vs *[4]float64, iso float64, table *[16][][2]int) {
	mask := 0
	for c, v := range vs {
		if v >= iso {
			mask |= 1 << c
		}
	}
	for _, s := range table[mask] {
		m.emit(m.edgePoint(i, j, s[0], iso), m.edgePoint(i, j, s[1], iso))
	}
}

// fan emits marching-triangles segments for one bound: each pixel edge
// forms a triangle with the center sample.
func (m *marcher) fan(i, j int, vs *[4]float64, cv, iso float64, table *[8][2]int) {
	for e := 0; e < 4; e++ {
		ca, cb := edgeCorners2[e][0], edgeCorners2[e][1]
		mask := 0
		if vs[ca] >= iso {
			mask |= 1
		}
		if vs[cb] >= iso {
			mask |= 2
		}
		if cv >= iso {
			mask |= 4
		}
		s := table[mask]
		if s[0] < 0 {
			continue
		}
		m.emit(m.triPoint(i, j, e, cv, s[0], iso), m.triPoint(i, j, e, cv, s[1], iso))
	}
}

// rim closes the pixel's bounding-box edges: walking the box
// counterclockwise, the in-band stretches of each boundary edge become
// segments capping the paths the box cut open.
func (m *marcher) rim(i, j int) {
	nx, ny := m.g.N[0], m.g.N[1]
	if j == 0 {
		m.rimEdge([2]int{i, 0}, [2]int{i + 1, 0})
	}
	if i == nx-1 {
		m.rimEdge([2]int{nx, j}, [2]int{nx, j + 1})
	}
	if j == ny-1 {
		m.rimEdge([2]int{i + 1, ny}, [2]int{i, ny})
	}
	if i == 0 {
		m.rimEdge([2]int{0, j + 1}, [2]int{0, j})
	}
}

// rimEdge emits the in-band pieces of the boundary edge from corner ia
// to corner ib, given in the counterclockwise walk direction. Band
// crossings split the edge at the same interpolated points the
// interior uses, so rim segments chain exactly onto contour ends.
func (m *marcher) rimEdge(ia, ib [2]int) {
	ba := m.band(m.g.Value(ia[0], ia[1]))
	bb := m.band(m.g.Value(ib[0], ib[1]))
	ka, kb := ia, ib
	if indexLess(kb, ka) {
		ka, kb = kb, ka
	}
	var pts [4]v2.Vec
	var cls [3]int
	pts[0], cls[0] = m.g.Corner(ia[0], ia[1]), ba
	n := 1
	switch {
	case ba == bb:
	case ba != 1 && bb != 1:
		// below to above or back: both bounds cross
		lov := m.crossing(ka, kb, m.lo)
		hiv := m.crossing(ka, kb, m.hi)
		if ba == 0 {
			pts[1], cls[1] = lov, 1
			pts[2], cls[2] = hiv, 2
		} else {
			pts[1], cls[1] = hiv, 1
			pts[2], cls[2] = lov, 0
		}
		n = 3
	default:
		iso := m.lo
		if ba == 2 || bb == 2 {
			iso = m.hi
		}
		pts[1], cls[1] = m.crossing(ka, kb, iso), bb
		n = 2
	}
	pts[n] = m.g.Corner(ib[0], ib[1])
	for s := 0; s < n; s++ {
		if cls[s] == 1 {
			m.emit(pts[s], pts[s+1])
		}
	}
}

// band classifies a corner value against the isovalue bounds:
// 0 below Min, 1 in band, 2 at or above Max.
func (m *marcher) band(v float64) int {
	b := 0
	if v >= m.lo {
		b++
	}
	if v >= m.hi {
		b++
	}
	return b
}

// edgePoint interpolates the iso crossing on pixel edge e. The edge's
// endpoints are ordered by global grid index first, so both pixels
// touching the edge compute a bit-identical point and path assembly
// can join on exact equality.
func (m *marcher) edgePoint(i, j, e int, iso float64) v2.Vec {
	ca, cb := edgeCorners2[e][0], edgeCorners2[e][1]
	ia := [2]int{i + cornerOffset2[ca][0], j + cornerOffset2[ca][1]}
	ib := [2]int{i + cornerOffset2[cb][0], j + cornerOffset2[cb][1]}
	if indexLess(ib, ia) {
		ia, ib = ib, ia
	}
	return m.crossing(ia, ib, iso)
}

// crossing interpolates between two corner samples given in canonical
// ascending-index order.
func (m *marcher) crossing(ia, ib [2]int, iso float64) v2.Vec {
	va := m.g.Value(ia[0], ia[1])
	vb := m.g.Value(ib[0], ib[1])
	u := 0.5
	if den := vb - va; math.Abs(den) >= interpEps {
		u = (iso - va) / den
	}
	pa := m.g.Corner(ia[0], ia[1])
	pb := m.g.Corner(ib[0], ib[1])
	return pa.Add(pb.Sub(pa).MulScalar(u))
}

// triPoint resolves a 5-point triangle vertex code on pixel edge e's
// triangle: the pixel edge crossing or a corner-to-center spoke
// crossing.
func (m *marcher) triPoint(i, j, e int, cv float64, code int, iso float64) v2.Vec {
	if code == 0 {
		return m.edgePoint(i, j, e, iso)
	}
	c := edgeCorners2[e][0]
	if code == 1 {
		c = edgeCorners2[e][1]
	}
	return m.spokePoint(i, j, c, cv, iso)
}

// spokePoint interpolates on the corner-to-center spoke. A spoke
// belongs to a single pixel, so corner-first order is canonical for
// the two triangles sharing it.
func (m *marcher) spokePoint(i, j, c int, cv, iso float64) v2.Vec {
	off := cornerOffset2[c]
	va := m.g.Value(i+off[0], j+off[1])
	u := 0.5
	if den := cv - va; math.Abs(den) >= interpEps {
		u = (iso - va) / den
	}
	pa := m.g.Corner(i+off[0], j+off[1])
	pc := m.g.Corner(i, j).Add(m.g.Cell.MulScalar(0.5))
	return pa.Add(pc.Sub(pa).MulScalar(u))
}

// emit appends a segment unless its endpoints coincide. The comparison
// is exact, matching the bit-identical shared points interpolation
// produces.
func (m *marcher) emit(a, b v2.Vec) {
	if a == b {
		return
	}
	if m.reverse {
		a, b = b, a
	}
	m.segs = append(m.segs, segment{a, b})
}

func indexLess(a, b [2]int) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

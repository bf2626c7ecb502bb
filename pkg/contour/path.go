package contour

import v2 "github.com/deadsy/sdfx/vec/v2"

// Path is a chain of contour points. Closed paths repeat their first
// point at the end so callers can tell loops from chains the bounding
// box cut open.
type Path []v2.Vec

// Closed reports whether the path loops back onto its start.
func (p Path) Closed() bool {
	return len(p) > 2 && p[0] == p[len(p)-1]
}

// Area returns the signed area enclosed by the path, positive when it
// winds counterclockwise. An open path is measured as if closed by a
// final straight segment.
func (p Path) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	a := 0.0
	for i := 0; i < len(p)-1; i++ {
		a += p[i].X*p[i+1].Y - p[i+1].X*p[i].Y
	}
	if last := p[len(p)-1]; last != p[0] {
		a += last.X*p[0].Y - p[0].X*last.Y
	}
	return a / 2
}

// assemble chains directed segments into maximal paths. Chains whose
// start no segment feeds are walked first, so a clipped contour comes
// out as one open polyline instead of fragments; every segment left
// after that belongs to a loop. Joins use exact point equality, which
// canonical interpolation makes dependable.
func assemble(segs []segment) []Path {
	starts := make(map[v2.Vec][]int, len(segs))
	indeg := make(map[v2.Vec]int, len(segs))
	for s, sg := range segs {
		starts[sg.a] = append(starts[sg.a], s)
		indeg[sg.b]++
	}
	used := make([]bool, len(segs))
	walk := func(s int) Path {
		used[s] = true
		p := Path{segs[s].a, segs[s].b}
		for {
			next := -1
			for _, c := range starts[p[len(p)-1]] {
				if !used[c] {
					next = c
					break
				}
			}
			if next < 0 {
				return p
			}
			used[next] = true
			p = append(p, segs[next].b)
			if p[len(p)-1] == p[0] {
				return p
			}
		}
	}
	var paths []Path
	for s, sg := range segs {
		if !used[s] && indeg[sg.a] == 0 {
			paths = append(paths, walk(s))
		}
	}
	for s := range segs {
		if !used[s] {
			paths = append(paths, walk(s))
		}
	}
	return paths
}

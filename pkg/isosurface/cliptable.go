package isosurface

// Boundary caps close cells clipped by the bounding box. Each boundary
// face is classified per corner into three bands (0 below the lower
// bound, 1 in band, 2 at or above the upper bound), giving a base-3
// index 0-80 into clipTable. Cap vertices are face-local codes: 0-3 are
// the face corners, 4+e the lower-bound crossing on face edge e, 8+e
// the upper-bound crossing, where edge e joins face corners e and
// (e+1)%4.

// clipTable[idx] lists the cap triangles for one face classification,
// three local vertex codes per triangle, wound counterclockwise seen
// from outside the cell.
var clipTable [81][][3]int

// pow3 weights the four face corners in the clip table index.
var pow3 = [4]int{1, 3, 9, 27}

func init() {
	for idx := range clipTable {
		var bands [4]int
		n := idx
		for j := 0; j < 4; j++ {
			bands[j] = n % 3
			n /= 3
		}
		clipTable[idx] = capTriangles(bands)
	}
}

const (
	nodeCorner = iota
	nodeEnter
	nodeExit
)

// capNode is one stop on the counterclockwise walk around a face:
// an in-band corner, or a crossing where the walk enters or exits the
// band through one of the two bounds.
type capNode struct {
	code int
	kind int
	hi   bool
}

// capPolygons computes the in-band region of a face as polygons of
// local vertex codes. It walks the face boundary counterclockwise
// collecting in-band corners and band crossings, then joins each exit
// crossing back to an enter crossing along its bound's level line.
// Every resulting polygon is an intersection of the square with
// half-planes, hence convex.
func capPolygons(bands [4]int) [][]int {
	var walk []capNode
	for j := 0; j < 4; j++ {
		a, b := bands[j], bands[(j+1)%4]
		if a == 1 {
			walk = append(walk, capNode{code: j, kind: nodeCorner})
		}
		lo, hi := 4+j, 8+j
		switch {
		case a == 0 && b == 1:
			walk = append(walk, capNode{lo, nodeEnter, false})
		case a == 0 && b == 2:
			walk = append(walk, capNode{lo, nodeEnter, false}, capNode{hi, nodeExit, true})
		case a == 1 && b == 2:
			walk = append(walk, capNode{hi, nodeExit, true})
		case a == 2 && b == 1:
			walk = append(walk, capNode{hi, nodeEnter, true})
		case a == 2 && b == 0:
			walk = append(walk, capNode{hi, nodeEnter, true}, capNode{lo, nodeExit, false})
		case a == 1 && b == 0:
			walk = append(walk, capNode{lo, nodeExit, false})
		}
	}
	if len(walk) == 0 {
		return nil
	}

	// Pair exits with enters per bound. A chord lies on one bound's
	// level line, so it joins crossings of that bound only.
	chords := make(map[int]int)
	for _, th := range []bool{false, true} {
		var exits, enters []int
		for i, nd := range walk {
			if nd.kind == nodeCorner || nd.hi != th {
				continue
			}
			if nd.kind == nodeExit {
				exits = append(exits, i)
			} else {
				enters = append(enters, i)
			}
		}
		switch len(exits) {
		case 1:
			chords[exits[0]] = enters[0]
		case 2:
			// Saddle: two opposite corners sit below this bound. Keep
			// the at-or-above region connected through the diagonal:
			// each chord joins the two crossings flanking one
			// below-bound corner.
			base := 4
			if th {
				base = 8
			}
			for l := 0; l < 4; l++ {
				below := bands[l] == 0
				if th {
					below = bands[l] <= 1
				}
				if !below {
					continue
				}
				i1 := nodeWithCode(walk, base+(l+3)%4)
				i2 := nodeWithCode(walk, base+l)
				if walk[i1].kind == nodeExit {
					chords[i1] = i2
				} else {
					chords[i2] = i1
				}
			}
		}
	}

	// Stitch: follow the walk from each unused corner or enter node,
	// jumping along a chord at every exit, until the polygon closes.
	used := make([]bool, len(walk))
	var polys [][]int
	for s := range walk {
		if used[s] || walk[s].kind == nodeExit {
			continue
		}
		var poly []int
		for i := s; !used[i]; {
			used[i] = true
			poly = append(poly, walk[i].code)
			if walk[i].kind == nodeExit {
				i = chords[i]
			} else {
				i = (i + 1) % len(walk)
			}
		}
		polys = append(polys, poly)
	}
	return polys
}

func nodeWithCode(walk []capNode, code int) int {
	for i, nd := range walk {
		if nd.code == code {
			return i
		}
	}
	return -1
}

// capTriangles fans each cap polygon from its first vertex. Convexity
// of the polygons makes the fan exact.
func capTriangles(bands [4]int) [][3]int {
	var out [][3]int
	for _, poly := range capPolygons(bands) {
		for k := 1; k < len(poly)-1; k++ {
			out = append(out, [3]int{poly[0], poly[k], poly[k+1]})
		}
	}
	return out
}

// Package contour extracts 2D isolines from scalar fields sampled over
// a uniform grid. Each pixel is classified by comparing its corner
// values against the isovalue bounds, and a pre-built segment table
// turns the classification into directed contour pieces that chain
// into paths winding counterclockwise around the in-band region.
// Pixels cut off by the bounding box are closed along the box rim so
// clipped contours stay loops, and a band [min,max] of isovalues
// produces both boundaries of the band. The optional 5-point mode adds
// a center sample per pixel and contours the four triangles around it.
package contour

// Pixel numbering conventions shared by the classifier, the segment
// tables, and the rim closer.
//
//	3 ---2--- 2
//	|         |      y
//	3         1      |
//	|         |      +--x
//	0 ---0--- 1
//
// Corner 0 is the pixel minimum; corners ring the pixel
// counterclockwise. Bit c of a case index is set when corner c's value
// is at or above the isovalue. Edge e joins corners e and (e+1)%4.
var cornerOffset2 = [4][2]int{
	{0, 0}, {1, 0}, {1, 1}, {0, 1},
}

// edgeCorners2[e] lists the two corners edge e connects.
var edgeCorners2 = [4][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
}

// segTable[m] lists the contour segments for a pixel with corner mask
// m, as directed (from, to) pairs of edge indices with the at-or-above
// region on the left. The two saddle cases 5 and 10 connect the
// at-or-above corners across the pixel, matching the 3D face policy.
var segTable = [16][][2]int{
	nil,
	{{0, 3}},
	{{1, 0}},
	{{1, 3}},
	{{2, 1}},
	{{0, 1}, {2, 3}},
	{{2, 0}},
	{{2, 3}},
	{{3, 2}},
	{{0, 2}},
	{{3, 0}, {1, 2}},
	{{1, 2}},
	{{3, 1}},
	{{0, 1}},
	{{3, 0}},
	nil,
}

// segTableReversed is segTable with every segment flipped, used for
// the upper bound so the in-band side stays on the left.
var segTableReversed [16][][2]int

// triSegments maps the 3-bit mask of one 5-point triangle (bit 0 the
// edge's first corner, bit 1 its second, bit 2 the center) to a
// directed segment over the triangle's own edges: 0 the pixel edge,
// 1 the second corner's spoke, 2 the first corner's spoke. Masks 0 and
// 7 produce nothing; a triangle has no ambiguous cases.
var triSegments = [8][2]int{
	{-1, -1},
	{0, 2},
	{1, 0},
	{1, 2},
	{2, 1},
	{0, 1},
	{2, 0},
	{-1, -1},
}

// triSegmentsReversed is the flipped twin for the upper bound.
var triSegmentsReversed [8][2]int

func init() {
	for m, row := range segTable {
		if len(row) == 0 {
			continue
		}
		rev := make([][2]int, len(row))
		for s, seg := range row {
			rev[s] = [2]int{seg[1], seg[0]}
		}
		segTableReversed[m] = rev
	}
	for m, seg := range triSegments {
		triSegmentsReversed[m] = [2]int{seg[1], seg[0]}
	}
}

package contour

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/isoform/pkg/grid"
	"github.com/chazu/isoform/pkg/metaball"
)

// Contour samples f over a grid covering bounds and traces the
// boundary of the region where f lies within iso. Paths wind
// counterclockwise around the in-band region; closed paths repeat
// their first point. Configuration problems are reported before any
// sampling happens.
func Contour(f grid.Field2, iso Isovalue, bounds sdf.Box2, opts *Options) ([]Path, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := iso.validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	cell := opts.PixelSize
	if cell == (v2.Vec{}) {
		cell = grid.AutoCell2D(bounds, opts.PixelCount)
	}
	g, err := grid.SampleField2D(f, bounds, cell, opts.ExactBounds)
	if err != nil {
		return nil, err
	}
	var centers []float64
	if opts.UseCenters {
		centers = sampleCenters(f, g)
	}
	return extract(g, iso, opts, centers), nil
}

// ContourArray traces contours of pre-sampled corner values indexed
// [x][y]. Exactly one of bounds (non-zero) or Options.PixelSize must
// be given: the array's dimensions fix the pixel counts, so either one
// determines the grid. With a pixel size the grid is centered on the
// origin. In 5-point mode the center sample is the mean of the four
// surrounding corners.
func ContourArray(vals [][]float64, iso Isovalue, bounds sdf.Box2, opts *Options) ([]Path, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := iso.validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	haveBounds := bounds != (sdf.Box2{})
	haveCell := opts.PixelSize != (v2.Vec{})
	if haveBounds == haveCell {
		return nil, fmt.Errorf("contour: an array field needs exactly one of bounding box or pixel size")
	}
	if opts.PixelCount != 0 {
		return nil, fmt.Errorf("contour: pixel count does not apply to an array field")
	}
	if !haveBounds {
		bounds = arrayBounds(vals, opts.PixelSize)
	}
	g, err := grid.FromArray2D(vals, bounds)
	if err != nil {
		return nil, err
	}
	var centers []float64
	if opts.UseCenters {
		centers = averageCenters(g)
	}
	return extract(g, iso, opts, centers), nil
}

// Metaballs2D composes the spec's generators into one scalar field and
// traces its contours. The conventional isovalue is Value(1).
func Metaballs2D(spec metaball.Spec2, iso Isovalue, bounds sdf.Box2, opts *Options) ([]Path, error) {
	f, err := spec.Field()
	if err != nil {
		return nil, err
	}
	return Contour(f, iso, bounds, opts)
}

// SDFField2D adapts a signed distance function to a sampling field.
// Signed distances are negative inside the shape, so the field is the
// negated distance and Value(0) traces the SDF boundary.
func SDFField2D(s sdf.SDF2) grid.Field2 {
	return func(p v2.Vec) float64 {
		return -s.Evaluate(p)
	}
}

// SquareBounds returns a square of the given edge length centered on
// the origin, the shorthand form of a bounding box.
func SquareBounds(size float64) sdf.Box2 {
	h := size / 2
	return sdf.Box2{
		Min: v2.Vec{X: -h, Y: -h},
		Max: v2.Vec{X: h, Y: h},
	}
}

func extract(g *grid.Grid2, iso Isovalue, opts *Options, centers []float64) []Path {
	segs, active := march(g, iso, opts.closed(), opts.Reverse, centers)
	paths := assemble(segs)
	if opts.ShowStats != nil {
		open := 0
		for _, p := range paths {
			if !p.Closed() {
				open++
			}
		}
		st := &Stats{
			Bounds:       g.Bounds(),
			PixelSize:    g.Cell,
			Pixels:       g.N,
			ActivePixels: active,
			Segments:     len(segs),
			Paths:        len(paths),
			Open:         open,
		}
		st.write(opts.ShowStats)
	}
	return paths
}

// sampleCenters evaluates f at every pixel center for the 5-point
// mode, clamped like the corner samples.
func sampleCenters(f grid.Field2, g *grid.Grid2) []float64 {
	nx, ny := g.N[0], g.N[1]
	centers := make([]float64, nx*ny)
	half := g.Cell.MulScalar(0.5)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			centers[j*nx+i] = grid.ClampSample(f(g.Corner(i, j).Add(half)))
		}
	}
	return centers
}

// averageCenters stands in for center samples on array fields: the
// mean of the four surrounding corners.
func averageCenters(g *grid.Grid2) []float64 {
	nx, ny := g.N[0], g.N[1]
	centers := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			centers[j*nx+i] = (g.Value(i, j) + g.Value(i+1, j) +
				g.Value(i+1, j+1) + g.Value(i, j+1)) / 4
		}
	}
	return centers
}

// arrayBounds centers an array field's grid on the origin.
func arrayBounds(vals [][]float64, cell v2.Vec) sdf.Box2 {
	var n v2.Vec
	if len(vals) > 0 {
		n = v2.Vec{
			X: float64(len(vals) - 1),
			Y: float64(len(vals[0]) - 1),
		}
	}
	half := cell.Mul(n).MulScalar(0.5)
	return sdf.Box2{Min: half.Neg(), Max: half}
}

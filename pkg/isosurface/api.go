package isosurface

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/grid"
	"github.com/chazu/isoform/pkg/mesh"
	"github.com/chazu/isoform/pkg/metaball"
)

// Isosurface samples f over a grid covering bounds and extracts the
// boundary surface of the region where f lies within iso. The result
// is a triangle soup with outward winding; adjacent cells duplicate
// vertices exactly, so mesh.Weld can index it without tolerance.
//
// Configuration problems (bad isovalue range, non-positive sizes,
// conflicting options) are reported before any sampling happens.
func Isosurface(f grid.Field3, iso Isovalue, bounds sdf.Box3, opts *Options) ([]mesh.Triangle, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := iso.validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	cell := opts.CellSize
	if cell == (v3.Vec{}) {
		cell = grid.AutoCell(bounds, opts.VoxelCount)
	}
	g, err := grid.SampleField(f, bounds, cell, opts.ExactBounds)
	if err != nil {
		return nil, err
	}
	return extract(g, iso, opts), nil
}

// IsosurfaceArray extracts from pre-sampled corner values indexed
// [x][y][z]. Exactly one of bounds (non-zero) or Options.CellSize must
// be given: the array's dimensions fix the cell counts, so either one
// determines the grid. With a cell size the grid is centered on the
// origin.
func IsosurfaceArray(vals [][][]float64, iso Isovalue, bounds sdf.Box3, opts *Options) ([]mesh.Triangle, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := iso.validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	haveBounds := bounds != (sdf.Box3{})
	haveCell := opts.CellSize != (v3.Vec{})
	if haveBounds == haveCell {
		return nil, fmt.Errorf("isosurface: an array field needs exactly one of bounding box or cell size")
	}
	if opts.VoxelCount != 0 {
		return nil, fmt.Errorf("isosurface: voxel count does not apply to an array field")
	}
	if !haveBounds {
		bounds = arrayBounds(vals, opts.CellSize)
	}
	g, err := grid.FromArray(vals, bounds)
	if err != nil {
		return nil, err
	}
	return extract(g, iso, opts), nil
}

// Metaballs composes the spec's generators into one scalar field and
// extracts its surface. The conventional isovalue is Value(1).
func Metaballs(spec metaball.Spec, iso Isovalue, bounds sdf.Box3, opts *Options) ([]mesh.Triangle, error) {
	f, err := spec.Field()
	if err != nil {
		return nil, err
	}
	return Isosurface(f, iso, bounds, opts)
}

// SDFField adapts a signed distance function to a sampling field.
// Signed distances are negative inside the solid, so the field is the
// negated distance and Value(0) surfaces the SDF boundary.
func SDFField(s sdf.SDF3) grid.Field3 {
	return func(p v3.Vec) float64 {
		return -s.Evaluate(p)
	}
}

// CubeBounds returns a cube of the given edge length centered on the
// origin, the shorthand form of a bounding box.
func CubeBounds(size float64) sdf.Box3 {
	h := size / 2
	return sdf.Box3{
		Min: v3.Vec{X: -h, Y: -h, Z: -h},
		Max: v3.Vec{X: h, Y: h, Z: h},
	}
}

func extract(g *grid.Grid3, iso Isovalue, opts *Options) []mesh.Triangle {
	tris, active := march(g, iso, opts.closed(), opts.Reverse)
	if opts.ShowStats != nil {
		st := &Stats{
			Bounds:      g.Bounds(),
			CellSize:    g.Cell,
			Cells:       g.N,
			ActiveCells: active,
			Triangles:   len(tris),
		}
		st.write(opts.ShowStats)
	}
	return tris
}

// arrayBounds centers an array field's grid on the origin.
func arrayBounds(vals [][][]float64, cell v3.Vec) sdf.Box3 {
	var n v3.Vec
	if len(vals) > 0 && len(vals[0]) > 0 {
		n = v3.Vec{
			X: float64(len(vals) - 1),
			Y: float64(len(vals[0]) - 1),
			Z: float64(len(vals[0][0]) - 1),
		}
	}
	half := cell.Mul(n).MulScalar(0.5)
	return sdf.Box3{Min: half.Neg(), Max: half}
}

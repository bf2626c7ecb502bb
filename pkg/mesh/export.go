package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/fogleman/simplify"
)

// Triangles3 converts a triangle soup to sdfx render triangles.
func Triangles3(tris []Triangle) []render.Triangle3 {
	out := make([]render.Triangle3, len(tris))
	for i, t := range tris {
		out[i] = render.Triangle3(t)
	}
	return out
}

// Decimate reduces the soup to roughly ratio times its triangle count
// using quadric edge collapse. Ratio must lie in (0, 1). Welding is not
// required first; coincident vertices are merged by the simplifier.
func Decimate(tris []Triangle, ratio float64) ([]Triangle, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("mesh: decimation ratio must be in (0,1), got %v", ratio)
	}
	st := make([]*simplify.Triangle, len(tris))
	for i, t := range tris {
		st[i] = simplify.NewTriangle(
			simplify.Vector{X: t[0].X, Y: t[0].Y, Z: t[0].Z},
			simplify.Vector{X: t[1].X, Y: t[1].Y, Z: t[1].Z},
			simplify.Vector{X: t[2].X, Y: t[2].Y, Z: t[2].Z},
		)
	}
	out := simplify.NewMesh(st).Simplify(ratio)
	res := make([]Triangle, len(out.Triangles))
	for i, t := range out.Triangles {
		res[i] = Triangle{
			{X: t.V1.X, Y: t.V1.Y, Z: t.V1.Z},
			{X: t.V2.X, Y: t.V2.Y, Z: t.V2.Z},
			{X: t.V3.X, Y: t.V3.Y, Z: t.V3.Z},
		}
	}
	return res, nil
}

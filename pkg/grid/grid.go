// Package grid lays out uniform sampling grids and evaluates scalar
// fields over them. A grid stores one sample per cell corner, so an
// n-cell axis carries n+1 sample layers. Extraction packages walk the
// cells; this package only produces the corner values.
package grid

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/exp/constraints"
)

// ClampLimit bounds sampled field values. Metaball fields diverge at
// generator centers and user fields may return infinities; clamping keeps
// every corner value finite so edge interpolation stays well defined.
const ClampLimit = 1e9

// DefaultCellBudget is the approximate total cell count used to derive a
// cell size when the caller provides neither a size nor a count.
const DefaultCellBudget = 32 * 32 * 32

// sizeEps guards the whole-cell rounding in grid layout against float
// noise in size/cell ratios.
const sizeEps = 1e-9

// Field3 is a scalar field over 3D space.
type Field3 func(p v3.Vec) float64

// Clamp limits v to the range [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampSample bounds a field value to ±ClampLimit. NaN maps to
// +ClampLimit, same as the sentinel a metaball center produces.
func ClampSample(v float64) float64 {
	if math.IsNaN(v) {
		return ClampLimit
	}
	return Clamp(v, -ClampLimit, ClampLimit)
}

// Grid3 is a sampled 3D grid: N cells per axis, N+1 corner samples.
// Corner (i,j,k) sits at Origin + (i,j,k)*Cell.
type Grid3 struct {
	Origin v3.Vec // minimum corner of cell (0,0,0)
	Cell   v3.Vec // cell edge lengths
	N      [3]int // cell counts per axis
	vals   []float64
}

// Value returns the sampled field value at corner (i,j,k).
func (g *Grid3) Value(i, j, k int) float64 {
	return g.vals[(k*(g.N[1]+1)+j)*(g.N[0]+1)+i]
}

// Corner returns the position of corner (i,j,k).
func (g *Grid3) Corner(i, j, k int) v3.Vec {
	return v3.Vec{
		X: g.Origin.X + float64(i)*g.Cell.X,
		Y: g.Origin.Y + float64(j)*g.Cell.Y,
		Z: g.Origin.Z + float64(k)*g.Cell.Z,
	}
}

// Bounds returns the box covered by the grid cells.
func (g *Grid3) Bounds() sdf.Box3 {
	return sdf.Box3{
		Min: g.Origin,
		Max: v3.Vec{
			X: g.Origin.X + float64(g.N[0])*g.Cell.X,
			Y: g.Origin.Y + float64(g.N[1])*g.Cell.Y,
			Z: g.Origin.Z + float64(g.N[2])*g.Cell.Z,
		},
	}
}

// CellCount returns the total number of cells.
func (g *Grid3) CellCount() int {
	return g.N[0] * g.N[1] * g.N[2]
}

// axisLayout resolves one axis of a grid. With exact=false the cell size
// is honored and the span grows outward symmetrically to a whole number
// of cells; with exact=true the span is honored and the cell size shrinks
// or stretches to fit.
func axisLayout(min, max, cell float64, exact bool) (origin, outCell float64, n int) {
	size := max - min
	if exact {
		n = int(math.Round(size / cell))
		if n < 1 {
			n = 1
		}
		return min, size / float64(n), n
	}
	n = int(math.Ceil(size/cell - sizeEps))
	if n < 1 {
		n = 1
	}
	grown := float64(n) * cell
	center := (min + max) / 2
	return center - grown/2, cell, n
}

// AutoCell derives an isotropic cell size for bounds so the grid holds
// roughly budget cells. A budget of 0 uses DefaultCellBudget.
func AutoCell(bounds sdf.Box3, budget int) v3.Vec {
	if budget <= 0 {
		budget = DefaultCellBudget
	}
	s := bounds.Size()
	side := math.Cbrt(s.X * s.Y * s.Z / float64(budget))
	return v3.Vec{X: side, Y: side, Z: side}
}

// checkBounds3 rejects empty or inverted boxes.
func checkBounds3(bounds sdf.Box3) error {
	s := bounds.Size()
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return fmt.Errorf("grid: bounding box must have positive size, got %v", s)
	}
	return nil
}

// checkCell3 rejects non-positive cell sizes.
func checkCell3(cell v3.Vec) error {
	if cell.X <= 0 || cell.Y <= 0 || cell.Z <= 0 {
		return fmt.Errorf("grid: cell size must be positive, got %v", cell)
	}
	return nil
}

// SampleField evaluates f over a grid laid out from bounds and cell.
// A zero cell vector derives one from the cell budget (AutoCell).
// Sampling runs one goroutine per worker over strided z-layers.
func SampleField(f Field3, bounds sdf.Box3, cell v3.Vec, exact bool) (*Grid3, error) {
	if f == nil {
		return nil, fmt.Errorf("grid: field function is nil")
	}
	if err := checkBounds3(bounds); err != nil {
		return nil, err
	}
	if cell == (v3.Vec{}) {
		cell = AutoCell(bounds, 0)
	}
	if err := checkCell3(cell); err != nil {
		return nil, err
	}

	g := &Grid3{}
	g.Origin.X, g.Cell.X, g.N[0] = axisLayout(bounds.Min.X, bounds.Max.X, cell.X, exact)
	g.Origin.Y, g.Cell.Y, g.N[1] = axisLayout(bounds.Min.Y, bounds.Max.Y, cell.Y, exact)
	g.Origin.Z, g.Cell.Z, g.N[2] = axisLayout(bounds.Min.Z, bounds.Max.Z, cell.Z, exact)

	nx, ny, nz := g.N[0], g.N[1], g.N[2]
	g.vals = make([]float64, (nx+1)*(ny+1)*(nz+1))

	workers := runtime.GOMAXPROCS(0)
	if workers > nz+1 {
		workers = nz + 1
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for k := w; k <= nz; k += workers {
				base := k * (ny + 1) * (nx + 1)
				for j := 0; j <= ny; j++ {
					for i := 0; i <= nx; i++ {
						g.vals[base+j*(nx+1)+i] = ClampSample(f(g.Corner(i, j, k)))
					}
				}
			}
		}(w)
	}
	wg.Wait()

	return g, nil
}

// FromArray builds a grid from pre-sampled corner values indexed
// [x][y][z]. The array spans bounds exactly: an axis with n entries has
// n-1 cells, so every axis needs at least two entries.
func FromArray(vals [][][]float64, bounds sdf.Box3) (*Grid3, error) {
	nx := len(vals)
	if nx < 2 {
		return nil, fmt.Errorf("grid: field array needs at least 2 samples on x, got %d", nx)
	}
	ny := len(vals[0])
	if ny < 2 {
		return nil, fmt.Errorf("grid: field array needs at least 2 samples on y, got %d", ny)
	}
	nz := len(vals[0][0])
	if nz < 2 {
		return nil, fmt.Errorf("grid: field array needs at least 2 samples on z, got %d", nz)
	}
	if err := checkBounds3(bounds); err != nil {
		return nil, err
	}

	size := bounds.Size()
	g := &Grid3{
		Origin: bounds.Min,
		Cell: v3.Vec{
			X: size.X / float64(nx-1),
			Y: size.Y / float64(ny-1),
			Z: size.Z / float64(nz-1),
		},
		N:    [3]int{nx - 1, ny - 1, nz - 1},
		vals: make([]float64, nx*ny*nz),
	}
	for i := 0; i < nx; i++ {
		if len(vals[i]) != ny {
			return nil, fmt.Errorf("grid: ragged field array: row x=%d has %d columns, want %d", i, len(vals[i]), ny)
		}
		for j := 0; j < ny; j++ {
			if len(vals[i][j]) != nz {
				return nil, fmt.Errorf("grid: ragged field array: column x=%d y=%d has %d layers, want %d", i, j, len(vals[i][j]), nz)
			}
			for k := 0; k < nz; k++ {
				g.vals[(k*ny+j)*nx+i] = ClampSample(vals[i][j][k])
			}
		}
	}
	return g, nil
}

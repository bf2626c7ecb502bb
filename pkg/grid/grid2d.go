package grid

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// DefaultPixelBudget is the approximate total pixel count used to derive
// a 2D pixel size when the caller provides neither a size nor a count.
const DefaultPixelBudget = 128 * 128

// Field2 is a scalar field over 2D space.
type Field2 func(p v2.Vec) float64

// Grid2 is a sampled 2D grid: N pixels per axis, N+1 corner samples.
// Corner (i,j) sits at Origin + (i,j)*Cell.
type Grid2 struct {
	Origin v2.Vec // minimum corner of pixel (0,0)
	Cell   v2.Vec // pixel edge lengths
	N      [2]int // pixel counts per axis
	vals   []float64
}

// Value returns the sampled field value at corner (i,j).
func (g *Grid2) Value(i, j int) float64 {
	return g.vals[j*(g.N[0]+1)+i]
}

// Corner returns the position of corner (i,j).
func (g *Grid2) Corner(i, j int) v2.Vec {
	return v2.Vec{
		X: g.Origin.X + float64(i)*g.Cell.X,
		Y: g.Origin.Y + float64(j)*g.Cell.Y,
	}
}

// Bounds returns the box covered by the grid pixels.
func (g *Grid2) Bounds() sdf.Box2 {
	return sdf.Box2{
		Min: g.Origin,
		Max: v2.Vec{
			X: g.Origin.X + float64(g.N[0])*g.Cell.X,
			Y: g.Origin.Y + float64(g.N[1])*g.Cell.Y,
		},
	}
}

// PixelCount returns the total number of pixels.
func (g *Grid2) PixelCount() int {
	return g.N[0] * g.N[1]
}

// AutoCell2D derives an isotropic pixel size for bounds so the grid
// holds roughly budget pixels. A budget of 0 uses DefaultPixelBudget.
func AutoCell2D(bounds sdf.Box2, budget int) v2.Vec {
	if budget <= 0 {
		budget = DefaultPixelBudget
	}
	s := bounds.Size()
	side := math.Sqrt(s.X * s.Y / float64(budget))
	return v2.Vec{X: side, Y: side}
}

func checkBounds2(bounds sdf.Box2) error {
	s := bounds.Size()
	if s.X <= 0 || s.Y <= 0 {
		return fmt.Errorf("grid: bounding box must have positive size, got %v", s)
	}
	return nil
}

func checkCell2(cell v2.Vec) error {
	if cell.X <= 0 || cell.Y <= 0 {
		return fmt.Errorf("grid: pixel size must be positive, got %v", cell)
	}
	return nil
}

// SampleField2D evaluates f over a grid laid out from bounds and cell.
// A zero cell vector derives one from the pixel budget (AutoCell2D).
// Sampling runs one goroutine per worker over strided rows.
func SampleField2D(f Field2, bounds sdf.Box2, cell v2.Vec, exact bool) (*Grid2, error) {
	if f == nil {
		return nil, fmt.Errorf("grid: field function is nil")
	}
	if err := checkBounds2(bounds); err != nil {
		return nil, err
	}
	if cell == (v2.Vec{}) {
		cell = AutoCell2D(bounds, 0)
	}
	if err := checkCell2(cell); err != nil {
		return nil, err
	}

	g := &Grid2{}
	g.Origin.X, g.Cell.X, g.N[0] = axisLayout(bounds.Min.X, bounds.Max.X, cell.X, exact)
	g.Origin.Y, g.Cell.Y, g.N[1] = axisLayout(bounds.Min.Y, bounds.Max.Y, cell.Y, exact)

	nx, ny := g.N[0], g.N[1]
	g.vals = make([]float64, (nx+1)*(ny+1))

	workers := runtime.GOMAXPROCS(0)
	if workers > ny+1 {
		workers = ny + 1
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for j := w; j <= ny; j += workers {
				for i := 0; i <= nx; i++ {
					g.vals[j*(nx+1)+i] = ClampSample(f(g.Corner(i, j)))
				}
			}
		}(w)
	}
	wg.Wait()

	return g, nil
}

// FromArray2D builds a grid from pre-sampled corner values indexed
// [x][y]. The array spans bounds exactly: an axis with n entries has
// n-1 pixels, so every axis needs at least two entries.
func FromArray2D(vals [][]float64, bounds sdf.Box2) (*Grid2, error) {
	nx := len(vals)
	if nx < 2 {
		return nil, fmt.Errorf("grid: field array needs at least 2 samples on x, got %d", nx)
	}
	ny := len(vals[0])
	if ny < 2 {
		return nil, fmt.Errorf("grid: field array needs at least 2 samples on y, got %d", ny)
	}
	if err := checkBounds2(bounds); err != nil {
		return nil, err
	}

	size := bounds.Size()
	g := &Grid2{
		Origin: bounds.Min,
		Cell: v2.Vec{
			X: size.X / float64(nx-1),
			Y: size.Y / float64(ny-1),
		},
		N:    [2]int{nx - 1, ny - 1},
		vals: make([]float64, nx*ny),
	}
	for i := 0; i < nx; i++ {
		if len(vals[i]) != ny {
			return nil, fmt.Errorf("grid: ragged field array: row x=%d has %d columns, want %d", i, len(vals[i]), ny)
		}
		for j := 0; j < ny; j++ {
			g.vals[j*nx+i] = ClampSample(vals[i][j])
		}
	}
	return g, nil
}

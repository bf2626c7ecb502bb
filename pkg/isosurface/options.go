package isosurface

import (
	"fmt"
	"io"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Isovalue selects the field band whose boundary is surfaced. Inside
// means at or above Min and below Max.
type Isovalue struct {
	Min, Max float64
}

// Value returns the single-threshold isovalue [v, +Inf): everything at
// or above v is inside.
func Value(v float64) Isovalue {
	return Isovalue{Min: v, Max: math.Inf(1)}
}

// Range returns the isovalue band [min, max]. With both bounds finite,
// extraction produces a double-walled shell. Either bound may be
// infinite, degenerating to a single surface at the other.
func Range(min, max float64) Isovalue {
	return Isovalue{Min: min, Max: max}
}

func (iv Isovalue) validate() error {
	if math.IsNaN(iv.Min) || math.IsNaN(iv.Max) {
		return fmt.Errorf("isosurface: isovalue must not be NaN")
	}
	if !(iv.Min < iv.Max) {
		return fmt.Errorf("isosurface: isovalue range [%v, %v] must have min < max", iv.Min, iv.Max)
	}
	if math.IsInf(iv.Min, -1) && math.IsInf(iv.Max, 1) {
		return fmt.Errorf("isosurface: isovalue range must be finite on at least one side")
	}
	return nil
}

// Options tune extraction. The zero value asks for boundary caps,
// forward winding, a grown bounding box, and an automatic cell size.
type Options struct {
	// CellSize is the cell edge length per axis. A zero vector derives
	// one from VoxelCount. Mutually exclusive with VoxelCount.
	CellSize v3.Vec

	// VoxelCount approximates the total number of grid cells when no
	// cell size is given; 0 means the default budget.
	VoxelCount int

	// ExactBounds keeps the caller's bounding box and stretches cells
	// to fit it. The default instead grows the box outward to a whole
	// number of cells, keeping its center.
	ExactBounds bool

	// Closed adds caps where the bounding box clips the surface, so the
	// result stays watertight. nil means true.
	Closed *bool

	// Reverse flips the winding of every output triangle.
	Reverse bool

	// ShowStats, when set, receives a summary of the grid layout and
	// the extraction output.
	ShowStats io.Writer
}

// Cell returns a uniform cell size.
func Cell(size float64) v3.Vec {
	return v3.Vec{X: size, Y: size, Z: size}
}

func (o *Options) closed() bool {
	return o.Closed == nil || *o.Closed
}

func (o *Options) validate() error {
	z := v3.Vec{}
	if o.CellSize != z {
		if o.CellSize.X <= 0 || o.CellSize.Y <= 0 || o.CellSize.Z <= 0 {
			return fmt.Errorf("isosurface: cell size must be positive on every axis, got %v", o.CellSize)
		}
		if o.VoxelCount != 0 {
			return fmt.Errorf("isosurface: cell size and voxel count are mutually exclusive")
		}
	}
	if o.VoxelCount < 0 {
		return fmt.Errorf("isosurface: voxel count must be positive, got %d", o.VoxelCount)
	}
	return nil
}

// Stats summarizes one extraction.
type Stats struct {
	Bounds      sdf.Box3
	CellSize    v3.Vec
	Cells       [3]int
	ActiveCells int
	Triangles   int
}

func (s *Stats) write(w io.Writer) {
	fmt.Fprintf(w, "bounding box: %v to %v\n", s.Bounds.Min, s.Bounds.Max)
	fmt.Fprintf(w, "cell size:    %v\n", s.CellSize)
	fmt.Fprintf(w, "grid:         %d x %d x %d cells, %d active\n",
		s.Cells[0], s.Cells[1], s.Cells[2], s.ActiveCells)
	fmt.Fprintf(w, "triangles:    %d\n", s.Triangles)
}

package contour

import (
	"fmt"
	"io"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Isovalue selects the field band whose boundary is contoured. Inside
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
// extraction traces both boundaries of the band, the inner one wound
// opposite to the outer. Either bound may be infinite, degenerating to
// a single contour at the other.
func Range(min, max float64) Isovalue {
	return Isovalue{Min: min, Max: max}
}

func (iv Isovalue) validate() error {
	if math.IsNaN(iv.Min) || math.IsNaN(iv.Max) {
		return fmt.Errorf("contour: isovalue must not be NaN")
	}
	if !(iv.Min < iv.Max) {
		return fmt.Errorf("contour: isovalue range [%v, %v] must have min < max", iv.Min, iv.Max)
	}
	if math.IsInf(iv.Min, -1) && math.IsInf(iv.Max, 1) {
		return fmt.Errorf("contour: isovalue range must be finite on at least one side")
	}
	return nil
}

// Options tune extraction. The zero value asks for closed paths,
// forward direction, a grown bounding box, and an automatic pixel
// size.
type Options struct {
	// PixelSize is the pixel edge length per axis. A zero vector
	// derives one from PixelCount. Mutually exclusive with PixelCount.
	PixelSize v2.Vec

	// PixelCount approximates the total number of grid pixels when no
	// pixel size is given; 0 means the default budget.
	PixelCount int

	// ExactBounds keeps the caller's bounding box and stretches pixels
	// to fit it. The default instead grows the box outward to a whole
	// number of pixels, keeping its center.
	ExactBounds bool

	// Closed caps contours along the box rim where the bounding box
	// clips them, so every path stays a loop. nil means true.
	Closed *bool

	// UseCenters adds a center sample per pixel and contours the four
	// triangles around it instead of the square. Saddle pixels are
	// then resolved by the measured center value rather than the
	// high-side convention.
	UseCenters bool

	// Reverse flips the direction of every output path.
	Reverse bool

	// ShowStats, when set, receives a summary of the grid layout and
	// the extraction output.
	ShowStats io.Writer
}

// Pixel returns a uniform pixel size.
func Pixel(size float64) v2.Vec {
	return v2.Vec{X: size, Y: size}
}

func (o *Options) closed() bool {
	return o.Closed == nil || *o.Closed
}

func (o *Options) validate() error {
	z := v2.Vec{}
	if o.PixelSize != z {
		if o.PixelSize.X <= 0 || o.PixelSize.Y <= 0 {
			return fmt.Errorf("contour: pixel size must be positive on every axis, got %v", o.PixelSize)
		}
		if o.PixelCount != 0 {
			return fmt.Errorf("contour: pixel size and pixel count are mutually exclusive")
		}
	}
	if o.PixelCount < 0 {
		return fmt.Errorf("contour: pixel count must be positive, got %d", o.PixelCount)
	}
	return nil
}

// Stats summarizes one extraction.
type Stats struct {
	Bounds       sdf.Box2
	PixelSize    v2.Vec
	Pixels       [2]int
	ActivePixels int
	Segments     int
	Paths        int
	Open         int
}

func (s *Stats) write(w io.Writer) {
	fmt.Fprintf(w, "bounding box: %v to %v\n", s.Bounds.Min, s.Bounds.Max)
	fmt.Fprintf(w, "pixel size:   %v\n", s.PixelSize)
	fmt.Fprintf(w, "grid:         %d x %d pixels, %d active\n",
		s.Pixels[0], s.Pixels[1], s.ActivePixels)
	fmt.Fprintf(w, "paths:        %d (%d open), %d segments\n",
		s.Paths, s.Open, s.Segments)
}

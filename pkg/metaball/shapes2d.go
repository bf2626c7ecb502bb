package metaball

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/isoform/pkg/grid"
)

// Shape2 is a single planar field generator. Implementations are the
// 2D shape types in this package; the interface is closed.
type Shape2 interface {
	field(p v2.Vec) float64
	check() error
	debug() (sdf.SDF2, error)
}

var (
	_ Shape2 = Circle{}
	_ Shape2 = Rect{}
	_ Shape2 = Stadium{}
	_ Shape2 = Ring{}
	_ Shape2 = Custom2D{}
)

// pNorm2 is the p-norm of two offsets, with +Inf selecting the
// Chebyshev limit.
func pNorm2(x, y, p float64) float64 {
	x, y = math.Abs(x), math.Abs(y)
	if math.IsInf(p, 1) {
		return math.Max(x, y)
	}
	return math.Pow(math.Pow(x, p)+math.Pow(y, p), 1/p)
}

// Circle is the planar sibling of Sphere.
type Circle struct {
	Radius    float64
	Cutoff    float64
	Influence float64
	Negative  bool
}

func (s Circle) field(p v2.Vec) float64 {
	return ballField(p.Length(), s.Radius, s.Cutoff, s.Influence, s.Negative)
}

func (s Circle) check() error {
	if s.Radius <= 0 {
		return fmt.Errorf("circle radius must be positive, got %v", s.Radius)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Circle) debug() (sdf.SDF2, error) {
	return sdf.Circle2D(s.Radius)
}

// Rect is the planar sibling of Cuboid, with the same squareness
// blending toward the Chebyshev metric.
type Rect struct {
	Size       v2.Vec
	Squareness float64
	Cutoff     float64
	Influence  float64
	Negative   bool
}

func (s Rect) field(p v2.Vec) float64 {
	sq := resolveSquareness(s.Squareness)
	xp := math.Inf(1)
	if sq < 1 {
		xp = 2 / (1 - sq)
	}
	d := pNorm2(2*p.X/s.Size.X, 2*p.Y/s.Size.Y, xp)
	return ballField(d, 1, s.Cutoff, s.Influence, s.Negative)
}

func (s Rect) check() error {
	if s.Size.X <= 0 || s.Size.Y <= 0 {
		return fmt.Errorf("rect size must be positive on every axis, got %v", s.Size)
	}
	if err := checkSquareness(s.Squareness); err != nil {
		return err
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Rect) debug() (sdf.SDF2, error) {
	return sdf.Box2D(s.Size, 0)
}

// Stadium is the planar sibling of Capsule, along the y axis. Height
// is the total extent including the rounded ends.
type Stadium struct {
	Height    float64
	Radius    float64
	Cutoff    float64
	Influence float64
	Negative  bool
}

func (s Stadium) field(p v2.Vec) float64 {
	hl := s.Height/2 - s.Radius
	y := grid.Clamp(p.Y, -hl, hl)
	d := math.Hypot(p.X, p.Y-y)
	return ballField(d, s.Radius, s.Cutoff, s.Influence, s.Negative)
}

func (s Stadium) check() error {
	if s.Radius <= 0 {
		return fmt.Errorf("stadium radius must be positive, got %v", s.Radius)
	}
	if s.Height <= 2*s.Radius {
		return fmt.Errorf("stadium height must exceed twice the radius, got h=%v r=%v", s.Height, s.Radius)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Stadium) debug() (sdf.SDF2, error) {
	return sdf.Box2D(v2.Vec{X: 2 * s.Radius, Y: s.Height}, s.Radius)
}

// Ring is the planar sibling of Torus: distance to the circle of
// MajorRadius, with an annular core of half-width MinorRadius.
type Ring struct {
	MajorRadius float64
	MinorRadius float64
	Cutoff      float64
	Influence   float64
	Negative    bool
}

func (s Ring) field(p v2.Vec) float64 {
	d := math.Abs(p.Length() - s.MajorRadius)
	return ballField(d, s.MinorRadius, s.Cutoff, s.Influence, s.Negative)
}

func (s Ring) check() error {
	if s.MajorRadius <= 0 || s.MinorRadius <= 0 {
		return fmt.Errorf("ring radii must be positive, got major=%v minor=%v", s.MajorRadius, s.MinorRadius)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Ring) debug() (sdf.SDF2, error) {
	return sdf.Circle2D(s.MajorRadius + s.MinorRadius)
}

// Custom2D wraps an arbitrary planar field function as a generator,
// evaluated in the generator's local frame and used as-is.
type Custom2D struct {
	Func  grid.Field2
	Debug sdf.SDF2
}

func (s Custom2D) field(p v2.Vec) float64 {
	return s.Func(p)
}

func (s Custom2D) check() error {
	if s.Func == nil {
		return fmt.Errorf("custom generator needs a field function")
	}
	return nil
}

func (s Custom2D) debug() (sdf.SDF2, error) {
	return s.Debug, nil
}

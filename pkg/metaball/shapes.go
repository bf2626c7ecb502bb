package metaball

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/grid"
)

// Shape is a single field generator. Implementations are the shape
// types in this package; the interface is closed.
type Shape interface {
	// field evaluates the generator's contribution at a point in the
	// generator's local frame.
	field(p v3.Vec) float64
	// check validates the shape's parameters.
	check() error
	// debug returns a solid approximating the generator's core, or nil
	// when the shape has no debug form.
	debug() (sdf.SDF3, error)
}

var (
	_ Shape = Sphere{}
	_ Shape = Cuboid{}
	_ Shape = Cylinder{}
	_ Shape = Capsule{}
	_ Shape = Connector{}
	_ Shape = Torus{}
	_ Shape = Octahedron{}
	_ Shape = Custom{}
)

// pNorm3 is the p-norm of three offsets, with +Inf selecting the
// Chebyshev limit.
func pNorm3(x, y, z, p float64) float64 {
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)
	if math.IsInf(p, 1) {
		return math.Max(x, math.Max(y, z))
	}
	return math.Pow(math.Pow(x, p)+math.Pow(y, p)+math.Pow(z, p), 1/p)
}

// Sphere is a spherical generator: distance is Euclidean from the
// center, core radius is Radius.
type Sphere struct {
	Radius    float64
	Cutoff    float64 // suppression range; 0 means unlimited
	Influence float64 // falloff divisor; 0 means 1
	Negative  bool    // subtract instead of add
}

func (s Sphere) field(p v3.Vec) float64 {
	return ballField(p.Length(), s.Radius, s.Cutoff, s.Influence, s.Negative)
}

func (s Sphere) check() error {
	if s.Radius <= 0 {
		return fmt.Errorf("sphere radius must be positive, got %v", s.Radius)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Sphere) debug() (sdf.SDF3, error) {
	return sdf.Sphere3D(s.Radius)
}

// Cuboid is a box-shaped generator. Squareness blends the corner
// profile from round toward sharp: the distance exponent is
// 2/(1-squareness), reaching the Chebyshev metric at 1. The zero
// value defaults to 0.5. The core surface is the box of the given
// size.
type Cuboid struct {
	Size       v3.Vec
	Squareness float64
	Cutoff     float64
	Influence  float64
	Negative   bool
}

func (s Cuboid) field(p v3.Vec) float64 {
	sq := resolveSquareness(s.Squareness)
	xp := math.Inf(1)
	if sq < 1 {
		xp = 2 / (1 - sq)
	}
	d := pNorm3(2*p.X/s.Size.X, 2*p.Y/s.Size.Y, 2*p.Z/s.Size.Z, xp)
	return ballField(d, 1, s.Cutoff, s.Influence, s.Negative)
}

func (s Cuboid) check() error {
	if s.Size.X <= 0 || s.Size.Y <= 0 || s.Size.Z <= 0 {
		return fmt.Errorf("cuboid size must be positive on every axis, got %v", s.Size)
	}
	if err := checkSquareness(s.Squareness); err != nil {
		return err
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Cuboid) debug() (sdf.SDF3, error) {
	return sdf.Box3D(s.Size, 0)
}

// Cylinder is a cylindrical or conical generator along the z axis.
// Either Radius (uniform) or R1/R2 (bottom and top) sets the profile.
// The distance measure is the larger of the normalized axial and
// radial coordinates, so the core surface is the cone itself.
type Cylinder struct {
	Height    float64
	Radius    float64 // uniform radius; exclusive with R1/R2
	R1, R2    float64 // bottom and top radii
	Cutoff    float64
	Influence float64
	Negative  bool
}

func (s Cylinder) radii() (r1, r2 float64) {
	if s.Radius != 0 {
		return s.Radius, s.Radius
	}
	return s.R1, s.R2
}

func (s Cylinder) field(p v3.Vec) float64 {
	r1, r2 := s.radii()
	hl := s.Height / 2
	z := grid.Clamp(p.Z, -hl, hl)
	rz := r1 + (z+hl)*(r2-r1)/s.Height
	radial := math.Hypot(p.X, p.Y)
	rt := 0.0
	switch {
	case rz > 0:
		rt = radial / rz
	case radial > 0:
		rt = math.Inf(1)
	}
	d := math.Max(math.Abs(p.Z)/hl, rt)
	return ballField(d, 1, s.Cutoff, s.Influence, s.Negative)
}

func (s Cylinder) check() error {
	if s.Height <= 0 {
		return fmt.Errorf("cylinder height must be positive, got %v", s.Height)
	}
	if s.Radius != 0 && (s.R1 != 0 || s.R2 != 0) {
		return fmt.Errorf("cylinder radius is exclusive with r1/r2")
	}
	r1, r2 := s.radii()
	if r1 < 0 || r2 < 0 || (r1 == 0 && r2 == 0) {
		return fmt.Errorf("cylinder radii must be positive, got r1=%v r2=%v", r1, r2)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Cylinder) debug() (sdf.SDF3, error) {
	r1, r2 := s.radii()
	return sdf.Cylinder3D(s.Height, math.Max(r1, r2), 0)
}

// Capsule is a capped cylinder along the z axis. Height is the total
// extent including the rounded ends, so it must exceed twice the
// radius. Distance is perpendicular distance to the core segment.
type Capsule struct {
	Height    float64
	Radius    float64
	Cutoff    float64
	Influence float64
	Negative  bool
}

func (s Capsule) field(p v3.Vec) float64 {
	hl := s.Height/2 - s.Radius
	z := grid.Clamp(p.Z, -hl, hl)
	d := v3.Vec{X: p.X, Y: p.Y, Z: p.Z - z}.Length()
	return ballField(d, s.Radius, s.Cutoff, s.Influence, s.Negative)
}

func (s Capsule) check() error {
	if s.Radius <= 0 {
		return fmt.Errorf("capsule radius must be positive, got %v", s.Radius)
	}
	if s.Height <= 2*s.Radius {
		return fmt.Errorf("capsule height must exceed twice the radius, got h=%v r=%v", s.Height, s.Radius)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Capsule) debug() (sdf.SDF3, error) {
	return sdf.Cylinder3D(s.Height, s.Radius, s.Radius)
}

// Connector is a capsule between two explicit endpoints in the
// generator's local frame. Distance is perpendicular distance to the
// segment, so the core surface caps half a sphere beyond each end.
type Connector struct {
	P1, P2    v3.Vec
	Radius    float64
	Cutoff    float64
	Influence float64
	Negative  bool
}

func (s Connector) field(p v3.Vec) float64 {
	seg := s.P2.Sub(s.P1)
	t := grid.Clamp(p.Sub(s.P1).Dot(seg)/seg.Dot(seg), 0, 1)
	d := p.Sub(s.P1.Add(seg.MulScalar(t))).Length()
	return ballField(d, s.Radius, s.Cutoff, s.Influence, s.Negative)
}

func (s Connector) check() error {
	if s.Radius <= 0 {
		return fmt.Errorf("connector radius must be positive, got %v", s.Radius)
	}
	if s.P1 == s.P2 {
		return fmt.Errorf("connector endpoints must differ, got %v twice", s.P1)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Connector) debug() (sdf.SDF3, error) {
	seg := s.P2.Sub(s.P1)
	l := seg.Length()
	sol, err := sdf.Cylinder3D(l+2*s.Radius, s.Radius, s.Radius)
	if err != nil {
		return nil, err
	}
	polar := math.Acos(grid.Clamp(seg.Z/l, -1, 1))
	azimuth := math.Atan2(seg.Y, seg.X)
	mid := s.P1.Add(seg.MulScalar(0.5))
	m := sdf.Translate3d(mid).Mul(sdf.RotateZ(azimuth).Mul(sdf.RotateY(polar)))
	return sdf.Transform3D(sol, m), nil
}

// Torus is a toroidal generator in the xy plane. Distance is
// perpendicular distance to the circle of MajorRadius; the core
// surface is the torus of tube radius MinorRadius around it.
type Torus struct {
	MajorRadius float64
	MinorRadius float64
	Cutoff      float64
	Influence   float64
	Negative    bool
}

func (s Torus) field(p v3.Vec) float64 {
	d := math.Hypot(math.Hypot(p.X, p.Y)-s.MajorRadius, p.Z)
	return ballField(d, s.MinorRadius, s.Cutoff, s.Influence, s.Negative)
}

func (s Torus) check() error {
	if s.MajorRadius <= 0 || s.MinorRadius <= 0 {
		return fmt.Errorf("torus radii must be positive, got major=%v minor=%v", s.MajorRadius, s.MinorRadius)
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Torus) debug() (sdf.SDF3, error) {
	return sdf.Cylinder3D(2*s.MinorRadius, s.MajorRadius+s.MinorRadius, s.MinorRadius)
}

// Octahedron is the taxicab sibling of Cuboid: the distance exponent
// is 2/(1+squareness), reaching the taxicab metric at squareness 1.
// The zero value defaults to 0.5.
type Octahedron struct {
	Size       v3.Vec
	Squareness float64
	Cutoff     float64
	Influence  float64
	Negative   bool
}

func (s Octahedron) field(p v3.Vec) float64 {
	xp := 2 / (1 + resolveSquareness(s.Squareness))
	d := pNorm3(2*p.X/s.Size.X, 2*p.Y/s.Size.Y, 2*p.Z/s.Size.Z, xp)
	return ballField(d, 1, s.Cutoff, s.Influence, s.Negative)
}

func (s Octahedron) check() error {
	if s.Size.X <= 0 || s.Size.Y <= 0 || s.Size.Z <= 0 {
		return fmt.Errorf("octahedron size must be positive on every axis, got %v", s.Size)
	}
	if err := checkSquareness(s.Squareness); err != nil {
		return err
	}
	return checkBlend(s.Cutoff, s.Influence)
}

func (s Octahedron) debug() (sdf.SDF3, error) {
	return sdf.Box3D(s.Size, 0)
}

// Custom wraps an arbitrary field function as a generator. The
// function is evaluated in the generator's local frame and used
// as-is: cutoff, influence and sign are the function's own business.
// Debug optionally supplies a solid for DebugShapes.
type Custom struct {
	Func  grid.Field3
	Debug sdf.SDF3
}

func (s Custom) field(p v3.Vec) float64 {
	return s.Func(p)
}

func (s Custom) check() error {
	if s.Func == nil {
		return fmt.Errorf("custom generator needs a field function")
	}
	return nil
}

func (s Custom) debug() (sdf.SDF3, error) {
	return s.Debug, nil
}

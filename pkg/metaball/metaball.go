// Package metaball composes scalar fields from lists of field
// generators. A specification is a nested list of (transform, shape)
// items; flattening it yields one generator per shape with an
// accumulated transform, and the composed field at a point is the sum
// of every generator's contribution evaluated in its local frame.
// Surfaces are conventionally extracted at field value 1.
package metaball

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/grid"
)

// fieldLimit is the finite sentinel returned where a generator's
// distance measure vanishes, matching the sampler's clamp limit.
const fieldLimit = grid.ClampLimit

// Spec is a metaball specification: a list of items evaluated in
// order. Items may nest further specs as groups, with transforms
// composing down the tree.
type Spec []Item

// Item is one entry of a specification. Exactly one of Shape or Group
// must be set. A zero Transform means identity.
type Item struct {
	Transform sdf.M44
	Shape     Shape
	Group     Spec
}

// SpecError reports a malformed specification item. Index is the
// item's position in depth-first traversal order of the whole
// specification, counting group items themselves.
type SpecError struct {
	Index   int
	Message string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("metaball: item %d: %s", e.Index, e.Message)
}

// generator is one flattened (transform, shape) pair. Sample points
// map into the shape's local frame through inv.
type generator struct {
	fwd   sdf.M44
	inv   sdf.M44
	shape Shape
}

// Field validates and flattens the specification and returns the
// composed scalar field. Values are unbounded near generator centers;
// the grid sampler clamps them to ±grid.ClampLimit.
func (s Spec) Field() (grid.Field3, error) {
	gens, err := s.flatten()
	if err != nil {
		return nil, err
	}
	return func(p v3.Vec) float64 {
		total := 0.0
		for i := range gens {
			total += gens[i].shape.field(gens[i].inv.MulPosition(p))
		}
		return total
	}, nil
}

// flatten unwinds nested groups into a flat generator list using an
// explicit worklist, composing parent and child transforms as it
// descends. All validation happens here, before any sampling.
func (s Spec) flatten() ([]generator, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("metaball: specification is empty")
	}
	type frame struct {
		items Spec
		next  int
		acc   sdf.M44
	}
	var gens []generator
	stack := []frame{{items: s, acc: sdf.Identity3d()}}
	idx := 0
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next >= len(f.items) {
			stack = stack[:len(stack)-1]
			continue
		}
		it := f.items[f.next]
		f.next++
		acc := f.acc

		t := it.Transform
		if t == (sdf.M44{}) {
			t = sdf.Identity3d()
		} else if !roundTrips44(t) {
			return nil, &SpecError{idx, "transform is not an invertible affine matrix"}
		}
		acc = acc.Mul(t)

		switch {
		case it.Shape != nil && it.Group != nil:
			return nil, &SpecError{idx, "item carries both a shape and a group"}
		case it.Shape != nil:
			if err := it.Shape.check(); err != nil {
				return nil, &SpecError{idx, err.Error()}
			}
			gens = append(gens, generator{fwd: acc, inv: acc.Inverse(), shape: it.Shape})
		case it.Group != nil:
			if len(it.Group) == 0 {
				return nil, &SpecError{idx, "group is empty"}
			}
			stack = append(stack, frame{items: it.Group, acc: acc})
		default:
			return nil, &SpecError{idx, "item needs a shape or a group"}
		}
		idx++
	}
	return gens, nil
}

// affineProbes are the points a transform must round-trip through its
// inverse to count as affine and invertible.
var affineProbes = [4]v3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}

// roundTrips44 probes m behaviorally: mapping a point forward and back
// must land where it started. Singular and projective matrices fail.
func roundTrips44(m sdf.M44) bool {
	inv := m.Inverse()
	for _, p := range affineProbes {
		fp := m.MulPosition(p)
		q := inv.MulPosition(fp)
		tol := 1e-9 * (1 + fp.Length())
		// the negated compare also rejects NaN
		if !(q.Sub(p).Length() <= tol) {
			return false
		}
	}
	return true
}

// --- field formula helpers ---

// suppress is the smooth cutoff envelope: 1 at d=0, decreasing to 0 at
// d=cutoff, exactly 0 beyond.
func suppress(d, cutoff float64) float64 {
	if math.IsInf(cutoff, 1) {
		return 1
	}
	if d >= cutoff {
		return 0
	}
	x := d / cutoff
	x2 := x * x
	return (1 + math.Cos(math.Pi*x2*x2)) / 2
}

// ballField is the shared generator formula
// sign * suppress(d, cutoff) * (core/d)^(1/influence).
// Zero cutoff and influence select the defaults (unlimited, 1). A
// vanishing distance measure yields the finite sentinel.
func ballField(d, core, cutoff, influence float64, negative bool) float64 {
	sign := 1.0
	if negative {
		sign = -1
	}
	if d == 0 {
		return sign * fieldLimit
	}
	if cutoff == 0 {
		cutoff = math.Inf(1)
	}
	if influence == 0 {
		influence = 1
	}
	env := suppress(d, cutoff)
	if env == 0 {
		return 0
	}
	return sign * env * math.Pow(core/d, 1/influence)
}

// checkBlend validates the parameters every generator shares. Zero
// values are the unset defaults and pass.
func checkBlend(cutoff, influence float64) error {
	if cutoff < 0 || math.IsNaN(cutoff) {
		return fmt.Errorf("cutoff must be positive, got %v", cutoff)
	}
	if influence < 0 || math.IsNaN(influence) {
		return fmt.Errorf("influence must be positive, got %v", influence)
	}
	return nil
}

// checkSquareness validates a corner profile parameter.
func checkSquareness(s float64) error {
	if s < 0 || s > 1 || math.IsNaN(s) {
		return fmt.Errorf("squareness must be between 0 and 1, got %v", s)
	}
	return nil
}

// resolveSquareness applies the 0.5 default for the zero value.
func resolveSquareness(s float64) float64 {
	if s == 0 {
		return 0.5
	}
	return s
}

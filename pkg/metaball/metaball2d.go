package metaball

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/isoform/pkg/grid"
)

// Spec2 is a planar metaball specification, the 2D analogue of Spec.
type Spec2 []Item2

// Item2 is one entry of a planar specification. Exactly one of Shape
// or Group must be set. A zero Transform means identity.
type Item2 struct {
	Transform sdf.M33
	Shape     Shape2
	Group     Spec2
}

// generator2 is one flattened planar (transform, shape) pair.
type generator2 struct {
	fwd   sdf.M33
	inv   sdf.M33
	shape Shape2
}

// Field validates and flattens the specification and returns the
// composed planar scalar field.
func (s Spec2) Field() (grid.Field2, error) {
	gens, err := s.flatten()
	if err != nil {
		return nil, err
	}
	return func(p v2.Vec) float64 {
		total := 0.0
		for i := range gens {
			total += gens[i].shape.field(gens[i].inv.MulPosition(p))
		}
		return total
	}, nil
}

func (s Spec2) flatten() ([]generator2, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("metaball: specification is empty")
	}
	type frame struct {
		items Spec2
		next  int
		acc   sdf.M33
	}
	var gens []generator2
	stack := []frame{{items: s, acc: sdf.Identity2d()}}
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
		if t == (sdf.M33{}) {
			t = sdf.Identity2d()
		} else if !roundTrips33(t) {
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
			gens = append(gens, generator2{fwd: acc, inv: acc.Inverse(), shape: it.Shape})
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

var affineProbes2 = [3]v2.Vec{{}, {X: 1}, {Y: 1}}

func roundTrips33(m sdf.M33) bool {
	inv := m.Inverse()
	for _, p := range affineProbes2 {
		fp := m.MulPosition(p)
		q := inv.MulPosition(fp)
		tol := 1e-9 * (1 + fp.Length())
		if !(q.Sub(p).Length() <= tol) {
			return false
		}
	}
	return true
}

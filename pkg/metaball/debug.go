package metaball

import "github.com/deadsy/sdfx/sdf"

// DebugShapes returns one solid per flattened generator, approximating
// its influence core and placed by the generator's accumulated
// transform. Shapes without a debug form (Custom with no Debug solid)
// are skipped. The solids preview where each generator acts before
// paying for a full extraction.
func DebugShapes(spec Spec) ([]sdf.SDF3, error) {
	gens, err := spec.flatten()
	if err != nil {
		return nil, err
	}
	sols := make([]sdf.SDF3, 0, len(gens))
	for i := range gens {
		sol, err := gens[i].shape.debug()
		if err != nil {
			return nil, err
		}
		if sol == nil {
			continue
		}
		sols = append(sols, sdf.Transform3D(sol, gens[i].fwd))
	}
	return sols, nil
}

// DebugShapes2D is the planar analogue of DebugShapes.
func DebugShapes2D(spec Spec2) ([]sdf.SDF2, error) {
	gens, err := spec.flatten()
	if err != nil {
		return nil, err
	}
	sols := make([]sdf.SDF2, 0, len(gens))
	for i := range gens {
		sol, err := gens[i].shape.debug()
		if err != nil {
			return nil, err
		}
		if sol == nil {
			continue
		}
		sols = append(sols, sdf.Transform2D(sol, gens[i].fwd))
	}
	return sols, nil
}

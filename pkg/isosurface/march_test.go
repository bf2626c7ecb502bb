package isosurface_test

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/grid"
	"github.com/chazu/isoform/pkg/isosurface"
	"github.com/chazu/isoform/pkg/mesh"
)

func cube(h float64) sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{X: -h, Y: -h, Z: -h}, Max: v3.Vec{X: h, Y: h, Z: h}}
}

// radiusSq is the squared-distance field whose level sets are spheres.
func radiusSq(p v3.Vec) float64 {
	return p.X*p.X + p.Y*p.Y + p.Z*p.Z
}

// plateau ramps from 0 to 1 over x in [0,1]; its 0.5 level set is the
// plane x=0.5 and interpolation on it is exact, so capped volumes are
// exact too.
func plateau(p v3.Vec) float64 {
	return grid.Clamp(p.X, 0, 1)
}

func extract(t *testing.T, f grid.Field3, iso isosurface.Isovalue, bounds sdf.Box3, opts *isosurface.Options) []mesh.Triangle {
	t.Helper()
	tris, err := isosurface.Isosurface(f, iso, bounds, opts)
	if err != nil {
		t.Fatalf("Isosurface() error: %v", err)
	}
	return tris
}

func checkClosed(t *testing.T, tris []mesh.Triangle) {
	t.Helper()
	if n := mesh.BoundaryEdges(tris); n != 0 {
		t.Errorf("BoundaryEdges() = %d, want 0", n)
	}
	if !mesh.IsManifold(tris) {
		t.Error("IsManifold() = false, want a watertight mesh")
	}
}

func boolp(b bool) *bool { return &b }

// TestSphereRecovery is the concrete acceptance scenario: the squared
// radius field below 100 over a box containing the whole ball yields a
// closed sphere of radius 10.
func TestSphereRecovery(t *testing.T) {
	tris := extract(t, radiusSq, isosurface.Range(math.Inf(-1), 100), cube(11),
		&isosurface.Options{CellSize: isosurface.Cell(1)})

	if len(tris) < 2000 || len(tris) > 6000 {
		t.Errorf("extracted %d triangles, want a few thousand", len(tris))
	}
	checkClosed(t, tris)

	vol := mesh.Volume(tris)
	want := 4.0 / 3 * math.Pi * 1000
	if math.Abs(vol-want) > 0.02*want {
		t.Errorf("Volume() = %v, want within 2%% of %v", vol, want)
	}
	for _, tri := range tris {
		for _, v := range tri {
			if r := v.Length(); math.Abs(r-10) >= 1 {
				t.Fatalf("vertex %v at radius %v, want within one cell of 10", v, r)
			}
		}
	}
}

// TestSphereClipped shrinks the box inside the ball: closed extraction
// caps the clipped faces watertight, open extraction leaves the holes.
func TestSphereClipped(t *testing.T) {
	iso := isosurface.Range(math.Inf(-1), 100)
	opts := &isosurface.Options{CellSize: isosurface.Cell(1)}
	tris := extract(t, radiusSq, iso, cube(8), opts)
	checkClosed(t, tris)
	vol := mesh.Volume(tris)
	if vol < 3400 || vol > 3550 {
		t.Errorf("clipped Volume() = %v, want the ball-box intersection near 3472", vol)
	}

	open := extract(t, radiusSq, iso, cube(8),
		&isosurface.Options{CellSize: isosurface.Cell(1), Closed: boolp(false)})
	if n := mesh.BoundaryEdges(open); n == 0 {
		t.Error("open extraction has no boundary edges, want holes at the box faces")
	}
	if mesh.IsManifold(open) {
		t.Error("IsManifold() = true for open extraction, want false")
	}
}

// TestShellRange extracts a finite band, yielding two concentric walls.
func TestShellRange(t *testing.T) {
	tris := extract(t, radiusSq, isosurface.Range(25, 100), cube(11),
		&isosurface.Options{CellSize: isosurface.Cell(1)})
	checkClosed(t, tris)

	vol := mesh.Volume(tris)
	want := 4.0 / 3 * math.Pi * (1000 - 125)
	if math.Abs(vol-want) > 0.02*want {
		t.Errorf("shell Volume() = %v, want within 2%% of %v", vol, want)
	}
	for _, tri := range tris {
		for _, v := range tri {
			r := v.Length()
			inner := r > 4 && r < 5.9
			outer := r > 9.1 && r < 10+1e-9
			if !inner && !outer {
				t.Fatalf("vertex at radius %v, want near 5 or near 10", r)
			}
		}
	}
}

// TestRangeDuality drops the upper bound: [25, +Inf) keeps everything
// outside the inner sphere, so the result is the box minus the ball.
func TestRangeDuality(t *testing.T) {
	tris := extract(t, radiusSq, isosurface.Range(25, math.Inf(1)), cube(11),
		&isosurface.Options{CellSize: isosurface.Cell(1)})
	checkClosed(t, tris)

	vol := mesh.Volume(tris)
	want := 22*22*22 - 4.0/3*math.Pi*125
	if math.Abs(vol-want) > 0.01*want {
		t.Errorf("Volume() = %v, want within 1%% of %v", vol, want)
	}
	maxX := math.Inf(-1)
	for _, tri := range tris {
		for _, v := range tri {
			maxX = math.Max(maxX, v.X)
		}
	}
	if math.Abs(maxX-11) > 1e-12 {
		t.Errorf("max vertex x = %v, want caps on the box face at 11", maxX)
	}
}

// TestPlateauExactVolume caps a half-space: with a piecewise-linear
// field the interpolated plane and the caps are exact, so the volume
// is exact, not approximate.
func TestPlateauExactVolume(t *testing.T) {
	tris := extract(t, plateau, isosurface.Value(0.5), cube(2),
		&isosurface.Options{CellSize: isosurface.Cell(1)})
	checkClosed(t, tris)
	if len(tris) != 128 {
		t.Errorf("extracted %d triangles, want 128", len(tris))
	}
	if vol := mesh.Volume(tris); math.Abs(vol-24) > 1e-9 {
		t.Errorf("Volume() = %v, want exactly 24", vol)
	}
}

func TestPlateauOpenSheet(t *testing.T) {
	tris := extract(t, plateau, isosurface.Value(0.5), cube(2),
		&isosurface.Options{CellSize: isosurface.Cell(1), Closed: boolp(false)})
	if len(tris) != 32 {
		t.Errorf("extracted %d triangles, want the bare 4x4 crossing sheet of 32", len(tris))
	}
	if n := mesh.BoundaryEdges(tris); n != 16 {
		t.Errorf("BoundaryEdges() = %d, want the sheet perimeter of 16", n)
	}
	if mesh.IsManifold(tris) {
		t.Error("IsManifold() = true for an open sheet, want false")
	}
}

func TestReverseWinding(t *testing.T) {
	tris := extract(t, plateau, isosurface.Value(0.5), cube(2),
		&isosurface.Options{CellSize: isosurface.Cell(1), Reverse: true})
	checkClosed(t, tris)
	if vol := mesh.Volume(tris); math.Abs(vol+24) > 1e-9 {
		t.Errorf("reversed Volume() = %v, want exactly -24", vol)
	}
}

// TestGrownBounds uses a box that is not a whole multiple of the cell:
// the default layout grows it symmetrically and the geometry must stay
// closed and accurate.
func TestGrownBounds(t *testing.T) {
	tris := extract(t, radiusSq, isosurface.Range(math.Inf(-1), 100), cube(10.2),
		&isosurface.Options{CellSize: isosurface.Cell(1)})
	checkClosed(t, tris)
	vol := mesh.Volume(tris)
	want := 4.0 / 3 * math.Pi * 1000
	if math.Abs(vol-want) > 0.02*want {
		t.Errorf("Volume() = %v, want within 2%% of %v", vol, want)
	}
}

package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/contour"
	"github.com/chazu/isoform/pkg/isosurface"
	"github.com/chazu/isoform/pkg/mesh"
	"github.com/chazu/isoform/pkg/metaball"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 3)`,
			expect: `(sphere "__kw_radius" 3)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cuboid :size 4 :squareness 0.5)`,
			expect: `(cuboid "__kw_size" 4 "__kw_squareness" 0.5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def wall-thickness 2)`,
			expect: `(def wall_thickness 2)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -4 0 0)`,
			expect: `(vec3 -4 0 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:major-radius`,
			expect: `"__kw_major-radius"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Simple surface test
// ---------------------------------------------------------------------------

func TestSimpleSphereSurface(t *testing.T) {
	eng := NewEngine()

	source := `
(surface (sphere :radius 3) :size 20 :cell 0.5 :name "ball")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if script == nil {
		t.Fatal("expected non-nil script")
	}
	if script.JobCount() != 1 {
		t.Fatalf("expected 1 job, got %d", script.JobCount())
	}

	job := script.Surface("ball")
	if job == nil {
		t.Fatal("expected job named 'ball'")
	}
	if len(job.Spec) != 1 {
		t.Fatalf("expected 1 spec item, got %d", len(job.Spec))
	}

	ball, ok := job.Spec[0].Shape.(metaball.Sphere)
	if !ok {
		t.Fatalf("expected Sphere, got %T", job.Spec[0].Shape)
	}
	if ball.Radius != 3 {
		t.Errorf("expected radius=3, got %f", ball.Radius)
	}
	if job.Spec[0].Transform != (sdf.M44{}) {
		t.Error("expected zero transform for unplaced shape")
	}

	// Default isovalue is 1 with no upper bound.
	if job.Iso.Min != 1 {
		t.Errorf("expected isovalue min=1, got %f", job.Iso.Min)
	}
	if !math.IsInf(job.Iso.Max, 1) {
		t.Errorf("expected isovalue max=+inf, got %f", job.Iso.Max)
	}

	// :size 20 is an origin-centered cube.
	if job.Bounds.Min != (v3.Vec{X: -10, Y: -10, Z: -10}) {
		t.Errorf("expected bounds min (-10,-10,-10), got %v", job.Bounds.Min)
	}
	if job.Bounds.Max != (v3.Vec{X: 10, Y: 10, Z: 10}) {
		t.Errorf("expected bounds max (10,10,10), got %v", job.Bounds.Max)
	}
	if job.Opts.CellSize != isosurface.Cell(0.5) {
		t.Errorf("expected uniform cell 0.5, got %v", job.Opts.CellSize)
	}
}

// ---------------------------------------------------------------------------
// Variable reference test
// ---------------------------------------------------------------------------

func TestVariableReference(t *testing.T) {
	eng := NewEngine()

	source := `
(def r 4)
(surface (sphere :radius r) :size 20)
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("surface-1")
	if job == nil {
		t.Fatal("expected job named 'surface-1'")
	}
	ball, ok := job.Spec[0].Shape.(metaball.Sphere)
	if !ok {
		t.Fatalf("expected Sphere, got %T", job.Spec[0].Shape)
	}
	if ball.Radius != 4 {
		t.Errorf("expected radius=4 (from variable), got %f", ball.Radius)
	}
}

// ---------------------------------------------------------------------------
// Blend with placement test
// ---------------------------------------------------------------------------

func TestBlendPlacesShapes(t *testing.T) {
	eng := NewEngine()

	source := `
(surface
  (blend
    (sphere :radius 3 :at (vec3 4 0 0))
    (sphere :radius 3 :at (vec3 -4 0 0) :influence 2))
  :size 20 :cell (vec3 0.5 0.5 1) :name "pair")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("pair")
	if job == nil {
		t.Fatal("expected job named 'pair'")
	}
	if len(job.Spec) != 2 {
		t.Fatalf("expected 2 spec items, got %d", len(job.Spec))
	}

	if job.Spec[0].Transform != sdf.Translate3d(v3.Vec{X: 4}) {
		t.Errorf("first sphere: expected translation to (4,0,0), got %v", job.Spec[0].Transform)
	}
	if job.Spec[1].Transform != sdf.Translate3d(v3.Vec{X: -4}) {
		t.Errorf("second sphere: expected translation to (-4,0,0), got %v", job.Spec[1].Transform)
	}

	second, ok := job.Spec[1].Shape.(metaball.Sphere)
	if !ok {
		t.Fatalf("expected Sphere, got %T", job.Spec[1].Shape)
	}
	if second.Influence != 2 {
		t.Errorf("expected influence=2, got %f", second.Influence)
	}

	if job.Opts.CellSize != (v3.Vec{X: 0.5, Y: 0.5, Z: 1}) {
		t.Errorf("expected anisotropic cell (0.5,0.5,1), got %v", job.Opts.CellSize)
	}
}

// ---------------------------------------------------------------------------
// Negative shape test
// ---------------------------------------------------------------------------

func TestNegativeShape(t *testing.T) {
	eng := NewEngine()

	source := `
(surface
  (blend
    (sphere :radius 6)
    (cylinder :height 20 :radius 2 :negative true :cutoff 5))
  :size 16 :name "drilled")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("drilled")
	if job == nil {
		t.Fatal("expected job named 'drilled'")
	}
	hole, ok := job.Spec[1].Shape.(metaball.Cylinder)
	if !ok {
		t.Fatalf("expected Cylinder, got %T", job.Spec[1].Shape)
	}
	if hole.Height != 20 {
		t.Errorf("expected height=20, got %f", hole.Height)
	}
	if hole.Radius != 2 {
		t.Errorf("expected radius=2, got %f", hole.Radius)
	}
	if !hole.Negative {
		t.Error("expected negative=true")
	}
	if hole.Cutoff != 5 {
		t.Errorf("expected cutoff=5, got %f", hole.Cutoff)
	}
}

// ---------------------------------------------------------------------------
// Group transform test
// ---------------------------------------------------------------------------

func TestGroupComposesTransforms(t *testing.T) {
	eng := NewEngine()

	source := `
(surface
  (blend
    (group :at (vec3 0 0 5)
      (sphere :radius 2)
      (sphere :radius 1 :at (vec3 3 0 0))))
  :size 20 :name "cluster")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("cluster")
	if job == nil {
		t.Fatal("expected job named 'cluster'")
	}
	if len(job.Spec) != 1 {
		t.Fatalf("expected 1 top-level item, got %d", len(job.Spec))
	}

	grp := job.Spec[0]
	if grp.Shape != nil {
		t.Error("group item should not carry a shape")
	}
	if len(grp.Group) != 2 {
		t.Fatalf("expected 2 group children, got %d", len(grp.Group))
	}
	if grp.Transform != sdf.Translate3d(v3.Vec{Z: 5}) {
		t.Errorf("expected group translation to (0,0,5), got %v", grp.Transform)
	}
	if grp.Group[0].Transform != (sdf.M44{}) {
		t.Error("unplaced child should have zero transform")
	}
	if grp.Group[1].Transform != sdf.Translate3d(v3.Vec{X: 3}) {
		t.Errorf("expected child translation to (3,0,0), got %v", grp.Group[1].Transform)
	}
}

// ---------------------------------------------------------------------------
// Rotation placement test
// ---------------------------------------------------------------------------

func TestRotatePlacement(t *testing.T) {
	eng := NewEngine()

	source := `
(surface
  (blend
    (cuboid :size (vec3 8 2 2) :squareness 1 :rotate (vec3 0 0 90))
    (sphere :radius 1 :at (vec3 5 0 0) :rotate (vec3 0 0 90)))
  :size 20 :name "bar")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("bar")
	if job == nil {
		t.Fatal("expected job named 'bar'")
	}

	slab, ok := job.Spec[0].Shape.(metaball.Cuboid)
	if !ok {
		t.Fatalf("expected Cuboid, got %T", job.Spec[0].Shape)
	}
	if slab.Size != (v3.Vec{X: 8, Y: 2, Z: 2}) {
		t.Errorf("expected size (8,2,2), got %v", slab.Size)
	}
	if slab.Squareness != 1 {
		t.Errorf("expected squareness=1, got %f", slab.Squareness)
	}

	// Rotating 90 degrees about z maps +x to +y.
	got := job.Spec[0].Transform.MulPosition(v3.Vec{X: 1})
	want := v3.Vec{Y: 1}
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("rotated probe: expected %v, got %v", want, got)
	}

	// Rotation applies before translation.
	got = job.Spec[1].Transform.MulPosition(v3.Vec{X: 1})
	want = v3.Vec{X: 5, Y: 1}
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("rotated+translated probe: expected %v, got %v", want, got)
	}
}

// ---------------------------------------------------------------------------
// Isovalue band test
// ---------------------------------------------------------------------------

func TestBandIsovalue(t *testing.T) {
	eng := NewEngine()

	source := `
(surface (sphere :radius 3) :size 10 :isovalue (band 0.5 1.5) :name "shell")
(surface (sphere :radius 3) :size 10 :isovalue 25 :name "tight")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	shell := script.Surface("shell")
	if shell == nil {
		t.Fatal("expected job named 'shell'")
	}
	if shell.Iso != isosurface.Range(0.5, 1.5) {
		t.Errorf("expected band [0.5, 1.5), got %+v", shell.Iso)
	}

	tight := script.Surface("tight")
	if tight == nil {
		t.Fatal("expected job named 'tight'")
	}
	if tight.Iso != isosurface.Value(25) {
		t.Errorf("expected threshold 25, got %+v", tight.Iso)
	}
}

// ---------------------------------------------------------------------------
// Contour job test
// ---------------------------------------------------------------------------

func TestContourJob(t *testing.T) {
	eng := NewEngine()

	source := `
(contour
  (blend
    (circle :radius 3 :at (vec2 4 0))
    (circle :radius 3 :at (vec2 -4 0)))
  :size 22 :pixel 0.25 :name "dumbbell")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if len(script.Contours) != 1 {
		t.Fatalf("expected 1 contour job, got %d", len(script.Contours))
	}

	job := script.Contour("dumbbell")
	if job == nil {
		t.Fatal("expected job named 'dumbbell'")
	}
	if len(job.Spec) != 2 {
		t.Fatalf("expected 2 spec items, got %d", len(job.Spec))
	}
	if job.Spec[0].Transform != sdf.Translate2d(v2.Vec{X: 4}) {
		t.Errorf("first circle: expected translation to (4,0), got %v", job.Spec[0].Transform)
	}
	if job.Bounds.Min != (v2.Vec{X: -11, Y: -11}) {
		t.Errorf("expected bounds min (-11,-11), got %v", job.Bounds.Min)
	}
	if job.Opts.PixelSize != contour.Pixel(0.25) {
		t.Errorf("expected uniform pixel 0.25, got %v", job.Opts.PixelSize)
	}
}

// ---------------------------------------------------------------------------
// Contour options test
// ---------------------------------------------------------------------------

func TestContourOptions(t *testing.T) {
	eng := NewEngine()

	source := `
(contour (ring :major-radius 5 :minor-radius 1)
  :min (vec2 0 0) :max (vec2 8 8)
  :pixels 5000 :centers true :closed false :reverse true :exact-bounds true
  :isovalue (band 1 3) :name "quadrant")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Contour("quadrant")
	if job == nil {
		t.Fatal("expected job named 'quadrant'")
	}

	donut, ok := job.Spec[0].Shape.(metaball.Ring)
	if !ok {
		t.Fatalf("expected Ring, got %T", job.Spec[0].Shape)
	}
	if donut.MajorRadius != 5 || donut.MinorRadius != 1 {
		t.Errorf("expected radii 5/1, got %f/%f", donut.MajorRadius, donut.MinorRadius)
	}

	if job.Bounds.Min != (v2.Vec{}) {
		t.Errorf("expected bounds min (0,0), got %v", job.Bounds.Min)
	}
	if job.Bounds.Max != (v2.Vec{X: 8, Y: 8}) {
		t.Errorf("expected bounds max (8,8), got %v", job.Bounds.Max)
	}
	if job.Opts.PixelCount != 5000 {
		t.Errorf("expected pixels=5000, got %d", job.Opts.PixelCount)
	}
	if !job.Opts.UseCenters {
		t.Error("expected centers=true")
	}
	if job.Opts.Closed == nil || *job.Opts.Closed {
		t.Error("expected closed=false")
	}
	if !job.Opts.Reverse {
		t.Error("expected reverse=true")
	}
	if !job.Opts.ExactBounds {
		t.Error("expected exact-bounds=true")
	}
	if job.Iso != contour.Range(1, 3) {
		t.Errorf("expected band [1, 3), got %+v", job.Iso)
	}
}

// ---------------------------------------------------------------------------
// Surface options test
// ---------------------------------------------------------------------------

func TestSurfaceOptions(t *testing.T) {
	eng := NewEngine()

	source := `
(surface (torus :major-radius 6 :minor-radius 2)
  :min (vec3 0 -9 -3) :max (vec3 9 9 3)
  :cells 50000 :closed false :reverse true :exact-bounds true
  :name "half")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("half")
	if job == nil {
		t.Fatal("expected job named 'half'")
	}
	if job.Bounds.Min != (v3.Vec{X: 0, Y: -9, Z: -3}) {
		t.Errorf("expected bounds min (0,-9,-3), got %v", job.Bounds.Min)
	}
	if job.Bounds.Max != (v3.Vec{X: 9, Y: 9, Z: 3}) {
		t.Errorf("expected bounds max (9,9,3), got %v", job.Bounds.Max)
	}
	if job.Opts.VoxelCount != 50000 {
		t.Errorf("expected cells=50000, got %d", job.Opts.VoxelCount)
	}
	if job.Opts.Closed == nil || *job.Opts.Closed {
		t.Error("expected closed=false")
	}
	if !job.Opts.Reverse {
		t.Error("expected reverse=true")
	}
	if !job.Opts.ExactBounds {
		t.Error("expected exact-bounds=true")
	}
}

// ---------------------------------------------------------------------------
// Spatial shape arguments test
// ---------------------------------------------------------------------------

func TestShapeArguments(t *testing.T) {
	eng := NewEngine()

	source := `
(surface
  (blend
    (capsule :height 10 :radius 2)
    (connector :from (vec3 0 0 0) :to (vec3 5 5 5) :radius 1)
    (octahedron :size 6 :squareness 0.8)
    (cylinder :height 8 :r1 3 :r2 1))
  :size 30 :name "menagerie")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("menagerie")
	if job == nil {
		t.Fatal("expected job named 'menagerie'")
	}
	if len(job.Spec) != 4 {
		t.Fatalf("expected 4 spec items, got %d", len(job.Spec))
	}

	pill, ok := job.Spec[0].Shape.(metaball.Capsule)
	if !ok {
		t.Fatalf("expected Capsule, got %T", job.Spec[0].Shape)
	}
	if pill.Height != 10 || pill.Radius != 2 {
		t.Errorf("capsule: expected 10/2, got %f/%f", pill.Height, pill.Radius)
	}

	rod, ok := job.Spec[1].Shape.(metaball.Connector)
	if !ok {
		t.Fatalf("expected Connector, got %T", job.Spec[1].Shape)
	}
	if rod.P1 != (v3.Vec{}) {
		t.Errorf("connector: expected from (0,0,0), got %v", rod.P1)
	}
	if rod.P2 != (v3.Vec{X: 5, Y: 5, Z: 5}) {
		t.Errorf("connector: expected to (5,5,5), got %v", rod.P2)
	}
	if rod.Radius != 1 {
		t.Errorf("connector: expected radius=1, got %f", rod.Radius)
	}

	gem, ok := job.Spec[2].Shape.(metaball.Octahedron)
	if !ok {
		t.Fatalf("expected Octahedron, got %T", job.Spec[2].Shape)
	}
	if gem.Size != (v3.Vec{X: 6, Y: 6, Z: 6}) {
		t.Errorf("octahedron: expected uniform size 6, got %v", gem.Size)
	}
	if gem.Squareness != 0.8 {
		t.Errorf("octahedron: expected squareness=0.8, got %f", gem.Squareness)
	}

	cone, ok := job.Spec[3].Shape.(metaball.Cylinder)
	if !ok {
		t.Fatalf("expected Cylinder, got %T", job.Spec[3].Shape)
	}
	if cone.R1 != 3 || cone.R2 != 1 {
		t.Errorf("cone: expected r1=3 r2=1, got %f/%f", cone.R1, cone.R2)
	}
	if cone.Radius != 0 {
		t.Errorf("cone: expected unset radius, got %f", cone.Radius)
	}
}

// ---------------------------------------------------------------------------
// Planar shape arguments test
// ---------------------------------------------------------------------------

func TestPlanarShapeArguments(t *testing.T) {
	eng := NewEngine()

	source := `
(contour
  (blend
    (rect :size (vec2 6 4) :squareness 0.3)
    (group :at (vec2 0 5)
      (stadium :height 8 :radius 2 :rotate 90)))
  :size 20 :name "plate")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Contour("plate")
	if job == nil {
		t.Fatal("expected job named 'plate'")
	}

	panel, ok := job.Spec[0].Shape.(metaball.Rect)
	if !ok {
		t.Fatalf("expected Rect, got %T", job.Spec[0].Shape)
	}
	if panel.Size != (v2.Vec{X: 6, Y: 4}) {
		t.Errorf("rect: expected size (6,4), got %v", panel.Size)
	}
	if panel.Squareness != 0.3 {
		t.Errorf("rect: expected squareness=0.3, got %f", panel.Squareness)
	}

	grp := job.Spec[1]
	if len(grp.Group) != 1 {
		t.Fatalf("expected 1 group child, got %d", len(grp.Group))
	}
	if grp.Transform != sdf.Translate2d(v2.Vec{Y: 5}) {
		t.Errorf("expected group translation to (0,5), got %v", grp.Transform)
	}

	pill, ok := grp.Group[0].Shape.(metaball.Stadium)
	if !ok {
		t.Fatalf("expected Stadium, got %T", grp.Group[0].Shape)
	}
	if pill.Height != 8 || pill.Radius != 2 {
		t.Errorf("stadium: expected 8/2, got %f/%f", pill.Height, pill.Radius)
	}

	// Rotating 90 degrees counterclockwise maps +x to +y.
	got := grp.Group[0].Transform.MulPosition(v2.Vec{X: 1})
	want := v2.Vec{Y: 1}
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("rotated probe: expected %v, got %v", want, got)
	}
}

// ---------------------------------------------------------------------------
// Default job names test
// ---------------------------------------------------------------------------

func TestDefaultJobNames(t *testing.T) {
	eng := NewEngine()

	source := `
(surface (sphere :radius 1) :size 6)
(surface (sphere :radius 2) :size 8)
(contour (circle :radius 1) :size 6)
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	if script.Surface("surface-1") == nil {
		t.Error("expected job named 'surface-1'")
	}
	if script.Surface("surface-2") == nil {
		t.Error("expected job named 'surface-2'")
	}
	if script.Contour("contour-1") == nil {
		t.Error("expected job named 'contour-1'")
	}
}

// ---------------------------------------------------------------------------
// Declaration error tests
// ---------------------------------------------------------------------------

func TestJobDeclarationErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "missing spec",
			source: `(surface :size 10)`,
			want:   "requires a shape",
		},
		{
			name:   "missing bounds",
			source: `(surface (sphere :radius 1))`,
			want:   "bounds required",
		},
		{
			name:   "size with corners",
			source: `(surface (sphere :radius 1) :size 10 :min (vec3 0 0 0) :max (vec3 1 1 1))`,
			want:   "size is exclusive",
		},
		{
			name:   "negative radius",
			source: `(surface (sphere :radius -2) :size 10)`,
			want:   "radius must be positive",
		},
		{
			name:   "cylinder radius conflict",
			source: `(surface (cylinder :height 5 :radius 2 :r1 1 :r2 1) :size 10)`,
			want:   "exclusive with r1/r2",
		},
		{
			name:   "capsule too short",
			source: `(surface (capsule :height 2 :radius 2) :size 10)`,
			want:   "must exceed twice the radius",
		},
		{
			name:   "mixed dimensions",
			source: `(blend (sphere :radius 1) (circle :radius 1))`,
			want:   "cannot mix planar and spatial",
		},
		{
			name:   "planar shape in surface",
			source: `(surface (circle :radius 1) :size 10)`,
			want:   "use contour for planar",
		},
		{
			name:   "spatial shape in contour",
			source: `(contour (sphere :radius 1) :size 10)`,
			want:   "use surface for spatial",
		},
		{
			name:   "empty blend",
			source: `(surface (blend) :size 10)`,
			want:   "specification is empty",
		},
		{
			name:   "empty group",
			source: `(group :at (vec3 0 0 0))`,
			want:   "needs at least one shape",
		},
		{
			name:   "inverted band",
			source: `(surface (sphere :radius 1) :size 10 :isovalue (band 3 1))`,
			want:   "lower bound",
		},
		{
			name:   "bad flag value",
			source: `(surface (sphere :radius 1) :size 10 :closed 5)`,
			want:   "expected true or false",
		},
		{
			name: "duplicate name",
			source: `
(surface (sphere :radius 1) :size 6 :name "x")
(surface (sphere :radius 2) :size 6 :name "x")`,
			want: "duplicate job name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := NewEngine()
			script, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if script != nil {
				t.Fatal("expected nil script on declaration error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected at least one eval error")
			}
			if !hasEvalError(evalErrs, tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, evalErrs)
			}
		})
	}
}

// hasEvalError reports whether any eval error message contains substr.
func hasEvalError(evalErrs []EvalError, substr string) bool {
	for _, e := range evalErrs {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Full script example test
// ---------------------------------------------------------------------------

func TestFullDemoScript(t *testing.T) {
	eng := NewEngine()

	source := `
;; Two-lobe blob with a drilled pocket, a banded shell, and a planar logo.
(def lobe 3)

(surface
  (blend
    (sphere :radius lobe :at (vec3 4 0 0))
    (sphere :radius lobe :at (vec3 -4 0 0))
    (capsule :height 9 :radius 1.2 :rotate (vec3 0 90 0))
    (sphere :radius 1.5 :negative true :cutoff 4 :at (vec3 0 0 2)))
  :size 22
  :cell 0.5
  :name "blob")

(surface
  (torus :major-radius 6 :minor-radius 1.5)
  :size 18
  :cells 40000
  :isovalue (band 1 8)
  :name "shell")

(contour
  (blend
    (circle :radius 4)
    (rect :size (vec2 14 3) :squareness 1 :at (vec2 0 -6)))
  :size 24
  :pixel 0.5
  :closed false
  :name "logo")
`
	script, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if script == nil {
		t.Fatal("expected non-nil script")
	}

	if script.JobCount() != 3 {
		t.Fatalf("expected 3 jobs, got %d", script.JobCount())
	}
	if len(script.Surfaces) != 2 {
		t.Fatalf("expected 2 surface jobs, got %d", len(script.Surfaces))
	}
	if len(script.Contours) != 1 {
		t.Fatalf("expected 1 contour job, got %d", len(script.Contours))
	}

	// Verify the blob.
	blob := script.Surface("blob")
	if blob == nil {
		t.Fatal("missing 'blob' job")
	}
	if len(blob.Spec) != 4 {
		t.Fatalf("blob: expected 4 spec items, got %d", len(blob.Spec))
	}
	if blob.Bounds != isosurface.CubeBounds(22) {
		t.Errorf("blob: expected 22-unit cube bounds, got %v", blob.Bounds)
	}
	if blob.Opts.CellSize != isosurface.Cell(0.5) {
		t.Errorf("blob: expected cell 0.5, got %v", blob.Opts.CellSize)
	}

	lobeBall, ok := blob.Spec[0].Shape.(metaball.Sphere)
	if !ok {
		t.Fatalf("blob: expected Sphere, got %T", blob.Spec[0].Shape)
	}
	if lobeBall.Radius != 3 {
		t.Errorf("blob: expected lobe radius=3 (from variable), got %f", lobeBall.Radius)
	}
	if blob.Spec[0].Transform != sdf.Translate3d(v3.Vec{X: 4}) {
		t.Errorf("blob: expected lobe at (4,0,0), got %v", blob.Spec[0].Transform)
	}

	// The capsule is rotated 90 degrees about y, mapping +z to +x.
	got := blob.Spec[2].Transform.MulPosition(v3.Vec{Z: 1})
	want := v3.Vec{X: 1}
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("blob capsule probe: expected %v, got %v", want, got)
	}

	pocket, ok := blob.Spec[3].Shape.(metaball.Sphere)
	if !ok {
		t.Fatalf("blob: expected Sphere pocket, got %T", blob.Spec[3].Shape)
	}
	if !pocket.Negative {
		t.Error("blob: expected pocket to be negative")
	}
	if pocket.Cutoff != 4 {
		t.Errorf("blob: expected pocket cutoff=4, got %f", pocket.Cutoff)
	}
	if blob.Spec[3].Transform != sdf.Translate3d(v3.Vec{Z: 2}) {
		t.Errorf("blob: expected pocket at (0,0,2), got %v", blob.Spec[3].Transform)
	}

	// Verify the shell.
	shell := script.Surface("shell")
	if shell == nil {
		t.Fatal("missing 'shell' job")
	}
	if shell.Opts.VoxelCount != 40000 {
		t.Errorf("shell: expected cells=40000, got %d", shell.Opts.VoxelCount)
	}
	if shell.Iso != isosurface.Range(1, 8) {
		t.Errorf("shell: expected band [1, 8), got %+v", shell.Iso)
	}

	// Verify the logo.
	logo := script.Contour("logo")
	if logo == nil {
		t.Fatal("missing 'logo' job")
	}
	if len(logo.Spec) != 2 {
		t.Fatalf("logo: expected 2 spec items, got %d", len(logo.Spec))
	}
	if logo.Iso != contour.Value(1) {
		t.Errorf("logo: expected default isovalue 1, got %+v", logo.Iso)
	}
	if logo.Opts.PixelSize != contour.Pixel(0.5) {
		t.Errorf("logo: expected pixel 0.5, got %v", logo.Opts.PixelSize)
	}
	if logo.Opts.Closed == nil || *logo.Opts.Closed {
		t.Error("logo: expected closed=false")
	}

	bar, ok := logo.Spec[1].Shape.(metaball.Rect)
	if !ok {
		t.Fatalf("logo: expected Rect, got %T", logo.Spec[1].Shape)
	}
	if bar.Size != (v2.Vec{X: 14, Y: 3}) {
		t.Errorf("logo: expected bar size (14,3), got %v", bar.Size)
	}
	if logo.Spec[1].Transform != sdf.Translate2d(v2.Vec{Y: -6}) {
		t.Errorf("logo: expected bar at (0,-6), got %v", logo.Spec[1].Transform)
	}
}

// ---------------------------------------------------------------------------
// Empty source produces empty script (regression)
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	eng := NewEngine()
	script, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if script == nil {
		t.Fatal("expected non-nil script")
	}
	if script.JobCount() != 0 {
		t.Errorf("expected empty script, got %d jobs", script.JobCount())
	}
}

// ---------------------------------------------------------------------------
// Plain arithmetic still works (regression)
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	eng := NewEngine()
	script, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if script == nil {
		t.Fatal("expected non-nil script")
	}
}

// ---------------------------------------------------------------------------
// End-to-end extraction through declared jobs
// ---------------------------------------------------------------------------

func TestSurfaceJobExtract(t *testing.T) {
	eng := NewEngine()
	script, evalErrs, err := eng.Evaluate(`(surface (sphere :radius 3) :size 10 :cell 0.5 :name "ball")`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Surface("ball")
	if job == nil {
		t.Fatal("job \"ball\" not found")
	}
	tris, err := job.Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(tris) == 0 {
		t.Fatal("expected triangles, got none")
	}
	if !mesh.IsManifold(tris) {
		t.Errorf("expected watertight mesh, found %d boundary edges", mesh.BoundaryEdges(tris))
	}

	// A lone sphere generator at the default isovalue reproduces its own
	// radius, so the mesh volume should be close to 4/3 pi r^3.
	want := 4.0 / 3.0 * math.Pi * 27
	got := mesh.Volume(tris)
	if math.Abs(got-want)/want > 0.05 {
		t.Errorf("volume = %f, want within 5%% of %f", got, want)
	}
}

func TestContourJobExtract(t *testing.T) {
	eng := NewEngine()
	script, evalErrs, err := eng.Evaluate(`(contour (circle :radius 3) :size 10 :pixel 0.25 :name "disc")`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	job := script.Contour("disc")
	if job == nil {
		t.Fatal("job \"disc\" not found")
	}
	paths, err := job.Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(paths))
	}
	if !paths[0].Closed() {
		t.Error("expected a closed loop")
	}

	// Counterclockwise winding for an outer boundary means positive
	// signed area, close to pi r^2.
	want := math.Pi * 9
	got := paths[0].Area()
	if got <= 0 {
		t.Errorf("area = %f, want positive (counterclockwise)", got)
	}
	if math.Abs(got-want)/want > 0.05 {
		t.Errorf("area = %f, want within 5%% of %f", got, want)
	}
}

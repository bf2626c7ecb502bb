package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/isoform/pkg/contour"
	"github.com/chazu/isoform/pkg/isosurface"
	"github.com/chazu/isoform/pkg/metaball"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: wall-thickness -> wall_thickness
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a spatial vector so it can be passed between builtins.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps a planar vector.
type sexpVec2 struct {
	vec v2.Vec
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpItem wraps one metaball item so shape builtins can hand their
// results to blend, group and surface.
type sexpItem struct {
	item metaball.Item
}

func (it *sexpItem) SexpString(ps *zygo.PrintState) string {
	if it.item.Group != nil {
		return fmt.Sprintf("(group %d items)", len(it.item.Group))
	}
	return fmt.Sprintf("(%s)", shapeName(it.item.Shape))
}
func (it *sexpItem) Type() *zygo.RegisteredType { return nil }

// sexpItem2 wraps one planar metaball item.
type sexpItem2 struct {
	item metaball.Item2
}

func (it *sexpItem2) SexpString(ps *zygo.PrintState) string {
	if it.item.Group != nil {
		return fmt.Sprintf("(group %d planar items)", len(it.item.Group))
	}
	return fmt.Sprintf("(%s)", shapeName(it.item.Shape))
}
func (it *sexpItem2) Type() *zygo.RegisteredType { return nil }

// sexpSpec wraps a full metaball specification, the result of blend.
type sexpSpec struct {
	spec metaball.Spec
}

func (s *sexpSpec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(blend %d items)", len(s.spec))
}
func (s *sexpSpec) Type() *zygo.RegisteredType { return nil }

// sexpSpec2 wraps a planar metaball specification.
type sexpSpec2 struct {
	spec metaball.Spec2
}

func (s *sexpSpec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(blend %d planar items)", len(s.spec))
}
func (s *sexpSpec2) Type() *zygo.RegisteredType { return nil }

// sexpBand wraps an isovalue band, the result of band.
type sexpBand struct {
	min, max float64
}

func (b *sexpBand) SexpString(ps *zygo.PrintState) string {
	if math.IsInf(b.max, 1) {
		return fmt.Sprintf("(band %g)", b.min)
	}
	return fmt.Sprintf("(band %g %g)", b.min, b.max)
}
func (b *sexpBand) Type() *zygo.RegisteredType { return nil }

// sexpJobRef names a registered extraction job.
type sexpJobRef struct {
	kind string // "surface" or "contour"
	name string
}

func (j *sexpJobRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", j.kind, j.name)
}
func (j *sexpJobRef) Type() *zygo.RegisteredType { return nil }

// shapeName reports the builtin name of a shape value for display.
func shapeName(s any) string {
	return strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", s), "metaball."))
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer count from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a bool from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toV3 extracts a vector from a sexpVec3.
func toV3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected (vec3 x y z), got %T (%s)", s, s.SexpString(nil))
}

// toV2 extracts a vector from a sexpVec2.
func toV2(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return v2.Vec{}, fmt.Errorf("expected (vec2 x y), got %T (%s)", s, s.SexpString(nil))
}

// toV3OrUniform accepts either a vec3 or a single number applied to
// every axis.
func toV3OrUniform(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return v3.Vec{}, fmt.Errorf("expected number or (vec3 x y z), got %T (%s)", s, s.SexpString(nil))
	}
	return v3.Vec{X: f, Y: f, Z: f}, nil
}

// toV2OrUniform accepts either a vec2 or a single number applied to
// both axes.
func toV2OrUniform(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return v2.Vec{}, fmt.Errorf("expected number or (vec2 x y), got %T (%s)", s, s.SexpString(nil))
	}
	return v2.Vec{X: f, Y: f}, nil
}

// toIsovalue accepts a plain number (single threshold, everything at or
// above it is inside) or a band value.
func toIsovalue(s zygo.Sexp) (min, max float64, err error) {
	if b, ok := s.(*sexpBand); ok {
		return b.min, b.max, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return 0, 0, fmt.Errorf("expected number or (band lo hi), got %T (%s)", s, s.SexpString(nil))
	}
	return f, math.Inf(1), nil
}

// ---------------------------------------------------------------------------
// Shared shape keywords
// ---------------------------------------------------------------------------

// blendParams are the falloff controls every generator accepts.
type blendParams struct {
	cutoff    float64
	influence float64
	negative  bool
}

// blendArgs reads the shared :cutoff, :influence and :negative keywords.
func blendArgs(pa kwArgs, builtin string) (blendParams, error) {
	var bp blendParams
	if v, ok := pa.kw["cutoff"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return bp, fmt.Errorf("%s: cutoff: %w", builtin, err)
		}
		bp.cutoff = f
	}
	if v, ok := pa.kw["influence"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return bp, fmt.Errorf("%s: influence: %w", builtin, err)
		}
		bp.influence = f
	}
	if v, ok := pa.kw["negative"]; ok {
		b, err := toBool(v)
		if err != nil {
			return bp, fmt.Errorf("%s: negative: %w", builtin, err)
		}
		bp.negative = b
	}
	return bp, nil
}

// rotateDegrees builds the rotation matrix for Euler angles in degrees
// around the x, y and z axes, applied x first, then y, then z.
func rotateDegrees(angles v3.Vec) sdf.M44 {
	const rad = math.Pi / 180
	return sdf.RotateZ(angles.Z * rad).Mul(sdf.RotateY(angles.Y * rad)).Mul(sdf.RotateX(angles.X * rad))
}

// placement reads the :at and :rotate keywords into a spatial transform.
// Rotation applies before translation. A zero matrix means no placement
// was given, which metaball treats as identity.
func placement(pa kwArgs, builtin string) (sdf.M44, error) {
	var m sdf.M44
	rotated := false
	if v, ok := pa.kw["rotate"]; ok {
		vec, err := toV3(v)
		if err != nil {
			return m, fmt.Errorf("%s: rotate: %w", builtin, err)
		}
		m = rotateDegrees(vec)
		rotated = true
	}
	if v, ok := pa.kw["at"]; ok {
		vec, err := toV3(v)
		if err != nil {
			return sdf.M44{}, fmt.Errorf("%s: at: %w", builtin, err)
		}
		t := sdf.Translate3d(vec)
		if rotated {
			return t.Mul(m), nil
		}
		return t, nil
	}
	return m, nil
}

// placement2 reads the planar :at and :rotate keywords. Rotation is a
// single counterclockwise angle in degrees, applied before translation.
func placement2(pa kwArgs, builtin string) (sdf.M33, error) {
	var m sdf.M33
	rotated := false
	if v, ok := pa.kw["rotate"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return m, fmt.Errorf("%s: rotate: %w", builtin, err)
		}
		m = sdf.Rotate2d(f * math.Pi / 180)
		rotated = true
	}
	if v, ok := pa.kw["at"]; ok {
		vec, err := toV2(v)
		if err != nil {
			return sdf.M33{}, fmt.Errorf("%s: at: %w", builtin, err)
		}
		t := sdf.Translate2d(vec)
		if rotated {
			return t.Mul(m), nil
		}
		return t, nil
	}
	return m, nil
}

// item3 wraps a finished spatial shape and its placement keywords.
func item3(pa kwArgs, builtin string, shape metaball.Shape) (zygo.Sexp, error) {
	m, err := placement(pa, builtin)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpItem{item: metaball.Item{Transform: m, Shape: shape}}, nil
}

// item2 wraps a finished planar shape and its placement keywords.
func item2(pa kwArgs, builtin string, shape metaball.Shape2) (zygo.Sexp, error) {
	m, err := placement2(pa, builtin)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpItem2{item: metaball.Item2{Transform: m, Shape: shape}}, nil
}

// ---------------------------------------------------------------------------
// Job keywords
// ---------------------------------------------------------------------------

// surfaceBounds reads the bounding box keywords: either :size for an
// origin-centered cube or :min and :max corners.
func surfaceBounds(pa kwArgs) (sdf.Box3, error) {
	var box sdf.Box3
	_, hasMin := pa.kw["min"]
	_, hasMax := pa.kw["max"]
	if v, ok := pa.kw["size"]; ok {
		if hasMin || hasMax {
			return box, fmt.Errorf("size is exclusive with min/max")
		}
		f, err := toFloat64(v)
		if err != nil {
			return box, fmt.Errorf("size: %w", err)
		}
		if f <= 0 {
			return box, fmt.Errorf("size must be positive, got %g", f)
		}
		return isosurface.CubeBounds(f), nil
	}
	if !hasMin || !hasMax {
		return box, fmt.Errorf("bounds required: give :size, or :min and :max corners")
	}
	lo, err := toV3(pa.kw["min"])
	if err != nil {
		return box, fmt.Errorf("min: %w", err)
	}
	hi, err := toV3(pa.kw["max"])
	if err != nil {
		return box, fmt.Errorf("max: %w", err)
	}
	return sdf.Box3{Min: lo, Max: hi}, nil
}

// contourBounds reads the planar bounding box keywords: either :size
// for an origin-centered square or :min and :max corners.
func contourBounds(pa kwArgs) (sdf.Box2, error) {
	var box sdf.Box2
	_, hasMin := pa.kw["min"]
	_, hasMax := pa.kw["max"]
	if v, ok := pa.kw["size"]; ok {
		if hasMin || hasMax {
			return box, fmt.Errorf("size is exclusive with min/max")
		}
		f, err := toFloat64(v)
		if err != nil {
			return box, fmt.Errorf("size: %w", err)
		}
		if f <= 0 {
			return box, fmt.Errorf("size must be positive, got %g", f)
		}
		return contour.SquareBounds(f), nil
	}
	if !hasMin || !hasMax {
		return box, fmt.Errorf("bounds required: give :size, or :min and :max corners")
	}
	lo, err := toV2(pa.kw["min"])
	if err != nil {
		return box, fmt.Errorf("min: %w", err)
	}
	hi, err := toV2(pa.kw["max"])
	if err != nil {
		return box, fmt.Errorf("max: %w", err)
	}
	return sdf.Box2{Min: lo, Max: hi}, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the script DSL into a zygomys environment.
// The builtins populate the provided Script with extraction jobs during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, script *Script) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}
		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (vec2 1 2)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: v2.Vec{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 3 :cutoff 6 :influence 1.5 :negative true
	//         :at (vec3 4 0 0) :rotate (vec3 0 0 90))
	//
	// Every shape accepts the same trailing keywords: :cutoff and
	// :influence tune the falloff, :negative subtracts the shape, and
	// :at/:rotate place it.
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Sphere{}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
			}
			ball.Radius = f
		}
		bp, err := blendArgs(pa, "sphere")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item3(pa, "sphere", ball)
	})

	// -----------------------------------------------------------------------
	// (cuboid :size (vec3 4 2 2) :squareness 0.5)
	// :size also accepts a single number for a cube.
	// -----------------------------------------------------------------------
	env.AddFunction("cuboid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Cuboid{}
		if v, ok := pa.kw["size"]; ok {
			vec, err := toV3OrUniform(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cuboid: size: %w", err)
			}
			ball.Size = vec
		}
		if v, ok := pa.kw["squareness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cuboid: squareness: %w", err)
			}
			ball.Squareness = f
		}
		bp, err := blendArgs(pa, "cuboid")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item3(pa, "cuboid", ball)
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 10 :radius 3)
	// (cylinder :height 10 :r1 3 :r2 1)   ; cone
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Cylinder{}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
			}
			ball.Height = f
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
			}
			ball.Radius = f
		}
		if v, ok := pa.kw["r1"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: r1: %w", err)
			}
			ball.R1 = f
		}
		if v, ok := pa.kw["r2"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: r2: %w", err)
			}
			ball.R2 = f
		}
		bp, err := blendArgs(pa, "cylinder")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item3(pa, "cylinder", ball)
	})

	// -----------------------------------------------------------------------
	// (capsule :height 10 :radius 2)
	// Height is the total extent including the rounded ends.
	// -----------------------------------------------------------------------
	env.AddFunction("capsule", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Capsule{}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("capsule: height: %w", err)
			}
			ball.Height = f
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("capsule: radius: %w", err)
			}
			ball.Radius = f
		}
		bp, err := blendArgs(pa, "capsule")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item3(pa, "capsule", ball)
	})

	// -----------------------------------------------------------------------
	// (connector :from (vec3 0 0 0) :to (vec3 5 5 5) :radius 1)
	// -----------------------------------------------------------------------
	env.AddFunction("connector", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Connector{}
		if v, ok := pa.kw["from"]; ok {
			vec, err := toV3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connector: from: %w", err)
			}
			ball.P1 = vec
		}
		if v, ok := pa.kw["to"]; ok {
			vec, err := toV3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connector: to: %w", err)
			}
			ball.P2 = vec
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connector: radius: %w", err)
			}
			ball.Radius = f
		}
		bp, err := blendArgs(pa, "connector")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item3(pa, "connector", ball)
	})

	// -----------------------------------------------------------------------
	// (torus :major-radius 6 :minor-radius 2)
	// -----------------------------------------------------------------------
	env.AddFunction("torus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Torus{}
		if v, ok := pa.kw["major-radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("torus: major-radius: %w", err)
			}
			ball.MajorRadius = f
		}
		if v, ok := pa.kw["minor-radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("torus: minor-radius: %w", err)
			}
			ball.MinorRadius = f
		}
		bp, err := blendArgs(pa, "torus")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item3(pa, "torus", ball)
	})

	// -----------------------------------------------------------------------
	// (octahedron :size 6 :squareness 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("octahedron", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Octahedron{}
		if v, ok := pa.kw["size"]; ok {
			vec, err := toV3OrUniform(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("octahedron: size: %w", err)
			}
			ball.Size = vec
		}
		if v, ok := pa.kw["squareness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("octahedron: squareness: %w", err)
			}
			ball.Squareness = f
		}
		bp, err := blendArgs(pa, "octahedron")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item3(pa, "octahedron", ball)
	})

	// -----------------------------------------------------------------------
	// (circle :radius 3)
	// Planar shapes take a single :rotate angle in degrees and a vec2 :at.
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Circle{}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
			}
			ball.Radius = f
		}
		bp, err := blendArgs(pa, "circle")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item2(pa, "circle", ball)
	})

	// -----------------------------------------------------------------------
	// (rect :size (vec2 6 4) :squareness 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Rect{}
		if v, ok := pa.kw["size"]; ok {
			vec, err := toV2OrUniform(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rect: size: %w", err)
			}
			ball.Size = vec
		}
		if v, ok := pa.kw["squareness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rect: squareness: %w", err)
			}
			ball.Squareness = f
		}
		bp, err := blendArgs(pa, "rect")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item2(pa, "rect", ball)
	})

	// -----------------------------------------------------------------------
	// (stadium :height 8 :radius 2)
	// -----------------------------------------------------------------------
	env.AddFunction("stadium", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Stadium{}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("stadium: height: %w", err)
			}
			ball.Height = f
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("stadium: radius: %w", err)
			}
			ball.Radius = f
		}
		bp, err := blendArgs(pa, "stadium")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item2(pa, "stadium", ball)
	})

	// -----------------------------------------------------------------------
	// (ring :major-radius 5 :minor-radius 1)
	// -----------------------------------------------------------------------
	env.AddFunction("ring", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ball := metaball.Ring{}
		if v, ok := pa.kw["major-radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("ring: major-radius: %w", err)
			}
			ball.MajorRadius = f
		}
		if v, ok := pa.kw["minor-radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("ring: minor-radius: %w", err)
			}
			ball.MinorRadius = f
		}
		bp, err := blendArgs(pa, "ring")
		if err != nil {
			return zygo.SexpNull, err
		}
		ball.Cutoff, ball.Influence, ball.Negative = bp.cutoff, bp.influence, bp.negative
		return item2(pa, "ring", ball)
	})

	// -----------------------------------------------------------------------
	// (blend (sphere ...) (sphere ...) ...)
	//
	// Collects shapes and groups into one specification. All children
	// must share a dimension; the result is planar or spatial to match.
	// -----------------------------------------------------------------------
	env.AddFunction("blend", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var s3 metaball.Spec
		var s2 metaball.Spec2
		for i, a := range args {
			switch it := a.(type) {
			case *sexpItem:
				s3 = append(s3, it.item)
			case *sexpItem2:
				s2 = append(s2, it.item)
			default:
				return zygo.SexpNull, fmt.Errorf("blend: item %d: expected a metaball shape or group, got %T (%s)",
					i+1, a, a.SexpString(nil))
			}
		}
		if len(s3) > 0 && len(s2) > 0 {
			return zygo.SexpNull, fmt.Errorf("blend: cannot mix planar and spatial shapes")
		}
		if len(s2) > 0 {
			return &sexpSpec2{spec: s2}, nil
		}
		return &sexpSpec{spec: s3}, nil
	})

	// -----------------------------------------------------------------------
	// (group :at (vec3 0 0 5) :rotate (vec3 0 0 45) (sphere ...) ...)
	//
	// Wraps shapes into a placed subgroup. The transform composes onto
	// every child when the specification is flattened.
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var s3 metaball.Spec
		var s2 metaball.Spec2
		for i, a := range pa.positional {
			switch it := a.(type) {
			case *sexpItem:
				s3 = append(s3, it.item)
			case *sexpItem2:
				s2 = append(s2, it.item)
			default:
				return zygo.SexpNull, fmt.Errorf("group: item %d: expected a metaball shape or group, got %T (%s)",
					i+1, a, a.SexpString(nil))
			}
		}
		switch {
		case len(s3) > 0 && len(s2) > 0:
			return zygo.SexpNull, fmt.Errorf("group: cannot mix planar and spatial shapes")
		case len(s3) == 0 && len(s2) == 0:
			return zygo.SexpNull, fmt.Errorf("group: needs at least one shape")
		case len(s2) > 0:
			m, err := placement2(pa, "group")
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpItem2{item: metaball.Item2{Transform: m, Group: s2}}, nil
		default:
			m, err := placement(pa, "group")
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpItem{item: metaball.Item{Transform: m, Group: s3}}, nil
		}
	})

	// -----------------------------------------------------------------------
	// (band 25)      ; [25, +inf): single threshold
	// (band 1 8)     ; [1, 8): double-walled shell
	// -----------------------------------------------------------------------
	env.AddFunction("band", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("band requires a lower bound and an optional upper bound, got %d arguments", len(args))
		}
		lo, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("band: lower bound: %w", err)
		}
		hi := math.Inf(1)
		if len(args) == 2 {
			hi, err = toFloat64(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("band: upper bound: %w", err)
			}
		}
		if !(lo < hi) {
			return zygo.SexpNull, fmt.Errorf("band: lower bound %g must be below upper bound %g", lo, hi)
		}
		return &sexpBand{min: lo, max: hi}, nil
	})

	// -----------------------------------------------------------------------
	// (surface (blend ...) :size 22 :cell 0.5 :isovalue 1 :name "blob")
	//
	// Declares a 3D extraction job. Bounds come from :size or :min/:max;
	// resolution from :cell (number or vec3) or :cells (total count).
	// :closed, :reverse and :exact-bounds forward the extraction options.
	// -----------------------------------------------------------------------
	env.AddFunction("surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("surface requires a shape or blend as its first argument")
		}
		var spec metaball.Spec
		switch v := pa.positional[0].(type) {
		case *sexpSpec:
			spec = v.spec
		case *sexpItem:
			spec = metaball.Spec{v.item}
		case *sexpSpec2, *sexpItem2:
			return zygo.SexpNull, fmt.Errorf("surface extracts spatial fields; use contour for planar shapes")
		default:
			return zygo.SexpNull, fmt.Errorf("surface: expected a shape or blend, got %T (%s)", v, v.SexpString(nil))
		}

		// Malformed items should fail here, at the declaration, not
		// when the job runs.
		if _, err := spec.Field(); err != nil {
			return zygo.SexpNull, fmt.Errorf("surface: %w", err)
		}

		job := SurfaceJob{Spec: spec, Iso: isosurface.Value(1)}

		bounds, err := surfaceBounds(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("surface: %w", err)
		}
		job.Bounds = bounds

		if v, ok := pa.kw["isovalue"]; ok {
			lo, hi, err := toIsovalue(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: isovalue: %w", err)
			}
			job.Iso = isosurface.Isovalue{Min: lo, Max: hi}
		}
		if v, ok := pa.kw["cell"]; ok {
			vec, err := toV3OrUniform(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: cell: %w", err)
			}
			job.Opts.CellSize = vec
		}
		if v, ok := pa.kw["cells"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: cells: %w", err)
			}
			job.Opts.VoxelCount = n
		}
		if v, ok := pa.kw["closed"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: closed: %w", err)
			}
			job.Opts.Closed = &b
		}
		if v, ok := pa.kw["reverse"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: reverse: %w", err)
			}
			job.Opts.Reverse = b
		}
		if v, ok := pa.kw["exact-bounds"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: exact-bounds: %w", err)
			}
			job.Opts.ExactBounds = b
		}

		job.Name = fmt.Sprintf("surface-%d", len(script.Surfaces)+1)
		if v, ok := pa.kw["name"]; ok {
			n, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: name: %w", err)
			}
			if n == "" {
				return zygo.SexpNull, fmt.Errorf("surface: name must not be empty")
			}
			job.Name = n
		}
		if script.Surface(job.Name) != nil {
			return zygo.SexpNull, fmt.Errorf("surface: duplicate job name %q", job.Name)
		}

		script.Surfaces = append(script.Surfaces, job)
		return &sexpJobRef{kind: "surface", name: job.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (contour (blend ...) :size 24 :pixel 0.5 :isovalue 1 :name "logo")
	//
	// Declares a planar extraction job. Mirrors surface with :pixel and
	// :pixels for resolution; :centers switches to the 5-point sampler.
	// -----------------------------------------------------------------------
	env.AddFunction("contour", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("contour requires a shape or blend as its first argument")
		}
		var spec metaball.Spec2
		switch v := pa.positional[0].(type) {
		case *sexpSpec2:
			spec = v.spec
		case *sexpItem2:
			spec = metaball.Spec2{v.item}
		case *sexpSpec, *sexpItem:
			return zygo.SexpNull, fmt.Errorf("contour extracts planar fields; use surface for spatial shapes")
		default:
			return zygo.SexpNull, fmt.Errorf("contour: expected a shape or blend, got %T (%s)", v, v.SexpString(nil))
		}

		if _, err := spec.Field(); err != nil {
			return zygo.SexpNull, fmt.Errorf("contour: %w", err)
		}

		job := ContourJob{Spec: spec, Iso: contour.Value(1)}

		bounds, err := contourBounds(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("contour: %w", err)
		}
		job.Bounds = bounds

		if v, ok := pa.kw["isovalue"]; ok {
			lo, hi, err := toIsovalue(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: isovalue: %w", err)
			}
			job.Iso = contour.Isovalue{Min: lo, Max: hi}
		}
		if v, ok := pa.kw["pixel"]; ok {
			vec, err := toV2OrUniform(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: pixel: %w", err)
			}
			job.Opts.PixelSize = vec
		}
		if v, ok := pa.kw["pixels"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: pixels: %w", err)
			}
			job.Opts.PixelCount = n
		}
		if v, ok := pa.kw["centers"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: centers: %w", err)
			}
			job.Opts.UseCenters = b
		}
		if v, ok := pa.kw["closed"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: closed: %w", err)
			}
			job.Opts.Closed = &b
		}
		if v, ok := pa.kw["reverse"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: reverse: %w", err)
			}
			job.Opts.Reverse = b
		}
		if v, ok := pa.kw["exact-bounds"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: exact-bounds: %w", err)
			}
			job.Opts.ExactBounds = b
		}

		job.Name = fmt.Sprintf("contour-%d", len(script.Contours)+1)
		if v, ok := pa.kw["name"]; ok {
			n, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contour: name: %w", err)
			}
			if n == "" {
				return zygo.SexpNull, fmt.Errorf("contour: name must not be empty")
			}
			job.Name = n
		}
		if script.Contour(job.Name) != nil {
			return zygo.SexpNull, fmt.Errorf("contour: duplicate job name %q", job.Name)
		}

		script.Contours = append(script.Contours, job)
		return &sexpJobRef{kind: "contour", name: job.Name}, nil
	})
}

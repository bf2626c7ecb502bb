package draw

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"

	"github.com/chazu/isoform/pkg/mesh"
)

// MeshStyle controls mesh previews. Zero-value fields select defaults:
// an 800x800 canvas, a three-quarter camera, and the package palette.
type MeshStyle struct {
	// Size is the image width and height in pixels.
	Size int

	// Eye is the camera position. The mesh is normalized into the
	// [-1,1] cube around the origin before rendering, so the default
	// (-4,-4,2.5) frames any input. Must not sit on the z axis.
	Eye v3.Vec

	// SmoothAngle is the crease threshold in degrees for vertex
	// normal smoothing.
	SmoothAngle float64

	Background color.RGBA
	Object     color.RGBA
}

const (
	previewFOV  = 35
	previewNear = 1
	previewFar  = 50
)

var defaultObject = color.RGBA{R: 70, G: 137, B: 102, A: 255}

func (s *MeshStyle) resolve() (MeshStyle, error) {
	var st MeshStyle
	if s != nil {
		st = *s
	}
	if st.Size < 0 {
		return st, fmt.Errorf("draw: canvas size must not be negative")
	}
	if st.Size == 0 {
		st.Size = 800
	}
	if st.SmoothAngle < 0 {
		return st, fmt.Errorf("draw: smoothing angle must not be negative")
	}
	if st.SmoothAngle == 0 {
		st.SmoothAngle = 30
	}
	if st.Eye == (v3.Vec{}) {
		st.Eye = v3.Vec{X: -4, Y: -4, Z: 2.5}
	}
	if st.Eye.X == 0 && st.Eye.Y == 0 {
		return st, fmt.Errorf("draw: eye must not sit on the z axis")
	}
	st.Background = orDefault(st.Background, defaultBackground)
	st.Object = orDefault(st.Object, defaultObject)
	return st, nil
}

// Preview renders a triangle soup as a Phong-shaded perspective view
// with z up. The mesh is centered and scaled into the bi-unit cube, so
// the camera never needs adjusting for object size.
func Preview(tris []mesh.Triangle, style *MeshStyle) (image.Image, error) {
	st, err := style.resolve()
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("draw: no triangles to preview")
	}

	fts := make([]*fauxgl.Triangle, len(tris))
	for i, t := range tris {
		fts[i] = fauxgl.NewTriangleForPoints(vector(t[0]), vector(t[1]), vector(t[2]))
	}
	m := fauxgl.NewTriangleMesh(fts)
	m.BiUnitCube()
	m.SmoothNormalsThreshold(fauxgl.Radians(st.SmoothAngle))

	ctx := fauxgl.NewContext(st.Size, st.Size)
	ctx.ClearColorBufferWith(fauxgl.MakeColor(st.Background))

	eye := vector(st.Eye)
	center := fauxgl.V(0, 0, 0)
	up := fauxgl.V(0, 0, 1)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(previewFOV, 1, previewNear, previewFar)
	light := eye.Normalize()
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.MakeColor(st.Object)
	ctx.Shader = shader
	ctx.DrawMesh(m)

	return ctx.Image(), nil
}

func vector(v v3.Vec) fauxgl.Vector {
	return fauxgl.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// WritePreviewPNG renders tris and PNG-encodes the image to w.
func WritePreviewPNG(w io.Writer, tris []mesh.Triangle, style *MeshStyle) error {
	img, err := Preview(tris, style)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("draw: encode png: %w", err)
	}
	return nil
}

// SavePreviewPNG renders tris to a PNG file.
func SavePreviewPNG(filename string, tris []mesh.Triangle, style *MeshStyle) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("draw: create %s: %w", filename, err)
	}
	if err := WritePreviewPNG(f, tris, style); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("draw: close %s: %w", filename, err)
	}
	return nil
}

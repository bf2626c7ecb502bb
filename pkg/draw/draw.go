// Package draw rasterizes extraction output for quick inspection:
// contour paths to a filled 2D canvas, triangle meshes to a shaded
// perspective preview. Both render to an image.Image with PNG
// convenience wrappers. This is a debug surface; the path and mesh
// data remain the product.
package draw

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/fogleman/gg"

	"github.com/chazu/isoform/pkg/contour"
)

// PathStyle controls contour-path rendering. The zero value of every
// field selects a default: an 800-pixel-wide canvas, a window fitted
// to the paths with a 5% margin, and the package palette.
type PathStyle struct {
	// Size is the canvas width in pixels. The height follows the
	// window's aspect ratio.
	Size int

	// Window is the world region mapped onto the canvas. The zero
	// value fits the bounding box of the paths plus Margin.
	Window sdf.Box2

	// Margin is the fraction of the fitted window's extent added on
	// every side. Ignored when Window is set explicitly.
	Margin float64

	// LineWidth is the stroke width in canvas pixels.
	LineWidth float64

	// NoFill strokes closed paths without filling their interior.
	NoFill bool

	Background color.RGBA
	Fill       color.RGBA
	Stroke     color.RGBA
}

func emptyWindow(b sdf.Box2) bool {
	size := b.Size()
	return size.X <= 0 || size.Y <= 0
}

var (
	defaultBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	defaultFill       = color.RGBA{R: 187, G: 222, B: 203, A: 255}
	defaultStroke     = color.RGBA{R: 27, G: 94, B: 63, A: 255}
)

func orDefault(c, def color.RGBA) color.RGBA {
	if c == (color.RGBA{}) {
		return def
	}
	return c
}

// fitWindow bounds the path points and pads by the margin fraction.
func fitWindow(paths []contour.Path, margin float64) (sdf.Box2, error) {
	lo := v2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := v2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	n := 0
	for _, p := range paths {
		for _, v := range p {
			lo.X = math.Min(lo.X, v.X)
			lo.Y = math.Min(lo.Y, v.Y)
			hi.X = math.Max(hi.X, v.X)
			hi.Y = math.Max(hi.Y, v.Y)
			n++
		}
	}
	if n == 0 {
		return sdf.Box2{}, fmt.Errorf("draw: no path points to fit a window around")
	}
	pad := margin * math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if pad == 0 {
		pad = 1 // single point or axis-aligned segment
	}
	grow := v2.Vec{X: pad, Y: pad}
	return sdf.Box2{Min: lo.Sub(grow), Max: hi.Add(grow)}, nil
}

func (s *PathStyle) resolve(paths []contour.Path) (PathStyle, error) {
	var st PathStyle
	if s != nil {
		st = *s
	}
	if st.Size < 0 {
		return st, fmt.Errorf("draw: canvas size must not be negative")
	}
	if st.Size == 0 {
		st.Size = 800
	}
	if st.LineWidth < 0 {
		return st, fmt.Errorf("draw: line width must not be negative")
	}
	if st.LineWidth == 0 {
		st.LineWidth = 2
	}
	if st.Margin < 0 {
		return st, fmt.Errorf("draw: margin must not be negative")
	}
	if st.Margin == 0 {
		st.Margin = 0.05
	}
	if emptyWindow(st.Window) {
		w, err := fitWindow(paths, st.Margin)
		if err != nil {
			return st, err
		}
		st.Window = w
	}
	st.Background = orDefault(st.Background, defaultBackground)
	st.Fill = orDefault(st.Fill, defaultFill)
	st.Stroke = orDefault(st.Stroke, defaultStroke)
	return st, nil
}

// Paths renders contour paths onto a canvas. Closed paths are filled
// as one compound region, so loops wound opposite to their enclosing
// loop become holes; open chains are stroked only.
func Paths(paths []contour.Path, style *PathStyle) (image.Image, error) {
	st, err := style.resolve(paths)
	if err != nil {
		return nil, err
	}

	win := st.Window
	ext := win.Size()
	height := int(math.Round(float64(st.Size) * ext.Y / ext.X))
	if height < 1 {
		height = 1
	}
	sx := float64(st.Size) / ext.X
	sy := float64(height) / ext.Y
	toX := func(x float64) float64 { return (x - win.Min.X) * sx }
	toY := func(y float64) float64 { return (win.Max.Y - y) * sy } // canvas y grows downward

	ctx := gg.NewContext(st.Size, height)
	ctx.SetFillStyle(gg.NewSolidPattern(st.Background))
	ctx.DrawRectangle(0, 0, float64(st.Size), float64(height))
	ctx.Fill()

	trace := func(p contour.Path, close bool) {
		pts := p
		if close {
			pts = p[:len(p)-1] // drop the repeated closing point
		}
		for i, v := range pts {
			if i == 0 {
				ctx.MoveTo(toX(v.X), toY(v.Y))
			} else {
				ctx.LineTo(toX(v.X), toY(v.Y))
			}
		}
		if close {
			ctx.ClosePath()
		}
	}

	// Closed loops share one compound path so the winding rule can
	// carve holes.
	any := false
	for _, p := range paths {
		if p.Closed() {
			trace(p, true)
			any = true
		}
	}
	if any {
		if !st.NoFill {
			ctx.SetFillStyle(gg.NewSolidPattern(st.Fill))
			ctx.FillPreserve()
		}
		ctx.SetStrokeStyle(gg.NewSolidPattern(st.Stroke))
		ctx.SetLineWidth(st.LineWidth)
		ctx.Stroke()
	}

	for _, p := range paths {
		if p.Closed() || len(p) < 2 {
			continue
		}
		trace(p, false)
		ctx.SetStrokeStyle(gg.NewSolidPattern(st.Stroke))
		ctx.SetLineWidth(st.LineWidth)
		ctx.Stroke()
	}

	return ctx.Image(), nil
}

// WritePathsPNG renders paths and PNG-encodes the canvas to w.
func WritePathsPNG(w io.Writer, paths []contour.Path, style *PathStyle) error {
	img, err := Paths(paths, style)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("draw: encode png: %w", err)
	}
	return nil
}

// SavePathsPNG renders paths to a PNG file.
func SavePathsPNG(filename string, paths []contour.Path, style *PathStyle) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("draw: create %s: %w", filename, err)
	}
	if err := WritePathsPNG(f, paths, style); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("draw: close %s: %w", filename, err)
	}
	return nil
}

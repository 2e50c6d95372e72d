// Package export is the server-side bake: it composites the caption onto the
// photo with golang.org/x/image and returns a PNG at the target resolution.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ByLCY/placard/fonts"
	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/logging"
	"github.com/ByLCY/placard/renderer"
)

// Name is the renderer name used in reports.
const Name = "export"

// Default export resolution.
const (
	DefaultWidth  = 1080
	DefaultHeight = 1920
)

// DefaultCanvas returns the 1080×1920 export canvas.
func DefaultCanvas() geometry.CanvasContext {
	return geometry.NewCanvasContext(DefaultWidth, DefaultHeight)
}

// Options configures the export renderer.
type Options struct {
	// Kernel resamples the rotated caption block onto the output. Defaults to draw.BiLinear.
	Kernel draw.Transformer
	// PhotoScaler fits the photo to the canvas. Defaults to draw.CatmullRom.
	PhotoScaler draw.Scaler
	Logger      *slog.Logger
}

// Renderer implements renderer.Renderer without any GPU or browser dependency.
type Renderer struct {
	kernel draw.Transformer
	scaler draw.Scaler
	logger *slog.Logger
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ geometry.Measurer = (*Renderer)(nil)
)

// New returns an export renderer.
func New(opts Options) *Renderer {
	r := &Renderer{kernel: opts.Kernel, scaler: opts.PhotoScaler, logger: opts.Logger}
	if r.kernel == nil {
		r.kernel = draw.BiLinear
	}
	if r.scaler == nil {
		r.scaler = draw.CatmullRom
	}
	if r.logger == nil {
		r.logger = logging.Logger()
	}
	return r
}

// Name implements renderer.Renderer.
func (r *Renderer) Name() string { return Name }

// Render composites req and returns the PNG.
func (r *Renderer) Render(ctx context.Context, req renderer.Request) (renderer.Result, error) {
	start := time.Now()
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return renderer.Result{Reason: err.Error()}, err
	}
	if err := ctx.Err(); err != nil {
		return renderer.Result{Reason: err.Error()}, err
	}

	g := renderer.Scene(req)
	dst := image.NewRGBA(image.Rect(0, 0, int(req.Canvas.Width), int(req.Canvas.Height)))
	if photo := renderer.FitPhoto(req.Photo, dst.Bounds().Dx(), dst.Bounds().Dy(), r.scaler); photo != nil {
		draw.Draw(dst, dst.Bounds(), photo, image.Point{}, draw.Src)
	}

	extent := 0.0
	var lines []string
	if !g.Box.Empty() {
		block, drawn, width, err := r.paintBlock(g.Box, req)
		if err != nil {
			return renderer.Result{Reason: err.Error()}, err
		}
		extent = width
		lines = drawn
		if err := ctx.Err(); err != nil {
			return renderer.Result{Reason: err.Error()}, err
		}
		r.kernel.Transform(dst, blockToCanvas(g), block, block.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return renderer.Result{Reason: err.Error()}, fmt.Errorf("export: encode png: %w", err)
	}
	res := renderer.Finish(g, start)
	res.Image = buf.Bytes()
	res.TextExtent = extent
	res.Lines = lines
	r.logger.Debug("export: rendered",
		"width", req.Canvas.Width, "height", req.Canvas.Height,
		"lines", g.Box.Lines, "elapsed", res.Elapsed)
	return res, nil
}

// blockToCanvas maps block pixels to canvas pixels: move the block center to
// the origin, rotate, then move it to the box center on the canvas.
func blockToCanvas(g geometry.Geometry) f64.Aff3 {
	w, h := g.Box.PixelWidth, g.Box.PixelHeight
	cx := g.Transform.TranslateX + w/2
	cy := g.Transform.TranslateY + h/2
	rad := g.Transform.RotationDeg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	bw, bh := math.Ceil(w), math.Ceil(h)
	sx, sy := w/bw, h/bh
	return f64.Aff3{
		cos * sx, -sin * sy, cx - cos*w/2 + sin*h/2,
		sin * sx, cos * sy, cy - sin*w/2 - cos*h/2,
	}
}

// paintBlock draws the unrotated caption (backdrop, shadow, text) into its own
// image. It returns the drawn lines and the widest measured one.
func (r *Renderer) paintBlock(box geometry.TextBlockBox, req renderer.Request) (*image.RGBA, []string, float64, error) {
	style := req.Style
	face, err := newFace(fonts.Pick(style.Bold(), style.Italic()), box.FontSize)
	if err != nil {
		return nil, nil, 0, err
	}
	defer face.Close()

	bw, bh := int(math.Ceil(box.PixelWidth)), int(math.Ceil(box.PixelHeight))
	block := image.NewRGBA(image.Rect(0, 0, bw, bh))

	if bg := style.Backdrop(); bg.A > 0 {
		fillRoundedRect(block, box.PixelWidth, box.PixelHeight, box.CornerRadius, bg)
	}

	measure := func(s string) float64 { return fromFixed(font.MeasureString(face, s)) }
	lines := renderer.Lines(req.Text, box)

	mask := image.NewAlpha(block.Bounds())
	var shadow *image.Alpha
	if style.HasShadow() {
		shadow = image.NewAlpha(block.Bounds())
	}
	m := face.Metrics()
	ascent, descent := fromFixed(m.Ascent), fromFixed(m.Descent)
	extent := 0.0
	for i, line := range lines {
		glyphs, width := renderer.Track(line, box.LetterSpacing, measure)
		extent = math.Max(extent, width)
		x := (box.PixelWidth - width) / 2
		baseline := box.PaddingV + float64(i)*box.LineHeight + (box.LineHeight-ascent-descent)/2 + ascent
		drawGlyphs(mask, face, glyphs, x, baseline)
		if shadow != nil {
			drawGlyphs(shadow, face, glyphs, x+box.Shadow.OffsetX, baseline+box.Shadow.OffsetY)
		}
	}

	if shadow != nil {
		soft := softenShadow(shadow, box.Shadow.Blur)
		draw.DrawMask(block, block.Bounds(), image.NewUniform(geometry.ShadowColor), image.Point{}, soft, image.Point{}, draw.Over)
	}
	var src image.Image = image.NewUniform(style.Fill())
	if style.HasGradient() {
		src = gradientImage(style.Gradient, block.Bounds(), box.PaddingH, box.PaddingH+box.LineWidth)
	}
	draw.DrawMask(block, block.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
	return block, lines, extent, nil
}

// MeasureLine implements geometry.Measurer with the regular Go font.
func (r *Renderer) MeasureLine(text string, fontSize float64) float64 {
	if fontSize <= 0 {
		return 0
	}
	face, err := newFace(fonts.Regular, fontSize)
	if err != nil {
		return 0
	}
	defer face.Close()
	return fromFixed(font.MeasureString(face, text))
}

func newFace(v fonts.Variant, sizePx float64) (font.Face, error) {
	f, err := fonts.Parsed(v)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("export: new face: %w", err)
	}
	return face, nil
}

// drawGlyphs draws each cluster at its tracked offset from x.
func drawGlyphs(dst draw.Image, face font.Face, glyphs []renderer.Glyph, x, baseline float64) {
	d := &font.Drawer{Dst: dst, Src: image.Opaque, Face: face}
	for _, g := range glyphs {
		d.Dot = fixed.Point26_6{X: toFixed(x + g.X), Y: toFixed(baseline)}
		d.DrawString(g.Text)
	}
}

func fillRoundedRect(dst draw.Image, w, h, radius float64, c color.Color) {
	radius = math.Min(radius, math.Min(w, h)/2)
	// cubic approximation of a quarter circle
	const kappa = 0.5522847498
	k := float32(radius * kappa)
	fw, fh, fr := float32(w), float32(h), float32(radius)

	z := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())
	z.MoveTo(fr, 0)
	z.LineTo(fw-fr, 0)
	z.CubeTo(fw-fr+k, 0, fw, fr-k, fw, fr)
	z.LineTo(fw, fh-fr)
	z.CubeTo(fw, fh-fr+k, fw-fr+k, fh, fw-fr, fh)
	z.LineTo(fr, fh)
	z.CubeTo(fr-k, fh, 0, fh-fr+k, 0, fh-fr)
	z.LineTo(0, fr)
	z.CubeTo(0, fr-k, fr-k, 0, fr, 0)
	z.ClosePath()
	z.DrawOp = draw.Over
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/placard/fonts"
	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/logging"
	"github.com/ByLCY/placard/renderer"
)

// Name 是预览渲染器在报告中的名字。
const Name = "preview"

// ptPerPx 把像素字号换算为 canvas 字体所需的 pt。画布以 1px = 1mm 建立，栅格化分辨率为 DPMM(1)。
const ptPerPx = 72 / 25.4

// Renderer draws a caption via github.com/tdewolff/canvas and rasterizes it to PNG.
// It plays the role of the on-device preview.
type Renderer struct {
	font   []byte // optional override for every variant
	logger *slog.Logger

	fontMu       sync.Mutex
	fontFamilies map[fonts.Variant]*canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ geometry.Measurer = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// Font replaces the built-in Go fonts when set.
	Font   Resource
	Logger *slog.Logger
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas renderer using the built-in fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with an injected font.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		logger:       opts.Logger,
		fontFamilies: map[fonts.Variant]*canvas.FontFamily{},
	}
	if r.logger == nil {
		r.logger = logging.Logger()
	}
	if len(opts.Font.Bytes) > 0 {
		r.font = opts.Font.Bytes
	} else if opts.Font.Path != "" {
		data, err := readFont(opts.Font.Path)
		if err != nil {
			// 读取失败时回退内置字体
			r.logger.Warn("canvas: 读取字体失败，使用内置字体", "path", opts.Font.Path, "err", err)
		}
		r.font = data
	}
	return r
}

// Name implements renderer.Renderer.
func (r *Renderer) Name() string { return Name }

// Render draws req and returns a PNG of the whole canvas.
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
	w, h := req.Canvas.Size()
	c := canvas.New(w, h)
	cc := canvas.NewContext(c)
	cc.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，与几何引擎一致

	// 照片先拉伸到画布尺寸，与导出和网页端的铺满方式一致
	if photo := renderer.FitPhoto(req.Photo, int(req.Canvas.Width), int(req.Canvas.Height), nil); photo != nil {
		cc.DrawImage(0, 0, photo, canvas.DPMM(1))
	}

	extent := 0.0
	var lines []string
	if !g.Box.Empty() {
		var err error
		lines, extent, err = r.drawCaption(cc, g, req)
		if err != nil {
			return renderer.Result{Reason: err.Error()}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return renderer.Result{Reason: err.Error()}, err
	}
	img := rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return renderer.Result{Reason: err.Error()}, fmt.Errorf("编码 PNG 失败: %w", err)
	}

	res := renderer.Finish(g, start)
	res.Image = buf.Bytes()
	res.TextExtent = extent
	res.Lines = lines
	r.logger.Debug("canvas: rendered", "lines", g.Box.Lines, "extent", extent, "elapsed", res.Elapsed)
	return res, nil
}

// drawCaption 在元素自身的坐标系内绘制背景、阴影和文字，返回绘制的行与实测最宽行。
func (r *Renderer) drawCaption(cc *canvas.Context, g geometry.Geometry, req renderer.Request) ([]string, float64, error) {
	box := g.Box
	style := req.Style
	variant := fonts.Pick(style.Bold(), style.Italic())
	family, err := r.ensureFontFamily(variant)
	if err != nil {
		return nil, 0, err
	}
	sizePt := box.FontSize * ptPerPx
	lines := renderer.Lines(req.Text, box)

	cc.Push()
	defer cc.Pop()
	cx := g.Transform.TranslateX + box.PixelWidth/2
	cy := g.Transform.TranslateY + box.PixelHeight/2
	cc.Translate(cx, cy)
	cc.Rotate(g.Transform.RotationDeg)
	cc.Translate(-box.PixelWidth/2, -box.PixelHeight/2)

	if bg := style.Backdrop(); bg.A > 0 {
		cc.SetFillColor(bg)
		cc.SetStrokeColor(color.RGBA{})
		cc.DrawPath(0, 0, canvas.RoundedRectangle(box.PixelWidth, box.PixelHeight, box.CornerRadius))
	}

	var face *canvas.FontFace
	if style.HasGradient() {
		face = family.Face(sizePt, canvas.Paint{Gradient: gradient(style.Gradient, box)}, canvas.FontRegular, canvas.FontNormal)
	} else {
		face = family.Face(sizePt, style.Fill(), canvas.FontRegular, canvas.FontNormal)
	}
	var shadow *canvas.FontFace
	if style.HasShadow() {
		shadow = family.Face(sizePt, geometry.ShadowColor, canvas.FontRegular, canvas.FontNormal)
	}

	metrics := face.Metrics()
	textHeight := metrics.Ascent + metrics.Descent
	extent := 0.0
	for i, line := range lines {
		glyphs, width := renderer.Track(line, box.LetterSpacing, face.TextWidth)
		extent = math.Max(extent, width)
		left := (box.PixelWidth - width) / 2
		top := box.PaddingV + float64(i)*box.LineHeight
		baseline := top + (box.LineHeight-textHeight)/2 + metrics.Ascent
		for _, gl := range glyphs {
			if shadow != nil {
				cc.DrawText(left+gl.X+box.Shadow.OffsetX, baseline+box.Shadow.OffsetY, canvas.NewTextLine(shadow, gl.Text, canvas.Left))
			}
			cc.DrawText(left+gl.X, baseline, canvas.NewTextLine(face, gl.Text, canvas.Left))
		}
	}
	return lines, extent, nil
}

// gradient 沿文字区域从左到右铺设色标。
func gradient(stops []geometry.GradientStop, box geometry.TextBlockBox) *canvas.LinearGradient {
	g := canvas.NewLinearGradient(
		canvas.Point{X: box.PaddingH, Y: 0},
		canvas.Point{X: box.PaddingH + box.LineWidth, Y: 0},
	)
	for _, s := range stops {
		g.Add(math.Min(math.Max(s.Offset, 0), 1), s.Color.Premultiplied())
	}
	return g
}

// MeasureLine 实现 geometry.Measurer：以常规字重测量单行宽度（像素）。
func (r *Renderer) MeasureLine(text string, fontSize float64) float64 {
	family, err := r.ensureFontFamily(fonts.Regular)
	if err != nil || fontSize <= 0 {
		return 0
	}
	return family.Face(fontSize*ptPerPx, color.Black, canvas.FontRegular, canvas.FontNormal).TextWidth(text)
}

// readFont 读取字体文件；"embed:<名字>" 指向内置字体，例如 embed:bold。
func readFont(path string) ([]byte, error) {
	if strings.HasPrefix(path, "embed:") {
		return fonts.Load(path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) ensureFontFamily(v fonts.Variant) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[v]; ok {
		return family, nil
	}

	family := canvas.NewFontFamily(fonts.FamilyName + "-" + v.String())
	data := r.font
	if len(data) == 0 {
		data = v.Bytes()
	}
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		if len(r.font) == 0 {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", v, err)
		}
		// 注入字体不可用时回退到内置字体
		r.logger.Warn("canvas: 注入字体无法解析，使用内置字体", "err", err)
		if err := family.LoadFont(v.Bytes(), 0, canvas.FontRegular); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", v, err)
		}
	}
	r.fontFamilies[v] = family
	return family, nil
}

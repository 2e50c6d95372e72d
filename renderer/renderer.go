// Package renderer 定义各渲染后端共用的请求、结果与接口。
// 预览、导出、网页三种渲染器都通过 Scene 获取同一份几何，保证位置一致。
package renderer

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/ByLCY/placard/geometry"
)

// ErrEmptyCanvas 表示请求的画布宽或高为 0，无法绘制。
var ErrEmptyCanvas = errors.New("renderer: 画布尺寸为空")

// Request 描述一次渲染：一个文本元素及其放置，外加可选的背景照片。
type Request struct {
	Placement    geometry.Placement     `json:"placement"`
	Style        geometry.TextStyle     `json:"style"`
	Canvas       geometry.CanvasContext `json:"canvas"`
	Text         string                 `json:"text"`
	BaseFontSize float64                `json:"baseFontSize"`
	MaxLines     int                    `json:"maxLines"`
	Photo        image.Image            `json:"-"`
}

// Result 是渲染器的输出。BoundingBox 为文本元素在画布像素坐标中的轴对齐包围盒（含旋转），
// Frame 为未旋转的文本框。TextExtent 为渲染器实测的最宽行宽度，可用于发现估算溢出；
// Lines 为实际绘制的各行文本。
type Result struct {
	BoundingBox geometry.Rect `json:"boundingBox"`
	Frame       geometry.Rect `json:"frame"`
	Success     bool          `json:"success"`
	Elapsed     time.Duration `json:"elapsed"`
	Reason      string        `json:"reason,omitempty"`
	Image       []byte        `json:"-"`
	TextExtent  float64       `json:"textExtent,omitempty"`
	Lines       []string      `json:"lines,omitempty"`
}

// ElapsedMs 返回毫秒耗时。
func (r Result) ElapsedMs() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// Renderer 将一个文本元素绘制到目标画布上。
// 实现必须响应 ctx 的取消；返回 error 表示渲染器本身出错，
// Success=false 且 error 为 nil 表示渲染完成但结果不可用（原因写入 Reason）。
type Renderer interface {
	Name() string
	Render(ctx context.Context, req Request) (Result, error)
}

// Normalize 在边界处补齐默认值并校验放置。
func (req Request) Normalize() Request {
	out := req
	if out.BaseFontSize <= 0 || out.BaseFontSize != out.BaseFontSize {
		out.BaseFontSize = geometry.DefaultFontSize
	}
	if out.MaxLines <= 0 {
		out.MaxLines = geometry.DefaultMaxLines
	}
	out.Placement = out.Placement.Clamp()
	out.Canvas = out.Canvas.Sanitized()
	return out
}

// Validate 检查请求能否被绘制。
func (req Request) Validate() error {
	if req.Canvas.Width == 0 || req.Canvas.Height == 0 {
		return ErrEmptyCanvas
	}
	return nil
}

// Scene 是所有渲染器获取几何的唯一入口。
//
// 文本框尺寸已包含 placement.scale（字号 = 基准字号 × 分辨率比例 × scale），
// 渲染器只需平移到 (TranslateX, TranslateY) 并绕文本框中心旋转 RotationDeg，
// 不要再次应用 ScaleX/ScaleY。
func Scene(req Request) geometry.Geometry {
	req = req.Normalize()
	return geometry.ResolveSpaced(req.Placement, req.Text, req.BaseFontSize, req.Canvas, req.MaxLines, req.Style.LetterSpacing)
}

// Lines 按渲染器需要的行拆分文本：显式换行优先，否则按估算的每行宽度贪心折行。
// 折行只用估算器（含字间距），不用各渲染器的实测宽度，保证所有渲染器得到相同的行。
func Lines(text string, box geometry.TextBlockBox) []string {
	if box.Lines == 0 {
		return nil
	}
	return wrapLines(geometry.NormalizeText(text), box.LineWidth, box.Lines, box.EstimateLine)
}

// Finish 根据几何填充结果中的框与耗时。
func Finish(g geometry.Geometry, start time.Time) Result {
	return Result{
		BoundingBox: g.Bounds(),
		Frame:       g.Frame(),
		Success:     true,
		Elapsed:     time.Since(start),
	}
}

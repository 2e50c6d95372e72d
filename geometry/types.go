package geometry

import "math"

// 该文件定义放置、画布与派生几何类型，供手势解析、各渲染器与一致性校验共用。

// 放置与缩放的取值范围。
const (
	MinScale = 0.5
	MaxScale = 3.0
)

// Point 表示一个二维坐标，单位由使用方决定（归一化或像素）。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add 返回 p+q。
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub 返回 p-q。
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Finite 判断两个分量是否都是有限数。
func (p Point) Finite() bool { return finite(p.X) && finite(p.Y) }

// Placement 是一个文本元素唯一需要持久化的状态。
// Position 为文本框中心点相对画布宽高的比例（0~1）；Scale 作用于基准字号；Rotation 为角度，累计不取模。
type Placement struct {
	Position Point   `json:"position"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// DefaultPlacement 返回元素首次获得文本时的默认放置。
func DefaultPlacement() Placement {
	return Placement{Position: Point{X: 0.5, Y: 0.25}, Scale: 1, Rotation: 0}
}

// Clamp 在进入引擎之前校验并截断放置，非法值回退为默认值。
func (p Placement) Clamp() Placement {
	def := DefaultPlacement()
	out := p
	if !finite(out.Position.X) {
		out.Position.X = def.Position.X
	}
	if !finite(out.Position.Y) {
		out.Position.Y = def.Position.Y
	}
	out.Position.X = clamp(out.Position.X, 0, 1)
	out.Position.Y = clamp(out.Position.Y, 0, 1)
	out.Scale = ClampScale(out.Scale)
	if !finite(out.Rotation) {
		out.Rotation = 0
	}
	return out
}

// DisplayRotation 返回 [0,360) 区间内的角度，仅用于展示。
func (p Placement) DisplayRotation() float64 {
	r := math.Mod(p.Rotation, 360)
	if r < 0 {
		r += 360
	}
	return r
}

// ClampScale 将缩放截断到 [MinScale, MaxScale]，NaN/Inf 视为 1。
func ClampScale(s float64) float64 {
	if !finite(s) {
		return 1
	}
	return clamp(s, MinScale, MaxScale)
}

// CanvasContext 描述某个渲染器的目标画布。ResolutionScale = 目标宽度 / ReferenceWidth，
// 用于把“参考设备宽度”下定义的像素常量（内边距、阴影）按比例放大到目标分辨率。
type CanvasContext struct {
	Width           uint32  `json:"width"`
	Height          uint32  `json:"height"`
	ResolutionScale float64 `json:"resolutionScale"`
}

// Sanitized 返回 ResolutionScale 合法（有限且大于 0）的副本。
func (c CanvasContext) Sanitized() CanvasContext {
	if !finite(c.ResolutionScale) || c.ResolutionScale <= 0 {
		c.ResolutionScale = 1
	}
	return c
}

// Size 以 float64 返回画布宽高。
func (c CanvasContext) Size() (float64, float64) {
	return float64(c.Width), float64(c.Height)
}

// Transform 是放置在具体画布上的像素变换。平移量对应文本框左上角。
type Transform struct {
	TranslateX  float64 `json:"translateX"`
	TranslateY  float64 `json:"translateY"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	RotationDeg float64 `json:"rotationDeg"`
}

// Shadow 描述文本阴影的偏移与模糊半径（像素）。
type Shadow struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
}

// TextBlockBox 是估算得到的文本框尺寸，每次渲染都要按当前画布重新计算，不能跨画布缓存。
type TextBlockBox struct {
	PixelWidth   float64 `json:"pixelWidth"`
	PixelHeight  float64 `json:"pixelHeight"`
	PaddingH     float64 `json:"paddingH"`
	PaddingV     float64 `json:"paddingV"`
	CornerRadius float64 `json:"cornerRadius"`
	FontSize     float64 `json:"fontSize"`
	LineHeight   float64 `json:"lineHeight"`
	Lines        int     `json:"lines"`
	LineWidth    float64 `json:"lineWidth"`
	Shadow       Shadow  `json:"shadow"`

	// LetterSpacing 为相邻字形簇之间额外的像素间距。
	LetterSpacing float64 `json:"letterSpacing,omitempty"`
}

// Empty 表示空文本得到的零尺寸文本框，调用方应跳过背景与阴影绘制。
func (b TextBlockBox) Empty() bool {
	return b.PixelWidth == 0 && b.PixelHeight == 0
}

// Rect 是像素坐标系下的轴对齐矩形。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center 返回矩形中心。
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains 判断 o 是否完全位于 r 内（允许 eps 的浮点误差）。
func (r Rect) Contains(o Rect, eps float64) bool {
	return o.X >= r.X-eps && o.Y >= r.Y-eps &&
		o.X+o.Width <= r.X+r.Width+eps &&
		o.Y+o.Height <= r.Y+r.Height+eps
}

// Normalize 把像素矩形换算为相对画布宽高的比例。
func (r Rect) Normalize(c CanvasContext) Rect {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{X: r.X / w, Y: r.Y / h, Width: r.Width / w, Height: r.Height / h}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

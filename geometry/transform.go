package geometry

import "math"

// ComputeTransform 把归一化放置换算为画布像素变换。文本框按中心锚定：
// translate = 中心像素 - 文本框尺寸/2。纯算术，不做任何取整，取整只在最终绘制时进行。
// 所有渲染器都必须调用它而不是自行推导公式。
func ComputeTransform(p Placement, c CanvasContext, boxWidth, boxHeight float64) Transform {
	w, h := c.Size()
	return Transform{
		TranslateX:  p.Position.X*w - boxWidth/2,
		TranslateY:  p.Position.Y*h - boxHeight/2,
		ScaleX:      p.Scale,
		ScaleY:      p.Scale,
		RotationDeg: p.Rotation,
	}
}

// CenterToTopLeft 将归一化中心点换算为文本框左上角像素坐标。
func CenterToTopLeft(center Point, c CanvasContext, boxWidth, boxHeight float64) Point {
	w, h := c.Size()
	return Point{
		X: center.X*w - boxWidth/2,
		Y: center.Y*h - boxHeight/2,
	}
}

// TopLeftToCenter 是 CenterToTopLeft 的逆运算。画布某一边为 0 时该分量返回 0。
func TopLeftToCenter(topLeft Point, c CanvasContext, boxWidth, boxHeight float64) Point {
	w, h := c.Size()
	var out Point
	if w > 0 {
		out.X = (topLeft.X + boxWidth/2) / w
	}
	if h > 0 {
		out.Y = (topLeft.Y + boxHeight/2) / h
	}
	return out
}

// ClampTopLeft 将左上角限制在 [0, W-boxW] × [0, H-boxH] 内，使文本框完整留在画布上。
// 若文本框在某一方向上比画布还大，则在该方向上居中。
func ClampTopLeft(topLeft Point, c CanvasContext, boxWidth, boxHeight float64) Point {
	w, h := c.Size()
	return Point{
		X: clampAxis(topLeft.X, w, boxWidth),
		Y: clampAxis(topLeft.Y, h, boxHeight),
	}
}

func clampAxis(v, extent, size float64) float64 {
	if size >= extent {
		return (extent - size) / 2
	}
	return clamp(v, 0, extent-size)
}

// ContainPlacement 调整放置的中心点，使给定尺寸的文本框完整位于画布内。
func ContainPlacement(p Placement, c CanvasContext, boxWidth, boxHeight float64) Placement {
	out := p
	out.Position = MoveCenter(p.Position, Point{}, c, boxWidth, boxHeight)
	return out
}

// MoveCenter 把归一化中心按像素位移 d 平移并夹紧到画布内：
// 中心 → 左上角，加位移，夹紧，再换算回中心。
// 画布某一轴长度为 0 时无法换算，该轴保留原值。
func MoveCenter(center, d Point, c CanvasContext, boxWidth, boxHeight float64) Point {
	tl := CenterToTopLeft(center, c, boxWidth, boxHeight)
	tl = ClampTopLeft(tl.Add(d), c, boxWidth, boxHeight)
	out := TopLeftToCenter(tl, c, boxWidth, boxHeight)
	w, h := c.Size()
	if w <= 0 {
		out.X = center.X
	}
	if h <= 0 {
		out.Y = center.Y
	}
	return out
}

// Geometry 是一次渲染调用所需的全部像素几何：文本框与变换。
type Geometry struct {
	Box       TextBlockBox `json:"box"`
	Transform Transform    `json:"transform"`
}

// Resolve 估算文本框并以同一尺寸计算变换，渲染器统一通过它取得几何。
func Resolve(p Placement, text string, baseFontSize float64, c CanvasContext, maxLines int) Geometry {
	return ResolveSpaced(p, text, baseFontSize, c, maxLines, 0)
}

// ResolveSpaced 是计入字间距（参考宽度像素）的 Resolve。
func ResolveSpaced(p Placement, text string, baseFontSize float64, c CanvasContext, maxLines int, letterSpacing float64) Geometry {
	p = p.Clamp()
	box := EstimateTextBlockSpaced(text, baseFontSize, p.Scale, c, maxLines, letterSpacing)
	return Geometry{
		Box:       box,
		Transform: ComputeTransform(p, c, box.PixelWidth, box.PixelHeight),
	}
}

// Frame 返回未旋转的文本框像素矩形。
func (g Geometry) Frame() Rect {
	return Rect{
		X:      g.Transform.TranslateX,
		Y:      g.Transform.TranslateY,
		Width:  g.Box.PixelWidth,
		Height: g.Box.PixelHeight,
	}
}

// Corners 返回绕文本框中心旋转后的四个角，顺序为左上、右上、右下、左下。
func (g Geometry) Corners() [4]Point {
	f := g.Frame()
	c := f.Center()
	rad := g.Transform.RotationDeg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	hw, hh := f.Width/2, f.Height/2
	local := [4]Point{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	var out [4]Point
	for i, p := range local {
		out[i] = Point{
			X: c.X + p.X*cos - p.Y*sin,
			Y: c.Y + p.X*sin + p.Y*cos,
		}
	}
	return out
}

// Bounds 返回旋转后文本框的轴对齐包围盒。
func (g Geometry) Bounds() Rect {
	corners := g.Corners()
	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := minX, minY
	for _, p := range corners[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

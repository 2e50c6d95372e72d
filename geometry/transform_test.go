package geometry

import (
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// TestHelloScenario 覆盖 1080×1920 画布上的 "Hello" 放置。
func TestHelloScenario(t *testing.T) {
	p := DefaultPlacement()
	c := CanvasContext{Width: 1080, Height: 1920, ResolutionScale: 1080.0 / 375.0}

	box := EstimateTextBlock("Hello", 24, p.Scale, c, 3)
	if box.Lines != 1 {
		t.Fatalf("期望单行，实际 %d 行", box.Lines)
	}
	if !almostEqual(box.FontSize, 69.12, 1e-9) {
		t.Fatalf("字号期望 69.12，实际 %g", box.FontSize)
	}
	wantW := 5*CharWidthRatio*69.12 + 2*16*2.88
	wantH := 69.12*1.2 + 2*8*2.88
	if !almostEqual(box.PixelWidth, wantW, eps) || !almostEqual(box.PixelHeight, wantH, eps) {
		t.Fatalf("文本框尺寸错误: got=%gx%g want=%gx%g", box.PixelWidth, box.PixelHeight, wantW, wantH)
	}

	tr := ComputeTransform(p, c, box.PixelWidth, box.PixelHeight)
	if !almostEqual(tr.TranslateX, 540-box.PixelWidth/2, eps) {
		t.Fatalf("translateX 错误: %g", tr.TranslateX)
	}
	if !almostEqual(tr.TranslateY, 480-box.PixelHeight/2, eps) {
		t.Fatalf("translateY 错误: %g", tr.TranslateY)
	}
	if tr.ScaleX != 1 || tr.ScaleY != 1 || tr.RotationDeg != 0 {
		t.Fatalf("缩放/旋转错误: %+v", tr)
	}
}

func TestComputeTransformDeterministic(t *testing.T) {
	p := Placement{Position: Point{X: 0.3183, Y: 0.7071}, Scale: 1.7, Rotation: -33.3}
	c := NewCanvasContext(1080, 1920)
	a := ComputeTransform(p, c, 311.7, 122.9)
	b := ComputeTransform(p, c, 311.7, 122.9)
	if a != b {
		t.Fatalf("相同输入得到不同输出: %+v vs %+v", a, b)
	}
	ba := EstimateTextBlock("determinism ✨ check", 24, 1.7, c, 3)
	bb := EstimateTextBlock("determinism ✨ check", 24, 1.7, c, 3)
	if ba != bb {
		t.Fatalf("估算结果不确定: %+v vs %+v", ba, bb)
	}
}

// TestCenterTopLeftRoundTrip 验证中心点 ↔ 左上角换算在随机输入下的对称性。
func TestCenterTopLeftRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	texts := []string{"Hello", "a much longer caption that is going to wrap over lines", "🔥🔥", "line\nbreak"}
	for i := 0; i < 2000; i++ {
		w := uint32(200 + rng.Intn(2000))
		h := uint32(200 + rng.Intn(3000))
		c := NewCanvasContext(w, h)
		p := Placement{
			Position: Point{X: rng.Float64(), Y: rng.Float64()},
			Scale:    MinScale + rng.Float64()*(MaxScale-MinScale),
			Rotation: rng.Float64()*720 - 360,
		}
		box := EstimateTextBlock(texts[i%len(texts)], 24, p.Scale, c, 3)
		tl := CenterToTopLeft(p.Position, c, box.PixelWidth, box.PixelHeight)
		back := TopLeftToCenter(tl, c, box.PixelWidth, box.PixelHeight)
		if !almostEqual(back.X, p.Position.X, 1e-6) || !almostEqual(back.Y, p.Position.Y, 1e-6) {
			t.Fatalf("往返误差过大: in=%+v back=%+v", p.Position, back)
		}
	}
}

func TestClampTopLeftKeepsBoxOnCanvas(t *testing.T) {
	c := NewCanvasContext(1080, 1920)
	tests := []struct {
		name string
		in   Point
		want Point
	}{
		{"inside", Point{X: 100, Y: 200}, Point{X: 100, Y: 200}},
		{"left-top overflow", Point{X: -50, Y: -10}, Point{X: 0, Y: 0}},
		{"right-bottom overflow", Point{X: 1000, Y: 1900}, Point{X: 1080 - 300, Y: 1920 - 120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampTopLeft(tt.in, c, 300, 120)
			if !almostEqual(got.X, tt.want.X, eps) || !almostEqual(got.Y, tt.want.Y, eps) {
				t.Errorf("ClampTopLeft(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampTopLeftOversizedBoxIsCentered(t *testing.T) {
	c := NewCanvasContext(400, 400)
	got := ClampTopLeft(Point{X: 90, Y: 10}, c, 500, 100)
	if !almostEqual(got.X, -50, eps) {
		t.Fatalf("超宽文本框应水平居中: got=%g", got.X)
	}
	if !almostEqual(got.Y, 10, eps) {
		t.Fatalf("纵向不应被修改: got=%g", got.Y)
	}
}

func TestContainPlacement(t *testing.T) {
	c := NewCanvasContext(1080, 1920)
	p := Placement{Position: Point{X: 0.99, Y: 0.01}, Scale: 1}
	out := ContainPlacement(p, c, 300, 120)
	g := Geometry{
		Box:       TextBlockBox{PixelWidth: 300, PixelHeight: 120},
		Transform: ComputeTransform(out, c, 300, 120),
	}
	canvas := Rect{Width: 1080, Height: 1920}
	if !canvas.Contains(g.Frame(), 1e-9) {
		t.Fatalf("文本框应完整位于画布内: %+v", g.Frame())
	}
}

func TestMoveCenterDegenerateAxis(t *testing.T) {
	center := Point{X: 0.3, Y: 0.7}
	got := MoveCenter(center, Point{X: 10, Y: 10}, NewCanvasContext(0, 100), 50, 20)
	if got.X != 0.3 {
		t.Fatalf("宽为 0 时横向应保留原值: got=%g", got.X)
	}
	if !almostEqual(got.Y, 0.8, eps) {
		t.Fatalf("纵向应正常平移: got=%g", got.Y)
	}
	got = MoveCenter(center, Point{}, NewCanvasContext(200, 0), 50, 20)
	if got.Y != 0.7 || !almostEqual(got.X, 0.3, eps) {
		t.Fatalf("高为 0 时纵向应保留原值: got=%+v", got)
	}
}

func TestGeometryBoundsRotation(t *testing.T) {
	g := Geometry{
		Box:       TextBlockBox{PixelWidth: 200, PixelHeight: 100},
		Transform: Transform{TranslateX: 100, TranslateY: 100, ScaleX: 1, ScaleY: 1, RotationDeg: 90},
	}
	b := g.Bounds()
	if !almostEqual(b.Width, 100, 1e-9) || !almostEqual(b.Height, 200, 1e-9) {
		t.Fatalf("90° 旋转后包围盒应交换宽高: %+v", b)
	}
	if c := b.Center(); !almostEqual(c.X, 200, 1e-9) || !almostEqual(c.Y, 150, 1e-9) {
		t.Fatalf("旋转应围绕中心进行: %+v", c)
	}

	g.Transform.RotationDeg = 0
	if b := g.Bounds(); b != g.Frame() {
		t.Fatalf("未旋转时包围盒应等于文本框: %+v vs %+v", b, g.Frame())
	}
}

func TestPlacementClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Placement
		want Placement
	}{
		{"valid", Placement{Position: Point{X: 0.2, Y: 0.3}, Scale: 1.5, Rotation: 400}, Placement{Position: Point{X: 0.2, Y: 0.3}, Scale: 1.5, Rotation: 400}},
		{"out of range", Placement{Position: Point{X: -1, Y: 2}, Scale: 9, Rotation: 0}, Placement{Position: Point{X: 0, Y: 1}, Scale: 3, Rotation: 0}},
		{"tiny scale", Placement{Position: Point{X: 0.5, Y: 0.5}, Scale: 0.1}, Placement{Position: Point{X: 0.5, Y: 0.5}, Scale: 0.5}},
		{"nan", Placement{Position: Point{X: math.NaN(), Y: math.Inf(1)}, Scale: math.NaN(), Rotation: math.NaN()}, DefaultPlacement()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(); got != tt.want {
				t.Errorf("Clamp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDisplayRotation(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {45, 45}, {360, 0}, {370, 10}, {-10, 350}, {-730, 350},
	}
	for _, tt := range tests {
		p := Placement{Rotation: tt.in}
		if got := p.DisplayRotation(); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("DisplayRotation(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestResolveMatchesParts(t *testing.T) {
	c := NewCanvasContext(720, 1280)
	p := Placement{Position: Point{X: 0.4, Y: 0.6}, Scale: 2, Rotation: 15}
	g := Resolve(p, "Sunset vibes", 24, c, 3)
	box := EstimateTextBlock("Sunset vibes", 24, 2, c, 3)
	if g.Box != box {
		t.Fatalf("Resolve 文本框不一致: %+v vs %+v", g.Box, box)
	}
	if g.Transform != ComputeTransform(p, c, box.PixelWidth, box.PixelHeight) {
		t.Fatalf("Resolve 变换不一致: %+v", g.Transform)
	}
}

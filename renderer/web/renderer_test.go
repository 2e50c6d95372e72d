package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/renderer"
)

func request(style geometry.TextStyle, text string) renderer.Request {
	return renderer.Request{
		Placement:    geometry.Placement{Position: geometry.Point{X: 0.5, Y: 0.25}, Scale: 1, Rotation: 20},
		Style:        style,
		Canvas:       geometry.NewCanvasContext(375, 667),
		Text:         text,
		BaseFontSize: 24,
		MaxLines:     3,
	}
}

func TestDocumentPositionsCaption(t *testing.T) {
	req := request(geometry.TextStyle{Color: geometry.White, Background: geometry.BackgroundHalf}, "Hello <b>")
	g := renderer.Scene(req)
	page, _, err := buildDocument(req, g)
	if err != nil {
		t.Fatalf("buildDocument error: %v", err)
	}
	for _, want := range []string{
		`id="caption"`,
		fmt.Sprintf("left: %.4fpx", g.Transform.TranslateX),
		fmt.Sprintf("top: %.4fpx", g.Transform.TranslateY),
		"transform: rotate(20.0000deg)",
		"transform-origin: center center",
		"background-color: rgba(0,0,0,0.502)",
		"Hello &lt;b&gt;",
		"@font-face",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "text-shadow") {
		t.Error("半透明背景不应绘制阴影")
	}
}

func TestDocumentStyles(t *testing.T) {
	tests := []struct {
		name  string
		style geometry.TextStyle
		want  []string
		not   []string
	}{
		{
			name:  "shadow",
			style: geometry.TextStyle{Color: geometry.Color{R: 255, A: 255}},
			want:  []string{"text-shadow:", "color: rgba(255,0,0,1.000)"},
			not:   []string{"background-color"},
		},
		{
			name: "gradient",
			style: geometry.TextStyle{Gradient: []geometry.GradientStop{
				{Offset: 0, Color: geometry.White}, {Offset: 1, Color: geometry.Black},
			}},
			want: []string{"linear-gradient(to right, rgba(255,255,255,1.000) 0.00%, rgba(0,0,0,1.000) 100.00%)", "background-clip: text"},
			not:  []string{"text-shadow"},
		},
		{
			name:  "white",
			style: geometry.TextStyle{Background: geometry.BackgroundWhite, LetterSpacing: 2},
			want:  []string{"background-color: rgba(255,255,255,1.000)", "color: rgba(0,0,0,1.000)", "letter-spacing: 2.0000px", "margin-right: -2.0000px"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(tt.style, "Hi")
			page, _, err := buildDocument(req, renderer.Scene(req))
			if err != nil {
				t.Fatalf("buildDocument error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(page, w) {
					t.Errorf("page missing %q", w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(page, n) {
					t.Errorf("page should not contain %q", n)
				}
			}
		})
	}
}

func TestDocumentEmptyText(t *testing.T) {
	req := request(geometry.DefaultTextStyle(), " ")
	page, _, err := buildDocument(req, renderer.Scene(req))
	if err != nil {
		t.Fatalf("buildDocument error: %v", err)
	}
	if strings.Contains(page, `id="caption"`) {
		t.Fatal("空文本不应生成元素")
	}
}

func TestDocumentUsesSharedLines(t *testing.T) {
	req := request(geometry.TextStyle{Background: geometry.BackgroundFull, LetterSpacing: 1}, "WWWW MMMM WWWW MMMM WWWW MMMM WWWW MMMM")
	req.MaxLines = 2
	page, lines, err := buildDocument(req, renderer.Scene(req))
	if err != nil {
		t.Fatalf("buildDocument error: %v", err)
	}
	want := renderer.Lines(req.Text, renderer.Scene(req).Box)
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("页面行应与共享折行一致:\n got=%q\nwant=%q", lines, want)
	}
	for _, line := range lines {
		if !strings.Contains(page, "<span>"+line+"</span>") {
			t.Errorf("page missing line %q", line)
		}
	}
}

func TestDocumentStretchesPhoto(t *testing.T) {
	req := request(geometry.DefaultTextStyle(), "Hi")
	req.Photo = image.NewRGBA(image.Rect(0, 0, 10, 10))
	page, _, err := buildDocument(req, renderer.Scene(req))
	if err != nil {
		t.Fatalf("buildDocument error: %v", err)
	}
	const marker = "base64,"
	i := strings.Index(page, "background-image: url(data:image/png;"+marker)
	if i < 0 {
		t.Fatal("page missing photo")
	}
	encoded := page[i+len("background-image: url(data:image/png;"+marker):]
	encoded = encoded[:strings.IndexByte(encoded, ')')]
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 375 || cfg.Height != 667 {
		t.Fatalf("照片应预先拉伸到画布尺寸，实际 %dx%d", cfg.Width, cfg.Height)
	}
}

// 需要本机安装 Chrome/Chromium；CI 中通过 CHROME_PATH 指定。
func TestRenderMatchesEngineBounds(t *testing.T) {
	chrome := LookChrome()
	if chrome == "" {
		t.Skip("chrome not installed")
	}
	r := New(Options{ExecPath: chrome, Headless: true, NoSandbox: os.Geteuid() == 0})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req := request(geometry.TextStyle{Color: geometry.White, Background: geometry.BackgroundFull}, "Hello")
	res, err := r.Render(ctx, req)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	want := renderer.Scene(req).Bounds()
	got := res.BoundingBox
	if math.Abs(got.X-want.X) > 1 || math.Abs(got.Y-want.Y) > 1 ||
		math.Abs(got.Width-want.Width) > 1 || math.Abs(got.Height-want.Height) > 1 {
		t.Fatalf("DOM 包围盒与引擎不一致:\n got=%+v\nwant=%+v", got, want)
	}
	if len(res.Image) == 0 {
		t.Fatal("expected screenshot")
	}
}

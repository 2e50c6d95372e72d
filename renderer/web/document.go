package web

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"image"
	"image/png"
	"strings"
	"text/template"

	"github.com/ByLCY/placard/fonts"
	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/renderer"
)

// captionID 是文本元素在页面中的 id。
const captionID = "caption"

var documentTmpl = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
@font-face { font-family: "{{.Family}}"; src: url(data:font/ttf;base64,{{.Font}}) format("truetype"); }
html, body { margin: 0; padding: 0; width: {{.Width}}px; height: {{.Height}}px; overflow: hidden; background: transparent; }
body { position: relative;{{if .Photo}} background-image: url(data:image/png;base64,{{.Photo}}); background-size: 100% 100%;{{end}} }
#{{.ID}} { {{.Style}} }
#{{.ID}} span { display: inline-block;{{.SpanStyle}} }
</style></head>
<body>{{if .Lines}}<div id="{{.ID}}">{{.Lines}}</div>{{end}}</body></html>`))

type document struct {
	Family string
	Font   string
	Width  uint32
	Height uint32
	Photo  string
	ID     string
	Style  string
	Lines  string

	SpanStyle string
}

// buildDocument 生成只含一个绝对定位 div 的页面。几何全部来自共享引擎，
// 浏览器只负责绘制；折行在 Go 侧完成，保证与其他渲染器行数一致。
// 返回页面与其中的各行文本。
func buildDocument(req renderer.Request, g geometry.Geometry) (string, []string, error) {
	style := req.Style
	variant := fonts.Pick(style.Bold(), style.Italic())
	doc := document{
		Family: fonts.FamilyName,
		Font:   base64.StdEncoding.EncodeToString(variant.Bytes()),
		Width:  req.Canvas.Width,
		Height: req.Canvas.Height,
		ID:     captionID,
	}
	if fitted := renderer.FitPhoto(req.Photo, int(req.Canvas.Width), int(req.Canvas.Height), nil); fitted != nil {
		photo, err := encodePhoto(fitted)
		if err != nil {
			return "", nil, err
		}
		doc.Photo = photo
	}
	var lines []string
	if !g.Box.Empty() {
		doc.Style = captionCSS(req, g)
		if g.Box.LetterSpacing != 0 {
			// letter-spacing 也加在最后一个字形之后，抵消它以保持居中
			doc.SpanStyle = fmt.Sprintf(" margin-right: %.4fpx;", -g.Box.LetterSpacing)
		}
		lines = renderer.Lines(req.Text, g.Box)
		parts := make([]string, len(lines))
		for i, line := range lines {
			parts[i] = "<span>" + html.EscapeString(line) + "</span>"
		}
		doc.Lines = strings.Join(parts, "<br>")
	}

	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, doc); err != nil {
		return "", nil, fmt.Errorf("web: 生成页面失败: %w", err)
	}
	return buf.String(), lines, nil
}

func captionCSS(req renderer.Request, g geometry.Geometry) string {
	box, t, style := g.Box, g.Transform, req.Style
	decl := []string{
		"position: absolute",
		"box-sizing: border-box",
		"margin: 0",
		fmt.Sprintf("left: %.4fpx", t.TranslateX),
		fmt.Sprintf("top: %.4fpx", t.TranslateY),
		fmt.Sprintf("width: %.4fpx", box.PixelWidth),
		fmt.Sprintf("height: %.4fpx", box.PixelHeight),
		fmt.Sprintf("padding: %.4fpx %.4fpx", box.PaddingV, box.PaddingH),
		fmt.Sprintf("border-radius: %.4fpx", box.CornerRadius),
		fmt.Sprintf("font-family: %q", fonts.FamilyName),
		fmt.Sprintf("font-size: %.4fpx", box.FontSize),
		fmt.Sprintf("line-height: %.4fpx", box.LineHeight),
		"text-align: center",
		"white-space: pre",
		"overflow: visible",
		fmt.Sprintf("transform: rotate(%.4fdeg)", t.RotationDeg),
		"transform-origin: center center",
	}
	if bg := style.Backdrop(); bg.A > 0 {
		decl = append(decl, "background-color: "+bg.CSS())
	}
	if box.LetterSpacing != 0 {
		decl = append(decl, fmt.Sprintf("letter-spacing: %.4fpx", box.LetterSpacing))
	}
	switch {
	case style.HasGradient():
		stops := make([]string, len(style.Gradient))
		for i, s := range style.Gradient {
			stops[i] = fmt.Sprintf("%s %.2f%%", s.Color.CSS(), s.Offset*100)
		}
		decl = append(decl,
			"background-image: linear-gradient(to right, "+strings.Join(stops, ", ")+")",
			"-webkit-background-clip: text",
			"background-clip: text",
			"color: transparent",
		)
	case style.HasShadow():
		decl = append(decl,
			"color: "+style.Fill().CSS(),
			fmt.Sprintf("text-shadow: %.4fpx %.4fpx %.4fpx %s",
				box.Shadow.OffsetX, box.Shadow.OffsetY, box.Shadow.Blur, geometry.ShadowColor.CSS()),
		)
	default:
		decl = append(decl, "color: "+style.Fill().CSS())
	}
	return strings.Join(decl, "; ") + ";"
}

func encodePhoto(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("web: 编码背景照片失败: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

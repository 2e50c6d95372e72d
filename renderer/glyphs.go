package renderer

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ByLCY/placard/geometry"
)

// Glyph 是一行中的一个字形簇及其相对行首的水平偏移。
type Glyph struct {
	Text string
	X    float64
}

// Track 按字间距排布一行：spacing 为 0 时整行作为一个 Glyph；
// 否则逐簇测量，相邻簇之间加 spacing。返回排布和总宽度。
func Track(line string, spacing float64, measure func(string) float64) ([]Glyph, float64) {
	if spacing == 0 {
		return []Glyph{{Text: line}}, measure(line)
	}
	clusters := geometry.Clusters(line)
	glyphs := make([]Glyph, len(clusters))
	x := 0.0
	for i, c := range clusters {
		if i > 0 {
			x += spacing
		}
		glyphs[i] = Glyph{Text: c, X: x}
		x += measure(c)
	}
	return glyphs, x
}

// FitPhoto 把照片拉伸到 width × height，与网页端 background-size: 100% 100% 一致。
// scaler 为 nil 时使用 draw.CatmullRom。照片为空时返回 nil。
func FitPhoto(photo image.Image, width, height int, scaler draw.Scaler) *image.RGBA {
	if photo == nil || photo.Bounds().Empty() || width <= 0 || height <= 0 {
		return nil
	}
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), photo, photo.Bounds(), draw.Src, nil)
	return dst
}

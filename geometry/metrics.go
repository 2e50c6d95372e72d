package geometry

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// EstimateTextBlock 在没有真实排版引擎的情况下估算文本框尺寸（行数、宽高、内边距）。
// 服务端导出没有同步文字测量能力，因此所有渲染器都使用这一字符计数估算以保证结果一致。
//
// 规则：
//   - 有效字号 = baseFontSize * scale * resolutionScale；
//   - 含显式换行时按换行拆分，行数上限为 maxLines，宽度取最宽一行；
//   - 否则按估算整段宽度除以 0.8*画布宽度 得到折行数（上限 maxLines）；
//   - 宽 = 行宽 + 2*paddingH，高 = 行数*字号*1.2 + 2*paddingV。
//
// 该函数永远不会失败：空文本返回零尺寸文本框，非法参数回退为默认值。
func EstimateTextBlock(text string, baseFontSize, scale float64, c CanvasContext, maxLines int) TextBlockBox {
	return EstimateTextBlockSpaced(text, baseFontSize, scale, c, maxLines, 0)
}

// EstimateTextBlockSpaced 与 EstimateTextBlock 相同，但额外计入字间距。
// letterSpacing 以参考宽度的像素给出，按分辨率比例缩放后加在相邻字形簇之间。
func EstimateTextBlockSpaced(text string, baseFontSize, scale float64, c CanvasContext, maxLines int, letterSpacing float64) TextBlockBox {
	c = c.Sanitized()
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	fontSize := c.FontSize(baseFontSize, scale)
	if !finite(letterSpacing) {
		letterSpacing = 0
	}
	box := TextBlockBox{
		PaddingH:     c.Scaled(PaddingH),
		PaddingV:     c.Scaled(PaddingV),
		CornerRadius: c.Scaled(CornerRadius),
		FontSize:     fontSize,
		LineHeight:   fontSize * LineHeightRatio,
		Shadow: Shadow{
			OffsetX: c.Scaled(ShadowOffset),
			OffsetY: c.Scaled(ShadowOffset),
			Blur:    c.Scaled(ShadowBlur),
		},
		LetterSpacing: c.Scaled(letterSpacing),
	}

	text = NormalizeText(text)
	if strings.TrimSpace(text) == "" {
		return box
	}

	wrapWidth := math.Inf(1)
	if c.Width > 0 {
		wrapWidth = WrapWidthRatio * float64(c.Width)
	}

	lines, lineWidth := estimateLines(text, box.EstimateLine, wrapWidth, maxLines)
	box.Lines = lines
	box.LineWidth = lineWidth
	box.PixelWidth = lineWidth + 2*box.PaddingH
	box.PixelHeight = float64(lines)*box.LineHeight + 2*box.PaddingV
	return box
}

// EstimateLineWidth 返回单行文本在给定字号下的估算像素宽度。
func EstimateLineWidth(line string, fontSize float64) float64 {
	return textWeight(line) * CharWidthRatio * fontSize
}

// EstimateLine 返回单行文本在该文本框字号与字间距下的估算宽度。
func (b TextBlockBox) EstimateLine(line string) float64 {
	width := EstimateLineWidth(line, b.FontSize)
	if b.LetterSpacing != 0 {
		if n := len(Clusters(line)); n > 1 {
			width += b.LetterSpacing * float64(n-1)
		}
	}
	return width
}

func estimateLines(text string, measure func(string) float64, wrapWidth float64, maxLines int) (int, float64) {
	if strings.Contains(text, "\n") {
		segments := strings.Split(text, "\n")
		if len(segments) > maxLines {
			segments = segments[:maxLines]
		}
		widest := 0.0
		for _, seg := range segments {
			widest = math.Max(widest, measure(seg))
		}
		return len(segments), math.Min(widest, wrapWidth)
	}

	full := measure(text)
	lines := 1
	if !math.IsInf(wrapWidth, 1) && wrapWidth > 0 && full > wrapWidth {
		lines = int(math.Ceil(full / wrapWidth))
	}
	if lines > maxLines {
		lines = maxLines
	}
	return lines, math.Min(full/float64(lines), wrapWidth)
}

// NormalizeText 统一换行符并做 NFC 规范化，使分解形式与组合形式的输入得到相同的计数。
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}

package geometry

import (
	"math"
	"strings"
	"testing"
)

// 375 宽画布：分辨率比例为 1，字号 24 时每个普通字符宽 13.2px，折行宽度 300px。
var refCanvas = NewCanvasContext(375, 667)

const refCharWidth = CharWidthRatio * 24

func TestEstimateEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		box := EstimateTextBlock(text, 24, 1, refCanvas, 3)
		if !box.Empty() {
			t.Fatalf("空文本 %q 应返回零尺寸文本框，实际 %+v", text, box)
		}
		if box.Lines != 0 {
			t.Fatalf("空文本 %q 行数应为 0，实际 %d", text, box.Lines)
		}
	}
}

func TestEstimateWrapsLongText(t *testing.T) {
	text := strings.Repeat("a", 50) // 660px → 3 行
	box := EstimateTextBlock(text, 24, 1, refCanvas, 3)
	if box.Lines != 3 {
		t.Fatalf("期望 3 行，实际 %d", box.Lines)
	}
	if want := 50 * refCharWidth / 3; !almostEqual(box.LineWidth, want, 1e-9) {
		t.Fatalf("平均行宽错误: got=%g want=%g", box.LineWidth, want)
	}
	wantH := 3*24*LineHeightRatio + 2*PaddingV
	if !almostEqual(box.PixelHeight, wantH, 1e-9) {
		t.Fatalf("高度错误: got=%g want=%g", box.PixelHeight, wantH)
	}
}

func TestEstimateCapsAtMaxLines(t *testing.T) {
	text := strings.Repeat("word ", 20) // 100 字符 → 1320px → 5 行，截断为 3
	box := EstimateTextBlock(text, 24, 1, refCanvas, 3)
	if box.Lines != 3 {
		t.Fatalf("期望截断为 3 行，实际 %d", box.Lines)
	}
	if !almostEqual(box.LineWidth, 300, 1e-9) {
		t.Fatalf("行宽不应超过折行宽度: got=%g", box.LineWidth)
	}
	if !almostEqual(box.PixelWidth, 300+2*PaddingH, 1e-9) {
		t.Fatalf("宽度错误: %g", box.PixelWidth)
	}
}

func TestEstimateExplicitBreaks(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLines  int
		wantLines int
		wantWidth float64
	}{
		{"two lines", "a\nbbb", 3, 2, 3 * refCharWidth},
		{"crlf", "abcd\r\nb", 3, 2, 4 * refCharWidth},
		{"blank middle", "foo\n\nbar", 3, 3, 3 * refCharWidth},
		{"capped", "a\nb\nc\nlongest", 3, 3, refCharWidth},
		{"default max", "a\nb\nc\nd", 0, 3, refCharWidth},
		{"wide line capped", strings.Repeat("x", 40) + "\ny", 3, 2, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := EstimateTextBlock(tt.text, 24, 1, refCanvas, tt.maxLines)
			if box.Lines != tt.wantLines {
				t.Errorf("lines = %d, want %d", box.Lines, tt.wantLines)
			}
			if !almostEqual(box.LineWidth, tt.wantWidth, 1e-9) {
				t.Errorf("line width = %g, want %g", box.LineWidth, tt.wantWidth)
			}
		})
	}
}

func TestEstimateEmojiWeight(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"ascii", "abc", 3},
		{"emoji", "🔥", EmojiWeight},
		{"emoji with selector", "❤️", EmojiWeight},
		{"zwj family", "👨‍👩‍👧", EmojiWeight},
		{"skin tone", "👍🏽", EmojiWeight},
		{"flag", "🇺🇸", EmojiWeight},
		{"two flags", "🇺🇸🇫🇷", 2 * EmojiWeight},
		{"mixed", "hi 🔥", 3 + EmojiWeight},
		{"combining", "e\u0301", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textWeight(NormalizeText(tt.text)); !almostEqual(got, tt.want, 1e-12) {
				t.Errorf("textWeight(%q) = %g, want %g", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateNormalizesInput(t *testing.T) {
	composed := EstimateTextBlock("café", 24, 1, refCanvas, 3)
	decomposed := EstimateTextBlock("cafe\u0301", 24, 1, refCanvas, 3)
	if composed != decomposed {
		t.Fatalf("组合与分解形式应得到相同结果: %+v vs %+v", composed, decomposed)
	}
}

func TestEstimateScalesConstants(t *testing.T) {
	c := NewCanvasContext(1080, 1920)
	box := EstimateTextBlock("Hi", 24, 1, c, 3)
	rs := 1080.0 / 375.0
	if !almostEqual(box.PaddingH, 16*rs, 1e-9) || !almostEqual(box.PaddingV, 8*rs, 1e-9) || !almostEqual(box.CornerRadius, 8*rs, 1e-9) {
		t.Fatalf("设计常量未按分辨率缩放: %+v", box)
	}
	if !almostEqual(box.Shadow.OffsetX, ShadowOffset*rs, 1e-9) || !almostEqual(box.Shadow.Blur, ShadowBlur*rs, 1e-9) {
		t.Fatalf("阴影未按分辨率缩放: %+v", box.Shadow)
	}
}

func TestEstimateDegenerateInputs(t *testing.T) {
	box := EstimateTextBlock("Hello", math.NaN(), math.NaN(), CanvasContext{}, -1)
	if box.Lines != 1 {
		t.Fatalf("零画布不应折行: %d", box.Lines)
	}
	if !almostEqual(box.FontSize, DefaultFontSize, 1e-9) {
		t.Fatalf("非法字号应回退默认值: %g", box.FontSize)
	}
	if box.PixelWidth <= 0 || math.IsNaN(box.PixelWidth) {
		t.Fatalf("退化输入仍应得到可显示的文本框: %+v", box)
	}
}

func TestEstimateScaleGrowsBox(t *testing.T) {
	small := EstimateTextBlock("Hello", 24, 1, refCanvas, 3)
	large := EstimateTextBlock("Hello", 24, 2, refCanvas, 3)
	if !almostEqual(large.FontSize, 2*small.FontSize, 1e-9) {
		t.Fatalf("字号应随缩放翻倍: %g vs %g", large.FontSize, small.FontSize)
	}
	if large.PixelWidth <= small.PixelWidth || large.PixelHeight <= small.PixelHeight {
		t.Fatalf("放大后文本框应变大: %+v vs %+v", large, small)
	}
}

type fixedMeasurer float64

func (m fixedMeasurer) MeasureLine(text string, fontSize float64) float64 {
	return float64(m) * fontSize * float64(len([]rune(text)))
}

func TestEstimateError(t *testing.T) {
	if got := EstimateError(fixedMeasurer(CharWidthRatio), "abcd", 24); !almostEqual(got, 0, 1e-12) {
		t.Fatalf("估算与实测一致时误差应为 0: %g", got)
	}
	if got := EstimateError(fixedMeasurer(CharWidthRatio*2), "abcd", 24); !almostEqual(got, -0.5, 1e-12) {
		t.Fatalf("误差比例错误: %g", got)
	}
	if got := EstimateError(nil, "abcd", 24); got != 0 {
		t.Fatalf("nil Measurer 应返回 0: %g", got)
	}
}

func TestEstimateLetterSpacing(t *testing.T) {
	c := NewCanvasContext(1080, 1920)
	plain := EstimateTextBlock("Hello", 24, 1, c, 3)
	spaced := EstimateTextBlockSpaced("Hello", 24, 1, c, 3, 2)
	gap := c.Scaled(2)
	if !almostEqual(spaced.LetterSpacing, gap, 1e-9) {
		t.Fatalf("字间距应按分辨率缩放: got=%g want=%g", spaced.LetterSpacing, gap)
	}
	if want := plain.LineWidth + 4*gap; !almostEqual(spaced.LineWidth, want, 1e-9) {
		t.Fatalf("行宽应计入 4 个间距: got=%g want=%g", spaced.LineWidth, want)
	}
	if want := plain.PixelWidth + 4*gap; !almostEqual(spaced.PixelWidth, want, 1e-9) {
		t.Fatalf("文本框宽度应随字间距增加: got=%g want=%g", spaced.PixelWidth, want)
	}
	if spaced.EstimateLine("H") != plain.EstimateLine("H") {
		t.Fatal("单个字形簇不应加间距")
	}
}

func TestEstimateLetterSpacingWraps(t *testing.T) {
	text := strings.Repeat("a", 20) // 264px，不加间距时一行
	if box := EstimateTextBlock(text, 24, 1, refCanvas, 3); box.Lines != 1 {
		t.Fatalf("期望 1 行，实际 %d", box.Lines)
	}
	box := EstimateTextBlockSpaced(text, 24, 1, refCanvas, 3, 4) // 264 + 19*4 = 340px
	if box.Lines != 2 {
		t.Fatalf("加字间距后应折为 2 行，实际 %d", box.Lines)
	}
}

func TestClusters(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"ab c", []string{"a", "b", " ", "c"}},
		{"éx", []string{"é", "x"}},
		{"👨‍👩‍👧!", []string{"👨‍👩‍👧", "!"}},
		{"🇯🇵🇫🇷", []string{"🇯🇵", "🇫🇷"}},
		{"👍🏽", []string{"👍🏽"}},
	}
	for _, tt := range tests {
		got := Clusters(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("Clusters(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

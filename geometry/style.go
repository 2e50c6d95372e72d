package geometry

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// BackgroundMode 决定文本框背景的绘制方式。
type BackgroundMode int

const (
	BackgroundNone BackgroundMode = iota // 透明背景，文字带阴影
	BackgroundHalf                       // 半透明黑底
	BackgroundFull                       // 纯黑底
	BackgroundWhite                      // 白底黑字
)

// String 返回宿主 JSON 中使用的模式名。
func (m BackgroundMode) String() string {
	switch m {
	case BackgroundHalf:
		return "half"
	case BackgroundFull:
		return "full"
	case BackgroundWhite:
		return "white"
	default:
		return "none"
	}
}

// ParseBackgroundMode 解析模式名，未知值按 none 处理。
func ParseBackgroundMode(s string) BackgroundMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half":
		return BackgroundHalf
	case "full":
		return BackgroundFull
	case "white":
		return BackgroundWhite
	default:
		return BackgroundNone
	}
}

func (m BackgroundMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *BackgroundMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("backgroundMode 必须是字符串: %w", err)
	}
	*m = ParseBackgroundMode(s)
	return nil
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// 常用颜色。
var (
	White       = Color{R: 255, G: 255, B: 255, A: 255}
	Black       = Color{A: 255}
	Transparent = Color{}
	HalfBlack   = Color{A: 128}
	ShadowColor = Color{A: 191}
)

// RGBA 实现 color.Color，返回预乘后的分量。
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(c.A)
	r = uint32(c.R) * a / 255
	g = uint32(c.G) * a / 255
	b = uint32(c.B) * a / 255
	return r * 0x101, g * 0x101, b * 0x101, a * 0x101
}

// Premultiplied 返回预乘后的 color.RGBA。
func (c Color) Premultiplied() color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

// Hex 返回 #rrggbbaa 形式的颜色字符串。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// CSS 返回 rgba() 形式的 CSS 颜色。
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, float64(c.A)/255)
}

// ParseHexColor 解析 #rgb、#rrggbb、#rrggbbaa。
func ParseHexColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]}) + "ff"
	case 6:
		v += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// GradientStop 是线性渐变的一个色标，Offset 取值 0~1。
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  Color   `json:"color"`
}

// TextStyle 是纯值对象，由宿主与 Placement 一同保存，每次调用按值传入。
type TextStyle struct {
	Color         Color          `json:"color"`
	FontWeight    string         `json:"fontWeight,omitempty"`
	FontStyle     string         `json:"fontStyle,omitempty"`
	LetterSpacing float64        `json:"letterSpacing,omitempty"`
	Gradient      []GradientStop `json:"gradient,omitempty"`
	Background    BackgroundMode `json:"backgroundMode"`
}

// DefaultTextStyle 返回白字、粗体、无背景的默认样式。
func DefaultTextStyle() TextStyle {
	return TextStyle{Color: White, FontWeight: "bold", Background: BackgroundNone}
}

// Bold 判断字重是否为粗体（bold 或 ≥600）。
func (s TextStyle) Bold() bool {
	w := strings.ToLower(strings.TrimSpace(s.FontWeight))
	switch w {
	case "bold", "bolder", "semibold", "extrabold", "black":
		return true
	}
	if n, err := strconv.Atoi(w); err == nil {
		return n >= 600
	}
	return false
}

// Italic 判断是否为斜体。
func (s TextStyle) Italic() bool {
	v := strings.ToLower(s.FontStyle)
	return v == "italic" || v == "oblique"
}

// Fill 返回文字颜色。半透明与纯黑背景强制白字，白底强制黑字。
func (s TextStyle) Fill() Color {
	switch s.Background {
	case BackgroundHalf, BackgroundFull:
		return White
	case BackgroundWhite:
		return Black
	}
	if s.Color == (Color{}) {
		return White
	}
	return s.Color
}

// Backdrop 返回背景填充色；无背景时返回透明色。
func (s TextStyle) Backdrop() Color {
	switch s.Background {
	case BackgroundHalf:
		return HalfBlack
	case BackgroundFull:
		return Black
	case BackgroundWhite:
		return White
	default:
		return Transparent
	}
}

// HasShadow 仅在无背景模式下绘制文字阴影。
func (s TextStyle) HasShadow() bool {
	return s.Background == BackgroundNone
}

// HasGradient 判断是否存在至少两个色标的渐变，且仅在无背景模式下生效。
func (s TextStyle) HasGradient() bool {
	return len(s.Gradient) >= 2 && s.Background == BackgroundNone
}

// Package fonts 提供各渲染器共用的内置字体（Go 字体家族），保证预览与导出使用同一份字形。
package fonts

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Variant 表示字重与字形的组合。
type Variant int

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
)

// FamilyName 是内置字体的家族名，网页渲染器在 @font-face 中使用它。
const FamilyName = "Go"

var files = map[Variant]struct {
	name string
	data []byte
}{
	Regular:    {"Go-Regular.ttf", goregular.TTF},
	Bold:       {"Go-Bold.ttf", gobold.TTF},
	Italic:     {"Go-Italic.ttf", goitalic.TTF},
	BoldItalic: {"Go-BoldItalic.ttf", gobolditalic.TTF},
}

// Pick 根据是否加粗、是否斜体返回对应变体。
func Pick(bold, italic bool) Variant {
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	default:
		return Regular
	}
}

func (v Variant) String() string {
	if f, ok := files[v]; ok {
		return f.name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Bytes 返回变体的 TTF 数据，未知变体回退为 Regular。
func (v Variant) Bytes() []byte {
	if f, ok := files[v]; ok {
		return f.data
	}
	return goregular.TTF
}

// Load 按文件名返回内置字体的字节数据，name 可写为 "embed:Go-Bold.ttf"、"Go-Bold.ttf"
// 或简写 "bold"、"bolditalic"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "embed:")
	for _, f := range files {
		short := strings.TrimSuffix(strings.TrimPrefix(f.name, "Go-"), ".ttf")
		if strings.EqualFold(f.name, name) || strings.EqualFold(short, name) {
			return f.data, nil
		}
	}
	return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
}

var (
	parseMu sync.Mutex
	parsed  = map[Variant]*opentype.Font{}
)

// Parsed 返回解析后的 OpenType 字体，结果按变体缓存。
func Parsed(v Variant) (*opentype.Font, error) {
	parseMu.Lock()
	defer parseMu.Unlock()
	if f, ok := parsed[v]; ok {
		return f, nil
	}
	f, err := opentype.Parse(v.Bytes())
	if err != nil {
		return nil, fmt.Errorf("解析内置字体 %s 失败: %w", v, err)
	}
	parsed[v] = f
	return f, nil
}

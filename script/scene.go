package script

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/gesture"
)

// ErrNoScene 表示脚本中没有 scene 块。
var ErrNoScene = errors.New("script: 脚本中没有 scene")

// 未声明 canvas 时使用的画布尺寸。
const (
	DefaultCanvasWidth  = 1080
	DefaultCanvasHeight = 1920
)

// SceneSpec 是一个 scene 块求值后的完整描述，紧随其后的 gesture 块转换为 Frames。
type SceneSpec struct {
	Name         string                   `json:"name"`
	Canvas       geometry.CanvasContext   `json:"canvas"`
	Text         string                   `json:"text"`
	BaseFontSize float64                  `json:"baseFontSize"`
	MaxLines     int                      `json:"maxLines"`
	Placement    geometry.Placement       `json:"placement"`
	Style        geometry.TextStyle       `json:"style"`
	Frames       [][]gesture.ContactPoint `json:"frames,omitempty"`
}

// Scenes 按声明顺序求值全部 scene。
func (s *Script) Scenes() ([]SceneSpec, error) {
	var scenes []SceneSpec
	for _, b := range s.Blocks {
		switch {
		case b.Scene != nil:
			spec, err := b.Scene.spec()
			if err != nil {
				return nil, err
			}
			scenes = append(scenes, spec)
		case b.Gesture != nil:
			if len(scenes) == 0 {
				return nil, fmt.Errorf("%s: gesture 必须跟在 scene 之后", b.Gesture.Pos)
			}
			frames, err := b.Gesture.frames()
			if err != nil {
				return nil, err
			}
			last := &scenes[len(scenes)-1]
			last.Frames = append(last.Frames, frames...)
		}
	}
	return scenes, nil
}

// Scene 返回第一个 scene。
func (s *Script) Scene() (SceneSpec, error) {
	scenes, err := s.Scenes()
	if err != nil {
		return SceneSpec{}, err
	}
	if len(scenes) == 0 {
		return SceneSpec{}, ErrNoScene
	}
	return scenes[0], nil
}

// Frames 返回第一个 scene 的手势帧，每帧是当时按下的全部触点。
func (s *Script) Frames() ([][]gesture.ContactPoint, error) {
	scene, err := s.Scene()
	if err != nil {
		return nil, err
	}
	return scene.Frames, nil
}

func (b *SceneBlock) spec() (SceneSpec, error) {
	spec := SceneSpec{
		Name:         string(b.Name),
		Canvas:       geometry.NewCanvasContext(DefaultCanvasWidth, DefaultCanvasHeight),
		BaseFontSize: geometry.DefaultFontSize,
		MaxLines:     geometry.DefaultMaxLines,
		Placement:    geometry.DefaultPlacement(),
		Style:        geometry.DefaultTextStyle(),
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("scene@%d", b.Pos.Line)
	}
	for _, st := range b.Statements {
		var err error
		switch {
		case st.Canvas != nil:
			spec.Canvas, err = st.Canvas.context()
		case st.Text != nil:
			spec.Text = string(st.Text.Value)
		case st.Font != nil:
			spec.BaseFontSize = st.Font.Size
		case st.Lines != nil:
			if st.Lines.Max <= 0 {
				err = fmt.Errorf("%s: lines 必须大于 0", st.Lines.Pos)
			}
			spec.MaxLines = st.Lines.Max
		case st.Placement != nil:
			spec.Placement, err = st.Placement.placement()
		case st.Style != nil:
			spec.Style, err = st.Style.apply(spec.Style)
		}
		if err != nil {
			return SceneSpec{}, err
		}
	}
	return spec, nil
}

func (c *CanvasStmt) context() (geometry.CanvasContext, error) {
	w, err := dimension(c.Width)
	if err != nil {
		return geometry.CanvasContext{}, fmt.Errorf("%s: canvas 宽度%w", c.Pos, err)
	}
	h, err := dimension(c.Height)
	if err != nil {
		return geometry.CanvasContext{}, fmt.Errorf("%s: canvas 高度%w", c.Pos, err)
	}
	ctx := geometry.NewCanvasContext(w, h)
	if c.Scale != nil {
		if *c.Scale <= 0 {
			return geometry.CanvasContext{}, fmt.Errorf("%s: canvas scale 必须大于 0", c.Pos)
		}
		ctx.ResolutionScale = *c.Scale
	}
	return ctx, nil
}

func dimension(v float64) (uint32, error) {
	if v <= 0 || v != math.Trunc(v) || v > math.MaxUint32 {
		return 0, fmt.Errorf("必须是正整数: %v", v)
	}
	return uint32(v), nil
}

func (p *PlacementStmt) placement() (geometry.Placement, error) {
	out := geometry.Placement{Position: geometry.Point{X: p.X, Y: p.Y}, Scale: 1}
	switch len(p.Rest) {
	case 2:
		out.Rotation = p.Rest[1]
		fallthrough
	case 1:
		out.Scale = p.Rest[0]
	case 0:
	default:
		return geometry.Placement{}, fmt.Errorf("%s: placement 最多接受 4 个数值", p.Pos)
	}
	return out.Clamp(), nil
}

func (b *StyleBlock) apply(style geometry.TextStyle) (geometry.TextStyle, error) {
	for _, e := range b.Entries {
		if err := e.apply(&style); err != nil {
			return geometry.TextStyle{}, err
		}
	}
	return style, nil
}

func (e *StyleEntry) apply(style *geometry.TextStyle) error {
	key := strings.ToLower(e.Key)
	if key == "gradient" {
		stops, err := gradientStops(e.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Pos, err)
		}
		style.Gradient = stops
		return nil
	}
	raw, ok := e.Value.Text()
	if !ok {
		return fmt.Errorf("%s: 样式 %s 需要单个值", e.Pos, e.Key)
	}
	switch key {
	case "color":
		c, err := geometry.ParseHexColor(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Pos, err)
		}
		style.Color = c
	case "background":
		style.Background = geometry.ParseBackgroundMode(raw)
	case "weight", "font-weight":
		style.FontWeight = raw
	case "font-style":
		style.FontStyle = raw
	case "letter-spacing":
		if e.Value.Number == nil {
			return fmt.Errorf("%s: letter-spacing 必须是数值", e.Pos)
		}
		style.LetterSpacing = *e.Value.Number
	default:
		return fmt.Errorf("%s: 未知样式属性 %q", e.Pos, e.Key)
	}
	return nil
}

// gradientStops 把颜色列表转换为均匀分布的色标。
func gradientStops(v *Value) ([]geometry.GradientStop, error) {
	if v == nil || len(v.List) < 2 {
		return nil, fmt.Errorf("gradient 至少需要两个颜色")
	}
	stops := make([]geometry.GradientStop, len(v.List))
	for i, item := range v.List {
		raw, ok := item.Text()
		if !ok {
			return nil, fmt.Errorf("gradient 第 %d 项不是颜色", i+1)
		}
		c, err := geometry.ParseHexColor(raw)
		if err != nil {
			return nil, err
		}
		stops[i] = geometry.GradientStop{Offset: float64(i) / float64(len(v.List)-1), Color: c}
	}
	return stops, nil
}

// frames 逐条回放事件，每个事件产出一帧当前按下的触点（按按下顺序）。
func (b *GestureBlock) frames() ([][]gesture.ContactPoint, error) {
	var (
		active []gesture.ContactPoint
		frames [][]gesture.ContactPoint
	)
	indexOf := func(id int64) int {
		for i, c := range active {
			if c.ID == id {
				return i
			}
		}
		return -1
	}
	for _, ev := range b.Events {
		switch {
		case ev.Down != nil:
			if indexOf(ev.Down.ID) >= 0 {
				return nil, fmt.Errorf("%s: 触点 %d 已按下", ev.Down.Pos, ev.Down.ID)
			}
			active = append(active, gesture.ContactPoint{ID: ev.Down.ID, X: float64(ev.Down.X), Y: float64(ev.Down.Y)})
		case ev.Move != nil:
			i := indexOf(ev.Move.ID)
			if i < 0 {
				return nil, fmt.Errorf("%s: 触点 %d 未按下", ev.Move.Pos, ev.Move.ID)
			}
			active[i].X, active[i].Y = float64(ev.Move.X), float64(ev.Move.Y)
		case ev.Up != nil:
			i := indexOf(ev.Up.ID)
			if i < 0 {
				return nil, fmt.Errorf("%s: 触点 %d 未按下", ev.Up.Pos, ev.Up.ID)
			}
			active = append(active[:i], active[i+1:]...)
		case ev.Cancel:
			active = active[:0]
		}
		frame := make([]gesture.ContactPoint, len(active))
		copy(frame, active)
		frames = append(frames, frame)
	}
	return frames, nil
}

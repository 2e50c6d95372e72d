// Package script parses scene scripts: a caption scene (canvas, text, style,
// placement) optionally followed by a recorded multi-touch gesture.
//
//	scene "hello" {
//	  canvas 1080 1920 scale 2.88
//	  text "Hello ${user.name}"
//	  placement 0.5 0.25 1 0
//	  style { color: "#ffffff" background: half weight: bold }
//	}
//	gesture {
//	  down 1 540 480
//	  move 1 560 ?
//	  up 1
//	}
package script

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `[-+]?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][-+]?\d+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][,;:?]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	scriptParser = participle.MustBuild[Script](
		participle.Lexer(scriptLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Script is the root AST node of a scene script.
type Script struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Blocks []*Block       `parser:"Newline* ( @@ Newline* )*"`
}

// Block is a top-level scene or gesture block.
type Block struct {
	Scene   *SceneBlock   `parser:"  @@"`
	Gesture *GestureBlock `parser:"| @@"`
}

// SceneBlock declares one caption.
type SceneBlock struct {
	Pos        lexer.Position    `parser:"" json:"-"`
	Name       StringLiteral     `parser:"'scene' @String?"`
	Statements []*SceneStatement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// SceneStatement is one line inside a scene block.
type SceneStatement struct {
	Canvas    *CanvasStmt    `parser:"  @@"`
	Text      *TextStmt      `parser:"| @@"`
	Font      *FontStmt      `parser:"| @@"`
	Lines     *LinesStmt     `parser:"| @@"`
	Placement *PlacementStmt `parser:"| @@"`
	Style     *StyleBlock    `parser:"| @@"`
}

// CanvasStmt: canvas W H [scale S].
type CanvasStmt struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Width  float64        `parser:"'canvas' @Number"`
	Height float64        `parser:"@Number"`
	Scale  *float64       `parser:"( 'scale' @Number )?"`
}

// TextStmt: text "...".
type TextStmt struct {
	Value StringLiteral `parser:"'text' @String"`
}

// FontStmt: font N, the base font size in reference pixels.
type FontStmt struct {
	Size float64 `parser:"'font' @Number"`
}

// LinesStmt: lines N.
type LinesStmt struct {
	Pos lexer.Position `parser:"" json:"-"`
	Max int            `parser:"'lines' @Number"`
}

// PlacementStmt: placement x y [scale [rotation]].
type PlacementStmt struct {
	Pos  lexer.Position `parser:"" json:"-"`
	X    float64        `parser:"'placement' @Number"`
	Y    float64        `parser:"@Number"`
	Rest []float64      `parser:"@Number*"`
}

// StyleBlock holds key: value style entries.
type StyleBlock struct {
	Entries []*StyleEntry `parser:"'style' '{' Newline* ( @@ ( ';' | ',' | Newline )* )* '}'"`
}

// StyleEntry is a single key: value pair.
type StyleEntry struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Value is a style value.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *float64       `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
	List   []*Value       `parser:"| '[' Newline* ( @@ ( ',' | Newline )* )* ']'"`
}

// Text returns the value as a bare string (string, color, ident or number).
func (v *Value) Text() (string, bool) {
	switch {
	case v == nil:
		return "", false
	case v.String != nil:
		return string(*v.String), true
	case v.Color != nil:
		return *v.Color, true
	case v.Ident != nil:
		return *v.Ident, true
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'f', -1, 64), true
	default:
		return "", false
	}
}

// GestureBlock records touch events for the scene declared before it.
type GestureBlock struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Events []*Event       `parser:"'gesture' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Event is one touch change; every event produces one frame.
type Event struct {
	Down   *DownEvent `parser:"  @@"`
	Move   *MoveEvent `parser:"| @@"`
	Up     *UpEvent   `parser:"| @@"`
	Cancel bool       `parser:"| @'cancel'"`
}

// DownEvent: down id x y.
type DownEvent struct {
	Pos lexer.Position `parser:"" json:"-"`
	ID  int64          `parser:"'down' @Number"`
	X   Coord          `parser:"@( Number | '?' )"`
	Y   Coord          `parser:"@( Number | '?' )"`
}

// MoveEvent: move id x y.
type MoveEvent struct {
	Pos lexer.Position `parser:"" json:"-"`
	ID  int64          `parser:"'move' @Number"`
	X   Coord          `parser:"@( Number | '?' )"`
	Y   Coord          `parser:"@( Number | '?' )"`
}

// UpEvent: up id.
type UpEvent struct {
	Pos lexer.Position `parser:"" json:"-"`
	ID  int64          `parser:"'up' @Number"`
}

// Coord is a touch coordinate; "?" stands for a missing value and captures NaN.
type Coord float64

// Capture implements participle.Capture.
func (c *Coord) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("coordinate capture requires value")
	}
	if values[0] == "?" {
		*c = Coord(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return err
	}
	*c = Coord(v)
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a script from an io.Reader.
func Parse(r io.Reader) (*Script, error) {
	return scriptParser.Parse("", r)
}

// ParseString parses a script from a string.
func ParseString(input string) (*Script, error) {
	return scriptParser.ParseString("", input)
}

// ParseFile parses a script, using name in error positions.
func ParseFile(name string, r io.Reader) (*Script, error) {
	return scriptParser.Parse(name, r)
}

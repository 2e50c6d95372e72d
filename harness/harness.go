// Package harness renders one caption through several renderers at once and
// scores how well their outputs agree with the shared geometry engine.
package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/logging"
	"github.com/ByLCY/placard/renderer"
)

// Scoring.
const (
	MaxScore         = 100
	PassScore        = 80
	FailurePenalty   = 50
	SlowPenalty      = 10
	PositionPenalty  = 15
	SizePenalty      = 15
	ReasonTimeout    = "timeout"
	reasonErrPrefix  = "renderer error: "
	reasonCancelPref = "canceled: "
)

// Tolerance bounds the geometric disagreement accepted between a renderer's
// bounding box and the engine's reference. Position is a fraction of the
// canvas; Size is relative to the reference size. Overflow is how far a
// renderer's measured line may run past the estimated one before the text is
// considered to spill out of its box.
type Tolerance struct {
	Position float64 `json:"position"`
	Size     float64 `json:"size"`
	Overflow float64 `json:"overflow"`
}

// DefaultTolerance is 1% of the canvas for position, 5% for size and 15%
// for text overflow.
func DefaultTolerance() Tolerance {
	return Tolerance{Position: 0.01, Size: 0.05, Overflow: 0.15}
}

// Target is one renderer bound to the canvas it draws on.
type Target struct {
	Renderer  renderer.Renderer
	Canvas    geometry.CanvasContext
	SlowAfter time.Duration
	Timeout   time.Duration
}

// Preview binds r with the on-device preview budget.
func Preview(r renderer.Renderer, c geometry.CanvasContext) Target {
	return Target{Renderer: r, Canvas: c, SlowAfter: 5 * time.Second, Timeout: 10 * time.Second}
}

// Export binds r with the server bake budget.
func Export(r renderer.Renderer, c geometry.CanvasContext) Target {
	return Target{Renderer: r, Canvas: c, SlowAfter: 15 * time.Second, Timeout: 30 * time.Second}
}

// Live binds r with the live view budget.
func Live(r renderer.Renderer, c geometry.CanvasContext) Target {
	return Target{Renderer: r, Canvas: c, SlowAfter: 5 * time.Second, Timeout: 10 * time.Second}
}

// Case is one caption to check.
type Case struct {
	Name         string             `json:"name"`
	Placement    geometry.Placement `json:"placement"`
	Style        geometry.TextStyle `json:"style"`
	Text         string             `json:"text"`
	BaseFontSize float64            `json:"baseFontSize"`
	MaxLines     int                `json:"maxLines"`
	Photo        image.Image        `json:"-"`
}

func (c Case) request(canvas geometry.CanvasContext) renderer.Request {
	return renderer.Request{
		Placement:    c.Placement,
		Style:        c.Style,
		Canvas:       canvas,
		Text:         c.Text,
		BaseFontSize: c.BaseFontSize,
		MaxLines:     c.MaxLines,
		Photo:        c.Photo,
	}
}

// RendererReport is the outcome of one target for one case.
type RendererReport struct {
	Name          string        `json:"name"`
	Success       bool          `json:"success"`
	Reason        string        `json:"reason,omitempty"`
	Elapsed       time.Duration `json:"-"`
	ElapsedMs     float64       `json:"elapsedMs"`
	Slow          bool          `json:"slow"`
	PositionMatch bool          `json:"positionMatch"`
	SizeMatch     bool          `json:"sizeMatch"`
	BoundingBox   geometry.Rect `json:"boundingBox"`
	Observed      geometry.Rect `json:"observed"`
	Expected      geometry.Rect `json:"expected"`
	TextExtent    float64       `json:"textExtent,omitempty"`
	// EstimatedExtent is the engine's estimate of the widest drawn line.
	EstimatedExtent float64  `json:"estimatedExtent,omitempty"`
	Overflow        bool     `json:"overflow"`
	Lines           []string `json:"lines,omitempty"`
	LinesMatch      bool     `json:"linesMatch"`
	Penalty         int      `json:"penalty"`

	image []byte
}

// Image returns the rendered bytes, if the renderer produced any.
func (r RendererReport) Image() []byte { return r.image }

// Report is the scored outcome of one case across every target.
type Report struct {
	Case    string           `json:"case"`
	Score   int              `json:"score"`
	Passed  bool             `json:"passed"`
	Results []RendererReport `json:"results"`
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("harness: write report: %w", err)
	}
	return nil
}

// Harness runs cases against a fixed set of targets.
type Harness struct {
	Targets   []Target
	Tolerance Tolerance
	Logger    *slog.Logger
}

// New returns a harness with the default tolerance.
func New(targets ...Target) *Harness {
	return &Harness{Targets: targets, Tolerance: DefaultTolerance(), Logger: logging.Logger()}
}

// Run renders c on every target concurrently and scores the results.
// It never fails: renderer errors and timeouts become penalties.
func (h *Harness) Run(ctx context.Context, c Case) Report {
	results := make([]RendererReport, len(h.Targets))
	var wg sync.WaitGroup
	for i, t := range h.Targets {
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			results[i] = h.runTarget(ctx, t, c)
		}(i, t)
	}
	wg.Wait()
	h.compareLines(c, results)

	score := MaxScore
	for _, r := range results {
		score -= r.Penalty
	}
	score = max(score, 0)
	rep := Report{Case: c.Name, Score: score, Passed: score >= PassScore, Results: results}
	h.logger().Info("harness: case finished", "case", c.Name, "score", score, "passed", rep.Passed)
	return rep
}

// RunAll runs every case in order.
func (h *Harness) RunAll(ctx context.Context, cases []Case) []Report {
	reports := make([]Report, 0, len(cases))
	for _, c := range cases {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, h.Run(ctx, c))
	}
	return reports
}

type renderOutcome struct {
	res renderer.Result
	err error
}

func (h *Harness) runTarget(ctx context.Context, t Target, c Case) RendererReport {
	name := t.Renderer.Name()
	rep := RendererReport{Name: name}
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan renderOutcome, 1)
	go func() {
		res, err := t.Renderer.Render(tctx, c.request(t.Canvas))
		done <- renderOutcome{res, err}
	}()

	var out renderOutcome
	select {
	case out = <-done:
	case <-tctx.Done():
		// 渲染器未在时限内返回：不再等待它
		out.err = tctx.Err()
	}
	rep.Elapsed = time.Since(start)
	rep.ElapsedMs = float64(rep.Elapsed) / float64(time.Millisecond)

	switch {
	case errors.Is(out.err, context.DeadlineExceeded):
		rep.Reason = ReasonTimeout
	case errors.Is(out.err, context.Canceled):
		rep.Reason = reasonCancelPref + out.err.Error()
	case out.err != nil:
		rep.Reason = reasonErrPrefix + out.err.Error()
	case !out.res.Success:
		rep.Reason = out.res.Reason
		if rep.Reason == "" {
			rep.Reason = "render unsuccessful"
		}
	default:
		rep.Success = true
	}
	if !rep.Success {
		rep.Penalty = FailurePenalty
		h.logger().Warn("harness: renderer failed", "case", c.Name, "renderer", name, "reason", rep.Reason)
		return rep
	}

	rep.BoundingBox = out.res.BoundingBox
	rep.TextExtent = out.res.TextExtent
	rep.Lines = out.res.Lines
	rep.image = out.res.Image
	if t.SlowAfter > 0 && rep.Elapsed > t.SlowAfter {
		rep.Slow = true
		rep.Penalty += SlowPenalty
		h.logger().Warn("harness: slow render", "case", c.Name, "renderer", name, "elapsed", rep.Elapsed)
	}

	req := c.request(t.Canvas).Normalize()
	rep.Expected = renderer.Scene(req).Bounds().Normalize(req.Canvas)
	rep.Observed = out.res.BoundingBox.Normalize(req.Canvas)
	rep.PositionMatch, rep.SizeMatch = h.compare(rep.Observed, rep.Expected)
	rep.EstimatedExtent, rep.Overflow = h.overflows(req, rep.TextExtent)
	if rep.Overflow {
		// 实测文字超出估算的文本框：框的尺寸与实际内容不符
		rep.SizeMatch = false
		h.logger().Warn("harness: text overflows box", "case", c.Name, "renderer", name,
			"measured", rep.TextExtent, "estimated", rep.EstimatedExtent)
	}
	if !rep.PositionMatch {
		rep.Penalty += PositionPenalty
	}
	if !rep.SizeMatch {
		rep.Penalty += SizePenalty
	}
	h.logger().Debug("harness: renderer finished", "case", c.Name, "renderer", name,
		"elapsed", rep.Elapsed, "position", rep.PositionMatch, "size", rep.SizeMatch)
	return rep
}

// overflows compares a renderer's measured widest line with the estimate of
// the widest line the shared wrapping produces. Renderers that do not
// measure (extent 0) never overflow.
func (h *Harness) overflows(req renderer.Request, extent float64) (float64, bool) {
	box := renderer.Scene(req).Box
	estimated := 0.0
	for _, line := range renderer.Lines(req.Text, box) {
		estimated = math.Max(estimated, box.EstimateLine(line))
	}
	if extent <= 0 || estimated <= 0 {
		return estimated, false
	}
	return estimated, extent > estimated*(1+h.Tolerance.Overflow)
}

// compareLines checks that every successful renderer drew the same lines as
// the first one that reported any. A renderer that disagrees lost its size
// match and pays SizePenalty if it had not already.
func (h *Harness) compareLines(c Case, results []RendererReport) {
	var ref []string
	found := false
	for _, r := range results {
		if r.Success && r.Lines != nil {
			ref, found = r.Lines, true
			break
		}
	}
	for i := range results {
		r := &results[i]
		if !r.Success {
			continue
		}
		r.LinesMatch = !found || r.Lines == nil || slices.Equal(r.Lines, ref)
		if r.LinesMatch {
			continue
		}
		h.logger().Warn("harness: renderers drew different lines", "case", c.Name, "renderer", r.Name,
			"lines", r.Lines, "reference", ref)
		if r.SizeMatch {
			r.SizeMatch = false
			r.Penalty += SizePenalty
		}
	}
}

// compare checks normalized boxes: centers within Tolerance.Position on both
// axes, width and height within Tolerance.Size relative to the reference.
func (h *Harness) compare(got, want geometry.Rect) (position, size bool) {
	tol := h.Tolerance
	gc, wc := got.Center(), want.Center()
	position = math.Abs(gc.X-wc.X) <= tol.Position && math.Abs(gc.Y-wc.Y) <= tol.Position
	size = relClose(got.Width, want.Width, tol) && relClose(got.Height, want.Height, tol)
	return position, size
}

func relClose(got, want float64, tol Tolerance) bool {
	if want == 0 {
		return math.Abs(got) <= tol.Position
	}
	return math.Abs(got-want)/want <= tol.Size
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger == nil {
		return logging.Logger()
	}
	return h.Logger
}

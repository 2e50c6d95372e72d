// Package web renders the caption as a DOM element in headless Chrome via
// chromedp and reports the browser's own bounding box for the element.
package web

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/logging"
	"github.com/ByLCY/placard/renderer"
)

// Name is the renderer name used in reports.
const Name = "live"

// Options configures the browser that backs the renderer.
type Options struct {
	// ExecPath points at a Chrome/Chromium binary. Empty uses chromedp's lookup.
	ExecPath string
	Headless bool
	// NoSandbox is needed when running as root inside containers.
	NoSandbox bool
	Logger    *slog.Logger
}

// DefaultOptions returns headless options with ExecPath taken from $CHROME_PATH.
func DefaultOptions() Options {
	return Options{ExecPath: os.Getenv("CHROME_PATH"), Headless: true}
}

// Renderer implements renderer.Renderer. A fresh browser is allocated per
// render so concurrent renders never share a tab.
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

var _ renderer.Renderer = (*Renderer)(nil)

// New returns a web renderer.
func New(opts Options) *Renderer {
	r := &Renderer{opts: opts, logger: opts.Logger}
	if r.logger == nil {
		r.logger = logging.Logger()
	}
	return r
}

// Name implements renderer.Renderer.
func (r *Renderer) Name() string { return Name }

type domMeasure struct {
	Present bool    `json:"present"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Extent  float64 `json:"extent"`
}

const measureJS = `(async () => {
	await document.fonts.ready;
	const el = document.getElementById("` + captionID + `");
	if (!el) return {present: false};
	const r = el.getBoundingClientRect();
	let extent = 0;
	el.querySelectorAll("span").forEach(s => { extent = Math.max(extent, s.offsetWidth); });
	return {present: true, x: r.x, y: r.y, width: r.width, height: r.height, extent: extent};
})()`

// Render loads the caption page and screenshots the viewport.
func (r *Renderer) Render(ctx context.Context, req renderer.Request) (renderer.Result, error) {
	start := time.Now()
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return renderer.Result{Reason: err.Error()}, err
	}

	g := renderer.Scene(req)
	page, lines, err := buildDocument(req, g)
	if err != nil {
		return renderer.Result{Reason: err.Error()}, err
	}

	w, h := int64(req.Canvas.Width), int64(req.Canvas.Height)
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.WindowSize(int(w), int(h)))
	if r.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.opts.ExecPath))
	}
	if !r.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if r.opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	bctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		r.logger.Debug("web: chromedp", "msg", fmt.Sprintf(format, args...))
	}))
	defer cancel()

	var (
		m    domMeasure
		shot []byte
	)
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(w, h),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{}),
		chromedp.Navigate("data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(page))),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(measureJS, &m, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.CaptureScreenshot(&shot),
	}
	if err := chromedp.Run(bctx, tasks); err != nil {
		r.logger.Warn("web: render failed", "err", err)
		return renderer.Result{Reason: err.Error(), Elapsed: time.Since(start)}, fmt.Errorf("web: chromedp: %w", err)
	}

	res := renderer.Finish(g, start)
	res.Image = shot
	res.Lines = lines
	if m.Present {
		res.BoundingBox = geometry.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
		res.TextExtent = m.Extent
	}
	r.logger.Debug("web: rendered", "bounds", res.BoundingBox, "elapsed", res.Elapsed)
	return res, nil
}

// LookChrome returns the first Chrome-like binary found on $CHROME_PATH or
// $PATH, or "" if none is installed.
func LookChrome() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ByLCY/placard/binding"
	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/gesture"
	"github.com/ByLCY/placard/harness"
	"github.com/ByLCY/placard/logging"
	canvasrenderer "github.com/ByLCY/placard/renderer/canvas"
	"github.com/ByLCY/placard/renderer/export"
	"github.com/ByLCY/placard/renderer/web"
	"github.com/ByLCY/placard/script"
)

// config 汇总命令行参数。
type config struct {
	input     string
	outDir    string
	renderers []string
	data      any
	report    string
	debug     string
	photo     string
	font      string
	chrome    string
}

func main() {
	input := flag.String("in", "examples/hello.placard", "场景脚本路径")
	output := flag.String("out", "output", "渲染图片输出目录")
	renderers := flag.String("renderers", "preview,export", "参与比对的渲染器：preview、export、live，逗号分隔")
	dataJSON := flag.String("data", "", "绑定到字幕文本的 JSON 数据")
	report := flag.String("report", "", "一致性报告 JSON 输出路径，默认写到标准输出")
	debug := flag.String("debug", "", "几何调试 JSON 输出路径")
	photo := flag.String("photo", "", "背景照片（PNG/JPEG）")
	font := flag.String("font", "", "预览渲染器使用的 TTF 字体；embed:bold 等指向内置字体")
	chrome := flag.String("chrome", "", "live 渲染器使用的 Chrome 路径，默认读取 CHROME_PATH")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config{
		input:     *input,
		outDir:    *output,
		renderers: splitList(*renderers),
		report:    *report,
		debug:     *debug,
		photo:     *photo,
		font:      *font,
		chrome:    *chrome,
	}
	if *dataJSON != "" {
		data, err := binding.Decode(strings.NewReader(*dataJSON))
		if err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
		cfg.data = data
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reports, err := run(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("执行失败: %v", err)
	}
	for _, rep := range reports {
		if !rep.Passed {
			log.Fatalf("场景 %s 一致性检查未通过：得分 %d", rep.Case, rep.Score)
		}
	}
	fmt.Fprintf(os.Stderr, "已完成 %d 个场景，图片输出到 %s\n", len(reports), cfg.outDir)
}

// debugEntry 是每个场景在调试 JSON 中的记录。
type debugEntry struct {
	Scene     string             `json:"scene"`
	Text      string             `json:"text"`
	Start     geometry.Placement `json:"start"`
	Placement geometry.Placement `json:"placement"`
	Frames    int                `json:"frames"`
	Geometry  geometry.Geometry  `json:"geometry"`
}

// run 串联脚本解析、数据绑定、手势回放与多渲染器比对。
func run(ctx context.Context, cfg config, stdout io.Writer) ([]harness.Report, error) {
	file, err := os.Open(cfg.input)
	if err != nil {
		return nil, fmt.Errorf("无法打开脚本 %s: %w", cfg.input, err)
	}
	defer file.Close()

	doc, err := script.ParseFile(filepath.Base(cfg.input), file)
	if err != nil {
		return nil, fmt.Errorf("解析脚本失败: %w", err)
	}
	scenes, err := doc.Scenes()
	if err != nil {
		return nil, fmt.Errorf("脚本求值失败: %w", err)
	}
	if len(scenes) == 0 {
		return nil, script.ErrNoScene
	}

	var photo image.Image
	if cfg.photo != "" {
		if photo, err = loadPhoto(cfg.photo); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	logger := logging.Logger()
	var (
		reports []harness.Report
		debug   []debugEntry
	)
	// 同一个解释器依次处理各场景，就像宿主在文本编辑后更新同一元素
	interp := gesture.NewInterpreter(gesture.Subject{})
	for _, scene := range scenes {
		text := binding.Interpolate(scene.Text, cfg.data)
		interp.Reset()
		interp.SetSubject(gesture.Subject{
			Text:          text,
			BaseFontSize:  scene.BaseFontSize,
			Canvas:        scene.Canvas,
			MaxLines:      scene.MaxLines,
			LetterSpacing: scene.Style.LetterSpacing,
		})
		final, _ := gesture.Replay(interp, scene.Placement, scene.Frames)
		logger.Info("scene replayed", "scene", scene.Name, "frames", len(scene.Frames), "placement", final)

		targets, err := buildTargets(cfg, scene.Canvas)
		if err != nil {
			return nil, err
		}
		c := harness.Case{
			Name:         scene.Name,
			Placement:    final,
			Style:        scene.Style,
			Text:         text,
			BaseFontSize: scene.BaseFontSize,
			MaxLines:     scene.MaxLines,
			Photo:        photo,
		}
		rep := harness.New(targets...).Run(ctx, c)
		if err := writeImages(cfg.outDir, rep); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
		debug = append(debug, debugEntry{
			Scene:     scene.Name,
			Text:      text,
			Start:     scene.Placement,
			Placement: final,
			Frames:    len(scene.Frames),
			Geometry:  geometry.ResolveSpaced(final, text, scene.BaseFontSize, scene.Canvas, scene.MaxLines, scene.Style.LetterSpacing),
		})
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
	}

	if cfg.debug != "" {
		if err := geometry.WriteDebugJSON(debug, cfg.debug); err != nil {
			return nil, fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}
	if err := writeReports(reports, cfg.report, stdout); err != nil {
		return nil, err
	}
	return reports, nil
}

func buildTargets(cfg config, canvas geometry.CanvasContext) ([]harness.Target, error) {
	if len(cfg.renderers) == 0 {
		return nil, fmt.Errorf("至少需要一个渲染器")
	}
	targets := make([]harness.Target, 0, len(cfg.renderers))
	for _, name := range cfg.renderers {
		switch name {
		case canvasrenderer.Name:
			r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
				Font: canvasrenderer.Resource{Path: cfg.font},
			})
			targets = append(targets, harness.Preview(r, canvas))
		case export.Name:
			targets = append(targets, harness.Export(export.New(export.Options{}), export.DefaultCanvas()))
		case web.Name:
			opts := web.DefaultOptions()
			if cfg.chrome != "" {
				opts.ExecPath = cfg.chrome
			}
			opts.NoSandbox = os.Geteuid() == 0
			targets = append(targets, harness.Live(web.New(opts), canvas))
		default:
			return nil, fmt.Errorf("未知渲染器 %q", name)
		}
	}
	return targets, nil
}

func writeImages(dir string, rep harness.Report) error {
	for _, r := range rep.Results {
		img := r.Image()
		if len(img) == 0 {
			continue
		}
		path := filepath.Join(dir, fileSafe(rep.Case)+"-"+r.Name+".png")
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return fmt.Errorf("写入图片 %s 失败: %w", path, err)
		}
	}
	return nil
}

func writeReports(reports []harness.Report, path string, stdout io.Writer) error {
	w := stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("创建报告目录失败: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("创建报告文件失败: %w", err)
		}
		defer f.Close()
		w = f
	}
	for _, rep := range reports {
		if err := rep.WriteJSON(w); err != nil {
			return err
		}
	}
	return nil
}

func loadPhoto(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开背景照片 %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码背景照片失败: %w", err)
	}
	return img, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

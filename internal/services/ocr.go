package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/metrics"
	"alfredoptarigan/career-hub/internal/models"
)

var (
	ErrOCRUnsupported  = errors.New("optical recognition not supported for media type")
	errNoPagesRendered = errors.New("rasterizer produced no page images")
)

// CommandRunner runs an external binary. It lets tests stub the OCR toolchain.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	log logger.Logger
}

func NewExecRunner(log logger.Logger) CommandRunner {
	return &execRunner{log: log}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	fields := map[string]interface{}{
		"cmd":         name,
		"args":        strings.Join(args, " "),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["stderr"] = truncateBytes(errb.Bytes(), 8<<10)
		r.log.WithError(err).Error("exec failed", fields)
	} else {
		fields["stdout_bytes"] = out.Len()
		r.log.Debug("exec ok", fields)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncateBytes(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}

// OCRProfile selects recognition languages and layout mode.
type OCRProfile struct {
	Languages string
	PSM       int
	OEM       int
}

// ProfileFor returns the recognition profile for a variant. LinkedIn exports
// get English plus French and block layout.
func ProfileFor(variant models.Variant, oem int) OCRProfile {
	if variant == models.VariantLinkedInProfile {
		return OCRProfile{Languages: "eng+fra", PSM: 6, OEM: oem}
	}
	return OCRProfile{Languages: "eng", PSM: 3, OEM: oem}
}

type OCRConfig struct {
	Rasterizer  string
	Tesseract   string
	ScratchDir  string
	DPI         int
	OEM         int
	Concurrency int
}

type OCRResult struct {
	Text     string
	Pages    int
	Warnings []string
}

type OCREngine struct {
	cfg     OCRConfig
	runner  CommandRunner
	log     logger.Logger
	metrics *metrics.Metrics
}

func NewOCREngine(cfg OCRConfig, runner CommandRunner, log logger.Logger, m *metrics.Metrics) *OCREngine {
	if cfg.Rasterizer == "" {
		cfg.Rasterizer = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &OCREngine{cfg: cfg, runner: runner, log: log, metrics: m}
}

// Recognize runs optical recognition over the file at path.
func (o *OCREngine) Recognize(ctx context.Context, path, mediaType string, variant models.Variant) (OCRResult, error) {
	profile := ProfileFor(variant, o.cfg.OEM)

	switch {
	case mediaType == models.MediaTypePDF:
		return o.recognizePDF(ctx, path, profile)
	case models.IsImageMediaType(mediaType):
		text, err := o.recognizeImage(ctx, path, profile)
		if err != nil {
			return OCRResult{}, err
		}
		return OCRResult{Text: NormalizeText(text), Pages: 1}, nil
	}

	return OCRResult{}, fmt.Errorf("%w: %s", ErrOCRUnsupported, mediaType)
}

func (o *OCREngine) recognizePDF(ctx context.Context, path string, profile OCRProfile) (OCRResult, error) {
	scratch, err := os.MkdirTemp(o.cfg.ScratchDir, "ocr-*")
	if err != nil {
		return OCRResult{}, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	scope := NewCleanupScope(o.log, o.metrics)
	scope.Track(scratch)
	defer scope.Release()

	prefix := filepath.Join(scratch, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <scratch/page>
	_, errb, err := o.runner.Run(ctx, o.cfg.Rasterizer, "-r", strconv.Itoa(o.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return OCRResult{}, fmt.Errorf("rasterize pdf: %w: %s", err, truncateBytes(errb, 512))
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return OCRResult{}, fmt.Errorf("list rendered pages: %w", err)
	}
	if len(pages) == 0 {
		return OCRResult{}, errNoPagesRendered
	}
	sortPageImages(pages)

	texts := make([]string, len(pages))
	pageErrs := make([]error, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, page := range pages {
		g.Go(func() error {
			text, err := o.recognizeImage(gctx, page, profile)
			if err != nil {
				pageErrs[i] = err
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return OCRResult{}, err
	}

	result := OCRResult{Pages: len(pages)}
	var recognized []string
	for i, err := range pageErrs {
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		recognized = append(recognized, texts[i])
	}

	if len(recognized) == 0 {
		return result, fmt.Errorf("optical recognition failed on all %d pages: %w", len(pages), errors.Join(pageErrs...))
	}

	result.Text = NormalizeText(strings.Join(recognized, "\n"))
	return result, nil
}

func (o *OCREngine) recognizeImage(ctx context.Context, path string, profile OCRProfile) (string, error) {
	// tesseract <image> stdout -l <langs> --oem <oem> --psm <psm>
	args := []string{
		path, "stdout",
		"-l", profile.Languages,
		"--oem", strconv.Itoa(profile.OEM),
		"--psm", strconv.Itoa(profile.PSM),
	}

	out, errb, err := o.runner.Run(ctx, o.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncateBytes(errb, 512))
	}
	return string(out), nil
}

// sortPageImages orders prefix-N.png paths by page number.
func sortPageImages(paths []string) {
	pageNumber := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, err := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return pageNumber(paths[i]) < pageNumber(paths[j])
	})
}

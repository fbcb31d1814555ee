package printing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	cssPixelsPerInch     = 96.0
)

// chromeCandidates are the executable names chromedp itself searches for
var chromeCandidates = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// ChromedpConfig contains configuration for the browser rasterizer
type ChromedpConfig struct {
	// DefaultTimeout for one screenshot
	DefaultTimeout time.Duration
	// RemoteURL is the DevTools websocket of a running browser (optional).
	// If empty, chromedp launches a local instance.
	RemoteURL string
	// ExecPath overrides the local browser binary
	ExecPath string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRasterizer screenshots the HTML preview of an act, one page-sized
// clip at a time
type ChromedpRasterizer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	err         error
}

// NewChromedpRasterizer creates the rasterizer. Without a reachable browser
// it still constructs; Rasterize then reports it as unavailable.
func NewChromedpRasterizer(config *ChromedpConfig) *ChromedpRasterizer {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{config: config, logger: logger}
	r.initAllocator()
	return r
}

func (r *ChromedpRasterizer) initAllocator() {
	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return
	}

	execPath, err := r.findBrowser()
	if err != nil {
		r.err = err
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

func (r *ChromedpRasterizer) findBrowser() (string, error) {
	if r.config.ExecPath != "" {
		return resolveBinaryPath(r.config.ExecPath)
	}
	for _, name := range chromeCandidates {
		if path, err := resolveBinaryPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no Chrome or Chromium executable in PATH")
}

// Name returns "chromedp"
func (r *ChromedpRasterizer) Name() string {
	return "chromedp"
}

// pageClip returns the CSS-pixel viewport of page n of an act laid out with
// the given page size
func pageClip(widthMM, heightMM float64, n int) *page.Viewport {
	w := math.Round(widthMM / 25.4 * cssPixelsPerInch)
	h := math.Round(heightMM / 25.4 * cssPixelsPerInch)
	return &page.Viewport{X: 0, Y: float64(n-1) * h, Width: w, Height: h, Scale: 1}
}

// Rasterize implements Rasterizer
func (r *ChromedpRasterizer) Rasterize(ctx context.Context, src *RasterSource, n, dpi int) ([]byte, error) {
	if r.err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound, "browser not available", r.err)
	}
	if src == nil || len(src.HTML) == 0 {
		return nil, NewRenderError(ErrCodeInvalidRequest, "chromedp needs HTML content", nil)
	}
	if src.PageWidthMM <= 0 || src.PageHeightMM <= 0 {
		return nil, NewRenderError(ErrCodeInvalidRequest, "page size is required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.DefaultTimeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	// Tie the browser tab to the caller's deadline
	go func() {
		select {
		case <-ctx.Done():
			browserCancel()
		case <-browserCtx.Done():
		}
	}()

	clip := pageClip(src.PageWidthMM, src.PageHeightMM, n)
	scale := float64(dpi) / cssPixelsPerInch

	var png []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(clip.Width), int64(clip.Height), chromedp.EmulateScale(scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, string(src.HTML)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, err := page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(true).
				WithClip(clip).
				Do(ctx)
			if err != nil {
				return err
			}
			png = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("rasterizing timed out after %v", r.config.DefaultTimeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "rasterizing was cancelled", err)
		}
		r.logger.Error("chromedp screenshot failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed: "+err.Error(), err)
	}
	if len(png) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "screenshot is empty", nil)
	}
	return png, nil
}

// Close releases the browser allocator
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

var _ Rasterizer = (*ChromedpRasterizer)(nil)

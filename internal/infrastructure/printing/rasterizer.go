package printing

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
)

const defaultPreviewDPI = 96

// RasterSource is the rendered act a rasterizer may draw from. PDF-based
// rasterizers read PDF, browser-based ones read HTML.
type RasterSource struct {
	PDF          []byte
	HTML         []byte
	PageWidthMM  float64
	PageHeightMM float64
}

// Rasterizer draws one page of a rendered act as PNG
type Rasterizer interface {
	// Name identifies the rasterizer in logs
	Name() string
	// Rasterize returns page (1-based) at the given resolution
	Rasterize(ctx context.Context, src *RasterSource, page, dpi int) ([]byte, error)
}

// RasterChain tries each rasterizer in order and moves on while one reports
// itself unavailable. Any other failure is returned as is.
type RasterChain struct {
	rasterizers []Rasterizer
	logger      *zap.Logger
}

// NewRasterChain creates a chain; nil entries are skipped
func NewRasterChain(logger *zap.Logger, rasterizers ...Rasterizer) *RasterChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &RasterChain{logger: logger}
	for _, r := range rasterizers {
		if r != nil {
			c.rasterizers = append(c.rasterizers, r)
		}
	}
	return c
}

// Name lists the chain
func (c *RasterChain) Name() string {
	name := "chain("
	for i, r := range c.rasterizers {
		if i > 0 {
			name += ","
		}
		name += r.Name()
	}
	return name + ")"
}

// Rasterize implements Rasterizer
func (c *RasterChain) Rasterize(ctx context.Context, src *RasterSource, page, dpi int) ([]byte, error) {
	if src == nil {
		return nil, NewRenderError(ErrCodeInvalidRequest, "raster source is nil", nil)
	}
	if page < 1 {
		page = 1
	}
	if dpi <= 0 {
		dpi = defaultPreviewDPI
	}
	var lastErr error
	for _, r := range c.rasterizers {
		png, err := r.Rasterize(ctx, src, page, dpi)
		if err == nil {
			return png, nil
		}
		if !isUnavailable(err) {
			return nil, err
		}
		c.logger.Debug("rasterizer unavailable", zap.String("rasterizer", r.Name()), zap.Error(err))
		lastErr = err
	}
	return nil, NewRenderError(ErrCodeRasterizerUnavailable,
		"no page rasterizer is available; install poppler-utils (pdftoppm) or Chrome", lastErr)
}

// isUnavailable reports whether err means the rasterizer cannot run here
func isUnavailable(err error) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code == ErrCodeBinaryNotFound || re.Code == ErrCodeRasterizerUnavailable
	}
	return false
}

// withTempDir runs fn inside a fresh temporary directory and removes it on
// every exit path
func withTempDir(parent, pattern string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp(parent, pattern)
	if err != nil {
		return NewRenderError(ErrCodeRenderFailed, "failed to create temp directory", err)
	}
	defer os.RemoveAll(dir)
	return fn(dir)
}

var _ Rasterizer = (*RasterChain)(nil)

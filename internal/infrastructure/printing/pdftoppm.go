package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPdftoppmBinary  = "pdftoppm"
	defaultPdftoppmTimeout = 30 * time.Second
)

// PdftoppmConfig contains configuration for the poppler rasterizer
type PdftoppmConfig struct {
	// BinaryPath is the pdftoppm executable; empty searches PATH
	BinaryPath string
	// Timeout bounds one invocation
	Timeout time.Duration
	// TempDir holds the per-call working directories
	TempDir string
	Logger  *zap.Logger
}

// PdftoppmRasterizer renders PDF pages to PNG with poppler's pdftoppm
type PdftoppmRasterizer struct {
	config *PdftoppmConfig
	logger *zap.Logger
	binary string
	err    error
}

// NewPdftoppmRasterizer creates the rasterizer. A missing binary is not an
// error here; Rasterize reports it so a chain can fall through.
func NewPdftoppmRasterizer(config *PdftoppmConfig) *PdftoppmRasterizer {
	if config == nil {
		config = &PdftoppmConfig{}
	}
	if config.BinaryPath == "" {
		config.BinaryPath = defaultPdftoppmBinary
	}
	if config.Timeout == 0 {
		config.Timeout = defaultPdftoppmTimeout
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &PdftoppmRasterizer{config: config, logger: logger}
	r.binary, r.err = resolveBinaryPath(config.BinaryPath)
	return r
}

// resolveBinaryPath finds the full path to the binary
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// Name returns "pdftoppm"
func (r *PdftoppmRasterizer) Name() string {
	return "pdftoppm"
}

// Rasterize implements Rasterizer
func (r *PdftoppmRasterizer) Rasterize(ctx context.Context, src *RasterSource, page, dpi int) ([]byte, error) {
	if r.err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("pdftoppm binary not found: %s", r.config.BinaryPath), r.err)
	}
	if src == nil || len(src.PDF) == 0 {
		return nil, NewRenderError(ErrCodeInvalidRequest, "pdftoppm needs PDF content", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	var png []byte
	err := withTempDir(r.config.TempDir, "preview-*", func(dir string) error {
		in := filepath.Join(dir, "act.pdf")
		if err := os.WriteFile(in, src.PDF, 0o600); err != nil {
			return NewRenderError(ErrCodeRenderFailed, "failed to write temp PDF", err)
		}
		outPrefix := filepath.Join(dir, "page")
		args := []string{
			"-png",
			"-r", strconv.Itoa(dpi),
			"-f", strconv.Itoa(page),
			"-l", strconv.Itoa(page),
			"-singlefile",
			in, outPrefix,
		}
		r.logger.Debug("executing pdftoppm", zap.String("binary", r.binary), zap.Strings("args", args))

		cmd := exec.CommandContext(ctx, r.binary, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return NewRenderError(ErrCodeRenderTimeout,
					fmt.Sprintf("rasterizing timed out after %v", r.config.Timeout), err)
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return NewRenderError(ErrCodeRenderTimeout, "rasterizing was cancelled", err)
			}
			r.logger.Error("pdftoppm failed", zap.Error(err), zap.String("stderr", stderr.String()))
			return NewRenderError(ErrCodeRenderFailed, "pdftoppm execution failed: "+stderr.String(), err)
		}

		data, err := os.ReadFile(outPrefix + ".png")
		if err != nil {
			return NewRenderError(ErrCodeRenderFailed, fmt.Sprintf("page %d was not produced", page), err)
		}
		png = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return png, nil
}

var _ Rasterizer = (*PdftoppmRasterizer)(nil)

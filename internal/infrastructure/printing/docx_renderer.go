package printing

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"go.uber.org/zap"
)

// Units used by WordprocessingML
const (
	twipsPerMM = 56.6929
	mmPerInch  = 25.4
)

func twips(mm float64) int {
	return int(mm*twipsPerMM + 0.5)
}

// halfPoints converts a point size to the half-point unit of w:sz
func halfPoints(pt float64) uint64 {
	return uint64(pt*2 + 0.5)
}

// DOCXOption configures a DOCXRenderer
type DOCXOption func(*DOCXRenderer)

// WithDOCXLogger sets the logger
func WithDOCXLogger(logger *zap.Logger) DOCXOption {
	return func(r *DOCXRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDOCXTempDir sets where picture files are staged while the package is
// built. The default is the system temp directory.
func WithDOCXTempDir(dir string) DOCXOption {
	return func(r *DOCXRenderer) {
		r.tempDir = dir
	}
}

// DOCXRenderer writes a composed act as a WordprocessingML package using
// paragraph and table primitives only
type DOCXRenderer struct {
	logger  *zap.Logger
	tempDir string
}

// NewDOCXRenderer creates a DOCX renderer
func NewDOCXRenderer(opts ...DOCXOption) *DOCXRenderer {
	r := &DOCXRenderer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Format returns FormatDOCX
func (r *DOCXRenderer) Format() Format {
	return FormatDOCX
}

// Render builds the package
func (r *DOCXRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create DOCX document", err)
	}
	staging, err := os.MkdirTemp(r.tempDir, "actdesk-docx-*")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create DOCX staging directory", err)
	}
	defer os.RemoveAll(staging)

	b := newDOCXBody(doc, req.Document, req.Style, newImageCache(), staging, r.logger)
	for _, section := range b.sections() {
		if err := contextError(ctx); err != nil {
			return nil, err
		}
		if err := section(); err != nil {
			return nil, NewRenderError(ErrCodeRenderFailed, "failed to build DOCX body", err)
		}
	}

	content, err := writePackage(doc)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write DOCX package", err)
	}

	duration := time.Since(start)
	r.logger.Info("DOCX rendered successfully",
		zap.Int("bytes", len(content)),
		zap.Int("images", len(b.staged)),
		zap.Duration("duration", duration))

	return &RenderResult{
		Content:        content,
		Format:         FormatDOCX,
		Warnings:       b.warnings,
		RenderDuration: duration,
	}, nil
}

func writePackage(doc *docx.RootDoc) ([]byte, error) {
	dedupeExtensions(&doc.ContentType)
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write package: %w", err)
	}
	return buf.Bytes(), nil
}

// dedupeExtensions keeps one Default entry per extension. Every picture
// registers its extension again.
func dedupeExtensions(ct *docx.ContentTypes) {
	seen := make(map[string]bool, len(ct.Default))
	kept := ct.Default[:0]
	for _, d := range ct.Default {
		ext := strings.ToLower(d.Extension)
		if seen[ext] {
			continue
		}
		seen[ext] = true
		kept = append(kept, d)
	}
	ct.Default = kept
}

var _ Renderer = (*DOCXRenderer)(nil)

package printing

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"
)

// PDFOption configures a PDFRenderer
type PDFOption func(*PDFRenderer)

// WithClock fixes the document creation date, making output deterministic
func WithClock(now func() time.Time) PDFOption {
	return func(r *PDFRenderer) {
		r.now = now
	}
}

// WithEncryptor sets the post-processor used for protected documents
func WithEncryptor(e PDFEncryptor) PDFOption {
	return func(r *PDFRenderer) {
		r.encryptor = e
	}
}

// WithCompression toggles stream compression. Tests disable it to search
// the raw page content.
func WithCompression(on bool) PDFOption {
	return func(r *PDFRenderer) {
		r.compress = on
	}
}

// WithPDFLogger sets the logger
func WithPDFLogger(logger *zap.Logger) PDFOption {
	return func(r *PDFRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// PDFRenderer lays out a composed act with gofpdf
type PDFRenderer struct {
	now       func() time.Time
	encryptor PDFEncryptor
	compress  bool
	logger    *zap.Logger
}

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{
		now:       time.Now,
		encryptor: NewPDFCPUEncryptor(),
		compress:  true,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Format returns FormatPDF
func (r *PDFRenderer) Format() Format {
	return FormatPDF
}

// Render lays the document out twice when page numbers are shown: the first
// pass counts pages so the second can print "page N of M".
func (r *PDFRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	font := loadPDFFont(req.Style.Font, r.logger)
	images := newImageCache()

	total := 0
	if req.Document.ShowPageNumbers {
		counting, err := r.layout(ctx, req, font, images, 0)
		if err != nil {
			return nil, err
		}
		total = counting.pdf.PageNo()
	}
	doc, err := r.layout(ctx, req, font, images, total)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write PDF", err)
	}
	content := buf.Bytes()
	warnings := doc.warnings

	if p := req.Document.Protection; p != nil && r.encryptor != nil {
		encrypted, err := r.encryptor.Encrypt(content, p)
		if err != nil {
			r.logger.Warn("PDF encryption failed, returning unencrypted document", zap.Error(err))
			warnings = append(warnings, "encryption failed: "+err.Error())
		} else {
			content = encrypted
		}
	}

	pages := doc.pdf.PageNo()
	duration := time.Since(start)
	r.logger.Info("PDF rendered successfully",
		zap.Int("bytes", len(content)),
		zap.Int("pages", pages),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", duration))

	return &RenderResult{
		Content:        content,
		Format:         FormatPDF,
		PageCount:      pages,
		Warnings:       warnings,
		RenderDuration: duration,
	}, nil
}

func (r *PDFRenderer) layout(ctx context.Context, req *RenderRequest, font *pdfFont, images *imageCache, totalPages int) (*pdfDoc, error) {
	doc := newPDFDoc(req.Document, req.Style, font, images, totalPages, r.logger)
	doc.pdf.SetCompression(r.compress)
	doc.pdf.SetCreationDate(r.now())

	sections := []func(){
		doc.cover,
		doc.header,
		doc.meta,
		doc.contract,
		doc.parties,
		doc.table,
		doc.summary,
		doc.clauses,
		doc.attachments,
		doc.signature,
		doc.qrCodes,
	}
	for _, section := range sections {
		if err := contextError(ctx); err != nil {
			return nil, err
		}
		section()
		if doc.pdf.Err() {
			return nil, NewRenderError(ErrCodeRenderFailed, "PDF layout failed", doc.pdf.Error())
		}
	}
	return doc, nil
}

var _ Renderer = (*PDFRenderer)(nil)

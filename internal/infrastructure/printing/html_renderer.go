package printing

import (
	"context"
	"encoding/base64"
	"html/template"
	"strings"
	"time"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/layout"
	"go.uber.org/zap"
)

const actTemplate = "act.html"

// HTMLRenderer lays the composition out as a self-contained HTML page with
// images inlined as data URIs. It drives the browser preview.
type HTMLRenderer struct {
	engine *TemplateEngine
	logger *zap.Logger
}

// NewHTMLRenderer creates an HTML renderer
func NewHTMLRenderer(logger *zap.Logger) (*HTMLRenderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine, err := NewTemplateEngine()
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{engine: engine, logger: logger}, nil
}

// Format returns FormatHTML
func (r *HTMLRenderer) Format() Format {
	return FormatHTML
}

type htmlImage struct {
	Src     template.URL
	Width   float64
	Height  float64
	Caption string
}

type htmlQR struct {
	htmlImage
	Align act.Alignment
}

type htmlParty struct {
	act.PartyBlock
	Signature *htmlImage
}

type htmlCell struct {
	Text  string
	Align act.Alignment
}

type htmlView struct {
	C           *act.Composition
	S           *layout.StyleSheet
	FontFamily  string
	Logo        *htmlImage
	CoverLogo   *htmlImage
	Acceptor    htmlParty
	Transferor  htmlParty
	Parties     []htmlParty
	Widths      []float64
	Rows        [][]htmlCell
	Attachments []htmlImage
	QRCodes     []htmlQR
	PageLabel   string
	LineText    string
}

// Render executes the act template
func (r *HTMLRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	view, warnings := r.view(req.Document, req.Style)

	html, err := r.engine.Execute(ctx, actTemplate, view)
	if err != nil {
		return nil, err
	}
	return &RenderResult{
		Content:        []byte(html),
		Format:         FormatHTML,
		PageCount:      1,
		Warnings:       warnings,
		RenderDuration: time.Since(start),
	}, nil
}

func (r *HTMLRenderer) view(c *act.Composition, s *layout.StyleSheet) (*htmlView, []string) {
	images := newImageCache()
	var warnings []string

	v := &htmlView{
		C:          c,
		S:          s,
		FontFamily: docxFontName(s.Font),
		Widths:     s.Table.Widths(),
		Acceptor:   htmlParty{PartyBlock: c.Acceptor},
		Transferor: htmlParty{PartyBlock: c.Transferor},
		PageLabel:  c.PageLabel(1, 1),
		LineText:   strings.Repeat("_", s.Signature.LineLength),
	}

	load := func(path string, w float64) *htmlImage {
		img, err := images.load(path)
		if err != nil {
			r.logger.Debug("skipping image", zap.String("path", path), zap.Error(err))
			return nil
		}
		return &htmlImage{Src: dataURI(img), Width: w, Height: img.AspectHeight(w)}
	}
	if c.LogoPath != "" {
		v.Logo = load(c.LogoPath, s.Logo.Width)
	}
	if c.Cover != nil && c.Cover.LogoPath != "" {
		v.CoverLogo = load(c.Cover.LogoPath, s.Logo.Width)
	}
	if c.Acceptor.SignatureImage != "" {
		v.Acceptor.Signature = load(c.Acceptor.SignatureImage, s.Signature.ImageWidth)
	}
	if c.Transferor.SignatureImage != "" {
		v.Transferor.Signature = load(c.Transferor.SignatureImage, s.Signature.ImageWidth)
	}

	v.Parties = []htmlParty{v.Acceptor, v.Transferor}

	for _, row := range c.Rows {
		cells := make([]htmlCell, len(s.Table.Columns))
		for i, col := range s.Table.Columns {
			cells[i].Align = col.Align
			if i < len(row.Cells) {
				cells[i].Text = row.Cells[i]
			}
		}
		v.Rows = append(v.Rows, cells)
	}

	for _, att := range c.Attachments {
		if img := load(att.Path, s.ContentWidth); img != nil {
			img.Caption = att.Caption
			v.Attachments = append(v.Attachments, *img)
		}
	}

	for _, block := range c.QRCodes {
		st := s.QRStyleFor(block.Kind)
		img, err := qrImage(block.Data, st.Size, st.Color)
		if err != nil {
			r.logger.Warn("QR code skipped", zap.Error(err))
			warnings = append(warnings, "QR code skipped: "+err.Error())
			continue
		}
		v.QRCodes = append(v.QRCodes, htmlQR{
			htmlImage: htmlImage{Src: dataURI(img), Width: st.Size, Height: st.Size},
			Align:     block.Position.Horizontal(),
		})
	}
	return v, warnings
}

func dataURI(img *imageData) template.URL {
	return template.URL("data:" + img.MIME() + ";base64," + base64.StdEncoding.EncodeToString(img.Data))
}

var _ Renderer = (*HTMLRenderer)(nil)

package printing

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
	"go.uber.org/zap"
)

const (
	nsWordML          = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRelationships   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	relFooter         = nsRelationships + "/footer"
	footerPartName    = "word/footer1.xml"
	footerContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
)

// runProps are the character properties of one run
type runProps struct {
	bold, italic, underline bool
	size                    float64
	color                   layout.RGB
	font                    string
}

// ctRun builds one run, turning newlines into line breaks
func ctRun(p runProps, text string) *ctypes.Run {
	prop := &ctypes.RunProperty{
		Color:  ctypes.NewColor(p.color.Hex()),
		Size:   ctypes.NewFontSize(halfPoints(p.size)),
		SizeCs: ctypes.NewFontSizeCS(halfPoints(p.size)),
	}
	if p.font != "" {
		prop.Fonts = &ctypes.RunFonts{Ascii: p.font, HAnsi: p.font, CS: p.font, EastAsia: p.font}
	}
	if p.bold {
		prop.Bold = &ctypes.OnOff{}
	}
	if p.italic {
		prop.Italic = &ctypes.OnOff{}
	}
	if p.underline {
		prop.Underline = ctypes.NewGenSingleStrVal(stypes.UnderlineSingle)
	}

	r := &ctypes.Run{Property: prop}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.Children = append(r.Children, ctypes.RunChild{Break: ctypes.NewBreak(stypes.BreakTypeTextWrapping)})
		}
		r.Children = append(r.Children, ctypes.RunChild{Text: ctypes.TextFromString(line)})
	}
	return r
}

// markupRuns splits inline markup into runs sharing base
func markupRuns(base runProps, text string) []*ctypes.Run {
	spans := ParseMarkup(text)
	runs := make([]*ctypes.Run, 0, len(spans))
	for _, span := range spans {
		p := base
		p.bold = p.bold || span.Bold
		p.italic = p.italic || span.Italic
		p.underline = p.underline || span.Underline
		runs = append(runs, ctRun(p, span.Text))
	}
	return runs
}

func justification(align act.Alignment) stypes.Justification {
	switch align {
	case act.AlignCenter:
		return stypes.JustificationCenter
	case act.AlignRight:
		return stypes.JustificationRight
	default:
		return stypes.JustificationLeft
	}
}

// paraProp sets alignment and an at-least line height. Spacing is in
// twentieths of a point.
func paraProp(align act.Alignment, leading, after float64) *ctypes.ParagraphProp {
	before, below := uint64(0), uint64(after*20)
	line := int(leading * 20)
	rule := stypes.LineSpacingRuleAtLeast
	return &ctypes.ParagraphProp{
		Spacing:       &ctypes.Spacing{Before: &before, After: &below, Line: &line, LineRule: &rule},
		Justification: ctypes.NewGenSingleStrVal(justification(align)),
	}
}

func appendRuns(p *docx.Paragraph, runs ...*ctypes.Run) {
	ct := p.GetCT()
	for _, r := range runs {
		ct.Children = append(ct.Children, ctypes.ParagraphChild{Run: r})
	}
}

func dxa(v int) *ctypes.TableWidth {
	return ctypes.NewTableWidth(v, stypes.TableWidthDxa)
}

// docxBody walks a composition into a godocx document
type docxBody struct {
	doc      *docx.RootDoc
	c        *act.Composition
	s        *layout.StyleSheet
	images   *imageCache
	staging  string
	staged   map[string]string
	font     string
	logger   *zap.Logger
	warnings []string
}

func newDOCXBody(doc *docx.RootDoc, c *act.Composition, s *layout.StyleSheet, images *imageCache, staging string, logger *zap.Logger) *docxBody {
	return &docxBody{
		doc:     doc,
		c:       c,
		s:       s,
		images:  images,
		staging: staging,
		staged:  make(map[string]string),
		font:    docxFontName(s.Font),
		logger:  logger,
	}
}

func (b *docxBody) sections() []func() error {
	return []func() error{
		b.cover,
		b.header,
		b.meta,
		b.contract,
		b.parties,
		b.table,
		b.summary,
		b.clauses,
		b.attachments,
		b.signature,
		b.footer,
		b.page,
	}
}

func (b *docxBody) props(ts layout.TextStyle) runProps {
	return runProps{size: ts.Size, color: ts.Color, font: b.font}
}

func (b *docxBody) paragraph(ts layout.TextStyle, align act.Alignment, runs ...*ctypes.Run) *docx.Paragraph {
	p := b.doc.AddEmptyParagraph()
	p.GetCT().Property = paraProp(align, ts.Leading, 4)
	appendRuns(p, runs...)
	return p
}

func (b *docxBody) text(ts layout.TextStyle, bold, italic bool, align act.Alignment, text string) {
	p := b.props(ts)
	p.bold, p.italic = bold, italic
	b.paragraph(ts, align, ctRun(p, text))
}

// stage writes the normalised image bytes once per source path. Pictures
// are added to the package from files.
func (b *docxBody) stage(path string, img *imageData) (string, error) {
	if f, ok := b.staged[path]; ok {
		return f, nil
	}
	f := filepath.Join(b.staging, fmt.Sprintf("image%d.%s", len(b.staged)+1, img.Ext()))
	if err := os.WriteFile(f, img.Data, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage image: %w", err)
	}
	b.staged[path] = f
	return f, nil
}

// picture adds an inline picture of the given size in millimeters
func (b *docxBody) picture(p *docx.Paragraph, path string, img *imageData, w, h float64) error {
	file, err := b.stage(path, img)
	if err != nil {
		return err
	}
	if _, err := p.AddPicture(file, units.Inch(w/mmPerInch), units.Inch(h/mmPerInch)); err != nil {
		return fmt.Errorf("failed to add picture %s: %w", filepath.Base(path), err)
	}
	return nil
}

// image places a picture paragraph; missing or undecodable files are skipped
func (b *docxBody) image(path string, w, maxH float64, align act.Alignment) (bool, error) {
	img, err := b.images.load(path)
	if err != nil {
		b.logger.Debug("skipping image", zap.String("path", path), zap.Error(err))
		return false, nil
	}
	h := img.AspectHeight(w)
	if maxH > 0 && h > maxH {
		w *= maxH / h
		h = maxH
	}
	p := b.paragraph(b.s.Text.Normal, align)
	return true, b.picture(p, path, img, w, h)
}

func (b *docxBody) cover() error {
	cv := b.c.Cover
	if cv == nil {
		return nil
	}
	if cv.LogoPath != "" {
		if _, err := b.image(cv.LogoPath, b.s.Logo.Width, 0, act.AlignCenter); err != nil {
			return err
		}
	}
	title := b.s.Text.Title
	title.Size *= 1.6
	title.Leading *= 1.6
	b.text(title, true, false, act.AlignCenter, cv.Title)
	if cv.Subtitle != "" {
		b.text(b.s.Text.Heading, false, false, act.AlignCenter, cv.Subtitle)
	}
	for _, f := range cv.Lines {
		b.text(b.s.Text.Normal, false, false, act.AlignCenter, f.String())
	}
	b.doc.AddPageBreak()
	return nil
}

func (b *docxBody) header() error {
	if b.c.LogoPath != "" {
		if _, err := b.image(b.c.LogoPath, b.s.Logo.Width, 0, act.AlignLeft); err != nil {
			return err
		}
	}
	b.text(b.s.Text.Title, true, false, act.AlignCenter, b.c.Title)
	return nil
}

func (b *docxBody) meta() error {
	if len(b.c.Meta) == 0 {
		return nil
	}
	parts := make([]string, len(b.c.Meta))
	for i, f := range b.c.Meta {
		parts[i] = f.String()
	}
	b.text(b.s.Text.Normal, false, false, act.AlignLeft, strings.Join(parts, "    "))
	return nil
}

func (b *docxBody) contract() error {
	for _, f := range b.c.ContractLines {
		b.text(b.s.Text.Normal, false, false, act.AlignLeft, f.String())
	}
	return nil
}

// newTable adds a fixed-grid table; a nil border leaves it borderless
func (b *docxBody) newTable(widths []float64, border *layout.RGB) *docx.Table {
	total := 0.0
	grid := make([]uint64, len(widths))
	for i, w := range widths {
		total += w
		grid[i] = uint64(twips(w))
	}
	pad := twips(b.s.Table.CellPadding)

	tbl := b.doc.AddTable()
	tbl.Width(twips(total), stypes.TableWidthDxa).
		Layout(stypes.TableLayoutFixed).
		Grid(grid...).
		CellMargin(dxa(pad), dxa(pad), dxa(pad), dxa(pad))
	if border != nil {
		sz := max(int(b.s.Table.BorderThickness*layout.PointsPerMM*8), 2)
		edge := func() *ctypes.Border {
			return ctypes.NewCellBorder(stypes.BorderStyleSingle, border.Hex(), "0", sz)
		}
		tbl.GetCT().TableProp.Borders = &ctypes.TableBorders{
			Top:     edge(),
			Left:    edge(),
			Bottom:  edge(),
			Right:   edge(),
			InsideH: edge(),
			InsideV: edge(),
		}
	}
	return tbl
}

func (b *docxBody) cell(row *docx.Row, width float64, fill *layout.RGB) *docx.Cell {
	c := row.AddCell()
	c.Width(twips(width), stypes.TableWidthDxa)
	if fill != nil {
		c.BackgroundColor(fill.Hex())
	}
	return c
}

func (b *docxBody) cellText(c *docx.Cell, ts layout.TextStyle, align act.Alignment, runs ...*ctypes.Run) *docx.Paragraph {
	p := c.AddEmptyPara()
	p.GetCT().Property = paraProp(align, ts.Leading, 0)
	appendRuns(p, runs...)
	return p
}

func (b *docxBody) spacer() {
	p := b.doc.AddEmptyParagraph()
	p.Spacing(0, 0)
}

func (b *docxBody) parties() error {
	colW := b.s.ContentWidth / 2
	tbl := b.s.Table
	t := b.newTable([]float64{colW, colW}, &tbl.Border)

	heading := b.props(b.s.Text.Heading)
	heading.bold = true
	normal := b.props(b.s.Text.Normal)
	bold := normal
	bold.bold = true

	blocks := []act.PartyBlock{b.c.Acceptor, b.c.Transferor}
	row := t.AddRow()
	for _, p := range blocks {
		c := b.cell(row, colW, &tbl.HeaderBackground)
		b.cellText(c, b.s.Text.Heading, act.AlignLeft, ctRun(heading, p.Heading))
	}
	row = t.AddRow()
	for _, p := range blocks {
		c := b.cell(row, colW, nil)
		if p.Name == "" && len(p.Lines) == 0 {
			c.AddEmptyPara()
			continue
		}
		if p.Name != "" {
			b.cellText(c, b.s.Text.Normal, act.AlignLeft, ctRun(bold, p.Name))
		}
		for _, f := range p.Lines {
			b.cellText(c, b.s.Text.Normal, act.AlignLeft, ctRun(normal, f.String()))
		}
	}
	b.spacer()
	return nil
}

func (b *docxBody) table() error {
	if len(b.c.Columns) == 0 {
		return nil
	}
	tbl := b.s.Table
	t := b.newTable(tbl.Widths(), &tbl.Grid)

	header := runProps{
		bold:   tbl.HeaderFontStyle.IsBold(),
		italic: tbl.HeaderFontStyle.IsItalic(),
		size:   b.s.Text.Table.Size,
		color:  tbl.HeaderText,
		font:   b.font,
	}
	row := t.AddRow()
	for i, col := range tbl.Columns {
		label := ""
		if i < len(b.c.Columns) {
			label = b.c.Columns[i].Label
		}
		c := b.cell(row, col.Width, &tbl.HeaderBackground)
		b.cellText(c, b.s.Text.Table, act.AlignCenter, ctRun(header, label))
	}

	body := b.props(b.s.Text.Table)
	for r, line := range b.c.Rows {
		var fill *layout.RGB
		if tbl.AlternateRows && r%2 == 1 {
			fill = &tbl.AlternateRow
		}
		row := t.AddRow()
		for i, col := range tbl.Columns {
			text := ""
			if i < len(line.Cells) {
				text = line.Cells[i]
			}
			c := b.cell(row, col.Width, fill)
			b.cellText(c, b.s.Text.Table, col.Align, ctRun(body, text))
		}
	}
	b.spacer()
	return nil
}

func (b *docxBody) summary() error {
	for _, line := range b.c.Summary {
		b.text(b.s.Text.Normal, line.Strong, false, act.AlignRight, line.Label+": "+line.Value)
	}
	return nil
}

func (b *docxBody) clauses() error {
	for _, cl := range b.c.Clauses {
		b.text(b.s.Text.Heading, true, false, act.AlignLeft, cl.Heading)
		b.paragraph(b.s.Text.Normal, act.AlignLeft, markupRuns(b.props(b.s.Text.Normal), cl.Text)...)
	}
	return nil
}

func (b *docxBody) attachments() error {
	if len(b.c.Attachments) == 0 {
		return nil
	}
	b.doc.AddPageBreak()
	b.text(b.s.Text.Heading, true, false, act.AlignLeft, b.c.AttachmentsHeading)
	maxH := b.s.Page.Height - b.s.Margins.Top - b.s.Margins.Bottom - 20
	for _, att := range b.c.Attachments {
		placed, err := b.image(att.Path, b.s.ContentWidth, maxH, act.AlignCenter)
		if err != nil {
			return err
		}
		if placed && att.Caption != "" {
			b.text(b.s.Text.Small, false, true, act.AlignCenter, att.Caption)
		}
	}
	return nil
}

func (b *docxBody) signature() error {
	sig := b.c.Signature
	switch sig.Mode {
	case act.SignatureElectronic:
		if sig.Disclaimer != "" {
			b.text(b.s.Text.Small, false, true, act.AlignCenter, sig.Disclaimer)
		}
	case act.SignatureLines:
		return b.signatureLines()
	}
	return nil
}

func (b *docxBody) signatureLines() error {
	st := b.s.Signature
	ts := layout.TextStyle{Size: st.FontSize, Leading: st.FontSize * 1.2, Color: b.s.Text.Normal.Color}
	colW := b.s.ContentWidth / 2
	b.spacer()
	t := b.newTable([]float64{colW, colW}, nil)
	row := t.AddRow()
	for _, p := range []act.PartyBlock{b.c.Acceptor, b.c.Transferor} {
		props := b.props(ts)
		bold := props
		bold.bold = true

		c := b.cell(row, colW, nil)
		b.cellText(c, ts, act.AlignLeft, ctRun(bold, p.Heading+":"))
		signed, err := b.signatureImage(c, ts, p.SignatureImage)
		if err != nil {
			return err
		}
		if !signed {
			b.cellText(c, ts, act.AlignLeft, ctRun(props, strings.Repeat("_", st.LineLength)))
		}
		b.cellText(c, ts, act.AlignLeft, ctRun(props, signatureCaption(p.Signatory, b.c.Signature.Label)))
	}
	b.spacer()
	return nil
}

// signatureImage places a party's signature scan in its cell and reports
// whether it did. The underscore line stands in only when it did not.
func (b *docxBody) signatureImage(c *docx.Cell, ts layout.TextStyle, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	img, err := b.images.load(path)
	if err != nil {
		b.logger.Debug("skipping signature image", zap.String("path", path), zap.Error(err))
		return false, nil
	}
	st := b.s.Signature
	w := min(st.ImageWidth, st.ImageHeight*float64(img.Width)/float64(img.Height))
	p := b.cellText(c, ts, act.AlignLeft)
	if err := b.picture(p, path, img, w, img.AspectHeight(w)); err != nil {
		return false, err
	}
	return true, nil
}

// footerPiece is a literal run or, when instr is set, a simple field whose
// cached result is the run
type footerPiece struct {
	run   *ctypes.Run
	instr string
}

type footerParagraph struct {
	prop   *ctypes.ParagraphProp
	pieces []footerPiece
}

func (p footerParagraph) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: "w:p"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if p.prop != nil {
		if err := p.prop.MarshalXML(e, xml.StartElement{}); err != nil {
			return err
		}
	}
	for _, piece := range p.pieces {
		if piece.instr == "" {
			if err := piece.run.MarshalXML(e, xml.StartElement{}); err != nil {
				return err
			}
			continue
		}
		fld := xml.StartElement{
			Name: xml.Name{Local: "w:fldSimple"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "w:instr"}, Value: " " + piece.instr + ` \* MERGEFORMAT `}},
		}
		if err := e.EncodeToken(fld); err != nil {
			return err
		}
		if err := piece.run.MarshalXML(e, xml.StartElement{}); err != nil {
			return err
		}
		if err := e.EncodeToken(fld.End()); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

type footerPart struct {
	paragraphs []footerParagraph
}

func (f footerPart) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{
		Name: xml.Name{Local: "w:ftr"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:w"}, Value: nsWordML},
			{Name: xml.Name{Local: "xmlns:r"}, Value: nsRelationships},
		},
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, p := range f.paragraphs {
		if err := p.MarshalXML(e, xml.StartElement{}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// footer adds the footer part. Page numbers are Word fields, so the
// "page N of M" format is split around its two placeholders.
func (b *docxBody) footer() error {
	if b.c.GeneratedAt == "" && b.c.FooterText == "" && !b.c.ShowPageNumbers {
		return nil
	}
	ts := b.s.Text.Small
	props := b.props(ts)

	var part footerPart
	for _, text := range []string{b.c.GeneratedAt, b.c.FooterText} {
		if text != "" {
			part.paragraphs = append(part.paragraphs, footerParagraph{
				prop:   paraProp(act.AlignCenter, ts.Leading, 0),
				pieces: []footerPiece{{run: ctRun(props, text)}},
			})
		}
	}
	if b.c.ShowPageNumbers {
		numbers := footerParagraph{prop: paraProp(act.AlignRight, ts.Leading, 0)}
		for i, piece := range strings.SplitN(b.c.PageFormat, "%d", 3) {
			switch i {
			case 1:
				numbers.pieces = append(numbers.pieces, footerPiece{run: ctRun(props, "1"), instr: "PAGE"})
			case 2:
				numbers.pieces = append(numbers.pieces, footerPiece{run: ctRun(props, "1"), instr: "NUMPAGES"})
			}
			if piece != "" {
				numbers.pieces = append(numbers.pieces, footerPiece{run: ctRun(props, piece)})
			}
		}
		part.paragraphs = append(part.paragraphs, numbers)
	}

	data, err := xml.Marshal(part)
	if err != nil {
		return fmt.Errorf("failed to marshal footer: %w", err)
	}
	b.doc.FileMap.Store(footerPartName, append([]byte(xml.Header), data...))
	if err := b.doc.ContentType.AddOverride("/"+footerPartName, footerContentType); err != nil {
		return fmt.Errorf("failed to register footer: %w", err)
	}
	id := "rId" + strconv.Itoa(b.doc.Document.IncRelationID())
	b.doc.Document.DocRels.Relationships = append(b.doc.Document.DocRels.Relationships, &docx.Relationship{
		ID:     id,
		Type:   relFooter,
		Target: filepath.Base(footerPartName),
	})
	b.sectPr().FooterReference = &ctypes.FooterReference{Type: stypes.HdrFtrDefault, ID: id}
	return nil
}

func (b *docxBody) sectPr() *ctypes.SectionProp {
	body := b.doc.Document.Body
	if body.SectPr == nil {
		body.SectPr = ctypes.NewSectionProper()
	}
	return body.SectPr
}

// page sets the paper size and margins; header and footer sit halfway
// into the top and bottom margins
func (b *docxBody) page() error {
	sp := b.sectPr()
	w, h := uint64(twips(b.s.Page.Width)), uint64(twips(b.s.Page.Height))
	sp.PageSize = &ctypes.PageSize{Width: &w, Height: &h}
	if b.s.Page.Orientation == act.OrientationLandscape {
		sp.PageSize.Orient = stypes.PageOrientLandscape
	}

	m := b.s.Margins
	top, right, bottom, left := twips(m.Top), twips(m.Right), twips(m.Bottom), twips(m.Left)
	header, footer, gutter := twips(m.Top/2), twips(m.Bottom/2), 0
	sp.PageMargin = &ctypes.PageMargin{
		Top:    &top,
		Right:  &right,
		Bottom: &bottom,
		Left:   &left,
		Header: &header,
		Footer: &footer,
		Gutter: &gutter,
	}
	return nil
}

// docxFontName maps the resolved font onto a name word processors know
func docxFontName(f layout.FontRef) string {
	if f.IsEmbedded() {
		name := strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
		return strings.TrimSuffix(name, "-Regular")
	}
	switch f.Fallback {
	case "Times":
		return "Times New Roman"
	case "Courier":
		return "Courier New"
	default:
		return "Arial"
	}
}

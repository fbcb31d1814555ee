package printing

import (
	"bytes"
	"strings"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

const (
	sectionGap  = 4.0
	footerSpace = 10.0
)

// pdfDoc is one layout pass over a composition
type pdfDoc struct {
	pdf        *gofpdf.Fpdf
	c          *act.Composition
	s          *layout.StyleSheet
	font       *pdfFont
	tr         func(string) string
	images     *imageCache
	totalPages int
	warnings   []string
	logger     *zap.Logger
}

func newPDFDoc(c *act.Composition, s *layout.StyleSheet, font *pdfFont, images *imageCache, totalPages int, logger *zap.Logger) *pdfDoc {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: s.Page.Width, Ht: s.Page.Height},
	})
	pdf.SetCatalogSort(true)
	pdf.SetTitle(c.Title, true)
	pdf.SetCreator("actdesk", true)
	if c.Transferor.Name != "" {
		pdf.SetAuthor(c.Transferor.Name, true)
	}
	pdf.SetMargins(s.Margins.Left, s.Margins.Top, s.Margins.Right)
	pdf.SetAutoPageBreak(true, s.Margins.Bottom)

	d := &pdfDoc{
		pdf:        pdf,
		c:          c,
		s:          s,
		font:       font,
		images:     images,
		totalPages: totalPages,
		logger:     logger,
	}
	d.tr = font.register(pdf)
	pdf.SetHeaderFuncMode(d.drawWatermark, true)
	pdf.SetFooterFunc(d.drawFooter)
	return d
}

// setText selects the font, size and color of a named style
func (d *pdfDoc) setText(ts layout.TextStyle, style string) {
	d.pdf.SetFont(d.font.family, style, ts.Size)
	d.pdf.SetTextColor(ts.Color.R, ts.Color.G, ts.Color.B)
}

func (d *pdfDoc) measure(s string) float64 {
	return d.pdf.GetStringWidth(d.tr(s))
}

func (d *pdfDoc) pageBreakY() float64 {
	return d.s.Page.Height - d.s.Margins.Bottom
}

// ensureSpace starts a new page unless h more millimeters fit. It reports
// whether a page was added.
func (d *pdfDoc) ensureSpace(h float64) bool {
	if d.pdf.GetY()+h <= d.pageBreakY() {
		return false
	}
	d.pdf.AddPage()
	return true
}

func (d *pdfDoc) warn(msg string, err error) {
	d.logger.Warn(msg, zap.Error(err))
	d.warnings = append(d.warnings, msg+": "+err.Error())
}

// paragraph prints wrapped plain text across the content width
func (d *pdfDoc) paragraph(ts layout.TextStyle, style, text, align string) {
	d.setText(ts, style)
	d.pdf.MultiCell(0, ts.LeadingMM(), d.tr(text), "", align, false)
}

// markup prints text carrying inline tags, one span at a time
func (d *pdfDoc) markup(ts layout.TextStyle, text string) {
	lh := ts.LeadingMM()
	for _, span := range ParseMarkup(text) {
		d.pdf.SetFont(d.font.family, span.Style(), ts.Size)
		d.pdf.SetTextColor(ts.Color.R, ts.Color.G, ts.Color.B)
		d.pdf.Write(lh, d.tr(span.Text))
	}
	d.pdf.Ln(lh)
}

// placeImage draws an image of width w at the given alignment in flow and
// returns its height. Missing or undecodable files are skipped.
func (d *pdfDoc) placeImage(path string, w float64, align act.Alignment) (float64, bool) {
	img, err := d.images.load(path)
	if err != nil {
		d.logger.Debug("skipping image", zap.String("path", path), zap.Error(err))
		return 0, false
	}
	h := img.AspectHeight(w)
	d.ensureSpace(h)
	d.drawImage(path, img, d.alignedX(w, align), d.pdf.GetY(), w, h)
	return h, true
}

func (d *pdfDoc) drawImage(name string, img *imageData, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func (d *pdfDoc) alignedX(w float64, align act.Alignment) float64 {
	left := d.s.Margins.Left
	switch align {
	case act.AlignCenter:
		return left + (d.s.ContentWidth-w)/2
	case act.AlignRight:
		return left + d.s.ContentWidth - w
	default:
		return left
	}
}

func (d *pdfDoc) drawWatermark() {
	wm := d.c.Watermark
	if wm == nil {
		return
	}
	st := d.s.Watermark
	d.pdf.SetFont(d.font.family, "B", st.FontSize)
	d.pdf.SetTextColor(st.Color.R, st.Color.G, st.Color.B)
	d.pdf.SetAlpha(st.Opacity, "Normal")

	text := d.tr(wm.Text)
	cx := d.s.Page.Width / 2
	cy := d.s.Page.Height / 2
	d.pdf.TransformBegin()
	d.pdf.TransformRotate(st.Rotation, cx, cy)
	d.pdf.Text(cx-d.pdf.GetStringWidth(text)/2, cy+st.FontSize/layout.PointsPerMM/3, text)
	d.pdf.TransformEnd()
	d.pdf.SetAlpha(1.0, "Normal")
}

func (d *pdfDoc) drawFooter() {
	if d.c.GeneratedAt == "" && d.c.FooterText == "" && !d.c.ShowPageNumbers {
		return
	}
	ts := d.s.Text.Small
	d.setText(ts, "")
	y := d.s.Page.Height - max(d.s.Margins.Bottom, footerSpace) + 2
	w := d.s.ContentWidth / 3
	h := ts.LeadingMM()

	d.pdf.SetXY(d.s.Margins.Left, y)
	d.pdf.CellFormat(w, h, d.tr(d.c.GeneratedAt), "", 0, "L", false, 0, "")
	d.pdf.CellFormat(w, h, d.tr(d.c.FooterText), "", 0, "C", false, 0, "")
	if d.c.ShowPageNumbers {
		d.pdf.CellFormat(w, h, d.tr(d.c.PageLabel(d.pdf.PageNo(), d.totalPages)), "", 0, "R", false, 0, "")
	}
}

func (d *pdfDoc) cover() {
	cv := d.c.Cover
	if cv == nil {
		return
	}
	d.pdf.AddPage()
	if cv.LogoPath != "" {
		d.placeImage(cv.LogoPath, d.s.Logo.Width, act.AlignCenter)
	}
	d.pdf.SetY(d.s.Page.Height / 3)

	title := d.s.Text.Title
	title.Size *= 1.6
	title.Leading *= 1.6
	d.paragraph(title, "B", cv.Title, "C")
	if cv.Subtitle != "" {
		d.pdf.Ln(sectionGap)
		d.paragraph(d.s.Text.Heading, "", cv.Subtitle, "C")
	}
	d.pdf.Ln(sectionGap * 3)
	for _, f := range cv.Lines {
		d.paragraph(d.s.Text.Normal, "", f.String(), "C")
	}
}

func (d *pdfDoc) header() {
	d.pdf.AddPage()
	top := d.pdf.GetY()
	logoH := 0.0
	if d.c.LogoPath != "" {
		if img, err := d.images.load(d.c.LogoPath); err == nil {
			logoH = img.AspectHeight(d.s.Logo.Width)
			d.drawImage(d.c.LogoPath, img, d.s.Margins.Left, top, d.s.Logo.Width, logoH)
			d.pdf.SetY(top + logoH + 2)
		} else {
			d.logger.Debug("skipping logo", zap.String("path", d.c.LogoPath), zap.Error(err))
		}
	}
	d.paragraph(d.s.Text.Title, "B", d.c.Title, "C")
	d.pdf.Ln(sectionGap)
}

func (d *pdfDoc) meta() {
	if len(d.c.Meta) == 0 {
		return
	}
	parts := make([]string, len(d.c.Meta))
	for i, f := range d.c.Meta {
		parts[i] = f.String()
	}
	d.paragraph(d.s.Text.Normal, "", strings.Join(parts, "    "), "L")
	d.pdf.Ln(sectionGap / 2)
}

func (d *pdfDoc) contract() {
	if len(d.c.ContractLines) == 0 {
		return
	}
	for _, f := range d.c.ContractLines {
		d.paragraph(d.s.Text.Normal, "", f.String(), "L")
	}
	d.pdf.Ln(sectionGap / 2)
}

// parties draws the bordered two-column acceptor/transferor block
func (d *pdfDoc) parties() {
	ts := d.s.Text.Normal
	lh := ts.LeadingMM()
	pad := d.s.Table.CellPadding
	colW := d.s.ContentWidth / 2
	innerW := colW - 2*pad

	blocks := []act.PartyBlock{d.c.Acceptor, d.c.Transferor}
	bodies := make([][]string, len(blocks))
	d.setText(ts, "")
	rows := 0
	for i, b := range blocks {
		var lines []string
		if b.Name != "" {
			lines = append(lines, b.Name)
		}
		for _, f := range b.Lines {
			lines = append(lines, f.String())
		}
		var wrapped []string
		for _, l := range lines {
			wrapped = append(wrapped, wrapText(l, innerW, d.measure)...)
		}
		bodies[i] = wrapped
		rows = max(rows, len(wrapped))
	}

	headH := d.s.Text.Heading.LeadingMM() + 2*pad
	bodyH := float64(max(rows, 1))*lh + 2*pad
	d.ensureSpace(headH + bodyH)

	y := d.pdf.GetY()
	tbl := d.s.Table
	d.pdf.SetLineWidth(tbl.BorderThickness)
	d.pdf.SetDrawColor(tbl.Border.R, tbl.Border.G, tbl.Border.B)
	d.pdf.SetFillColor(tbl.HeaderBackground.R, tbl.HeaderBackground.G, tbl.HeaderBackground.B)
	for i, b := range blocks {
		x := d.s.Margins.Left + float64(i)*colW
		d.pdf.Rect(x, y, colW, headH, "FD")
		d.pdf.Rect(x, y+headH, colW, bodyH, "D")

		d.setText(d.s.Text.Heading, "B")
		d.pdf.SetXY(x+pad, y+pad)
		d.pdf.CellFormat(innerW, d.s.Text.Heading.LeadingMM(), d.tr(b.Heading), "", 0, "L", false, 0, "")

		for j, line := range bodies[i] {
			style := ""
			if j == 0 && b.Name != "" {
				style = "B"
			}
			d.setText(ts, style)
			d.pdf.SetXY(x+pad, y+headH+pad+float64(j)*lh)
			d.pdf.CellFormat(innerW, lh, d.tr(line), "", 0, "L", false, 0, "")
		}
	}
	d.pdf.SetXY(d.s.Margins.Left, y+headH+bodyH)
	d.pdf.Ln(sectionGap)
}

// table draws the line items, repeating the header after page breaks
func (d *pdfDoc) table() {
	if len(d.c.Columns) == 0 {
		return
	}
	tbl := d.s.Table
	labels := make([]string, len(d.c.Columns))
	for i, col := range d.c.Columns {
		labels[i] = col.Label
	}

	headerStyle := string(tbl.HeaderFontStyle)
	drawHeader := func() {
		h := d.rowHeight(labels, headerStyle)
		d.ensureSpace(h)
		d.drawRow(labels, headerStyle, h, &tbl.HeaderBackground, tbl.HeaderText, tbl.Border, true)
	}
	drawHeader()

	for i, row := range d.c.Rows {
		h := d.rowHeight(row.Cells, "")
		if d.ensureSpace(h) {
			drawHeader()
		}
		var fill *layout.RGB
		if tbl.AlternateRows && i%2 == 1 {
			fill = &tbl.AlternateRow
		}
		d.drawRow(row.Cells, "", h, fill, d.s.Text.Table.Color, tbl.Grid, false)
	}
	d.pdf.Ln(sectionGap)
}

func (d *pdfDoc) rowHeight(cells []string, style string) float64 {
	ts := d.s.Text.Table
	d.setText(ts, style)
	pad := d.s.Table.CellPadding
	lines := 1
	for i, col := range d.s.Table.Columns {
		if i >= len(cells) {
			break
		}
		lines = max(lines, len(wrapText(cells[i], col.Width-2*pad, d.measure)))
	}
	return float64(lines)*ts.LeadingMM() + 2*pad
}

func (d *pdfDoc) drawRow(cells []string, style string, h float64, fill *layout.RGB, text, border layout.RGB, header bool) {
	ts := d.s.Text.Table
	lh := ts.LeadingMM()
	pad := d.s.Table.CellPadding
	y := d.pdf.GetY()
	x := d.s.Margins.Left

	d.pdf.SetLineWidth(d.s.Table.BorderThickness)
	d.pdf.SetDrawColor(border.R, border.G, border.B)
	for i, col := range d.s.Table.Columns {
		if fill != nil {
			d.pdf.SetFillColor(fill.R, fill.G, fill.B)
			d.pdf.Rect(x, y, col.Width, h, "F")
		}
		d.pdf.Rect(x, y, col.Width, h, "D")

		if i < len(cells) {
			d.pdf.SetFont(d.font.family, style, ts.Size)
			d.pdf.SetTextColor(text.R, text.G, text.B)
			align := alignCode(col.Align)
			if header {
				align = "C"
			}
			for j, line := range wrapText(cells[i], col.Width-2*pad, d.measure) {
				d.pdf.SetXY(x+pad, y+pad+float64(j)*lh)
				d.pdf.CellFormat(col.Width-2*pad, lh, d.tr(line), "", 0, align, false, 0, "")
			}
		}
		x += col.Width
	}
	d.pdf.SetXY(d.s.Margins.Left, y+h)
}

func (d *pdfDoc) summary() {
	ts := d.s.Text.Normal
	lh := ts.LeadingMM() + 1
	valueW := d.s.ContentWidth * 0.22
	labelW := d.s.ContentWidth * 0.35
	x := d.s.Margins.Left + d.s.ContentWidth - valueW - labelW

	d.ensureSpace(lh * float64(len(d.c.Summary)))
	for _, line := range d.c.Summary {
		style := ""
		if line.Strong {
			style = "B"
		}
		d.setText(ts, style)
		d.pdf.SetX(x)
		d.pdf.CellFormat(labelW, lh, d.tr(line.Label), "", 0, "R", false, 0, "")
		d.pdf.CellFormat(valueW, lh, d.tr(line.Value), "", 1, "R", false, 0, "")
	}
	d.pdf.Ln(sectionGap)
}

func (d *pdfDoc) clauses() {
	for _, cl := range d.c.Clauses {
		d.ensureSpace(d.s.Text.Heading.LeadingMM() + d.s.Text.Normal.LeadingMM()*2)
		d.paragraph(d.s.Text.Heading, "B", cl.Heading, "L")
		d.markup(d.s.Text.Normal, cl.Text)
		d.pdf.Ln(sectionGap / 2)
	}
}

// attachments prints each image on a fresh page run, scaled to the content
// width and shrunk further when taller than a page.
func (d *pdfDoc) attachments() {
	if len(d.c.Attachments) == 0 {
		return
	}
	d.pdf.AddPage()
	d.paragraph(d.s.Text.Heading, "B", d.c.AttachmentsHeading, "L")
	d.pdf.Ln(sectionGap / 2)

	small := d.s.Text.Small
	maxH := d.pageBreakY() - d.s.Margins.Top - small.LeadingMM()*3
	for _, att := range d.c.Attachments {
		img, err := d.images.load(att.Path)
		if err != nil {
			d.logger.Debug("skipping attachment", zap.String("path", att.Path), zap.Error(err))
			continue
		}
		w := d.s.ContentWidth
		h := img.AspectHeight(w)
		if h > maxH {
			w *= maxH / h
			h = maxH
		}
		captionH := 0.0
		if att.Caption != "" {
			captionH = small.LeadingMM() * 2
		}
		d.ensureSpace(h + captionH)
		y := d.pdf.GetY()
		d.drawImage(att.Path, img, d.alignedX(w, act.AlignCenter), y, w, h)
		d.pdf.SetY(y + h + 1)
		if att.Caption != "" {
			d.paragraph(small, "I", att.Caption, "C")
		}
		d.pdf.Ln(sectionGap)
	}
}

func (d *pdfDoc) signature() {
	sig := d.c.Signature
	switch sig.Mode {
	case act.SignatureElectronic:
		if sig.Disclaimer != "" {
			d.pdf.Ln(sectionGap)
			d.paragraph(d.s.Text.Small, "I", sig.Disclaimer, "C")
		}
	case act.SignatureLines:
		d.signatureLines()
	}
}

func (d *pdfDoc) signatureLines() {
	st := d.s.Signature
	ts := layout.TextStyle{Size: st.FontSize, Leading: st.FontSize * 1.2, Color: d.s.Text.Normal.Color}
	lh := ts.LeadingMM()
	colW := d.s.ContentWidth / 2
	blockH := lh*3 + st.ImageHeight + st.Spacing

	d.pdf.Ln(st.Spacing)
	d.ensureSpace(blockH)
	top := d.pdf.GetY()

	d.setText(ts, "")
	lineW := min(d.measure(strings.Repeat("_", st.LineLength)), colW-4)

	for i, b := range []act.PartyBlock{d.c.Acceptor, d.c.Transferor} {
		x := d.s.Margins.Left + float64(i)*colW
		d.setText(ts, "B")
		d.pdf.SetXY(x, top)
		d.pdf.CellFormat(colW, lh, d.tr(b.Heading+":"), "", 0, "L", false, 0, "")

		lineY := top + lh + st.ImageHeight
		if !d.signatureImage(b.SignatureImage, x, top+lh) {
			d.pdf.SetLineWidth(st.LineThickness)
			d.pdf.SetDrawColor(ts.Color.R, ts.Color.G, ts.Color.B)
			d.pdf.Line(x, lineY, x+lineW, lineY)
		}

		d.setText(ts, "")
		d.pdf.SetXY(x, lineY+0.5)
		d.pdf.CellFormat(lineW, lh, d.tr(signatureCaption(b.Signatory, d.c.Signature.Label)), "", 0, "C", false, 0, "")
	}
	d.pdf.SetXY(d.s.Margins.Left, top+blockH)
}

// signatureImage draws a party's signature scan into the image box and
// reports whether it did. The placeholder line is drawn only when it did not.
func (d *pdfDoc) signatureImage(path string, x, y float64) bool {
	if path == "" {
		return false
	}
	img, err := d.images.load(path)
	if err != nil {
		d.logger.Debug("skipping signature image", zap.String("path", path), zap.Error(err))
		return false
	}
	st := d.s.Signature
	w := min(st.ImageWidth, st.ImageHeight*float64(img.Width)/float64(img.Height))
	d.drawImage(path, img, x, y, w, w*float64(img.Height)/float64(img.Width))
	return true
}

// signatureCaption is the text under a signature line
func signatureCaption(name, label string) string {
	if name == "" {
		return "(" + label + ")"
	}
	return name + " (" + label + ")"
}

// qrCodes places each QR code in flow; the position picks the horizontal
// alignment and the offsets nudge it.
func (d *pdfDoc) qrCodes() {
	if len(d.c.QRCodes) > 0 {
		d.pdf.Ln(sectionGap)
	}
	for _, block := range d.c.QRCodes {
		st := d.s.QRStyleFor(block.Kind)
		img, err := qrImage(block.Data, st.Size, st.Color)
		if err != nil {
			d.warn("QR code skipped", err)
			continue
		}
		d.ensureSpace(st.Size + st.OffsetY)
		x := d.alignedX(st.Size, block.Position.Horizontal()) + st.OffsetX
		x = min(max(x, 0), d.s.Page.Width-st.Size)
		y := d.pdf.GetY() + st.OffsetY
		d.drawImage("qr-"+block.Kind, img, x, y, st.Size, st.Size)
		d.pdf.SetY(y + st.Size + 2)
	}
}

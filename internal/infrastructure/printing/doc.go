// Package printing lays out composed acceptance-transfer acts as PDF (gofpdf),
// DOCX (a hand-written OOXML package) and HTML (html/template), and
// rasterizes pages for preview with pdftoppm or a headless browser.
//
// Every renderer consumes the same act.Composition and layout.StyleSheet:
//
//	req := &printing.RenderRequest{
//	    Document: act.Compose(a, act.ComposeOptions{}),
//	    Style:    layout.Resolve(a),
//	}
//	res, err := printing.NewPDFRenderer().Render(ctx, req)
package printing

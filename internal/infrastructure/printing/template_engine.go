package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"maps"
	"strings"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/layout"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateEngine executes the embedded HTML templates with the document
// formatting helpers.
type TemplateEngine struct {
	funcMap   template.FuncMap
	templates *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithTemplateFuncs adds or overrides template functions
func WithTemplateFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

// NewTemplateEngine parses the embedded templates
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		funcMap: template.FuncMap{
			"markup":     markupHTML,
			"mm":         formatMM,
			"pt":         formatPT,
			"css":        func(c layout.RGB) template.CSS { return template.CSS(c.CSS()) },
			"align":      alignCSS,
			"hasContent": func(s string) bool { return strings.TrimSpace(s) != "" },
		},
	}
	for _, opt := range opts {
		opt(e)
	}

	tmpl, err := template.New("").Funcs(e.funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to parse templates", err)
	}
	e.templates = tmpl
	return e, nil
}

// Execute runs the named template
func (e *TemplateEngine) Execute(ctx context.Context, name string, data any) (string, error) {
	if err := contextError(ctx); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

// markupHTML escapes text and turns recognised inline tags back into HTML
func markupHTML(text string) template.HTML {
	var sb strings.Builder
	for _, span := range ParseMarkup(text) {
		open, closing := "", ""
		if span.Bold {
			open, closing = open+"<b>", "</b>"+closing
		}
		if span.Italic {
			open, closing = open+"<i>", "</i>"+closing
		}
		if span.Underline {
			open, closing = open+"<u>", "</u>"+closing
		}
		escaped := template.HTMLEscapeString(span.Text)
		escaped = strings.ReplaceAll(escaped, "\n", "<br>")
		sb.WriteString(open + escaped + closing)
	}
	return template.HTML(sb.String())
}

func formatMM(v float64) template.CSS {
	return template.CSS(fmt.Sprintf("%.2fmm", v))
}

func formatPT(v float64) template.CSS {
	return template.CSS(fmt.Sprintf("%.1fpt", v))
}

func alignCSS(a act.Alignment) template.CSS {
	switch a {
	case act.AlignCenter:
		return "center"
	case act.AlignRight:
		return "right"
	default:
		return "left"
	}
}

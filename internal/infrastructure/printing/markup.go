package printing

import "strings"

// Span is a run of text sharing one inline style
type Span struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// Style returns the gofpdf style string for the span
func (s Span) Style() string {
	var b strings.Builder
	if s.Bold {
		b.WriteByte('B')
	}
	if s.Italic {
		b.WriteByte('I')
	}
	if s.Underline {
		b.WriteByte('U')
	}
	return b.String()
}

// ParseMarkup splits free text carrying <b>, <i> and <u> tags into styled
// spans. Tags are case-insensitive and only toggle a flag, so unbalanced tags
// simply end or start a run. Anything else that looks like a tag is kept as
// literal text. It never fails.
func ParseMarkup(text string) []Span {
	var (
		spans []Span
		cur   Span
		buf   strings.Builder
	)
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		cur.Text = buf.String()
		spans = append(spans, cur)
		buf.Reset()
	}

	for i := 0; i < len(text); {
		if text[i] == '<' {
			if end := strings.IndexByte(text[i:], '>'); end > 0 {
				tag := strings.ToLower(text[i+1 : i+end])
				closing := strings.HasPrefix(tag, "/")
				name := strings.TrimPrefix(tag, "/")
				var flag *bool
				switch name {
				case "b", "strong":
					flag = &cur.Bold
				case "i", "em":
					flag = &cur.Italic
				case "u":
					flag = &cur.Underline
				}
				if flag != nil {
					if *flag != !closing {
						flush()
						*flag = !closing
					}
					i += end + 1
					continue
				}
			}
		}
		buf.WriteByte(text[i])
		i++
	}
	flush()
	return spans
}

// PlainText strips recognised inline tags
func PlainText(text string) string {
	var b strings.Builder
	for _, s := range ParseMarkup(text) {
		b.WriteString(s.Text)
	}
	return b.String()
}

package printing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var fontStyles = []string{"", "B", "I", "BI"}

// styleSuffixes are the sibling file name endings tried for each style
var styleSuffixes = map[string][]string{
	"B":  {"-Bold", "bd", "b"},
	"I":  {"-Oblique", "-Italic", "i"},
	"BI": {"-BoldOblique", "-BoldItalic", "bi", "z"},
}

// pdfFont is a font ready to register on a gofpdf document
type pdfFont struct {
	family string
	// files holds TrueType bytes per style; nil for a core font
	files map[string][]byte
}

func (f *pdfFont) embedded() bool {
	return f.files != nil
}

// loadPDFFont reads and validates the font a style sheet names. Any failure
// falls back to the core family.
func loadPDFFont(ref layout.FontRef, logger *zap.Logger) *pdfFont {
	core := &pdfFont{family: ref.Fallback}
	if core.family == "" {
		core.family = "Helvetica"
	}
	if !ref.IsEmbedded() {
		return core
	}

	regular, err := os.ReadFile(ref.Path)
	if err != nil {
		logger.Debug("font unavailable, using core font", zap.String("path", ref.Path), zap.Error(err))
		return core
	}
	if err := tryFont(ref.Family, regular); err != nil {
		logger.Debug("font rejected, using core font", zap.String("path", ref.Path), zap.Error(err))
		return core
	}

	files := map[string][]byte{"": regular}
	for _, style := range fontStyles[1:] {
		files[style] = regular
		for _, path := range styleSiblings(ref.Path, style) {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if tryFont(ref.Family, data) == nil {
				files[style] = data
				break
			}
		}
	}
	return &pdfFont{family: ref.Family, files: files}
}

// styleSiblings guesses the file names of the bold and italic faces
func styleSiblings(path, style string) []string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	base = strings.TrimSuffix(base, "-Regular")

	var out []string
	for _, suffix := range styleSuffixes[style] {
		out = append(out, filepath.Join(dir, base+suffix+ext))
	}
	return out
}

// tryFont loads a font into a throwaway document. The TrueType parser can
// panic on garbage, so the panic is recovered.
func tryFont(family string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("font parser panic: %v", r)
		}
	}()
	scratch := gofpdf.New("P", "mm", "A4", "")
	scratch.AddUTF8FontFromBytes(family, "", data)
	scratch.AddPage()
	scratch.SetFont(family, "", 10)
	scratch.GetStringWidth("Pieņemšanas āčēģīķļņšūž")
	if scratch.Err() {
		return scratch.Error()
	}
	return nil
}

// register adds the font to pdf and returns the text translator to use
func (f *pdfFont) register(pdf *gofpdf.Fpdf) func(string) string {
	if !f.embedded() {
		cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
		return func(s string) string {
			return cp1252(foldForCoreFont(s))
		}
	}
	for _, style := range fontStyles {
		pdf.AddUTF8FontFromBytes(f.family, style, f.files[style])
	}
	return func(s string) string { return s }
}

// cp1252Extras are the non-Latin-1 characters cp1252 can still show
var cp1252Extras = map[rune]bool{
	'Š': true, 'š': true, 'Ž': true, 'ž': true, 'Œ': true, 'œ': true, 'Ÿ': true,
	'€': true, '‘': true, '’': true, '“': true, '”': true, '–': true, '—': true,
	'•': true, '…': true,
}

// stripMarks returns a fresh transformer; chains hold buffers and are not
// safe for concurrent use.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// foldForCoreFont strips diacritics from characters the core fonts cannot
// show, so "Pieņēmējs" prints as "Pienemejs" instead of placeholders.
func foldForCoreFont(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x100 || cp1252Extras[r] {
			b.WriteRune(r)
			continue
		}
		folded, _, err := transform.String(stripMarks(), string(r))
		if err != nil || folded == "" || []rune(folded)[0] >= 0x100 {
			b.WriteByte('?')
			continue
		}
		b.WriteString(folded)
	}
	return b.String()
}

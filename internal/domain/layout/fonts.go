package layout

import (
	"os"
	"strings"
)

// EmbeddedFamily is the family name a resolved TrueType font is registered under
const EmbeddedFamily = "ActFont"

// DefaultFontCandidates are platform fonts with Latvian glyph coverage,
// tried in order when no custom font is configured.
var DefaultFontCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/Library/Fonts/Arial.ttf",
	`C:\Windows\Fonts\arial.ttf`,
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// coreFamily maps a configured family name onto a built-in PDF family
func coreFamily(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "times", "times new roman", "serif":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	default:
		return "Helvetica"
	}
}

func (r *resolver) resolveFont(customPath, family string) FontRef {
	fallback := coreFamily(family)
	if p := strings.TrimSpace(customPath); p != "" && r.exists(p) {
		return FontRef{Family: EmbeddedFamily, Path: p, Fallback: fallback}
	}
	for _, candidate := range r.fontCandidates {
		if r.exists(candidate) {
			return FontRef{Family: EmbeddedFamily, Path: candidate, Fallback: fallback}
		}
	}
	return FontRef{Family: fallback, Fallback: fallback}
}

package printing

import (
	"strings"

	"github.com/actdesk/backend/internal/domain/act"
)

// measureFunc reports the printed width of a string in the current font
type measureFunc func(s string) float64

// wrapText breaks text into lines no wider than width. Explicit newlines are
// kept, words longer than a line are split by character. Lines keep their
// original encoding so callers can translate them for the font afterwards.
func wrapText(text string, width float64, measure measureFunc) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if measure(candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			for measure(word) > width {
				head := fitPrefix(word, width, measure)
				lines = append(lines, head)
				word = word[len(head):]
			}
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

// fitPrefix returns the longest prefix of word that fits, at least one rune
func fitPrefix(word string, width float64, measure measureFunc) string {
	end := 0
	for i, r := range word {
		next := i + len(string(r))
		if end > 0 && measure(word[:next]) > width {
			break
		}
		end = next
	}
	return word[:end]
}

// alignCode maps an alignment onto the gofpdf alignment letter
func alignCode(a act.Alignment) string {
	switch a {
	case act.AlignCenter:
		return "C"
	case act.AlignRight:
		return "R"
	default:
		return "L"
	}
}

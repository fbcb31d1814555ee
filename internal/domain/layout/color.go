package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an 8-bit per channel color
type RGB struct {
	R, G, B int
}

// Common colors
var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// ParseHexColor reads "#RRGGBB", "RRGGBB" or the short "#RGB" form
func ParseHexColor(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}, true
}

// ColorOr parses s and falls back to def when it is malformed
func ColorOr(s string, def RGB) RGB {
	if c, ok := ParseHexColor(s); ok {
		return c
	}
	return def
}

// Hex returns the color as "RRGGBB" without the leading hash
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// CSS returns the color as "#RRGGBB"
func (c RGB) CSS() string {
	return "#" + c.Hex()
}

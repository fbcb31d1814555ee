package printing

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func minimalAct() *act.Act {
	a := act.New()
	a.Number = "PP-2025-0001"
	a.Date = "2025-01-15"
	a.Acceptor = act.Party{Name: "SIA Alfa"}
	a.Transferor = act.Party{Name: "SIA Beta"}
	a.AddItem(act.NewLineItem("Service", "1", "pcs", "100.00"))
	return a
}

// newRequest composes and resolves an act with the core font, so tests do
// not depend on fonts installed on the machine.
func newRequest(a *act.Act) *RenderRequest {
	return &RenderRequest{
		Document: act.Compose(a, act.ComposeOptions{Now: fixedNow}),
		Style: layout.Resolve(a,
			layout.WithFontCandidates(),
			layout.WithFileCheck(func(string) bool { return false })),
	}
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xFF})
		}
	}
	path := filepath.Join(t.TempDir(), "image.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

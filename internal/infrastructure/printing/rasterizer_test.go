package printing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRasterizer struct {
	name  string
	png   []byte
	err   error
	calls int
	page  int
	dpi   int
}

func (f *fakeRasterizer) Name() string { return f.name }

func (f *fakeRasterizer) Rasterize(_ context.Context, _ *RasterSource, page, dpi int) ([]byte, error) {
	f.calls++
	f.page, f.dpi = page, dpi
	return f.png, f.err
}

func unavailable(name string) *fakeRasterizer {
	return &fakeRasterizer{name: name, err: NewRenderError(ErrCodeBinaryNotFound, name+" missing", nil)}
}

func TestRasterChain_FallsThroughUnavailable(t *testing.T) {
	first := unavailable("pdftoppm")
	second := &fakeRasterizer{name: "chromedp", png: []byte("png")}
	chain := NewRasterChain(nil, first, nil, second)

	png, err := chain.Rasterize(context.Background(), &RasterSource{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), png)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.page)
	assert.Equal(t, defaultPreviewDPI, second.dpi)
	assert.Equal(t, "chain(pdftoppm,chromedp)", chain.Name())
}

func TestRasterChain_StopsOnRealFailure(t *testing.T) {
	first := &fakeRasterizer{name: "pdftoppm", err: NewRenderError(ErrCodeRenderFailed, "bad pdf", nil)}
	second := &fakeRasterizer{name: "chromedp", png: []byte("png")}

	_, err := NewRasterChain(nil, first, second).Rasterize(context.Background(), &RasterSource{}, 2, 150)
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeRenderFailed, re.Code)
	assert.Zero(t, second.calls)
}

func TestRasterChain_NothingAvailable(t *testing.T) {
	for _, chain := range []*RasterChain{
		NewRasterChain(nil),
		NewRasterChain(nil, unavailable("a"), unavailable("b")),
	} {
		_, err := chain.Rasterize(context.Background(), &RasterSource{}, 1, 96)
		var re *RenderError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, ErrCodeRasterizerUnavailable, re.Code)
	}
}

func TestRasterChain_NilSource(t *testing.T) {
	_, err := NewRasterChain(nil).Rasterize(context.Background(), nil, 1, 96)
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeInvalidRequest, re.Code)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, isUnavailable(NewRenderError(ErrCodeRasterizerUnavailable, "", nil)))
	assert.False(t, isUnavailable(NewRenderError(ErrCodeRenderTimeout, "", nil)))
	assert.False(t, isUnavailable(errors.New("plain")))
}

func TestWithTempDir_RemovesOnError(t *testing.T) {
	parent := t.TempDir()
	var seen string
	boom := errors.New("boom")

	err := withTempDir(parent, "preview-*", func(dir string) error {
		seen = dir
		require.NoError(t, os.WriteFile(filepath.Join(dir, "act.pdf"), []byte("%PDF"), 0o600))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPdftoppmRasterizer_MissingBinary(t *testing.T) {
	r := NewPdftoppmRasterizer(&PdftoppmConfig{BinaryPath: "/nonexistent/pdftoppm"})
	_, err := r.Rasterize(context.Background(), &RasterSource{PDF: []byte("%PDF-1.4")}, 1, 96)

	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeBinaryNotFound, re.Code)
	assert.Equal(t, "pdftoppm", r.Name())
}

func TestPdftoppmRasterizer_RendersPage(t *testing.T) {
	r := NewPdftoppmRasterizer(nil)
	if r.err != nil {
		t.Skip("pdftoppm not installed")
	}
	res, _ := renderPDF(t, newTestPDFRenderer(), minimalAct())

	png, err := r.Rasterize(context.Background(), &RasterSource{PDF: res.Content}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}

package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
)

const latvianRecord = `{"akta_nr": "Nr. 5", "vieta": "Liepāja", "pieņēmējs": {"nosaukums": "SIA Ķēde"}}`

func populatedAct() *act.Act {
	a := act.New()
	a.Number = "PP-2025-0042"
	a.Date = "2025-03-01"
	a.Acceptor = act.Party{Name: "SIA Alfa", Email: "info@alfa.lv"}
	a.Transferor = act.Party{Name: "SIA Beta"}
	a.AddItem(act.NewLineItem("Montāža", "2", "h", "45,50"))
	a.AddAttachment("foto.png", "Objekts")
	a.Security.UserPassword = "user"
	return a
}

func TestDecodeText(t *testing.T) {
	t.Run("plain utf-8", func(t *testing.T) {
		text, ok := decodeText([]byte(latvianRecord))
		require.True(t, ok)
		assert.Equal(t, latvianRecord, string(text))
	})

	t.Run("utf-8 with BOM", func(t *testing.T) {
		text, ok := decodeText(append([]byte{0xEF, 0xBB, 0xBF}, latvianRecord...))
		require.True(t, ok)
		assert.Equal(t, latvianRecord, string(text))
	})

	t.Run("utf-16 little and big endian", func(t *testing.T) {
		for _, endian := range []unicode.Endianness{unicode.LittleEndian, unicode.BigEndian} {
			data, err := unicode.UTF16(endian, unicode.UseBOM).NewEncoder().Bytes([]byte(latvianRecord))
			require.NoError(t, err)

			text, ok := decodeText(data)
			require.True(t, ok)
			assert.Equal(t, latvianRecord, string(text))
		}
	})

	t.Run("windows-1257", func(t *testing.T) {
		data, err := charmap.Windows1257.NewEncoder().Bytes([]byte(latvianRecord))
		require.NoError(t, err)
		require.NotEqual(t, latvianRecord, string(data))

		text, ok := decodeText(data)
		require.True(t, ok)
		assert.Equal(t, latvianRecord, string(text))
	})

	t.Run("not json in any encoding", func(t *testing.T) {
		_, ok := decodeText([]byte("not a record"))
		assert.False(t, ok)
		_, ok = decodeText([]byte{0xEF, 0xBB, 0xBF, '{'})
		assert.False(t, ok)
	})
}

func TestProjectStore_SaveLoad(t *testing.T) {
	store := NewProjectStore(t.TempDir(), nil)
	ctx := context.Background()
	a := populatedAct()

	path, err := store.Save(ctx, "2025/objekts", a)
	require.NoError(t, err)
	assert.Equal(t, "objekts.json", filepath.Base(path))

	loaded, err := store.Load(ctx, "2025/objekts.json")
	require.NoError(t, err)
	assert.Equal(t, a.Number, loaded.Number)
	assert.Equal(t, "user", loaded.Security.UserPassword, "projects keep every field")
	require.Len(t, loaded.Items, 1)
	assert.True(t, a.Items[0].Equal(loaded.Items[0]))
	assert.Equal(t, a.Attachments, loaded.Attachments)

	files, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "2025/objekts.json", files[0].Name)

	require.NoError(t, store.Delete(ctx, "2025/objekts"))
	_, err = store.Load(ctx, "2025/objekts")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProjectStore_RejectsEscapes(t *testing.T) {
	store := NewProjectStore(t.TempDir(), nil)
	for _, name := range []string{"", "../x", "a/../../x", "/etc/passwd"} {
		_, err := store.Save(context.Background(), name, act.New())
		assert.ErrorIs(t, err, shared.ErrInvalidInput, name)
	}
}

func TestProjectStore_EmptyDirectory(t *testing.T) {
	store := NewProjectStore(filepath.Join(t.TempDir(), "missing"), nil)
	files, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestProjectStore_LegacyEncodingAndCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewProjectStore(dir, nil)
	ctx := context.Background()

	legacy, err := charmap.ISO8859_13.NewEncoder().Bytes([]byte(latvianRecord))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.json"), legacy, 0o644))

	a, err := store.Load(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "Liepāja", a.Place)
	assert.Equal(t, "SIA Ķēde", a.Acceptor.Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"akta_nr": `), 0o644))
	_, err = store.Load(ctx, "broken")
	assert.ErrorIs(t, err, shared.ErrCorruptFile)
}

func TestProjectStore_ConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	store := NewProjectStore(dir, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := populatedAct()
			a.Number = string(rune('A' + i))
			_, err := store.Save(ctx, "shared", a)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, loaded.Number, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Būvdarbu akts":       "buvdarbu-akts",
		"  IT   pakalpojumi ": "it-pakalpojumi",
		"Ķēžu_zāģis #2":       "kezu-zagis-2",
		"../../etc":           "etc",
		"***":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestTemplateStore(t *testing.T) {
	dir := t.TempDir()
	store := NewTemplateStore(dir, nil)
	ctx := context.Background()

	rec := codec.ToRecord(populatedAct().ScrubForTemplate())
	require.NoError(t, store.Save(ctx, "Būvdarbu akts", "slepens", rec))
	require.NoError(t, store.Save(ctx, "Atvērts", "", rec))
	assert.FileExists(t, filepath.Join(dir, "buvdarbu-akts.json"))
	assert.True(t, store.Exists("būvdarbu AKTS"))
	assert.Empty(t, rec.TemplatePassword, "Save must not modify its argument")

	loaded, err := store.Load(ctx, "Būvdarbu akts")
	require.NoError(t, err)
	assert.Equal(t, "slepens", loaded.TemplatePassword)
	assert.Equal(t, "Būvdarbu akts", loaded.TemplateName)
	assert.Empty(t, loaded.Number)
	assert.Empty(t, loaded.Items)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{"), 0o644))
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, TemplateInfo{Name: "Atvērts", Slug: "atverts", Protected: false, ModifiedAt: list[0].ModifiedAt}, list[0])
	assert.True(t, list[1].Protected)

	require.NoError(t, store.Delete(ctx, "Atvērts"))
	assert.ErrorIs(t, store.Delete(ctx, "Atvērts"), shared.ErrNotFound)
	assert.ErrorIs(t, store.Save(ctx, "!!!", "", rec), shared.ErrInvalidInput)
}

func TestTemplateStore_ListMissingDir(t *testing.T) {
	store := NewTemplateStore(filepath.Join(t.TempDir(), "none"), nil)
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDefaultsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "defaults.json")
	store := NewDefaultsStore(path, nil)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	a := populatedAct().ScrubForDefaults()
	a.Typography.FontFamily = "DejaVu Sans"
	require.NoError(t, store.Save(ctx, a))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DejaVu Sans", loaded.Typography.FontFamily)
	assert.Empty(t, loaded.Items)
	assert.Empty(t, loaded.Security.UserPassword)
	assert.Equal(t, path, store.Path())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Save(cancelled, a), context.Canceled)
}

package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// Drivers lists the database dialects every migration is written for
var Drivers = []string{"sqlite", "postgres"}

// header opens every generated file. Rollback files carry no description.
var header = template.Must(template.New("migration").Parse(
	`-- Migration: {{.Name}} ({{.Driver}}{{if .Down}}, Rollback{{end}})
-- Created: {{.Timestamp}}
{{- if not .Down}}
-- Description: {{.Description}}
{{- end}}

`))

// MigrationFile describes one created migration across all drivers
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	// Paths holds the up and down file of each driver, in Drivers order
	Paths []string
}

// CreateMigration writes an empty up/down pair for every driver under
// root/<driver>, numbered one past the highest existing version
func CreateMigration(root, name, description string) (*MigrationFile, error) {
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	next, err := nextVersion(root)
	if err != nil {
		return nil, err
	}

	mf := &MigrationFile{
		Version:     fmt.Sprintf("%06d", next),
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	for _, driver := range Drivers {
		for _, down := range []bool{false, true} {
			suffix := ".up.sql"
			if down {
				suffix = ".down.sql"
			}
			path := filepath.Join(root, driver, mf.Version+"_"+base+suffix)
			if err := mf.write(path, driver, down); err != nil {
				mf.remove()
				return nil, err
			}
			mf.Paths = append(mf.Paths, path)
		}
	}
	return mf, nil
}

// nextVersion is one past the highest version found for any driver
func nextVersion(root string) (int, error) {
	highest := 0
	for _, driver := range Drivers {
		dir := filepath.Join(root, driver)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("migration: create %s: %w", dir, err)
		}
		names, err := ListMigrations(dir)
		if err != nil {
			return 0, err
		}
		for _, name := range names {
			prefix, _, _ := strings.Cut(name, "_")
			if v, err := strconv.Atoi(prefix); err == nil && v > highest {
				highest = v
			}
		}
	}
	return highest + 1, nil
}

func (mf *MigrationFile) write(path, driver string, down bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	defer f.Close()

	return header.Execute(f, struct {
		*MigrationFile
		Driver string
		Down   bool
	}{mf, driver, down})
}

func (mf *MigrationFile) remove() {
	for _, p := range mf.Paths {
		_ = os.Remove(p)
	}
}

// sanitizeName lowercases name and joins its words with underscores.
// Spaces, dashes and underscores separate words; other punctuation is dropped.
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	kept := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, "_")
}

// ListMigrations returns the sorted base names of the migrations in a directory
func ListMigrations(migrationsDir string) ([]string, error) {
	names, err := listUp(os.DirFS(migrationsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	return names, nil
}

// ListEmbedded returns the migrations compiled into the binary for driver
func ListEmbedded(driver string) ([]string, error) {
	files, err := Source(driver)
	if err != nil {
		return nil, err
	}
	return listUp(files)
}

func listUp(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	migrations := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok && base != "" {
			migrations = append(migrations, base)
		}
	}
	sort.Strings(migrations)
	return migrations, nil
}

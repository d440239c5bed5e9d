// Package catalog enumerates, caches, aggregates and edits the theme files of
// a single theme directory.
package catalog

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pitabwire/obsthemes/model"
)

// DefaultExtensions are the theme file extensions accepted when none are
// configured.
var DefaultExtensions = []string{".ovt", ".obt", ".json"}

// Document is a theme file together with its text.
type Document struct {
	model.ThemeFile
	Text string
}

// Loader scans a directory for theme files and computes SHA-256 checksums.
type Loader struct {
	extensions map[string]bool
}

// NewLoader creates a Loader accepting the given extensions. Matching is
// case-insensitive. With no extensions, DefaultExtensions are used.
func NewLoader(extensions ...string) *Loader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	l := &Loader{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		l.extensions[strings.ToLower(ext)] = true
	}
	return l
}

// Accepts reports whether name carries one of the loader's extensions.
func (l *Loader) Accepts(name string) bool {
	return l.extensions[strings.ToLower(filepath.Ext(name))]
}

// Extensions returns the accepted extensions, sorted.
func (l *Loader) Extensions() []string {
	out := make([]string, 0, len(l.extensions))
	for ext := range l.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Scan lists the theme files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func (l *Loader) Scan(ctx context.Context, dir string) ([]model.ThemeFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning directory %s: %w", dir, err)
	}

	files := make([]model.ThemeFile, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !l.Accepts(e.Name()) {
			continue
		}
		doc, err := l.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			// Files removed between ReadDir and the read are skipped.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		files = append(files, doc.ThemeFile)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// LoadFile reads a single theme file. It computes the SHA-256 checksum and
// records size and modification time.
func (l *Loader) LoadFile(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("reading %s: is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return Document{
		ThemeFile: model.ThemeFile{
			Name:     filepath.Base(path),
			Path:     path,
			Size:     int64(len(data)),
			Modified: info.ModTime().UTC(),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(data)),
		},
		Text: string(data),
	}, nil
}

// CheckDir verifies that dir exists and can be listed.
func CheckDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("theme directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("theme directory %s is not a directory", dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("theme directory: %w", err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("theme directory: %w", err)
	}
	return nil
}

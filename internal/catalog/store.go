package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/observability"
	"github.com/pitabwire/obsthemes/model"
)

// Store errors.
var (
	ErrInvalidName = errors.New("invalid theme filename")
	ErrNotFound    = errors.New("theme not found")
	ErrExists      = errors.New("theme already exists")
	ErrNoMetaBlock = errors.New("could not find @OBSThemeMeta block")
	ErrInvalidMeta = errors.New("invalid metadata")
)

// metaRewriteRe captures the opening, body and closing brace of the first
// metadata block.
var metaRewriteRe = regexp.MustCompile(`(@OBSThemeMeta\s*\{)([\s\S]*?)(\})`)

var metaKeyRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Store reads and edits theme files in a single directory. Mutations
// invalidate the attached Lister.
type Store struct {
	loader    *Loader
	dir       string
	validator DocumentValidator
	lister    *Lister
	logger    *zap.Logger
}

// NewStore creates a Store over dir. lister may be nil.
func NewStore(loader *Loader, dir string, validator DocumentValidator, lister *Lister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		loader:    loader,
		dir:       dir,
		validator: validator,
		lister:    lister,
		logger:    logger,
	}
}

// path validates name and resolves it inside the store directory.
func (s *Store) path(name string) (string, error) {
	if !s.loader.ValidFilename(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Read loads the named theme file.
func (s *Store) Read(ctx context.Context, name string) (Document, error) {
	_, span := observability.StartSpan(ctx, "catalog.read", observability.AttrThemeName.String(name))
	doc, err := s.read(name)
	observability.EndSpanWithError(span, err)
	return doc, err
}

func (s *Store) read(name string) (Document, error) {
	p, err := s.path(name)
	if err != nil {
		return Document{}, err
	}
	doc, err := s.loader.LoadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Document{}, err
	}
	return doc, nil
}

// Delete removes the named theme file.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, span := observability.StartSpan(ctx, "catalog.delete", observability.AttrThemeName.String(name))
	err := s.delete(name)
	observability.EndSpanWithError(span, err)
	return err
}

func (s *Store) delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	s.invalidate()
	s.logger.Info("theme deleted", zap.String("name", name))
	return nil
}

// Duplicate copies the named theme to newName and returns the final filename.
// An existing file is never overwritten.
func (s *Store) Duplicate(ctx context.Context, name, newName string) (string, error) {
	_, span := observability.StartSpan(ctx, "catalog.duplicate", observability.AttrThemeName.String(name))
	target, err := s.duplicate(name, newName)
	observability.EndSpanWithError(span, err)
	return target, err
}

func (s *Store) duplicate(name, newName string) (string, error) {
	doc, err := s.read(name)
	if err != nil {
		return "", err
	}
	target, err := s.loader.NormalizeNewName(newName, name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, target), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, target)
		}
		return "", fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := f.WriteString(doc.Text); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}

	s.invalidate()
	s.logger.Info("theme duplicated", zap.String("name", name), zap.String("new_name", target))
	return target, nil
}

// Meta returns the metadata of the named theme as parsed by the validator.
func (s *Store) Meta(ctx context.Context, name string) (model.Metadata, error) {
	doc, err := s.Read(ctx, name)
	if err != nil {
		return model.Metadata{}, err
	}
	return s.validator.Validate(doc.Text).Meta, nil
}

// UpdateMeta replaces the body of the first metadata block with fields, one
// `key: "value",` line per field in key order. The rest of the file is left
// byte-for-byte unchanged.
func (s *Store) UpdateMeta(ctx context.Context, name string, fields map[string]string) error {
	_, span := observability.StartSpan(ctx, "catalog.update_meta", observability.AttrThemeName.String(name))
	err := s.updateMeta(name, fields)
	observability.EndSpanWithError(span, err)
	return err
}

func (s *Store) updateMeta(name string, fields map[string]string) error {
	doc, err := s.read(name)
	if err != nil {
		return err
	}
	text, err := RewriteMeta(doc.Text, fields)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(doc.Path, []byte(text)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	s.invalidate()
	s.logger.Info("theme metadata updated", zap.String("name", name), zap.Int("fields", len(fields)))
	return nil
}

// RewriteMeta returns text with the body of its first metadata block replaced
// by fields in sorted key order. Keys must be identifiers. Values are written
// verbatim between quotes so the metadata parser reads them back unchanged.
func RewriteMeta(text string, fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: no fields", ErrInvalidMeta)
	}
	quoted := make(map[string]string, len(fields))
	for k, v := range fields {
		if !metaKeyRe.MatchString(k) {
			return "", fmt.Errorf("%w: key %q", ErrInvalidMeta, k)
		}
		q, ok := quoteMetaValue(v)
		if !ok {
			return "", fmt.Errorf("%w: value of %s", ErrInvalidMeta, k)
		}
		quoted[k] = q
	}

	loc := metaRewriteRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", ErrNoMetaBlock
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body strings.Builder
	body.WriteString("\n")
	for _, k := range keys {
		fmt.Fprintf(&body, "    %s: %s,\n", k, quoted[k])
	}

	// loc[4]:loc[5] is the block body.
	return text[:loc[4]] + body.String() + text[loc[5]:], nil
}

// quoteMetaValue wraps v in double quotes, or in single quotes when v holds a
// double quote. The parser does not unescape, so nothing is escaped.
func quoteMetaValue(v string) (string, bool) {
	if strings.ContainsAny(v, "}\r\n") {
		return "", false
	}
	switch {
	case !strings.Contains(v, `"`):
		return `"` + v + `"`, true
	case !strings.Contains(v, "'"):
		return "'" + v + "'", true
	default:
		return "", false
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".theme-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmp.Name(), info.Mode().Perm())
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) invalidate() {
	if s.lister != nil {
		s.lister.Invalidate()
	}
}

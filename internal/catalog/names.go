package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxFilenameLength = 255
	maxNewNameLength  = 100
)

var newNameRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\s.]+$`)

var reservedNames = func() map[string]bool {
	m := map[string]bool{"con": true, "prn": true, "aux": true, "nul": true}
	for i := 1; i <= 9; i++ {
		m[fmt.Sprintf("com%d", i)] = true
		m[fmt.Sprintf("lpt%d", i)] = true
	}
	return m
}()

// ValidFilename reports whether name may address a theme file: 1 to 255
// characters, no path separators or "..", and an accepted extension.
func (l *Loader) ValidFilename(name string) bool {
	if name == "" || len(name) > maxFilenameLength {
		return false
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return false
	}
	return l.Accepts(name)
}

// NormalizeNewName checks a user-supplied name for a copied theme and returns
// the final filename. The source extension is appended when the name does not
// already end in an accepted extension.
func (l *Loader) NormalizeNewName(newName, source string) (string, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return "", fmt.Errorf("%w: new name is empty", ErrInvalidName)
	}
	if len(name) > maxNewNameLength {
		return "", fmt.Errorf("%w: new name longer than %d characters", ErrInvalidName, maxNewNameLength)
	}
	if !newNameRe.MatchString(name) {
		return "", fmt.Errorf("%w: new name contains invalid characters", ErrInvalidName)
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: new name contains \"..\"", ErrInvalidName)
	}

	stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	if reservedNames[stem] || reservedNames[strings.ToLower(name)] {
		return "", fmt.Errorf("%w: %q is a reserved name", ErrInvalidName, name)
	}

	if !l.Accepts(name) {
		name += filepath.Ext(source)
	}
	if !l.ValidFilename(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

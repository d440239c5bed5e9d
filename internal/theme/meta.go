package theme

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pitabwire/obsthemes/model"
)

var (
	metaLineRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+)\s*:\s*(?:'([^']*)'|"([^"]*)"|([^,;]+))`)
	themeIDRe  = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9._-]*[a-z0-9])?)+$`)
)

var requiredMetaFields = []string{"id", "name", "dark"}

// ValidThemeID reports whether id is a reverse-domain identifier such as
// "com.example.dark".
func ValidThemeID(id string) bool {
	return themeIDRe.MatchString(id)
}

func parseMeta(b blocks, fs *findings) model.Metadata {
	var meta model.Metadata
	for _, line := range splitLines(b.meta) {
		line = strings.TrimSpace(line)
		if line == "" || isComment(line, "//", "/*") {
			continue
		}
		for _, stmt := range splitStatements(line) {
			stmt = strings.TrimRight(strings.TrimSpace(stmt), ",;")
			if stmt == "" {
				continue
			}
			m := metaLineRe.FindStringSubmatch(stmt)
			if m == nil {
				continue
			}
			meta.Set(m[1], strings.TrimSpace(firstNonEmpty(m[2], m[3], m[4])))
		}
	}

	// A missing block is already reported; field checks would only repeat it.
	if !b.hasMeta {
		return meta
	}

	for _, key := range requiredMetaFields {
		if !meta.Has(key) {
			fs.addError(model.Diagnostic{
				Code:    model.CodeMetaFieldMissing,
				Message: "Missing metadata field: " + key,
				Field:   key,
			})
		}
	}

	if id, ok := meta.Get("id"); ok && !ValidThemeID(id) {
		fs.addError(model.Diagnostic{
			Code:    model.CodeMetaIDInvalid,
			Message: "Metadata 'id' does not match expected reverse-domain format: " + id,
			Value:   id,
		})
	}

	if raw, ok := meta.Get("dark"); ok {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			meta.SetDark(true)
		case "false":
			meta.SetDark(false)
		default:
			fs.addError(model.Diagnostic{
				Code:    model.CodeMetaDarkInvalid,
				Message: fmt.Sprintf("Metadata 'dark' must be true/false: %s", raw),
				Value:   raw,
			})
		}
	}

	return meta
}

// splitStatements splits a metadata line on semicolons that are not inside
// single or double quotes.
func splitStatements(line string) []string {
	var (
		out   []string
		start int
		quote rune
	)
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			out = append(out, line[start:i])
			start = i + 1
		}
	}
	return append(out, line[start:])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

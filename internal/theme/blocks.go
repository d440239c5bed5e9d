package theme

import (
	"regexp"
	"strings"

	"github.com/pitabwire/obsthemes/model"
)

// Blocks end at the first closing brace. Nested braces are not balanced.
var (
	metaBlockRe = regexp.MustCompile(`@OBSThemeMeta\s*\{([\s\S]*?)\}`)
	varsBlockRe = regexp.MustCompile(`@OBSThemeVars\s*\{([\s\S]*?)\}`)
)

type blocks struct {
	meta    string
	vars    string
	hasMeta bool
	hasVars bool
}

func extractBlocks(text string, fs *findings) blocks {
	var b blocks
	if m := metaBlockRe.FindStringSubmatch(text); m != nil {
		b.meta, b.hasMeta = m[1], true
	} else {
		fs.addError(model.Diagnostic{
			Code:    model.CodeMetaBlockMissing,
			Message: "Missing @OBSThemeMeta section",
		})
	}
	if m := varsBlockRe.FindStringSubmatch(text); m != nil {
		b.vars, b.hasVars = m[1], true
	} else {
		fs.addError(model.Diagnostic{
			Code:    model.CodeVarsBlockMissing,
			Message: "Missing @OBSThemeVars section",
		})
	}
	return b
}

// splitLines splits on \n, \r\n and \r.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

func isComment(line string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

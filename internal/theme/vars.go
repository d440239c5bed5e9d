package theme

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pitabwire/obsthemes/model"
)

// Variable declaration syntaxes.
const (
	SyntaxCSS  = "css"
	SyntaxYAML = "yaml"
)

var (
	cssDeclRe  = regexp.MustCompile(`^--([a-zA-Z0-9_-]+)\s*:\s*(.+?);?$`)
	yamlDeclRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+)\s*:\s*(.+)$`)
)

// lineMatcher recognises one declaration syntax. Lines starting with claims
// are not offered to later matchers when this one rejects them.
type lineMatcher struct {
	syntax string
	claims string
	match  func(line string) (name, value string, ok bool)
}

// declMatchers are tried in order; the first match wins. The CSS form is
// more specific and must come first.
var declMatchers = []lineMatcher{
	{syntax: SyntaxCSS, claims: "--", match: matchCSS},
	{syntax: SyntaxYAML, match: matchYAML},
}

func matchCSS(line string) (string, string, bool) {
	m := cssDeclRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

func matchYAML(line string) (string, string, bool) {
	m := yamlDeclRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimRight(strings.TrimSpace(m[2]), ",;"), true
}

// registry accumulates declared variables in order alongside a name to
// line-of-record lookup.
type registry struct {
	vars     []model.Variable
	declared map[string]int
	maxVars  int
	maxLen   int
	capped   bool
}

func newRegistry(maxVars, maxLen int) *registry {
	return &registry{
		declared: make(map[string]int),
		maxVars:  maxVars,
		maxLen:   maxLen,
	}
}

func (r *registry) has(name string) bool {
	_, ok := r.declared[name]
	return ok
}

// parse scans the variables block. Line numbers count every line of the
// block, including blank and comment lines.
func (r *registry) parse(block string, fs *findings) {
	for i, raw := range splitLines(block) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || isComment(line, "//", "/*", "#") {
			continue
		}

		name, value, syntax, ok := matchDeclaration(line)
		if !ok {
			fs.addError(model.Diagnostic{
				Code:    model.CodeVarsParseError,
				Message: "Could not parse line in @OBSThemeVars: " + line,
				Line:    lineNo,
				Raw:     line,
			})
			continue
		}

		if !r.register(name, value, syntax, lineNo, fs) {
			return
		}
	}
}

func matchDeclaration(line string) (name, value, syntax string, ok bool) {
	for _, m := range declMatchers {
		if name, value, ok = m.match(line); ok {
			return name, value, m.syntax, true
		}
		if m.claims != "" && strings.HasPrefix(line, m.claims) {
			break
		}
	}
	return "", "", "", false
}

// register adds one declaration. It returns false once the variable cap is
// reached; the caller stops scanning.
func (r *registry) register(name, value, syntax string, line int, fs *findings) bool {
	if len(r.vars) >= r.maxVars {
		if !r.capped {
			r.capped = true
			fs.addError(model.Diagnostic{
				Code:    model.CodeTooManyVariables,
				Message: fmt.Sprintf("Too many variables: limit of %d reached at line %d", r.maxVars, line),
				Line:    line,
				Name:    name,
			})
		}
		return false
	}

	if utf8.RuneCountInString(value) > r.maxLen {
		value = string([]rune(value)[:r.maxLen])
		fs.addWarning(model.Diagnostic{
			Code:    model.CodeValueTruncated,
			Message: fmt.Sprintf("Value of variable %s truncated to %d characters", name, r.maxLen),
			Line:    line,
			Name:    name,
		})
	}

	v := model.Variable{
		Name:           name,
		Value:          value,
		Line:           line,
		Syntax:         syntax,
		LooksLikeColor: LooksLikeColor(value),
	}
	if v.LooksLikeColor {
		check := ValidateColor(value)
		valid := check.Valid
		v.ColorValid = &valid
		if !valid {
			fs.addError(model.Diagnostic{
				Code:    model.CodeVarColorInvalid,
				Message: fmt.Sprintf("Variable %s contains invalid color value: %s", name, value),
				Line:    line,
				Value:   value,
				Name:    name,
				Reason:  check.Reason,
			})
		}
	}
	r.vars = append(r.vars, v)

	if first, ok := r.declared[name]; ok {
		fs.addWarning(model.Diagnostic{
			Code:      model.CodeVarDuplicate,
			Message:   "Duplicate variable declaration: " + name,
			FirstLine: first,
			Line:      line,
			Name:      name,
		})
	}
	r.declared[name] = line
	return true
}

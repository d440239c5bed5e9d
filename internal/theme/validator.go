// Package theme validates OBS theme documents: a metadata block and a
// variables block holding CSS-custom-property or YAML-like declarations.
package theme

import "github.com/pitabwire/obsthemes/model"

const (
	// DefaultMaxVariables bounds the number of variables registered per document.
	DefaultMaxVariables = 1000
	// DefaultMaxValueLength bounds the length, in characters, of a variable value.
	DefaultMaxValueLength = 1000
)

var defaultRequiredVariables = []string{
	"base", "mantle", "crust",
	"surface0", "surface1", "surface2",
	"overlay0", "overlay1", "overlay2",
	"text", "subtext0", "subtext1",
}

// RequiredVariables returns the recommended semantic variable names checked
// by default.
func RequiredVariables() []string {
	return append([]string(nil), defaultRequiredVariables...)
}

// Validator checks theme documents. It holds only immutable configuration
// and is safe for concurrent use.
type Validator struct {
	maxVariables   int
	maxValueLength int
	required       []string
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMaxVariables sets the variable cap. Values below 1 are ignored.
func WithMaxVariables(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxVariables = n
		}
	}
}

// WithMaxValueLength sets the value truncation length. Values below 1 are ignored.
func WithMaxValueLength(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxValueLength = n
		}
	}
}

// WithRequiredVariables replaces the recommended variable list.
func WithRequiredVariables(names ...string) ValidatorOption {
	return func(v *Validator) { v.required = append([]string(nil), names...) }
}

// NewValidator creates a Validator with the default limits.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		maxVariables:   DefaultMaxVariables,
		maxValueLength: DefaultMaxValueLength,
		required:       RequiredVariables(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = NewValidator()

// Validate checks text with the default limits.
func Validate(text string) model.Report {
	return defaultValidator.Validate(text)
}

// Validate checks a theme document and returns its report. It never fails:
// malformed input is described by the report's errors and warnings.
//
// Phases run in a fixed order: blocks, metadata, variables, references,
// severity, required variables. Later phases depend on the state built by
// earlier ones.
func (v *Validator) Validate(text string) model.Report {
	var fs findings

	b := extractBlocks(text, &fs)
	meta := parseMeta(b, &fs)

	reg := newRegistry(v.maxVariables, v.maxValueLength)
	reg.parse(b.vars, &fs)

	resolveReferences(reg, &fs)
	_, extends := meta.Extends()
	fs.applySeverity(extends)

	checkRequired(reg, v.required, &fs)

	return assemble(meta, reg.vars, fs)
}

func assemble(meta model.Metadata, vars []model.Variable, fs findings) model.Report {
	r := model.Report{
		Meta:     meta,
		Vars:     vars,
		Errors:   []model.Diagnostic{},
		Warnings: []model.Diagnostic{},
	}
	if r.Vars == nil {
		r.Vars = []model.Variable{}
	}
	for _, f := range fs {
		if f.severity == model.SeverityError {
			r.Errors = append(r.Errors, f.diag)
		} else {
			r.Warnings = append(r.Warnings, f.diag)
		}
	}
	r.Summary = model.Summary{
		Errors:    len(r.Errors),
		Warnings:  len(r.Warnings),
		VarsCount: len(r.Vars),
	}
	return r
}

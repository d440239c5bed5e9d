package model

import (
	"encoding/json"
	"sort"
)

// Severity classifies a Diagnostic.
type Severity string

const (
	// SeverityError marks a condition that makes a theme non-conformant.
	SeverityError Severity = "error"
	// SeverityWarning marks an advisory deviation that does not block acceptance.
	SeverityWarning Severity = "warning"
)

// Diagnostic codes. The set is closed; every finding a validation run can
// produce carries exactly one of these.
const (
	CodeMetaBlockMissing   = "META_BLOCK_MISSING"
	CodeVarsBlockMissing   = "VARS_BLOCK_MISSING"
	CodeMetaFieldMissing   = "META_FIELD_MISSING"
	CodeMetaIDInvalid      = "META_ID_INVALID"
	CodeMetaDarkInvalid    = "META_DARK_INVALID"
	CodeVarsParseError     = "VARS_PARSE_ERROR"
	CodeValueTruncated     = "VALUE_TRUNCATED"
	CodeTooManyVariables   = "TOO_MANY_VARIABLES"
	CodeVarColorInvalid    = "VAR_COLOR_INVALID"
	CodeVarDuplicate       = "VAR_DUPLICATE"
	CodeVarRefUndefined    = "VAR_REF_UNDEFINED"
	CodeVarRequiredMissing = "VAR_REQUIRED_MISSING"

	// CodeDuplicateThemeID is raised across documents, never by a single
	// validation run.
	CodeDuplicateThemeID = "DUPLICATE_THEME_ID"
)

// Diagnostic is a single error or warning. Only the fields relevant to its
// Code are populated.
type Diagnostic struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Line      int      `json:"line,omitempty"`
	Value     string   `json:"value,omitempty"`
	Field     string   `json:"field,omitempty"`
	Ref       string   `json:"ref,omitempty"`
	FirstLine int      `json:"first_line,omitempty"`
	Name      string   `json:"name,omitempty"`
	Var       string   `json:"var,omitempty"`
	Raw       string   `json:"raw,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Files     []string `json:"files,omitempty"`
}

// Variable is one declared entry of the variables block.
type Variable struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Line           int    `json:"line"`
	Syntax         string `json:"syntax"`
	LooksLikeColor bool   `json:"looks_like_color"`
	// ColorValid is set only when LooksLikeColor is true.
	ColorValid *bool `json:"color_valid,omitempty"`
}

// Metadata holds the key/value pairs of the metadata block. Keys keep their
// first-seen order; a repeated key keeps its position and takes the latest
// value.
type Metadata struct {
	keys   []string
	values map[string]string
	dark   *bool
}

// Set records a key/value pair.
func (m *Metadata) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetDark stores the coerced boolean for the dark key.
func (m *Metadata) SetDark(dark bool) {
	m.dark = &dark
}

// Get returns the raw string value of key.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key was declared.
func (m Metadata) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the declared keys in declaration order.
func (m Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of declared keys.
func (m Metadata) Len() int {
	return len(m.keys)
}

// ID returns the theme identifier, or "" when absent.
func (m Metadata) ID() string {
	return m.values["id"]
}

// Name returns the display name, or "" when absent.
func (m Metadata) Name() string {
	return m.values["name"]
}

// Extends returns the parent theme identifier and whether one is declared.
func (m Metadata) Extends() (string, bool) {
	v, ok := m.values["extends"]
	return v, ok
}

// Dark returns the coerced dark flag. ok is false when dark is absent or
// not a boolean literal.
func (m Metadata) Dark() (dark bool, ok bool) {
	if m.dark == nil {
		return false, false
	}
	return *m.dark, true
}

// Fields returns a copy of the raw key/value pairs.
func (m Metadata) Fields() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the metadata as a flat object. A coerced dark flag is
// emitted as a JSON boolean.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	if m.dark != nil {
		out["dark"] = *m.dark
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. Keys are ordered
// alphabetically since JSON objects carry no order.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	*m = Metadata{}
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			m.Set(k, v)
		case bool:
			if v {
				m.Set(k, "true")
			} else {
				m.Set(k, "false")
			}
			if k == "dark" {
				m.SetDark(v)
			}
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			m.Set(k, string(b))
		}
	}
	return nil
}

// Summary counts the contents of a Report.
type Summary struct {
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	VarsCount int `json:"vars_count"`
}

// Report is the result of validating one theme document. It is never
// modified after it is returned.
type Report struct {
	Meta     Metadata     `json:"meta"`
	Vars     []Variable   `json:"vars"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
	Summary  Summary      `json:"summary"`
}

// Valid reports whether the document produced no errors.
func (r Report) Valid() bool {
	return len(r.Errors) == 0
}

// HasCode reports whether any error or warning carries code.
func (r Report) HasCode(code string) bool {
	for _, d := range r.Errors {
		if d.Code == code {
			return true
		}
	}
	for _, d := range r.Warnings {
		if d.Code == code {
			return true
		}
	}
	return false
}

// WithWarnings returns a copy of the report with extra warnings appended and
// the summary recomputed. The receiver is left untouched.
func (r Report) WithWarnings(extra ...Diagnostic) Report {
	out := r
	out.Vars = append([]Variable(nil), r.Vars...)
	out.Errors = append([]Diagnostic(nil), r.Errors...)
	out.Warnings = make([]Diagnostic, 0, len(r.Warnings)+len(extra))
	out.Warnings = append(out.Warnings, r.Warnings...)
	out.Warnings = append(out.Warnings, extra...)
	if out.Vars == nil {
		out.Vars = []Variable{}
	}
	if out.Errors == nil {
		out.Errors = []Diagnostic{}
	}
	out.Summary = Summary{
		Errors:    len(out.Errors),
		Warnings:  len(out.Warnings),
		VarsCount: len(out.Vars),
	}
	return out
}

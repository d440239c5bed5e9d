package model

import "time"

// ThemeFile describes one theme document found in the theme directory.
type ThemeFile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Checksum string    `json:"checksum"`
}

// DocumentValidation is the outcome for one file in a catalog run. Exactly
// one of Report or Error is set.
type DocumentValidation struct {
	Name   string  `json:"name"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// DuplicateID lists the files that share a metadata id.
type DuplicateID struct {
	ID    string   `json:"id"`
	Files []string `json:"files"`
}

// CatalogValidation is the result of validating every theme in a directory.
type CatalogValidation struct {
	Validations  []DocumentValidation `json:"validations"`
	DuplicateIDs []DuplicateID        `json:"duplicate_ids"`
}

// ErrorCount returns the total number of errors across all documents,
// counting unreadable documents as one error each.
func (c CatalogValidation) ErrorCount() int {
	n := 0
	for _, v := range c.Validations {
		if v.Report == nil {
			n++
			continue
		}
		n += v.Report.Summary.Errors
	}
	return n
}

// WarningCount returns the total number of warnings across all documents.
func (c CatalogValidation) WarningCount() int {
	n := 0
	for _, v := range c.Validations {
		if v.Report != nil {
			n += v.Report.Summary.Warnings
		}
	}
	return n
}

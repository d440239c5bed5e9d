package theme

import "github.com/pitabwire/obsthemes/model"

// finding is a diagnostic with a provisional severity. Inheritable findings
// may be satisfied by a parent theme and are demoted when the document
// declares extends.
type finding struct {
	severity    model.Severity
	inheritable bool
	diag        model.Diagnostic
}

type findings []finding

func (fs *findings) addError(d model.Diagnostic) {
	*fs = append(*fs, finding{severity: model.SeverityError, diag: d})
}

func (fs *findings) addWarning(d model.Diagnostic) {
	*fs = append(*fs, finding{severity: model.SeverityWarning, diag: d})
}

func (fs *findings) addInheritable(d model.Diagnostic) {
	*fs = append(*fs, finding{severity: model.SeverityError, inheritable: true, diag: d})
}

// applySeverity demotes inheritable errors to warnings when extends is set.
func (fs findings) applySeverity(extends bool) {
	if !extends {
		return
	}
	for i := range fs {
		if fs[i].inheritable && fs[i].severity == model.SeverityError {
			fs[i].severity = model.SeverityWarning
			fs[i].diag.Message += " (may be provided by extends)"
		}
	}
}

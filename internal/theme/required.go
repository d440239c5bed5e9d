package theme

import "github.com/pitabwire/obsthemes/model"

func checkRequired(reg *registry, required []string, fs *findings) {
	for _, name := range required {
		if reg.has(name) {
			continue
		}
		fs.addWarning(model.Diagnostic{
			Code:    model.CodeVarRequiredMissing,
			Message: "Recommended semantic variable missing: " + name,
			Var:     name,
		})
	}
}

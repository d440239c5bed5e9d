package theme

import (
	"fmt"
	"regexp"

	"github.com/pitabwire/obsthemes/model"
)

// Matches var(--name) and var(--name, fallback). Only the head of a fallback
// is consumed so references nested inside it are found too.
var varRefRe = regexp.MustCompile(`var\(--([a-zA-Z0-9_-]+)\s*[,)]`)

// References returns the variable names referenced by value, in order.
func References(value string) []string {
	var out []string
	for _, m := range varRefRe.FindAllStringSubmatch(value, -1) {
		out = append(out, m[1])
	}
	return out
}

// resolveReferences records an inheritable finding for every reference to
// an undeclared variable.
func resolveReferences(reg *registry, fs *findings) {
	for _, v := range reg.vars {
		for _, ref := range References(v.Value) {
			if reg.has(ref) {
				continue
			}
			fs.addInheritable(model.Diagnostic{
				Code:    model.CodeVarRefUndefined,
				Message: fmt.Sprintf("Variable %s references undefined var --%s", v.Name, ref),
				Line:    v.Line,
				Ref:     ref,
				Name:    v.Name,
			})
		}
	}
}

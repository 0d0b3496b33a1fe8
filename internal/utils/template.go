package utils

import "strings"

// RenderTemplate substitutes {{key}} placeholders in tpl with vars values.
// Unknown placeholders are left untouched.
func RenderTemplate(tpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

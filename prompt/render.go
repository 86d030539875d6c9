// Package prompt renders hand-authored templates and assembles the system and
// feedback prompts sent to the model.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Render substitutes every {{name}} in tmpl with values[name]. Missing keys and
// nil values render as the empty string. There is no escaping and no logic.
func Render(tmpl string, values map[string]any) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		v, ok := values[key]
		if !ok || v == nil {
			return ""
		}
		switch val := v.(type) {
		case string:
			return val
		case []string:
			return strings.Join(val, "\n")
		default:
			return fmt.Sprint(val)
		}
	})
}

package extract

import (
	"fmt"
	"math"
	"slices"
)

// Validate checks obj against the contract and returns every problem found.
// An empty result means the object conforms.
func (c Contract) Validate(obj map[string]any) []string {
	return validateFields("", c.Fields, obj)
}

func validateFields(prefix string, fields []Field, obj map[string]any) []string {
	var problems []string
	for _, f := range fields {
		path := prefix + f.Name
		v, ok := obj[f.Name]
		if !ok || v == nil {
			if f.Required {
				problems = append(problems, fmt.Sprintf("%s is required", path))
			}
			continue
		}
		problems = append(problems, f.check(path, v)...)
	}
	return problems
}

func (f Field) check(path string, v any) []string {
	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return []string{typeProblem(path, f.Type, v)}
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return []string{fmt.Sprintf("%s must be one of %v, got %q", path, f.Enum, s)}
		}

	case TypeNumber, TypeInteger:
		n, ok := v.(float64)
		if !ok {
			return []string{typeProblem(path, f.Type, v)}
		}
		if f.Type == TypeInteger && n != math.Trunc(n) {
			return []string{fmt.Sprintf("%s must be a whole number, got %v", path, n)}
		}
		if f.Minimum != nil && n < *f.Minimum {
			return []string{fmt.Sprintf("%s must be at least %v, got %v", path, *f.Minimum, n)}
		}
		if f.Maximum != nil && n > *f.Maximum {
			return []string{fmt.Sprintf("%s must be at most %v, got %v", path, *f.Maximum, n)}
		}

	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return []string{typeProblem(path, f.Type, v)}
		}

	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			return []string{typeProblem(path, f.Type, v)}
		}
		if f.Items == nil {
			return nil
		}
		var problems []string
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				problems = append(problems, fmt.Sprintf("%s is null", itemPath))
				continue
			}
			problems = append(problems, f.Items.check(itemPath, item)...)
		}
		return problems

	case TypeObject:
		m, ok := v.(map[string]any)
		if !ok {
			return []string{typeProblem(path, f.Type, v)}
		}
		return validateFields(path+".", f.Fields, m)
	}

	return nil
}

func typeProblem(path, want string, got any) string {
	return fmt.Sprintf("%s must be %s, got %s", path, want, jsonType(got))
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return TypeString
	case float64:
		return TypeNumber
	case bool:
		return TypeBoolean
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return fmt.Sprintf("%T", v)
	}
}

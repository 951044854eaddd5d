package decode

import "strings"

// Field returns the value stored under a canonical snake_case name. Payloads use either
// snake_case or lowerCamelCase keys, so the snake key is tried first and the camel key second.
// A key that is present with a null value still counts as present.
func Field(rec map[string]any, name string) (any, bool) {
	if rec == nil {
		return nil, false
	}
	if v, ok := rec[name]; ok {
		return v, true
	}
	if camel := camelCase(name); camel != name {
		if v, ok := rec[camel]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether a field is present under either naming convention.
func Has(rec map[string]any, name string) bool {
	_, ok := Field(rec, name)
	return ok
}

// Value returns the field value or nil.
func Value(rec map[string]any, name string) any {
	v, _ := Field(rec, name)
	return v
}

func camelCase(name string) string {
	if !strings.Contains(name, "_") {
		return name
	}
	parts := strings.Split(name, "_")
	var b strings.Builder
	b.Grow(len(name))
	b.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

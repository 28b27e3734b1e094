package tool

import "fmt"

// Validator checks a requested tool invocation's name and arguments against
// the static registry before execution. Unknown tool names pass through
// unchecked: the registry does not claim full coverage, and rejecting tools
// outside it would produce false negatives.
type Validator struct {
	registry *Registry
}

// NewValidator constructs a validator over a registry. A nil registry uses
// the built-in defaults.
func NewValidator(registry *Registry) *Validator {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Validator{registry: registry}
}

// Validate reports whether a call to the named tool with the supplied
// arguments may execute. A known tool is rejected when any required argument
// key is absent; the reason enumerates the missing keys.
func (v *Validator) Validate(name string, args map[string]any) (bool, string) {
	spec, known := v.registry.Lookup(name)
	if !known {
		return true, ""
	}

	var missing []string
	for _, arg := range spec.required() {
		if _, ok := args[arg]; !ok {
			missing = append(missing, arg)
		}
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("missing fields: %v", missing)
	}
	return true, ""
}

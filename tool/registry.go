package tool

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// OptionalSuffix marks an argument name as optional in a registry entry.
const OptionalSuffix = "?"

// Spec declares the argument contract for one tool. Argument names carrying
// the OptionalSuffix are advisory only; all others must be present.
type Spec struct {
	RequiredArgs []string `yaml:"required_args"`
}

// Registry maps tool names to their argument specs. It is read-only after
// initialization and therefore safe for unsynchronized concurrent reads.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry builds a registry from explicit specs.
func NewRegistry(specs map[string]Spec) *Registry {
	out := make(map[string]Spec, len(specs))
	for name, spec := range specs {
		out[name] = spec
	}
	return &Registry{specs: out}
}

// DefaultRegistry covers the domain tools the assistant ships with. The set
// is intentionally not exhaustive: tools outside it pass validation
// unchecked (see Validator).
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Spec{
		"lookup_property":      {RequiredArgs: []string{"property_id"}},
		"evaluate_property":    {RequiredArgs: []string{"property_id", "criteria?"}},
		"generate_contract":    {RequiredArgs: []string{"property_id", "buyer_name"}},
		"capture_payment":      {RequiredArgs: []string{"amount", "currency", "reference?"}},
		"recalculate_template": {RequiredArgs: []string{"template_id"}},
		"store_document":       {RequiredArgs: []string{"document_id", "content"}},
		"retrieve_document":    {RequiredArgs: []string{"document_id"}},
		"send_email":           {RequiredArgs: []string{"to", "subject", "body"}},
		"render_pdf":           {RequiredArgs: []string{"template_id", "data"}},
	})
}

// registryFile is the on-disk YAML layout:
//
//	tools:
//	  generate_contract:
//	    required_args: [property_id, buyer_name, notes?]
type registryFile struct {
	Tools map[string]Spec `yaml:"tools"`
}

// LoadFile reads a YAML registry file and merges it over the defaults.
// Entries in the file win over built-in specs of the same name.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse tool registry: %w", err)
	}

	reg := DefaultRegistry()
	for name, spec := range file.Tools {
		reg.specs[name] = spec
	}
	return reg, nil
}

// Lookup returns the spec for a tool name and whether it is registered.
func (r *Registry) Lookup(name string) (Spec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Names returns the registered tool names (order unspecified).
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.specs))
	for name := range r.specs {
		out = append(out, name)
	}
	return out
}

// required returns the mandatory argument names of a spec, with the optional
// suffix stripped entries excluded.
func (s Spec) required() []string {
	out := make([]string, 0, len(s.RequiredArgs))
	for _, arg := range s.RequiredArgs {
		if strings.HasSuffix(arg, OptionalSuffix) {
			continue
		}
		out = append(out, arg)
	}
	return out
}

// Package tools defines the callable tool surface of the bridge: typed tool
// definitions, a registration-ordered registry, and argument validation.
//
// The registry is the single owner of tool schemas. Every invocation must pass
// Validate before its arguments reach a handler; unvalidated arguments are
// never dispatched.
package tools

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Param describes a single tool parameter. Only string parameters exist today;
// Type is kept explicit so new primitive types extend the schema rather than
// the validator's shape.
type Param struct {
	Name        string
	Type        string // currently always "string"
	Description string
	Required    bool
}

// Definition describes one callable tool: a unique name, a description for the
// model, and an ordered parameter schema. Definitions are immutable once
// registered.
type Definition struct {
	Name        string
	Description string
	Params      []Param
}

// InputSchema builds the JSON schema advertised for this tool over the wire.
func (d Definition) InputSchema() *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(d.Params))
	var required []string
	for _, p := range d.Params {
		props[p.Name] = &jsonschema.Schema{
			Type:        p.Type,
			Description: p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// Registry holds tool definitions in registration order.
//
// Registry is not safe for concurrent mutation; register all tools during
// construction, before the registry is shared. Lookup methods are read-only.
type Registry struct {
	order []string
	defs  map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. A reused name fails with ErrDuplicateTool:
// replacing a live tool under a model mid-session would silently change call
// semantics, so duplicates are rejected rather than overwritten.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool definition has empty name")
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Describe returns all definitions in registration order.
func (r *Registry) Describe() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return def, nil
}

// Validate checks raw invocation arguments against the named tool's schema:
// every required parameter must be present and every provided parameter must be
// a string. On success it returns the typed argument map; the returned map
// contains only parameters the schema declares, so unknown extras never reach
// a handler.
func (r *Registry) Validate(name string, raw map[string]any) (map[string]string, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	args := make(map[string]string, len(def.Params))
	for _, p := range def.Params {
		v, ok := raw[p.Name]
		if !ok {
			if p.Required {
				return nil, &SchemaError{Tool: name, Field: p.Name, Reason: "is required"}
			}
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, &SchemaError{Tool: name, Field: p.Name, Reason: "must be a string"}
		}
		if p.Required && s == "" {
			return nil, &SchemaError{Tool: name, Field: p.Name, Reason: "must not be empty"}
		}
		args[p.Name] = s
	}
	return args, nil
}

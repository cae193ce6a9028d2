package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolBinding is a data-carrying invocation object for one discovered tool.
//
// The tool's name and owning server address are copied into the binding at
// construction time, so invoking reads from the binding's own fields; tools
// discovered in a loop each get an independent binding with nothing captured
// by reference.
//
// When the tool declared a parseable input schema, Invoke validates
// arguments against it before touching the network. Schemas this layer
// cannot interpret disable validation for that binding; the schema is
// otherwise treated as an opaque document.
type ToolBinding struct {
	name          string
	description   string
	serverAddress string

	registry *Registry
	resolved *jsonschema.Resolved
}

// NewToolBinding builds a binding for the tool, routed through the registry.
func NewToolBinding(reg *Registry, tool Tool) *ToolBinding {
	b := &ToolBinding{
		name:          tool.Name,
		description:   tool.Description,
		serverAddress: tool.ServerAddress,
		registry:      reg,
	}

	b.resolved = compileSchema(tool.InputSchema)

	return b
}

// Bindings builds one binding per tool.
func Bindings(reg *Registry, tools []Tool) []*ToolBinding {
	bindings := make([]*ToolBinding, 0, len(tools))
	for _, tool := range tools {
		bindings = append(bindings, NewToolBinding(reg, tool))
	}

	return bindings
}

// compileSchema turns a raw input schema document into a resolved validator.
// Returns nil when the document is absent or not expressible as JSON Schema.
func compileSchema(raw map[string]any) *jsonschema.Resolved {
	if len(raw) == 0 {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil
	}

	return resolved
}

// Name returns the bound tool's name.
func (b *ToolBinding) Name() string { return b.name }

// Description returns the bound tool's description.
func (b *ToolBinding) Description() string { return b.description }

// ServerAddress returns the server the binding invokes.
func (b *ToolBinding) ServerAddress() string { return b.serverAddress }

// Validates reports whether Invoke checks arguments against the tool's
// declared input schema.
func (b *ToolBinding) Validates() bool { return b.resolved != nil }

// Invoke calls the bound tool on its owning server.
func (b *ToolBinding) Invoke(ctx context.Context, arguments map[string]any) (any, error) {
	if b.resolved != nil {
		if arguments == nil {
			arguments = map[string]any{}
		}

		if err := b.resolved.Validate(arguments); err != nil {
			return nil, fmt.Errorf("invalid arguments for tool %q: %w", b.name, err)
		}
	}

	return b.registry.CallToolOn(ctx, b.serverAddress, b.name, arguments)
}

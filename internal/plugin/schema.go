// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache holds compiled schemas by name to avoid recompilation.
var schemaCache = map[string]*jschema.Schema{}

// wireSchemas maps schema names to the Go wire types they describe.
var wireSchemas = map[string]any{
	"manifest":    &Manifest{},
	"action":      &ActionRequest{},
	"instruction": &wireInstruction{},
}

// SchemaNames lists the wire documents a JSON Schema can be generated for.
func SchemaNames() []string {
	return []string{"manifest", "action", "instruction"}
}

// GenerateSchema generates a JSON Schema for one of the wire documents of
// the plugin protocol: "manifest", "action", or "instruction".
func GenerateSchema(name string) ([]byte, error) {
	target, ok := wireSchemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(target)

	schema.ID = jsonschema.ID(SchemaID(name))
	schema.Title = fmt.Sprintf("StoryForge Plugin %s", name)
	schema.Description = "Schema for the StoryForge plugin HTTP protocol"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// ValidateSchema validates a JSON document against one of the protocol
// schemas. This is tooling-side strictness; the RPC client itself stays
// lenient.
func ValidateSchema(name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("document is empty")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	sch, err := getCompiledSchema(name)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// getCompiledSchema returns the cached compiled schema or compiles it.
func getCompiledSchema(name string) (*jschema.Schema, error) {
	if sch, ok := schemaCache[name]; ok {
		return sch, nil
	}

	schemaBytes, err := GenerateSchema(name)
	if err != nil {
		return nil, err
	}

	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	schemaCache[name] = sch
	return sch, nil
}

// ResetSchemaCache clears the cached schemas. Used for testing.
func ResetSchemaCache() {
	schemaCache = map[string]*jschema.Schema{}
}

// SchemaID returns the schema $id for a wire document.
func SchemaID(name string) string {
	return fmt.Sprintf("https://storyforge.dev/schemas/plugin-%s.schema.json", name)
}

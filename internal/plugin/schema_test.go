// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge/storyforge/internal/plugin"
)

func TestGenerateSchema_AllNames(t *testing.T) {
	for _, name := range plugin.SchemaNames() {
		t.Run(name, func(t *testing.T) {
			data, err := plugin.GenerateSchema(name)
			require.NoError(t, err)

			var schema map[string]any
			require.NoError(t, json.Unmarshal(data, &schema))
			assert.Equal(t, plugin.SchemaID(name), schema["$id"])
			assert.Contains(t, schema, "properties")
		})
	}
}

func TestGenerateSchema_UnknownName(t *testing.T) {
	_, err := plugin.GenerateSchema("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema")
}

func TestValidateSchema_Manifest(t *testing.T) {
	plugin.ResetSchemaCache()

	valid := `{
		"id": "polish",
		"name": "polish",
		"capabilities": [{"id": "polish-prose", "name": "Polish Prose", "type": "text_processor"}]
	}`
	assert.NoError(t, plugin.ValidateSchema("manifest", []byte(valid)))

	missingName := `{"id": "polish", "capabilities": []}`
	assert.Error(t, plugin.ValidateSchema("manifest", []byte(missingName)))
}

func TestValidateSchema_Instruction(t *testing.T) {
	plugin.ResetSchemaCache()

	valid := `{"type": "update_document", "payload": {"content": "x"}}`
	assert.NoError(t, plugin.ValidateSchema("instruction", []byte(valid)))

	missingType := `{"payload": {}}`
	assert.Error(t, plugin.ValidateSchema("instruction", []byte(missingType)))
}

func TestValidateSchema_BadInput(t *testing.T) {
	assert.Error(t, plugin.ValidateSchema("manifest", nil))
	assert.Error(t, plugin.ValidateSchema("manifest", []byte("{")))
	assert.Error(t, plugin.ValidateSchema("nope", []byte("{}")))
}

func TestSchemaID(t *testing.T) {
	assert.Equal(t,
		"https://storyforge.dev/schemas/plugin-manifest.schema.json",
		plugin.SchemaID("manifest"))
}

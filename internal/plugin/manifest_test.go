// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge/storyforge/internal/plugin"
)

func TestParseManifest_Valid(t *testing.T) {
	data := `{
		"id": "polish",
		"name": "polish",
		"version": "1.2.0",
		"author": "Ada",
		"capabilities": [
			{"id": "polish-prose", "name": "Polish Prose", "type": "text_processor"}
		]
	}`

	m, err := plugin.ParseManifest([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "polish", m.ID)
	require.Len(t, m.Capabilities, 1)
	assert.Equal(t, "polish-prose", m.Capabilities[0].ID)
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "invalid JSON", data: "{"},
		{name: "missing id", data: `{"name": "polish"}`},
		{name: "uppercase id", data: `{"id": "Polish", "name": "polish"}`},
		{name: "id ends with hyphen", data: `{"id": "polish-", "name": "polish"}`},
		{name: "id starts with digit", data: `{"id": "9polish", "name": "polish"}`},
		{name: "missing name", data: `{"id": "polish"}`},
		{name: "bad semver", data: `{"id": "polish", "name": "polish", "version": "one.two"}`},
		{name: "capability missing id", data: `{"id": "polish", "name": "polish", "capabilities": [{"name": "x"}]}`},
		{name: "capability missing name", data: `{"id": "polish", "name": "polish", "capabilities": [{"id": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plugin.ParseManifest([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestManifestValidate_IDLength(t *testing.T) {
	m := plugin.Manifest{ID: strings.Repeat("a", 65), Name: "polish"}
	require.Error(t, m.Validate())

	m.ID = strings.Repeat("a", 64)
	assert.NoError(t, m.Validate())
}

func TestManifestValidate_SingleCharacterID(t *testing.T) {
	m := plugin.Manifest{ID: "a", Name: "polish"}
	assert.NoError(t, m.Validate())
}

func TestManifestValidate_VersionOptional(t *testing.T) {
	m := plugin.Manifest{ID: "polish", Name: "polish"}
	assert.NoError(t, m.Validate())
}

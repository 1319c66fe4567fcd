// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge/storyforge/internal/plugin"
)

func TestDecodeInstructions_Array(t *testing.T) {
	body := `[
		{"type": "update_document", "payload": {"content": "new prose"}},
		{"type": "show_message", "payload": {"text": "Done!", "type": "success"}}
	]`

	instructions, err := plugin.DecodeInstructions([]byte(body))
	require.NoError(t, err)
	require.Len(t, instructions, 2)

	_, ok := instructions[0].(plugin.UpdateDocument)
	assert.True(t, ok)
	assert.Equal(t, "update_document", instructions[0].Kind())

	_, ok = instructions[1].(plugin.ShowMessage)
	assert.True(t, ok)
}

func TestDecodeInstructions_SingleObjectNormalizesToList(t *testing.T) {
	body := `{"type": "add_log", "payload": "checked 3 chapters"}`

	instructions, err := plugin.DecodeInstructions([]byte(body))
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, "add_log", instructions[0].Kind())
}

func TestDecodeInstructions_EmptyBodies(t *testing.T) {
	for _, body := range []string{"", "  ", "null", "\nnull\n"} {
		instructions, err := plugin.DecodeInstructions([]byte(body))
		require.NoError(t, err, "body %q", body)
		assert.Empty(t, instructions, "body %q", body)
	}
}

func TestDecodeInstructions_UnknownKindBecomesUnrecognized(t *testing.T) {
	body := `[{"type": "launch_rocket", "payload": {"target": "moon"}}]`

	instructions, err := plugin.DecodeInstructions([]byte(body))
	require.NoError(t, err)
	require.Len(t, instructions, 1)

	u, ok := instructions[0].(plugin.Unrecognized)
	require.True(t, ok)
	assert.Equal(t, "launch_rocket", u.RawKind)
	assert.Equal(t, "launch_rocket", u.Kind())
}

func TestDecodeInstructions_MalformedBodies(t *testing.T) {
	for _, body := range []string{"[{", "{", `"just a string"`, "42"} {
		_, err := plugin.DecodeInstructions([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func TestDecodeInstructions_MalformedPayloadIsDeferred(t *testing.T) {
	// Payload contents are not validated at decode time; only the
	// executor rejects them, so the rest of the batch survives.
	body := `[{"type": "update_entity", "payload": {"id": 12345}}]`

	instructions, err := plugin.DecodeInstructions([]byte(body))
	require.NoError(t, err)
	require.Len(t, instructions, 1)
}

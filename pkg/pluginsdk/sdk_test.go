// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package pluginsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge/storyforge/pkg/pluginsdk"
)

func testManifest() pluginsdk.Manifest {
	return pluginsdk.Manifest{
		ID:      "polish",
		Name:    "polish",
		Version: "1.2.0",
		Author:  "StoryForge",
		Capabilities: []pluginsdk.Capability{
			{ID: "polish-prose", Name: "Polish Prose", Type: "text_processor"},
		},
	}
}

func TestHTTPHandler_ManifestEndpoint(t *testing.T) {
	handler := pluginsdk.NewHTTPHandler(testManifest(), pluginsdk.HandlerFunc(
		func(context.Context, pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
			return nil, nil
		},
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/manifest")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var manifest pluginsdk.Manifest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&manifest))
	assert.Equal(t, "polish", manifest.ID)
	assert.Equal(t, "1.2.0", manifest.Version)
	require.Len(t, manifest.Capabilities, 1)
	assert.Equal(t, "text_processor", manifest.Capabilities[0].Type)
}

func TestHTTPHandler_ManifestRejectsPost(t *testing.T) {
	handler := pluginsdk.NewHTTPHandler(testManifest(), pluginsdk.HandlerFunc(
		func(context.Context, pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
			return nil, nil
		},
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Post(server.URL+"/manifest", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTPHandler_ActionSuccess(t *testing.T) {
	var received pluginsdk.ActionRequest
	handler := pluginsdk.NewHTTPHandler(testManifest(), pluginsdk.HandlerFunc(
		func(_ context.Context, req pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
			received = req
			return []pluginsdk.Instruction{
				pluginsdk.UpdateDocument(map[string]any{"content": "better prose"}),
				pluginsdk.ShowMessage("Polished!", "success"),
			}, nil
		},
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	body := `{
		"actionId": "polish-prose",
		"pluginConfig": {"tone": "formal"},
		"context": {
			"project": {"id": "p1", "title": "My Novel", "genre": "fantasy", "worldRules": "", "entities": []},
			"activeDocument": {"id": "d1", "title": "Chapter 1", "content": "rough prose"}
		}
	}`
	resp, err := http.Post(server.URL+"/action", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var instructions []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&instructions))
	require.Len(t, instructions, 2)
	assert.Equal(t, "update_document", instructions[0]["type"])
	assert.Equal(t, "show_message", instructions[1]["type"])

	assert.Equal(t, "polish-prose", received.ActionID)
	assert.Equal(t, "formal", received.PluginConfig["tone"])
	assert.Equal(t, "My Novel", received.Context.Project.Title)
	require.NotNil(t, received.Context.ActiveDocument)
	assert.Equal(t, "rough prose", received.Context.ActiveDocument.Content)
}

func TestHTTPHandler_ActionHandlerError(t *testing.T) {
	handler := pluginsdk.NewHTTPHandler(testManifest(), pluginsdk.HandlerFunc(
		func(context.Context, pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
			return nil, errors.New("model unavailable")
		},
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Post(server.URL+"/action", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var errBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, "model unavailable", errBody["message"])
}

func TestHTTPHandler_ActionBadBody(t *testing.T) {
	handler := pluginsdk.NewHTTPHandler(testManifest(), pluginsdk.HandlerFunc(
		func(context.Context, pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
			return nil, nil
		},
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Post(server.URL+"/action", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPHandler_NilInstructionsEncodeAsEmptyArray(t *testing.T) {
	handler := pluginsdk.NewHTTPHandler(testManifest(), pluginsdk.HandlerFunc(
		func(context.Context, pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
			return nil, nil
		},
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Post(server.URL+"/action", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var instructions []pluginsdk.Instruction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&instructions))
	assert.Empty(t, instructions)
}

func TestUpdateEntity_AddsID(t *testing.T) {
	inst := pluginsdk.UpdateEntity("e42", map[string]any{"title": "Renamed"})

	payload, ok := inst.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "e42", payload["id"])
	assert.Equal(t, "Renamed", payload["title"])
}

func TestShowMessage_DefaultSeverityOmitted(t *testing.T) {
	inst := pluginsdk.ShowMessage("hello", "")

	payload, ok := inst.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", payload["text"])
	assert.NotContains(t, payload, "type")
}

func TestServe_PanicsOnNilConfig(t *testing.T) {
	assert.Panics(t, func() { _ = pluginsdk.Serve(nil) })
}

func TestServe_PanicsOnNilHandler(t *testing.T) {
	assert.Panics(t, func() {
		_ = pluginsdk.Serve(&pluginsdk.ServeConfig{Manifest: testManifest()})
	})
}

func TestServe_PanicsOnEmptyManifestID(t *testing.T) {
	assert.Panics(t, func() {
		_ = pluginsdk.Serve(&pluginsdk.ServeConfig{
			Handler: pluginsdk.HandlerFunc(
				func(context.Context, pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
					return nil, nil
				},
			),
		})
	})
}

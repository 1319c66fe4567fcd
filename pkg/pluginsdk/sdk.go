// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

// Package pluginsdk provides the SDK for building StoryForge HTTP plugins.
//
// A plugin is a small HTTP service that the StoryForge host talks to over
// two endpoints: GET /manifest describes the plugin and its capabilities,
// and POST /action executes one of those capabilities against the writer's
// current project. This package provides the wire types and an HTTP server
// so plugin authors only write a handler.
//
// Example usage:
//
//	package main
//
//	import (
//		"context"
//		"github.com/storyforge/storyforge/pkg/pluginsdk"
//	)
//
//	type PolishPlugin struct{}
//
//	func (p *PolishPlugin) HandleAction(ctx context.Context, req pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
//		return []pluginsdk.Instruction{
//			pluginsdk.ShowMessage("Polished!", "success"),
//		}, nil
//	}
//
//	func main() {
//		pluginsdk.Serve(&pluginsdk.ServeConfig{
//			Addr: ":7001",
//			Manifest: pluginsdk.Manifest{
//				ID:   "polish",
//				Name: "polish",
//				Capabilities: []pluginsdk.Capability{
//					{ID: "polish-prose", Name: "Polish Prose", Type: "text_processor"},
//				},
//			},
//			Handler: &PolishPlugin{},
//		})
//	}
package pluginsdk

import (
	"context"
	"encoding/json"
	"net/http"
)

// Manifest describes a plugin to the StoryForge host.
type Manifest struct {
	// ID is the stable plugin identifier.
	ID string `json:"id"`
	// Name is the human-readable plugin name.
	Name string `json:"name"`
	// Version is an optional semantic version string.
	Version string `json:"version,omitempty"`
	// Author is the optional plugin author.
	Author string `json:"author,omitempty"`
	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`
	// Capabilities lists the actions the plugin offers.
	Capabilities []Capability `json:"capabilities"`
}

// Capability describes one action a plugin can perform.
type Capability struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ProjectContext is the project snapshot the host sends with each action.
type ProjectContext struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Genre      string          `json:"genre"`
	WorldRules string          `json:"worldRules"`
	Entities   json.RawMessage `json:"entities"`
}

// DocumentContext is the document the writer had open when invoking the
// action. Nil when no document was active.
type DocumentContext struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ActionContext bundles the project and active document.
type ActionContext struct {
	Project        ProjectContext   `json:"project"`
	ActiveDocument *DocumentContext `json:"activeDocument,omitempty"`
}

// ActionRequest is the POST /action request body.
type ActionRequest struct {
	ActionID     string            `json:"actionId"`
	PluginConfig map[string]string `json:"pluginConfig"`
	Context      ActionContext     `json:"context"`
	Payload      json.RawMessage   `json:"payload,omitempty"`
}

// Instruction is one host-side effect a plugin returns from an action.
// Construct instructions with the helper functions in this package.
type Instruction struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// UpdateDocument returns an instruction that patches the writer's active
// document. Recognized patch fields are title, content, summary, status
// and targetWordCount.
func UpdateDocument(patch map[string]any) Instruction {
	return Instruction{Type: "update_document", Payload: patch}
}

// UpdateEntity returns an instruction that patches the entity with the
// given id.
func UpdateEntity(entityID string, patch map[string]any) Instruction {
	merged := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		merged[k] = v
	}
	merged["id"] = entityID
	return Instruction{Type: "update_entity", Payload: merged}
}

// ShowMessage returns an instruction that surfaces a message to the
// writer. Severity is one of "info", "success", "warning" or "error";
// empty means info.
func ShowMessage(text, severity string) Instruction {
	payload := map[string]any{"text": text}
	if severity != "" {
		payload["type"] = severity
	}
	return Instruction{Type: "show_message", Payload: payload}
}

// AddLog returns an instruction that appends a line to the host's plugin
// execution console.
func AddLog(text string) Instruction {
	return Instruction{Type: "add_log", Payload: text}
}

// Handler is the interface plugin authors implement.
type Handler interface {
	// HandleAction executes one capability and returns the instructions
	// the host should apply. A returned error becomes an HTTP 500 with
	// the error text in the response message.
	HandleAction(ctx context.Context, req ActionRequest) ([]Instruction, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, req ActionRequest) ([]Instruction, error)

// HandleAction implements Handler.
func (f HandlerFunc) HandleAction(ctx context.Context, req ActionRequest) ([]Instruction, error) {
	return f(ctx, req)
}

// ServeConfig configures the plugin server.
type ServeConfig struct {
	// Addr is the listen address, e.g. ":7001".
	Addr string
	// Manifest is served on GET /manifest.
	// Required; Serve will panic if the ID is empty.
	Manifest Manifest
	// Handler processes POST /action requests.
	// Required; Serve will panic if nil.
	Handler Handler
}

// NewHTTPHandler returns the http.Handler implementing the plugin wire
// protocol. Use this directly to embed a plugin in an existing server or
// to test a handler with httptest.
func NewHTTPHandler(manifest Manifest, handler Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, manifest)
	})
	mux.HandleFunc("/action", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid action request: "+err.Error())
			return
		}
		instructions, err := handler.HandleAction(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if instructions == nil {
			instructions = []Instruction{}
		}
		writeJSON(w, http.StatusOK, instructions)
	})
	return mux
}

// Serve starts the plugin HTTP server. This should be called from main().
// It blocks and only returns on a server error.
func Serve(config *ServeConfig) error {
	if config == nil {
		panic("pluginsdk: config cannot be nil")
	}
	if config.Handler == nil {
		panic("pluginsdk: config.Handler cannot be nil")
	}
	if config.Manifest.ID == "" {
		panic("pluginsdk: config.Manifest.ID cannot be empty")
	}
	server := &http.Server{
		Addr:    config.Addr,
		Handler: NewHTTPHandler(config.Manifest, config.Handler),
	}
	return server.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

// Package main implements a prose-polishing example plugin for StoryForge.
//
// The plugin offers a single text_processor capability that tidies up the
// active document's whitespace and reports how many lines changed. It is
// intentionally simple; its purpose is to show the full round trip through
// the pluginsdk wire protocol.
//
// Run it with:
//
//	go run ./plugins/polish
//
// then register http://localhost:7001 with the StoryForge backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/storyforge/storyforge/pkg/pluginsdk"
)

const defaultAddr = ":7001"

type polishPlugin struct{}

func (p *polishPlugin) HandleAction(_ context.Context, req pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
	if req.ActionID != "polish-prose" {
		return nil, fmt.Errorf("unknown action %q", req.ActionID)
	}
	doc := req.Context.ActiveDocument
	if doc == nil {
		return nil, errors.New("polish-prose requires an open document")
	}

	polished, changed := polish(doc.Content)
	if changed == 0 {
		return []pluginsdk.Instruction{
			pluginsdk.ShowMessage("Nothing to polish in "+doc.Title+".", "info"),
		}, nil
	}

	return []pluginsdk.Instruction{
		pluginsdk.UpdateDocument(map[string]any{"content": polished}),
		pluginsdk.ShowMessage(fmt.Sprintf("Polished %d line(s) in %s.", changed, doc.Title), "success"),
		pluginsdk.AddLog(fmt.Sprintf("polish-prose touched %d line(s) in document %s", changed, doc.ID)),
	}, nil
}

// polish trims trailing whitespace and collapses runs of blank lines,
// returning the cleaned text and the number of lines that changed.
func polish(content string) (string, int) {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	changed := 0
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed != line {
			changed++
		}
		if trimmed == "" {
			if blank {
				changed++
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n"), changed
}

func main() {
	addr := defaultAddr
	if v := os.Getenv("POLISH_ADDR"); v != "" {
		addr = v
	}

	slog.Info("polish plugin listening", "addr", addr)
	err := pluginsdk.Serve(&pluginsdk.ServeConfig{
		Addr: addr,
		Manifest: pluginsdk.Manifest{
			ID:          "polish",
			Name:        "polish",
			Version:     "1.0.0",
			Author:      "StoryForge",
			Description: "Tidies up whitespace in the active document.",
			Capabilities: []pluginsdk.Capability{
				{
					ID:          "polish-prose",
					Name:        "Polish Prose",
					Type:        "text_processor",
					Description: "Trim trailing whitespace and collapse blank lines.",
				},
			},
		},
		Handler: &polishPlugin{},
	})
	if err != nil {
		slog.Error("plugin server failed", "error", err)
		os.Exit(1)
	}
}

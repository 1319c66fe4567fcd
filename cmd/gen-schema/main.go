// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

// Command gen-schema generates the plugin wire protocol JSON Schema files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/storyforge/storyforge/internal/plugin"
)

func main() {
	if err := os.MkdirAll("schemas", 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, name := range plugin.SchemaNames() {
		schema, err := plugin.GenerateSchema(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema %s: %v\n", name, err)
			os.Exit(1)
		}

		outPath := filepath.Join("schemas", fmt.Sprintf("plugin-%s.schema.json", name))
		if err := os.WriteFile(outPath, schema, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

// Package plugin integrates remote HTTP plugin microservices: the registry
// client for the backend catalog, the RPC client speaking the plugin wire
// protocol, and the engine that applies returned instructions to project
// state.
package plugin

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/storyforge/storyforge/internal/story"
)

// Manifest is a plugin's self-description, fetched via GET {endpoint}/manifest.
type Manifest struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Version      string               `json:"version,omitempty"`
	Author       string               `json:"author,omitempty"`
	Description  string               `json:"description,omitempty"`
	Capabilities []ManifestCapability `json:"capabilities"`
}

// ManifestCapability describes one invocable action in a manifest.
type ManifestCapability struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Type        story.CapabilityType `json:"type"`
	Description string               `json:"description,omitempty"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin ids: must start with a lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character ids are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates a manifest document.
//
// The RPC probe does not use this: a probe accepts any parseable JSON
// manifest. ParseManifest serves the SDK and schema tooling, where strict
// validation is wanted.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifest data is empty")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.ID == "" || !namePattern.MatchString(m.ID) {
		return fmt.Errorf("id %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.ID)
	}
	if len(m.ID) > maxNameLength {
		return fmt.Errorf("id must be %d characters or less, got %d", maxNameLength, len(m.ID))
	}

	if m.Name == "" {
		return fmt.Errorf("name is required")
	}

	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			return fmt.Errorf("version %q is not valid semver: %w", m.Version, err)
		}
	}

	for i, cap := range m.Capabilities {
		if cap.ID == "" {
			return fmt.Errorf("capabilities[%d]: id is required", i)
		}
		if cap.Name == "" {
			return fmt.Errorf("capabilities[%d]: name is required", i)
		}
	}

	return nil
}

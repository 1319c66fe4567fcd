// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package story

import (
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// LoadProject reads a project workspace file. The file is YAML and stands
// in for the backend persistence service when working offline.
func LoadProject(path string) (Project, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user config
	if err != nil {
		return Project{}, oops.Wrapf(err, "read project file %s", path)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Project{}, oops.Wrapf(err, "parse project file %s", path)
	}
	if p.ID == "" {
		return Project{}, oops.Errorf("project file %s: missing id", path)
	}
	return p, nil
}

// SaveProject writes a project workspace file.
func SaveProject(path string, p Project) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return oops.Wrapf(err, "encode project %s", p.ID)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return oops.Wrapf(err, "write project file %s", path)
	}
	return nil
}

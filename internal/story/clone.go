// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package story

import "fmt"

// Creation defaults for newly added items.
const (
	defaultTargetWordCount = 3000
	defaultEntityTitle     = "Untitled entity"
)

func defaultVolumeTitle(n int) string {
	return fmt.Sprintf("Volume %d", n)
}

func defaultChapterTitle(n int) string {
	return fmt.Sprintf("Chapter %d", n)
}

// cloneProject deep-copies a project so transitions never alias the slice
// or map state of the stored value.
func cloneProject(p Project) Project {
	out := p
	out.Tags = append([]string(nil), p.Tags...)
	if p.Volumes != nil {
		out.Volumes = append([]Volume(nil), p.Volumes...)
	}
	if p.Documents != nil {
		out.Documents = make([]Document, len(p.Documents))
		for i, d := range p.Documents {
			out.Documents[i] = cloneDocument(d)
		}
	}
	if p.Entities != nil {
		out.Entities = make([]StoryEntity, len(p.Entities))
		for i, e := range p.Entities {
			out.Entities[i] = cloneEntity(e)
		}
	}
	if p.Templates != nil {
		out.Templates = append([]PromptTemplate(nil), p.Templates...)
	}
	if p.Plugins != nil {
		out.Plugins = clonePlugins(p.Plugins)
	}
	return out
}

func cloneDocument(d Document) Document {
	out := d
	if d.Links != nil {
		out.Links = append([]EntityLink(nil), d.Links...)
	}
	if d.Bookmarks != nil {
		out.Bookmarks = append([]Bookmark(nil), d.Bookmarks...)
	}
	return out
}

func cloneEntity(e StoryEntity) StoryEntity {
	out := e
	if e.Tags != nil {
		out.Tags = append([]string(nil), e.Tags...)
	}
	if e.Links != nil {
		out.Links = append([]EntityLink(nil), e.Links...)
	}
	if e.CustomFields != nil {
		out.CustomFields = append([]CustomField(nil), e.CustomFields...)
	}
	return out
}

func clonePlugin(p Plugin) Plugin {
	out := p
	if p.Capabilities != nil {
		out.Capabilities = append([]Capability(nil), p.Capabilities...)
	}
	if p.Config != nil {
		out.Config = make(map[string]string, len(p.Config))
		for k, v := range p.Config {
			out.Config[k] = v
		}
	}
	return out
}

func clonePlugins(plugins []Plugin) []Plugin {
	if plugins == nil {
		return nil
	}
	out := make([]Plugin, len(plugins))
	for i, p := range plugins {
		out[i] = clonePlugin(p)
	}
	return out
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package story

// Patch types carry partial updates. Nil fields are left untouched, so a
// patch decoded from a sparse JSON payload merges into the existing value.

// ProjectPatch is a partial update of project-level details.
type ProjectPatch struct {
	Title        *string  `json:"title,omitempty"`
	Genre        *string  `json:"genre,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CoreConflict *string  `json:"coreConflict,omitempty"`
	WorldRules   *string  `json:"worldRules,omitempty"`
}

func (patch ProjectPatch) apply(p *Project) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Genre != nil {
		p.Genre = *patch.Genre
	}
	if patch.Tags != nil {
		p.Tags = append([]string(nil), patch.Tags...)
	}
	if patch.CoreConflict != nil {
		p.CoreConflict = *patch.CoreConflict
	}
	if patch.WorldRules != nil {
		p.WorldRules = *patch.WorldRules
	}
}

// VolumePatch is a partial update of a volume.
type VolumePatch struct {
	Title      *string `json:"title,omitempty"`
	Theme      *string `json:"theme,omitempty"`
	CoreGoal   *string `json:"coreGoal,omitempty"`
	Boundaries *string `json:"boundaries,omitempty"`
}

func (patch VolumePatch) apply(v *Volume) {
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Theme != nil {
		v.Theme = *patch.Theme
	}
	if patch.CoreGoal != nil {
		v.CoreGoal = *patch.CoreGoal
	}
	if patch.Boundaries != nil {
		v.Boundaries = *patch.Boundaries
	}
}

// DocumentPatch is a partial update of a document. It matches the payload
// shape of the update_document plugin instruction.
type DocumentPatch struct {
	Title           *string         `json:"title,omitempty"`
	Content         *string         `json:"content,omitempty"`
	Summary         *string         `json:"summary,omitempty"`
	Status          *DocumentStatus `json:"status,omitempty"`
	TargetWordCount *int            `json:"targetWordCount,omitempty"`
}

func (patch DocumentPatch) apply(d *Document) {
	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Content != nil {
		d.Content = *patch.Content
	}
	if patch.Summary != nil {
		d.Summary = *patch.Summary
	}
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.TargetWordCount != nil {
		d.TargetWordCount = *patch.TargetWordCount
	}
}

// EntityPatch is a partial update of a story entity. It matches the payload
// shape of the update_entity plugin instruction, which addresses the entity
// by the id field inside the payload.
type EntityPatch struct {
	ID           string        `json:"id,omitempty"`
	Type         *EntityType   `json:"type,omitempty"`
	Title        *string       `json:"title,omitempty"`
	Subtitle     *string       `json:"subtitle,omitempty"`
	Content      *string       `json:"content,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Importance   *Importance   `json:"importance,omitempty"`
	CustomFields []CustomField `json:"customFields,omitempty"`
}

func (patch EntityPatch) apply(e *StoryEntity) {
	if patch.Type != nil {
		e.Type = *patch.Type
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Subtitle != nil {
		e.Subtitle = *patch.Subtitle
	}
	if patch.Content != nil {
		e.Content = *patch.Content
	}
	if patch.Tags != nil {
		e.Tags = append([]string(nil), patch.Tags...)
	}
	if patch.Importance != nil {
		e.Importance = *patch.Importance
	}
	if patch.CustomFields != nil {
		e.CustomFields = append([]CustomField(nil), patch.CustomFields...)
	}
}

// AISettingsPatch is a partial update of the project's AI settings.
type AISettingsPatch struct {
	Provider        *string  `json:"provider,omitempty"`
	Model           *string  `json:"model,omitempty"`
	ProxyEndpoint   *string  `json:"proxyEndpoint,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	ThinkingBudget  *int     `json:"thinkingBudget,omitempty"`
}

func (patch AISettingsPatch) apply(s *AISettings) {
	if patch.Provider != nil {
		s.Provider = *patch.Provider
	}
	if patch.Model != nil {
		s.Model = *patch.Model
	}
	if patch.ProxyEndpoint != nil {
		s.ProxyEndpoint = *patch.ProxyEndpoint
	}
	if patch.Temperature != nil {
		s.Temperature = *patch.Temperature
	}
	if patch.MaxOutputTokens != nil {
		s.MaxOutputTokens = *patch.MaxOutputTokens
	}
	if patch.ThinkingBudget != nil {
		s.ThinkingBudget = *patch.ThinkingBudget
	}
}

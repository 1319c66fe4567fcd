// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

// Package story contains the project state model and the in-memory store
// that owns it. All mutation operations are scoped to the active project.
package story

import (
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntityType classifies a story entity.
type EntityType string

// Entity types recognized by the authoring tool.
const (
	EntityCharacter    EntityType = "character"
	EntitySetting      EntityType = "setting"
	EntityOrganization EntityType = "organization"
	EntityItem         EntityType = "item"
	EntityMagic        EntityType = "magic"
	EntityEvent        EntityType = "event"
)

// Importance ranks how central an entity is to the story.
type Importance string

const (
	ImportanceMain      Importance = "main"
	ImportanceSecondary Importance = "secondary"
	ImportanceMinor     Importance = "minor"
)

// DocumentStatus tracks a chapter's editorial state.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "draft"
	StatusRevising DocumentStatus = "revising"
	StatusFinal    DocumentStatus = "final"
)

// TemplateCategory groups prompt templates.
type TemplateCategory string

const (
	CategoryLogic     TemplateCategory = "logic"
	CategoryStyle     TemplateCategory = "style"
	CategoryContent   TemplateCategory = "content"
	CategoryCharacter TemplateCategory = "character"
)

// SourceKind identifies what owns an outgoing entity link.
//
// Link sources carry an explicit kind instead of inferring it from an
// id prefix, so id generation schemes can change without misrouting links.
type SourceKind string

const (
	SourceDocument SourceKind = "document"
	SourceEntity   SourceKind = "entity"
)

// LinkSource addresses the owner of an entity link.
type LinkSource struct {
	Kind SourceKind
	ID   string
}

// DocumentSource returns a LinkSource for a document id.
func DocumentSource(id string) LinkSource {
	return LinkSource{Kind: SourceDocument, ID: id}
}

// EntitySource returns a LinkSource for an entity id.
func EntitySource(id string) LinkSource {
	return LinkSource{Kind: SourceEntity, ID: id}
}

// EntityLink is a directed, labeled edge to a story entity.
// Link lists are append-only and duplicates are permitted: two different
// relation labels between the same pair are two distinct edges.
type EntityLink struct {
	TargetID string     `yaml:"target_id" json:"targetId"`
	Type     EntityType `yaml:"type" json:"type"`
	Relation string     `yaml:"relation" json:"relationName"`
}

// Bookmark marks a position inside a document.
type Bookmark struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Position  int       `yaml:"position" json:"position"`
	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
}

// CustomField is a writer-defined key/value attribute on an entity.
type CustomField struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// StoryEntity is a character, place, or other world element.
type StoryEntity struct {
	ID             string        `yaml:"id" json:"id"`
	Type           EntityType    `yaml:"type" json:"type"`
	Title          string        `yaml:"title" json:"title"`
	Subtitle       string        `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Content        string        `yaml:"content" json:"content"`
	Tags           []string      `yaml:"tags,omitempty" json:"tags"`
	Links          []EntityLink  `yaml:"links,omitempty" json:"linkedIds"`
	Importance     Importance    `yaml:"importance" json:"importance"`
	CustomFields   []CustomField `yaml:"custom_fields,omitempty" json:"customFields,omitempty"`
	ReferenceCount int           `yaml:"reference_count,omitempty" json:"referenceCount,omitempty"`
}

// Document is one chapter of the manuscript. It belongs to exactly one volume.
type Document struct {
	ID              string         `yaml:"id" json:"id"`
	VolumeID        string         `yaml:"volume_id" json:"volumeId"`
	Title           string         `yaml:"title" json:"title"`
	Content         string         `yaml:"content" json:"content"`
	Summary         string         `yaml:"summary,omitempty" json:"summary,omitempty"`
	Status          DocumentStatus `yaml:"status" json:"status"`
	Order           int            `yaml:"order" json:"order"`
	Links           []EntityLink   `yaml:"links,omitempty" json:"linkedIds"`
	Bookmarks       []Bookmark     `yaml:"bookmarks,omitempty" json:"bookmarks"`
	TargetWordCount int            `yaml:"target_word_count,omitempty" json:"targetWordCount,omitempty"`
}

// Volume groups documents into an ordered arc of the manuscript.
type Volume struct {
	ID         string `yaml:"id" json:"id"`
	Title      string `yaml:"title" json:"title"`
	Order      int    `yaml:"order" json:"order"`
	Theme      string `yaml:"theme,omitempty" json:"theme,omitempty"`
	CoreGoal   string `yaml:"core_goal,omitempty" json:"coreGoal,omitempty"`
	Boundaries string `yaml:"boundaries,omitempty" json:"boundaries,omitempty"`
}

// PromptTemplate is a reusable AI prompt owned by the project.
type PromptTemplate struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Category    TemplateCategory `yaml:"category" json:"category"`
	Template    string           `yaml:"template" json:"template"`
}

// AISettings holds per-project generation settings. The AI provider
// subsystem itself lives elsewhere; the project only carries the container.
type AISettings struct {
	Provider        string  `yaml:"provider" json:"provider"`
	Model           string  `yaml:"model" json:"model"`
	ProxyEndpoint   string  `yaml:"proxy_endpoint,omitempty" json:"proxyEndpoint,omitempty"`
	Temperature     float64 `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens,omitempty" json:"maxOutputTokens,omitempty"`
	ThinkingBudget  int     `yaml:"thinking_budget,omitempty" json:"thinkingBudget,omitempty"`
}

// DefaultAISettings returns the settings a new project starts with.
func DefaultAISettings() AISettings {
	return AISettings{
		Provider:    "gemini",
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
	}
}

// CapabilityType classifies what a plugin capability does.
type CapabilityType string

const (
	CapabilityTextProcessor CapabilityType = "text_processor"
	CapabilityDataProvider  CapabilityType = "data_provider"
	CapabilityUIExtension   CapabilityType = "ui_extension"
	CapabilityLogicChecker  CapabilityType = "logic_checker"
	CapabilityGenerator     CapabilityType = "generator"
)

// PluginStatus is the last observed health of a plugin endpoint.
// It is refreshed only by an explicit ping, never inferred.
type PluginStatus string

const (
	PluginOnline  PluginStatus = "online"
	PluginOffline PluginStatus = "offline"
	PluginError   PluginStatus = "error"
)

// Capability is one named action a plugin exposes.
type Capability struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Type        CapabilityType `yaml:"type" json:"type"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Icon        string         `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// Plugin is a registered remote microservice that can act on the project.
// Enabled and Status are independent: a disabled plugin can be online.
type Plugin struct {
	ID           string            `yaml:"id" json:"id"`
	Name         string            `yaml:"name" json:"name"`
	Version      string            `yaml:"version" json:"version"`
	Author       string            `yaml:"author" json:"author"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Endpoint     string            `yaml:"endpoint" json:"endpoint"`
	Enabled      bool              `yaml:"enabled" json:"isEnabled"`
	Capabilities []Capability      `yaml:"capabilities,omitempty" json:"capabilities"`
	Status       PluginStatus      `yaml:"status,omitempty" json:"status,omitempty"`
	Latency      time.Duration     `yaml:"latency,omitempty" json:"latency,omitempty"`
	LastPing     time.Time         `yaml:"last_ping,omitempty" json:"lastPing,omitempty"`
	// Config is forwarded verbatim on every action call. Values are
	// treated as secret-bearing and rendered masked in any UI.
	Config map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

// Project is the root aggregate for one work in progress.
type Project struct {
	ID           string           `yaml:"id" json:"id"`
	Title        string           `yaml:"title" json:"title"`
	Genre        string           `yaml:"genre,omitempty" json:"genre,omitempty"`
	Tags         []string         `yaml:"tags,omitempty" json:"tags,omitempty"`
	CoreConflict string           `yaml:"core_conflict,omitempty" json:"coreConflict,omitempty"`
	WorldRules   string           `yaml:"world_rules,omitempty" json:"worldRules,omitempty"`
	Volumes      []Volume         `yaml:"volumes" json:"volumes"`
	Documents    []Document       `yaml:"documents" json:"documents"`
	Entities     []StoryEntity    `yaml:"entities" json:"entities"`
	Templates    []PromptTemplate `yaml:"templates,omitempty" json:"templates"`
	Plugins      []Plugin         `yaml:"plugins,omitempty" json:"plugins,omitempty"`
	AISettings   AISettings       `yaml:"ai_settings" json:"aiSettings"`
}

// NewProject creates an empty project with a generated id and default
// AI settings.
func NewProject(title string) Project {
	return Project{
		ID:         ulid.Make().String(),
		Title:      title,
		AISettings: DefaultAISettings(),
	}
}

// Document returns the document with the given id, if present.
func (p *Project) Document(id string) (*Document, bool) {
	for i := range p.Documents {
		if p.Documents[i].ID == id {
			return &p.Documents[i], true
		}
	}
	return nil, false
}

// Entity returns the entity with the given id, if present.
func (p *Project) Entity(id string) (*StoryEntity, bool) {
	for i := range p.Entities {
		if p.Entities[i].ID == id {
			return &p.Entities[i], true
		}
	}
	return nil, false
}

// Volume returns the volume with the given id, if present.
func (p *Project) Volume(id string) (*Volume, bool) {
	for i := range p.Volumes {
		if p.Volumes[i].ID == id {
			return &p.Volumes[i], true
		}
	}
	return nil, false
}

// VolumesInOrder returns volumes sorted for display: order ascending,
// ties broken by creation id. Orders may have gaps after deletions.
func (p *Project) VolumesInOrder() []Volume {
	out := append([]Volume(nil), p.Volumes...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DocumentsInVolume returns a volume's documents sorted for display:
// order ascending, ties broken by creation id.
func (p *Project) DocumentsInVolume(volumeID string) []Document {
	var out []Document
	for _, d := range p.Documents {
		if d.VolumeID == volumeID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Plugin returns the registered plugin with the given id, if present.
func (p *Project) Plugin(id string) (*Plugin, bool) {
	for i := range p.Plugins {
		if p.Plugins[i].ID == id {
			return &p.Plugins[i], true
		}
	}
	return nil, false
}

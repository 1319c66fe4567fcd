// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package story

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store owns the canonical in-memory project state.
//
// Every mutation is expressed as a pure function of the active project:
// the updater receives a copy and returns the next value, and the store
// swaps the active project's slot to the result. Mutations never observe
// or modify an inactive project. Operations addressing an id that does
// not exist are no-ops; the store is a pure state machine and reports no
// errors to callers.
type Store struct {
	mu               sync.RWMutex
	projects         []Project
	activeID         string
	activeDocumentID string
	activeVolumeID   string
}

// NewStore creates an empty store with no active project.
func NewStore() *Store {
	return &Store{}
}

// apply runs a pure transition against the active project and swaps the
// slot to the returned value. No-op when no project is active.
func (s *Store) apply(fn func(Project) Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return
	}
	for i := range s.projects {
		if s.projects[i].ID == s.activeID {
			s.projects[i] = fn(cloneProject(s.projects[i]))
			return
		}
	}
}

// Projects returns a snapshot of all projects.
func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, len(s.projects))
	for i := range s.projects {
		out[i] = cloneProject(s.projects[i])
	}
	return out
}

// ActiveProject returns a snapshot of the active project.
func (s *Store) ActiveProject() (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return Project{}, false
	}
	for i := range s.projects {
		if s.projects[i].ID == s.activeID {
			return cloneProject(s.projects[i]), true
		}
	}
	return Project{}, false
}

// CreateProject adds a project and makes it active.
func (s *Store) CreateProject(p Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, cloneProject(p))
	s.activeID = p.ID
	s.activeDocumentID = ""
	s.activeVolumeID = ""
}

// SelectProject makes the project with the given id active. Selecting an
// unknown id is a no-op. The first document, if any, becomes active.
func (s *Store) SelectProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.activeID = id
			s.activeDocumentID = ""
			s.activeVolumeID = ""
			if len(s.projects[i].Documents) > 0 {
				s.activeDocumentID = s.projects[i].Documents[0].ID
				s.activeVolumeID = s.projects[i].Documents[0].VolumeID
			}
			return
		}
	}
}

// DeleteProject removes a project. Deleting the active project clears the
// active selection.
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.projects[:0]
	for i := range s.projects {
		if s.projects[i].ID != id {
			next = append(next, s.projects[i])
		}
	}
	s.projects = next
	if s.activeID == id {
		s.activeID = ""
		s.activeDocumentID = ""
		s.activeVolumeID = ""
	}
}

// ReplaceActiveProject swaps the active project wholesale. The project id
// is forced to the active id, so a replace can never retarget the slot.
func (s *Store) ReplaceActiveProject(p Project) {
	s.apply(func(cur Project) Project {
		next := cloneProject(p)
		next.ID = cur.ID
		return next
	})
}

// ActiveDocumentID returns the id of the document currently open for
// editing, or "" if none.
func (s *Store) ActiveDocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeDocumentID
}

// SetActiveDocument marks a document as open for editing. Unknown ids
// clear the selection rather than pointing at a missing document.
func (s *Store) SetActiveDocument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeDocumentID = ""
	if s.activeID == "" {
		return
	}
	for i := range s.projects {
		if s.projects[i].ID != s.activeID {
			continue
		}
		if d, ok := s.projects[i].Document(id); ok {
			s.activeDocumentID = d.ID
			s.activeVolumeID = d.VolumeID
		}
		return
	}
}

// UpdateProjectDetails merges project-level details into the active project.
func (s *Store) UpdateProjectDetails(patch ProjectPatch) {
	s.apply(func(p Project) Project {
		patch.apply(&p)
		return p
	})
}

// UpdateAISettings merges settings into the active project's AI settings.
func (s *Store) UpdateAISettings(patch AISettingsPatch) {
	s.apply(func(p Project) Project {
		patch.apply(&p.AISettings)
		return p
	})
}

// AddVolume appends a new volume. Order is the current volume count;
// orders are never renumbered on deletion, so gaps are permitted.
func (s *Store) AddVolume(patch VolumePatch) Volume {
	vol := Volume{ID: ulid.Make().String()}
	created := false
	s.apply(func(p Project) Project {
		vol.Order = len(p.Volumes)
		patch.apply(&vol)
		if vol.Title == "" {
			vol.Title = defaultVolumeTitle(len(p.Volumes) + 1)
		}
		p.Volumes = append(p.Volumes, vol)
		created = true
		return p
	})
	if created {
		s.mu.Lock()
		s.activeVolumeID = vol.ID
		s.mu.Unlock()
	}
	return vol
}

// UpdateVolume merges updates into the volume with the given id.
func (s *Store) UpdateVolume(id string, patch VolumePatch) {
	s.apply(func(p Project) Project {
		if v, ok := p.Volume(id); ok {
			patch.apply(v)
		}
		return p
	})
}

// DeleteVolume removes a volume and every document belonging to it.
// The cascade does not touch entity links held by other documents.
func (s *Store) DeleteVolume(id string) {
	s.apply(func(p Project) Project {
		vols := p.Volumes[:0]
		for _, v := range p.Volumes {
			if v.ID != id {
				vols = append(vols, v)
			}
		}
		p.Volumes = vols
		docs := p.Documents[:0]
		for _, d := range p.Documents {
			if d.VolumeID != id {
				docs = append(docs, d)
			}
		}
		p.Documents = docs
		return p
	})
}

// AddDocument appends a new document to a volume and makes it active.
// Order is the current document count within the volume.
func (s *Store) AddDocument(volumeID string, patch DocumentPatch) Document {
	doc := Document{
		ID:              ulid.Make().String(),
		VolumeID:        volumeID,
		Status:          StatusDraft,
		TargetWordCount: defaultTargetWordCount,
	}
	created := false
	s.apply(func(p Project) Project {
		if _, ok := p.Volume(volumeID); !ok {
			return p
		}
		inVolume := 0
		for _, d := range p.Documents {
			if d.VolumeID == volumeID {
				inVolume++
			}
		}
		doc.Order = inVolume
		patch.apply(&doc)
		if doc.Title == "" {
			doc.Title = defaultChapterTitle(inVolume + 1)
		}
		p.Documents = append(p.Documents, doc)
		created = true
		return p
	})
	if created {
		s.mu.Lock()
		s.activeDocumentID = doc.ID
		s.activeVolumeID = volumeID
		s.mu.Unlock()
	}
	return doc
}

// UpdateDocument merges updates into the document with the given id.
func (s *Store) UpdateDocument(id string, patch DocumentPatch) {
	s.apply(func(p Project) Project {
		if d, ok := p.Document(id); ok {
			patch.apply(d)
		}
		return p
	})
}

// DeleteDocument removes a document. Deletion does not cascade into other
// documents' links; only entity deletion maintains link integrity.
func (s *Store) DeleteDocument(id string) {
	s.apply(func(p Project) Project {
		docs := p.Documents[:0]
		for _, d := range p.Documents {
			if d.ID != id {
				docs = append(docs, d)
			}
		}
		p.Documents = docs
		return p
	})
	s.mu.Lock()
	if s.activeDocumentID == id {
		s.activeDocumentID = ""
	}
	s.mu.Unlock()
}

// AddBookmark appends a bookmark to a document.
func (s *Store) AddBookmark(docID, name string, position int) Bookmark {
	bm := Bookmark{
		ID:        ulid.Make().String(),
		Name:      name,
		Position:  position,
		CreatedAt: time.Now(),
	}
	s.apply(func(p Project) Project {
		if d, ok := p.Document(docID); ok {
			d.Bookmarks = append(d.Bookmarks, bm)
		}
		return p
	})
	return bm
}

// DeleteBookmark removes a bookmark from a document.
func (s *Store) DeleteBookmark(docID, bookmarkID string) {
	s.apply(func(p Project) Project {
		if d, ok := p.Document(docID); ok {
			bms := d.Bookmarks[:0]
			for _, b := range d.Bookmarks {
				if b.ID != bookmarkID {
					bms = append(bms, b)
				}
			}
			d.Bookmarks = bms
		}
		return p
	})
}

// AddEntity appends a new story entity of the given type.
func (s *Store) AddEntity(t EntityType, patch EntityPatch) StoryEntity {
	ent := StoryEntity{
		ID:         ulid.Make().String(),
		Type:       t,
		Title:      defaultEntityTitle,
		Importance: ImportanceSecondary,
	}
	patch.apply(&ent)
	s.apply(func(p Project) Project {
		p.Entities = append(p.Entities, ent)
		return p
	})
	return ent
}

// UpdateEntity merges updates into the entity with the given id.
func (s *Store) UpdateEntity(id string, patch EntityPatch) {
	s.apply(func(p Project) Project {
		if e, ok := p.Entity(id); ok {
			patch.apply(e)
		}
		return p
	})
}

// DeleteEntity removes an entity and, in the same transition, every link
// anywhere in the project whose target is that entity.
func (s *Store) DeleteEntity(id string) {
	s.BatchDeleteEntities([]string{id})
}

// BatchDeleteEntities removes a set of entities in one transition,
// dropping every surviving link whose target is in the deleted id-set.
// Applying the whole set in one pass avoids intermediate states where a
// link points at an already-deleted entity.
func (s *Store) BatchDeleteEntities(ids []string) {
	if len(ids) == 0 {
		return
	}
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}
	s.apply(func(p Project) Project {
		ents := p.Entities[:0]
		for _, e := range p.Entities {
			if _, gone := doomed[e.ID]; gone {
				continue
			}
			e.Links = filterLinks(e.Links, doomed)
			ents = append(ents, e)
		}
		p.Entities = ents
		for i := range p.Documents {
			p.Documents[i].Links = filterLinks(p.Documents[i].Links, doomed)
		}
		return p
	})
}

// LinkEntities appends a link from the source to the target entity.
// Duplicate links are permitted: relation semantics may legitimately
// require multiple edges between the same pair.
func (s *Store) LinkEntities(source LinkSource, targetID string, t EntityType, relation string) {
	link := EntityLink{TargetID: targetID, Type: t, Relation: relation}
	s.apply(func(p Project) Project {
		appendLink(&p, source, link)
		return p
	})
}

// BatchLinkEntities appends the same link to many sources in one transition.
func (s *Store) BatchLinkEntities(sources []LinkSource, targetID string, t EntityType, relation string) {
	link := EntityLink{TargetID: targetID, Type: t, Relation: relation}
	s.apply(func(p Project) Project {
		for _, src := range sources {
			appendLink(&p, src, link)
		}
		return p
	})
}

// UnlinkEntities removes all links from the source to the target, not just
// one. Unlinking an absent pair is a no-op.
func (s *Store) UnlinkEntities(source LinkSource, targetID string) {
	s.apply(func(p Project) Project {
		switch source.Kind {
		case SourceDocument:
			if d, ok := p.Document(source.ID); ok {
				d.Links = dropTarget(d.Links, targetID)
			}
		case SourceEntity:
			if e, ok := p.Entity(source.ID); ok {
				e.Links = dropTarget(e.Links, targetID)
			}
		}
		return p
	})
}

// AddTemplate appends a prompt template to the active project.
func (s *Store) AddTemplate(name, template, description string, category TemplateCategory) PromptTemplate {
	tpl := PromptTemplate{
		ID:          ulid.Make().String(),
		Name:        name,
		Description: description,
		Category:    category,
		Template:    template,
	}
	s.apply(func(p Project) Project {
		p.Templates = append(p.Templates, tpl)
		return p
	})
	return tpl
}

// DeleteTemplate removes a prompt template.
func (s *Store) DeleteTemplate(id string) {
	s.apply(func(p Project) Project {
		tpls := p.Templates[:0]
		for _, t := range p.Templates {
			if t.ID != id {
				tpls = append(tpls, t)
			}
		}
		p.Templates = tpls
		return p
	})
}

// SetPlugins replaces the active project's plugin registry snapshot.
func (s *Store) SetPlugins(plugins []Plugin) {
	s.apply(func(p Project) Project {
		p.Plugins = clonePlugins(plugins)
		return p
	})
}

// UpsertPlugin inserts or replaces one plugin in the registry snapshot.
func (s *Store) UpsertPlugin(pl Plugin) {
	s.apply(func(p Project) Project {
		for i := range p.Plugins {
			if p.Plugins[i].ID == pl.ID {
				p.Plugins[i] = clonePlugin(pl)
				return p
			}
		}
		p.Plugins = append(p.Plugins, clonePlugin(pl))
		return p
	})
}

// RemovePlugin drops a plugin from the registry snapshot. Removal has no
// cascading effect on project entities: actions already applied are
// permanent data mutations.
func (s *Store) RemovePlugin(id string) {
	s.apply(func(p Project) Project {
		pls := p.Plugins[:0]
		for _, pl := range p.Plugins {
			if pl.ID != id {
				pls = append(pls, pl)
			}
		}
		p.Plugins = pls
		return p
	})
}

func appendLink(p *Project, source LinkSource, link EntityLink) {
	switch source.Kind {
	case SourceDocument:
		if d, ok := p.Document(source.ID); ok {
			d.Links = append(d.Links, link)
		}
	case SourceEntity:
		if e, ok := p.Entity(source.ID); ok {
			e.Links = append(e.Links, link)
		}
	}
}

func filterLinks(links []EntityLink, doomed map[string]struct{}) []EntityLink {
	out := links[:0]
	for _, l := range links {
		if _, gone := doomed[l.TargetID]; !gone {
			out = append(out, l)
		}
	}
	return out
}

func dropTarget(links []EntityLink, targetID string) []EntityLink {
	out := links[:0]
	for _, l := range links {
		if l.TargetID != targetID {
			out = append(out, l)
		}
	}
	return out
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package story

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// MatchEntities returns the entities whose title or tags match the glob
// pattern. Matching is case-insensitive; an empty pattern matches all.
func MatchEntities(p Project, pattern string) ([]StoryEntity, error) {
	if pattern == "" {
		return append([]StoryEntity(nil), p.Entities...), nil
	}
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, oops.Code("bad_pattern").With("pattern", pattern).Wrapf(err, "compile glob")
	}
	var out []StoryEntity
	for _, e := range p.Entities {
		if matchEntity(g, e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// MatchDocuments returns the documents whose title matches the glob
// pattern, in volume reading order.
func MatchDocuments(p Project, pattern string) ([]Document, error) {
	if pattern == "" {
		return append([]Document(nil), p.Documents...), nil
	}
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, oops.Code("bad_pattern").With("pattern", pattern).Wrapf(err, "compile glob")
	}
	var out []Document
	for _, v := range p.VolumesInOrder() {
		for _, d := range p.DocumentsInVolume(v.ID) {
			if g.Match(strings.ToLower(d.Title)) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func matchEntity(g glob.Glob, e StoryEntity) bool {
	if g.Match(strings.ToLower(e.Title)) {
		return true
	}
	for _, tag := range e.Tags {
		if g.Match(strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

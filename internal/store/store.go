// Package store provides the in-memory pattern repository.
package store

import (
	"sort"
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
)

// Repository is the keyed store of finalized patterns. It is the only owner
// of pattern records; everything it returns is a copy.
//
// Repository does no locking; callers serialize access.
type Repository struct {
	patterns map[string]model.Pattern
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{patterns: make(map[string]model.Pattern)}
}

// Save inserts or replaces a pattern by id.
func (r *Repository) Save(p model.Pattern) {
	r.patterns[p.ID] = p.Clone()
}

// Get returns the pattern with the given id.
func (r *Repository) Get(id string) (model.Pattern, bool) {
	p, ok := r.patterns[id]
	if !ok {
		return model.Pattern{}, false
	}
	return p.Clone(), true
}

// Delete removes a pattern. Returns false if it did not exist.
func (r *Repository) Delete(id string) bool {
	if _, ok := r.patterns[id]; !ok {
		return false
	}
	delete(r.patterns, id)
	return true
}

// MarkSaved protects a pattern from purge and optionally names and tags it.
// Returns false if the id is unknown, e.g. because it was already purged.
func (r *Repository) MarkSaved(id string, name string, tags []string, at time.Time) bool {
	p, ok := r.patterns[id]
	if !ok {
		return false
	}
	p.IsSaved = true
	p.LastPlayedAt = at
	if name != "" {
		p.Name = name
	}
	if tags != nil {
		p.Tags = append([]string(nil), tags...)
	}
	r.patterns[id] = p
	return true
}

// MarkPlayed bumps the play count of a pattern.
func (r *Repository) MarkPlayed(id string, at time.Time) bool {
	p, ok := r.patterns[id]
	if !ok {
		return false
	}
	p.PlayCount++
	p.LastPlayedAt = at
	r.patterns[id] = p
	return true
}

// Purge removes unsaved patterns older than maxAge and returns how many
// were removed. Saved patterns are never purged.
func (r *Repository) Purge(now time.Time, maxAge time.Duration) int {
	removed := 0
	for id, p := range r.patterns {
		if !p.IsSaved && now.Sub(p.CreatedAt) > maxAge {
			delete(r.patterns, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored patterns.
func (r *Repository) Len() int {
	return len(r.patterns)
}

// Reset removes everything.
func (r *Repository) Reset() {
	r.patterns = make(map[string]model.Pattern)
}

func sortByCreated(ps []model.Pattern) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

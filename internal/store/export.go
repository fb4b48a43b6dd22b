package store

import (
	"github.com/rcliao/pattern-memory/internal/model"
)

// All returns every pattern ordered by creation time, oldest first.
func (r *Repository) All() []model.Pattern {
	out := make([]model.Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p.Clone())
	}
	sortByCreated(out)
	return out
}

// Import replaces the repository contents with patterns from a snapshot.
// Records without an id or with fewer than minNotes notes (at least one) are
// skipped. Returns how many were kept.
func (r *Repository) Import(patterns []model.Pattern, minNotes int) int {
	r.patterns = make(map[string]model.Pattern, len(patterns))
	for _, p := range patterns {
		if p.ID == "" || len(p.Notes) == 0 || len(p.Notes) < minNotes {
			continue
		}
		p.NoteCount = len(p.Notes)
		r.patterns[p.ID] = p.Clone()
	}
	return len(r.patterns)
}

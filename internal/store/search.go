package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
)

// SortField names a sortable numeric pattern field.
type SortField string

const (
	SortCreatedAt       SortField = "created_at"
	SortLastPlayedAt    SortField = "last_played_at"
	SortPlayCount       SortField = "play_count"
	SortNoteCount       SortField = "note_count"
	SortComplexityScore SortField = "complexity_score"
)

// ValidSortFields are the accepted sort fields.
var ValidSortFields = map[SortField]bool{
	SortCreatedAt:       true,
	SortLastPlayedAt:    true,
	SortPlayCount:       true,
	SortNoteCount:       true,
	SortComplexityScore: true,
}

// ParseSortField validates a sort field name. Empty means created_at.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortCreatedAt, nil
	}
	f := SortField(s)
	if !ValidSortFields[f] {
		return "", fmt.Errorf("invalid sort field %q (valid: created_at, last_played_at, play_count, note_count, complexity_score)", s)
	}
	return f, nil
}

// ListParams holds filters for listing patterns. Zero values disable a filter.
type ListParams struct {
	Key           string
	Mode          string
	Instrument    string
	Type          model.PatternType
	SessionID     string
	Saved         *bool
	MinPlayCount  int
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Query         string // case-insensitive substring of name or any tag
	SortBy        SortField
	Desc          bool
	Limit         int // applied after filter and sort; 0 means all
}

// List returns patterns matching every filter in p.
func (r *Repository) List(p ListParams) []model.Pattern {
	query := strings.ToLower(strings.TrimSpace(p.Query))

	var out []model.Pattern
	for _, pat := range r.patterns {
		if !matches(pat, p, query) {
			continue
		}
		out = append(out, pat.Clone())
	}

	sortByCreated(out)
	cmp := compareBy(p.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if p.Desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out
}

func matches(pat model.Pattern, p ListParams, query string) bool {
	if p.Key != "" && pat.Key != p.Key {
		return false
	}
	if p.Mode != "" && pat.Mode != p.Mode {
		return false
	}
	if p.Instrument != "" && pat.Instrument != p.Instrument {
		return false
	}
	if p.Type != "" && pat.PatternType != p.Type {
		return false
	}
	if p.SessionID != "" && pat.SessionID != p.SessionID {
		return false
	}
	if p.Saved != nil && pat.IsSaved != *p.Saved {
		return false
	}
	if pat.PlayCount < p.MinPlayCount {
		return false
	}
	if !p.CreatedAfter.IsZero() && pat.CreatedAt.Before(p.CreatedAfter) {
		return false
	}
	if !p.CreatedBefore.IsZero() && pat.CreatedAt.After(p.CreatedBefore) {
		return false
	}
	if query != "" && !matchesText(pat, query) {
		return false
	}
	return true
}

func matchesText(pat model.Pattern, query string) bool {
	if strings.Contains(strings.ToLower(pat.Name), query) {
		return true
	}
	for _, tag := range pat.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func compareBy(f SortField) func(a, b model.Pattern) int {
	switch f {
	case SortLastPlayedAt:
		return func(a, b model.Pattern) int { return a.LastPlayedAt.Compare(b.LastPlayedAt) }
	case SortPlayCount:
		return func(a, b model.Pattern) int { return a.PlayCount - b.PlayCount }
	case SortNoteCount:
		return func(a, b model.Pattern) int { return a.NoteCount - b.NoteCount }
	case SortComplexityScore:
		return func(a, b model.Pattern) int {
			switch {
			case a.ComplexityScore < b.ComplexityScore:
				return -1
			case a.ComplexityScore > b.ComplexityScore:
				return 1
			}
			return 0
		}
	default:
		return func(a, b model.Pattern) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

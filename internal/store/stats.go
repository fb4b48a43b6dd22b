package store

import (
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
)

// Stats holds repository statistics.
type Stats struct {
	TotalPatterns    int                       `json:"total_patterns"`
	SavedPatterns    int                       `json:"saved_patterns"`
	HistorySize      int                       `json:"history_size"`
	StorageBytes     int                       `json:"storage_bytes"`
	OldestPattern    *time.Time                `json:"oldest_pattern,omitempty"`
	NewestPattern    *time.Time                `json:"newest_pattern,omitempty"`
	MostPlayed       *model.Pattern            `json:"most_played,omitempty"`
	AverageNoteCount float64                   `json:"average_note_count"`
	TypeCounts       map[model.PatternType]int `json:"type_counts,omitempty"`
}

// Stats summarizes the repository. historySize and storageBytes come from the
// caller, which owns the history buffer and the serialized snapshot.
func (r *Repository) Stats(historySize, storageBytes int) *Stats {
	st := &Stats{
		TotalPatterns: len(r.patterns),
		HistorySize:   historySize,
		StorageBytes:  storageBytes,
	}
	if len(r.patterns) == 0 {
		return st
	}

	st.TypeCounts = make(map[model.PatternType]int)
	notes := 0
	var most *model.Pattern
	// Oldest first, so the oldest pattern wins a play-count tie.
	for _, p := range r.All() {
		if p.IsSaved {
			st.SavedPatterns++
		}
		notes += p.NoteCount
		st.TypeCounts[p.PatternType]++

		if st.OldestPattern == nil {
			t := p.CreatedAt
			st.OldestPattern = &t
		}
		t := p.CreatedAt
		st.NewestPattern = &t

		if most == nil || p.PlayCount > most.PlayCount {
			c := p
			most = &c
		}
	}
	st.MostPlayed = most
	st.AverageNoteCount = float64(notes) / float64(len(r.patterns))
	return st
}

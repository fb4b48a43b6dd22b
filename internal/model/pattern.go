package model

import "time"

// PatternType is the best-effort classification of a pattern.
type PatternType string

const (
	PatternScale    PatternType = "scale"
	PatternArpeggio PatternType = "arpeggio"
	PatternChord    PatternType = "chord"
	PatternMelody   PatternType = "melody"
	PatternRhythm   PatternType = "rhythm"
	PatternMixed    PatternType = "mixed"
)

// ValidPatternTypes are the allowed pattern types.
var ValidPatternTypes = map[PatternType]bool{
	PatternScale:    true,
	PatternArpeggio: true,
	PatternChord:    true,
	PatternMelody:   true,
	PatternRhythm:   true,
	PatternMixed:    true,
}

// Pattern is a finalized, classified group of consecutive history notes.
type Pattern struct {
	ID            string        `json:"id"`
	Notes         []HistoryNote `json:"notes"`
	NoteCount     int           `json:"note_count"`
	TotalDuration time.Duration `json:"total_duration"`
	Key           string        `json:"key"`
	Mode          string        `json:"mode"`
	Instrument    string        `json:"instrument"`
	SessionID     string        `json:"session_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	LastPlayedAt  time.Time     `json:"last_played_at"`
	IsSaved       bool          `json:"is_saved"`
	PlayCount     int           `json:"play_count"`
	Name          string        `json:"name,omitempty"`
	Tags          []string      `json:"tags,omitempty"`

	AverageNoteDuration *time.Duration `json:"average_note_duration,omitempty"`
	DominantScaleDegree int            `json:"dominant_scale_degree"`
	ComplexityScore     float64        `json:"complexity_score"`
	PatternType         PatternType    `json:"pattern_type"`
	DetectionConfidence float64        `json:"detection_confidence"`
}

// FirstNoteID returns the id of the note that opens the pattern.
func (p Pattern) FirstNoteID() string {
	if len(p.Notes) == 0 {
		return ""
	}
	return p.Notes[0].ID
}

// Clone returns a deep copy safe to hand to callers.
func (p Pattern) Clone() Pattern {
	c := p
	c.Notes = append([]HistoryNote(nil), p.Notes...)
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	return c
}

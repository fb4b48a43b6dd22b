// Package model defines the core pattern-memory data types.
package model

import "time"

// Solfege describes the solfège syllable attached to a note. It is carried
// along with the note and never interpreted by detection.
type Solfege struct {
	Name        string `json:"name"`
	Emotion     string `json:"emotion,omitempty"`
	Description string `json:"description,omitempty"`
}

// NoteData is the context supplied by the audio/UI layer on every note-on.
type NoteData struct {
	Note         string   `json:"note"`
	Key          string   `json:"key"`
	Mode         string   `json:"mode"`
	ScaleDegree  int      `json:"scale_degree"`
	Solfege      Solfege  `json:"solfege"`
	SolfegeIndex int      `json:"solfege_index"`
	Octave       int      `json:"octave"`
	Frequency    float64  `json:"frequency"`
	Instrument   string   `json:"instrument"`
	Velocity     *float64 `json:"velocity,omitempty"`
	AudioNoteID  string   `json:"audio_note_id,omitempty"`
}

// HistoryNote is one recorded key press and its optional release.
type HistoryNote struct {
	ID           string         `json:"id"`
	AudioNoteID  string         `json:"audio_note_id,omitempty"`
	Note         string         `json:"note"`
	Key          string         `json:"key"`
	Mode         string         `json:"mode"`
	ScaleDegree  int            `json:"scale_degree"`
	Solfege      Solfege        `json:"solfege"`
	SolfegeIndex int            `json:"solfege_index"`
	Octave       int            `json:"octave"`
	Frequency    float64        `json:"frequency"`
	Instrument   string         `json:"instrument"`
	Velocity     *float64       `json:"velocity,omitempty"`
	PressTime    time.Time      `json:"press_time"`
	ReleaseTime  *time.Time     `json:"release_time,omitempty"`
	Duration     *time.Duration `json:"duration,omitempty"`
	SessionID    string         `json:"session_id"`
}

// NewHistoryNote builds an unreleased note from inbound note data.
func NewHistoryNote(id string, d NoteData, pressTime time.Time, sessionID string) HistoryNote {
	return HistoryNote{
		ID:           id,
		AudioNoteID:  d.AudioNoteID,
		Note:         d.Note,
		Key:          d.Key,
		Mode:         d.Mode,
		ScaleDegree:  d.ScaleDegree,
		Solfege:      d.Solfege,
		SolfegeIndex: d.SolfegeIndex,
		Octave:       d.Octave,
		Frequency:    d.Frequency,
		Instrument:   d.Instrument,
		Velocity:     d.Velocity,
		PressTime:    pressTime,
		SessionID:    sessionID,
	}
}

// Released reports whether the note has a release time.
func (n HistoryNote) Released() bool {
	return n.ReleaseTime != nil
}

// End returns the release time, or the press time while the note sustains.
func (n HistoryNote) End() time.Time {
	if n.ReleaseTime != nil {
		return *n.ReleaseTime
	}
	return n.PressTime
}

// SetRelease records the release and derives the duration.
func (n *HistoryNote) SetRelease(at time.Time) {
	rt := at
	d := at.Sub(n.PressTime)
	n.ReleaseTime = &rt
	n.Duration = &d
}

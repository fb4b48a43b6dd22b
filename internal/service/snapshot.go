package service

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/model"
)

// Snapshot is the serializable state of a detector. Every field is
// optional on load.
type Snapshot struct {
	History   []model.HistoryNote    `json:"history"`
	Patterns  []model.Pattern        `json:"patterns"`
	Config    *model.DetectionConfig `json:"config,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`

	// SegmentedThrough is the last note of the newest closed group.
	SegmentedThrough string `json:"segmented_through,omitempty"`
	LivePatternID    string `json:"live_pattern_id,omitempty"`
	LiveEnd          string `json:"live_end,omitempty"`

	// configPatch holds the config fields a decoded snapshot named, so
	// LoadData can merge them over the current config.
	configPatch *model.ConfigPatch
}

// Encode returns the JSON form of the snapshot.
func (s Snapshot) Encode() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a snapshot one field at a time, so a malformed field
// does not discard the others. The returned error lists what was skipped;
// the snapshot is usable either way.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return s, fmt.Errorf("decode snapshot: %w", err)
	}

	var bad []string
	field := func(name string, v any) {
		msg, ok := raw[name]
		if !ok || string(msg) == "null" {
			return
		}
		if err := json.Unmarshal(msg, v); err != nil {
			bad = append(bad, name)
		}
	}

	field("history", &s.History)
	field("patterns", &s.Patterns)
	if msg, ok := raw["config"]; ok && string(msg) != "null" {
		var patch model.ConfigPatch
		if err := json.Unmarshal(msg, &patch); err != nil {
			bad = append(bad, "config")
		} else {
			cfg := patch.Apply(model.DefaultDetectionConfig())
			s.Config, s.configPatch = &cfg, &patch
		}
	}
	field("session_id", &s.SessionID)
	field("segmented_through", &s.SegmentedThrough)
	field("live_pattern_id", &s.LivePatternID)
	field("live_end", &s.LiveEnd)

	if len(bad) > 0 {
		return s, fmt.Errorf("decode snapshot: skipped malformed fields %v", bad)
	}
	return s, nil
}

// ExportData returns the full state. It has no side effects.
func (d *Detector) ExportData() Snapshot {
	d.lock()
	defer d.mu.Unlock()
	return d.exportLocked()
}

func (d *Detector) exportLocked() Snapshot {
	cfg := d.cfg
	return Snapshot{
		History:       d.history.Notes(),
		Patterns:      d.patterns.All(),
		Config:        &cfg,
		SessionID:        d.sessionID,
		SegmentedThrough: d.done,
		LivePatternID:    d.livePatternID,
		LiveEnd:          d.liveEnd,
	}
}

// LoadData replaces state with a snapshot. Missing fields leave their part
// empty, or for config and session id unchanged; a decoded config only
// overrides the fields it names. Patterns shorter than the minimum length
// are dropped. A purge runs afterwards.
func (d *Detector) LoadData(s Snapshot) {
	d.lock()
	d.stopTimerLocked()
	switch {
	case s.configPatch != nil:
		d.cfg = s.configPatch.Apply(d.cfg)
	case s.Config != nil:
		d.cfg = *s.Config
	}
	d.history.SetMaxSize(d.cfg.MaxHistorySize)
	d.history.Load(s.History)
	imported := d.patterns.Import(s.Patterns, d.cfg.MinPatternLength)
	if s.SessionID != "" {
		d.sessionID = s.SessionID
	}

	d.done, d.livePatternID, d.liveEnd = s.SegmentedThrough, s.LivePatternID, s.LiveEnd
	if !d.segmentStateValidLocked() {
		d.inferSegmentStateLocked()
	}
	purged := d.purgeLocked()
	d.mu.Unlock()

	d.log.Info("data_loaded",
		logging.F("history", len(s.History)),
		logging.F("patterns", imported),
		logging.F("dropped", len(s.Patterns)-imported),
		logging.F("purged", purged))
}

func (d *Detector) segmentStateValidLocked() bool {
	if d.done == "" && d.livePatternID == "" {
		return d.patterns.Len() == 0
	}
	if d.done != "" && d.history.Index(d.done) < 0 {
		return false
	}
	if d.livePatternID != "" {
		return d.liveEnd != "" && d.history.Index(d.liveEnd) >= 0
	}
	return true
}

// inferSegmentStateLocked rebuilds the segmentation state from the retained
// pattern that reaches furthest into history, so notes already covered by a
// pattern are not turned into new ones. That pattern stays live when it is
// unsaved and fully retained.
func (d *Detector) inferSegmentStateLocked() {
	d.done, d.livePatternID, d.liveEnd = "", "", ""
	best := -1
	var furthest model.Pattern
	for _, p := range d.patterns.All() {
		if len(p.Notes) == 0 {
			continue
		}
		if last := d.history.Index(p.Notes[len(p.Notes)-1].ID); last > best {
			best, furthest = last, p
		}
	}
	if best < 0 {
		return
	}
	end := furthest.Notes[len(furthest.Notes)-1].ID
	first := d.history.Index(furthest.FirstNoteID())
	if first < 0 || furthest.IsSaved {
		d.done = end
		return
	}
	if first > 0 {
		d.done = d.history.Notes()[first-1].ID
	}
	d.livePatternID, d.liveEnd = furthest.ID, end
}

// Package detect splits note history into pattern candidates and classifies
// them. Everything here is a pure function of its inputs.
package detect

import (
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
)

// Group is a run of consecutive history notes between two boundaries.
type Group []model.HistoryNote

// Gap returns the silence between prev ending and cur starting. A note that
// is still sustaining ends at its press time.
func Gap(prev, cur model.HistoryNote) time.Duration {
	return cur.PressTime.Sub(prev.End())
}

// ContextChanged reports whether key, mode or instrument differ.
func ContextChanged(prev, cur model.HistoryNote) bool {
	return prev.Key != cur.Key || prev.Mode != cur.Mode || prev.Instrument != cur.Instrument
}

// Boundary reports whether cur must start a new group, given the size of the
// group that prev closes. Notes from different sessions never share a group.
func Boundary(prev, cur model.HistoryNote, groupLen int, cfg model.DetectionConfig) bool {
	if prev.SessionID != cur.SessionID {
		return true
	}
	if Gap(prev, cur) > cfg.SilenceThreshold {
		return true
	}
	if cfg.DetectOnContextChange && ContextChanged(prev, cur) {
		return true
	}
	return cfg.MaxPatternLength > 0 && groupLen >= cfg.MaxPatternLength
}

// Split partitions notes into groups, keeping groups of every size. The last
// group is the one still being played.
func Split(notes []model.HistoryNote, cfg model.DetectionConfig) []Group {
	if len(notes) == 0 {
		return nil
	}
	var groups []Group
	current := Group{notes[0]}
	for i := 1; i < len(notes); i++ {
		if Boundary(notes[i-1], notes[i], len(current), cfg) {
			groups = append(groups, current)
			current = Group{notes[i]}
			continue
		}
		current = append(current, notes[i])
	}
	return append(groups, current)
}

// Segment returns only the groups long enough to become patterns, including
// the trailing in-progress group.
func Segment(notes []model.HistoryNote, cfg model.DetectionConfig) []Group {
	var out []Group
	for _, g := range Split(notes, cfg) {
		if len(g) >= cfg.MinPatternLength && len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

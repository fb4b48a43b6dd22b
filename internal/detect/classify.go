package detect

import (
	"math"
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
)

// Heuristic constants. Downstream classification depends on these exact
// values.
const (
	DurationBucket  = 100 * time.Millisecond
	ChordWindow     = 1000 * time.Millisecond
	ArpeggioLeap    = 2
	MixedComplexity = 0.7
	ConfidenceBoost = 0.3
	MaxConfidence   = 1.0
)

// Stats are the derived statistics of a group.
type Stats struct {
	TotalDuration       time.Duration
	AverageNoteDuration *time.Duration
	DominantScaleDegree int
	ComplexityScore     float64
	PatternType         model.PatternType
	DetectionConfidence float64
}

// Analyze computes the statistics and classification of a group.
// It panics on an empty group.
func Analyze(g Group) Stats {
	if len(g) == 0 {
		panic("detect: analyze empty group")
	}
	first, last := g[0], g[len(g)-1]
	complexity := Complexity(g)
	return Stats{
		TotalDuration:       last.End().Sub(first.PressTime),
		AverageNoteDuration: AverageDuration(g),
		DominantScaleDegree: DominantScaleDegree(g),
		ComplexityScore:     complexity,
		PatternType:         ClassifyType(g, complexity),
		DetectionConfidence: math.Min(complexity+ConfidenceBoost, MaxConfidence),
	}
}

// Classify builds a pattern from a group. The caller supplies identity and
// creation time. It panics on an empty group.
func Classify(g Group, id string, now time.Time) model.Pattern {
	st := Analyze(g)
	first := g[0]
	return model.Pattern{
		ID:                  id,
		Notes:               append([]model.HistoryNote(nil), g...),
		NoteCount:           len(g),
		TotalDuration:       st.TotalDuration,
		Key:                 first.Key,
		Mode:                first.Mode,
		Instrument:          first.Instrument,
		SessionID:           first.SessionID,
		CreatedAt:           now,
		LastPlayedAt:        now,
		AverageNoteDuration: st.AverageNoteDuration,
		DominantScaleDegree: st.DominantScaleDegree,
		ComplexityScore:     st.ComplexityScore,
		PatternType:         st.PatternType,
		DetectionConfidence: st.DetectionConfidence,
	}
}

// AverageDuration is the mean of the known note durations, or nil when no
// note has been released.
func AverageDuration(g Group) *time.Duration {
	var sum time.Duration
	n := 0
	for _, note := range g {
		if note.Duration != nil {
			sum += *note.Duration
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / time.Duration(n)
	return &avg
}

// DominantScaleDegree returns the most frequent scale degree. On a tie the
// degree seen first wins.
func DominantScaleDegree(g Group) int {
	counts := make(map[int]int)
	var order []int
	for _, note := range g {
		if _, ok := counts[note.ScaleDegree]; !ok {
			order = append(order, note.ScaleDegree)
		}
		counts[note.ScaleDegree]++
	}
	best, bestCount := 0, -1
	for _, d := range order {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// Complexity blends pitch variety and rhythm variety into a 0..1 score.
func Complexity(g Group) float64 {
	if len(g) == 0 {
		return 0
	}
	pitches := make(map[string]struct{})
	buckets := make(map[int64]struct{})
	timed := 0
	for _, note := range g {
		pitches[note.Note] = struct{}{}
		if note.Duration != nil {
			buckets[bucket(*note.Duration)] = struct{}{}
			timed++
		}
	}
	pitchVariety := float64(len(pitches)) / float64(len(g))
	rhythmVariety := 0.0
	if timed > 0 {
		rhythmVariety = float64(len(buckets)) / float64(timed)
	}
	return (pitchVariety + rhythmVariety) / 2
}

// bucket rounds a duration to the nearest DurationBucket, half away from zero.
func bucket(d time.Duration) int64 {
	return int64(math.Round(float64(d) / float64(DurationBucket)))
}

// ClassifyType applies the type rules in priority order.
func ClassifyType(g Group, complexity float64) model.PatternType {
	switch {
	case len(g) == 1:
		return model.PatternRhythm
	case distinctPitches(g) && ascendingDegrees(g):
		return model.PatternScale
	case hasLeap(g):
		return model.PatternArpeggio
	case g[len(g)-1].PressTime.Sub(g[0].PressTime) <= ChordWindow:
		return model.PatternChord
	case complexity > MixedComplexity:
		return model.PatternMixed
	default:
		return model.PatternMelody
	}
}

func distinctPitches(g Group) bool {
	seen := make(map[string]struct{}, len(g))
	for _, note := range g {
		if _, ok := seen[note.Note]; ok {
			return false
		}
		seen[note.Note] = struct{}{}
	}
	return true
}

func ascendingDegrees(g Group) bool {
	for i := 1; i < len(g); i++ {
		if g[i].ScaleDegree < g[i-1].ScaleDegree {
			return false
		}
	}
	return true
}

func hasLeap(g Group) bool {
	for i := 1; i < len(g); i++ {
		d := g[i].ScaleDegree - g[i-1].ScaleDegree
		if d > ArpeggioLeap || d < -ArpeggioLeap {
			return true
		}
	}
	return false
}

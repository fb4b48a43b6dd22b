package store

import (
	"math"
	"sort"
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
)

// ReviewParams holds parameters for building the review shelf.
type ReviewParams struct {
	Now   time.Time
	Limit int // default 10
}

// ReviewItem is a scored unsaved pattern.
type ReviewItem struct {
	model.Pattern
	Score float64 `json:"score"`
}

// Review ranks unsaved patterns worth naming and saving before they expire.
func (r *Repository) Review(p ReviewParams) []ReviewItem {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	var items []ReviewItem
	for _, pat := range r.All() {
		if pat.IsSaved {
			continue
		}

		// Recency: exponential decay, roughly halving every 7 hours
		age := p.Now.Sub(pat.CreatedAt).Hours()
		if age < 0 {
			age = 0
		}
		recency := math.Exp(-0.1 * age)

		// Replays: log scale, saturating at 100 plays
		replays := 0.0
		if pat.PlayCount > 0 {
			replays = math.Log(float64(pat.PlayCount)+1) / math.Log(100)
			if replays > 1 {
				replays = 1
			}
		}

		score := pat.DetectionConfidence*0.5 + recency*0.3 + replays*0.2
		items = append(items, ReviewItem{Pattern: pat, Score: math.Round(score*100) / 100})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

package store

import (
	"math"
	"sort"

	"github.com/rcliao/pattern-memory/internal/embedding"
	"github.com/rcliao/pattern-memory/internal/model"
)

// SimilarItem is a pattern scored against a reference pattern.
type SimilarItem struct {
	model.Pattern
	Similarity float64 `json:"similarity"`
}

// Similar ranks the other patterns by cosine similarity to the one with the
// given id. Patterns with nothing in common are left out.
func (r *Repository) Similar(id string, e embedding.Embedder, limit int) ([]SimilarItem, bool) {
	ref, ok := r.patterns[id]
	if !ok {
		return nil, false
	}
	if limit <= 0 {
		limit = 10
	}
	target := e.Embed(ref)

	var items []SimilarItem
	for _, p := range r.All() {
		if p.ID == id {
			continue
		}
		sim := embedding.CosineSimilarity(target, e.Embed(p))
		if sim <= 0 {
			continue
		}
		items = append(items, SimilarItem{Pattern: p, Similarity: math.Round(sim*1000) / 1000})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Similarity > items[j].Similarity
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, true
}

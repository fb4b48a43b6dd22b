package store

import (
	"testing"
	"time"

	"github.com/rcliao/pattern-memory/internal/embedding"
	"github.com/rcliao/pattern-memory/internal/model"
)

func seedSearch(t *testing.T) *Repository {
	t.Helper()
	r := NewRepository()

	a := pattern("a", t0)
	a.PatternType = model.PatternScale
	a.ComplexityScore = 0.4
	a.SessionID = "s1"

	b := pattern("b", t0.Add(time.Minute))
	b.Key = "G"
	b.NoteCount = 5
	b.ComplexityScore = 0.9
	b.SessionID = "s1"

	c := pattern("c", t0.Add(2*time.Minute))
	c.Instrument = "flute"
	c.Mode = "minor"
	c.ComplexityScore = 0.6
	c.SessionID = "s2"

	for _, p := range []model.Pattern{a, b, c} {
		r.Save(p)
	}
	r.MarkSaved("a", "Warmup Scale", []string{"daily"}, t0.Add(time.Hour))
	r.MarkSaved("c", "", []string{"Flute-Practice"}, t0.Add(time.Hour))
	r.MarkPlayed("b", t0.Add(3*time.Minute))
	r.MarkPlayed("b", t0.Add(4*time.Minute))
	r.MarkPlayed("c", t0.Add(5*time.Minute))
	return r
}

func ids(ps []model.Pattern) string {
	s := ""
	for _, p := range ps {
		s += p.ID
	}
	return s
}

func TestListFilters(t *testing.T) {
	r := seedSearch(t)
	yes, no := true, false

	tests := []struct {
		name string
		p    ListParams
		want string
	}{
		{"all in creation order", ListParams{}, "abc"},
		{"key", ListParams{Key: "G"}, "b"},
		{"mode", ListParams{Mode: "minor"}, "c"},
		{"instrument", ListParams{Instrument: "piano"}, "ab"},
		{"type", ListParams{Type: model.PatternScale}, "a"},
		{"session", ListParams{SessionID: "s1"}, "ab"},
		{"saved", ListParams{Saved: &yes}, "ac"},
		{"unsaved", ListParams{Saved: &no}, "b"},
		{"min play count", ListParams{MinPlayCount: 1}, "bc"},
		{"created after", ListParams{CreatedAfter: t0.Add(30 * time.Second)}, "bc"},
		{"created before", ListParams{CreatedBefore: t0.Add(90 * time.Second)}, "ab"},
		{"name search is case-insensitive", ListParams{Query: "warmup"}, "a"},
		{"tag search", ListParams{Query: "practice"}, "c"},
		{"no match", ListParams{Query: "zzz"}, ""},
		{"combined", ListParams{Saved: &yes, Instrument: "flute"}, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(r.List(tt.p)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListSortAndLimit(t *testing.T) {
	r := seedSearch(t)

	tests := []struct {
		name string
		p    ListParams
		want string
	}{
		{"created desc", ListParams{Desc: true}, "cba"},
		{"play count desc", ListParams{SortBy: SortPlayCount, Desc: true}, "bca"},
		{"note count asc keeps creation order on ties", ListParams{SortBy: SortNoteCount}, "acb"},
		{"complexity asc", ListParams{SortBy: SortComplexityScore}, "acb"},
		{"last played desc", ListParams{SortBy: SortLastPlayedAt, Desc: true}, "acb"},
		{"limit after sort", ListParams{SortBy: SortComplexityScore, Desc: true, Limit: 2}, "bc"},
		{"limit larger than result", ListParams{Limit: 10}, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(r.List(tt.p)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSortField(t *testing.T) {
	if f, err := ParseSortField(""); err != nil || f != SortCreatedAt {
		t.Errorf("expected default created_at, got %q %v", f, err)
	}
	if _, err := ParseSortField("play_count"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseSortField("name"); err == nil {
		t.Error("expected error for non-numeric field")
	}
}

func TestStats(t *testing.T) {
	r := seedSearch(t)
	st := r.Stats(42, 1024)

	if st.TotalPatterns != 3 || st.SavedPatterns != 2 {
		t.Errorf("unexpected counts %d/%d", st.TotalPatterns, st.SavedPatterns)
	}
	if st.HistorySize != 42 || st.StorageBytes != 1024 {
		t.Error("expected caller-supplied sizes to pass through")
	}
	if st.OldestPattern == nil || !st.OldestPattern.Equal(t0) {
		t.Errorf("unexpected oldest %v", st.OldestPattern)
	}
	if st.NewestPattern == nil || !st.NewestPattern.Equal(t0.Add(2*time.Minute)) {
		t.Errorf("unexpected newest %v", st.NewestPattern)
	}
	if st.MostPlayed == nil || st.MostPlayed.ID != "b" {
		t.Errorf("expected b most played, got %+v", st.MostPlayed)
	}
	// note counts 3, 5, 3
	if st.AverageNoteCount != 11.0/3.0 {
		t.Errorf("unexpected average %f", st.AverageNoteCount)
	}
	if st.TypeCounts[model.PatternMelody] != 2 || st.TypeCounts[model.PatternScale] != 1 {
		t.Errorf("unexpected type counts %v", st.TypeCounts)
	}
}

func TestStatsEmpty(t *testing.T) {
	st := NewRepository().Stats(0, 0)
	if st.TotalPatterns != 0 || st.MostPlayed != nil || st.OldestPattern != nil || st.AverageNoteCount != 0 {
		t.Errorf("unexpected stats for empty repository: %+v", st)
	}
}

func TestReview(t *testing.T) {
	r := NewRepository()
	fresh := pattern("fresh", t0)
	fresh.DetectionConfidence = 0.9
	stale := pattern("stale", t0.Add(-48*time.Hour))
	stale.DetectionConfidence = 0.9
	saved := pattern("saved", t0)
	saved.DetectionConfidence = 1
	for _, p := range []model.Pattern{fresh, stale, saved} {
		r.Save(p)
	}
	r.MarkSaved("saved", "", nil, t0)

	items := r.Review(ReviewParams{Now: t0})
	if len(items) != 2 {
		t.Fatalf("expected 2 unsaved items, got %d", len(items))
	}
	if items[0].ID != "fresh" {
		t.Errorf("expected fresh pattern first, got %s", items[0].ID)
	}
	if items[0].Score <= items[1].Score {
		t.Error("expected descending scores")
	}
	if got := r.Review(ReviewParams{Now: t0, Limit: 1}); len(got) != 1 {
		t.Errorf("expected limit 1, got %d", len(got))
	}
}

func TestSimilar(t *testing.T) {
	r := NewRepository()
	mk := func(id string, degrees ...int) {
		p := pattern(id, t0)
		p.Notes = nil
		for _, d := range degrees {
			p.Notes = append(p.Notes, model.HistoryNote{ScaleDegree: d})
		}
		r.Save(p)
	}
	mk("up", 1, 2, 3, 4)
	mk("up-again", 3, 4, 5, 6)
	mk("leap", 1, 3, 5, 7)
	mk("down", 4, 3, 2, 1)

	items, ok := r.Similar("up", embedding.ContourEmbedder{}, 0)
	if !ok {
		t.Fatal("expected reference pattern found")
	}
	if len(items) != 1 || items[0].ID != "up-again" || items[0].Similarity != 1 {
		t.Errorf("expected only the same contour, got %+v", items)
	}

	items, _ = r.Similar("up", embedding.DegreeEmbedder{}, 2)
	if len(items) != 2 || items[0].ID != "down" {
		t.Errorf("expected same degrees ranked first, got %+v", items)
	}

	if _, ok := r.Similar("missing", embedding.ContourEmbedder{}, 0); ok {
		t.Error("expected false for unknown id")
	}
}

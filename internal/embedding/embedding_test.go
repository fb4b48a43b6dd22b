package embedding

import (
	"math"
	"testing"
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float64
		delta    float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0, 0.001},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0, 0.001},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1.0, 0.001},
		{"similar", Vector{1, 1, 0}, Vector{1, 0, 0}, 0.707, 0.01},
		{"empty", Vector{}, Vector{}, 0.0, 0.001},
		{"different lengths", Vector{1, 0}, Vector{1, 0, 0}, 0.0, 0.001},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 0, 0}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f (±%f)", tt.a, tt.b, got, tt.expected, tt.delta)
			}
		})
	}
}

// phrase builds a pattern from MIDI keys in C major.
func phrase(keys ...int) model.Pattern {
	degrees := map[int]int{0: 1, 2: 2, 4: 3, 5: 4, 7: 5, 9: 6, 11: 7}
	var p model.Pattern
	for _, k := range keys {
		p.Notes = append(p.Notes, model.HistoryNote{
			Frequency:   440 * math.Pow(2, float64(k-69)/12),
			ScaleDegree: degrees[k%12],
		})
	}
	return p
}

func TestContourIsTranspositionInvariant(t *testing.T) {
	var e ContourEmbedder
	c := e.Embed(phrase(60, 64, 67, 72)) // C E G C
	g := e.Embed(phrase(67, 71, 74, 79)) // G B D G
	if len(c) != e.Dims() {
		t.Fatalf("expected %d dims, got %d", e.Dims(), len(c))
	}
	if sim := CosineSimilarity(c, g); math.Abs(sim-1) > 1e-6 {
		t.Errorf("expected identical contours, got %f", sim)
	}
	if c[maxInterval+4] != 1 || c[maxInterval+3] != 1 || c[maxInterval+5] != 1 {
		t.Errorf("unexpected histogram %v", c)
	}

	down := e.Embed(phrase(72, 67, 64, 60))
	if sim := CosineSimilarity(c, down); sim != 0 {
		t.Errorf("expected inverted contour to share nothing, got %f", sim)
	}
}

func TestContourClampsLeaps(t *testing.T) {
	v := ContourEmbedder{}.Embed(phrase(40, 80))
	if v[2*maxInterval] != 1 {
		t.Errorf("expected leap clamped to an octave, got %v", v)
	}
}

func TestDegreeEmbedderWeightsDuration(t *testing.T) {
	p := phrase(60, 62)
	held := time.Second
	p.Notes[1].Duration = &held
	v := DegreeEmbedder{}.Embed(p)
	if v[0] != 1 || v[1] != 2 {
		t.Errorf("unexpected degree weights %v", v)
	}
}

func TestNew(t *testing.T) {
	if e, err := New(""); err != nil || e.Dims() != 25 {
		t.Errorf("expected contour default, got %v %v", e, err)
	}
	if e, err := New("Degrees"); err != nil || e.Dims() != 7 {
		t.Errorf("expected degrees embedder, got %v %v", e, err)
	}
	if _, err := New("audio"); err == nil {
		t.Error("expected error for unknown embedder")
	}
}

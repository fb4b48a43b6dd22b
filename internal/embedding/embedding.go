// Package embedding turns patterns into vectors so similar phrases can be
// found regardless of the key they were played in.
package embedding

import (
	"fmt"
	"math"
	"strings"

	"github.com/rcliao/pattern-memory/internal/model"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder maps a pattern onto a fixed-size vector.
type Embedder interface {
	Embed(p model.Pattern) Vector
	Dims() int
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// --- Contour ---

// maxInterval caps melodic steps at one octave either way.
const maxInterval = 12

// ContourEmbedder is a histogram of the melodic steps between consecutive
// notes, in semitones. Transposed copies of a phrase embed identically.
type ContourEmbedder struct{}

func (ContourEmbedder) Embed(p model.Pattern) Vector {
	v := make(Vector, 2*maxInterval+1)
	for i := 1; i < len(p.Notes); i++ {
		step := semitones(p.Notes[i-1], p.Notes[i])
		if step > maxInterval {
			step = maxInterval
		}
		if step < -maxInterval {
			step = -maxInterval
		}
		v[step+maxInterval]++
	}
	return v
}

func (ContourEmbedder) Dims() int { return 2*maxInterval + 1 }

// semitones uses frequencies when both notes have one and falls back to the
// scale degree difference otherwise.
func semitones(a, b model.HistoryNote) int {
	if a.Frequency > 0 && b.Frequency > 0 {
		return int(math.Round(12 * math.Log2(b.Frequency/a.Frequency)))
	}
	return b.ScaleDegree - a.ScaleDegree
}

// --- Scale degrees ---

// DegreeEmbedder counts scale degrees 1-7, weighted by how long each note
// sounded when that is known.
type DegreeEmbedder struct{}

func (DegreeEmbedder) Embed(p model.Pattern) Vector {
	v := make(Vector, 7)
	for _, n := range p.Notes {
		if n.ScaleDegree < 1 || n.ScaleDegree > 7 {
			continue
		}
		w := float32(1)
		if n.Duration != nil && *n.Duration > 0 {
			w += float32(n.Duration.Seconds())
		}
		v[n.ScaleDegree-1] += w
	}
	return v
}

func (DegreeEmbedder) Dims() int { return 7 }

// --- Factory ---

// Names of the built-in embedders.
const (
	Contour = "contour"
	Degrees = "degrees"
)

// New returns the named embedder. The empty name selects contour.
func New(name string) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Contour:
		return ContourEmbedder{}, nil
	case Degrees, "degree":
		return DegreeEmbedder{}, nil
	default:
		return nil, fmt.Errorf("unknown embedder %q (valid: contour, degrees)", name)
	}
}

// Package theory maps MIDI keys onto the musical context a HistoryNote
// carries: note name, octave, frequency, scale degree and solfège.
package theory

import (
	"fmt"
	"math"
	"strings"

	"github.com/rcliao/pattern-memory/internal/model"
)

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClasses = map[string]int{
	"C": 0, "B#": 0,
	"C#": 1, "DB": 1,
	"D": 2,
	"D#": 3, "EB": 3,
	"E": 4, "FB": 4,
	"F": 5, "E#": 5,
	"F#": 6, "GB": 6,
	"G": 7,
	"G#": 8, "AB": 8,
	"A": 9,
	"A#": 10, "BB": 10,
	"B": 11, "CB": 11,
}

// Mode intervals in semitones from the tonic.
var modes = map[string][7]int{
	"major":      {0, 2, 4, 5, 7, 9, 11},
	"ionian":     {0, 2, 4, 5, 7, 9, 11},
	"dorian":     {0, 2, 3, 5, 7, 9, 10},
	"phrygian":   {0, 1, 3, 5, 7, 8, 10},
	"lydian":     {0, 2, 4, 6, 7, 9, 11},
	"mixolydian": {0, 2, 4, 5, 7, 9, 10},
	"minor":      {0, 2, 3, 5, 7, 8, 10},
	"aeolian":    {0, 2, 3, 5, 7, 8, 10},
	"locrian":    {0, 1, 3, 5, 6, 8, 10},
}

var solfege = [7]model.Solfege{
	{Name: "Do", Emotion: "stable", Description: "home, resolution"},
	{Name: "Re", Emotion: "hopeful", Description: "gentle motion away from home"},
	{Name: "Mi", Emotion: "bright", Description: "calm, sweet"},
	{Name: "Fa", Emotion: "yearning", Description: "leans down toward Mi"},
	{Name: "Sol", Emotion: "strong", Description: "open, bright dominant"},
	{Name: "La", Emotion: "tender", Description: "sad, wistful"},
	{Name: "Ti", Emotion: "tense", Description: "pulls up toward Do"},
}

// PitchClass parses a key name such as "C", "F#" or "Bb".
func PitchClass(name string) (int, error) {
	pc, ok := pitchClasses[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return pc, nil
}

// ValidMode reports whether the mode name is known.
func ValidMode(mode string) bool {
	_, ok := modes[strings.ToLower(mode)]
	return ok
}

// NoteName returns the sharp spelling and octave of a MIDI key, C4 = 60.
func NoteName(key uint8) (string, int) {
	octave := int(key)/12 - 1
	return fmt.Sprintf("%s%d", pitchClassNames[int(key)%12], octave), octave
}

// Frequency returns the equal-tempered frequency of a MIDI key, A4 = 440Hz.
func Frequency(key uint8) float64 {
	return 440 * math.Pow(2, (float64(key)-69)/12)
}

// ScaleDegree returns the 1-based degree of a MIDI key in the given key and
// mode. Chromatic notes take the degree of the diatonic note below them.
func ScaleDegree(key uint8, tonic int, mode string) int {
	steps, ok := modes[strings.ToLower(mode)]
	if !ok {
		steps = modes["major"]
	}
	rel := ((int(key)-tonic)%12 + 12) % 12
	degree := 1
	for i, s := range steps {
		if s <= rel {
			degree = i + 1
		}
	}
	return degree
}

// Solfege returns the syllable for a 1-based scale degree.
func Solfege(degree int) model.Solfege {
	if degree < 1 || degree > 7 {
		return model.Solfege{}
	}
	return solfege[degree-1]
}

// Context is the musical frame notes are interpreted in.
type Context struct {
	Key        string
	Mode       string
	Instrument string
}

// NoteData builds the inbound note context for a MIDI key.
func (c Context) NoteData(key uint8, velocity uint8) (model.NoteData, error) {
	tonic, err := PitchClass(c.Key)
	if err != nil {
		return model.NoteData{}, err
	}
	name, octave := NoteName(key)
	degree := ScaleDegree(key, tonic, c.Mode)
	v := float64(velocity) / 127
	return model.NoteData{
		Note:         name,
		Key:          c.Key,
		Mode:         c.Mode,
		ScaleDegree:  degree,
		Solfege:      Solfege(degree),
		SolfegeIndex: degree - 1,
		Octave:       octave,
		Frequency:    Frequency(key),
		Instrument:   c.Instrument,
		Velocity:     &v,
	}, nil
}

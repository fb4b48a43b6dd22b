// Package midifile replays Standard MIDI Files into a detector.
package midifile

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/theory"
)

// Event is a note start or end at an offset from the start of the file.
type Event struct {
	At       time.Duration
	Channel  uint8
	Key      uint8
	Velocity uint8
	On       bool
}

// AudioNoteID pairs a note start with its end.
func (e Event) AudioNoteID() string {
	return fmt.Sprintf("%d:%d", e.Channel, e.Key)
}

// Read loads the note events of every track in the file.
func Read(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open midi file: %w", err)
	}
	defer f.Close()
	return ReadFrom(f)
}

// ReadFrom loads the note events of every track in an SMF stream.
func ReadFrom(r io.Reader) ([]Event, error) {
	var events []Event
	err := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		if ev, ok := convert(midi.Message(te.Message), te.AbsMicroSeconds); ok {
			events = append(events, ev)
		}
	}).Error()
	if err != nil {
		return nil, fmt.Errorf("read midi stream: %w", err)
	}
	sortEvents(events)
	return events, nil
}

func convert(msg midi.Message, absMicros int64) (Event, bool) {
	var ch, key, vel uint8
	at := time.Duration(absMicros) * time.Microsecond
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{At: at, Channel: ch, Key: key, Velocity: vel, On: true}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{At: at, Channel: ch, Key: key}, true
	default:
		return Event{}, false
	}
}

// sortEvents orders by time; at equal times ends come before starts so a
// repeated key releases the old note before pressing the new one.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].At != events[j].At {
			return events[i].At < events[j].At
		}
		return !events[i].On && events[j].On
	})
}

// Sink receives replayed notes. *service.Detector implements it.
type Sink interface {
	RecordNoteAt(d model.NoteData, at time.Time) model.HistoryNote
	UpdateNoteRelease(id string, at time.Time) bool
	Segment() []model.Pattern
}

// Result summarizes a replay.
type Result struct {
	Notes    int
	Releases int
	Skipped  int
	Patterns []model.Pattern
}

// Replay feeds events into sink as if played from start, interpreting keys
// in the given context. It segments every flushEvery notes so a long file
// does not outrun the history cap, and once more at the end.
func Replay(sink Sink, events []Event, c theory.Context, start time.Time, flushEvery int) (Result, error) {
	var res Result
	for _, ev := range events {
		at := start.Add(ev.At)
		if !ev.On {
			if sink.UpdateNoteRelease(ev.AudioNoteID(), at) {
				res.Releases++
			} else {
				res.Skipped++
			}
			continue
		}
		d, err := c.NoteData(ev.Key, ev.Velocity)
		if err != nil {
			return res, fmt.Errorf("note data: %w", err)
		}
		d.AudioNoteID = ev.AudioNoteID()
		sink.RecordNoteAt(d, at)
		res.Notes++
		if flushEvery > 0 && res.Notes%flushEvery == 0 {
			res.Patterns = append(res.Patterns, sink.Segment()...)
		}
	}
	res.Patterns = append(res.Patterns, sink.Segment()...)
	return res, nil
}

// Package history records the live stream of played notes.
package history

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/pattern-memory/internal/model"
)

// Recorder owns the history buffer. Notes are appended in press order and
// only ever removed in bulk from the front.
//
// Recorder does no locking; callers serialize access.
type Recorder struct {
	notes   []model.HistoryNote
	maxSize int
	entropy *rand.Rand
}

// NewRecorder creates a recorder holding at most maxSize notes.
func NewRecorder(maxSize int) *Recorder {
	return &Recorder{
		maxSize: maxSize,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Recorder) newID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), r.entropy).String()
}

// SetMaxSize changes the cap. It takes effect on the next Record or Trim.
func (r *Recorder) SetMaxSize(n int) {
	r.maxSize = n
}

// Record appends a new note pressed at the given time and returns it.
// The oldest notes are dropped first so the buffer never exceeds the cap,
// whether or not they were ever segmented.
func (r *Recorder) Record(d model.NoteData, at time.Time, sessionID string) model.HistoryNote {
	if n := len(r.notes); n > 0 && at.Before(r.notes[n-1].PressTime) {
		// Press times never go backwards in the buffer.
		at = r.notes[n-1].PressTime
	}
	note := model.NewHistoryNote(r.newID(at), d, at, sessionID)

	r.trimTo(r.maxSize - 1)
	if r.maxSize <= 0 {
		return note
	}
	r.notes = append(r.notes, note)
	return note
}

// Release annotates a note with its release time. The audio note id is
// matched first (newest note wins), then the primary id. Unknown ids and
// notes that were already released are ignored.
func (r *Recorder) Release(id string, at time.Time) bool {
	if id == "" {
		return false
	}
	idx := -1
	for i := len(r.notes) - 1; i >= 0; i-- {
		if r.notes[i].AudioNoteID == id && !r.notes[i].Released() {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i := len(r.notes) - 1; i >= 0; i-- {
			if r.notes[i].ID == id {
				idx = i
				break
			}
		}
	}
	if idx < 0 || r.notes[idx].Released() {
		return false
	}
	r.notes[idx].SetRelease(at)
	return true
}

// Trim drops the oldest notes until the cap holds. Returns how many were
// dropped.
func (r *Recorder) Trim() int {
	return r.trimTo(r.maxSize)
}

func (r *Recorder) trimTo(limit int) int {
	if limit < 0 {
		limit = 0
	}
	excess := len(r.notes) - limit
	if excess <= 0 {
		return 0
	}
	r.notes = append(r.notes[:0:0], r.notes[excess:]...)
	return excess
}

// Len returns the number of retained notes.
func (r *Recorder) Len() int {
	return len(r.notes)
}

// Notes returns a copy of the buffer.
func (r *Recorder) Notes() []model.HistoryNote {
	return append([]model.HistoryNote(nil), r.notes...)
}

// Index returns the position of the note with the given id, or -1.
func (r *Recorder) Index(id string) int {
	for i := range r.notes {
		if r.notes[i].ID == id {
			return i
		}
	}
	return -1
}

// From returns a copy of the buffer starting at index i.
func (r *Recorder) From(i int) []model.HistoryNote {
	if i < 0 {
		i = 0
	}
	if i >= len(r.notes) {
		return nil
	}
	return append([]model.HistoryNote(nil), r.notes[i:]...)
}

// Reset empties the buffer.
func (r *Recorder) Reset() {
	r.notes = nil
}

// Load replaces the buffer, keeping only the newest notes within the cap.
func (r *Recorder) Load(notes []model.HistoryNote) {
	r.notes = append([]model.HistoryNote(nil), notes...)
	r.Trim()
}

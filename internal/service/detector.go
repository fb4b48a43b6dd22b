// Package service wires recording, segmentation, classification and
// retention into one detector, plus a host that persists it.
package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/rcliao/pattern-memory/internal/detect"
	"github.com/rcliao/pattern-memory/internal/embedding"
	"github.com/rcliao/pattern-memory/internal/history"
	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/store"
)

// AutoSaveTag marks patterns saved by the auto-save rule.
const AutoSaveTag = "auto"

// Timer is a pending silence callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithAfterFunc replaces the silence timer factory. A nil factory disables
// the timer; segmentation then only runs on explicit calls.
func WithAfterFunc(f AfterFunc) Option {
	return func(d *Detector) { d.afterFunc = f }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// WithSessionIDs replaces the session id generator.
func WithSessionIDs(f func() string) Option {
	return func(d *Detector) { d.newSessionID = f }
}

// WithOnChange registers a callback run after every mutation, outside the
// detector's lock. Hosts use it to schedule snapshot writes.
func WithOnChange(f func()) Option {
	return func(d *Detector) { d.onChange = f }
}

// Detector turns a stream of note events into stored patterns.
//
// All methods are safe for concurrent use; a single mutex serializes them
// together with the silence timer.
type Detector struct {
	mu sync.Mutex

	cfg       model.DetectionConfig
	history   *history.Recorder
	patterns  *store.Repository
	sessionID string

	// done is the last note of the newest closed group; the notes after it
	// form the open group. livePatternID is the pattern built from the open
	// group, if it was long enough, and liveEnd the last note it covers.
	done          string
	livePatternID string
	liveEnd       string

	timer    Timer
	timerGen uint64
	closed   bool

	now          func() time.Time
	afterFunc    AfterFunc
	newSessionID func() string
	onChange     func()
	entropy      *rand.Rand
	log          logging.Logger
}

// New creates a ready-to-use detector. It starts the first session and runs
// an initial purge.
func New(cfg model.DetectionConfig, opts ...Option) *Detector {
	d := &Detector{
		cfg:          cfg,
		history:      history.NewRecorder(cfg.MaxHistorySize),
		patterns:     store.NewRepository(),
		now:          time.Now,
		afterFunc:    realAfterFunc,
		newSessionID: uuid.NewString,
		entropy:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:          logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.sessionID = d.newSessionID()
	d.purgeLocked()
	return d
}

func (d *Detector) lock() {
	if d.history == nil {
		panic("service: Detector used before New")
	}
	d.mu.Lock()
}

func (d *Detector) notify() {
	d.mu.Lock()
	f := d.onChange
	d.mu.Unlock()
	if f != nil {
		f()
	}
}

// SetOnChange replaces the mutation callback. See WithOnChange.
func (d *Detector) SetOnChange(f func()) {
	d.lock()
	defer d.mu.Unlock()
	d.onChange = f
}

func (d *Detector) newID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), d.entropy).String()
}

// RecordNote records a note pressed now and re-arms the silence timer.
func (d *Detector) RecordNote(data model.NoteData) model.HistoryNote {
	d.lock()
	note := d.recordLocked(data, d.now())
	d.mu.Unlock()
	d.notify()
	return note
}

// RecordNoteAt records a note pressed at a given time, for replaying
// recorded performances.
func (d *Detector) RecordNoteAt(data model.NoteData, at time.Time) model.HistoryNote {
	d.lock()
	note := d.recordLocked(data, at)
	d.mu.Unlock()
	d.notify()
	return note
}

func (d *Detector) recordLocked(data model.NoteData, at time.Time) model.HistoryNote {
	note := d.history.Record(data, at, d.sessionID)
	d.armTimerLocked()
	return note
}

// UpdateNoteRelease annotates a note with its release time. The id may be an
// audio note id or a history note id. Unknown ids are ignored.
func (d *Detector) UpdateNoteRelease(id string, at time.Time) bool {
	d.lock()
	ok := d.history.Release(id, at)
	d.mu.Unlock()
	if ok {
		d.notify()
	}
	return ok
}

func (d *Detector) armTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerGen++
	if d.afterFunc == nil || d.closed {
		return
	}
	gen := d.timerGen
	d.timer = d.afterFunc(d.cfg.SilenceThreshold, func() { d.onSilence(gen) })
}

func (d *Detector) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerGen++
}

func (d *Detector) onSilence(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.timerGen || d.history.Len() == 0 {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	created := d.segmentLocked("silence", false)
	d.mu.Unlock()
	if len(created) > 0 {
		d.notify()
	}
}

// Segment runs segmentation over the unsegmented tail of the history and
// returns the patterns it created.
func (d *Detector) Segment() []model.Pattern {
	d.lock()
	created := d.segmentLocked("flush", false)
	d.mu.Unlock()
	d.notify()
	return created
}

// SegmentIfIdle segments when the silence threshold has already passed since
// the last note ended. Processes without a running timer call it on start.
func (d *Detector) SegmentIfIdle() []model.Pattern {
	d.lock()
	notes := d.history.From(d.history.Len() - 1)
	if len(notes) == 0 || d.now().Sub(notes[0].End()) <= d.cfg.SilenceThreshold {
		d.mu.Unlock()
		return nil
	}
	created := d.segmentLocked("idle", false)
	d.mu.Unlock()
	d.notify()
	return created
}

// segmentLocked splits the open group and everything played after it. The
// first group continues the live pattern; groups other than the last are
// closed. With closeAll the last group is closed too.
func (d *Detector) segmentLocked(trigger string, closeAll bool) []model.Pattern {
	if d.livePatternID != "" && !d.liveOpenLocked() {
		d.closeLiveLocked()
	}
	groups := detect.Split(d.openNotesLocked(), d.cfg)
	if d.livePatternID != "" && (len(groups) == 0 || !d.liveCoversLocked(groups[0])) {
		// The group no longer contains the live pattern, e.g. after a config
		// change. The pattern is kept as it is and the rest is split again.
		d.closeLiveLocked()
		groups = detect.Split(d.openNotesLocked(), d.cfg)
	}
	if len(groups) == 0 {
		return nil
	}

	now := d.now()
	var created []model.Pattern
	live := ""
	for i, g := range groups {
		last := i == len(groups)-1

		var id string
		if i == 0 && d.livePatternID != "" {
			id = d.livePatternID
			d.refreshLocked(id, g)
		} else if len(g) > 0 && len(g) >= d.cfg.MinPatternLength {
			p := detect.Classify(g, d.newID(now), now)
			d.patterns.Save(p)
			created = append(created, p)
			id = p.ID
			d.log.Debug("pattern_created",
				logging.F("id", p.ID),
				logging.F("type", string(p.PatternType)),
				logging.F("notes", p.NoteCount),
				logging.F("complexity", p.ComplexityScore))
		}

		if last && !closeAll {
			live = id
			break
		}
		if id != "" {
			d.autoSaveLocked(id, now)
		}
		d.done = g[len(g)-1].ID
	}

	d.livePatternID, d.liveEnd = live, ""
	if live != "" {
		open := groups[len(groups)-1]
		d.liveEnd = open[len(open)-1].ID
	}
	d.log.Debug("segmented",
		logging.F("trigger", trigger),
		logging.F("groups", len(groups)),
		logging.F("created", len(created)))
	return created
}

func (d *Detector) openNotesLocked() []model.HistoryNote {
	return d.history.From(d.history.Index(d.done) + 1)
}

// liveOpenLocked reports whether the live pattern can still grow: it exists,
// is unsaved and still starts the open group.
func (d *Detector) liveOpenLocked() bool {
	p, ok := d.patterns.Get(d.livePatternID)
	if !ok || p.IsSaved || len(p.Notes) == 0 {
		return false
	}
	first := d.history.Index(p.FirstNoteID())
	return first >= 0 && first == d.history.Index(d.done)+1
}

// liveCoversLocked reports whether g starts with every note of the live
// pattern and is still long enough to be one.
func (d *Detector) liveCoversLocked(g detect.Group) bool {
	p, ok := d.patterns.Get(d.livePatternID)
	if !ok || len(g) < len(p.Notes) || len(g) < d.cfg.MinPatternLength {
		return false
	}
	for i, n := range p.Notes {
		if g[i].ID != n.ID {
			return false
		}
	}
	return true
}

// closeLiveLocked finalizes the live pattern as it is. Segmentation resumes
// after the last note it covered, so its notes never join another pattern.
func (d *Detector) closeLiveLocked() {
	d.autoSaveLocked(d.livePatternID, d.now())
	d.done = d.liveEnd
	d.livePatternID, d.liveEnd = "", ""
}

// refreshLocked rebuilds the live pattern from its grown group.
func (d *Detector) refreshLocked(id string, g detect.Group) {
	old, ok := d.patterns.Get(id)
	if !ok {
		return
	}
	p := detect.Classify(g, id, old.CreatedAt)
	p.LastPlayedAt = old.LastPlayedAt
	p.PlayCount = old.PlayCount
	p.Name = old.Name
	p.Tags = old.Tags
	d.patterns.Save(p)
}

func (d *Detector) autoSaveLocked(id string, at time.Time) {
	if !d.cfg.AutoSaveInterestingPatterns {
		return
	}
	p, ok := d.patterns.Get(id)
	if !ok || p.IsSaved || p.ComplexityScore < d.cfg.AutoSaveComplexityThreshold {
		return
	}
	d.patterns.MarkSaved(id, "", append(p.Tags, AutoSaveTag), at)
	d.log.Info("pattern_auto_saved", logging.F("id", id), logging.F("complexity", p.ComplexityScore))
}

// StartNewSession closes out the current session by segmenting it, then
// switches to a fresh session id.
func (d *Detector) StartNewSession() string {
	d.lock()
	d.segmentLocked("session", true)
	d.stopTimerLocked()
	prev := d.sessionID
	d.sessionID = d.newSessionID()
	d.purgeLocked()
	id := d.sessionID
	d.mu.Unlock()
	d.log.Info("session_started", logging.F("session", id), logging.F("previous", prev))
	d.notify()
	return id
}

// SessionID returns the current session id.
func (d *Detector) SessionID() string {
	d.lock()
	defer d.mu.Unlock()
	return d.sessionID
}

// Purge removes unsaved patterns older than AutoPurgeAge.
func (d *Detector) Purge() int {
	d.lock()
	n := d.purgeLocked()
	d.mu.Unlock()
	if n > 0 {
		d.notify()
	}
	return n
}

func (d *Detector) purgeLocked() int {
	n := d.patterns.Purge(d.now(), d.cfg.AutoPurgeAge)
	if n > 0 {
		d.log.Info("patterns_purged", logging.F("count", n), logging.F("max_age", d.cfg.AutoPurgeAge))
	}
	return n
}

// Config returns the live configuration.
func (d *Detector) Config() model.DetectionConfig {
	d.lock()
	defer d.mu.Unlock()
	return d.cfg
}

// UpdateConfig merges a partial config. It applies to later calls only.
func (d *Detector) UpdateConfig(p model.ConfigPatch) model.DetectionConfig {
	d.lock()
	d.cfg = p.Apply(d.cfg)
	d.history.SetMaxSize(d.cfg.MaxHistorySize)
	d.history.Trim()
	cfg := d.cfg
	d.mu.Unlock()
	d.notify()
	return cfg
}

// ClearAllData drops history and patterns and cancels the silence timer.
func (d *Detector) ClearAllData() {
	d.lock()
	d.stopTimerLocked()
	d.history.Reset()
	d.patterns.Reset()
	d.done, d.livePatternID, d.liveEnd = "", "", ""
	d.mu.Unlock()
	d.log.Info("data_cleared")
	d.notify()
}

// Close stops the silence timer. Later fires are ignored.
func (d *Detector) Close() {
	d.lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopTimerLocked()
}

// History returns a copy of the retained notes.
func (d *Detector) History() []model.HistoryNote {
	d.lock()
	defer d.mu.Unlock()
	return d.history.Notes()
}

// Get returns a pattern by id.
func (d *Detector) Get(id string) (model.Pattern, bool) {
	d.lock()
	defer d.mu.Unlock()
	return d.patterns.Get(id)
}

// List returns patterns matching the filters.
func (d *Detector) List(p store.ListParams) []model.Pattern {
	d.lock()
	defer d.mu.Unlock()
	return d.patterns.List(p)
}

// Delete removes a pattern, saved or not.
func (d *Detector) Delete(id string) bool {
	d.lock()
	ok := d.patterns.Delete(id)
	d.mu.Unlock()
	if ok {
		d.notify()
	}
	return ok
}

// MarkSaved protects a pattern from purge. Returns false if it is gone.
func (d *Detector) MarkSaved(id, name string, tags []string) bool {
	d.lock()
	ok := d.patterns.MarkSaved(id, name, tags, d.now())
	d.mu.Unlock()
	if ok {
		d.notify()
	}
	return ok
}

// MarkPlayed records a playback of a pattern.
func (d *Detector) MarkPlayed(id string) bool {
	d.lock()
	ok := d.patterns.MarkPlayed(id, d.now())
	d.mu.Unlock()
	if ok {
		d.notify()
	}
	return ok
}

// Review ranks unsaved patterns worth keeping.
func (d *Detector) Review(limit int) []store.ReviewItem {
	d.lock()
	defer d.mu.Unlock()
	return d.patterns.Review(store.ReviewParams{Now: d.now(), Limit: limit})
}

// Similar ranks patterns by how closely they resemble the given one.
func (d *Detector) Similar(id string, e embedding.Embedder, limit int) ([]store.SimilarItem, bool) {
	d.lock()
	defer d.mu.Unlock()
	return d.patterns.Similar(id, e, limit)
}

// Stats summarizes patterns and history, including the serialized snapshot
// size.
func (d *Detector) Stats() *store.Stats {
	d.lock()
	defer d.mu.Unlock()
	size := 0
	if b, err := d.exportLocked().Encode(); err == nil {
		size = len(b)
	}
	return d.patterns.Stats(d.history.Len(), size)
}

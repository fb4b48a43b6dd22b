package service

import (
	"strings"
	"testing"
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/store"
)

func TestExportLoadRoundTrip(t *testing.T) {
	h := newTestDetector(t, model.DefaultDetectionConfig())
	for i := 0; i < 3; i++ {
		h.play(100*time.Millisecond, note("C4", 1))
	}
	p := h.det.Segment()[0]
	h.det.MarkSaved(p.ID, "riff", []string{"warmup"})

	b, err := h.det.ExportData().Encode()
	if err != nil {
		t.Fatal(err)
	}
	snap, err := DecodeSnapshot(b)
	if err != nil {
		t.Fatal(err)
	}

	other := newTestDetector(t, model.DefaultDetectionConfig())
	other.clock.now = h.clock.now
	other.det.StartNewSession()
	other.det.LoadData(snap)

	got, ok := other.det.Get(p.ID)
	if !ok || !got.IsSaved || got.Name != "riff" || got.NoteCount != 3 {
		t.Fatalf("pattern not restored: %+v", got)
	}
	if other.det.SessionID() != "session-1" {
		t.Errorf("expected session id restored, got %q", other.det.SessionID())
	}
	if n := len(other.det.History()); n != 3 {
		t.Errorf("expected 3 history notes, got %d", n)
	}

	// Continuing to play extends nothing that is saved and creates no duplicate.
	other.play(100*time.Millisecond, note("D4", 2))
	other.det.Segment()
	if n := len(other.det.List(store.ListParams{})); n != 1 {
		t.Errorf("expected 1 pattern after reload, got %d", n)
	}
}

func TestLoadMissingPatterns(t *testing.T) {
	h := newTestDetector(t, model.DefaultDetectionConfig())
	for i := 0; i < 3; i++ {
		h.play(100*time.Millisecond, note("C4", 1))
	}
	h.det.Segment()

	snap, err := DecodeSnapshot([]byte(`{"history": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.det.LoadData(snap)
	if n := len(h.det.List(store.ListParams{})); n != 0 {
		t.Errorf("expected empty repository, got %d", n)
	}
	if h.det.SessionID() != "session-1" {
		t.Error("expected session id unchanged when absent")
	}
	if h.det.Config() != model.DefaultDetectionConfig() {
		t.Error("expected config unchanged when absent")
	}
}

func TestDecodeSnapshotSkipsMalformedFields(t *testing.T) {
	data := `{"history": "oops", "patterns": [], "session_id": "abc", "config": {"min_pattern_length": 5}}`
	snap, err := DecodeSnapshot([]byte(data))
	if err == nil || !strings.Contains(err.Error(), "history") {
		t.Errorf("expected error naming history, got %v", err)
	}
	if snap.SessionID != "abc" {
		t.Errorf("expected session id kept, got %q", snap.SessionID)
	}
	if snap.Config == nil || snap.Config.MinPatternLength != 5 {
		t.Fatalf("expected config parsed, got %+v", snap.Config)
	}
	if snap.Config.MaxHistorySize != model.DefaultMaxHistorySize {
		t.Error("expected absent config fields to default")
	}

	if _, err := DecodeSnapshot([]byte("not json")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestLoadInfersSegmentStateFromPatterns(t *testing.T) {
	h := newTestDetector(t, model.DefaultDetectionConfig())
	for i := 0; i < 3; i++ {
		h.play(100*time.Millisecond, note("C4", 1))
	}
	p := h.det.Segment()[0]

	snap := h.det.ExportData()
	snap.SegmentedThrough, snap.LivePatternID, snap.LiveEnd = "", "", ""
	h.det.LoadData(snap)

	h.play(100*time.Millisecond, note("C4", 1))
	if created := h.det.Segment(); len(created) != 0 {
		t.Errorf("expected the restored pattern to keep growing, got %d new", len(created))
	}
	got, _ := h.det.Get(p.ID)
	if got.NoteCount != 4 {
		t.Errorf("expected 4 notes, got %d", got.NoteCount)
	}
}

func TestLoadPurgesExpired(t *testing.T) {
	cfg := model.DefaultDetectionConfig()
	h := newTestDetector(t, cfg)
	for i := 0; i < 3; i++ {
		h.play(100*time.Millisecond, note("C4", 1))
	}
	h.det.Segment()
	snap := h.det.ExportData()

	h.clock.Advance(cfg.AutoPurgeAge + time.Second)
	h.det.LoadData(snap)
	if n := len(h.det.List(store.ListParams{})); n != 0 {
		t.Errorf("expected expired pattern purged on load, got %d", n)
	}
}

func TestLoadMergesPartialConfig(t *testing.T) {
	h := newTestDetector(t, model.DefaultDetectionConfig())
	four := 4
	h.det.UpdateConfig(model.ConfigPatch{MinPatternLength: &four})

	snap, err := DecodeSnapshot([]byte(`{"config": {"max_pattern_length": 8}}`))
	if err != nil {
		t.Fatal(err)
	}
	h.det.LoadData(snap)
	cfg := h.det.Config()
	if cfg.MaxPatternLength != 8 {
		t.Errorf("expected named field applied, got %d", cfg.MaxPatternLength)
	}
	if cfg.MinPatternLength != 4 {
		t.Errorf("expected unnamed field kept, got %d", cfg.MinPatternLength)
	}
}

func TestLoadDropsPatternsBelowMinimum(t *testing.T) {
	cfg := model.DefaultDetectionConfig()
	cfg.MinPatternLength = 2
	h := newTestDetector(t, cfg)
	h.play(0, note("C4", 1))
	h.play(100*time.Millisecond, note("D4", 2))
	h.det.Segment()
	h.play(5*time.Second, note("C4", 1))
	for i := 0; i < 2; i++ {
		h.play(100*time.Millisecond, note("E4", 3))
	}
	h.det.Segment()

	snap := h.det.ExportData()
	strict := model.DefaultDetectionConfig()
	snap.Config = &strict

	other := newTestDetector(t, model.DefaultDetectionConfig())
	other.clock.now = h.clock.now
	other.det.LoadData(snap)
	all := other.det.List(store.ListParams{})
	if len(all) != 1 || all[0].NoteCount != 3 {
		t.Fatalf("expected only the 3-note pattern kept, got %+v", all)
	}

	// The dropped pattern's notes are not segmented again.
	if created := other.det.Segment(); len(created) != 0 {
		t.Errorf("expected nothing new, got %+v", created)
	}
}

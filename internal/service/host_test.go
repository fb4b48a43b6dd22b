package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/persist"
	"github.com/rcliao/pattern-memory/internal/store"
)

func openTestHost(t *testing.T, path string, c *clock, ts *timers) *Host {
	t.Helper()
	kv, err := persist.Open(persist.BackendBolt, path)
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	h, err := OpenHost(context.Background(), kv, nil, WithClock(c.Now), WithAfterFunc(ts.after))
	if err != nil {
		t.Fatalf("open host: %v", err)
	}
	return h
}

func TestHostPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "patterns.db")
	c := &clock{now: t0}

	h := openTestHost(t, path, c, &timers{})
	det := h.Detector()
	for i := 0; i < 3; i++ {
		c.Advance(100 * time.Millisecond)
		det.RecordNote(note("C4", 1))
	}
	p := det.Segment()[0]
	session := det.SessionID()
	if err := h.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	h = openTestHost(t, path, c, &timers{})
	defer h.Close(ctx)
	if _, ok := h.Detector().Get(p.ID); !ok {
		t.Fatal("expected pattern restored from storage")
	}
	if h.Detector().SessionID() != session {
		t.Error("expected session restored")
	}
}

func TestHostAutosaveAfterSilence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "patterns.db")
	c := &clock{now: t0}
	ts := &timers{}

	h := openTestHost(t, path, c, ts)
	h.StartAutosave(8)
	det := h.Detector()
	for i := 0; i < 3; i++ {
		c.Advance(100 * time.Millisecond)
		det.RecordNote(note("C4", 1))
	}
	c.Advance(3 * time.Second)
	ts.last().f()
	if err := h.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	h = openTestHost(t, path, c, &timers{})
	defer h.Close(ctx)
	if n := len(h.Detector().List(store.ListParams{})); n != 1 {
		t.Errorf("expected the silence-detected pattern persisted, got %d", n)
	}
}

func TestHostLoadsPartialSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "patterns.db")
	kv, err := persist.Open(persist.BackendBolt, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Put(ctx, persist.SnapshotKey, []byte(`{"history": 42, "session_id": "kept"}`)); err != nil {
		t.Fatal(err)
	}
	h, err := OpenHost(ctx, kv, nil)
	if err != nil {
		t.Fatalf("expected partial snapshot to load, got %v", err)
	}
	defer h.Close(ctx)
	if h.Detector().SessionID() != "kept" {
		t.Errorf("expected session from snapshot, got %q", h.Detector().SessionID())
	}
	if h.Detector().Config() != model.DefaultDetectionConfig() {
		t.Error("expected default config")
	}
}

func TestRunRetentionStopsOnCancel(t *testing.T) {
	c := &clock{now: t0}
	h := openTestHost(t, filepath.Join(t.TempDir(), "patterns.db"), c, &timers{})
	defer h.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.RunRetention(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention loop did not stop")
	}
}

func TestHostDiscardDeletesSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "patterns.db")
	c := &clock{now: t0}

	h := openTestHost(t, path, c, &timers{})
	for i := 0; i < 3; i++ {
		c.Advance(100 * time.Millisecond)
		h.Detector().RecordNote(note("C4", 1))
	}
	h.Detector().Segment()
	seven := 7
	h.Detector().UpdateConfig(model.ConfigPatch{MinPatternLength: &seven})
	if err := h.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.Discard(ctx); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if err := h.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	h = openTestHost(t, path, c, &timers{})
	defer h.Close(ctx)
	if n := len(h.Detector().List(store.ListParams{})); n != 0 {
		t.Errorf("expected no patterns after discard, got %d", n)
	}
	if h.Detector().Config() != model.DefaultDetectionConfig() {
		t.Error("expected stored settings forgotten")
	}
}

func TestHostRevisionCountsWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := persist.Open(persist.BackendSQLite, filepath.Join(dir, "patterns.db"))
	if err != nil {
		t.Fatal(err)
	}
	h, err := OpenHost(ctx, kv, nil, WithAfterFunc(nil))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(ctx)
	if n, ok := h.Revision(ctx); !ok || n != 0 {
		t.Fatalf("expected revision 0 before any write, got %d %t", n, ok)
	}
	for i := 0; i < 2; i++ {
		if err := h.Save(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := h.Revision(ctx); n != 2 {
		t.Errorf("expected revision 2, got %d", n)
	}

	bolt := openTestHost(t, filepath.Join(dir, "bolt.db"), &clock{now: t0}, &timers{})
	defer bolt.Close(ctx)
	if _, ok := bolt.Revision(ctx); ok {
		t.Error("bolt backend does not count writes")
	}
}

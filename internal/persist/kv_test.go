package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()
	out := map[string]KV{}
	for _, name := range []string{BackendSQLite, BackendBolt} {
		kv, err := Open(name, filepath.Join(dir, name, "test.db"))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		t.Cleanup(func() { kv.Close() })
		out[name] = kv
	}
	return out
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := kv.Put(ctx, SnapshotKey, []byte(`{"v":1}`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := kv.Put(ctx, SnapshotKey, []byte(`{"v":2}`)); err != nil {
				t.Fatalf("put again: %v", err)
			}
			got, ok, err := kv.Get(ctx, SnapshotKey)
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if string(got) != `{"v":2}` {
				t.Errorf("expected latest value, got %s", got)
			}

			if err := kv.Delete(ctx, SnapshotKey); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, SnapshotKey); ok {
				t.Error("expected key gone after delete")
			}
			if err := kv.Delete(ctx, SnapshotKey); err != nil {
				t.Errorf("deleting a missing key should not fail: %v", err)
			}
		})
	}
}

func TestSQLiteVersion(t *testing.T) {
	ctx := context.Background()
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "v.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	if v, _ := kv.Version(ctx, "k"); v != 0 {
		t.Errorf("expected version 0, got %d", v)
	}
	kv.Put(ctx, "k", []byte("a"))
	kv.Put(ctx, "k", []byte("b"))
	if v, _ := kv.Version(ctx, "k"); v != 2 {
		t.Errorf("expected version 2, got %d", v)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	kv, err := NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	kv.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestBoltClosed(t *testing.T) {
	kv, err := NewBoltKV(filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatal(err)
	}
	kv.Close()
	if err := kv.Put(context.Background(), "k", []byte("v")); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestWriterFlushesOnStop(t *testing.T) {
	ctx := context.Background()
	kv, err := NewBoltKV(filepath.Join(t.TempDir(), "w.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	w := NewWriter(kv, 8, nil)
	w.Start()
	for i := 0; i < 3; i++ {
		w.Submit(Job{Key: SnapshotKey, Value: []byte{byte('a' + i)}})
	}
	w.Stop()

	got, ok, _ := kv.Get(ctx, SnapshotKey)
	if !ok || string(got) != "c" {
		t.Errorf("expected last submitted value, got %q", got)
	}
	if w.Submit(Job{Key: SnapshotKey, Value: []byte("late")}) {
		t.Error("submit after stop should be refused")
	}
	written, _ := w.Counts()
	if written != 3 {
		t.Errorf("expected 3 writes, got %d", written)
	}
}

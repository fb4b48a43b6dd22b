package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/persist"
)

// Host owns a detector and the backend its snapshot lives in.
type Host struct {
	det    *Detector
	kv     persist.KV
	writer *persist.Writer
	log    logging.Logger

	// discarded skips the final save on Close.
	discarded bool
}

// OpenHost restores a detector from kv, or starts empty when no snapshot is
// stored. A snapshot with malformed fields is loaded as far as it parses.
func OpenHost(ctx context.Context, kv persist.KV, log logging.Logger, opts ...Option) (*Host, error) {
	if log == nil {
		log = logging.Nop()
	}
	opts = append([]Option{WithLogger(log)}, opts...)
	h := &Host{
		det: New(model.DefaultDetectionConfig(), opts...),
		kv:  kv,
		log: log,
	}

	data, ok, err := kv.Get(ctx, persist.SnapshotKey)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return h, nil
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		log.Warn("snapshot_partial", logging.F("error", err))
	}
	h.det.LoadData(snap)
	return h, nil
}

// Detector returns the hosted detector.
func (h *Host) Detector() *Detector {
	return h.det
}

// Save writes the current snapshot synchronously.
func (h *Host) Save(ctx context.Context) error {
	b, err := h.det.ExportData().Encode()
	if err != nil {
		return err
	}
	if err := h.kv.Put(ctx, persist.SnapshotKey, b); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Revision reports how many times the snapshot has been written, when the
// backend keeps count.
func (h *Host) Revision(ctx context.Context) (int, bool) {
	v, ok := h.kv.(interface {
		Version(ctx context.Context, key string) (int, error)
	})
	if !ok {
		return 0, false
	}
	n, err := v.Version(ctx, persist.SnapshotKey)
	if err != nil {
		h.log.Warn("snapshot_revision_failed", logging.F("error", err))
		return 0, false
	}
	return n, true
}

// Discard clears the detector and deletes the stored snapshot, settings
// included. Nothing is written back on Close.
func (h *Host) Discard(ctx context.Context) error {
	if h.writer != nil {
		h.det.SetOnChange(nil)
		h.writer.Stop()
		h.writer = nil
	}
	h.det.ClearAllData()
	if err := h.kv.Delete(ctx, persist.SnapshotKey); err != nil {
		return fmt.Errorf("discard snapshot: %w", err)
	}
	h.discarded = true
	h.log.Info("snapshot_discarded")
	return nil
}

// StartAutosave writes a snapshot in the background after every mutation,
// including segmentation driven by the silence timer.
func (h *Host) StartAutosave(queueSize int) {
	if h.writer != nil {
		return
	}
	h.writer = persist.NewWriter(h.kv, queueSize, h.log)
	h.writer.Start()
	h.det.SetOnChange(h.submit)
}

func (h *Host) submit() {
	b, err := h.det.ExportData().Encode()
	if err != nil {
		h.log.Error("snapshot_encode_failed", logging.F("error", err))
		return
	}
	h.writer.Submit(persist.Job{Key: persist.SnapshotKey, Value: b})
}

// RunRetention purges expired patterns every interval until ctx is done.
func (h *Host) RunRetention(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.det.Purge()
		}
	}
}

// Close stops the detector, flushes pending writes, stores a final snapshot
// and closes the backend.
func (h *Host) Close(ctx context.Context) error {
	h.det.Close()
	if h.writer != nil {
		h.det.SetOnChange(nil)
		h.writer.Stop()
		written, dropped := h.writer.Counts()
		h.log.Debug("autosave_stopped", logging.F("written", written), logging.F("dropped", dropped))
	}
	var saveErr error
	if !h.discarded {
		saveErr = h.Save(ctx)
	}
	if err := h.kv.Close(); err != nil && saveErr == nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return saveErr
}

package persist

import (
	"context"
	"sync"

	"github.com/rcliao/pattern-memory/internal/logging"
)

// Job is a pending write of one value.
type Job struct {
	Key   string
	Value []byte
}

// Writer moves snapshot writes off the caller's path. Jobs are processed in
// order by a single worker so the last submitted value wins.
type Writer struct {
	kv   KV
	log  logging.Logger
	jobs chan Job
	wg   sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	written int
	dropped int
}

// NewWriter creates a writer with the given queue size.
func NewWriter(kv KV, queueSize int, log logging.Logger) *Writer {
	if queueSize < 1 {
		queueSize = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Writer{kv: kv, log: log, jobs: make(chan Job, queueSize)}
}

// Start launches the worker goroutine.
func (w *Writer) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for job := range w.jobs {
			w.process(job)
		}
	}()
}

// Stop drains the queue and waits for pending writes.
func (w *Writer) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}

// Submit queues a write without blocking. It returns false when the queue is
// full or the writer is stopped; the caller's next submit carries newer state.
func (w *Writer) Submit(job Job) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	select {
	case w.jobs <- job:
		return true
	default:
		w.dropped++
		w.log.Warn("snapshot_write_dropped", logging.F("key", job.Key), logging.F("bytes", len(job.Value)))
		return false
	}
}

// Counts returns how many writes succeeded and how many were dropped.
func (w *Writer) Counts() (written, dropped int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written, w.dropped
}

func (w *Writer) process(job Job) {
	if err := w.kv.Put(context.Background(), job.Key, job.Value); err != nil {
		w.log.Error("snapshot_write_failed", logging.F("key", job.Key), logging.F("error", err))
		return
	}
	w.mu.Lock()
	w.written++
	w.mu.Unlock()
	w.log.Debug("snapshot_written", logging.F("key", job.Key), logging.F("bytes", len(job.Value)))
}

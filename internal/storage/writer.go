package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/varoOP/animetrack/internal/domain"
)

// Writer persists snapshots of one storage key in the background. Only the
// latest enqueued snapshot matters, so older pending snapshots are replaced
// instead of written. Failed writes are logged and dropped; the next
// successful write brings storage back in line with memory.
type Writer struct {
	log     zerolog.Logger
	store   domain.BlobStore
	key     string
	timeout time.Duration

	mu       sync.Mutex
	pending  []byte
	enqueued uint64
	written  uint64
	closed   bool
	stopped  bool
	progress chan struct{}

	wake chan struct{}
	done chan struct{}
}

// NewWriter starts a writer for key. Close must be called to stop it.
func NewWriter(log zerolog.Logger, store domain.BlobStore, key string) *Writer {
	w := &Writer{
		log:      log.With().Str("module", "storage").Str("key", key).Logger(),
		store:    store,
		key:      key,
		timeout:  10 * time.Second,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	go w.run()
	return w
}

// Enqueue schedules blob to be written. It never blocks on storage.
func (w *Writer) Enqueue(blob []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.log.Warn().Msg("write after close dropped")
		return
	}
	w.pending = blob
	w.enqueued++

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every snapshot enqueued so far has been handled.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.enqueued
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.written >= target || w.stopped {
			w.mu.Unlock()
			return nil
		}
		progress := w.progress
		w.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes pending snapshots and stops the writer
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush(ctx)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return err
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()

	<-w.done
	return err
}

func (w *Writer) run() {
	defer close(w.done)

	for range w.wake {
		w.mu.Lock()
		blob := w.pending
		target := w.enqueued
		w.pending = nil
		w.mu.Unlock()

		if blob != nil {
			w.write(blob)
		}

		w.mu.Lock()
		if target > w.written {
			w.written = target
		}
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.stopped = true
	close(w.progress)
	w.mu.Unlock()
}

func (w *Writer) write(blob []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.store.Put(ctx, w.key, blob); err != nil {
		w.log.Warn().Err(err).Msg("failed to persist snapshot")
		return
	}
	w.log.Trace().Int("bytes", len(blob)).Msg("snapshot persisted")
}

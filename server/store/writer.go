package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sasha-s/go-deadlock"
)

var (
	ErrWriterNotStarted = errors.New("writer: not started")
	ErrWriterStopped    = errors.New("writer: stopped")
)

const defaultSaveTimeout = 5 * time.Second

// Writer saves snapshots of one room on its own goroutine. Submissions made
// while a save is running collapse into one, and only the latest is written.
type Writer struct {
	store       Store
	room        string
	saveTimeout time.Duration

	mu      deadlock.Mutex
	pending *Snapshot

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	started atomic.Bool
	stopped atomic.Bool
}

func NewWriter(store Store, room string) (*Writer, error) {
	if store == nil {
		return nil, errors.New("writer: store is required")
	}
	return &Writer{
		store:       store,
		room:        room,
		saveTimeout: defaultSaveTimeout,
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start launches the save loop. It must be called once.
func (w *Writer) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("writer: start called multiple times")
	}
	go w.run(ctx)
	return nil
}

func (w *Writer) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return
		case <-w.stop:
			w.flush(ctx)
			return
		case <-w.wake:
			w.flush(ctx)
		}
	}
}

func (w *Writer) flush(ctx context.Context) {
	w.mu.Lock()
	snap := w.pending
	w.pending = nil
	w.mu.Unlock()
	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()
	if err := w.store.Save(ctx, w.room, *snap); err != nil {
		slog.ErrorContext(ctx, "store: snapshot save failed", "room", w.room, "err", err)
	}
}

// Submit replaces any snapshot still waiting to be written. It never blocks.
func (w *Writer) Submit(snap Snapshot) error {
	if !w.started.Load() {
		return ErrWriterNotStarted
	}
	if w.stopped.Load() {
		return ErrWriterStopped
	}
	w.mu.Lock()
	w.pending = &snap
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Stop writes the last pending snapshot and waits for the loop to exit.
func (w *Writer) Stop(ctx context.Context) error {
	if !w.stopped.CompareAndSwap(false, true) {
		return errors.New("writer: stop called multiple times")
	}
	if !w.started.Load() {
		return nil
	}
	close(w.stop)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

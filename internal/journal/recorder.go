package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/ripple/internal/model"
)

// ErrRecorderClosed is returned by Run after Close.
var ErrRecorderClosed = errors.New("journal: recorder closed")

// Recorder journals every reducer dispatch of the managers it is plugged
// into. Observers only enqueue; a single goroutine running Run writes.
type Recorder struct {
	journal *Journal
	session string
	logger  *slog.Logger
	queue   *entryQueue

	mu      sync.Mutex // guards running, stopped
	running bool
	stopped bool
	done    chan struct{}

	written atomic.Int64
	failed  atomic.Int64
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSession records under a fixed session id.
func WithSession(id string) RecorderOption {
	return func(r *Recorder) { r.session = id }
}

// WithSessionGenerator names the session with gen. The default is a UUIDv7.
func WithSessionGenerator(gen SessionGenerator) RecorderOption {
	return func(r *Recorder) { r.session = gen.Generate() }
}

// WithLogger sets the logger for write failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder creates a recorder writing into j.
func NewRecorder(j *Journal, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		journal: j,
		logger:  slog.Default(),
		queue:   newEntryQueue(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.session == "" {
		r.session = UUIDv7Generator{}.Generate()
	}
	return r
}

// Session returns the session id entries are recorded under.
func (r *Recorder) Session() string { return r.session }

// Written returns how many entries reached the database.
func (r *Recorder) Written() int64 { return r.written.Load() }

// Failed returns how many entries could not be journaled.
func (r *Recorder) Failed() int64 { return r.failed.Load() }

// Plugin returns a factory for model.WithPlugins.
func (r *Recorder) Plugin() model.PluginFactory {
	return func() model.Plugin {
		return model.PluginFunc(r.attach)
	}
}

// attach observes h and keeps it undecorated.
func (r *Recorder) attach(h model.Handle) model.Handle {
	h.OnAction(func(ctx context.Context, d model.Descriptor) {
		e, err := EntryFor(r.session, d, h.RawState())
		if err != nil {
			r.failed.Add(1)
			r.logger.Error("journal entry failed",
				"event", "journal_entry_failed",
				"model", d.Model,
				"action", d.Type,
				"seq", d.Seq,
				"error", err,
			)
			return
		}
		if !r.queue.Enqueue(e) {
			r.failed.Add(1)
			r.logger.Warn("journal closed, entry dropped",
				"model", d.Model,
				"action", d.Type,
				"seq", d.Seq,
			)
		}
	})
	return nil
}

// Run writes queued entries until ctx is cancelled or Close is called.
// It must be called from exactly one goroutine. Write failures are logged
// and counted, and the loop keeps going. Run returns ErrRecorderClosed
// without writing if Close came first.
func (r *Recorder) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("recorder already running")
	}
	if r.stopped {
		r.mu.Unlock()
		return ErrRecorderClosed
	}
	r.running = true
	r.mu.Unlock()
	defer close(r.done)

	r.logger.Debug("journal recorder starting", "session", r.session)
	for {
		if e, ok := r.queue.TryDequeue(); ok {
			r.write(ctx, e)
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Debug("journal recorder stopping: context cancelled")
			r.queue.Close()
			return ctx.Err()
		case <-r.queue.Wait():
			if r.queue.Len() == 0 && r.closed() {
				r.logger.Debug("journal recorder stopping: queue closed")
				return nil
			}
		}
	}
}

// Close stops accepting entries and waits until everything queued has
// been written. Without a running Run loop it drains inline, and a later
// Run does not start.
func (r *Recorder) Close() error {
	r.queue.Close()

	r.mu.Lock()
	r.stopped = true
	running := r.running
	r.mu.Unlock()
	if running {
		<-r.done
	}

	before := r.failed.Load()
	for {
		e, ok := r.queue.TryDequeue()
		if !ok {
			break
		}
		r.write(context.Background(), e)
	}
	if n := r.failed.Load() - before; n > 0 {
		return errors.New("journal: entries failed to write while closing")
	}
	return nil
}

func (r *Recorder) closed() bool {
	r.queue.mu.Lock()
	defer r.queue.mu.Unlock()
	return r.queue.closed
}

func (r *Recorder) write(ctx context.Context, e Entry) {
	if err := r.journal.Record(ctx, e); err != nil {
		r.failed.Add(1)
		r.logger.Error("journal write failed",
			"event", "journal_write_failed",
			"session", e.Session,
			"model", e.Model,
			"action", e.Type,
			"seq", e.Seq,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}

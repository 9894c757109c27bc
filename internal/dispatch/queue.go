package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Loop.Do when the loop stopped before running the work.
var ErrClosed = errors.New("dispatch: loop closed")

// Queue accepts work for the control thread.
// Post must never block and must be safe to call from any goroutine,
// including the control thread itself.
type Queue interface {
	Post(fn func())
}

// Loop is a goroutine-backed serial executor.
// Functions posted to a Loop run one at a time in FIFO order on the
// goroutine that called Run.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger used for lifecycle messages.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a Loop. Call Run (usually in its own goroutine) to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post enqueues fn. Work posted after Close is dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains posted work until ctx is cancelled or Close is called.
// It returns ctx.Err() on cancellation and nil after Close.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.logger.Debug("control loop started")

	for {
		for _, fn := range l.take() {
			fn()
		}

		select {
		case <-ctx.Done():
			l.shutdown()
			l.logger.Debug("control loop cancelled")
			return ctx.Err()
		case <-l.stop:
			l.logger.Debug("control loop closed")
			return nil
		case <-l.wake:
		}
	}
}

// Do runs fn on the loop and waits until it has returned.
// It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop after the batch currently running. Pending work is dropped.
// It is safe to call Close more than once.
func (l *Loop) Close() {
	if l.shutdown() {
		close(l.stop)
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) shutdown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.closed = true
	l.pending = nil
	return true
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

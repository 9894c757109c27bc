package dispatch

import (
	"context"
	"sync"
)

// Manual is a Queue drained by its owner.
// Posted work is held until RunPending is called on the control thread.
type Manual struct {
	mu      sync.Mutex
	pending []func()
	signal  chan struct{}
	notify  func()
}

// ManualOption configures a Manual queue.
type ManualOption func(*Manual)

// WithNotify registers fn to be called after every Post, outside the queue lock.
// Event loops use it to wake themselves up, e.g. by sending a message.
func WithNotify(fn func()) ManualOption {
	return func(m *Manual) {
		m.notify = fn
	}
}

// NewManual creates an empty Manual queue.
func NewManual(opts ...ManualOption) *Manual {
	m := &Manual{signal: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Post enqueues fn.
func (m *Manual) Post(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	notify := m.notify
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	if notify != nil {
		notify()
	}
}

// Len reports how many functions are waiting.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// RunPending runs queued work until the queue is empty, including work
// posted by the functions it runs. It returns the number of functions run.
func (m *Manual) RunPending() int {
	n := 0
	for {
		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		m.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// RunUntil drains the queue as work arrives until cond reports true or ctx ends.
// cond is evaluated on the calling goroutine after every drain.
func (m *Manual) RunUntil(ctx context.Context, cond func() bool) error {
	for {
		m.RunPending()
		if cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.signal:
		}
	}
}

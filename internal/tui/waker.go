package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// drainMsg asks Update to run the work posted to the control queue.
type drainMsg struct{}

// Waker turns control queue posts into drain messages. Posts between two
// drains share one message.
type Waker struct {
	send    atomic.Pointer[func(tea.Msg)]
	pending atomic.Bool
}

// NewWaker returns a Waker that drops notifications until Attach is called.
func NewWaker() *Waker {
	return &Waker{}
}

// Attach delivers future notifications to p.
func (w *Waker) Attach(p *tea.Program) {
	send := p.Send
	w.send.Store(&send)
}

// Notify schedules a drain message. It may be called from any goroutine,
// including bubbletea's event loop; the message is sent asynchronously.
func (w *Waker) Notify() {
	send := w.send.Load()
	if send == nil {
		return
	}
	if !w.pending.CompareAndSwap(false, true) {
		return
	}
	go (*send)(drainMsg{})
}

// drained re-arms Notify. Call it before draining the queue.
func (w *Waker) drained() {
	w.pending.Store(false)
}

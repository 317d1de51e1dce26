package executor

import "sync"

// Waker is the composable wake primitive handed out by BlockAgent.
// Any signal — a timer firing, a subtask finishing, an external nudge —
// calls Wake; the executor checks Signaled on its next scheduling pass to
// decide whether a blocked task has become eligible again.
type Waker struct {
	mu       sync.Mutex
	signaled bool
}

// NewWaker returns an unsignaled waker.
func NewWaker() *Waker { return &Waker{} }

// Wake marks the waker signaled. Idempotent and safe to call more than
// once before the executor observes it.
func (w *Waker) Wake() {
	w.mu.Lock()
	w.signaled = true
	w.mu.Unlock()
}

// Signaled reports whether Wake has been called since the last Reset.
func (w *Waker) Signaled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signaled
}

// Reset clears the signaled flag, ready for the next block.
func (w *Waker) Reset() {
	w.mu.Lock()
	w.signaled = false
	w.mu.Unlock()
}

package executor

// Tidier is a lazy-computation fragment attached to an Agent via
// make_tidier. Tidiers are driven to completion even when the task's
// main computation was cancelled, and run in LIFO registration order once
// the task starts finishing (§4.1.2 step 5).
type Tidier struct {
	future Future
	done   bool
	err    error
	waiter chan struct{} // never created or closed; TidierHandle.Done reports completion
}

// TidierHandle lets a caller await a single tidier's completion directly,
// in addition to it running automatically during task termination.
type TidierHandle struct {
	t *Tidier
}

// Done reports whether this tidier has finished.
func (h TidierHandle) Done() bool { return h.t.done }

// Err returns the tidier's failure, if it failed.
func (h TidierHandle) Err() error { return h.t.err }

// tidierStack runs tidiers in LIFO order, same shape as barn's call stack
// (task/task.go PushFrame/PopFrame) but for finalizers instead of verb
// activations.
type tidierStack struct {
	items []*Tidier
}

func (s *tidierStack) push(t *Tidier) { s.items = append(s.items, t) }

// top returns the not-yet-done tidier nearest the top of the stack, or
// nil if every registered tidier has completed.
func (s *tidierStack) top() *Tidier {
	for i := len(s.items) - 1; i >= 0; i-- {
		if !s.items[i].done {
			return s.items[i]
		}
	}
	return nil
}

// allDone reports whether every registered tidier has completed.
func (s *tidierStack) allDone() bool {
	return s.top() == nil
}

// firstErr returns the first tidier failure in LIFO (execution) order,
// matching §4.1.5: "all failures are collected and the first becomes the
// visible cause" — first here means first to run, i.e. last registered.
func (s *tidierStack) firstErr() error {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].err != nil {
			return s.items[i].err
		}
	}
	return nil
}

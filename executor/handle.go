package executor

import (
	"fmt"
	"sync"
)

// taskShared is the refcounted state a TaskHandle wraps. It outlives
// individual TaskHandle clones; the last reference to go away lets it be
// collected normally.
type taskShared struct {
	id     int64
	agent  *Agent
	future Future

	mu            sync.Mutex
	state         TaskState
	result        interface{}
	resultTaken   bool
	reason        KillReason
	finished      bool // the one-shot finished signal
	waiters       []chan struct{}
	naturalResult interface{} // value produced by the main Future, pending tidier drain
}

func newTaskShared(id int64, agent *Agent, future Future) *taskShared {
	return &taskShared{id: id, agent: agent, future: future, state: Ongoing}
}

// fulfill transitions the task to its terminal state exactly once and
// wakes every observer registered via Await.
func (s *taskShared) fulfill(state TaskState, result interface{}, reason KillReason) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.state = state
	s.result = result
	s.reason = reason
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

// TaskHandle is the externally-visible, clone-cheap handle for a
// submitted task (§3.1). Every clone shares the same underlying state, so
// cloning is just copying a pointer.
type TaskHandle struct {
	shared *taskShared
}

// Clone returns a cheap copy sharing the same underlying task state.
func (h TaskHandle) Clone() TaskHandle { return TaskHandle{shared: h.shared} }

// ID returns the identity the executor assigned to this task.
func (h TaskHandle) ID() int64 { return h.shared.id }

// Agent returns the task's control object.
func (h TaskHandle) Agent() *Agent { return h.shared.agent }

// TaskState returns the task's current lifecycle state.
func (h TaskHandle) TaskState() TaskState {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	return h.shared.state
}

// KillReason returns the reason a Killed task ended, if any.
func (h TaskHandle) KillReason() (KillReason, bool) {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	if h.shared.state != Killed {
		return KillReason{}, false
	}
	return h.shared.reason, true
}

// TakeResult returns the task's final value the first time it is called
// after the task is Done, and (nil, false) thereafter — matching the
// "subsequent calls return None" behavior in §8 scenario S1. It does not
// apply to a Killed task.
func (h TaskHandle) TakeResult() (interface{}, bool) {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	if h.shared.state != Done || h.shared.resultTaken {
		return nil, false
	}
	h.shared.resultTaken = true
	return h.shared.result, true
}

// Await registers a channel that is closed once the finished signal
// fires. If the task has already finished, the returned channel is
// already closed.
func (h TaskHandle) Await() <-chan struct{} {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	ch := make(chan struct{})
	if h.shared.finished {
		close(ch)
		return ch
	}
	h.shared.waiters = append(h.shared.waiters, ch)
	return ch
}

// Kill requests external cancellation, equivalent to the task calling
// Finish(reason, external=true) on itself.
func (h TaskHandle) Kill(reason KillReason) {
	h.shared.agent.Finish.Finish(&reason, true)
}

func (h TaskHandle) String() string {
	return fmt.Sprintf("task#%d(%s)", h.shared.id, h.shared.agent.Name.GetName())
}

package executor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Agent is the per-task control object a task's Future uses to sleep on
// timers/ticks, create subtasks, and register finalizers. It bundles four
// cooperating sub-objects (§3.1): NameAgent, BlockAgent, RunAgent, and
// FinishAgent. An Agent's lifetime equals its task's lifetime and it is
// shared by reference between the task's Future and its external
// TaskHandle.
//
// Go's tracing garbage collector reclaims the Agent<->TaskHandle cycle on
// its own (§9 calls out the cycle as something a refcounted
// implementation must break with weak references; a GC'd one doesn't
// need to), so there is no weak-reference plumbing here — ordinary
// pointers both ways are fine.
type Agent struct {
	id  int64
	exe *Executor

	Name   *NameAgent
	Block  *BlockAgent
	Run    *RunAgent
	Finish *FinishAgent
}

func newAgent(exe *Executor, id int64, rc RunConfig, name string) *Agent {
	if name == "" {
		name = "task-" + uuid.NewString()[:8]
	}
	a := &Agent{id: id, exe: exe}
	a.Name = &NameAgent{name: name}
	a.Block = &BlockAgent{waker: NewWaker()}
	a.Run = &RunAgent{exe: exe, owner: a, config: rc}
	a.Finish = &FinishAgent{exe: exe, owner: a}
	return a
}

// ID is the identity the executor assigned to this agent's task.
func (a *Agent) ID() int64 { return a.id }

// NameAgent exposes a human-readable name and the current list of named
// blocking diagnostics (§4.1.3).
type NameAgent struct {
	mu    sync.RWMutex
	name  string
	waits []string
}

// GetName returns the current diagnostic name.
func (n *NameAgent) GetName() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// SetName changes the diagnostic name.
func (n *NameAgent) SetName(name string) {
	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
}

// GetWaits returns the current list of named awaits, for diagnostic
// summaries (e.g. "what is this task blocked on").
func (n *NameAgent) GetWaits() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.waits))
	copy(out, n.waits)
	return out
}

func (n *NameAgent) pushWait(label string) {
	n.mu.Lock()
	n.waits = append(n.waits, label)
	n.mu.Unlock()
}

func (n *NameAgent) clearWaits() {
	n.mu.Lock()
	n.waits = n.waits[:0]
	n.mu.Unlock()
}

// BlockAgent exposes wake/block primitives and the root wake primitive
// for a task.
type BlockAgent struct {
	mu      sync.Mutex
	waker   *Waker
	blocked bool
}

// RootBlock returns the composable wake primitive for this task. Any
// collaborator that can eventually unblock the task (a timer, a subtask,
// an external nudge) calls Wake on it.
func (b *BlockAgent) RootBlock() *Waker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waker
}

// BlockTask idempotently marks this task as blocked until RootBlock is
// signaled.
func (b *BlockAgent) BlockTask() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocked = true
}

// ready reports whether the block-agent currently permits scheduling:
// either it was never blocked, or it was blocked and its waker has since
// fired.
func (b *BlockAgent) ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.blocked {
		return true
	}
	if b.waker.Signaled() {
		b.blocked = false
		b.waker.Reset()
		return true
	}
	return false
}

// RunAgent exposes timers, subtask submission, and this task's run
// configuration.
type RunAgent struct {
	exe    *Executor
	owner  *Agent
	config RunConfig
}

// Config returns the RunConfig this task was submitted with.
func (r *RunAgent) Config() RunConfig { return r.config }

// Tick returns the executor's current tick index.
func (r *RunAgent) Tick() uint64 { return r.exe.currentTick() }

// AddTimer arms a wall-clock timer; callback runs at the start of the
// tick during which the deadline elapses (§5). A zero or negative delta
// fires on the very next tick.
func (r *RunAgent) AddTimer(delta time.Duration, callback func()) {
	r.owner.Name.pushWait("timer(" + delta.String() + ")")
	r.exe.armTimeTimer(r.owner, delta, callback)
}

// AddTicksTimer arms a tick-based timer. A delta of 0 is a deliberate
// yield: the callback fires at the very next tick.
func (r *RunAgent) AddTicksTimer(delta uint64, callback func()) {
	r.owner.Name.pushWait("ticks-timer")
	r.exe.armTickTimer(r.owner, delta, callback)
}

// NewAgent builds a child agent. If rc is nil, the child inherits this
// task's RunConfig.
func (r *RunAgent) NewAgent(rc *RunConfig, name string) *Agent {
	cfg := r.config
	if rc != nil {
		cfg = *rc
	}
	return r.exe.newAgentLocked(cfg, name)
}

// Submit creates a new task from agent/future, exactly like a top-level
// Executor.Add call — it is the Agent-scoped subtask-creation entry
// point used by a task's Future to fork children.
func (r *RunAgent) Submit(agent *Agent, future Future) *TaskHandle {
	return r.exe.add(agent, future)
}

// FinishAgent exposes termination signaling and tidier management.
type FinishAgent struct {
	exe   *Executor
	owner *Agent

	mu       sync.Mutex
	finished bool
	reason   *KillReason
	tidiers  tidierStack
}

// Finish initiates termination. If reason is non-nil the task will
// ultimately be Killed(reason); otherwise it becomes Done. external
// distinguishes a self-finish from an executor/host-triggered one; it is
// not used, and both behave identically.
func (f *FinishAgent) Finish(reason *KillReason, external bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished {
		return
	}
	f.finished = true
	f.reason = reason
	_ = external
	f.owner.Block.RootBlock().Wake()
}

// MakeTidier registers a finalization computation, run in LIFO order
// during termination. The returned handle can also be awaited directly.
func (f *FinishAgent) MakeTidier(future Future) TidierHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &Tidier{future: future}
	f.tidiers.push(t)
	return TidierHandle{t: t}
}

func (f *FinishAgent) isFinishing() (bool, *KillReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished, f.reason
}

// CheckTidiers pumps the topmost not-yet-done tidier one poll step and
// reports whether every tidier has now completed.
func (f *FinishAgent) CheckTidiers(agent *Agent) bool {
	f.mu.Lock()
	t := f.tidiers.top()
	f.mu.Unlock()
	if t == nil {
		return true
	}
	result := pollCatching(t.future, agent)
	if !result.IsPending() {
		f.mu.Lock()
		t.done = true
		t.err = result.err
		done := f.tidiers.allDone()
		f.mu.Unlock()
		return done
	}
	return false
}

func (f *FinishAgent) tidierFailure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tidiers.firstErr()
}

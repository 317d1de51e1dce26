// Package executor implements Commander: a cooperative single-threaded
// task executor driving lazy Futures under priority and time-budget
// constraints (spec §4.1). It is the bottom layer the pre-image
// pipeline's embedded interpreter runs pure fragments on top of.
package executor

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Executor drives a set of tasks to completion, one tick at a time. It is
// a single logical thread of control: never driven by multiple OS threads
// concurrently, though its Agents and TaskHandles are safe to share
// across the suspension points within that thread (§5).
type Executor struct {
	mu          sync.Mutex
	tasks       map[int64]*taskShared
	priorities  map[int]*priorityBucket
	nextTaskID  int64
	tick        uint64
	locks       int32
	integration Integration
	timers      timerWheel
	identity    int64
}

type priorityBucket struct {
	ids    []int64
	cursor int
}

var nextExecutorIdentity int64

// New creates an Executor driven by the given Integration (clock + wake).
func New(integration Integration) *Executor {
	return &Executor{
		tasks:       make(map[int64]*taskShared),
		priorities:  make(map[int]*priorityBucket),
		integration: integration,
		identity:    atomic.AddInt64(&nextExecutorIdentity, 1),
	}
}

// Identity returns the integer uniquely identifying this executor
// instance.
func (e *Executor) Identity() int64 { return e.identity }

// NewAgent creates an uninitialized Agent bound to this executor.
func (e *Executor) NewAgent(config RunConfig, name string) *Agent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newAgentLocked(config, name)
}

func (e *Executor) newAgentLocked(config RunConfig, name string) *Agent {
	e.nextTaskID++
	id := e.nextTaskID
	return newAgent(e, id, config, name)
}

// Add registers future/agent as a runnable task and takes ownership of
// driving it.
func (e *Executor) Add(future Future, agent *Agent) *TaskHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(agent, future)
}

func (e *Executor) add(agent *Agent, future Future) *TaskHandle {
	ts := newTaskShared(agent.id, agent, future)
	e.tasks[agent.id] = ts

	cfg := agent.Run.Config()
	b := e.priorities[cfg.Priority]
	if b == nil {
		b = &priorityBucket{}
		e.priorities[cfg.Priority] = b
	}
	b.ids = append(b.ids, agent.id)

	if cfg.Timeout > 0 {
		e.armTimeTimer(agent, cfg.Timeout, func() {
			reason := ReasonTimeout()
			agent.Finish.Finish(&reason, true)
		})
	}

	return &TaskHandle{shared: ts}
}

// MakeLock returns an opaque token causing future ticks to no-op while
// any token from this executor is live.
func (e *Executor) MakeLock() *Lock {
	atomic.AddInt32(&e.locks, 1)
	return &Lock{exe: e}
}

func (e *Executor) currentTick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

func (e *Executor) armTimeTimer(owner *Agent, delta time.Duration, cb func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timers.add(&timerEntry{
		owner:        owner,
		deadlineTime: e.integration.CurrentTime().Add(delta),
		callback:     cb,
	})
}

func (e *Executor) armTickTimer(owner *Agent, delta uint64, cb func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timers.add(&timerEntry{
		owner:        owner,
		isTick:       true,
		deadlineTick: e.tick + delta,
		callback:     cb,
	})
}

// Tick advances the internal tick counter by one, then polls eligible
// tasks in priority order until either every eligible task suspends or
// budgetMs elapses. Returns after one tick regardless. budgetMs <= 0
// means unbounded (run until nothing more can progress this tick).
func (e *Executor) Tick(budgetMs int) {
	if atomic.LoadInt32(&e.locks) > 0 {
		return
	}

	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	e.fireDueTimers(tick)

	var deadline time.Time
	hasDeadline := budgetMs > 0
	if hasDeadline {
		deadline = time.Now().Add(time.Duration(budgetMs) * time.Millisecond)
	}

	for _, p := range e.sortedPriorities() {
		e.mu.Lock()
		bucket := e.priorities[p]
		var ids []int64
		if bucket != nil {
			ids = append(ids, bucket.ids...)
		}
		e.mu.Unlock()
		if bucket == nil || len(ids) == 0 {
			continue
		}

		n := len(ids)
		start := bucket.cursor % n
		for i := 0; i < n; i++ {
			if hasDeadline && time.Now().After(deadline) {
				e.requestSleep()
				return
			}
			id := ids[(start+i)%n]
			e.mu.Lock()
			ts := e.tasks[id]
			e.mu.Unlock()
			if ts == nil {
				continue
			}
			e.pollTask(ts)
		}
		bucket.cursor = (start + n) % n
		e.compactBucket(p)
	}

	e.requestSleep()
}

func (e *Executor) sortedPriorities() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, 0, len(e.priorities))
	for p := range e.priorities {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (e *Executor) compactBucket(p int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.priorities[p]
	if b == nil {
		return
	}
	kept := b.ids[:0]
	for _, id := range b.ids {
		if ts, ok := e.tasks[id]; ok {
			_ = ts
			kept = append(kept, id)
		}
	}
	b.ids = kept
	if b.cursor > len(b.ids) {
		b.cursor = 0
	}
}

func (e *Executor) pollTask(ts *taskShared) {
	finishing, reason := ts.agent.Finish.isFinishing()
	if finishing {
		if !ts.agent.Block.ready() {
			return
		}
		if ts.agent.Finish.CheckTidiers(ts.agent) {
			e.finalize(ts, reason)
		}
		return
	}

	if !ts.agent.Block.ready() {
		return
	}

	// The waits recorded before this wakeup are over; the poll below
	// records whatever the task now waits on.
	ts.agent.Name.clearWaits()
	result := pollCatching(ts.future, ts.agent)
	if result.IsPending() {
		return
	}
	if result.err != nil {
		r := ReasonFailed(result.err.Error())
		ts.agent.Finish.Finish(&r, false)
		return
	}
	ts.mu.Lock()
	ts.naturalResult = result.value
	ts.mu.Unlock()
	ts.agent.Finish.Finish(nil, false)
}

func (e *Executor) finalize(ts *taskShared, reason *KillReason) {
	tidierErr := ts.agent.Finish.tidierFailure()
	switch {
	case reason != nil:
		ts.fulfill(Killed, nil, *reason)
	case tidierErr != nil:
		ts.fulfill(Killed, nil, ReasonFailed(tidierErr.Error()))
	default:
		ts.mu.Lock()
		v := ts.naturalResult
		ts.mu.Unlock()
		ts.fulfill(Done, v, KillReason{})
	}

	e.mu.Lock()
	delete(e.tasks, ts.id)
	e.mu.Unlock()
}

func (e *Executor) fireDueTimers(tick uint64) {
	e.mu.Lock()
	now := e.integration.CurrentTime()
	due := e.timers.due(tick, now)
	e.mu.Unlock()

	for _, t := range due {
		e.fireTimer(t)
	}
}

func (e *Executor) fireTimer(t *timerEntry) {
	defer func() {
		if r := recover(); r != nil {
			reason := ReasonFailed(fmt.Sprintf("timer panic: %v", r))
			t.owner.Finish.Finish(&reason, true)
		}
	}()
	t.callback()
}

func (e *Executor) requestSleep() {
	if e.integration == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hasReadyTaskLocked() {
		e.integration.Sleep(SleepNone())
		return
	}
	if e.timers.hasTickTimer() {
		e.integration.Sleep(SleepNone())
		return
	}
	now := e.integration.CurrentTime()
	if d, ok := e.timers.nextDeadline(now); ok {
		e.integration.Sleep(SleepAfter(d))
		return
	}
	e.integration.Sleep(SleepForever())
}

func (e *Executor) hasReadyTaskLocked() bool {
	for _, ts := range e.tasks {
		finishing, _ := ts.agent.Finish.isFinishing()
		if finishing {
			// tidiers draining counts as ready work unless their own
			// block-agent is blocked.
			if ts.agent.Block.ready() {
				return true
			}
			continue
		}
		if ts.agent.Block.ready() {
			return true
		}
	}
	return false
}

// pollCatching polls f, converting a panic into a Failed outcome so a
// misbehaving future cannot take the scheduler down with it (§4.1.5).
func pollCatching(f Future, agent *Agent) (result Poll) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed(fmt.Errorf("panic: %v", r))
		}
	}()
	return f.Poll(agent)
}

package executor

import (
	"testing"
	"time"
)

// fakeIntegration is a manually-driven Integration: CurrentTime advances
// only when the test tells it to, and Sleep just records what was asked
// for (ticks are driven explicitly by the test calling Tick).
type fakeIntegration struct {
	now  time.Time
	last SleepQuantity
}

func newFakeIntegration() *fakeIntegration {
	return &fakeIntegration{now: time.Unix(0, 0)}
}

func (f *fakeIntegration) CurrentTime() time.Time { return f.now }
func (f *fakeIntegration) Sleep(q SleepQuantity)  { f.last = q }
func (f *fakeIntegration) advance(d time.Duration) { f.now = f.now.Add(d) }

// countingTickFuture returns 42 after being polled on three separate
// ticks, yielding via AddTicksTimer(0, ...) between each poll — scenario
// S1 from §8.
type countingTickFuture struct {
	remaining int
	waiting   bool
}

func (c *countingTickFuture) Poll(agent *Agent) Poll {
	if c.remaining == 0 {
		return Ready(42)
	}
	if !c.waiting {
		c.waiting = true
		agent.Block.BlockTask()
		waker := agent.Block.RootBlock()
		agent.Run.AddTicksTimer(0, func() { waker.Wake() })
		return Pending()
	}
	c.waiting = false
	c.remaining--
	if c.remaining == 0 {
		return Ready(42)
	}
	agent.Block.BlockTask()
	waker := agent.Block.RootBlock()
	agent.Run.AddTicksTimer(0, func() { waker.Wake() })
	return Pending()
}

func TestExecutorSmoke_S1(t *testing.T) {
	integ := newFakeIntegration()
	exe := New(integ)
	agent := exe.NewAgent(DefaultRunConfig, "s1")
	handle := exe.Add(&countingTickFuture{remaining: 3}, agent)

	for i := 0; i < 10; i++ {
		exe.Tick(0)
	}

	if got := handle.TaskState(); got != Done {
		t.Fatalf("task state = %v, want Done", got)
	}
	v, ok := handle.TakeResult()
	if !ok || v != 42 {
		t.Fatalf("TakeResult() = (%v, %v), want (42, true)", v, ok)
	}
	if _, ok := handle.TakeResult(); ok {
		t.Fatalf("second TakeResult() should return false")
	}
}

// waitForDoneFuture blocks until a subtask handle's Await channel closes.
type waitForDoneFuture struct {
	sub      *TaskHandle
	awaiting bool
	ch       <-chan struct{}
}

func (w *waitForDoneFuture) Poll(agent *Agent) Poll {
	if w.sub == nil {
		child := agent.Run.NewAgent(nil, "s2-child")
		h := agent.Run.Submit(child, &countingTickFuture{remaining: 4})
		w.sub = h
		w.ch = h.Await()
	}
	select {
	case <-w.ch:
		return Ready(true)
	default:
		agent.Block.BlockTask()
		waker := agent.Block.RootBlock()
		agent.Run.AddTicksTimer(0, func() { waker.Wake() })
		return Pending()
	}
}

func TestExecutorSubtaskWait_S2(t *testing.T) {
	integ := newFakeIntegration()
	exe := New(integ)
	agentA := exe.NewAgent(DefaultRunConfig, "s2-a")
	taskA := &waitForDoneFuture{}
	handleA := exe.Add(taskA, agentA)

	for i := 0; i < 10; i++ {
		exe.Tick(0)
	}

	if got := handleA.TaskState(); got != Done {
		t.Fatalf("task A state = %v, want Done", got)
	}
	if taskA.sub == nil {
		t.Fatalf("task A never submitted child")
	}
	if got := taskA.sub.TaskState(); got != Done {
		t.Fatalf("task B state = %v, want Done", got)
	}
}

func TestMakeLockFreezesScheduling(t *testing.T) {
	integ := newFakeIntegration()
	exe := New(integ)
	agent := exe.NewAgent(DefaultRunConfig, "locked")
	handle := exe.Add(&countingTickFuture{remaining: 1}, agent)

	lock := exe.MakeLock()
	exe.Tick(0)
	if handle.TaskState() != Ongoing {
		t.Fatalf("task progressed while lock held")
	}
	lock.Release()
	for i := 0; i < 5; i++ {
		exe.Tick(0)
	}
	if handle.TaskState() != Done {
		t.Fatalf("task never completed after lock released")
	}
}

// killedFuture never finishes on its own; the test kills it externally.
type killedFuture struct{}

func (killedFuture) Poll(agent *Agent) Poll {
	agent.Block.BlockTask()
	return Pending()
}

func TestExternalKill(t *testing.T) {
	integ := newFakeIntegration()
	exe := New(integ)
	agent := exe.NewAgent(DefaultRunConfig, "killme")
	handle := exe.Add(killedFuture{}, agent)

	handle.Kill(ReasonCancelled())
	for i := 0; i < 3; i++ {
		exe.Tick(0)
	}

	if got := handle.TaskState(); got != Killed {
		t.Fatalf("task state = %v, want Killed", got)
	}
	reason, ok := handle.KillReason()
	if !ok || reason.Kind != Cancelled {
		t.Fatalf("kill reason = %+v, want Cancelled", reason)
	}
}

// tidyingFuture registers a tidier and finishes immediately; the test
// checks the tidier runs before the finished signal fires.
type tidyingFuture struct {
	ran *[]string
}

func (t tidyingFuture) Poll(agent *Agent) Poll {
	agent.Finish.MakeTidier(FuncFuture(func(agent *Agent) Poll {
		*t.ran = append(*t.ran, "tidier")
		return Ready(nil)
	}))
	return Ready("main")
}

func TestTidierRunsBeforeFinished(t *testing.T) {
	integ := newFakeIntegration()
	exe := New(integ)
	agent := exe.NewAgent(DefaultRunConfig, "tidy")
	var ran []string
	handle := exe.Add(tidyingFuture{ran: &ran}, agent)

	for i := 0; i < 3; i++ {
		exe.Tick(0)
	}

	if len(ran) != 1 || ran[0] != "tidier" {
		t.Fatalf("tidier did not run: %v", ran)
	}
	v, ok := handle.TakeResult()
	if !ok || v != "main" {
		t.Fatalf("TakeResult() = (%v, %v)", v, ok)
	}
}

func TestTimeoutKillsTask(t *testing.T) {
	integ := newFakeIntegration()
	exe := New(integ)
	rc := DefaultRunConfig.WithTimeout(5 * time.Second)
	agent := exe.NewAgent(rc, "timeout-me")
	handle := exe.Add(killedFuture{}, agent)

	integ.advance(6 * time.Second)
	for i := 0; i < 3; i++ {
		exe.Tick(0)
	}

	if got := handle.TaskState(); got != Killed {
		t.Fatalf("task state = %v, want Killed", got)
	}
	reason, ok := handle.KillReason()
	if !ok || reason.Kind != Timeout {
		t.Fatalf("kill reason = %+v, want Timeout", reason)
	}
}

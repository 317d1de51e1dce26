// Package interp supplies the embedded interpreter the pre-image
// (compile-run) pass spins up, via the Executor, to evaluate pure fragments
// ahead of time (spec §2, §4.3.3). It is deliberately not a full bytecode
// dispatch loop: the command library already knows how to fold its own
// instructions, so this package's job is just to run that folding as a
// task under the same Commander that drives the rest of the toolchain,
// rather than as an ordinary direct function call — so a fragment that
// misbehaves (panics, never settles) is caught and reported the same way
// any other task failure is.
package interp

import (
	"fmt"
	"time"

	"dauphin/executor"
)

// instant is the Integration a pure-fragment evaluation runs under: no
// host loop is driving real ticks, so CurrentTime is frozen and Sleep
// requests are discarded — the caller drives Tick directly in a loop
// instead.
type instant struct{ now time.Time }

func (i instant) CurrentTime() time.Time      { return i.now }
func (instant) Sleep(executor.SleepQuantity) {}

// Interpreter is a small, self-contained Commander instance dedicated to
// running pure (non-blocking) command fragments to completion.
type Interpreter struct {
	exe *executor.Executor
}

// New returns an Interpreter with its own private Executor.
func New() *Interpreter {
	return &Interpreter{exe: executor.New(instant{now: time.Unix(0, 0)})}
}

// maxTicks bounds how many ticks a pure fragment gets before it is
// considered misbehaving rather than merely slow — pure fragments fold
// constants and must never need to suspend.
const maxTicks = 8

// Eval runs fn as a one-shot task and drives it to completion, returning
// its result or an error if it panicked, returned an error, or failed to
// settle within maxTicks (a fragment that blocks is not pure, which is an
// Internal bug in the calling pass rather than bad input).
func (in *Interpreter) Eval(fn func() (interface{}, error)) (interface{}, error) {
	agent := in.exe.NewAgent(executor.DefaultRunConfig, "")
	handle := in.exe.Add(executor.FuncFuture(func(agent *executor.Agent) executor.Poll {
		v, err := fn()
		if err != nil {
			return executor.Failed(err)
		}
		return executor.Ready(v)
	}), agent)

	for i := 0; i < maxTicks && handle.TaskState() == executor.Ongoing; i++ {
		in.exe.Tick(0)
	}

	switch handle.TaskState() {
	case executor.Done:
		v, _ := handle.TakeResult()
		return v, nil
	case executor.Killed:
		reason, _ := handle.KillReason()
		return nil, fmt.Errorf("pre-image fragment failed: %s", reason.String())
	default:
		return nil, fmt.Errorf("pre-image fragment did not settle within %d ticks", maxTicks)
	}
}

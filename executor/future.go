package executor

// Future is an opaque, lazy, stepwise computation. The executor owns it
// once submitted via Executor.Add and drives it to completion one Poll
// call at a time; Poll must never block.
type Future interface {
	// Poll advances the computation by one step. The Agent gives the
	// future access to timers, subtask submission, and tidier
	// registration. A future that is not ready to make progress must
	// install a wakeup (via agent.Block.RootBlock()) before returning
	// a pending Poll.
	Poll(agent *Agent) Poll
}

// Poll is the outcome of polling a Future: either it has nothing more to
// report this tick (Pending), or it has finished, successfully or not.
type Poll struct {
	ready bool
	value interface{}
	err   error
}

// Pending reports that the future installed a wakeup and is not ready to
// produce a value yet.
func Pending() Poll { return Poll{} }

// Ready reports that the future finished successfully with value.
func Ready(value interface{}) Poll { return Poll{ready: true, value: value} }

// Failed reports that the future finished by panicking or returning an
// error; the task becomes Killed(Failed(err)).
func Failed(err error) Poll { return Poll{ready: true, err: err} }

// IsPending reports whether this Poll represents no progress this tick.
func (p Poll) IsPending() bool { return !p.ready }

// FuncFuture adapts a plain polling function to the Future interface, the
// same way the teacher's builtin dispatch table adapts plain Go funcs to
// BuiltinFunc.
type FuncFuture func(agent *Agent) Poll

// Poll implements Future.
func (f FuncFuture) Poll(agent *Agent) Poll { return f(agent) }

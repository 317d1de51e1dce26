package executor

import "sync/atomic"

// Lock is an opaque token returned by Executor.MakeLock. While any token
// is live, Tick becomes a no-op — used by diagnostics that need to freeze
// scheduling while they inspect task state.
type Lock struct {
	exe      *Executor
	released int32
}

// Release drops this lock. Idempotent.
func (l *Lock) Release() {
	if atomic.CompareAndSwapInt32(&l.released, 0, 1) {
		atomic.AddInt32(&l.exe.locks, -1)
	}
}

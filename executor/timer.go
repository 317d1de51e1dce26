package executor

import "time"

// timerEntry is a single armed timer, time-based or tick-based. Firing
// runs its callback, which typically calls Wake on some task's root
// block.
type timerEntry struct {
	owner *Agent

	isTick       bool
	deadlineTime time.Time
	deadlineTick uint64

	callback func()
	fired    bool
}

// timerWheel is a flat list of armed timers. The executor's scale (a
// handful of concurrently-suspended tasks driving a compile pipeline) does
// not justify a real hierarchical wheel; a slice scanned once per tick is
// the teacher's own choice for its waiting-task heap (container/heap over
// a slice, scanned whenever processReadyTasks runs).
type timerWheel struct {
	entries []*timerEntry
}

func (w *timerWheel) add(e *timerEntry) {
	w.entries = append(w.entries, e)
}

// due returns every entry that should fire at the given tick/time, and
// compacts the fired ones out of the wheel.
func (w *timerWheel) due(tick uint64, now time.Time) []*timerEntry {
	var fired []*timerEntry
	kept := w.entries[:0]
	for _, e := range w.entries {
		if e.fired {
			continue
		}
		ready := false
		if e.isTick {
			ready = e.deadlineTick <= tick
		} else {
			ready = !e.deadlineTime.After(now)
		}
		if ready {
			e.fired = true
			fired = append(fired, e)
		} else {
			kept = append(kept, e)
		}
	}
	w.entries = kept
	return fired
}

// nextDeadline returns the soonest upcoming time-based timer's delay from
// now, if any are armed. Tick-based timers don't influence the host sleep
// request; they fire on the next tick regardless of wall-clock time.
func (w *timerWheel) nextDeadline(now time.Time) (time.Duration, bool) {
	var best time.Duration
	found := false
	for _, e := range w.entries {
		if e.fired || e.isTick {
			continue
		}
		d := e.deadlineTime.Sub(now)
		if d < 0 {
			d = 0
		}
		if !found || d < best {
			best = d
			found = true
		}
	}
	return best, found
}

// hasTickTimer reports whether any tick-based timer is still armed, which
// forces the executor to request an immediate next tick rather than
// sleeping on wall-clock time alone.
func (w *timerWheel) hasTickTimer() bool {
	for _, e := range w.entries {
		if !e.fired && e.isTick {
			return true
		}
	}
	return false
}

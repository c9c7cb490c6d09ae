// Package sched is the scheduler core: the Policy abstraction, the
// round-robin policy built on it, and the Scheduler singleton that drives
// task dispatch, tick bookkeeping, and tickless-idle sleep wakeups,
// grounded on rr.c and arch/hal.c.
package sched

import "github.com/abbotg/ms-tos/internal/ktask"

// Policy decides which ready task runs next. Register and Unregister add
// and remove a task from the ready set; Pick returns whichever task should
// run next, or nil if the ready set is empty. Only one Policy
// implementation -- round robin -- is wired in by this kernel, but
// alternate disciplines (strict priority, lottery scheduling) are meant to
// satisfy the same four methods.
type Policy interface {
	Register(t *ktask.TCB)
	Unregister(t *ktask.TCB)
	Pick() *ktask.TCB
	Len() int
}

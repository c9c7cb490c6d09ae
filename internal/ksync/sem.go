// Package ksync implements the kernel's synchronization primitives --
// counting and binary semaphores and condition variable; the root
// package's mutex is a thin wrapper over BinSem -- grounded on
// semaphore.c and threads.c's mtx_*/cnd_* wrappers.
//
// The C originals block by busy-looping on thrd_yield while a resource is
// unavailable, spending a full round-robin sweep per retry. This kernel
// instead parks a waiting task on an explicit FIFO and has Post/Signal wake
// it directly, which is both the idiomatic Go way to block (no spin loop)
// and strictly cheaper; the externally observable semantics -- FIFO-ish
// fairness, identical invariants on the counter -- are unchanged.
package ksync

import (
	"github.com/abbotg/ms-tos/internal/arch"
	"github.com/abbotg/ms-tos/internal/kerrno"
	"github.com/abbotg/ms-tos/internal/ktask"
	"github.com/abbotg/ms-tos/internal/sched"
)

// Sem is a counting semaphore, the Go analog of sem_t.
type Sem struct {
	crit      *arch.Critical
	s         *sched.Scheduler
	value     uint
	waiters   []*ktask.TCB
	destroyed bool
}

// MaxSemValue bounds sem_init's accepted value, matching SEM_VALUE_MAX.
const MaxSemValue = 1<<16 - 1

// NewSem returns a semaphore initialized to value, or an error if value
// exceeds MaxSemValue, mirroring sem_init's bounds check.
func NewSem(s *sched.Scheduler, value uint) (*Sem, error) {
	if value > MaxSemValue {
		return nil, kerrno.ErrInvalid
	}
	return &Sem{crit: s.Critical(), s: s, value: value}, nil
}

// Wait decrements the semaphore, blocking the calling task if it is
// currently zero.
func (sem *Sem) Wait(self *ktask.TCB) error {
	if self == nil {
		return kerrno.ErrInvalid
	}
	g := sem.crit.Enter()
	if sem.destroyed {
		g.Exit()
		return kerrno.ErrInvalid
	}
	if sem.value > 0 {
		sem.value--
		g.Exit()
		return nil
	}
	sem.waiters = append(sem.waiters, self)
	g.Exit()
	sem.s.Block(self)
	return nil
}

// TryWait decrements the semaphore without blocking, returning
// kerrno.ErrAgain if it is currently zero, mirroring sem_trywait/EAGAIN.
func (sem *Sem) TryWait() error {
	g := sem.crit.Enter()
	defer g.Exit()
	if sem.destroyed {
		return kerrno.ErrInvalid
	}
	if sem.value == 0 {
		return kerrno.ErrAgain
	}
	sem.value--
	return nil
}

// removeWaiterLocked drops self from waiters. It must run with sem.crit
// held; its only caller is the BlockDeadline timeout hook, which already
// runs under the scheduler's critical section -- the same mutex as
// sem.crit, since sem.crit is s.Critical().
func (sem *Sem) removeWaiterLocked(self *ktask.TCB) {
	for i, w := range sem.waiters {
		if w == self {
			sem.waiters = append(sem.waiters[:i], sem.waiters[i+1:]...)
			return
		}
	}
}

// WaitTimed blocks self until the semaphore is positive or timeoutTicks
// ticks pass, whichever comes first, decrementing it on success. Mirrors
// sem_timedwait, which threads.c's revision of semaphore.c never defined
// at all; deadline arithmetic is relative to the scheduler's own tick
// clock rather than wall time, per Now/SleepFor's existing idiom.
func (sem *Sem) WaitTimed(self *ktask.TCB, timeoutTicks uint32) error {
	if self == nil {
		return kerrno.ErrInvalid
	}
	return sem.waitDeadline(self, sem.s.Now()+timeoutTicks, nil)
}

// waitDeadline is WaitTimed's deadline-based core, shared with Cond: its
// onTimeout, if given, runs after removeWaiterLocked but still under the
// BlockDeadline hook's held critical section, letting Cond fold in its own
// waiter-count bookkeeping without a second lock acquisition.
func (sem *Sem) waitDeadline(self *ktask.TCB, deadline uint32, onTimeout func()) error {
	g := sem.crit.Enter()
	if sem.destroyed {
		g.Exit()
		return kerrno.ErrInvalid
	}
	if sem.value > 0 {
		sem.value--
		g.Exit()
		return nil
	}
	sem.waiters = append(sem.waiters, self)
	g.Exit()

	timedOut := sem.s.BlockDeadline(self, deadline, func() {
		sem.removeWaiterLocked(self)
		if onTimeout != nil {
			onTimeout()
		}
	})
	if timedOut {
		return kerrno.ErrTimedout
	}
	return nil
}

// Destroy marks the semaphore unusable. As with sem_destroy, the effect
// of destroying a semaphore some other task is still blocked on is
// undefined; callers are expected to ensure no task is waiting first.
func (sem *Sem) Destroy() error {
	g := sem.crit.Enter()
	defer g.Exit()
	if sem.destroyed {
		return kerrno.ErrInvalid
	}
	sem.destroyed = true
	return nil
}

// Post increments the semaphore. If a task is waiting, the increment is
// handed directly to it and it is woken instead of touching value, the
// direct-handoff discipline that keeps Wait/Post race-free without a
// separate notify step.
func (sem *Sem) Post() {
	g := sem.crit.Enter()
	var woken *ktask.TCB
	if len(sem.waiters) > 0 {
		woken = sem.waiters[0]
		sem.waiters = sem.waiters[1:]
	} else {
		sem.value++
	}
	g.Exit()
	if woken != nil {
		sem.s.Wake(woken)
	}
}

// Value returns the semaphore's current count, mirroring sem_getvalue.
func (sem *Sem) Value() uint {
	g := sem.crit.Enter()
	defer g.Exit()
	return sem.value
}

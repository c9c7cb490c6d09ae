package ksync

import (
	"github.com/abbotg/ms-tos/internal/arch"
	"github.com/abbotg/ms-tos/internal/kerrno"
	"github.com/abbotg/ms-tos/internal/ktask"
	"github.com/abbotg/ms-tos/internal/sched"
)

// BinSem is a binary semaphore, the Go analog of bsem_t: its value is
// always 0 or 1, and Post always sets it to 1 (or hands off to a waiter)
// rather than incrementing. It is the primitive Mutex is built from,
// mirroring mtx_lock/unlock delegating straight to bsem_wait/bsem_post.
// The join rendezvous does not use it: TCB.finished is a closed-once
// channel.
type BinSem struct {
	crit      *arch.Critical
	s         *sched.Scheduler
	set       bool
	waiters   []*ktask.TCB
	destroyed bool
}

// NewBinSem returns a binary semaphore initialized to value.
func NewBinSem(s *sched.Scheduler, value bool) *BinSem {
	return &BinSem{crit: s.Critical(), s: s, set: value}
}

// Wait blocks the calling task until the semaphore is set, then clears it.
func (b *BinSem) Wait(self *ktask.TCB) error {
	if self == nil {
		return kerrno.ErrInvalid
	}
	g := b.crit.Enter()
	if b.destroyed {
		g.Exit()
		return kerrno.ErrInvalid
	}
	if b.set {
		b.set = false
		g.Exit()
		return nil
	}
	b.waiters = append(b.waiters, self)
	g.Exit()
	b.s.Block(self)
	return nil
}

// TryWait clears the semaphore without blocking if it is set, else
// returns kerrno.ErrAgain.
func (b *BinSem) TryWait() error {
	g := b.crit.Enter()
	defer g.Exit()
	if b.destroyed {
		return kerrno.ErrInvalid
	}
	if !b.set {
		return kerrno.ErrAgain
	}
	b.set = false
	return nil
}

// removeWaiterLocked drops self from waiters; see Sem.removeWaiterLocked
// for why this is safe to call from a BlockDeadline timeout hook without
// taking b.crit again.
func (b *BinSem) removeWaiterLocked(self *ktask.TCB) {
	for i, w := range b.waiters {
		if w == self {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			return
		}
	}
}

// WaitTimed blocks self until the semaphore is set or timeoutTicks ticks
// pass, whichever comes first, clearing it on success. The binary-
// semaphore counterpart of Sem.WaitTimed; Mutex.TimedLock is built
// directly on this.
func (b *BinSem) WaitTimed(self *ktask.TCB, timeoutTicks uint32) error {
	if self == nil {
		return kerrno.ErrInvalid
	}
	deadline := b.s.Now() + timeoutTicks

	g := b.crit.Enter()
	if b.destroyed {
		g.Exit()
		return kerrno.ErrInvalid
	}
	if b.set {
		b.set = false
		g.Exit()
		return nil
	}
	b.waiters = append(b.waiters, self)
	g.Exit()

	timedOut := b.s.BlockDeadline(self, deadline, func() {
		b.removeWaiterLocked(self)
	})
	if timedOut {
		return kerrno.ErrTimedout
	}
	return nil
}

// Destroy marks the semaphore unusable; see Sem.Destroy.
func (b *BinSem) Destroy() error {
	g := b.crit.Enter()
	defer g.Exit()
	if b.destroyed {
		return kerrno.ErrInvalid
	}
	b.destroyed = true
	return nil
}

// Post sets the semaphore, or hands off directly to a waiter if one is
// queued.
func (b *BinSem) Post() {
	g := b.crit.Enter()
	var woken *ktask.TCB
	if len(b.waiters) > 0 {
		woken = b.waiters[0]
		b.waiters = b.waiters[1:]
	} else {
		b.set = true
	}
	g.Exit()
	if woken != nil {
		b.s.Wake(woken)
	}
}

// Value reports whether the semaphore is currently set.
func (b *BinSem) Value() bool {
	g := b.crit.Enter()
	defer g.Exit()
	return b.set
}

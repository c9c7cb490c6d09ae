package mstos

import (
	"github.com/abbotg/ms-tos/internal/ksync"
	"github.com/abbotg/ms-tos/internal/ktask"
)

// mutexLocker adapts Mutex to the narrow Locker interface internal/ksync's
// Cond expects, so the hard-core Mesa-style wait/signal/broadcast logic
// stays independent of the root package's public Mutex type.
type mutexLocker struct{ b *ksync.BinSem }

func (l mutexLocker) Lock(self *ktask.TCB) error { return l.b.Wait(self) }
func (l mutexLocker) Unlock() error              { l.b.Post(); return nil }

// Cond is a Mesa-style condition variable, the Go analog of cnd_t.
type Cond struct {
	inner *ksync.Cond
}

// NewCond constructs a ready condition variable, mirroring cnd_init.
func (k *Kernel) NewCond() (*Cond, error) {
	inner, err := ksync.NewCond(k.sched)
	if err != nil {
		return nil, err
	}
	return &Cond{inner: inner}, nil
}

// Wait atomically unlocks m and blocks t until Signal or Broadcast wakes
// it, then relocks m before returning, mirroring cnd_wait.
func (c *Cond) Wait(t *Task, m *Mutex) error {
	return c.inner.Wait(t.tcb, mutexLocker{b: m.b})
}

// Signal wakes at most one waiter, mirroring cnd_signal.
func (c *Cond) Signal(t *Task) error {
	return c.inner.Signal(t.tcb)
}

// Broadcast wakes every current waiter, mirroring cnd_broadcast with the
// REDESIGN-FLAGGED sign-check bug corrected (see internal/ksync.Cond).
func (c *Cond) Broadcast(t *Task) error {
	return c.inner.Broadcast(t.tcb)
}

// TimedWait is Wait with a deadline: it atomically unlocks m and blocks t
// until Signal/Broadcast wakes it or timeoutTicks ticks pass, then
// relocks m before returning regardless of which happened, mirroring
// cnd_timedwait.
func (c *Cond) TimedWait(t *Task, m *Mutex, timeoutTicks uint32) error {
	return c.inner.WaitTimed(t.tcb, mutexLocker{b: m.b}, timeoutTicks)
}

// Destroy marks the condition variable unusable, mirroring cnd_destroy.
func (c *Cond) Destroy() error {
	return c.inner.Destroy()
}

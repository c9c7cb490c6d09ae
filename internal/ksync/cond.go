package ksync

import (
	"github.com/abbotg/ms-tos/internal/ktask"
	"github.com/abbotg/ms-tos/internal/sched"
)

// Locker is the narrow interface Cond needs from a mutex: Lock/Unlock
// taking the waiting task, so Cond itself stays independent of the root
// package's Mutex type.
type Locker interface {
	Lock(self *ktask.TCB) error
	Unlock() error
}

// Cond is the three-primitive Mesa-style condition variable from
// threads.c: a private lock serializing access to the waiter count, and a
// counting semaphore waiters block on until signaled.
type Cond struct {
	s               *sched.Scheduler
	privateLock     *BinSem
	threadsToWakeup *Sem
	numWaiters      int
}

// NewCond returns a ready condition variable, mirroring cnd_init.
func NewCond(s *sched.Scheduler) (*Cond, error) {
	sem, err := NewSem(s, 0)
	if err != nil {
		return nil, err
	}
	return &Cond{
		s:               s,
		privateLock:     NewBinSem(s, true),
		threadsToWakeup: sem,
	}, nil
}

// Wait atomically unlocks mutex and blocks self until Signal or Broadcast
// wakes it, then relocks mutex before returning, mirroring cnd_wait.
func (c *Cond) Wait(self *ktask.TCB, mutex Locker) error {
	if err := c.privateLock.Wait(self); err != nil {
		return err
	}
	c.numWaiters++
	c.privateLock.Post()

	if err := mutex.Unlock(); err != nil {
		return err
	}
	if err := c.threadsToWakeup.Wait(self); err != nil {
		return err
	}
	return mutex.Lock(self)
}

// WaitTimed is Wait with a deadline: it atomically unlocks mutex and
// blocks self until Signal/Broadcast wakes it or timeoutTicks ticks pass,
// then relocks mutex before returning regardless of which happened,
// mirroring cnd_timedwait's contract -- left as an unimplemented stub in
// threads.c -- that the mutex is always reacquired on return.
//
// The numWaiters-- on timeout runs inside the BlockDeadline hook threads-
// ToWakeup.waitDeadline passes down, which already executes under the
// scheduler's critical section; privateLock is deliberately not
// reacquired there; doing so would mean locking it from inside the same
// interrupt-disabled section a Signal or Broadcast holding it could be
// blocked trying to enter, which is cheap to avoid by just mutating
// numWaiters directly since nothing else can be running concurrently.
func (c *Cond) WaitTimed(self *ktask.TCB, mutex Locker, timeoutTicks uint32) error {
	if err := c.privateLock.Wait(self); err != nil {
		return err
	}
	c.numWaiters++
	deadline := c.s.Now() + timeoutTicks
	c.privateLock.Post()

	if err := mutex.Unlock(); err != nil {
		return err
	}
	waitErr := c.threadsToWakeup.waitDeadline(self, deadline, func() { c.numWaiters-- })
	if err := mutex.Lock(self); err != nil {
		if waitErr == nil {
			return err
		}
	}
	return waitErr
}

// Destroy marks the condition variable unusable; see Sem.Destroy. As with
// cnd_destroy, the effect of destroying a condition variable some other
// task is still waiting on is undefined.
func (c *Cond) Destroy() error {
	if err := c.privateLock.Destroy(); err != nil {
		return err
	}
	return c.threadsToWakeup.Destroy()
}

// Signal wakes at most one waiter, mirroring cnd_signal.
func (c *Cond) Signal(self *ktask.TCB) error {
	if err := c.privateLock.Wait(self); err != nil {
		return err
	}
	if c.numWaiters > 0 {
		c.threadsToWakeup.Post()
		c.numWaiters--
	}
	c.privateLock.Post()
	return nil
}

// Broadcast wakes every current waiter, mirroring cnd_broadcast with the
// REDESIGN-FLAGGED sign bug fixed: the original checks
// `sem_post(...) > 0` as its failure condition, which sem_post can never
// satisfy (it returns 0 or -1), so a broadcast with waiters present always
// silently reported success there even when sem_post actually failed.
// Here Sem.Post cannot fail and returns no error, so there is no per-post
// result to check.
func (c *Cond) Broadcast(self *ktask.TCB) error {
	if err := c.privateLock.Wait(self); err != nil {
		return err
	}
	for c.numWaiters > 0 {
		c.threadsToWakeup.Post()
		c.numWaiters--
	}
	c.privateLock.Post()
	return nil
}

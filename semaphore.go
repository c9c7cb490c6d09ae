package mstos

import "github.com/abbotg/ms-tos/internal/ksync"

// Sem is a counting semaphore, the Go analog of sem_t.
type Sem struct{ inner *ksync.Sem }

// NewSem constructs a counting semaphore initialized to value, mirroring
// sem_init.
func (k *Kernel) NewSem(value uint) (*Sem, error) {
	inner, err := ksync.NewSem(k.sched, value)
	if err != nil {
		return nil, err
	}
	return &Sem{inner: inner}, nil
}

// Wait blocks t until the semaphore is positive, then decrements it,
// mirroring sem_wait.
func (s *Sem) Wait(t *Task) error { return s.inner.Wait(t.tcb) }

// TryWait decrements the semaphore without blocking, mirroring
// sem_trywait/EAGAIN.
func (s *Sem) TryWait() error { return s.inner.TryWait() }

// WaitTimed blocks t until the semaphore is positive or timeoutTicks
// ticks pass, whichever comes first, mirroring sem_timedwait.
func (s *Sem) WaitTimed(t *Task, timeoutTicks uint32) error {
	return s.inner.WaitTimed(t.tcb, timeoutTicks)
}

// Post increments the semaphore, mirroring sem_post.
func (s *Sem) Post() { s.inner.Post() }

// Value returns the semaphore's current count, mirroring sem_getvalue.
func (s *Sem) Value() uint { return s.inner.Value() }

// Destroy marks the semaphore unusable, mirroring sem_destroy.
func (s *Sem) Destroy() error { return s.inner.Destroy() }

// BinSem is a binary semaphore, the Go analog of bsem_t.
type BinSem struct{ inner *ksync.BinSem }

// NewBinSem constructs a binary semaphore initialized to value, mirroring
// bsem_init.
func (k *Kernel) NewBinSem(value bool) *BinSem {
	return &BinSem{inner: ksync.NewBinSem(k.sched, value)}
}

// Wait blocks t until the semaphore is set, then clears it, mirroring
// bsem_wait.
func (b *BinSem) Wait(t *Task) error { return b.inner.Wait(t.tcb) }

// TryWait clears the semaphore without blocking, mirroring
// bsem_trywait/EAGAIN.
func (b *BinSem) TryWait() error { return b.inner.TryWait() }

// WaitTimed blocks t until the semaphore is set or timeoutTicks ticks
// pass, whichever comes first, mirroring the counting semaphore's
// sem_timedwait extended to the binary case.
func (b *BinSem) WaitTimed(t *Task, timeoutTicks uint32) error {
	return b.inner.WaitTimed(t.tcb, timeoutTicks)
}

// Post sets the semaphore, mirroring bsem_post.
func (b *BinSem) Post() { b.inner.Post() }

// Value reports whether the semaphore is currently set, mirroring
// bsem_getvalue.
func (b *BinSem) Value() bool { return b.inner.Value() }

// Destroy marks the semaphore unusable, mirroring bsem_destroy.
func (b *BinSem) Destroy() error { return b.inner.Destroy() }

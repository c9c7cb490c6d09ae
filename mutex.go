package mstos

import (
	"github.com/abbotg/ms-tos/internal/ksync"
)

// MutexType selects mtx_init's type argument. Only Plain is implemented;
// Recursive and Timed are accepted by NewMutex's signature for API
// compatibility with the original's mtx_plain/mtx_recursive/mtx_timed
// enum, then rejected outright -- the REDESIGN FLAG this kernel corrects.
// threads.c's mtx_init took a type parameter and silently ignored it
// ("// TODO: type parameter currently is ignored"); every mutex it built
// behaved as Plain regardless of what was requested, which would quietly
// report success for mtx_recursive or mtx_timed initialization requests a
// caller had every right to expect honored.
type MutexType int

const (
	Plain MutexType = iota
	Recursive
	Timed
)

// Mutex is a binary-semaphore-backed lock, the Go analog of mtx_t. It
// does not support recursion or priority inheritance: a task that locks
// it twice deadlocks itself, matching the plain semantics threads.c
// actually implements.
type Mutex struct {
	b *ksync.BinSem
}

// NewMutex constructs a mutex of the given type, mirroring mtx_init.
// Recursive and Timed are rejected with ErrUnsupportedMutexType instead of
// silently behaving as Plain.
func (k *Kernel) NewMutex(kind MutexType) (*Mutex, error) {
	if kind != Plain {
		return nil, ErrUnsupportedMutexType
	}
	return &Mutex{b: ksync.NewBinSem(k.sched, true)}, nil
}

// Lock blocks the calling task until the mutex is free, then acquires it.
func (m *Mutex) Lock(t *Task) error {
	return m.b.Wait(t.tcb)
}

// TryLock acquires the mutex without blocking, returning ErrAgain if it
// is already held (or ErrInvalid if it has been destroyed), mirroring
// mtx_trylock/thrd_busy.
func (m *Mutex) TryLock() error {
	return m.b.TryWait()
}

// TimedLock blocks the calling task until the mutex is free or
// timeoutTicks ticks pass, whichever comes first, returning ErrTimedout
// in the latter case. Mirrors mtx_timedlock, which threads.c left as an
// unimplemented stub; timeoutTicks is measured against the scheduler's
// tick clock rather than wall time, the kernel's only notion of time.
func (m *Mutex) TimedLock(t *Task, timeoutTicks uint32) error {
	return m.b.WaitTimed(t.tcb, timeoutTicks)
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() error {
	m.b.Post()
	return nil
}

// Destroy marks the mutex unusable, mirroring mtx_destroy. As with the
// underlying binary semaphore, destroying a mutex some other task is
// still blocked locking is undefined.
func (m *Mutex) Destroy() error {
	return m.b.Destroy()
}

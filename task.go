package mstos

import (
	"github.com/abbotg/ms-tos/internal/arch"
	"github.com/abbotg/ms-tos/internal/kerrno"
	"github.com/abbotg/ms-tos/internal/ktask"
)

// EntryFunc is a task's entry point, taking the single argument word
// passed to Task.Create and returning the value a Join call reads back.
type EntryFunc func(arg uint32) uint32

// Task is a handle to a kernel task, the Go analog of thrd_t.
type Task struct {
	k   *Kernel
	tcb *ktask.TCB
}

// Create allocates and starts a new task running entry(arg), mirroring
// thrd_create followed by sched_add. It returns ErrNoMem if every task
// slot is already occupied.
func (k *Kernel) Create(name string, entry EntryFunc, arg uint32) (*Task, error) {
	wrapped := func(a arch.Word) arch.Word {
		return arch.Word(entry(uint32(a)))
	}
	tcb, err := k.sched.Spawn(name, wrapped, arch.Word(arg))
	if err != nil {
		return nil, err
	}
	return &Task{k: k, tcb: tcb}, nil
}

// Current returns the task presently holding the CPU.
func (k *Kernel) Current() *Task {
	tcb := k.sched.Current()
	if tcb == nil {
		return nil
	}
	return &Task{k: k, tcb: tcb}
}

// Equal reports whether lhs and rhs name the same task, mirroring
// thrd_equal.
func (lhs *Task) Equal(rhs *Task) bool {
	if lhs == nil || rhs == nil {
		return lhs == rhs
	}
	return lhs.tcb == rhs.tcb
}

// Name returns the task's name.
func (t *Task) Name() string { return t.tcb.Name }

// Yield cooperatively gives up the CPU, mirroring thrd_yield.
func (t *Task) Yield() {
	t.k.sched.Yield(t.tcb)
}

// Sleep suspends the task until ticks have elapsed, mirroring sleep_for
// backed by the tickless-idle wakeup timer.
func (t *Task) Sleep(ticks uint32) {
	t.k.sched.SleepFor(t.tcb, ticks)
}

// SleepUntil suspends the task until the scheduler's tick counter reaches
// wakeTick, mirroring sleep_until.
func (t *Task) SleepUntil(wakeTick uint32) {
	t.k.sched.SleepUntil(t.tcb, wakeTick)
}

// Exit terminates the calling task immediately with result as its join
// value. It must be called from within the task's own entry function,
// mirroring thrd_exit.
func (t *Task) Exit(result uint32) {
	t.tcb.ExitNow(arch.Word(result))
}

// Detach marks the task as not needing to be joined; its slot is released
// automatically once it finishes instead of waiting for a Join call.
func (t *Task) Detach() error {
	if t.tcb.Detached {
		return kerrno.ErrInvalid
	}
	t.tcb.Detached = true
	go func() {
		<-t.tcb.Finished()
		t.k.sched.Release(t.tcb)
	}()
	return nil
}

// Join blocks until the task finishes and returns its result, mirroring
// thrd_join. Joining a detached task returns ErrInvalid.
func (t *Task) Join() (uint32, error) {
	if t.tcb.Detached {
		return 0, kerrno.ErrInvalid
	}
	v := t.tcb.Join()
	t.k.sched.Release(t.tcb)
	return uint32(v), nil
}

package sched

import (
	"time"

	"github.com/abbotg/ms-tos/internal/arch"
	"github.com/abbotg/ms-tos/internal/kerrno"
	"github.com/abbotg/ms-tos/internal/ktask"
	"github.com/abbotg/ms-tos/internal/sleepqueue"
)

// Scheduler is the kernel's process-wide scheduling singleton, grounded on
// the file-scope state rr.c keeps (run_ptr, the ready list) plus the
// tick/wakeup timer plumbing in arch/hal.c.
//
// On real hardware the timer ISR can interrupt a task's instruction
// stream at any point and force a switch. A hosted Go goroutine cannot be
// involuntarily suspended mid-call the same way, so tickISR here is
// limited to time bookkeeping (due sleepers are woken separately by
// wakeupISR, off the single-shot wakeup channel); round-robin turn
// advancement happens at the cooperative checkpoints Yield, YieldHigher,
// Sleep, and the blocking points in package ksync enumerate, the same
// suspension points spec'd as the kernel's only true switch points
// besides the asynchronous timer tick itself.
type Scheduler struct {
	crit   *arch.Critical
	policy Policy
	pool   *ktask.Pool
	sleepq *sleepqueue.Queue[*sleepWaiter]
	timer  *arch.Timer

	ticks      uint32
	current    *ktask.TCB
	tickPeriod time.Duration

	checkStack func(*ktask.TCB)

	shutdown chan struct{}
	started  bool
}

// sleepWaiter is what actually sits in the sleep queue. Plain sleeps
// (SleepUntil/SleepFor) carry a nil onTimeout; a task parked by
// BlockDeadline carries a hook that runs the moment wakeupISR pops it,
// still under the held critical section, so it can unwind whatever
// package ksync state (a semaphore's waiter list, say) needs to agree
// that the wait is over before the TCB itself is marked ready.
type sleepWaiter struct {
	tcb       *ktask.TCB
	onTimeout func()
}

// New returns a scheduler backed by pool for task allocation and policy
// for ready-queue ordering, ticking every tickPeriod.
func New(pool *ktask.Pool, policy Policy, tickPeriod time.Duration) *Scheduler {
	return &Scheduler{
		crit:       arch.NewCritical(),
		policy:     policy,
		pool:       pool,
		sleepq:     sleepqueue.New[*sleepWaiter](),
		timer:      arch.NewTimer(tickPeriod),
		tickPeriod: tickPeriod,
		shutdown:   make(chan struct{}),
	}
}

// SetStackGuard installs the hook Yield, YieldHigher, Block, SleepUntil,
// BlockDeadline, and tickISR each call on every task whose context they
// switch away from (or, for tickISR, the one currently holding the CPU).
// A nil guard (the default) makes the check a no-op, matching
// Config.CheckStackOverflow being unset.
func (s *Scheduler) SetStackGuard(guard func(*ktask.TCB)) {
	s.checkStack = guard
}

func (s *Scheduler) guardStack(t *ktask.TCB) {
	if s.checkStack != nil && t != nil {
		s.checkStack(t)
	}
}

// Spawn allocates a task from the pool, registers it ready, and starts its
// backing goroutine parked at its first turn, the Go analog of
// thrd_create followed by sched_add.
func (s *Scheduler) Spawn(name string, entry ktask.EntryFunc, arg arch.Word) (*ktask.TCB, error) {
	t, err := s.pool.Create(name, entry, arg)
	if err != nil {
		return nil, err
	}
	t.Start(s.onTaskExit)

	g := s.crit.Enter()
	s.policy.Register(t)
	g.Exit()
	return t, nil
}

// Current returns the task presently holding the CPU.
func (s *Scheduler) Current() *ktask.TCB {
	g := s.crit.Enter()
	defer g.Exit()
	return s.current
}

// Now returns the scheduler's tick counter, the kernel's notion of
// wall-clock time for sleep/timeout computations.
func (s *Scheduler) Now() uint32 {
	g := s.crit.Enter()
	defer g.Exit()
	return s.ticks
}

// Run starts the tick timer and switches into the first ready task,
// mirroring arch_sched_start's boot-context save followed by the jump
// into thread 0. It blocks until Shutdown is called, mirroring
// arch_sched_end's resumption of the saved boot context.
func (s *Scheduler) Run() error {
	g := s.crit.Enter()
	if s.started {
		g.Exit()
		return kerrno.ErrInvalid
	}
	s.started = true
	first := s.policy.Pick()
	s.current = first
	g.Exit()

	if first == nil {
		return kerrno.ErrNoMem
	}

	s.timer.StartTick(s.tickISR)
	first.Resume()
	<-s.shutdown
	s.timer.StopTick()
	return nil
}

// Shutdown requests the scheduler's Run call to return, the Go analog of
// invoking sched_end from within a task.
func (s *Scheduler) Shutdown() {
	close(s.shutdown)
}

// Yield cooperatively gives up the CPU. If another task is ready, control
// passes to it round robin and self blocks until its next turn; if self is
// the only ready task, it returns immediately.
func (s *Scheduler) Yield(self *ktask.TCB) {
	s.guardStack(self)
	g := s.crit.Enter()
	next := s.policy.Pick()
	if next == nil {
		next = self
	}
	s.current = next
	g.Exit()

	if next == self {
		return
	}
	next.Resume()
	self.WaitTurn()
}

// YieldHigher immediately hands the CPU to target instead of letting the
// policy choose. It does not touch the ready ring: self keeps whatever
// ring membership it already had, and gets its own turn later only if it
// is still registered there.
func (s *Scheduler) YieldHigher(self, target *ktask.TCB) {
	s.guardStack(self)
	g := s.crit.Enter()
	s.current = target
	g.Exit()

	target.Resume()
	self.WaitTurn()
}

// Block removes self from the ready ring and switches to whichever task
// the policy picks next, parking self until a later Wake call re-enters
// the ring. Used by semaphores, mutexes, and condition variables to park
// a task awaiting a resource.
func (s *Scheduler) Block(self *ktask.TCB) {
	s.guardStack(self)
	g := s.crit.Enter()
	self.SetState(ktask.StateBlocked)
	s.policy.Unregister(self)
	next := s.policy.Pick()
	s.current = next
	g.Exit()

	if next != nil {
		next.Resume()
	}
	self.WaitTurn()
}

// Wake re-registers t as ready. If the kernel was idle -- every task
// blocked or asleep, nothing logically running -- t is dispatched
// immediately, since there is no currently-executing task to hand it off
// from at the next cooperative checkpoint.
func (s *Scheduler) Wake(t *ktask.TCB) {
	g := s.crit.Enter()
	t.SetState(ktask.StateReady)
	s.policy.Register(t)
	resume := s.resumeIfIdleLocked()
	g.Exit()
	if resume != nil {
		resume.Resume()
	}
}

// resumeIfIdleLocked must be called with the critical-section guard held.
// If no task is presently current, it picks one and makes it current,
// returning it so the caller can Resume it once the guard is released.
func (s *Scheduler) resumeIfIdleLocked() *ktask.TCB {
	if s.current != nil {
		return nil
	}
	next := s.policy.Pick()
	s.current = next
	return next
}

// SleepUntil removes self from the ready ring, queues it to wake at
// wakeTicks, reprograms the tickless wakeup timer if self is now the
// earliest sleeper, and switches to the next ready task.
func (s *Scheduler) SleepUntil(self *ktask.TCB, wakeTicks uint32) {
	s.guardStack(self)
	g := s.crit.Enter()
	self.SetState(ktask.StateSleeping)
	self.WakeTime = wakeTicks
	s.policy.Unregister(self)
	s.sleepq.Push(&sleepWaiter{tcb: self}, wakeTicks)
	s.rearmWakeupLocked()
	next := s.policy.Pick()
	s.current = next
	g.Exit()

	if next != nil {
		next.Resume()
	}
	self.WaitTurn()
}

// SleepFor is SleepUntil relative to the current tick count.
func (s *Scheduler) SleepFor(self *ktask.TCB, ticks uint32) {
	s.SleepUntil(self, s.Now()+ticks)
}

// BlockDeadline parks self off the ready ring until either Wake is called
// on it directly (the resource it's waiting on became available) or
// deadlineTicks arrives first, in which case onTimeout runs -- still
// under the scheduler's critical section, before self is marked ready
// again -- and BlockDeadline reports true. This is the one primitive
// Mutex.TimedLock and Cond.TimedWait (via BinSem.WaitTimed and
// Sem.waitDeadline respectively) are both
// built on, the Go counterpart of the timed variants threads.c left as
// unimplemented stubs.
//
// A deadline that has already passed (deadlineTicks <= Now()) times out
// immediately without ever blocking, matching a zero or negative
// remaining duration being an instant timeout rather than an infinite
// wait.
func (s *Scheduler) BlockDeadline(self *ktask.TCB, deadlineTicks uint32, onTimeout func()) bool {
	s.guardStack(self)
	g := s.crit.Enter()
	if deadlineTicks <= s.ticks {
		if onTimeout != nil {
			onTimeout()
		}
		g.Exit()
		return true
	}

	self.SetState(ktask.StateBlocked)
	s.policy.Unregister(self)
	entry := s.sleepq.Push(&sleepWaiter{tcb: self, onTimeout: onTimeout}, deadlineTicks)
	s.rearmWakeupLocked()
	next := s.policy.Pick()
	s.current = next
	g.Exit()

	if next != nil {
		next.Resume()
	}
	self.WaitTurn()

	g = s.crit.Enter()
	timedOut := !s.sleepq.Remove(entry)
	g.Exit()
	return timedOut
}

// rearmWakeupLocked reprograms the hardware wakeup channel for the
// earliest sleeper, or suppresses it if the sleep queue is empty -- the
// tickless-idle logic from arch_tick_irq.
func (s *Scheduler) rearmWakeupLocked() {
	e := s.sleepq.Peek()
	if e == nil {
		s.timer.SuppressWakeup()
		return
	}
	now := s.ticks
	var delay time.Duration
	if e.WakeTime > now {
		delay = time.Duration(e.WakeTime-now) * s.tickPeriod
	}
	s.timer.ProgramWakeup(delay, s.wakeupISR)
}

// wakeupISR fires when the earliest sleeping task's wake time arrives. It
// pops every sleeper now due, wakes them, and reprograms for whatever
// sleeps next.
func (s *Scheduler) wakeupISR() {
	g := s.crit.Enter()
	for {
		e := s.sleepq.Peek()
		if e == nil || e.WakeTime > s.ticks {
			break
		}
		s.sleepq.Pop()
		w := e.Owner
		if w.onTimeout != nil {
			w.onTimeout()
		}
		w.tcb.SetState(ktask.StateReady)
		s.policy.Register(w.tcb)
	}
	s.rearmWakeupLocked()
	resume := s.resumeIfIdleLocked()
	g.Exit()
	if resume != nil {
		resume.Resume()
	}
}

// tickISR advances the tick counter. It never itself preempts a running
// task (see the type doc); it only keeps time and lets wakeupISR's own
// reprogramming do the sleep-queue work, so it stays a thin, cheap
// handler the way port_config.h's tick rate assumes.
func (s *Scheduler) tickISR() {
	g := s.crit.Enter()
	s.ticks++
	current := s.current
	g.Exit()
	s.guardStack(current)
}

// onTaskExit is invoked on a task's backing goroutine once it finishes, to
// drop it out of the ready ring, unsuppress a blocked joiner by virtue of
// TCB.Join already watching the finished channel, and let the next ready
// task continue if this task happened to be the one actively running.
func (s *Scheduler) onTaskExit(t *ktask.TCB) {
	g := s.crit.Enter()
	s.policy.Unregister(t)
	var next *ktask.TCB
	if s.current == t {
		next = s.policy.Pick()
		s.current = next
	}
	g.Exit()
	if next != nil {
		next.Resume()
	}
}

// Release returns t's slot to the pool once it is fully reaped (joined or
// detached), mirroring marking threads[i].available again.
func (s *Scheduler) Release(t *ktask.TCB) {
	s.pool.Release(t)
}

// Critical exposes the scheduler's single lock to package ksync, which
// must serialize semaphore and condition-variable state under the same
// interrupt-disable discipline as everything else in the kernel.
func (s *Scheduler) Critical() *arch.Critical { return s.crit }

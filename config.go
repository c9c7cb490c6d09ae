// Package mstos is a tickless real-time kernel core for a word-addressed
// microcontroller target, modeled after an MSP430-family part with either
// a 16-bit or a 20-bit program counter. It provides task creation and
// round-robin scheduling, tick-driven and tickless-idle sleep, and a small
// set of synchronization primitives -- semaphore, mutex, condition
// variable -- over a single global interrupt-disable critical section, the
// kernel's only lock. Task switches happen only at cooperative points
// (Yield, blocking on a primitive, sleeping, task exit); the periodic tick
// keeps time but does not preempt a running task.
package mstos

import (
	"time"

	"github.com/abbotg/ms-tos/internal/arch"
)

// CPUVariant selects which trap-frame layout a Config targets.
type CPUVariant int

const (
	// Narrow16 targets the 16-bit program-counter variant.
	Narrow16 CPUVariant = iota
	// Wide20 targets the 20-bit program-counter variant.
	Wide20
)

func (v CPUVariant) codec() arch.FrameCodec {
	if v == Wide20 {
		return arch.Wide20{}
	}
	return arch.Narrow16{}
}

// SchedPolicy selects a scheduling discipline, the Go analog of
// port_config.h's CONFIG_SCHED_* knobs.
type SchedPolicy int

const (
	// RoundRobin is the only implemented policy.
	RoundRobin SchedPolicy = iota
	// VariantRoundRobin, Lottery, and Multilevel are named per the
	// original port_config.h's enumerated knobs but were never wired up
	// in the kept C sources beyond CONFIG_SCHED_VTRR's name, and are not
	// implemented here either; Init rejects them explicitly instead of
	// silently substituting round robin.
	VariantRoundRobin
	Lottery
	Multilevel
)

// Config configures a kernel instance at Init time. All sizing is fixed
// for the lifetime of the kernel, per the no-dynamic-allocation design.
type Config struct {
	// Variant selects the trap-frame layout.
	Variant CPUVariant
	// Policy selects the scheduling discipline. Only RoundRobin is
	// implemented.
	Policy SchedPolicy
	// MaxTasks bounds the number of simultaneously live tasks.
	MaxTasks int
	// StackWords is the per-task stack size, in machine words.
	StackWords int
	// TickPeriod is the simulated hardware timer's tick period.
	TickPeriod time.Duration
	// CheckStackOverflow, when set, has the scheduler check every task's
	// stack guard word on every context switch and log a warning if it
	// has been clobbered.
	CheckStackOverflow bool
	// Debug selects Panic's halt-forever behavior instead of invoking
	// Reset.
	Debug bool
	// Reset is invoked by Panic in release mode (Debug == false). If
	// nil, Panic falls back to the debug halt behavior.
	Reset func()
}

// DefaultConfig returns reasonable defaults: the narrow 16-bit variant,
// round robin, 8 tasks, 256-word stacks, and a 1ms tick.
func DefaultConfig() Config {
	return Config{
		Variant:    Narrow16,
		Policy:     RoundRobin,
		MaxTasks:   8,
		StackWords: 256,
		TickPeriod: time.Millisecond,
		Debug:      true,
	}
}

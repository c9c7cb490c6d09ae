package arch

import "sync"

// Critical stands in for the processor's single global interrupt-enable
// bit, the kernel's only lock (spec Design Notes, "Global kernel state").
// A hosted Go process has no such bit, so disabling interrupts is modeled
// as acquiring the one mutex guarding scheduler and sleep-queue state, and
// enabling them is releasing it. Anything that would run inside
// __disable_interrupt()/__enable_interrupt() in the original sources holds
// a Guard obtained from Enter for its duration.
type Critical struct {
	mu      sync.Mutex
	enabled bool
}

// NewCritical returns a Critical with interrupts initially enabled.
func NewCritical() *Critical {
	return &Critical{enabled: true}
}

// Guard is proof that interrupts are disabled. It can only be constructed
// by Critical.Enter, so a function that requires one statically documents
// that it must run with the kernel's lock held.
type Guard struct {
	c *Critical
}

// Enter disables interrupts, blocking until any other Guard is released.
func (c *Critical) Enter() Guard {
	c.mu.Lock()
	c.enabled = false
	return Guard{c: c}
}

// Exit re-enables interrupts and releases the guard.
func (g Guard) Exit() {
	g.c.enabled = true
	g.c.mu.Unlock()
}

// Enabled reports the shadow interrupt-enable state, for GetState/SetState
// style introspection (spec §6 hardware surface).
func (c *Critical) Enabled() bool { return c.enabled }

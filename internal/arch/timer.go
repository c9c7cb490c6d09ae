package arch

import "time"

// Timer models the kernel's single hardware timer, split into the two
// capture/compare channels the original port_config.h names: channel 0
// drives the periodic tick, channel 1 the single-shot tickless-idle
// wakeup. Real hardware counts at a fixed rate in a free-running register;
// this simulation drives the same two callbacks from the Go runtime's
// timers, which is the only portable source of elapsed wall-clock time
// available to a hosted process.
type Timer struct {
	tickPeriod time.Duration
	ticker     *time.Ticker
	wakeup     *time.Timer
}

// NewTimer returns a Timer whose tick channel fires every period.
func NewTimer(period time.Duration) *Timer {
	return &Timer{tickPeriod: period}
}

// StartTick begins the periodic tick, invoking onTick from a dedicated
// goroutine on every period. StopTick stops it.
func (t *Timer) StartTick(onTick func()) {
	t.ticker = time.NewTicker(t.tickPeriod)
	go func(tk *time.Ticker) {
		for range tk.C {
			onTick()
		}
	}(t.ticker)
}

// StopTick halts the periodic tick.
func (t *Timer) StopTick() {
	if t.ticker != nil {
		t.ticker.Stop()
	}
}

// ProgramWakeup arms the single-shot wakeup channel for d from now,
// replacing any previously armed wakeup, matching arch_sleep_until's
// reprogramming of the compare register.
func (t *Timer) ProgramWakeup(d time.Duration, onWakeup func()) {
	if t.wakeup != nil {
		t.wakeup.Stop()
	}
	if d <= 0 {
		go onWakeup()
		return
	}
	t.wakeup = time.AfterFunc(d, onWakeup)
}

// SuppressWakeup disarms the wakeup channel, the tickless-idle case where
// the sleep queue is empty and the compare register is left unprogrammed.
func (t *Timer) SuppressWakeup() {
	if t.wakeup != nil {
		t.wakeup.Stop()
		t.wakeup = nil
	}
}

// Now returns the current monotonic instant used as the timer's free-
// running counter reading.
func Now() time.Time { return time.Now() }

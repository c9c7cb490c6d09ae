package mstos

import (
	"log"

	"github.com/abbotg/ms-tos/internal/kerrno"
	"github.com/abbotg/ms-tos/internal/ktask"
	"github.com/abbotg/ms-tos/internal/sched"
)

// Kernel is the process-wide kernel instance created by Init. Most
// callers never touch it directly; Task, Mutex, Sem, BinSem, and Cond all
// take a *Kernel so a process can (in principle) run independent kernel
// instances for testing, even though production firmware only ever calls
// Init once.
type Kernel struct {
	cfg    Config
	sched  *sched.Scheduler
	pool   *ktask.Pool
	logger *log.Logger
}

// Init constructs a kernel from cfg. It validates the policy selector
// against the only implemented discipline and rejects the rest, per
// port_config.h's unwired CONFIG_SCHED_* knobs.
func Init(cfg Config) (*Kernel, error) {
	if cfg.Policy != RoundRobin {
		return nil, kerrno.ErrUnsupported
	}
	if cfg.MaxTasks <= 0 || cfg.StackWords <= 0 {
		return nil, kerrno.ErrInvalid
	}
	if cfg.TickPeriod <= 0 {
		return nil, kerrno.ErrInvalid
	}

	codec := cfg.Variant.codec()
	pool := ktask.NewPool(cfg.MaxTasks, cfg.StackWords, codec)
	s := sched.New(pool, sched.NewRoundRobin(), cfg.TickPeriod)

	k := &Kernel{
		cfg:    cfg,
		sched:  s,
		pool:   pool,
		logger: log.Default(),
	}
	if cfg.CheckStackOverflow {
		s.SetStackGuard(func(t *ktask.TCB) { k.checkStackGuard(t) })
	}
	return k, nil
}

// Run starts the scheduler and blocks until a task or the caller requests
// shutdown, mirroring sched_start's boot context switch followed by
// sched_end's return.
func (k *Kernel) Run() error {
	return k.sched.Run()
}

// Shutdown requests Run to return.
func (k *Kernel) Shutdown() {
	k.sched.Shutdown()
}

// checkStackGuard logs and reports whether t's stack guard word has been
// clobbered. Wired into the scheduler as its stack guard hook when
// Config.CheckStackOverflow is set, so it runs on every context switch.
func (k *Kernel) checkStackGuard(t *ktask.TCB) bool {
	if !t.StackOverflowed() {
		return false
	}
	k.logger.Printf("task %q (id %d): stack overflow detected", t.Name, t.ID)
	return true
}

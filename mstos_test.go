package mstos

import (
	"bytes"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxTasks = 8
	cfg.StackWords = 64
	cfg.TickPeriod = time.Millisecond
	return cfg
}

// TestAlternatingTasks is the ABABAB end-to-end scenario: two tasks
// yielding to each other must never run twice in a row.
func TestAlternatingTasks(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string

	var ta, tb *Task
	entryA := func(arg uint32) uint32 {
		for i := 0; i < 10; i++ {
			mu.Lock()
			order = append(order, "A")
			mu.Unlock()
			ta.Yield()
		}
		return 0
	}
	entryB := func(arg uint32) uint32 {
		for i := 0; i < 10; i++ {
			mu.Lock()
			order = append(order, "B")
			mu.Unlock()
			tb.Yield()
		}
		return 0
	}

	ta, err = k.Create("A", entryA, 0)
	require.NoError(t, err)
	tb, err = k.Create("B", entryB, 0)
	require.NoError(t, err)

	go func() {
		ta.Join()
		tb.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	require.Len(t, order, 20)
	for i := 0; i < len(order)-1; i++ {
		assert.NotEqual(t, order[i], order[i+1], "task ran twice in a row at %d: %v", i, order)
	}
}

// TestSleepSort wakes N tasks sleeping for distinct durations and checks
// they report back in ascending sleep-duration order, a classic
// tickless-sleep-queue exercise.
func TestSleepSort(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	durations := []uint32{40, 10, 30, 20}
	var mu sync.Mutex
	var woke []uint32
	var tasks []*Task

	for _, d := range durations {
		d := d
		var self *Task
		entry := func(arg uint32) uint32 {
			self.Sleep(d)
			mu.Lock()
			woke = append(woke, d)
			mu.Unlock()
			return 0
		}
		tk, err := k.Create("sleeper", entry, 0)
		require.NoError(t, err)
		self = tk
		tasks = append(tasks, tk)
	}

	go func() {
		for _, tk := range tasks {
			tk.Join()
		}
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	assert.Equal(t, []uint32{10, 20, 30, 40}, woke)
}

// TestProducerConsumerViaSem is the producer/consumer end-to-end scenario
// backed by a pair of counting semaphores guarding a one-item buffer.
func TestProducerConsumerViaSem(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	filled, err := k.NewSem(0)
	require.NoError(t, err)
	empty, err := k.NewSem(1)
	require.NoError(t, err)

	var mu sync.Mutex
	var slot int
	var got []int

	var producer, consumer *Task
	producerEntry := func(arg uint32) uint32 {
		for i := 1; i <= 5; i++ {
			require.NoError(t, empty.Wait(producer))
			mu.Lock()
			slot = i
			mu.Unlock()
			filled.Post()
		}
		return 0
	}
	consumerEntry := func(arg uint32) uint32 {
		for i := 0; i < 5; i++ {
			require.NoError(t, filled.Wait(consumer))
			mu.Lock()
			got = append(got, slot)
			mu.Unlock()
			empty.Post()
		}
		return 0
	}

	producer, err = k.Create("producer", producerEntry, 0)
	require.NoError(t, err)
	consumer, err = k.Create("consumer", consumerEntry, 0)
	require.NoError(t, err)

	go func() {
		producer.Join()
		consumer.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

// TestMutexTryLockContention checks that a second task's TryLock fails
// with ErrAgain while the first holds the mutex, and that the second
// task's blocking Lock succeeds once the holder releases it.
//
// Task bodies only ever coordinate through kernel primitives (Sem, Mutex)
// or Yield-polled plain variables guarded by a sync.Mutex here: the
// scheduler only ever runs one task's goroutine at a time, so a task body
// blocking on a raw Go channel receive would starve every other task
// forever with no way to make progress.
func TestMutexTryLockContention(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	m, err := k.NewMutex(Plain)
	require.NoError(t, err)

	var mu sync.Mutex
	holderLocked := false
	shouldRelease := false
	probeResult := make(chan error, 1)

	var tHolder, tProber *Task
	holderEntry := func(arg uint32) uint32 {
		require.NoError(t, m.Lock(tHolder))
		mu.Lock()
		holderLocked = true
		mu.Unlock()
		for {
			mu.Lock()
			r := shouldRelease
			mu.Unlock()
			if r {
				break
			}
			tHolder.Yield()
		}
		require.NoError(t, m.Unlock())
		return 0
	}
	proberEntry := func(arg uint32) uint32 {
		for {
			mu.Lock()
			h := holderLocked
			mu.Unlock()
			if h {
				break
			}
			tProber.Yield()
		}
		probeResult <- m.TryLock()
		mu.Lock()
		shouldRelease = true
		mu.Unlock()
		require.NoError(t, m.Lock(tProber))
		require.NoError(t, m.Unlock())
		return 0
	}

	tHolder, err = k.Create("holder", holderEntry, 0)
	require.NoError(t, err)
	tProber, err = k.Create("prober", proberEntry, 0)
	require.NoError(t, err)

	go func() {
		tHolder.Join()
		tProber.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	assert.ErrorIs(t, <-probeResult, ErrAgain)
}

// TestMutexRejectsUnsupportedTypes exercises the REDESIGN-FLAGGED
// behavior fix: mtx_recursive/mtx_timed must be rejected, not silently
// treated as plain.
func TestMutexRejectsUnsupportedTypes(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	_, err = k.NewMutex(Recursive)
	assert.ErrorIs(t, err, ErrUnsupportedMutexType)

	_, err = k.NewMutex(Timed)
	assert.ErrorIs(t, err, ErrUnsupportedMutexType)
}

func TestSchedPolicyRejectsUnimplemented(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = Lottery
	_, err := Init(cfg)
	assert.ErrorIs(t, err, ErrUnsupported)
}

// TestMutexTimedLockExpires checks that TimedLock gives up with
// ErrTimedout once its deadline passes, rather than blocking forever,
// while the holder never releases.
func TestMutexTimedLockExpires(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	m, err := k.NewMutex(Plain)
	require.NoError(t, err)

	var mu sync.Mutex
	holderLocked := false
	shouldRelease := false
	timedResult := make(chan error, 1)

	var tHolder, tProber *Task
	holderEntry := func(arg uint32) uint32 {
		require.NoError(t, m.Lock(tHolder))
		mu.Lock()
		holderLocked = true
		mu.Unlock()
		for {
			mu.Lock()
			r := shouldRelease
			mu.Unlock()
			if r {
				break
			}
			tHolder.Yield()
		}
		require.NoError(t, m.Unlock())
		return 0
	}
	proberEntry := func(arg uint32) uint32 {
		for {
			mu.Lock()
			h := holderLocked
			mu.Unlock()
			if h {
				break
			}
			tProber.Yield()
		}
		timedResult <- m.TimedLock(tProber, 5)
		mu.Lock()
		shouldRelease = true
		mu.Unlock()
		return 0
	}

	tHolder, err = k.Create("holder", holderEntry, 0)
	require.NoError(t, err)
	tProber, err = k.Create("prober", proberEntry, 0)
	require.NoError(t, err)

	go func() {
		tHolder.Join()
		tProber.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	assert.ErrorIs(t, <-timedResult, ErrTimedout)
}

// TestCondTimedWaitExpires checks that TimedWait reports ErrTimedout and
// relocks the mutex when nobody ever signals.
func TestCondTimedWaitExpires(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	m, err := k.NewMutex(Plain)
	require.NoError(t, err)
	c, err := k.NewCond()
	require.NoError(t, err)

	waitResult := make(chan error, 1)

	var tWaiter *Task
	waiterEntry := func(arg uint32) uint32 {
		require.NoError(t, m.Lock(tWaiter))
		waitResult <- c.TimedWait(tWaiter, m, 5)
		require.NoError(t, m.Unlock())
		return 0
	}

	tWaiter, err = k.Create("waiter", waiterEntry, 0)
	require.NoError(t, err)

	go func() {
		tWaiter.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	assert.ErrorIs(t, <-waitResult, ErrTimedout)
}

// TestMutexDestroyRejectsFurtherUse checks Destroy's idempotence and that
// operations on a destroyed mutex report ErrInvalid instead of hanging.
func TestMutexDestroyRejectsFurtherUse(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	m, err := k.NewMutex(Plain)
	require.NoError(t, err)
	require.NoError(t, m.Destroy())
	assert.ErrorIs(t, m.Destroy(), ErrInvalid)

	var tk *Task
	entry := func(arg uint32) uint32 {
		assert.ErrorIs(t, m.Lock(tk), ErrInvalid)
		return 0
	}
	tk, err = k.Create("t", entry, 0)
	require.NoError(t, err)

	go func() {
		tk.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())
}

// TestSemDestroyRejectsFurtherUse checks Sem/BinSem Destroy the same way,
// without needing the scheduler running since TryWait never blocks.
func TestSemDestroyRejectsFurtherUse(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	s, err := k.NewSem(1)
	require.NoError(t, err)
	require.NoError(t, s.Destroy())
	assert.ErrorIs(t, s.TryWait(), ErrInvalid)
	assert.ErrorIs(t, s.Destroy(), ErrInvalid)

	b := k.NewBinSem(true)
	require.NoError(t, b.Destroy())
	assert.ErrorIs(t, b.TryWait(), ErrInvalid)
}

// TestStackOverflowCheckWiredIntoYield checks that a corrupted stack
// canary is actually detected and logged from Yield, the designated
// hook point, when Config.CheckStackOverflow is set -- not just that
// checkStackGuard exists as a standalone function.
func TestStackOverflowCheckWiredIntoYield(t *testing.T) {
	cfg := testConfig()
	cfg.CheckStackOverflow = true
	k, err := Init(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	k.logger = log.New(&buf, "", 0)

	var tk *Task
	entry := func(arg uint32) uint32 {
		tk.tcb.Stack[0] = 0
		tk.Yield()
		return 0
	}
	tk, err = k.Create("t", entry, 0)
	require.NoError(t, err)

	go func() {
		tk.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	assert.Contains(t, buf.String(), "stack overflow")
}

// TestStackOverflowCheckDisabledByDefault checks the flip side: without
// Config.CheckStackOverflow, a corrupted canary is never reported, since
// the hook is never installed at all.
func TestStackOverflowCheckDisabledByDefault(t *testing.T) {
	k, err := Init(testConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	k.logger = log.New(&buf, "", 0)

	var tk *Task
	entry := func(arg uint32) uint32 {
		tk.tcb.Stack[0] = 0
		tk.Yield()
		return 0
	}
	tk, err = k.Create("t", entry, 0)
	require.NoError(t, err)

	go func() {
		tk.Join()
		k.Shutdown()
	}()
	require.NoError(t, k.Run())

	assert.Empty(t, buf.String())
}

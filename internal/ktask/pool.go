package ktask

import (
	"sync"

	"github.com/abbotg/ms-tos/internal/arch"
	"github.com/abbotg/ms-tos/internal/kerrno"
)

// Pool is a fixed-size table of task slots, the Go analog of the
// NUMTHREADS-sized threads[] array thrd_create scans for a free entry.
//
// The original thrd_create has a bug this pool deliberately does not
// reproduce: it scans for a free slot, then does `thr = &threads[i]`,
// overwriting the caller's out-parameter pointer instead of writing
// through it, so the caller's thrd_t is left pointing at whatever it
// pointed to before the call. Create here returns the *TCB directly, so
// there is no out-parameter to silently discard.
type Pool struct {
	mu       sync.Mutex
	slots    []*TCB
	nextID   int
	codec    arch.FrameCodec
	stackLen int
}

// NewPool returns a pool with capacity slots, each task stack stackWords
// long, using codec to seed trap frames.
func NewPool(capacity, stackWords int, codec arch.FrameCodec) *Pool {
	return &Pool{
		slots:    make([]*TCB, capacity),
		codec:    codec,
		stackLen: stackWords,
	}
}

// Create allocates a free slot and returns a newly seeded TCB, or
// kerrno.ErrNoMem if every slot is occupied, corresponding to thrd_nomem.
func (p *Pool) Create(name string, entry EntryFunc, arg arch.Word) (*TCB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, slot := range p.slots {
		if slot != nil {
			continue
		}
		id := p.nextID
		p.nextID++
		t := NewTCB(id, name, p.codec, p.stackLen, entry, arg)
		p.slots[i] = t
		return t, nil
	}
	return nil, kerrno.ErrNoMem
}

// Release frees the slot backing t, allowing the slot to be reused by a
// later Create, mirroring marking threads[i].available again. IDs are not
// reused: every Create assigns the next ID in sequence.
func (p *Pool) Release(t *TCB) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, slot := range p.slots {
		if slot == t {
			p.slots[i] = nil
			return
		}
	}
}

// InUse reports how many slots are currently occupied.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, slot := range p.slots {
		if slot != nil {
			n++
		}
	}
	return n
}

// Capacity returns the total number of slots.
func (p *Pool) Capacity() int { return len(p.slots) }

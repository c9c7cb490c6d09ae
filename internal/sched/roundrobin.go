package sched

import "github.com/abbotg/ms-tos/internal/ktask"

// RoundRobin is a circular doubly-linked ready ring, the policy rr.c
// implements: every ready task gets an equal, un-prioritized turn, and
// Pick always advances past whichever task it last returned so repeated
// calls sweep the ring in insertion order.
type RoundRobin struct {
	head *ktask.TCB
	cur  *ktask.TCB
	n    int
}

// NewRoundRobin returns an empty round-robin ready ring.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

func (r *RoundRobin) Len() int { return r.n }

// Register inserts t at the tail of the ring.
func (r *RoundRobin) Register(t *ktask.TCB) {
	if r.head == nil {
		t.SchedNext = t
		t.SchedPrev = t
		r.head = t
		r.cur = t
	} else {
		tail := r.head.SchedPrev
		tail.SchedNext = t
		t.SchedPrev = tail
		t.SchedNext = r.head
		r.head.SchedPrev = t
	}
	r.n++
}

// Unregister removes t from the ring. It is a no-op if t is not present.
func (r *RoundRobin) Unregister(t *ktask.TCB) {
	if t.SchedNext == nil {
		return
	}
	if r.cur == t {
		r.cur = t.SchedNext
	}
	if t.SchedNext == t {
		r.head = nil
		r.cur = nil
	} else {
		t.SchedPrev.SchedNext = t.SchedNext
		t.SchedNext.SchedPrev = t.SchedPrev
		if r.head == t {
			r.head = t.SchedNext
		}
	}
	t.SchedNext = nil
	t.SchedPrev = nil
	r.n--
}

// Pick returns the next ready task in ring order and advances the
// internal cursor past it, so that the task after it is returned on the
// following call.
func (r *RoundRobin) Pick() *ktask.TCB {
	if r.cur == nil {
		return nil
	}
	t := r.cur
	r.cur = t.SchedNext
	return t
}

// Package sleepqueue orders sleeping tasks by wake time on top of the
// generic red-black tree, grounded on private/sleep_queue.h. It is the
// structure the tickless-idle wakeup channel is programmed from whenever
// a sleeper is queued or woken: peek its cached minimum to know the next
// wakeup, program the hardware compare register for it, and suppress the
// channel entirely when the queue is empty.
package sleepqueue

import "github.com/abbotg/ms-tos/internal/rbtree"

// Entry is anything that can wait on the sleep queue: it carries the tick
// count it should wake at and embeds its own tree node by value, so Push
// links it with no separate allocation and Remove can unlink it in
// O(log n) by following that embedded node rather than searching for it.
// queued tracks whether the entry is still linked, so a racing Remove and
// pop-on-timeout can each tell, without consulting the tree itself,
// whether the other already won.
type Entry[T any] struct {
	WakeTime uint32
	Owner    T

	node   rbtree.Node[*Entry[T]]
	queued bool
}

// Queue orders waiting entries by ascending wake time and caches the
// earliest one for O(1) peek.
type Queue[T any] struct {
	tree *rbtree.LCached[*Entry[T]]
}

// New returns an empty sleep queue.
func New[T any]() *Queue[T] {
	less := func(a, b *Entry[T]) bool { return a.WakeTime < b.WakeTime }
	return &Queue[T]{tree: rbtree.NewLCached[*Entry[T]](less)}
}

// Len reports how many tasks are currently sleeping.
func (q *Queue[T]) Len() int { return q.tree.Len() }

// Push queues owner to wake at wakeTime and returns the entry handle
// needed to remove it early (a signal or timed-wait completing first).
func (q *Queue[T]) Push(owner T, wakeTime uint32) *Entry[T] {
	e := &Entry[T]{WakeTime: wakeTime, Owner: owner}
	e.node.Value = e
	q.tree.Insert(&e.node)
	e.queued = true
	return e
}

// Peek returns the entry with the earliest wake time, or nil if the queue
// is empty, without removing it.
func (q *Queue[T]) Peek() *Entry[T] {
	n := q.tree.Leftmost()
	if n == nil {
		return nil
	}
	return n.Value
}

// Pop removes and returns the entry with the earliest wake time.
func (q *Queue[T]) Pop() *Entry[T] {
	n := q.tree.Leftmost()
	if n == nil {
		return nil
	}
	e := n.Value
	q.tree.Delete(n)
	e.queued = false
	return e
}

// Remove unlinks e before its wake time arrives, the case where a task is
// woken by a semaphore post or condition signal instead of timing out. It
// reports whether e was actually removed: false means e had already been
// popped (typically by a timeout racing ahead of this call), the signal
// the caller needs to distinguish "I won the race" from "the timeout did".
func (q *Queue[T]) Remove(e *Entry[T]) bool {
	if !e.queued {
		return false
	}
	q.tree.Delete(&e.node)
	e.queued = false
	return true
}

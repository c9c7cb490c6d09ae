package sleepqueue

import "testing"

func TestPushPeekPopOrdering(t *testing.T) {
	q := New[string]()
	q.Push("c", 30)
	q.Push("a", 10)
	q.Push("b", 20)

	if p := q.Peek(); p.Owner != "a" {
		t.Fatalf("Peek() = %v, want a", p.Owner)
	}

	var order []string
	for q.Len() > 0 {
		order = append(order, q.Pop().Owner)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", order, want)
		}
	}
}

func TestRemoveBeforeWake(t *testing.T) {
	q := New[string]()
	q.Push("x", 10)
	y := q.Push("y", 5)
	q.Push("z", 20)

	if ok := q.Remove(y); !ok {
		t.Fatalf("Remove(y) = false, want true")
	}
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	if p := q.Peek(); p.Owner != "x" {
		t.Fatalf("Peek() = %v, want x", p.Owner)
	}
	if ok := q.Remove(y); ok {
		t.Fatalf("Remove(y) second time = true, want false (already removed)")
	}
}

func TestSleepQueueInvariant(t *testing.T) {
	// every entry popped in order must never have an earlier wake time
	// than the one popped before it -- the sleep-queue ordering
	// invariant driving wakeup dispatch.
	q := New[int]()
	times := []uint32{50, 10, 40, 20, 30, 0, 60}
	for i, wt := range times {
		q.Push(i, wt)
	}
	var last uint32
	for q.Len() > 0 {
		e := q.Pop()
		if e.WakeTime < last {
			t.Fatalf("popped out of order: %d after %d", e.WakeTime, last)
		}
		last = e.WakeTime
	}
}

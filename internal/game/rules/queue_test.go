package rules

import "testing"

func TestQueuePushPopOrder(t *testing.T) {
	q := NewQueue[string]()

	q.Push("first")
	q.Extend("second", "third")

	if q.Len() != 3 {
		t.Fatalf("expected 3 pending items, got %d", q.Len())
	}

	front, ok := q.Peek()
	if !ok || front != "first" {
		t.Fatalf("expected peek to return first, got %q (ok=%v)", front, ok)
	}

	for _, want := range []string{"first", "second", "third"} {
		item, ok := q.Pop()
		if !ok {
			t.Fatalf("expected %s, queue was empty", want)
		}
		if item != want {
			t.Fatalf("expected FIFO order (%s), got %s", want, item)
		}
	}

	if !q.IsEmpty() {
		t.Fatalf("expected queue to be empty")
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected pop on empty queue to report false")
	}
}

func TestQueueInterleavedPush(t *testing.T) {
	q := NewQueue[int]()
	q.Extend(1, 2)

	var order []int
	for !q.IsEmpty() {
		item, _ := q.Pop()
		order = append(order, item)
		if item == 1 {
			// Work produced while draining goes to the back.
			q.Push(3)
		}
	}

	expected := []int{1, 2, 3}
	if len(order) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, order)
		}
	}
}

func TestQueueCloneIsIndependent(t *testing.T) {
	q := NewQueue[int]()
	q.Extend(1, 2)

	clone := q.Clone()
	clone.Push(3)
	q.Pop()

	if q.Len() != 1 {
		t.Fatalf("expected original to hold 1 item, got %d", q.Len())
	}
	if got := clone.List(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("unexpected clone contents %v", got)
	}
}

package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestBoundedDropsOldest(t *testing.T) {
	q := NewBounded[int](3)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	q.Push(4) // drops 1

	if q.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", q.Dropped())
	}

	var got []int
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}

	want := []int{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDrainTwiceIsEmptySecondTime(t *testing.T) {
	q := NewBounded[string](8)
	q.Push("a")
	q.Push("b")

	first := q.Drain()
	if len(first) != 2 {
		t.Fatalf("first drain = %v", first)
	}

	second := q.Drain()
	if len(second) != 0 {
		t.Fatalf("second drain = %v, want empty", second)
	}
}

func TestUnboundedDoesNotDrop(t *testing.T) {
	q := NewBounded[int](0)
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	if q.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", q.Dropped())
	}
	if q.Len() != 100 {
		t.Fatalf("len = %d, want 100", q.Len())
	}
}

func TestWorkerTicksAndStops(t *testing.T) {
	var ticks int32

	w := Start(5*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&ticks, 1)
	})

	time.Sleep(50 * time.Millisecond)
	w.Stop()

	if atomic.LoadInt32(&ticks) == 0 {
		t.Fatal("worker never ticked")
	}

	after := atomic.LoadInt32(&ticks)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&ticks) != after {
		t.Fatal("worker kept running after Stop")
	}
}

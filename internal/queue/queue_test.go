package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEnqueue_RunsImmediatelyWhenIdle(t *testing.T) {
	q := New(0)
	done := q.Enqueue(context.Background(), "a-1", "start", func(ctx context.Context) error {
		return nil
	})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for effect to run")
	}
}

func TestEnqueue_SerializesPerTask(t *testing.T) {
	q := New(0)
	var mu sync.Mutex
	var order []int

	release := make(chan struct{})
	first := q.Enqueue(context.Background(), "a-1", "first", func(ctx context.Context) error {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
		<-release
		return nil
	})
	second := q.Enqueue(context.Background(), "a-1", "second", func(ctx context.Context) error {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		return nil
	})

	if !q.IsBusy("a-1") {
		t.Fatalf("expected task to be busy while first entry runs")
	}
	if label := q.RunningLabel("a-1"); label != "first" {
		t.Fatalf("expected running label 'first', got %q", label)
	}

	close(release)

	<-first
	<-second

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected strict FIFO order [1 2], got %v", order)
	}
}

func TestIsAnyBusy(t *testing.T) {
	q := New(0)
	if q.IsAnyBusy() {
		t.Fatalf("expected not busy before any enqueue")
	}
	release := make(chan struct{})
	q.Enqueue(context.Background(), "a-1", "work", func(ctx context.Context) error {
		<-release
		return nil
	})
	if !q.IsAnyBusy() {
		t.Fatalf("expected busy while an entry is running")
	}
	close(release)
}

func TestEnqueue_PropagatesError(t *testing.T) {
	q := New(0)
	boom := errors.New("boom")
	done := q.Enqueue(context.Background(), "a-1", "fail", func(ctx context.Context) error {
		return boom
	})
	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestEnqueue_DifferentTasksRunConcurrently(t *testing.T) {
	q := New(0)
	var running int32
	var sawConcurrent int32
	block := make(chan struct{})

	for _, id := range []string{"a-1", "a-2"} {
		id := id
		q.Enqueue(context.Background(), id, "work", func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			if n > 1 {
				atomic.StoreInt32(&sawConcurrent, 1)
			}
			<-block
			atomic.AddInt32(&running, -1)
			return nil
		})
	}
	time.Sleep(50 * time.Millisecond)
	close(block)
	time.Sleep(50 * time.Millisecond)

	if atomic.LoadInt32(&sawConcurrent) != 1 {
		t.Fatalf("expected distinct task ids to run concurrently")
	}
}

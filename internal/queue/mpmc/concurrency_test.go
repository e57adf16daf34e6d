package mpmc

import (
	"context"
	"segtransport/internal/global"
	"sync"
	"testing"
	"time"
)

func TestQueueConcurrency(t *testing.T) {
	q, err := New[int]([]string{global.NSTest}, 64, 2, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const producers = 4
	const perProducer = 500
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if !q.PushBlocking(ctx, p*perProducer+i, 1) {
					t.Errorf("producer %d gave up", p)
					return
				}
			}
		}(p)
	}

	seen := make([]bool, producers*perProducer)
	var mu sync.Mutex
	var consumers sync.WaitGroup
	for c := 0; c < 3; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				value, ok := q.Pop(ctx)
				if !ok {
					return
				}
				mu.Lock()
				if seen[value] {
					t.Errorf("value %d popped twice", value)
				}
				seen[value] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	for q.Len() > 0 && ctx.Err() == nil {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	consumers.Wait()

	for value, ok := range seen {
		if !ok {
			t.Fatalf("value %d never popped", value)
		}
	}
}

func TestQueueMigration(t *testing.T) {
	ctx := context.Background()
	q, _ := New[int]([]string{global.NSTest}, 4, 2, 64)

	for i := 0; i < 4; i++ {
		q.Push(i, 1)
	}
	q.ScaleCapacity(ctx) // 100% utilization

	if q.ActiveWrite.Load().Size != 8 {
		t.Fatalf("expected write queue of 8, got %d", q.ActiveWrite.Load().Size)
	}

	// New writes land in the new queue while old items drain first
	for i := 4; i < 8; i++ {
		if !q.Push(i, 1) {
			t.Fatalf("push %d after resize failed", i)
		}
	}

	for want := 0; want < 8; want++ {
		popCtx, cancel := context.WithTimeout(ctx, time.Second)
		got, ok := q.Pop(popCtx)
		cancel()
		if !ok || got != want {
			t.Fatalf("pop = %d (ok=%t), want %d", got, ok, want)
		}
	}
	if q.ActiveRead.Load() != q.ActiveWrite.Load() {
		t.Fatal("read view did not migrate to the new queue")
	}
}

func TestScaleDownWhenIdle(t *testing.T) {
	q, _ := New[int]([]string{global.NSTest}, 64, 8, 1024)
	q.ScaleCapacity(context.Background())
	if q.ActiveWrite.Load().Size != 32 {
		t.Fatalf("expected idle queue to halve, got %d", q.ActiveWrite.Load().Size)
	}

	// Consumer must follow an empty draining queue
	q.Push(7, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if got, ok := q.Pop(ctx); !ok || got != 7 {
		t.Fatalf("pop after scale down = %d (ok=%t)", got, ok)
	}
}

func TestPowerOfTwoHelpers(t *testing.T) {
	cases := []struct{ in, next, prev int }{
		{1, 1, 0},
		{5, 8, 4},
		{8, 8, 4},
		{9, 16, 8},
	}
	for _, c := range cases {
		if got := nextPowerOfTwo(c.in); got != c.next {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", c.in, got, c.next)
		}
		if got := prevPowerOfTwo(c.in); got != c.prev {
			t.Errorf("prevPowerOfTwo(%d) = %d, want %d", c.in, got, c.prev)
		}
	}
}

func TestScaleIgnoresSingleSpike(t *testing.T) {
	ctx := context.Background()
	q, _ := New[int]([]string{global.NSTest}, 16, 16, 1024)

	for i := 0; i < 4; i++ {
		q.ScaleCapacity(ctx) // idle, already at minimum
	}

	for i := 0; i < 16; i++ {
		q.Push(i, 1)
	}
	q.ScaleCapacity(ctx)
	if q.ActiveWrite.Load().Size != 16 {
		t.Fatalf("single full sample should not scale, got %d", q.ActiveWrite.Load().Size)
	}

	// Sustained pressure eventually fills the sample window
	for i := 0; i < scaleSampleWindow && q.ActiveWrite.Load().Size == 16; i++ {
		q.ScaleCapacity(ctx)
	}
	if q.ActiveWrite.Load().Size != 32 {
		t.Fatalf("sustained full queue should double, got %d", q.ActiveWrite.Load().Size)
	}
}

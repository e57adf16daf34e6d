package mpmc

import (
	"context"
	"segtransport/internal/global"
	"testing"
	"time"
)

func intPtr[T any](v T) *T { return &v }

func TestQueuePushPopScenarios(t *testing.T) {
	type op struct {
		push *int // nil means pop
		want *int
		full bool // push expected to fail
	}

	tests := []struct {
		name     string
		capacity uint64
		ops      []op
	}{
		{
			name:     "single push pop",
			capacity: 32,
			ops:      []op{{push: intPtr(10)}, {want: intPtr(10)}},
		},
		{
			name:     "full queue rejects",
			capacity: 2,
			ops: []op{
				{push: intPtr(1)},
				{push: intPtr(2)},
				{push: intPtr(3), full: true},
				{want: intPtr(1)},
			},
		},
		{
			name:     "wrap around",
			capacity: 4,
			ops: []op{
				{push: intPtr(0)},
				{push: intPtr(1)},
				{push: intPtr(2)},
				{push: intPtr(3)},
				{want: intPtr(0)},
				{want: intPtr(1)},
				{push: intPtr(100)},
				{push: intPtr(200)},
				{want: intPtr(2)},
				{want: intPtr(3)},
				{want: intPtr(100)},
				{want: intPtr(200)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New[int]([]string{global.NSTest}, tt.capacity, 2, global.DefaultMaxQueueSize)
			if err != nil {
				t.Fatalf("expected no error in creating queue, but got '%v'", err)
			}

			for i, op := range tt.ops {
				if op.push != nil {
					if ok := q.Push(*op.push, 8); ok == op.full {
						t.Fatalf("op %d: push(%d) success=%t, expected full=%t", i, *op.push, ok, op.full)
					}
					continue
				}
				got, ok := q.Pop(context.Background())
				if !ok || got != *op.want {
					t.Fatalf("op %d: pop = %d (ok=%t), want %d", i, got, ok, *op.want)
				}
			}
		})
	}
}

func TestNewQueueInvalidCapacity(t *testing.T) {
	for _, capacity := range []uint64{0, 1, 3, 100} {
		if _, err := New[int]([]string{global.NSTest}, capacity, 2, 64); err == nil {
			t.Errorf("capacity %d: expected error", capacity)
		}
	}
}

func TestByteAccounting(t *testing.T) {
	q, _ := New[string]([]string{global.NSTest}, 8, 2, 64)
	q.Push("a", 100)
	q.Push("b", 50)
	if q.Bytes() != 150 || q.Len() != 2 {
		t.Fatalf("bytes=%d len=%d, want 150/2", q.Bytes(), q.Len())
	}
	q.Pop(context.Background())
	if q.Bytes() != 50 || q.Len() != 1 {
		t.Fatalf("bytes=%d len=%d after pop, want 50/1", q.Bytes(), q.Len())
	}
}

func TestPopHonorsContext(t *testing.T) {
	q, _ := New[int]([]string{global.NSTest}, 4, 2, 64)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, ok := q.Pop(ctx); ok {
		t.Fatal("pop on empty queue should fail after cancel")
	}
	if time.Since(start) > time.Second {
		t.Fatal("pop did not return promptly after cancel")
	}
}

func TestPushBlockingHonorsContext(t *testing.T) {
	q, _ := New[int]([]string{global.NSTest}, 2, 2, 64)
	q.Push(1, 1)
	q.Push(2, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if q.PushBlocking(ctx, 3, 1) {
		t.Fatal("blocking push into full queue should give up on cancel")
	}
}

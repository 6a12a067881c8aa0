package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolRunsEveryJob(t *testing.T) {
	for _, workers := range []int{1, 4} {
		pool := Start(context.Background(), workers)

		var n atomic.Int64
		results := make([]int, 100)
		for i := range results {
			ok := pool.Go(func(context.Context) error {
				results[i] = i * i
				n.Add(1)
				return nil
			})
			if !ok {
				t.Fatalf("workers=%d: Go() refused job %d", workers, i)
			}
		}
		if err := pool.Wait(); err != nil {
			t.Fatalf("workers=%d: Wait() error = %v", workers, err)
		}

		if got := n.Load(); got != 100 {
			t.Fatalf("workers=%d: ran %d jobs, want 100", workers, got)
		}
		for i, r := range results {
			if r != i*i {
				t.Fatalf("workers=%d: results[%d] = %d", workers, i, r)
			}
		}
	}
}

func TestSingleWorkerRunsInline(t *testing.T) {
	pool := Start(context.Background(), 1)
	ran := false
	pool.Go(func(context.Context) error {
		ran = true
		return nil
	})
	if !ran {
		t.Error("single worker pool should run the job before Go returns")
	}
	if err := pool.Wait(); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestPoolStopsAfterFirstError(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		workers int
	}{
		{name: "inline", workers: 1},
		{name: "workers", workers: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := Start(context.Background(), tt.workers)

			var ran atomic.Int64
			submitted := 0
			for i := range 1000 {
				ok := pool.Go(func(ctx context.Context) error {
					ran.Add(1)
					if i == 0 {
						return errBoom
					}
					<-ctx.Done()
					return nil
				})
				if !ok {
					break
				}
				submitted++
			}

			if err := pool.Wait(); !errors.Is(err, errBoom) {
				t.Fatalf("Wait() error = %v, want %v", err, errBoom)
			}
			if tt.workers == 1 && (submitted != 0 || ran.Load() != 1) {
				t.Errorf("inline pool: submitted=%d ran=%d, want 0 and 1", submitted, ran.Load())
			}
			if submitted == 1000 || ran.Load() == 1000 {
				t.Errorf("pool kept taking work after the first failure: submitted=%d ran=%d", submitted, ran.Load())
			}
			if pool.Go(func(context.Context) error { return nil }) {
				t.Error("Go() after failure should report the pool as stopped")
			}
		})
	}
}

func TestPoolParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := Start(ctx, 4)
	if pool.Go(func(context.Context) error { return nil }) {
		t.Error("Go() on a cancelled context should refuse work")
	}
	if err := pool.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolWaitJoinsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	var done int64

	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 20 {
		t.Errorf("completed jobs: got %d, want 20", done)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const limit = 2
	pool := NewWorkerPool(limit)

	var mu sync.Mutex
	running, peak := 0, 0

	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	pool.Wait()

	if peak > limit {
		t.Errorf("peak concurrency: got %d, want <= %d", peak, limit)
	}
}

func TestWorkerPoolNonPositiveSize(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.Size() != 1 {
		t.Errorf("size: got %d, want 1", pool.Size())
	}

	ran := false
	pool.Submit(func() { ran = true })
	pool.Wait()
	if !ran {
		t.Error("job did not run")
	}
}

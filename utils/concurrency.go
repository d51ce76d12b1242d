package utils

import (
	"sync"
)

// WorkerPool runs submitted jobs on at most maxWorkers goroutines.
// Wait joins every job submitted so far.
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool with the given concurrency.
// A non-positive maxWorkers runs jobs one at a time.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job for execution in the pool. It blocks while all
// workers are busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Size returns the maximum number of concurrent jobs.
func (wp *WorkerPool) Size() int {
	return wp.maxWorkers
}

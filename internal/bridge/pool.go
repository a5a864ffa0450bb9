package bridge

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers bounds concurrent inspections when no size is configured
const DefaultWorkers = 4

// Pool runs jobs on at most size goroutines at a time. Jobs queue until a
// slot frees up; they are never cancelled.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool creates a pool with the given number of slots
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Go schedules fn on the pool
func (p *Pool) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// Background never expires, so Acquire only returns once a slot is free
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		fn()
	}()
}

// Wait blocks until every scheduled job has finished
func (p *Pool) Wait() {
	p.wg.Wait()
}

package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// SieveFunc sieves one half-open range against the given base primes.
type SieveFunc func(low, high uint64, basePrimes []uint64) []uint64

// WorkerPool executes sieve tasks across a fixed number of goroutines.
// Completion order is unconstrained. Both channels are buffered to the
// worker count, so a scheduler that caps in-flight tasks at the worker
// count never blocks on Submit.
type WorkerPool struct {
	tasks   chan Task
	results chan Result
	sieve   SieveFunc
	wg      sync.WaitGroup
}

// NewWorkerPool starts workers goroutines running the given sieve function.
func NewWorkerPool(workers int, sieve SieveFunc) *WorkerPool {
	pool := &WorkerPool{
		tasks:   make(chan Task, workers),
		results: make(chan Result, workers),
		sieve:   sieve,
	}

	pool.wg.Add(workers)

	for range workers {
		go pool.worker()
	}

	return pool
}

// worker consumes tasks until the task channel is closed.
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		p.results <- p.run(task)
	}
}

// run executes one task, converting panics into Result errors so a failed
// segment surfaces to the coordinator instead of crashing the process.
func (p *WorkerPool) run(task Task) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res.Primes = nil
			res.Err = fmt.Errorf("segment %d [%d,%d): worker panic: %v", task.Ordinal, task.Low, task.High, r)
		}
	}()

	res.Ordinal = task.Ordinal
	res.High = task.High

	started := time.Now()
	res.Primes = p.sieve(task.Low, task.High, task.BasePrimes)
	res.Duration = time.Since(started)

	return res
}

// Submit queues a task for execution.
func (p *WorkerPool) Submit(task Task) {
	p.tasks <- task
}

// Results returns the completion channel. One Result arrives per submitted
// task, in completion order.
func (p *WorkerPool) Results() <-chan Result {
	return p.results
}

// Close stops accepting tasks, waits for workers to finish, and closes the
// results channel. Safe while results are still buffered: the buffer holds
// one slot per worker, which covers every in-flight task under the
// scheduler's window cap.
func (p *WorkerPool) Close() {
	close(p.tasks)
	p.wg.Wait()
	close(p.results)
}

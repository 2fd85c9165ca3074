package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

// Pool executes indexed jobs on a fixed number of workers. Results land
// at their job's index, so output order matches submission order no
// matter which job finishes first.
type Pool struct {
	workers  int
	jobQueue chan indexedJob
	out      []Result
	wg       sync.WaitGroup
	ctx      context.Context
}

// NewPool creates a pool sized for a known number of jobs
func NewPool(ctx context.Context, workers, jobs int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if workers > jobs && jobs > 0 {
		workers = jobs
	}

	return &Pool{
		workers:  workers,
		jobQueue: make(chan indexedJob, jobs),
		out:      make([]Result, jobs),
		ctx:      ctx,
	}
}

// Start starts the worker goroutines
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker drains the queue to completion. Jobs observe cancellation
// through the pool context; the queue itself is always fully consumed so
// every index receives a result.
func (p *Pool) worker() {
	defer p.wg.Done()

	for j := range p.jobQueue {
		p.out[j.index] = j.job.Execute(p.ctx)
	}
}

// Submit enqueues one job at its output index
func (p *Pool) Submit(index int, job Job) {
	p.jobQueue <- indexedJob{index: index, job: job}
}

// Wait closes the queue, waits for the workers, and returns the results
// in submission order.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	return p.out
}

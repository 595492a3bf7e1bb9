package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/alde/trombinoscope/pkg/progress"
)

// Job represents a unit of work to be processed
type Job interface {
	Process(ctx context.Context) error
	ID() string
}

// Result contains the outcome of processing a job
type Result struct {
	JobID string
	Error error
}

// Pool manages a pool of worker goroutines
type Pool struct {
	workerCount int
	jobs        chan Job
	results     chan Result
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	progress    *progress.Tracker
}

// NewPool creates a new worker pool. The results channel holds up to
// capacity results, so a caller that submits every job before reading
// results must pass at least the number of jobs.
func NewPool(ctx context.Context, workerCount, capacity int) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if capacity < workerCount*2 {
		capacity = workerCount * 2
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workerCount: workerCount,
		jobs:        make(chan Job, workerCount*2),
		results:     make(chan Result, capacity),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// WithProgress reports every finished job to tracker.
func (p *Pool) WithProgress(tracker *progress.Tracker) *Pool {
	p.progress = tracker
	return p
}

// Start begins processing jobs
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop waits for queued jobs to finish and shuts down the pool
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

// Submit adds a job to the processing queue
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	case <-p.ctx.Done():
		p.results <- Result{
			JobID: job.ID(),
			Error: p.ctx.Err(),
		}
	}
}

// Results returns the results channel
func (p *Pool) Results() <-chan Result {
	return p.results
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			var err error
			if err = p.ctx.Err(); err == nil {
				err = job.Process(p.ctx)
			}

			if p.progress != nil {
				p.progress.Done(job.ID())
			}

			p.results <- Result{
				JobID: job.ID(),
				Error: err,
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// WorkerCount returns the number of workers in the pool
func (p *Pool) WorkerCount() int {
	return p.workerCount
}

// Run processes jobs on workerCount workers and returns their results in
// completion order.
func Run(ctx context.Context, workerCount int, jobs []Job, tracker *progress.Tracker) []Result {
	pool := NewPool(ctx, workerCount, len(jobs)).WithProgress(tracker)
	pool.Start()

	for _, job := range jobs {
		pool.Submit(job)
	}
	pool.Stop()

	results := make([]Result, 0, len(jobs))
	for result := range pool.Results() {
		results = append(results, result)
	}
	return results
}

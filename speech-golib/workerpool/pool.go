package workerpool

import (
	"sync"

	"github.com/kiteco/speechlm/speech-golib/errors"
)

// Job is a unit of work run by the Pool.
type Job func() error

// Pool runs jobs on a fixed number of goroutines.
type Pool struct {
	jobs    chan Job
	quit    chan struct{}
	stop    sync.Once
	pending sync.WaitGroup

	m    sync.Mutex
	errs errors.Errors
}

// New returns a Pool backed by n goroutines (at least one).
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan Job),
		quit: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

// Add schedules the jobs and returns immediately.
func (p *Pool) Add(jobs []Job) {
	p.pending.Add(len(jobs))
	go p.dispatch(jobs)
}

// AddBlocking schedules the jobs and returns once every job has been handed to a worker.
func (p *Pool) AddBlocking(jobs []Job) {
	p.pending.Add(len(jobs))
	p.dispatch(jobs)
}

// Wait blocks until all scheduled jobs have finished or been dropped by Stop, and returns
// the errors they produced since the previous call to Wait.
func (p *Pool) Wait() error {
	p.pending.Wait()

	p.m.Lock()
	defer p.m.Unlock()
	errs := p.errs
	p.errs = nil
	if errs == nil {
		return nil
	}
	return errs
}

// Stop terminates the workers. Jobs that have not started yet are dropped.
func (p *Pool) Stop() {
	p.stop.Do(func() {
		close(p.quit)
	})
}

func (p *Pool) dispatch(jobs []Job) {
	for i, job := range jobs {
		select {
		case p.jobs <- job:
		case <-p.quit:
			for range jobs[i:] {
				p.pending.Done()
			}
			return
		}
	}
}

func (p *Pool) worker() {
	for {
		select {
		case job := <-p.jobs:
			p.run(job)
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) run(job Job) {
	defer p.pending.Done()
	if err := job(); err != nil {
		p.m.Lock()
		p.errs = errors.Append(p.errs, err)
		p.m.Unlock()
	}
}

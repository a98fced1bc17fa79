package sim

import "sync"

// Pool is a bounded worker pool: a fixed number of goroutines consume
// submitted tasks from a channel. There is no cancellation; a stalled
// task stalls its day.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewPool starts workers goroutines.
func NewPool(workers int) *Pool {
	p := &Pool{
		tasks: make(chan func(), workers*4),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Submit queues one task. Blocks when the queue is full.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close drains the queue and waits for all workers to exit.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}

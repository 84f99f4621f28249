package pipeline

import (
	"context"
	"sync"
)

type task func(ctx context.Context)

// workerPool runs submitted tasks on a fixed number of goroutines. Batch runs use it to
// process several subjects at once; each task is still one subject's sequential run.
type workerPool struct {
	workers int
	tasks   chan task
	wg      sync.WaitGroup
}

func newWorkerPool(workers, buffer int) *workerPool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &workerPool{
		workers: workers,
		tasks:   make(chan task, buffer),
	}
}

// submit blocks until a worker or buffer slot takes t, or ctx ends. It reports whether t
// was accepted.
func (p *workerPool) submit(ctx context.Context, t task) bool {
	if t == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case p.tasks <- t:
		return true
	}
}

func (p *workerPool) start(ctx context.Context) {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				t(ctx)
			}
		}()
	}
}

// closeAndWait stops intake and waits for accepted tasks to finish.
func (p *workerPool) closeAndWait() {
	close(p.tasks)
	p.wg.Wait()
}

package net

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// taskChanSize bounds the connection-handling task queue. Adapted verbatim
// from the teacher's internal/worker.go TASK_CHAN_SIZE.
const taskChanSize = 100

// WorkerFunc processes one task; a non-nil error is logged and the worker
// goes on to its next task.
type WorkerFunc func(t *tomb.Tomb, task any) error

// WorkerPool is a fixed-size pool of tomb-supervised goroutines pulling
// tasks off a shared channel, adapted from the teacher's internal/worker.go
// (originally an orphaned draft importing a nonexistent "internal/utils"
// package; folded directly into internal/net, the one place it is used).
type WorkerPool struct {
	size  int
	tasks chan any
	work  WorkerFunc
}

// NewWorkerPool constructs a pool of size workers.
func NewWorkerPool(size int) *WorkerPool {
	return &WorkerPool{
		size:  size,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues a task for the next free worker.
func (p *WorkerPool) AddTask(task any) {
	p.tasks <- task
}

// Setup starts size workers under t, restarting none on exit: a worker
// that returns (on t.Dying or natural completion) is simply done, mirroring
// the teacher's "maintain a full pool of workers" loop.
func (p *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	p.work = work
	log.Info().Int("workers", p.size).Msg("starting worker pool")
	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.loop(t)
		})
	}
}

func (p *WorkerPool) loop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := p.work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}

package resend

import (
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

// Scheduler runs tasks asynchronously.
type Scheduler interface {
	// Schedule runs task once, after delay, on another goroutine.
	// It must not block for the duration of the delay.
	Schedule(delay time.Duration, task func()) error
}

// Go returns a Scheduler that starts a goroutine per task.
func Go() Scheduler {
	return goScheduler{}
}

type goScheduler struct{}

func (goScheduler) Schedule(delay time.Duration, task func()) error {
	if delay <= 0 {
		go task()
		return nil
	}
	time.AfterFunc(delay, task)
	return nil
}

// Pool is a Scheduler that reuses a bounded set of goroutines.
// Schedule never waits for a worker: when every worker is busy, the
// task runs on a goroutine of its own.
type Pool struct {
	pool *ants.Pool
}

// NewPool creates a pool of at most size workers.
func NewPool(size int) (*Pool, error) {
	p, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create worker pool")
	}
	return &Pool{pool: p}, nil
}

// Schedule implements Scheduler. Tasks whose delay expires after the
// pool was released still run, on their own goroutine, so that no
// record is left without a terminal state.
func (p *Pool) Schedule(delay time.Duration, task func()) error {
	if delay <= 0 {
		return errors.Wrap(p.submit(task), "cannot schedule task")
	}
	time.AfterFunc(delay, func() {
		if err := p.submit(task); err != nil {
			go task()
		}
	})
	return nil
}

func (p *Pool) submit(task func()) error {
	err := p.pool.Submit(task)
	if errors.Is(err, ants.ErrPoolOverload) {
		go task()
		return nil
	}
	return err
}

// Running returns the number of busy workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release stops the pool. Tasks scheduled afterwards fail.
func (p *Pool) Release() {
	p.pool.Release()
}

package resend

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/retry.v1"

	"github.com/heetch/courier/delivery"
)

// Try sends one attempt of a record. Attempts are numbered from zero.
// Try must not block: it reports the result of the attempt by calling
// report exactly once, from any goroutine. A nil error means the
// attempt succeeded.
type Try func(attempt int, report func(error))

// Done receives the terminal result of a record: the number of
// attempts made and, unless the record succeeded, an *ExhaustedError.
type Done func(attempts int, err error)

// Engine runs records through the retry state machine.
// An Engine is safe for concurrent use and keeps no per-record state.
type Engine struct {
	maxRetries int
	strategy   retry.Strategy
	scheduler  Scheduler
	retryable  func(error) bool
	observer   func(Transition)
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackoff sets the delay strategy between attempts. A strategy that
// stops before the retry bound is reached exhausts the record early.
// Defaults to Immediate.
func WithBackoff(s retry.Strategy) Option {
	return func(e *Engine) {
		if s != nil {
			e.strategy = s
		}
	}
}

// WithScheduler sets the scheduler retries are submitted to.
// Defaults to Go.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithClassifier sets the function deciding whether a failure may be
// retried. Defaults to delivery.IsRetryable.
func WithClassifier(f func(error) bool) Option {
	return func(e *Engine) {
		if f != nil {
			e.retryable = f
		}
	}
}

// WithObserver registers a function called on every state change.
// It is called synchronously and must be quick.
func WithObserver(f func(Transition)) Option {
	return func(e *Engine) {
		e.observer = f
	}
}

// New returns an engine that sends a record at most maxRetries+1 times.
func New(maxRetries int, opts ...Option) *Engine {
	if maxRetries < 0 {
		maxRetries = 0
	}
	e := &Engine{
		maxRetries: maxRetries,
		strategy:   Immediate(),
		scheduler:  Go(),
		retryable:  delivery.IsRetryable,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxRetries returns the retry bound of e.
func (e *Engine) MaxRetries() int {
	return e.maxRetries
}

// Run sends a record with try until it succeeds or is exhausted, then
// calls done. The first attempt is made before Run returns; later
// attempts run on the engine's scheduler.
func (e *Engine) Run(try Try, done Done) {
	r := &run{
		engine: e,
		try:    try,
		done:   done,
		timer:  e.strategy.NewTimer(time.Now()),
		state:  Pending,
	}
	r.submit(0)
}

// run is the state of one record. Its fields are only touched by the
// attempt in flight, so attempts never overlap.
type run struct {
	engine *Engine
	try    Try
	done   Done
	timer  retry.Timer
	state  State
}

func (r *run) submit(attempt int) {
	r.transition(attempt, Sent, nil)
	var once sync.Once
	r.try(attempt, func(err error) {
		once.Do(func() {
			r.settle(attempt, err)
		})
	})
}

func (r *run) settle(attempt int, err error) {
	if err == nil {
		r.transition(attempt, Succeeded, nil)
		r.done(attempt+1, nil)
		return
	}
	r.transition(attempt, Failed, err)
	if attempt >= r.engine.maxRetries || !r.engine.retryable(err) {
		r.exhaust(attempt, err)
		return
	}
	delay, ok := r.timer.NextSleep(time.Now())
	if !ok {
		r.exhaust(attempt, err)
		return
	}
	next := attempt + 1
	r.transition(next, Pending, err)
	if serr := r.engine.scheduler.Schedule(delay, func() { r.submit(next) }); serr != nil {
		r.exhaust(attempt, errors.WithMessagef(err, "retry not scheduled (%v)", serr))
	}
}

func (r *run) exhaust(attempt int, err error) {
	r.transition(attempt, Exhausted, err)
	r.done(attempt+1, &ExhaustedError{Attempts: attempt + 1, Err: err})
}

func (r *run) transition(attempt int, to State, err error) {
	from := r.state
	r.state = to
	if r.engine.observer != nil {
		r.engine.observer(Transition{Attempt: attempt, From: from, To: to, Err: err})
	}
}

// Package scheduler runs recurring background jobs alongside the HTTP server.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"REMINDME_BACK-END/internal/logging"
)

var ErrAlreadyStarted = errors.New("scheduler: runner already started")

// State is the observable state of a Runner.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Task is one execution of a recurring job.
type Task func(ctx context.Context) error

// Runner executes a Task every Interval until stopped. Ticks never overlap.
type Runner struct {
	name       string
	interval   time.Duration
	runOnStart bool
	task       Task
	logger     logging.Logger

	state atomic.Int32
	runs  atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type RunnerOption func(*Runner)

// WithRunOnStart makes the runner execute the task immediately on Start.
func WithRunOnStart(v bool) RunnerOption {
	return func(r *Runner) { r.runOnStart = v }
}

const DefaultInterval = 5 * time.Minute

func NewRunner(name string, interval time.Duration, task Task, logger logging.Logger, opts ...RunnerOption) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Runner{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With("runner", name),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the loop. It returns immediately; the loop ends when ctx is
// cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)
	r.logger.Info(ctx, "runner started", "interval", r.interval.String())
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to return. It is safe
// to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the loop has exited. It is nil before Start.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Runner) State() State {
	return State(r.state.Load())
}

// Runs reports how many ticks have completed.
func (r *Runner) Runs() int64 {
	return r.runs.Load()
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if r.runOnStart {
		r.tick(ctx)
	}

	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			r.logger.Info(context.Background(), "runner stopped")
			return
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r.state.Store(int32(StateRunning))
	defer r.state.Store(int32(StateIdle))
	defer r.runs.Add(1)

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error(ctx, "task panicked", "panic", p)
		}
	}()

	start := time.Now()
	if err := r.task(ctx); err != nil {
		r.logger.Error(ctx, "task failed", "error", err, "duration", time.Since(start).String())
		return
	}
	r.logger.Debug(ctx, "task finished", "duration", time.Since(start).String())
}

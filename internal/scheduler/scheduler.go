// Package scheduler runs named background jobs on fixed intervals or wall-clock schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const minimumWait = time.Millisecond

var (
	// ErrInvalidJob reports a job without a name, schedule or function.
	ErrInvalidJob = errors.New("scheduler: invalid job")
	// ErrAlreadyStarted reports a second Start on the same Scheduler.
	ErrAlreadyStarted = errors.New("scheduler: already started")
)

// Job is a unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	// Next, when set, replaces Interval: the job runs at each returned time, which must be after now.
	Next func(ctx context.Context, now time.Time) time.Time
	// RunOnStart executes the job once immediately instead of waiting for the first tick.
	RunOnStart bool
	// OnStart, when set, runs once at start in place of Run.
	OnStart func(ctx context.Context) error
	Run     func(ctx context.Context) error
}

// Scheduler owns one goroutine per job.
type Scheduler struct {
	logger *zap.Logger
	jobs   []Job

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New validates jobs and returns a stopped Scheduler.
func New(logger *zap.Logger, jobs ...Job) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, job := range jobs {
		if strings.TrimSpace(job.Name) == "" || (job.Interval <= 0 && job.Next == nil) || job.Run == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidJob, job.Name)
		}
	}
	return &Scheduler{logger: logger, jobs: jobs}, nil
}

// Start launches every job. Jobs stop when ctx is cancelled or Stop is called.
func (scheduler *Scheduler) Start(ctx context.Context) error {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.started {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	scheduler.cancel = cancel
	scheduler.started = true
	for _, job := range scheduler.jobs {
		scheduler.wg.Add(1)
		go scheduler.loop(runCtx, job)
		if job.Next != nil {
			scheduler.logger.Info("scheduler job started", zap.String("job", job.Name), zap.String("schedule", "wall clock"))
			continue
		}
		scheduler.logger.Info("scheduler job started", zap.String("job", job.Name), zap.Duration("interval", job.Interval))
	}
	return nil
}

// Stop cancels all jobs and waits for in-flight runs to return.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	cancel := scheduler.cancel
	scheduler.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	scheduler.wg.Wait()
	scheduler.logger.Info("scheduler stopped")
}

func (scheduler *Scheduler) loop(ctx context.Context, job Job) {
	defer scheduler.wg.Done()
	switch {
	case job.OnStart != nil:
		scheduler.runOnce(ctx, job.Name, job.OnStart)
	case job.RunOnStart:
		scheduler.runOnce(ctx, job.Name, job.Run)
	}
	if job.Next != nil {
		scheduler.loopAt(ctx, job)
		return
	}
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scheduler.runOnce(ctx, job.Name, job.Run)
		}
	}
}

func (scheduler *Scheduler) loopAt(ctx context.Context, job Job) {
	for {
		now := time.Now()
		wait := job.Next(ctx, now).Sub(now)
		if wait < minimumWait {
			wait = minimumWait
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			scheduler.runOnce(ctx, job.Name, job.Run)
		}
	}
}

func (scheduler *Scheduler) runOnce(ctx context.Context, name string, run func(ctx context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			scheduler.logger.Error("scheduler job panicked", zap.String("job", name), zap.Any("panic", recovered))
		}
	}()
	if err := run(ctx); err != nil {
		scheduler.logger.Error("scheduler job failed", zap.String("job", name), zap.Error(err))
	}
}

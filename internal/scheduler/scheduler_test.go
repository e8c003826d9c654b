package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsInvalidJobs(test *testing.T) {
	test.Parallel()
	noop := func(context.Context) error { return nil }
	testCases := []struct {
		name string
		job  Job
	}{
		{name: "missing name", job: Job{Interval: time.Second, Run: noop}},
		{name: "no schedule", job: Job{Name: "job", Run: noop}},
		{name: "missing func", job: Job{Name: "job", Interval: time.Second}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if _, err := New(nil, testCase.job); !errors.Is(err, ErrInvalidJob) {
				test.Fatalf("expected ErrInvalidJob, got %v", err)
			}
		})
	}
}

func TestSchedulerRunsOnStartAndOnTicks(test *testing.T) {
	test.Parallel()
	var immediate atomic.Int32
	var ticked atomic.Int32
	scheduler, err := New(nil,
		Job{Name: "immediate", Interval: time.Hour, RunOnStart: true, Run: func(context.Context) error {
			immediate.Add(1)
			return nil
		}},
		Job{Name: "ticking", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			ticked.Add(1)
			return nil
		}},
	)
	if err != nil {
		test.Fatalf("new failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); err != nil {
		test.Fatalf("start failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		test.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for ticked.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	scheduler.Stop()
	if immediate.Load() != 1 {
		test.Fatalf("expected one immediate run, got %d", immediate.Load())
	}
	if ticked.Load() < 2 {
		test.Fatalf("expected at least two ticks, got %d", ticked.Load())
	}
	afterStop := ticked.Load()
	time.Sleep(20 * time.Millisecond)
	if ticked.Load() != afterStop {
		test.Fatalf("expected no runs after stop")
	}
}

func TestSchedulerLogsFailuresAndPanics(test *testing.T) {
	test.Parallel()
	core, recorded := observer.New(zapcore.ErrorLevel)
	done := make(chan struct{}, 2)
	scheduler, err := New(zap.New(core),
		Job{Name: "failing", Interval: time.Hour, RunOnStart: true, Run: func(context.Context) error {
			defer func() { done <- struct{}{} }()
			return errors.New("boom")
		}},
		Job{Name: "panicking", Interval: time.Hour, RunOnStart: true, Run: func(context.Context) error {
			defer func() { done <- struct{}{} }()
			panic("bad")
		}},
	)
	if err != nil {
		test.Fatalf("new failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); err != nil {
		test.Fatalf("start failed: %v", err)
	}
	<-done
	<-done
	scheduler.Stop()
	if recorded.FilterMessage("scheduler job failed").Len() != 1 {
		test.Fatalf("expected failure to be logged, got %+v", recorded.All())
	}
	if recorded.FilterMessage("scheduler job panicked").Len() != 1 {
		test.Fatalf("expected panic to be logged, got %+v", recorded.All())
	}
}

func TestSchedulerRunsWallClockJobs(test *testing.T) {
	test.Parallel()
	var runs atomic.Int32
	var asked atomic.Int32
	scheduler, err := New(nil, Job{
		Name: "wall-clock",
		Next: func(ctx context.Context, now time.Time) time.Time {
			asked.Add(1)
			return now.Add(5 * time.Millisecond)
		},
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		test.Fatalf("new failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); err != nil {
		test.Fatalf("start failed: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	scheduler.Stop()
	if runs.Load() < 2 {
		test.Fatalf("expected at least two scheduled runs, got %d", runs.Load())
	}
	if asked.Load() < runs.Load() {
		test.Fatalf("expected the schedule to be re-armed after every run, asked %d for %d runs", asked.Load(), runs.Load())
	}
}

func TestOnStartRunsInEveryShortLivedProcess(test *testing.T) {
	test.Parallel()
	const restarts = 3
	var started atomic.Int32
	var scheduled atomic.Int32
	for restart := 0; restart < restarts; restart++ {
		ran := make(chan struct{})
		scheduler, err := New(nil, Job{
			Name: "sqlite-backup",
			Next: func(ctx context.Context, now time.Time) time.Time { return now.Add(24 * time.Hour) },
			OnStart: func(context.Context) error {
				started.Add(1)
				close(ran)
				return nil
			},
			Run: func(context.Context) error {
				scheduled.Add(1)
				return nil
			},
		})
		if err != nil {
			test.Fatalf("new failed: %v", err)
		}
		if err := scheduler.Start(context.Background()); err != nil {
			test.Fatalf("start failed: %v", err)
		}
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			test.Fatalf("expected start run in process %d", restart)
		}
		scheduler.Stop()
	}
	if started.Load() != restarts {
		test.Fatalf("expected %d start runs, got %d", restarts, started.Load())
	}
	if scheduled.Load() != 0 {
		test.Fatalf("expected no scheduled runs before the wall-clock time, got %d", scheduled.Load())
	}
}

package scheduler_service_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/scheduler_service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var scheduler scheduler_service.Scheduler

func TestMain(m *testing.M) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetLevel(logrus.WarnLevel)

	scheduler = scheduler_service.Scheduler{
		QueueBuffer:   10,
		MaxConcurrent: 2,
	}
	scheduler.Start(context.Background())

	code := m.Run()
	scheduler.Stop()
	os.Exit(code)
}

func assertTaskState(
	t *testing.T,
	taskID uuid.UUID,
	state scheduler_service.TaskState,
	within time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(within)
	var currentState scheduler_service.TaskState
	for time.Now().Before(deadline) {
		var err error
		currentState, err = scheduler.GetTaskState(taskID)
		if err != nil {
			t.Errorf("error getting task state: %v", err)
			return
		}
		if currentState == state {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("task %v stuck in state %v, waiting for %v", taskID, currentState, state)
}

func TestTaskRun(t *testing.T) {
	tasks := []struct {
		name  string
		run   func(ctx context.Context) error
		state scheduler_service.TaskState
	}{
		{
			name:  "run_no_error",
			run:   func(ctx context.Context) error { return nil },
			state: scheduler_service.StateCompleted,
		},
		{
			name:  "run_with_error",
			run:   func(ctx context.Context) error { return potd_errors.ErrUpstreamUnavailable },
			state: scheduler_service.StateFailed,
		},
		{
			name:  "run_with_panic",
			run:   func(ctx context.Context) error { panic("boom") },
			state: scheduler_service.StateFailed,
		},
	}

	for _, task := range tasks {
		var launched atomic.Bool
		taskID, err := scheduler.ScheduleTask(scheduler_service.TaskRequest{
			Name: task.name,
			Run:  task.run,
			OnLaunchComplete: func(response scheduler_service.TaskResponse) {
				launched.Store(true)
			},
		})
		if err != nil {
			t.Error(err)
			continue
		}

		assertTaskState(t, taskID, task.state, 2*time.Second)

		for range 50 {
			if launched.Load() {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if !launched.Load() {
			t.Errorf("%v OnLaunchComplete was not called in time", task.name)
		}
	}
}

func TestTaskTimeout(t *testing.T) {
	errs := make(chan error, 1)
	taskID, err := scheduler.ScheduleTask(scheduler_service.TaskRequest{
		Name:    "timeout",
		Timeout: 50 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		OnLaunchComplete: func(response scheduler_service.TaskResponse) {
			errs <- response.Error
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	assertTaskState(t, taskID, scheduler_service.StateFailed, 2*time.Second)
	if err := <-errs; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestCancelRunningTask(t *testing.T) {
	started := make(chan struct{})
	taskID, err := scheduler.ScheduleTask(scheduler_service.TaskRequest{
		Name: "long_running",
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
		OnLaunchComplete: func(response scheduler_service.TaskResponse) {},
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task never started")
	}
	if state, _ := scheduler.GetTaskState(taskID); state != scheduler_service.StateRunning {
		t.Errorf("expected running, got %v", state)
	}

	if err = scheduler.CancelTask(taskID); err != nil {
		t.Fatal(err)
	}
	assertTaskState(t, taskID, scheduler_service.StateCancelled, 2*time.Second)

	info, err := scheduler.GetTask(taskID)
	if err != nil || info.Name != "long_running" || info.Error == "" {
		t.Errorf("unexpected task info %+v, %v", info, err)
	}
}

func TestScheduleTaskValidation(t *testing.T) {
	noop := func(response scheduler_service.TaskResponse) {}
	requests := []scheduler_service.TaskRequest{
		{Run: func(ctx context.Context) error { return nil }, OnLaunchComplete: noop},
		{Name: "no_run", OnLaunchComplete: noop},
		{Name: "no_callback", Run: func(ctx context.Context) error { return nil }},
	}
	for _, req := range requests {
		if _, err := scheduler.ScheduleTask(req); !errors.Is(err, potd_errors.ErrInvalidRequest) {
			t.Errorf("expected invalid request for %+v, got %v", req.Name, err)
		}
	}

	if _, err := scheduler.GetTaskState(uuid.New()); !errors.Is(err, potd_errors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestScheduleNext(t *testing.T) {
	sunday := time.Sunday
	now := time.Date(2025, time.March, 14, 23, 30, 0, 0, time.UTC) // friday

	tests := []struct {
		name     string
		schedule string
		now      time.Time
		want     time.Time
	}{
		{"later today", "23:45", now, time.Date(2025, time.March, 14, 23, 45, 0, 0, time.UTC)},
		{"tomorrow", "00:05", now, time.Date(2025, time.March, 15, 0, 5, 0, 0, time.UTC)},
		{"exact time rolls over", "23:30", now, time.Date(2025, time.March, 15, 23, 30, 0, 0, time.UTC)},
		{"weekly", "Sun 00:10", now, time.Date(2025, time.March, 16, 0, 10, 0, 0, time.UTC)},
		{"weekly same day passed", "Fri 00:10", now, time.Date(2025, time.March, 21, 0, 10, 0, 0, time.UTC)},
		{"converted to utc", "00:05", now.In(time.FixedZone("IST", 19800)), time.Date(2025, time.March, 15, 0, 5, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := scheduler_service.ParseSchedule(tt.schedule)
			if err != nil {
				t.Fatal(err)
			}
			if got := schedule.Next(tt.now); !got.Equal(tt.want) {
				t.Errorf("Next = %v, want %v", got, tt.want)
			}
		})
	}

	weekly, _ := scheduler_service.ParseSchedule("sunday 00:10")
	if weekly.Weekday == nil || *weekly.Weekday != sunday {
		t.Errorf("full weekday name not parsed")
	}
}

func TestParseScheduleErrors(t *testing.T) {
	for _, value := range []string{"", "24:00", "12:60", "noon", "Someday 10:00", "Sun 10:00 extra"} {
		if _, err := scheduler_service.ParseSchedule(value); !errors.Is(err, potd_errors.ErrInvalidInput) {
			t.Errorf("ParseSchedule(%q) expected invalid input, got %v", value, err)
		}
	}
}

func TestScheduleTaskQueueFull(t *testing.T) {
	small := scheduler_service.Scheduler{
		QueueBuffer:   1,
		MaxConcurrent: 1,
	}
	small.Start(context.Background())
	defer small.Stop()

	blocking := scheduler_service.TaskRequest{
		Name: "blocking",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		OnLaunchComplete: func(response scheduler_service.TaskResponse) {},
	}

	done := make(chan error, 1)
	go func() {
		// one running, one waiting for a slot, one buffered
		for range 10 {
			if _, err := small.ScheduleTask(blocking); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if !errors.Is(err, potd_errors.ErrTaskLaunchError) {
			t.Errorf("expected task launch error once the queue fills, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ScheduleTask blocked on a full queue")
	}

	small.Stop()
	if _, err := small.ScheduleTask(blocking); !errors.Is(err, potd_errors.ErrTaskLaunchError) {
		t.Errorf("expected task launch error after stop, got %v", err)
	}
}

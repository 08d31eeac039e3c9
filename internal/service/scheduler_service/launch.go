package scheduler_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/sirupsen/logrus"
)

func (s *Scheduler) launch() {
	for {
		select {
		case <-s.rootCtx.Done():
			logrus.Info("scheduler stopped, launch loop exiting")
			return
		case task := <-s.taskQueue:
			s.launchTask(task)
		}
	}
}

func (s *Scheduler) launchTask(req *Task) {
	if req == nil {
		logrus.Error("nil task received, cannot launch task")
		return
	}

	// make sure the task is still tracked
	if _, err := s.getTask(req.TaskID); err != nil {
		err = fmt.Errorf("%w, %w", potd_errors.ErrTaskLaunchError, err)
		logrus.Error(err)
		return
	}

	// wait for a free slot, tasks run in queue order
	select {
	case s.slots <- struct{}{}:
	case <-s.rootCtx.Done():
		s.finish(req, StateCancelled, s.rootCtx.Err())
		return
	}

	go s.execute(req)
}

func (s *Scheduler) execute(task *Task) {
	defer func() { <-s.slots }()

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if task.Timeout > 0 {
		ctx, cancel = context.WithTimeout(s.rootCtx, task.Timeout)
	} else {
		ctx, cancel = context.WithCancel(s.rootCtx)
	}
	defer cancel()

	task.Lock()
	if task.State != StateQueued {
		// cancelled while waiting for a slot
		task.Unlock()
		return
	}
	task.State = StateRunning
	task.LaunchTime = time.Now()
	task.CancelFunc = cancel
	task.Unlock()

	executeLogger := task.getLogger("executable_", "")
	executeLogger.Info("executing task")

	err := runSafely(ctx, task.Run)

	state := StateCompleted
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		state = StateCancelled
	default:
		state = StateFailed
	}
	s.finish(task, state, err)
}

func (s *Scheduler) finish(task *Task, state TaskState, err error) {
	task.Lock()
	task.State = state
	task.Err = err
	task.EndTime = time.Now()
	response := TaskResponse{
		TaskID: task.TaskID,
		Name:   task.Name,
		Error:  err,
	}
	if !task.LaunchTime.IsZero() {
		response.Duration = task.EndTime.Sub(task.LaunchTime)
	}
	task.Unlock()

	logger := task.getLogger("executable_", "")
	if err != nil {
		logger.WithField("state", state).Errorf("task finished with error, %v", err)
	} else {
		logger.WithField("duration", response.Duration).Info("task completed")
	}

	go task.OnLaunchComplete(response)
}

// runSafely turns a panicking job into a failed task instead of a dead process.
func runSafely(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w, task panicked, %v", potd_errors.ErrInternal, r)
		}
	}()
	return run(ctx)
}

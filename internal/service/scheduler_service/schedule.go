package scheduler_service

import (
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *Scheduler) ScheduleTask(req TaskRequest) (uuid.UUID, error) {
	// validate first
	err := validateTaskRequest(req)
	if err != nil {
		return uuid.Nil, err
	}
	if s.rootCtx == nil {
		return uuid.Nil, fmt.Errorf("%w, scheduler is not started", potd_errors.ErrTaskLaunchError)
	}
	if s.rootCtx.Err() != nil {
		return uuid.Nil, fmt.Errorf("%w, scheduler is stopped", potd_errors.ErrTaskLaunchError)
	}

	// generate a random taskID
	taskID := uuid.New()

	task := Task{
		TaskRequest: req,
		TaskID:      taskID,
		State:       StateQueued,
		QueueTime:   time.Now(),
	}

	logrus.WithFields(
		logrus.Fields{
			"task_id":   task.TaskID,
			"task_name": task.Name,
		},
	).Info("queueing task")

	s.taskMapLock.Lock()
	s.tasks[taskID] = &task
	s.taskMapLock.Unlock()

	select {
	case s.taskQueue <- &task:
		return taskID, nil
	case <-s.rootCtx.Done():
		s.forget(taskID)
		return uuid.Nil, fmt.Errorf("%w, scheduler is stopped", potd_errors.ErrTaskLaunchError)
	default:
		s.forget(taskID)
		return uuid.Nil, fmt.Errorf("%w, task queue is full", potd_errors.ErrTaskLaunchError)
	}
}

func validateTaskRequest(req TaskRequest) error {
	if req.Name == "" {
		return fmt.Errorf(
			"%w, task name cannot be empty",
			potd_errors.ErrInvalidRequest,
		)
	}

	if req.Run == nil {
		return fmt.Errorf(
			"%w, task %s has nothing to run",
			potd_errors.ErrInvalidRequest,
			req.Name,
		)
	}

	if req.Timeout < 0 {
		return fmt.Errorf(
			"%w, task timeout cannot be negative",
			potd_errors.ErrInvalidRequest,
		)
	}

	if req.OnLaunchComplete == nil {
		return fmt.Errorf(
			"%w, OnLaunchComplete callback cannot be nil",
			potd_errors.ErrInvalidRequest,
		)
	}

	return nil
}

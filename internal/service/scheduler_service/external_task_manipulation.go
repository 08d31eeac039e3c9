package scheduler_service

import (
	"context"

	"github.com/google/uuid"
)

func (s *Scheduler) GetTaskState(taskID uuid.UUID) (TaskState, error) {
	task, err := s.getTask(taskID)
	if err != nil {
		return StateUnknown, err
	}

	return task.getState(), nil
}

func (s *Scheduler) GetTask(taskID uuid.UUID) (TaskInfo, error) {
	task, err := s.getTask(taskID)
	if err != nil {
		return TaskInfo{}, err
	}

	task.Lock()
	defer task.Unlock()
	info := TaskInfo{
		TaskID:     task.TaskID,
		Name:       task.Name,
		State:      task.State,
		QueueTime:  task.QueueTime,
		LaunchTime: task.LaunchTime,
		EndTime:    task.EndTime,
	}
	if task.Err != nil {
		info.Error = task.Err.Error()
	}
	return info, nil
}

// CancelTask cancels a queued or running task. Finished tasks are left alone.
func (s *Scheduler) CancelTask(taskID uuid.UUID) error {
	task, err := s.getTask(taskID)
	if err != nil {
		return err
	}

	task.Lock()
	state := task.State
	cancel := task.CancelFunc
	task.Unlock()

	switch state {
	case StateQueued:
		s.finish(task, StateCancelled, context.Canceled)
	case StateRunning:
		// don't return error as caller might see state as running
		// and then call this function. In-between state might have been changed
		if cancel != nil {
			cancel()
		}
	}
	return nil
}

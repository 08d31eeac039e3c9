package scheduler_service

import (
	"fmt"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (t *Task) getState() TaskState {
	t.Lock()
	defer t.Unlock()

	return t.State
}

func (s *Scheduler) getTask(taskID uuid.UUID) (*Task, error) {
	s.taskMapLock.RLock()
	defer s.taskMapLock.RUnlock()

	// get task
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf(
			"%w, task with id %v does not exist",
			potd_errors.ErrNotFound,
			taskID,
		)
	}

	return task, nil
}

func (s *Scheduler) forget(taskID uuid.UUID) {
	s.taskMapLock.Lock()
	delete(s.tasks, taskID)
	s.taskMapLock.Unlock()
}

func (t *Task) getLogger(prefix string, suffix string) *logrus.Entry {
	return logrus.WithFields(
		logrus.Fields{
			prefix + "id" + suffix:   t.TaskID,
			prefix + "name" + suffix: t.Name,
		},
	)
}

package scheduler_service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *Scheduler) Start(ctx context.Context) {
	logrus.Info("initializing scheduler's taskQueue channel with buffer size ", s.QueueBuffer)
	s.taskQueue = make(chan *Task, s.QueueBuffer)

	logrus.Info("initializing scheduler's tasks map")
	s.tasks = make(map[uuid.UUID]*Task)

	if s.MaxConcurrent <= 0 {
		s.MaxConcurrent = 1
	}
	s.slots = make(chan struct{}, s.MaxConcurrent)

	s.rootCtx, s.stopRoot = context.WithCancel(ctx)

	logrus.Info("starting a 'launch' goroutine")
	go s.launch()
}

// Stop cancels every running task and stops accepting new ones.
func (s *Scheduler) Stop() {
	if s.stopRoot != nil {
		s.stopRoot()
	}
}

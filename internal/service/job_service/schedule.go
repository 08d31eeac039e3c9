package job_service

import (
	"context"
	"fmt"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/scheduler_service"
	"github.com/sirupsen/logrus"
)

// Start registers the periodic jobs on the scheduler.
func (j *JobService) Start(schedules Schedules) error {
	if j.Scheduler == nil {
		return fmt.Errorf("%w, job service has no scheduler", potd_errors.ErrInternal)
	}

	plan := []struct {
		job  string
		when string
	}{
		{JobIngest, schedules.IngestAt},
		{JobGenerate, schedules.GenerateAt},
		{JobPrune, schedules.PruneAt},
		{JobRefresh, schedules.RefreshAt},
	}
	for _, p := range plan {
		schedule, err := scheduler_service.ParseSchedule(p.when)
		if err != nil {
			return fmt.Errorf("%w, cannot schedule %s job", err, p.job)
		}
		if err = j.Scheduler.RunAt(schedule, j.taskRequest(p.job)); err != nil {
			return err
		}
	}
	return nil
}

// Trigger queues a manual run of job and returns the scheduler task id.
func (j *JobService) Trigger(job string) (TriggerResponse, error) {
	if err := service.ValidateInput(&jobRequest{Job: job}); err != nil {
		return TriggerResponse{}, err
	}
	if j.Scheduler == nil {
		return TriggerResponse{}, fmt.Errorf("%w, job service has no scheduler", potd_errors.ErrInternal)
	}

	taskID, err := j.Scheduler.ScheduleTask(j.taskRequest(job))
	if err != nil {
		return TriggerResponse{}, err
	}
	j.getLogger().WithFields(logrus.Fields{
		"job":     job,
		"task_id": taskID,
	}).Info("manual job run queued")
	return TriggerResponse{TaskID: taskID, Job: job}, nil
}

func (j *JobService) taskRequest(job string) scheduler_service.TaskRequest {
	return scheduler_service.TaskRequest{
		Name: job,
		Run: func(ctx context.Context) error {
			_, err := j.Run(ctx, job)
			return err
		},
		Timeout:          j.timeout(),
		OnLaunchComplete: j.onLaunchComplete,
	}
}

func (j *JobService) onLaunchComplete(response scheduler_service.TaskResponse) {
	logger := j.getLogger().WithFields(logrus.Fields{
		"job":     response.Name,
		"task_id": response.TaskID,
	})
	if response.Error != nil {
		logger.Warnf("task ended with error after %v, %v", response.Duration, response.Error)
		return
	}
	logger.Debugf("task completed in %v", response.Duration)
}

// compile time check
var _ TaskScheduler = (*scheduler_service.Scheduler)(nil)

package job_service

import (
	"context"
	"sync"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/email"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/problem_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/scheduler_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/streak_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/user_service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	JobIngest   = "ingest"
	JobGenerate = "generate"
	JobPrune    = "prune"
	JobRefresh  = "refresh"

	statusSucceeded = "succeeded"
	statusFailed    = "failed"

	defaultJobTimeout = 30 * time.Minute
)

type Ingester interface {
	IngestCatalog(ctx context.Context) (problem_service.IngestStats, error)
}

type Generator interface {
	Generate(ctx context.Context, now time.Time) (assignment_service.GenerationStats, error)
}

type Pruner interface {
	PruneAll(ctx context.Context) (streak_service.PruneStats, error)
}

type Refresher interface {
	RefreshAll(ctx context.Context) (user_service.RefreshStats, error)
}

type Alerter interface {
	MailAlert(ctx context.Context, req email.EmailRequest) error
}

type TaskScheduler interface {
	ScheduleTask(req scheduler_service.TaskRequest) (uuid.UUID, error)
	RunAt(schedule scheduler_service.Schedule, req scheduler_service.TaskRequest) error
}

type JobService struct {
	Ingester  Ingester
	Generator Generator
	Pruner    Pruner
	Refresher Refresher
	Scheduler TaskScheduler
	Alerts    Alerter // optional
	Metrics   *Metrics
	// per run deadline, 30 minutes when unset
	Timeout time.Duration
	Now     func() time.Time

	runsLock sync.RWMutex
	lastRuns map[string]RunRecord
	logger   *logrus.Entry
}

// Schedules holds the trigger expressions accepted by scheduler_service.ParseSchedule.
type Schedules struct {
	IngestAt   string
	GenerateAt string
	PruneAt    string
	RefreshAt  string
}

type RunRecord struct {
	RunID      uuid.UUID `json:"run_id"`
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
	Stats      any       `json:"stats,omitempty"`
}

type TriggerResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Job    string    `json:"job"`
}

type jobRequest struct {
	Job string `json:"job" validate:"required,oneof=ingest generate prune refresh"`
}

package scheduler_service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskState int

const (
	StateQueued TaskState = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled

	// Use with caution
	StateUnknown
)

func (s TaskState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s TaskState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Scheduler struct {
	QueueBuffer int32
	// tasks allowed to run at the same time, 1 when unset
	MaxConcurrent int32
	slots         chan struct{}
	taskQueue     chan *Task
	tasks         map[uuid.UUID]*Task
	taskMapLock   sync.RWMutex
	// parent of every task context, cancelled by Stop
	rootCtx  context.Context
	stopRoot context.CancelFunc
}

type TaskRequest struct {
	Name string
	Run  func(ctx context.Context) error
	// zero means no deadline
	Timeout          time.Duration
	OnLaunchComplete func(response TaskResponse)
}

type TaskResponse struct {
	TaskID   uuid.UUID
	Name     string
	Duration time.Duration
	Error    error
}

type Task struct {
	TaskRequest
	sync.Mutex
	TaskID     uuid.UUID
	CancelFunc context.CancelFunc
	QueueTime  time.Time
	LaunchTime time.Time
	EndTime    time.Time
	State      TaskState
	Err        error
}

// TaskInfo is a lock free copy of a task for callers.
type TaskInfo struct {
	TaskID     uuid.UUID `json:"task_id"`
	Name       string    `json:"name"`
	State      TaskState `json:"state"`
	QueueTime  time.Time `json:"queue_time"`
	LaunchTime time.Time `json:"launch_time"`
	EndTime    time.Time `json:"end_time"`
	Error      string    `json:"error,omitempty"`
}

func (t *Task) String() string {
	return fmt.Sprintf(
		"[TaskID=%s Name=%s QueueTime=%s LaunchTime=%s State=%v]",
		t.TaskID, t.Name, t.QueueTime, t.LaunchTime, t.State,
	)
}

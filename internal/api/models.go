package api

import (
	"context"

	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/auth_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/job_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/problem_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/scheduler_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/streak_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/submission_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/user_service"
	"github.com/google/uuid"
)

type UserManager interface {
	CreateUser(ctx context.Context, request user_service.CreateUserRequest) (user_service.User, error)
	GetUser(ctx context.Context, handle string) (user_service.User, error)
	RefreshRating(ctx context.Context, handle string) (user_service.User, error)
}

type StreakManager interface {
	GetStreak(ctx context.Context, handle string) (streak_service.StreakStatus, error)
	GetLedger(ctx context.Context, handle string) (streak_service.StreakStatus, error)
	SetDay(ctx context.Context, handle string, day daykey.DayKey, solved bool) (streak_service.StreakStatus, error)
	ResetMonth(ctx context.Context, handle string, year, month int) (streak_service.StreakStatus, error)
	Reconcile(ctx context.Context, handle string) (streak_service.StreakStatus, error)
	Prune(ctx context.Context, handle string) (removed int, reconciled bool, err error)
}

type TodayVerifier interface {
	VerifyToday(ctx context.Context, handle string) (submission_service.VerifyTodayResult, error)
}

type CalendarReader interface {
	GetMonthlyProblems(ctx context.Context, year, month int32, band *int32) (assignment_service.MonthlyProblems, error)
}

type ProblemReader interface {
	GetProblemById(ctx context.Context, problemID string) (problem_service.Problem, error)
}

type AdminAuthenticator interface {
	Login(ctx context.Context, request auth_service.AdminLoginRequest) (auth_service.AdminLoginResponse, error)
}

type JobRunner interface {
	Trigger(job string) (job_service.TriggerResponse, error)
	LastRun(job string) (job_service.RunRecord, error)
}

type TaskInspector interface {
	GetTask(taskID uuid.UUID) (scheduler_service.TaskInfo, error)
	CancelTask(taskID uuid.UUID) error
}

type Api struct {
	UserServiceConfig       UserManager
	StreakServiceConfig     StreakManager
	SubmissionServiceConfig TodayVerifier
	AssignmentServiceConfig CalendarReader
	ProblemServiceConfig    ProblemReader
	AuthServiceConfig       AdminAuthenticator
	JobServiceConfig        JobRunner
	SchedulerConfig         TaskInspector
}

type handleRequest struct {
	Handle string `json:"handle"`
}

type streakDayRequest struct {
	Handle string        `json:"handle"`
	Day    daykey.DayKey `json:"day"`
	Solved bool          `json:"solved"`
}

type streakMonthRequest struct {
	Handle string `json:"handle"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
}

type cleanupResponse struct {
	Handle      string `json:"handle"`
	RemovedDays int    `json:"removed_days"`
	Reconciled  bool   `json:"reconciled"`
}

type userExistsResponse struct {
	Message string            `json:"message"`
	User    user_service.User `json:"user"`
}

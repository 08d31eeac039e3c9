package submission_service

import (
	"context"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/codeforces"
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/streak_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/user_service"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAttempts  = 10
	DefaultInterval  = 2 * time.Second
	recentCount      = 50
	verifiedMemoSize = 4096

	reasonVerified      = "accepted submission found"
	reasonAlreadySolved = "today is already marked solved"
	reasonNotFound      = "no accepted submission found"
	reasonNoProblem     = "no problem assigned for today"
	reasonUpstream      = "codeforces is unavailable, try again later"
	reasonCancelled     = "verification cancelled"
	reasonStreakFailed  = "solve verified but the streak could not be updated"
	reasonStreakUnknown = "cannot read the current streak"
)

type SubmissionSource interface {
	UserStatus(ctx context.Context, handle string, from, count int) ([]codeforces.Submission, error)
}

// Verifier polls the recent submissions of a handle for an accepted solution.
type Verifier struct {
	Submissions SubmissionSource
	Attempts    int
	Interval    time.Duration

	// handle and problem pairs already verified
	verified *lru.Cache[string, acceptedSubmission]
	logger   *logrus.Entry
}

type acceptedSubmission struct {
	id          int64
	submittedAt time.Time
}

type VerificationResult struct {
	Verified     bool       `json:"verified"`
	Attempts     int        `json:"attempts"`
	SubmissionID int64      `json:"submission_id,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	Reason       string     `json:"reason"`
}

type UserLookup interface {
	GetUser(ctx context.Context, handle string) (user_service.User, error)
}

type DailyProblems interface {
	GetProblemForDay(ctx context.Context, day daykey.DayKey, band int32) (assignment_service.DayProblem, error)
}

type StreakRecorder interface {
	GetStreak(ctx context.Context, handle string) (streak_service.StreakStatus, error)
	RecordSolved(ctx context.Context, handle string, day daykey.DayKey) (streak_service.RecordResult, error)
}

type SubmissionService struct {
	Users    UserLookup
	Problems DailyProblems
	Streaks  StreakRecorder
	Verifier *Verifier
	// defaults to time.Now
	Now func() time.Time
}

type VerifyTodayResult struct {
	Success       bool                           `json:"success"`
	Reason        string                         `json:"reason"`
	Streak        int32                          `json:"streak"`
	WasReset      bool                           `json:"was_reset"`
	AlreadySolved bool                           `json:"already_solved"`
	Problem       *assignment_service.DayProblem `json:"problem"`
}

type verifyRequest struct {
	Handle    string `json:"handle" validate:"required,min=3,max=24"`
	ProblemID string `json:"problem_id" validate:"required,max=20"`
}

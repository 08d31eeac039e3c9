package assignment_service

import (
	"context"
	"sync"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/cache"
	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/problem_service"
	"github.com/sirupsen/logrus"
)

const (
	MinBand  int32 = 800
	MaxBand  int32 = 3500
	BandStep int32 = 100

	// rating assumed for users codeforces reports as unrated
	UnratedRating int32 = 600
	bandOffset    int32 = 200

	// last days of a month during which the next month gets content
	prepopulateWindow = 3
	prepopulateDays   = 7

	monthlyCacheKey = "potd:monthly:%04d-%02d"
)

var (
	msgForeignKey = map[string]string{
		"fk_monthly_assignments_problem_set": "problem set of the month does not exist",
		"fk_monthly_assignments_problem":     "assigned problem does not exist in the pool",
	}

	errMsgs = map[string]map[string]string{
		potd_errors.CodeForeignKeyConstraint: msgForeignKey,
	}
)

type ProblemPool interface {
	TakeUnused(ctx context.Context, rating int32, count int) ([]problem_service.Problem, error)
	MarkUsed(ctx context.Context, problemID string) error
	ResetUsed(ctx context.Context, rating int32) (int64, error)
}

// AssignmentStore is the subset of database.Queries the engine needs.
type AssignmentStore interface {
	GetProblemSet(ctx context.Context, year int32, month int32) (database.ProblemSet, error)
	CreateProblemSet(ctx context.Context, year int32, month int32) (int64, error)
	DeleteProblemSetsBefore(ctx context.Context, year int32, month int32) ([]database.ProblemSet, error)
	GetMaxAssignedDay(ctx context.Context, year, month, band int32) (int32, error)
	InsertAssignment(ctx context.Context, arg database.InsertAssignmentParams) (int64, error)
	ListAssignments(ctx context.Context, year, month int32) ([]database.MonthlyAssignment, error)
	GetAssignment(ctx context.Context, year, month, band, day int32) (database.MonthlyAssignment, error)
}

type AssignmentService struct {
	DB    AssignmentStore
	Pool  ProblemPool
	Cache cache.Cache // optional
	// defaults to 800..3500 step 100 when empty
	Bands    []int32
	CacheTTL time.Duration

	// serialises overlapping runs inside one process
	mu     sync.Mutex
	logger *logrus.Entry
}

type DayProblem struct {
	Day        int32  `json:"day"`
	ProblemID  string `json:"problem_id"`
	ProblemURL string `json:"problem_url"`
	SourceBand int32  `json:"source_band"`
}

type MonthlyProblems struct {
	Year  int32                  `json:"year"`
	Month int32                  `json:"month"`
	Bands map[int32][]DayProblem `json:"bands"`
}

type FallbackEntry struct {
	TargetBand   int32 `json:"target_band"`
	FallbackBand int32 `json:"fallback_band"`
	Days         int   `json:"days"`
}

type Shortfall struct {
	Band      int32 `json:"band"`
	Available int   `json:"available"`
	Needed    int   `json:"needed"`
}

type BandError struct {
	Band  int32  `json:"band"`
	Error string `json:"error"`
}

type GenerationStats struct {
	Date              string           `json:"date"`
	Year              int32            `json:"year"`
	Month             int32            `json:"month"`
	UpToDay           int32            `json:"up_to_day"`
	DiscardedSets     int64            `json:"discarded_sets"`
	Added             int              `json:"added"`
	ResetRatings      []int32          `json:"reset_ratings"`
	Fallbacks         []FallbackEntry  `json:"fallbacks"`
	Shortfalls        []Shortfall      `json:"shortfalls"`
	Errors            []BandError      `json:"errors"`
	NextMonthPrepared bool             `json:"next_month_prepared"`
	NextMonth         *GenerationStats `json:"next_month,omitempty"`
}

type monthlyProblemsRequest struct {
	Year  int32  `json:"year" validate:"gte=2000,lte=9999"`
	Month int32  `json:"month" validate:"gte=1,lte=12"`
	Band  *int32 `json:"rating" validate:"omitempty,gte=800,lte=3500"`
}

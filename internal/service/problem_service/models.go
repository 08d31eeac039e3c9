package problem_service

import (
	"context"

	"github.com/Ntropy86/Codeforces-Calendar/internal/codeforces"
	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/sirupsen/logrus"
)

var (
	msgForeignKey = map[string]string{
		"fk_monthly_assignments_problem": "problem is referenced by a monthly assignment",
	}

	errMsgs = map[string]map[string]string{
		potd_errors.CodeForeignKeyConstraint: msgForeignKey,
	}
)

// ProblemStore is the subset of database.Queries the pool needs.
type ProblemStore interface {
	CountProblems(ctx context.Context) (int64, error)
	GetProblemById(ctx context.Context, problemID string) (database.Problem, error)
	InsertProblem(ctx context.Context, arg database.InsertProblemParams) (int64, error)
	UpdateProblemRating(ctx context.Context, problemID string, rating *int32) (int64, error)
	ListUnusedProblemsByRating(ctx context.Context, rating int32, limit int32) ([]database.Problem, error)
	MarkProblemUsed(ctx context.Context, problemID string) (int64, error)
	ResetProblemsUsedByRating(ctx context.Context, rating int32) (int64, error)
}

type CatalogSource interface {
	ProblemsetProblems(ctx context.Context) ([]codeforces.Problem, error)
}

type ProblemService struct {
	DB      ProblemStore
	Catalog CatalogSource
	// scan the whole catalog instead of only the newest unseen window
	FullScan bool
	logger   *logrus.Entry
}

type Problem struct {
	ProblemID string `json:"problem_id"`
	ContestID int32  `json:"contest_id"`
	Index     string `json:"index"`
	Name      string `json:"name"`
	Rating    *int32 `json:"rating"`
	URL       string `json:"problem_url"`
	Used      bool   `json:"used"`
}

type IngestStats struct {
	TotalProblems  int `json:"total_problems"`
	ExistingInDB   int `json:"existing_in_db"`
	Checked        int `json:"new_problems_checked"`
	Added          int `json:"new_problems_added"`
	Duplicates     int `json:"duplicates_found"`
	NoRating       int `json:"no_rating_found"`
	RatingsUpdated int `json:"ratings_updated"`
	Errors         int `json:"errors"`
}

package streak_service

import (
	"context"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/sirupsen/logrus"
)

const DefaultRetentionMonths = 3

var (
	msgForeignKey = map[string]string{
		"fk_streak_days_user": "user does not exist",
	}

	errMsgs = map[string]map[string]string{
		potd_errors.CodeForeignKeyConstraint: msgForeignKey,
	}
)

// LedgerStore persists ledgers. UpdateLedger must run fn as one atomic
// read-modify-write so concurrent updates for a handle are not lost.
type LedgerStore interface {
	GetLedger(ctx context.Context, handle string) (Ledger, error)
	UpdateLedger(ctx context.Context, handle string, fn func(*Ledger) error) (Ledger, error)
	ListHandles(ctx context.Context) ([]string, error)
}

type StreakService struct {
	Store           LedgerStore
	RetentionMonths int
	// defaults to time.Now
	Now    func() time.Time
	logger *logrus.Entry
}

type StreakStatus struct {
	Handle         string                 `json:"handle"`
	Streak         int32                  `json:"streak"`
	SolvedToday    bool                   `json:"solved_today"`
	ShouldReset    bool                   `json:"should_reset"`
	LastStreakDate *daykey.DayKey         `json:"last_streak_date"`
	Days           map[daykey.DayKey]bool `json:"streak_days,omitempty"`
}

type RecordResult struct {
	Streak         int32          `json:"streak"`
	WasReset       bool           `json:"was_reset"`
	AlreadySolved  bool           `json:"already_solved"`
	LastStreakDate *daykey.DayKey `json:"last_streak_date"`
}

type UserError struct {
	Handle string `json:"handle"`
	Error  string `json:"error"`
}

type PruneStats struct {
	Users       int         `json:"users"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	RemovedDays int         `json:"removed_days"`
	Reconciled  int         `json:"reconciled"`
	Errors      []UserError `json:"errors"`
}

type handleRequest struct {
	Handle string `json:"handle" validate:"required,min=3,max=24"`
}

type monthRequest struct {
	Handle string `json:"handle" validate:"required,min=3,max=24"`
	Year   int    `json:"year" validate:"gte=2000,lte=9999"`
	Month  int    `json:"month" validate:"gte=1,lte=12"`
}

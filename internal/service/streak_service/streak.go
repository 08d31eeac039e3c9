package streak_service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/sirupsen/logrus"
)

// GetStreak recomputes the streak from the ledger. A cached counter or
// pointer that drifted is repaired on the way.
func (s *StreakService) GetStreak(ctx context.Context, handle string) (StreakStatus, error) {
	if err := service.ValidateInput(handleRequest{Handle: handle}); err != nil {
		return StreakStatus{}, err
	}

	today := s.today()
	ledger, err := s.Store.GetLedger(ctx, handle)
	if err != nil {
		return StreakStatus{}, err
	}

	computed := ComputeCurrentStreak(ledger, today)
	probe := ledger.Clone()
	if computed != ledger.StreakCount || reconcileLastStreakDate(&probe, today) {
		s.getLogger().WithFields(logrus.Fields{
			"handle": handle,
			"cached": ledger.StreakCount,
			"actual": computed,
		}).Warn("streak ledger drifted, repairing")

		healed, err := s.Store.UpdateLedger(ctx, handle, func(l *Ledger) error {
			reconcileLastStreakDate(l, today)
			refresh(l, today)
			return nil
		})
		if err != nil {
			// the computed value is still correct, only the repair failed
			s.getLogger().Errorf("cannot repair ledger of %s, %v", handle, err)
		} else {
			ledger = healed
		}
	}

	return s.status(ledger, today), nil
}

// GetLedger is GetStreak plus the tracked days.
func (s *StreakService) GetLedger(ctx context.Context, handle string) (StreakStatus, error) {
	status, err := s.GetStreak(ctx, handle)
	if err != nil {
		return StreakStatus{}, err
	}
	ledger, err := s.Store.GetLedger(ctx, handle)
	if err != nil {
		return StreakStatus{}, err
	}
	status.Days = ledger.Days
	return status, nil
}

// RecordSolved marks a day solved. Marking an already solved day again
// changes nothing, so repeated verification triggers are harmless. A stale
// pointer is reconciled before the reset decision is taken.
func (s *StreakService) RecordSolved(
	ctx context.Context,
	handle string,
	day daykey.DayKey,
) (RecordResult, error) {
	if err := service.ValidateInput(handleRequest{Handle: handle}); err != nil {
		return RecordResult{}, err
	}
	today := s.today()
	if day.After(today) {
		return RecordResult{}, fmt.Errorf(
			"%w, cannot record a solve for %s, today is %s",
			potd_errors.ErrInvalidRequest,
			day,
			today,
		)
	}

	var result RecordResult
	ledger, err := s.Store.UpdateLedger(ctx, handle, func(l *Ledger) error {
		reconcileLastStreakDate(l, today)
		if l.IsSolved(day) {
			result.AlreadySolved = true
			refresh(l, today)
			return nil
		}

		result.WasReset = ShouldResetStreakCounter(*l, today)
		l.Set(day, true)
		if l.LastStreakDate == nil || day.After(*l.LastStreakDate) {
			l.LastStreakDate = &day
		}
		refresh(l, today)
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}

	result.Streak = ledger.StreakCount
	result.LastStreakDate = ledger.LastStreakDate
	s.getLogger().WithFields(logrus.Fields{
		"handle":         handle,
		"day":            day.String(),
		"streak":         result.Streak,
		"already_solved": result.AlreadySolved,
	}).Info("recorded solve")
	return result, nil
}

// SetDay overwrites a single day, used by admin corrections.
func (s *StreakService) SetDay(
	ctx context.Context,
	handle string,
	day daykey.DayKey,
	solved bool,
) (StreakStatus, error) {
	if err := service.ValidateInput(handleRequest{Handle: handle}); err != nil {
		return StreakStatus{}, err
	}
	today := s.today()
	if day.After(today) {
		return StreakStatus{}, fmt.Errorf("%w, %s is in the future", potd_errors.ErrInvalidRequest, day)
	}

	ledger, err := s.Store.UpdateLedger(ctx, handle, func(l *Ledger) error {
		l.Set(day, solved)
		if solved && (l.LastStreakDate == nil || day.After(*l.LastStreakDate)) {
			l.LastStreakDate = &day
		}
		reconcileLastStreakDate(l, today)
		refresh(l, today)
		return nil
	})
	if err != nil {
		return StreakStatus{}, err
	}
	return s.status(ledger, today), nil
}

// ResetMonth marks a whole month unsolved. History outside the month stays.
func (s *StreakService) ResetMonth(
	ctx context.Context,
	handle string,
	year, month int,
) (StreakStatus, error) {
	err := service.ValidateInput(monthRequest{Handle: handle, Year: year, Month: month})
	if err != nil {
		return StreakStatus{}, err
	}

	today := s.today()
	ledger, err := s.Store.UpdateLedger(ctx, handle, func(l *Ledger) error {
		l.MarkMonthUnsolved(year, month)
		reconcileLastStreakDate(l, today)
		refresh(l, today)
		return nil
	})
	if err != nil {
		return StreakStatus{}, err
	}

	s.getLogger().WithFields(logrus.Fields{
		"handle": handle,
		"year":   year,
		"month":  month,
	}).Info("streak month reset")
	return s.status(ledger, today), nil
}

func (s *StreakService) Reconcile(ctx context.Context, handle string) (StreakStatus, error) {
	if err := service.ValidateInput(handleRequest{Handle: handle}); err != nil {
		return StreakStatus{}, err
	}

	today := s.today()
	ledger, err := s.Store.UpdateLedger(ctx, handle, func(l *Ledger) error {
		reconcileLastStreakDate(l, today)
		refresh(l, today)
		return nil
	})
	if err != nil {
		return StreakStatus{}, err
	}
	return s.status(ledger, today), nil
}

// Prune removes entries older than the retention window.
func (s *StreakService) Prune(ctx context.Context, handle string) (removed int, reconciled bool, err error) {
	if err = service.ValidateInput(handleRequest{Handle: handle}); err != nil {
		return 0, false, err
	}

	today := s.today()
	cutoff := today.AddMonths(-s.retentionMonths())
	_, err = s.Store.UpdateLedger(ctx, handle, func(l *Ledger) error {
		removed, reconciled = pruneStaleDays(l, cutoff, today)
		refresh(l, today)
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return removed, reconciled, nil
}

// PruneAll prunes every user. A failing user is recorded and skipped.
func (s *StreakService) PruneAll(ctx context.Context) (PruneStats, error) {
	logger := s.getLogger()
	handles, err := s.Store.ListHandles(ctx)
	if err != nil {
		return PruneStats{}, err
	}

	stats := PruneStats{Users: len(handles), Errors: []UserError{}}
	for _, handle := range handles {
		if err = ctx.Err(); err != nil {
			return stats, err
		}
		removed, reconciled, err := s.Prune(ctx, handle)
		if err != nil {
			logger.WithField("handle", handle).Errorf("cannot prune streak days, %v", err)
			stats.Failed++
			stats.Errors = append(stats.Errors, UserError{Handle: handle, Error: err.Error()})
			continue
		}
		stats.Succeeded++
		stats.RemovedDays += removed
		if reconciled {
			stats.Reconciled++
		}
	}

	logger.WithFields(logrus.Fields{
		"users":        stats.Users,
		"failed":       stats.Failed,
		"removed_days": stats.RemovedDays,
	}).Info("stale streak days pruned")
	return stats, nil
}

func (s *StreakService) status(ledger Ledger, today daykey.DayKey) StreakStatus {
	return StreakStatus{
		Handle:         ledger.Handle,
		Streak:         ComputeCurrentStreak(ledger, today),
		SolvedToday:    ledger.IsSolved(today),
		ShouldReset:    ShouldResetStreakCounter(ledger, today),
		LastStreakDate: ledger.LastStreakDate,
	}
}

func (s *StreakService) today() daykey.DayKey {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return daykey.Today(now())
}

func (s *StreakService) retentionMonths() int {
	if s.RetentionMonths > 0 {
		return s.RetentionMonths
	}
	return DefaultRetentionMonths
}

func (s *StreakService) getLogger() *logrus.Entry {
	if s.logger == nil {
		s.logger = logrus.WithField("from", "streak_engine")
	}
	return s.logger
}

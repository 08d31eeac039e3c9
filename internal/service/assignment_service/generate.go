package assignment_service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/problem_service"
	"github.com/sirupsen/logrus"
)

// Generate brings every tracked band of the current month up to today and,
// during the last days of the month, prepares the first week of the next one.
// Running it again on the same day assigns nothing new.
func (a *AssignmentService) Generate(ctx context.Context, now time.Time) (GenerationStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.getLogger()
	today := daykey.FromTime(now)
	stats := newGenerationStats(today, int32(today.Day))

	// fresh start, nothing from earlier months is carried over
	if today.IsFirstOfMonth() {
		discarded, err := a.DB.DeleteProblemSetsBefore(ctx, int32(today.Year), int32(today.Month))
		if err != nil {
			return stats, potd_errors.HandleDBErrors(
				err,
				errMsgs,
				fmt.Sprintf("cannot discard problem sets before %d-%02d", today.Year, today.Month),
			)
		}
		for _, set := range discarded {
			a.invalidate(ctx, set.Year, set.Month)
		}
		stats.DiscardedSets = int64(len(discarded))
		logger.Infof("month rollover, discarded %d old problem sets", len(discarded))
	}

	if err := a.populateMonth(ctx, today.FirstOfMonth(), int32(today.Day), &stats); err != nil {
		return stats, err
	}

	if today.DaysInMonth()-today.Day < prepopulateWindow {
		next := today.FirstOfNextMonth()
		nextStats := newGenerationStats(next, prepopulateDays)
		if err := a.populateMonth(ctx, next, prepopulateDays, &nextStats); err != nil {
			logger.Errorf("cannot prepare next month %s, %v", next, err)
			nextStats.Errors = append(nextStats.Errors, BandError{Error: err.Error()})
		} else {
			stats.NextMonthPrepared = true
		}
		stats.NextMonth = &nextStats
	}

	logger.WithFields(logrus.Fields{
		"date":       stats.Date,
		"added":      stats.Added,
		"fallbacks":  len(stats.Fallbacks),
		"shortfalls": len(stats.Shortfalls),
		"errors":     len(stats.Errors),
	}).Info("daily assignment generation finished")

	return stats, nil
}

func newGenerationStats(day daykey.DayKey, upTo int32) GenerationStats {
	return GenerationStats{
		Date:         day.String(),
		Year:         int32(day.Year),
		Month:        int32(day.Month),
		UpToDay:      upTo,
		ResetRatings: []int32{},
		Fallbacks:    []FallbackEntry{},
		Shortfalls:   []Shortfall{},
		Errors:       []BandError{},
	}
}

// populateMonth makes sure the month's problem set exists and fills every band
// up to the given day. A failing band is recorded and the others still run.
func (a *AssignmentService) populateMonth(
	ctx context.Context,
	month daykey.DayKey,
	upTo int32,
	stats *GenerationStats,
) error {
	year, mon := int32(month.Year), int32(month.Month)
	if _, err := a.DB.CreateProblemSet(ctx, year, mon); err != nil {
		return potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot create problem set %d-%02d", year, mon),
		)
	}

	for _, band := range a.bands() {
		if err := a.populateBand(ctx, year, mon, band, upTo, stats); err != nil {
			a.getLogger().WithFields(logrus.Fields{
				"band":  band,
				"year":  year,
				"month": mon,
			}).Errorf("band generation failed, %v", err)
			stats.Errors = append(stats.Errors, BandError{Band: band, Error: err.Error()})
		}
	}

	a.invalidate(ctx, year, mon)
	return nil
}

func (a *AssignmentService) populateBand(
	ctx context.Context,
	year, month, band, upTo int32,
	stats *GenerationStats,
) error {
	lastPopulated, err := a.DB.GetMaxAssignedDay(ctx, year, month, band)
	if err != nil {
		return potd_errors.HandleDBErrors(err, errMsgs, "cannot read last populated day")
	}
	if lastPopulated >= upTo {
		return nil
	}
	needed := int(upTo - lastPopulated)

	problems, err := a.Pool.TakeUnused(ctx, band, needed)
	if err != nil {
		return err
	}

	if len(problems) < needed {
		if _, err = a.Pool.ResetUsed(ctx, band); err != nil {
			return err
		}
		stats.ResetRatings = append(stats.ResetRatings, band)
		if problems, err = a.Pool.TakeUnused(ctx, band, needed); err != nil {
			return err
		}
	}

	sourceBand := band
	if len(problems) < needed {
		fallbackBand, fallbackProblems, ok := a.fallback(ctx, band, needed, stats)
		if !ok {
			stats.Shortfalls = append(stats.Shortfalls, Shortfall{
				Band:      band,
				Available: len(problems),
				Needed:    needed,
			})
			a.getLogger().WithFields(logrus.Fields{
				"band":      band,
				"available": len(problems),
				"needed":    needed,
			}).Warn(potd_errors.ErrPoolExhausted)
			return nil
		}
		sourceBand, problems = fallbackBand, fallbackProblems
		stats.Fallbacks = append(stats.Fallbacks, FallbackEntry{
			TargetBand:   band,
			FallbackBand: fallbackBand,
			Days:         needed,
		})
	}

	for i, problem := range problems[:needed] {
		day := lastPopulated + int32(i) + 1
		placed, err := a.place(ctx, year, month, band, day, sourceBand, problem)
		if err != nil {
			return err
		}
		if placed {
			stats.Added++
		}
	}
	return nil
}

// place inserts one day slot and marks the problem used only when this call
// actually wrote the slot.
func (a *AssignmentService) place(
	ctx context.Context,
	year, month, band, day, sourceBand int32,
	problem problem_service.Problem,
) (bool, error) {
	rows, err := a.DB.InsertAssignment(ctx, database.InsertAssignmentParams{
		Year:       year,
		Month:      month,
		Band:       band,
		Day:        day,
		ProblemID:  problem.ProblemID,
		ProblemUrl: problem.URL,
		SourceBand: sourceBand,
	})
	if err != nil {
		return false, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot assign %s to day %d of band %d", problem.ProblemID, day, band),
		)
	}
	if rows == 0 {
		return false, nil
	}
	if err = a.Pool.MarkUsed(ctx, problem.ProblemID); err != nil {
		return true, err
	}
	return true, nil
}

// fallback recycles and tries the other bands nearest first.
func (a *AssignmentService) fallback(
	ctx context.Context,
	target int32,
	needed int,
	stats *GenerationStats,
) (int32, []problem_service.Problem, bool) {
	logger := a.getLogger().WithField("band", target)
	for _, candidate := range fallbackOrder(target, a.bands()) {
		if _, err := a.Pool.ResetUsed(ctx, candidate); err != nil {
			logger.Errorf("cannot reset fallback band %d, %v", candidate, err)
			continue
		}
		stats.ResetRatings = append(stats.ResetRatings, candidate)

		problems, err := a.Pool.TakeUnused(ctx, candidate, needed)
		if err != nil {
			logger.Errorf("cannot take from fallback band %d, %v", candidate, err)
			continue
		}
		if len(problems) >= needed {
			logger.Infof("using fallback band %d", candidate)
			return candidate, problems, true
		}
	}
	return 0, nil, false
}

func (a *AssignmentService) invalidate(ctx context.Context, year, month int32) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Delete(ctx, monthlyKey(year, month)); err != nil {
		a.getLogger().Warnf("cannot invalidate cached problem set %d-%02d, %v", year, month, err)
	}
}

package assignment_service

import (
	"context"
	"fmt"

	"github.com/Ntropy86/Codeforces-Calendar/internal/cache"
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
)

// GetMonthlyProblems returns the day ordered problems of a month, for every
// band or only the requested one.
func (a *AssignmentService) GetMonthlyProblems(
	ctx context.Context,
	year, month int32,
	band *int32,
) (MonthlyProblems, error) {
	err := service.ValidateInput(monthlyProblemsRequest{Year: year, Month: month, Band: band})
	if err != nil {
		return MonthlyProblems{}, err
	}

	monthly, err := a.loadMonth(ctx, year, month)
	if err != nil {
		return MonthlyProblems{}, err
	}

	if band == nil {
		return monthly, nil
	}
	days, ok := monthly.Bands[*band]
	if !ok {
		days = []DayProblem{}
	}
	return MonthlyProblems{
		Year:  year,
		Month: month,
		Bands: map[int32][]DayProblem{*band: days},
	}, nil
}

// loadMonth reads through the cache. Cache failures only cost a db read.
func (a *AssignmentService) loadMonth(ctx context.Context, year, month int32) (MonthlyProblems, error) {
	logger := a.getLogger()
	key := monthlyKey(year, month)

	if a.Cache != nil {
		var cached MonthlyProblems
		err := a.Cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsMiss(err) {
			logger.Warnf("cannot read cached problem set %s, %v", key, err)
		}
	}

	if _, err := a.DB.GetProblemSet(ctx, year, month); err != nil {
		return MonthlyProblems{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("no problem set for %d-%02d", year, month),
		)
	}

	assignments, err := a.DB.ListAssignments(ctx, year, month)
	if err != nil {
		return MonthlyProblems{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot list assignments of %d-%02d", year, month),
		)
	}
	monthly := dbAssignmentsToMonthlyProblems(year, month, assignments)

	if a.Cache != nil {
		if err = a.Cache.Set(ctx, key, monthly, a.CacheTTL); err != nil {
			logger.Warnf("cannot cache problem set %s, %v", key, err)
		}
	}
	return monthly, nil
}

// GetProblemForDay returns the problem assigned to a band on one calendar day.
func (a *AssignmentService) GetProblemForDay(
	ctx context.Context,
	day daykey.DayKey,
	band int32,
) (DayProblem, error) {
	assignment, err := a.DB.GetAssignment(
		ctx,
		int32(day.Year),
		int32(day.Month),
		band,
		int32(day.Day),
	)
	if err != nil {
		return DayProblem{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("no problem assigned on %s for band %d", day, band),
		)
	}
	return dbAssignmentToDayProblem(assignment), nil
}

package assignment_service

import (
	"fmt"
	"sort"

	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/sirupsen/logrus"
)

func (a *AssignmentService) getLogger() *logrus.Entry {
	if a.logger == nil {
		a.logger = logrus.WithField("from", "assignment_engine")
	}
	return a.logger
}

func (a *AssignmentService) bands() []int32 {
	if len(a.Bands) > 0 {
		return a.Bands
	}
	return DefaultBands()
}

func DefaultBands() []int32 {
	bands := make([]int32, 0, (MaxBand-MinBand)/BandStep+1)
	for band := MinBand; band <= MaxBand; band += BandStep {
		bands = append(bands, band)
	}
	return bands
}

// BandForRating rounds the rating up to the next hundred and adds 200.
// Nil means unrated. The result is clamped to the tracked range.
func BandForRating(rating *int32) int32 {
	r := UnratedRating
	if rating != nil {
		r = *rating
	}
	if r < 0 {
		r = 0
	}
	band := (r+BandStep-1)/BandStep*BandStep + bandOffset
	return min(max(band, MinBand), MaxBand)
}

// fallbackOrder lists every other band nearest first, the lower band wins ties.
func fallbackOrder(target int32, bands []int32) []int32 {
	order := make([]int32, 0, len(bands))
	for _, band := range bands {
		if band != target {
			order = append(order, band)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		di, dj := distance(order[i], target), distance(order[j], target)
		if di != dj {
			return di < dj
		}
		return order[i] < order[j]
	})
	return order
}

func distance(a, b int32) int32 {
	if a > b {
		return a - b
	}
	return b - a
}

func monthlyKey(year, month int32) string {
	return fmt.Sprintf(monthlyCacheKey, year, month)
}

func dbAssignmentsToMonthlyProblems(
	year, month int32,
	assignments []database.MonthlyAssignment,
) MonthlyProblems {
	result := MonthlyProblems{
		Year:  year,
		Month: month,
		Bands: make(map[int32][]DayProblem),
	}
	for _, assignment := range assignments {
		result.Bands[assignment.Band] = append(result.Bands[assignment.Band], dbAssignmentToDayProblem(assignment))
	}
	return result
}

func dbAssignmentToDayProblem(assignment database.MonthlyAssignment) DayProblem {
	return DayProblem{
		Day:        assignment.Day,
		ProblemID:  assignment.ProblemID,
		ProblemURL: assignment.ProblemUrl,
		SourceBand: assignment.SourceBand,
	}
}

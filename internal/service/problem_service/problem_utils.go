package problem_service

import (
	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/sirupsen/logrus"
)

func (p *ProblemService) getLogger() *logrus.Entry {
	if p.logger == nil {
		p.logger = logrus.WithField("from", "problem_pool")
	}
	return p.logger
}

func dbProblemToServiceProblem(dbProblem database.Problem) Problem {
	return Problem{
		ProblemID: dbProblem.ProblemID,
		ContestID: dbProblem.ContestID,
		Index:     dbProblem.ProblemIndex,
		Name:      dbProblem.Name,
		Rating:    dbProblem.Rating,
		URL:       dbProblem.ProblemUrl,
		Used:      dbProblem.Used,
	}
}

func dbProblemsToServiceProblems(dbProblems []database.Problem) []Problem {
	problems := make([]Problem, 0, len(dbProblems))
	for _, dbProblem := range dbProblems {
		problems = append(problems, dbProblemToServiceProblem(dbProblem))
	}
	return problems
}

func sameRating(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func ratingOrZero(rating *int32) int32 {
	if rating == nil {
		return 0
	}
	return *rating
}

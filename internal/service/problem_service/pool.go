package problem_service

import (
	"context"
	"fmt"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	log "github.com/sirupsen/logrus"
)

type markUsedRequest struct {
	ProblemID string `json:"problem_id" validate:"required,max=20"`
}

// TakeUnused returns up to count unused problems of the rating ordered by id.
// Nothing is marked used here, the caller does that once a problem is placed.
func (p *ProblemService) TakeUnused(
	ctx context.Context,
	rating int32,
	count int,
) ([]Problem, error) {
	if count <= 0 {
		return []Problem{}, nil
	}

	dbProblems, err := p.DB.ListUnusedProblemsByRating(ctx, rating, int32(count))
	if err != nil {
		return nil, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot list unused problems of rating %d", rating),
		)
	}

	return dbProblemsToServiceProblems(dbProblems), nil
}

// MarkUsed is a plain set, marking an already used problem again is harmless.
func (p *ProblemService) MarkUsed(ctx context.Context, problemID string) error {
	if err := service.ValidateInput(markUsedRequest{ProblemID: problemID}); err != nil {
		return err
	}

	rows, err := p.DB.MarkProblemUsed(ctx, problemID)
	if err != nil {
		return potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot mark problem %s used", problemID),
		)
	}
	if rows == 0 {
		return fmt.Errorf("%w, problem %s does not exist", potd_errors.ErrNotFound, problemID)
	}
	return nil
}

func (p *ProblemService) ResetUsed(ctx context.Context, rating int32) (int64, error) {
	rows, err := p.DB.ResetProblemsUsedByRating(ctx, rating)
	if err != nil {
		return 0, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot reset used problems of rating %d", rating),
		)
	}
	log.WithFields(log.Fields{
		"from":   "problem_pool",
		"rating": rating,
		"reset":  rows,
	}).Info("recycled used problems")
	return rows, nil
}

func (p *ProblemService) GetProblemById(ctx context.Context, problemID string) (Problem, error) {
	if err := service.ValidateInput(markUsedRequest{ProblemID: problemID}); err != nil {
		return Problem{}, err
	}

	dbProblem, err := p.DB.GetProblemById(ctx, problemID)
	if err != nil {
		return Problem{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot fetch problem %s", problemID),
		)
	}
	return dbProblemToServiceProblem(dbProblem), nil
}

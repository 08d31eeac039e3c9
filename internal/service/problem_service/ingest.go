package problem_service

import (
	"context"
	"fmt"

	"github.com/Ntropy86/Codeforces-Calendar/internal/codeforces"
	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/sirupsen/logrus"
)

// Ingest stores every rated problem not seen before. A problem already in the
// pool only has its rating corrected. Calling it again with the same catalog
// inserts nothing.
func (p *ProblemService) Ingest(
	ctx context.Context,
	problems []codeforces.Problem,
) IngestStats {
	logger := p.getLogger()
	stats := IngestStats{TotalProblems: len(problems)}
	seen := make(map[string]struct{}, len(problems))

	for _, cfProblem := range problems {
		stats.Checked++
		if cfProblem.Rating == nil {
			stats.NoRating++
			continue
		}

		problemID := cfProblem.ID()
		if _, ok := seen[problemID]; ok {
			stats.Duplicates++
			continue
		}
		seen[problemID] = struct{}{}

		outcome, err := p.ingestOne(ctx, cfProblem)
		if err != nil {
			stats.Errors++
			logger.WithFields(logrus.Fields{
				"problem_id": problemID,
			}).Errorf("failed to ingest problem, %v", err)
			continue
		}
		switch outcome {
		case ingestAdded:
			stats.Added++
		case ingestRatingUpdated:
			stats.RatingsUpdated++
		default:
			stats.Duplicates++
		}
	}

	logger.WithFields(logrus.Fields{
		"checked":         stats.Checked,
		"added":           stats.Added,
		"duplicates":      stats.Duplicates,
		"no_rating":       stats.NoRating,
		"ratings_updated": stats.RatingsUpdated,
		"errors":          stats.Errors,
	}).Info("problem ingestion finished")

	return stats
}

type ingestOutcome int

const (
	ingestDuplicate ingestOutcome = iota
	ingestAdded
	ingestRatingUpdated
)

func (p *ProblemService) ingestOne(
	ctx context.Context,
	cfProblem codeforces.Problem,
) (ingestOutcome, error) {
	problemID := cfProblem.ID()
	rows, err := p.DB.InsertProblem(ctx, database.InsertProblemParams{
		ProblemID:    problemID,
		ContestID:    cfProblem.ContestID,
		ProblemIndex: cfProblem.Index,
		Name:         cfProblem.Name,
		Rating:       cfProblem.Rating,
		ProblemUrl:   cfProblem.URL(),
	})
	if err != nil {
		return ingestDuplicate, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot insert problem %s", problemID),
		)
	}
	if rows > 0 {
		return ingestAdded, nil
	}

	// already known, correct the rating if upstream changed it
	stored, err := p.DB.GetProblemById(ctx, problemID)
	if err != nil {
		return ingestDuplicate, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot fetch stored problem %s", problemID),
		)
	}
	if sameRating(stored.Rating, cfProblem.Rating) {
		return ingestDuplicate, nil
	}

	if _, err = p.DB.UpdateProblemRating(ctx, problemID, cfProblem.Rating); err != nil {
		return ingestDuplicate, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot update rating of problem %s", problemID),
		)
	}
	logrus.WithFields(logrus.Fields{
		"from":       "problem_pool",
		"problem_id": problemID,
		"old_rating": ratingOrZero(stored.Rating),
		"new_rating": *cfProblem.Rating,
	}).Info("problem rating corrected")
	return ingestRatingUpdated, nil
}

// IngestCatalog pulls the upstream catalog and ingests the newest entries.
// The catalog is ordered newest first, so only the first total-existing
// entries can hold unseen problems unless a full scan is configured.
func (p *ProblemService) IngestCatalog(ctx context.Context) (IngestStats, error) {
	if p.Catalog == nil {
		err := fmt.Errorf("%w, problem catalog source is not configured", potd_errors.ErrInternal)
		p.getLogger().Error(err)
		return IngestStats{}, err
	}

	problems, err := p.Catalog.ProblemsetProblems(ctx)
	if err != nil {
		p.getLogger().Errorf("cannot fetch problem catalog, %v", err)
		return IngestStats{}, err
	}

	existing, err := p.DB.CountProblems(ctx)
	if err != nil {
		return IngestStats{}, potd_errors.HandleDBErrors(err, errMsgs, "cannot count stored problems")
	}

	window := ingestWindow(len(problems), int(existing), p.FullScan)
	stats := p.Ingest(ctx, problems[:window])
	stats.TotalProblems = len(problems)
	stats.ExistingInDB = int(existing)
	return stats, nil
}

func ingestWindow(total, existing int, fullScan bool) int {
	if fullScan || existing <= 0 {
		return total
	}
	window := total - existing
	if window < 0 {
		return 0
	}
	return window
}

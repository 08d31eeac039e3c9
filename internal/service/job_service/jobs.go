package job_service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/email"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Run executes one job synchronously and records its outcome.
func (j *JobService) Run(ctx context.Context, job string) (RunRecord, error) {
	if err := service.ValidateInput(&jobRequest{Job: job}); err != nil {
		return RunRecord{}, err
	}

	switch job {
	case JobIngest:
		return j.RunIngest(ctx)
	case JobGenerate:
		return j.RunGenerate(ctx)
	case JobRefresh:
		return j.RunRefresh(ctx)
	default:
		return j.RunPrune(ctx)
	}
}

// RunIngest pulls the latest catalog into the problem pool.
func (j *JobService) RunIngest(ctx context.Context) (RunRecord, error) {
	return j.execute(ctx, JobIngest, func(ctx context.Context, record *RunRecord) error {
		stats, err := j.Ingester.IngestCatalog(ctx)
		if err != nil {
			return err
		}
		record.Stats = stats
		j.Metrics.observeIngest(stats)
		if stats.Errors > 0 {
			j.getLogger().WithField("run_id", record.RunID).
				Warnf("%d problems could not be stored", stats.Errors)
		}
		return nil
	})
}

// RunGenerate assigns today's problems and mails the shortfalls, if any.
func (j *JobService) RunGenerate(ctx context.Context) (RunRecord, error) {
	return j.execute(ctx, JobGenerate, func(ctx context.Context, record *RunRecord) error {
		stats, err := j.Generator.Generate(ctx, j.now())
		record.Stats = stats
		if err != nil {
			return err
		}
		j.Metrics.observeGeneration(&stats)

		shortfalls, bandErrors := collectProblems(&stats)
		if len(shortfalls) > 0 {
			j.alert(ctx, email.EmailRequest{
				Subject:  fmt.Sprintf("[potd] problem pool exhausted for %d band(s) on %s", len(shortfalls), stats.Date),
				Body:     describe(record.RunID, shortfalls),
				BodyType: email.KeyEmailBodyPlain,
				Purpose:  email.PurposePoolShortfall,
			})
		}
		if len(bandErrors) > 0 {
			j.alert(ctx, email.EmailRequest{
				Subject:  fmt.Sprintf("[potd] generation failed for %d band(s) on %s", len(bandErrors), stats.Date),
				Body:     describe(record.RunID, bandErrors),
				BodyType: email.KeyEmailBodyPlain,
				Purpose:  email.PurposeJobFailure,
			})
		}
		return nil
	})
}

// RunPrune drops ledger days outside the retention window for every user.
func (j *JobService) RunPrune(ctx context.Context) (RunRecord, error) {
	return j.execute(ctx, JobPrune, func(ctx context.Context, record *RunRecord) error {
		stats, err := j.Pruner.PruneAll(ctx)
		record.Stats = stats
		if err != nil {
			return err
		}
		j.Metrics.observePrune(stats)
		if stats.Failed > 0 {
			j.alert(ctx, email.EmailRequest{
				Subject:  fmt.Sprintf("[potd] pruning failed for %d of %d users", stats.Failed, stats.Users),
				Body:     describe(record.RunID, stats.Errors),
				BodyType: email.KeyEmailBodyPlain,
				Purpose:  email.PurposeJobFailure,
			})
		}
		return nil
	})
}

// RunRefresh pulls the current codeforces rating of every user so their band
// follows rating changes.
func (j *JobService) RunRefresh(ctx context.Context) (RunRecord, error) {
	return j.execute(ctx, JobRefresh, func(ctx context.Context, record *RunRecord) error {
		stats, err := j.Refresher.RefreshAll(ctx)
		record.Stats = stats
		if err != nil {
			return err
		}
		j.Metrics.observeRefresh(stats)
		if stats.Failed > 0 {
			j.alert(ctx, email.EmailRequest{
				Subject:  fmt.Sprintf("[potd] rating refresh failed for %d of %d users", stats.Failed, stats.Users),
				Body:     describe(record.RunID, stats.Errors),
				BodyType: email.KeyEmailBodyPlain,
				Purpose:  email.PurposeJobFailure,
			})
		}
		return nil
	})
}

func (j *JobService) execute(
	ctx context.Context,
	job string,
	fn func(ctx context.Context, record *RunRecord) error,
) (RunRecord, error) {
	record := RunRecord{
		RunID:     uuid.New(),
		Job:       job,
		StartedAt: time.Now(),
	}
	logger := j.getLogger().WithFields(logrus.Fields{
		"job":    job,
		"run_id": record.RunID,
	})
	logger.Info("job started")

	ctx, cancel := context.WithTimeout(ctx, j.timeout())
	defer cancel()

	err := fn(ctx, &record)
	record.FinishedAt = time.Now()
	elapsed := record.FinishedAt.Sub(record.StartedAt)

	if err != nil {
		record.Error = err.Error()
		j.Metrics.observeRun(job, statusFailed, elapsed.Seconds())
		logger.Errorf("job failed after %v, %v", elapsed, err)
		j.alert(ctx, email.EmailRequest{
			Subject:  fmt.Sprintf("[potd] %s job failed", job),
			Body:     fmt.Sprintf("run %s failed after %v\n\n%v", record.RunID, elapsed, err),
			BodyType: email.KeyEmailBodyPlain,
			Purpose:  email.PurposeJobFailure,
		})
		j.remember(record)
		return record, err
	}

	j.Metrics.observeRun(job, statusSucceeded, elapsed.Seconds())
	logger.Infof("job finished in %v", elapsed)
	j.remember(record)
	return record, nil
}

// alert never fails the job, a broken mailer is only logged.
func (j *JobService) alert(ctx context.Context, req email.EmailRequest) {
	if j.Alerts == nil {
		j.getLogger().WithField("purpose", req.Purpose).Warn(req.Subject)
		return
	}
	// a timed out job still gets its alert queued
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := j.Alerts.MailAlert(ctx, req); err != nil {
		j.getLogger().Errorf("cannot send %v alert, %v", req.Purpose, err)
	}
}

func (j *JobService) remember(record RunRecord) {
	j.runsLock.Lock()
	defer j.runsLock.Unlock()
	if j.lastRuns == nil {
		j.lastRuns = make(map[string]RunRecord)
	}
	j.lastRuns[record.Job] = record
}

// LastRun returns the most recent finished run of job.
func (j *JobService) LastRun(job string) (RunRecord, error) {
	if err := service.ValidateInput(&jobRequest{Job: job}); err != nil {
		return RunRecord{}, err
	}

	j.runsLock.RLock()
	defer j.runsLock.RUnlock()
	record, ok := j.lastRuns[job]
	if !ok {
		return RunRecord{}, fmt.Errorf("%w, %s has not run yet", potd_errors.ErrNotFound, job)
	}
	return record, nil
}

// collectProblems flattens shortfalls and band errors of the month and the
// prepared next month.
func collectProblems(
	stats *assignment_service.GenerationStats,
) ([]assignment_service.Shortfall, []assignment_service.BandError) {
	shortfalls := []assignment_service.Shortfall{}
	bandErrors := []assignment_service.BandError{}
	for ; stats != nil; stats = stats.NextMonth {
		shortfalls = append(shortfalls, stats.Shortfalls...)
		bandErrors = append(bandErrors, stats.Errors...)
	}
	return shortfalls, bandErrors
}

func describe(runID uuid.UUID, details any) string {
	body, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return fmt.Sprintf("run %s, %v", runID, details)
	}
	return fmt.Sprintf("run %s\n\n%s", runID, body)
}

package submission_service

import (
	"context"
	"errors"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	log "github.com/sirupsen/logrus"
)

// VerifyToday checks whether the user solved today's problem of their band and
// records the solve once. Failures are reported through Success and Reason.
// The error is only set for an invalid or unknown handle.
func (s *SubmissionService) VerifyToday(ctx context.Context, handle string) (VerifyTodayResult, error) {
	user, err := s.Users.GetUser(ctx, handle)
	if err != nil {
		return VerifyTodayResult{Reason: err.Error()}, err
	}

	today := daykey.Today(s.now())
	logger := log.WithFields(log.Fields{
		"from":   "verify_today",
		"handle": user.Handle,
		"day":    today.String(),
		"band":   user.Band,
	})

	problem, err := s.Problems.GetProblemForDay(ctx, today, user.Band)
	if err != nil {
		if !errors.Is(err, potd_errors.ErrNotFound) {
			logger.Errorf("cannot fetch today's problem, %v", err)
		}
		return VerifyTodayResult{Reason: reasonNoProblem}, nil
	}
	result := VerifyTodayResult{Problem: &problem}

	// skip polling when the ledger already has today
	status, err := s.Streaks.GetStreak(ctx, user.Handle)
	if err != nil {
		logger.Errorf("cannot read streak, %v", err)
		result.Reason = reasonStreakUnknown
		return result, nil
	}
	if status.SolvedToday {
		result.Success = true
		result.AlreadySolved = true
		result.Streak = status.Streak
		result.Reason = reasonAlreadySolved
		return result, nil
	}

	verification, err := s.Verifier.Verify(ctx, user.Handle, problem.ProblemID)
	if err != nil {
		logger.Warnf("verification failed, %v", err)
		result.Reason = verification.Reason
		if result.Reason == "" {
			result.Reason = err.Error()
		}
		result.Streak = status.Streak
		return result, nil
	}
	if !verification.Verified {
		result.Reason = verification.Reason
		result.Streak = status.Streak
		return result, nil
	}

	recorded, err := s.Streaks.RecordSolved(ctx, user.Handle, today)
	if err != nil {
		logger.Errorf("cannot record solve, %v", err)
		result.Reason = reasonStreakFailed
		result.Streak = status.Streak
		return result, nil
	}

	result.Success = true
	result.Reason = reasonVerified
	result.Streak = recorded.Streak
	result.WasReset = recorded.WasReset
	result.AlreadySolved = recorded.AlreadySolved
	return result, nil
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

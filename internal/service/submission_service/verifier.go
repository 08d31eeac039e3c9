package submission_service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

func NewVerifier(source SubmissionSource, attempts int, interval time.Duration) (*Verifier, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	verified, err := lru.New[string, acceptedSubmission](verifiedMemoSize)
	if err != nil {
		return nil, fmt.Errorf("%w, cannot create verification memo, %w", potd_errors.ErrInternal, err)
	}

	return &Verifier{
		Submissions: source,
		Attempts:    attempts,
		Interval:    interval,
		verified:    verified,
		logger:      logrus.WithField("from", "submission_verifier"),
	}, nil
}

// Verify polls until an accepted submission for the problem shows up, the
// attempts run out or ctx is done. An error is returned only for bad input,
// cancellation, or when every attempt failed upstream.
func (v *Verifier) Verify(
	ctx context.Context,
	handle string,
	problemID string,
) (VerificationResult, error) {
	err := service.ValidateInput(verifyRequest{Handle: handle, ProblemID: problemID})
	if err != nil {
		return VerificationResult{}, err
	}

	key := handle + "/" + problemID
	if found, ok := v.verified.Get(key); ok {
		return VerificationResult{
			Verified:     true,
			SubmissionID: found.id,
			SubmittedAt:  &found.submittedAt,
			Reason:       reasonVerified,
		}, nil
	}

	logger := v.logger.WithFields(logrus.Fields{
		"handle":     handle,
		"problem_id": problemID,
	})

	var (
		lastErr error
		failed  int
	)
	for attempt := 1; attempt <= v.Attempts; attempt++ {
		submissions, err := v.Submissions.UserStatus(ctx, handle, 1, recentCount)
		if err != nil {
			failed++
			lastErr = err
			logger.Warnf("attempt %d/%d failed, %v", attempt, v.Attempts, err)
		} else {
			for _, submission := range submissions {
				if submission.Accepted() && submission.Problem.ID() == problemID {
					submittedAt := submission.CreatedAt()
					v.verified.Add(key, acceptedSubmission{id: submission.ID, submittedAt: submittedAt})
					logger.WithField("submitted_at", submittedAt).
						Infof("accepted submission %d found on attempt %d", submission.ID, attempt)
					return VerificationResult{
						Verified:     true,
						Attempts:     attempt,
						SubmissionID: submission.ID,
						SubmittedAt:  &submittedAt,
						Reason:       reasonVerified,
					}, nil
				}
			}
		}

		if attempt == v.Attempts {
			break
		}
		timer := time.NewTimer(v.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return VerificationResult{Attempts: attempt, Reason: reasonCancelled}, ctx.Err()
		case <-timer.C:
		}
	}

	if failed == v.Attempts {
		return VerificationResult{Attempts: v.Attempts, Reason: reasonUpstream}, fmt.Errorf(
			"%w, all %d attempts failed, %w",
			potd_errors.ErrUpstreamUnavailable,
			v.Attempts,
			lastErr,
		)
	}
	return VerificationResult{Attempts: v.Attempts, Reason: reasonNotFound}, nil
}

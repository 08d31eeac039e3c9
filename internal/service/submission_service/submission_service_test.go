package submission_service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/codeforces"
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/streak_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/user_service"
	log "github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.ErrorLevel)
	os.Exit(m.Run())
}

// scriptedSource answers call i with responses[i], repeating the last one.
type scriptedSource struct {
	responses []response
	calls     int
}

type response struct {
	submissions []codeforces.Submission
	err         error
}

func (s *scriptedSource) UserStatus(ctx context.Context, handle string, from, count int) ([]codeforces.Submission, error) {
	i := min(s.calls, len(s.responses)-1)
	s.calls++
	return s.responses[i].submissions, s.responses[i].err
}

func accepted(id int64, contestID int32, index string) codeforces.Submission {
	return codeforces.Submission{
		ID:        id,
		ContestID: contestID,
		Problem:   codeforces.Problem{ContestID: contestID, Index: index},
		Verdict:   codeforces.VerdictOK,
	}
}

func rejected(id int64, contestID int32, index string) codeforces.Submission {
	s := accepted(id, contestID, index)
	s.Verdict = "WRONG_ANSWER"
	return s
}

func newTestVerifier(t *testing.T, source SubmissionSource, attempts int) *Verifier {
	t.Helper()
	v, err := NewVerifier(source, attempts, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestVerifyFindsAcceptedOnLaterAttempt(t *testing.T) {
	solved := accepted(2, 1850, "A")
	solved.CreationTimeSeconds = 1700000000
	source := &scriptedSource{responses: []response{
		{submissions: []codeforces.Submission{rejected(1, 1850, "A")}},
		{err: potd_errors.ErrUpstreamUnavailable},
		{submissions: []codeforces.Submission{rejected(1, 1850, "A"), solved}},
	}}
	submittedAt := time.Unix(1700000000, 0).UTC()
	v := newTestVerifier(t, source, 10)

	result, err := v.Verify(t.Context(), "tourist", "1850A")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Verified || result.Attempts != 3 || result.SubmissionID != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.SubmittedAt == nil || !result.SubmittedAt.Equal(submittedAt) {
		t.Errorf("SubmittedAt = %v, want %v", result.SubmittedAt, submittedAt)
	}

	// remembered, no more upstream calls
	memo, err := v.Verify(t.Context(), "tourist", "1850A")
	if err != nil || source.calls != 3 {
		t.Errorf("memoised verification hit upstream, calls %d, err %v", source.calls, err)
	}
	if memo.SubmissionID != 2 || memo.SubmittedAt == nil || !memo.SubmittedAt.Equal(submittedAt) {
		t.Errorf("unexpected memoised result %+v", memo)
	}
}

func TestVerifyIgnoresOtherProblems(t *testing.T) {
	source := &scriptedSource{responses: []response{
		{submissions: []codeforces.Submission{accepted(1, 1850, "B"), accepted(2, 1851, "A")}},
	}}
	v := newTestVerifier(t, source, 4)

	result, err := v.Verify(t.Context(), "tourist", "1850A")
	if err != nil {
		t.Fatal(err)
	}
	if result.Verified || result.Attempts != 4 || source.calls != 4 {
		t.Errorf("unexpected result %+v after %d calls", result, source.calls)
	}
}

func TestVerifyUpstreamDown(t *testing.T) {
	source := &scriptedSource{responses: []response{{err: potd_errors.ErrUpstreamUnavailable}}}
	v := newTestVerifier(t, source, 3)

	result, err := v.Verify(t.Context(), "tourist", "1850A")
	if !errors.Is(err, potd_errors.ErrUpstreamUnavailable) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if result.Verified || source.calls != 3 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestVerifyCancelled(t *testing.T) {
	source := &scriptedSource{responses: []response{{}}}
	v, err := NewVerifier(source, 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	result, err := v.Verify(ctx, "tourist", "1850A")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result.Attempts != 1 || source.calls != 1 {
		t.Errorf("polling continued after cancel, %+v", result)
	}
}

func TestVerifyRejectsBadInput(t *testing.T) {
	v := newTestVerifier(t, &scriptedSource{responses: []response{{}}}, 1)
	if _, err := v.Verify(t.Context(), "", "1850A"); !errors.Is(err, potd_errors.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

var today = daykey.New(2025, 3, 15)

type fakeUsers map[string]user_service.User

func (f fakeUsers) GetUser(ctx context.Context, handle string) (user_service.User, error) {
	user, ok := f[handle]
	if !ok {
		return user_service.User{}, potd_errors.ErrNotFound
	}
	return user, nil
}

type fakeProblems map[int32]assignment_service.DayProblem

func (f fakeProblems) GetProblemForDay(ctx context.Context, day daykey.DayKey, band int32) (assignment_service.DayProblem, error) {
	problem, ok := f[band]
	if !ok || day != today {
		return assignment_service.DayProblem{}, potd_errors.ErrNotFound
	}
	return problem, nil
}

type fakeStreaks struct {
	solved  map[string]bool
	records int
}

func (f *fakeStreaks) GetStreak(ctx context.Context, handle string) (streak_service.StreakStatus, error) {
	status := streak_service.StreakStatus{Handle: handle, Streak: 4, SolvedToday: f.solved[handle]}
	if status.SolvedToday {
		status.Streak = 5
	}
	return status, nil
}

func (f *fakeStreaks) RecordSolved(ctx context.Context, handle string, day daykey.DayKey) (streak_service.RecordResult, error) {
	f.records++
	f.solved[handle] = true
	return streak_service.RecordResult{Streak: 5}, nil
}

func newSubmissionService(t *testing.T, source SubmissionSource) (*SubmissionService, *fakeStreaks) {
	streaks := &fakeStreaks{solved: map[string]bool{}}
	return &SubmissionService{
		Users:    fakeUsers{"tourist": {Handle: "tourist", Band: 1400}, "petr": {Handle: "petr", Band: 2000}},
		Problems: fakeProblems{1400: {Day: 15, ProblemID: "1850A", SourceBand: 1400}},
		Streaks:  streaks,
		Verifier: newTestVerifier(t, source, 2),
		Now:      func() time.Time { return today.Time().Add(20 * time.Hour) },
	}, streaks
}

func TestVerifyTodayRecordsOnce(t *testing.T) {
	source := &scriptedSource{responses: []response{
		{submissions: []codeforces.Submission{accepted(9, 1850, "A")}},
	}}
	s, streaks := newSubmissionService(t, source)

	first, err := s.VerifyToday(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Success || first.Streak != 5 || first.AlreadySolved || first.Problem.ProblemID != "1850A" {
		t.Errorf("unexpected first result %+v", first)
	}

	second, err := s.VerifyToday(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Success || !second.AlreadySolved || second.Streak != 5 {
		t.Errorf("unexpected second result %+v", second)
	}
	if streaks.records != 1 || source.calls != 1 {
		t.Errorf("records %d, upstream calls %d, want 1 and 1", streaks.records, source.calls)
	}
}

func TestVerifyTodayNotSolved(t *testing.T) {
	source := &scriptedSource{responses: []response{{}}}
	s, streaks := newSubmissionService(t, source)

	result, err := s.VerifyToday(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.Reason != reasonNotFound || result.Streak != 4 || streaks.records != 0 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestVerifyTodayStructuredFailures(t *testing.T) {
	source := &scriptedSource{responses: []response{{err: potd_errors.ErrUpstreamUnavailable}}}
	s, _ := newSubmissionService(t, source)

	result, err := s.VerifyToday(t.Context(), "tourist")
	if err != nil || result.Success || result.Reason != reasonUpstream {
		t.Errorf("upstream failure should be a structured result, got %+v %v", result, err)
	}

	result, err = s.VerifyToday(t.Context(), "petr")
	if err != nil || result.Success || result.Reason != reasonNoProblem {
		t.Errorf("missing problem should be a structured result, got %+v %v", result, err)
	}

	if _, err = s.VerifyToday(t.Context(), "nobody"); !errors.Is(err, potd_errors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

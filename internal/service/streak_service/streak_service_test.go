package streak_service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	log "github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.ErrorLevel)
	os.Exit(m.Run())
}

var today = daykey.New(2025, 3, 15)

func clock() time.Time {
	return today.Time().Add(13 * time.Hour)
}

type memLedgerStore struct {
	mu      sync.Mutex
	ledgers map[string]Ledger
	failOn  map[string]bool
	updates int
}

func newMemLedgerStore(ledgers ...Ledger) *memLedgerStore {
	s := &memLedgerStore{ledgers: map[string]Ledger{}, failOn: map[string]bool{}}
	for _, l := range ledgers {
		s.ledgers[l.Handle] = l
	}
	return s
}

func (s *memLedgerStore) GetLedger(ctx context.Context, handle string) (Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[handle]
	if !ok {
		return Ledger{}, fmt.Errorf("%w, user %s", potd_errors.ErrNotFound, handle)
	}
	return l.Clone(), nil
}

func (s *memLedgerStore) UpdateLedger(ctx context.Context, handle string, fn func(*Ledger) error) (Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[handle] {
		return Ledger{}, potd_errors.ErrInternal
	}
	l, ok := s.ledgers[handle]
	if !ok {
		return Ledger{}, fmt.Errorf("%w, user %s", potd_errors.ErrNotFound, handle)
	}
	next := l.Clone()
	if err := fn(&next); err != nil {
		return Ledger{}, err
	}
	s.ledgers[handle] = next
	s.updates++
	return next.Clone(), nil
}

func (s *memLedgerStore) ListHandles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handles := []string{}
	for handle := range s.ledgers {
		handles = append(handles, handle)
	}
	return handles, nil
}

func ledgerWith(handle string, days map[daykey.DayKey]bool, last *daykey.DayKey) Ledger {
	l := NewLedger(handle)
	for day, solved := range days {
		l.Set(day, solved)
	}
	l.LastStreakDate = last
	return l
}

func ago(n int) daykey.DayKey {
	return today.AddDays(-n)
}

func ptr(d daykey.DayKey) *daykey.DayKey {
	return &d
}

func newService(store LedgerStore) *StreakService {
	return &StreakService{Store: store, Now: clock}
}

func TestComputeCurrentStreak(t *testing.T) {
	tests := []struct {
		name string
		days map[daykey.DayKey]bool
		want int32
	}{
		{"empty", nil, 0},
		{"monotonic walk", map[daykey.DayKey]bool{ago(0): true, ago(1): true, ago(2): true, ago(3): false}, 3},
		{"grace day", map[daykey.DayKey]bool{ago(1): true}, 1},
		{"grace day with explicit false today", map[daykey.DayKey]bool{ago(0): false, ago(1): true, ago(2): true}, 2},
		{"break on gap", map[daykey.DayKey]bool{ago(2): true}, 0},
		{"walk stops at absent day", map[daykey.DayKey]bool{ago(0): true, ago(2): true}, 1},
		{"future days ignored", map[daykey.DayKey]bool{today.AddDays(1): true, today.AddDays(2): true}, 0},
		{"future days do not extend", map[daykey.DayKey]bool{today.AddDays(1): true, ago(0): true}, 1},
		{"across month boundary", map[daykey.DayKey]bool{
			daykey.New(2025, 3, 1): true,
			daykey.New(2025, 2, 28): true,
			daykey.New(2025, 2, 27): true,
		}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCurrentStreak(ledgerWith("tourist", tt.days, nil), today)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}

	// a run crossing into a new month keeps counting
	first := daykey.New(2025, 3, 1)
	l := ledgerWith("tourist", map[daykey.DayKey]bool{
		first:                   true,
		daykey.New(2025, 2, 28): true,
		daykey.New(2025, 2, 27): true,
	}, nil)
	if got := ComputeCurrentStreak(l, first); got != 3 {
		t.Errorf("cross month streak = %d, want 3", got)
	}
}

func TestShouldResetStreakCounter(t *testing.T) {
	first := daykey.New(2025, 3, 1)
	tests := []struct {
		name  string
		last  *daykey.DayKey
		today daykey.DayKey
		want  bool
	}{
		{"never solved", nil, today, true},
		{"solved today", ptr(today), today, false},
		{"solved yesterday", ptr(ago(1)), today, false},
		{"gap of two days", ptr(ago(2)), today, true},
		{"new month", ptr(daykey.New(2025, 2, 28)), first, true},
		{"first of month solved same day", ptr(first), first, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledgerWith("tourist", nil, tt.last)
			if got := ShouldResetStreakCounter(l, tt.today); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordSolvedIsIdempotent(t *testing.T) {
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{ago(1): true, ago(2): true}, ptr(ago(1))))
	s := newService(store)

	first, err := s.RecordSolved(t.Context(), "tourist", today)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.RecordSolved(t.Context(), "tourist", today)
	if err != nil {
		t.Fatal(err)
	}

	if first.Streak != 3 || second.Streak != 3 {
		t.Errorf("streaks %d and %d, want 3 both times", first.Streak, second.Streak)
	}
	if first.AlreadySolved || !second.AlreadySolved {
		t.Errorf("already_solved flags wrong: %+v %+v", first, second)
	}
	if first.WasReset {
		t.Errorf("solve after yesterday must continue the streak")
	}
	if *first.LastStreakDate != today {
		t.Errorf("pointer = %s, want %s", first.LastStreakDate, today)
	}
	if got := store.ledgers["tourist"].StreakCount; got != 3 {
		t.Errorf("cached count = %d, want 3", got)
	}
}

func TestRecordSolvedAfterGapResets(t *testing.T) {
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{ago(5): true}, ptr(ago(5))))
	s := newService(store)

	result, err := s.RecordSolved(t.Context(), "tourist", today)
	if err != nil {
		t.Fatal(err)
	}
	if !result.WasReset || result.Streak != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	// history is kept
	if !store.ledgers["tourist"].Days[ago(5)] {
		t.Errorf("old solved day was erased")
	}
}

func TestRecordSolvedPastDayKeepsPointer(t *testing.T) {
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{ago(0): true}, ptr(ago(0))))
	s := newService(store)

	result, err := s.RecordSolved(t.Context(), "tourist", ago(1))
	if err != nil {
		t.Fatal(err)
	}
	if *result.LastStreakDate != today || result.Streak != 2 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestRecordSolvedReconcilesStalePointer(t *testing.T) {
	// yesterday was reset after the pointer moved there
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{ago(1): false, ago(3): true}, ptr(ago(1))))
	s := newService(store)

	result, err := s.RecordSolved(t.Context(), "tourist", today)
	if err != nil {
		t.Fatal(err)
	}
	if !result.WasReset || result.Streak != 1 {
		t.Errorf("solve after a reset day must start a new streak, got %+v", result)
	}
	if *result.LastStreakDate != today {
		t.Errorf("pointer = %s, want %s", result.LastStreakDate, today)
	}

	// an already solved day still heals the pointer
	store = newMemLedgerStore(ledgerWith("petr", map[daykey.DayKey]bool{today: true, ago(1): false}, ptr(ago(1))))
	s = newService(store)
	result, err = s.RecordSolved(t.Context(), "petr", today)
	if err != nil {
		t.Fatal(err)
	}
	if !result.AlreadySolved || *result.LastStreakDate != today {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestRecordSolvedRejects(t *testing.T) {
	s := newService(newMemLedgerStore(NewLedger("tourist")))

	if _, err := s.RecordSolved(t.Context(), "tourist", today.AddDays(1)); !errors.Is(err, potd_errors.ErrInvalidRequest) {
		t.Errorf("expected invalid request for future day, got %v", err)
	}
	if _, err := s.RecordSolved(t.Context(), "", today); !errors.Is(err, potd_errors.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if _, err := s.RecordSolved(t.Context(), "nobody", today); !errors.Is(err, potd_errors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestReconcileLastStreakDate(t *testing.T) {
	store := newMemLedgerStore(
		ledgerWith("tourist", map[daykey.DayKey]bool{ago(5): false, ago(2): true, ago(9): true}, ptr(ago(5))),
		ledgerWith("petr", map[daykey.DayKey]bool{ago(3): false}, ptr(ago(3))),
	)
	s := newService(store)

	status, err := s.Reconcile(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if status.LastStreakDate == nil || *status.LastStreakDate != ago(2) {
		t.Errorf("pointer = %v, want %s", status.LastStreakDate, ago(2))
	}

	status, err = s.Reconcile(t.Context(), "petr")
	if err != nil {
		t.Fatal(err)
	}
	if status.LastStreakDate != nil {
		t.Errorf("pointer should be cleared, got %s", status.LastStreakDate)
	}
}

func TestReconcileIgnoresFutureDays(t *testing.T) {
	l := ledgerWith("tourist", map[daykey.DayKey]bool{today.AddDays(3): true, ago(1): true}, ptr(today.AddDays(3)))
	if !reconcileLastStreakDate(&l, today) {
		t.Fatal("expected the future pointer to be repaired")
	}
	if *l.LastStreakDate != ago(1) {
		t.Errorf("pointer = %s, want %s", l.LastStreakDate, ago(1))
	}
}

func TestPrunePreservesPointer(t *testing.T) {
	old := today.AddMonths(-4)
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{old: true, ago(1): true}, ptr(ago(1))))
	s := newService(store)

	removed, reconciled, err := s.Prune(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 || reconciled {
		t.Errorf("removed %d reconciled %v", removed, reconciled)
	}
	ledger := store.ledgers["tourist"]
	if *ledger.LastStreakDate != ago(1) {
		t.Errorf("pointer changed to %s", ledger.LastStreakDate)
	}
	if _, ok := ledger.Days[old]; ok {
		t.Errorf("stale day kept")
	}
}

func TestPruneReconcilesWhenPointerRemoved(t *testing.T) {
	old := today.AddMonths(-4)
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{old: true, ago(2): true}, ptr(old)))
	s := newService(store)

	removed, reconciled, err := s.Prune(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 || !reconciled {
		t.Errorf("removed %d reconciled %v", removed, reconciled)
	}
	if got := store.ledgers["tourist"].LastStreakDate; got == nil || *got != ago(2) {
		t.Errorf("pointer = %v, want %s", got, ago(2))
	}
}

func TestPruneKeepsDaysInsideWindow(t *testing.T) {
	edge := today.AddMonths(-DefaultRetentionMonths)
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{edge: true, edge.AddDays(-1): false}, ptr(edge)))
	s := newService(store)

	removed, _, err := s.Prune(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 || !store.ledgers["tourist"].Days[edge] {
		t.Errorf("cutoff day handled wrong, removed %d", removed)
	}
}

func TestPruneAllIsolatesFailures(t *testing.T) {
	old := today.AddMonths(-6)
	store := newMemLedgerStore(
		ledgerWith("tourist", map[daykey.DayKey]bool{old: true}, ptr(old)),
		ledgerWith("petr", map[daykey.DayKey]bool{old: true, old.AddDays(1): true}, nil),
		ledgerWith("broken", map[daykey.DayKey]bool{old: true}, nil),
	)
	store.failOn["broken"] = true
	s := newService(store)

	stats, err := s.PruneAll(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Users != 3 || stats.Succeeded != 2 || stats.Failed != 1 || stats.RemovedDays != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Reconciled != 1 || len(stats.Errors) != 1 || stats.Errors[0].Handle != "broken" {
		t.Errorf("unexpected stats %+v", stats)
	}
	if store.ledgers["tourist"].LastStreakDate != nil {
		t.Errorf("pointer to pruned day kept")
	}
}

func TestResetMonth(t *testing.T) {
	feb := daykey.New(2025, 2, 20)
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{
		feb:    true,
		ago(0): true,
		ago(1): true,
	}, ptr(ago(0))))
	s := newService(store)

	status, err := s.ResetMonth(t.Context(), "tourist", 2025, 3)
	if err != nil {
		t.Fatal(err)
	}
	if status.Streak != 0 || status.SolvedToday {
		t.Errorf("unexpected status %+v", status)
	}
	if status.LastStreakDate == nil || *status.LastStreakDate != feb {
		t.Errorf("pointer = %v, want %s", status.LastStreakDate, feb)
	}

	ledger := store.ledgers["tourist"]
	if !ledger.Days[feb] {
		t.Errorf("history outside the month was erased")
	}
	solved, tracked := ledger.Get(daykey.New(2025, 3, 31))
	if solved || !tracked {
		t.Errorf("march 31 should be an explicit false")
	}

	if _, err := s.ResetMonth(t.Context(), "tourist", 2025, 0); !errors.Is(err, potd_errors.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestSetDay(t *testing.T) {
	store := newMemLedgerStore(ledgerWith("tourist", map[daykey.DayKey]bool{ago(0): true, ago(1): true}, ptr(ago(0))))
	s := newService(store)

	status, err := s.SetDay(t.Context(), "tourist", ago(0), false)
	if err != nil {
		t.Fatal(err)
	}
	if status.Streak != 1 || *status.LastStreakDate != ago(1) {
		t.Errorf("unexpected status after unsetting today %+v", status)
	}

	status, err = s.SetDay(t.Context(), "tourist", ago(0), true)
	if err != nil {
		t.Fatal(err)
	}
	if status.Streak != 2 || *status.LastStreakDate != today {
		t.Errorf("unexpected status after setting today %+v", status)
	}
}

func TestGetStreakHealsDrift(t *testing.T) {
	l := ledgerWith("tourist", map[daykey.DayKey]bool{ago(1): true, ago(2): true}, ptr(ago(1)))
	l.StreakCount = 7
	store := newMemLedgerStore(l)
	s := newService(store)

	status, err := s.GetStreak(t.Context(), "tourist")
	if err != nil {
		t.Fatal(err)
	}
	if status.Streak != 2 || status.SolvedToday {
		t.Errorf("unexpected status %+v", status)
	}
	if store.ledgers["tourist"].StreakCount != 2 {
		t.Errorf("cached count not repaired")
	}

	// consistent ledger is not rewritten
	updates := store.updates
	if _, err = s.GetStreak(t.Context(), "tourist"); err != nil {
		t.Fatal(err)
	}
	if store.updates != updates {
		t.Errorf("consistent ledger was rewritten")
	}
}

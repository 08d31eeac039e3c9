package streak_service

import (
	"maps"

	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
)

// Ledger is a user's sparse day record. A missing day is untracked, a false
// day was explicitly marked unsolved.
type Ledger struct {
	Handle         string
	Days           map[daykey.DayKey]bool
	LastStreakDate *daykey.DayKey
	StreakCount    int32
}

func NewLedger(handle string) Ledger {
	return Ledger{Handle: handle, Days: make(map[daykey.DayKey]bool)}
}

func (l *Ledger) Get(day daykey.DayKey) (solved bool, tracked bool) {
	solved, tracked = l.Days[day]
	return
}

func (l *Ledger) IsSolved(day daykey.DayKey) bool {
	return l.Days[day]
}

func (l *Ledger) Set(day daykey.DayKey, solved bool) {
	if l.Days == nil {
		l.Days = make(map[daykey.DayKey]bool)
	}
	l.Days[day] = solved
}

// MarkMonthUnsolved sets every day of the month to false and returns how many
// days it touched.
func (l *Ledger) MarkMonthUnsolved(year, month int) int {
	n := daykey.DaysInMonth(year, month)
	for d := 1; d <= n; d++ {
		l.Set(daykey.New(year, month, d), false)
	}
	return n
}

func (l *Ledger) Remove(days []daykey.DayKey) {
	for _, day := range days {
		delete(l.Days, day)
	}
}

// MostRecentSolved ignores days after notAfter.
func (l *Ledger) MostRecentSolved(notAfter daykey.DayKey) *daykey.DayKey {
	var latest *daykey.DayKey
	for day, solved := range l.Days {
		if !solved || day.After(notAfter) {
			continue
		}
		if latest == nil || day.After(*latest) {
			d := day
			latest = &d
		}
	}
	return latest
}

func (l Ledger) Clone() Ledger {
	clone := l
	clone.Days = maps.Clone(l.Days)
	if clone.Days == nil {
		clone.Days = make(map[daykey.DayKey]bool)
	}
	if l.LastStreakDate != nil {
		last := *l.LastStreakDate
		clone.LastStreakDate = &last
	}
	return clone
}

package streak_service

import (
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
)

// ComputeCurrentStreak counts the run of solved days ending today, or ending
// yesterday when today is not solved yet. Days after today never count.
func ComputeCurrentStreak(l Ledger, today daykey.DayKey) int32 {
	start := today
	if !l.IsSolved(today) {
		start = today.AddDays(-1)
		if !l.IsSolved(start) {
			return 0
		}
	}

	var count int32
	for day := start; l.IsSolved(day); day = day.AddDays(-1) {
		count++
	}
	return count
}

// ShouldResetStreakCounter reports whether a solve today starts a fresh
// counter instead of extending the previous one. It never touches history.
func ShouldResetStreakCounter(l Ledger, today daykey.DayKey) bool {
	if l.LastStreakDate == nil {
		return true
	}
	last := *l.LastStreakDate
	if today.IsFirstOfMonth() && !last.SameMonth(today) {
		return true
	}
	return last.DaysBetween(today) > 1
}

// reconcileLastStreakDate repoints a stale or missing pointer at the most
// recent solved day not after today. Reports whether the pointer changed.
func reconcileLastStreakDate(l *Ledger, today daykey.DayKey) bool {
	if l.LastStreakDate != nil && l.IsSolved(*l.LastStreakDate) && !l.LastStreakDate.After(today) {
		return false
	}

	latest := l.MostRecentSolved(today)
	if latest == nil && l.LastStreakDate == nil {
		return false
	}
	if latest != nil && l.LastStreakDate != nil && *latest == *l.LastStreakDate {
		return false
	}
	l.LastStreakDate = latest
	return true
}

// pruneStaleDays drops every entry before cutoff. The pointer is reconciled
// only when the day it pointed to was dropped.
func pruneStaleDays(l *Ledger, cutoff, today daykey.DayKey) (removed int, reconciled bool) {
	stale := make([]daykey.DayKey, 0)
	for day := range l.Days {
		if day.Before(cutoff) {
			stale = append(stale, day)
		}
	}
	if len(stale) == 0 {
		return 0, false
	}
	l.Remove(stale)

	if l.LastStreakDate != nil && l.LastStreakDate.Before(cutoff) {
		reconcileLastStreakDate(l, today)
		reconciled = true
	}
	return len(stale), reconciled
}

// refresh stores the recomputed counter, the cached value is never trusted.
func refresh(l *Ledger, today daykey.DayKey) {
	l.StreakCount = ComputeCurrentStreak(*l, today)
}

// Package daykey holds the canonical calendar day used by ledgers and
// assignments. Months are always 1-12 and every conversion goes through UTC.
package daykey

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

type DayKey struct {
	Year  int
	Month int
	Day   int
}

func New(year, month, day int) DayKey {
	return FromTime(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

func FromTime(t time.Time) DayKey {
	t = t.UTC()
	return DayKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Today returns the UTC day that now falls on.
func Today(now time.Time) DayKey {
	return FromTime(now)
}

func Parse(s string) (DayKey, error) {
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return DayKey{}, fmt.Errorf("cannot parse day %q, expected YYYY-MM-DD: %w", s, err)
	}
	return FromTime(t), nil
}

func (d DayKey) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d DayKey) String() string {
	return d.Time().Format(layout)
}

func (d DayKey) IsZero() bool {
	return d == DayKey{}
}

func (d DayKey) AddDays(n int) DayKey {
	return FromTime(d.Time().AddDate(0, 0, n))
}

func (d DayKey) AddMonths(n int) DayKey {
	return FromTime(d.Time().AddDate(0, n, 0))
}

func (d DayKey) Compare(o DayKey) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(d.Month, o.Month)
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d DayKey) Before(o DayKey) bool { return d.Compare(o) < 0 }
func (d DayKey) After(o DayKey) bool  { return d.Compare(o) > 0 }

// DaysBetween is the number of whole days from d to o (negative if o is earlier).
func (d DayKey) DaysBetween(o DayKey) int {
	return int(o.Time().Sub(d.Time()).Hours() / 24)
}

func (d DayKey) SameMonth(o DayKey) bool {
	return d.Year == o.Year && d.Month == o.Month
}

func (d DayKey) IsFirstOfMonth() bool {
	return d.Day == 1
}

func (d DayKey) DaysInMonth() int {
	return DaysInMonth(d.Year, d.Month)
}

func (d DayKey) FirstOfMonth() DayKey {
	return DayKey{Year: d.Year, Month: d.Month, Day: 1}
}

func (d DayKey) FirstOfNextMonth() DayKey {
	return d.FirstOfMonth().AddMonths(1)
}

func (d DayKey) FirstOfPreviousMonth() DayKey {
	return d.FirstOfMonth().AddMonths(-1)
}

func (d DayKey) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DayKey) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func DaysInMonth(year, month int) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

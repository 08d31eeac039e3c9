package daykey

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFromTimeUsesUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2025, time.March, 31, 23, 30, 0, 0, loc)

	got := FromTime(local)
	want := DayKey{Year: 2025, Month: 4, Day: 1}
	if got != want {
		t.Errorf("FromTime(%v) = %v, want %v", local, got, want)
	}
}

func TestAddDaysAcrossBoundaries(t *testing.T) {
	tests := []struct {
		name string
		from DayKey
		n    int
		want DayKey
	}{
		{"month end", New(2025, 1, 31), 1, New(2025, 2, 1)},
		{"year end", New(2024, 12, 31), 1, New(2025, 1, 1)},
		{"leap day", New(2024, 2, 28), 1, New(2024, 2, 29)},
		{"backwards into previous month", New(2025, 3, 1), -1, New(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.AddDays(tt.n); got != tt.want {
				t.Errorf("%v.AddDays(%d) = %v, want %v", tt.from, tt.n, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := New(2025, 2, 27)
	b := New(2025, 3, 2)
	if got := a.DaysBetween(b); got != 3 {
		t.Errorf("DaysBetween = %d, want 3", got)
	}
	if got := b.DaysBetween(a); got != -3 {
		t.Errorf("DaysBetween reversed = %d, want -3", got)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 2, 29},
		{2025, 2, 28},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestParseAndString(t *testing.T) {
	d, err := Parse("2025-07-04")
	if err != nil {
		t.Fatal(err)
	}
	if d != New(2025, 7, 4) {
		t.Errorf("Parse = %v", d)
	}
	if d.String() != "2025-07-04" {
		t.Errorf("String = %s", d.String())
	}
	if _, err := Parse("2025-7"); err == nil {
		t.Error("expected error for malformed day")
	}
}

func TestJSONMapKeys(t *testing.T) {
	days := map[DayKey]bool{New(2025, 1, 2): true}
	b, err := json.Marshal(days)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"2025-01-02":true}` {
		t.Errorf("marshal = %s", b)
	}

	var back map[DayKey]bool
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back[New(2025, 1, 2)] {
		t.Errorf("unmarshal lost key: %v", back)
	}
}

func TestMonthHelpers(t *testing.T) {
	d := New(2025, 12, 30)
	if got := d.FirstOfNextMonth(); got != New(2026, 1, 1) {
		t.Errorf("FirstOfNextMonth = %v", got)
	}
	if got := New(2025, 1, 1).FirstOfPreviousMonth(); got != New(2024, 12, 1) {
		t.Errorf("FirstOfPreviousMonth = %v", got)
	}
	if !New(2025, 5, 1).IsFirstOfMonth() {
		t.Error("expected first of month")
	}
}

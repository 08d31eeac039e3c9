package database

import (
	"time"
)

type Problem struct {
	ProblemID    string
	ContestID    int32
	ProblemIndex string
	Name         string
	Rating       *int32
	ProblemUrl   string
	Used         bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ProblemSet struct {
	Year      int32
	Month     int32
	CreatedAt time.Time
}

type MonthlyAssignment struct {
	Year       int32
	Month      int32
	Band       int32
	Day        int32
	ProblemID  string
	ProblemUrl string
	SourceBand int32
	CreatedAt  time.Time
}

type User struct {
	Handle         string
	Rating         *int32
	LastStreakDate *time.Time
	StreakCount    int32
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type StreakDay struct {
	Handle string
	Day    time.Time
	Solved bool
}

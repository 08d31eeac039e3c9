package user_service

import (
	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
)

func dbUserToServiceUser(dbUser database.User) User {
	user := User{
		Handle:      dbUser.Handle,
		Rating:      dbUser.Rating,
		Band:        assignment_service.BandForRating(dbUser.Rating),
		StreakCount: dbUser.StreakCount,
		CreatedAt:   dbUser.CreatedAt,
	}
	if dbUser.LastStreakDate != nil {
		last := daykey.FromTime(*dbUser.LastStreakDate)
		user.LastStreakDate = &last
	}
	return user
}

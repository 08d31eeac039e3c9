package user_service

import (
	"context"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/codeforces"
	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
)

var (
	msgUniqueConstraint = map[string]string{
		"users_pkey": "user with this handle is already registered",
	}

	errMsgs = map[string]map[string]string{
		potd_errors.CodeUniqueConstraint: msgUniqueConstraint,
	}
)

type UserStore interface {
	CreateUser(ctx context.Context, handle string, rating *int32) (database.User, error)
	GetUserByHandle(ctx context.Context, handle string) (database.User, error)
	UpdateUserRating(ctx context.Context, handle string, rating *int32) (int64, error)
	ListUserHandles(ctx context.Context) ([]string, error)
}

type ProfileSource interface {
	UserInfo(ctx context.Context, handle string) (codeforces.User, error)
}

type UserService struct {
	DB       UserStore
	Profiles ProfileSource
}

type User struct {
	Handle         string         `json:"handle"`
	Rating         *int32         `json:"rating"`
	Band           int32          `json:"band"`
	StreakCount    int32          `json:"streak_count"`
	LastStreakDate *daykey.DayKey `json:"last_streak_date"`
	CreatedAt      time.Time      `json:"created_at"`
}

type CreateUserRequest struct {
	Handle string `json:"handle" validate:"required,min=3,max=24,printascii"`
}

type RefreshStats struct {
	Users       int           `json:"users"`
	Refreshed   int           `json:"refreshed"`
	BandChanges int           `json:"band_changes"`
	Failed      int           `json:"failed"`
	Errors      []HandleError `json:"errors"`
}

type HandleError struct {
	Handle string `json:"handle"`
	Error  string `json:"error"`
}

package user_service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	log "github.com/sirupsen/logrus"
)

// CreateUser registers a codeforces handle. The handle must exist upstream,
// its rating is stored with an empty ledger. An already registered handle is
// returned together with ErrEntityAlreadyExist.
func (u *UserService) CreateUser(ctx context.Context, request CreateUserRequest) (User, error) {
	if err := service.ValidateInput(request); err != nil {
		return User{}, err
	}

	existing, err := u.GetUser(ctx, request.Handle)
	if err == nil {
		return existing, fmt.Errorf(
			"%w, user %s is already registered",
			potd_errors.ErrEntityAlreadyExist,
			request.Handle,
		)
	}
	if !errors.Is(err, potd_errors.ErrNotFound) {
		return User{}, err
	}

	profile, err := u.Profiles.UserInfo(ctx, request.Handle)
	if err != nil {
		log.WithField("handle", request.Handle).Errorf("cannot fetch codeforces profile, %v", err)
		return User{}, err
	}

	dbUser, err := u.DB.CreateUser(ctx, request.Handle, profile.Rating)
	if err != nil {
		return User{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot insert user %s", request.Handle),
		)
	}

	log.WithFields(log.Fields{
		"handle": dbUser.Handle,
		"rating": dbUser.Rating,
	}).Info("user registered")
	return dbUserToServiceUser(dbUser), nil
}

func (u *UserService) GetUser(ctx context.Context, handle string) (User, error) {
	if err := service.ValidateInput(CreateUserRequest{Handle: handle}); err != nil {
		return User{}, err
	}

	dbUser, err := u.DB.GetUserByHandle(ctx, handle)
	if err != nil {
		return User{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot fetch user %s from db", handle),
		)
	}
	return dbUserToServiceUser(dbUser), nil
}

// RefreshRating pulls the current rating from codeforces, which moves the
// user to another band from the next lookup on.
func (u *UserService) RefreshRating(ctx context.Context, handle string) (User, error) {
	if err := service.ValidateInput(CreateUserRequest{Handle: handle}); err != nil {
		return User{}, err
	}

	profile, err := u.Profiles.UserInfo(ctx, handle)
	if err != nil {
		return User{}, err
	}

	rows, err := u.DB.UpdateUserRating(ctx, handle, profile.Rating)
	if err != nil {
		return User{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot update rating of %s", handle),
		)
	}
	if rows == 0 {
		return User{}, fmt.Errorf("%w, user %s is not registered", potd_errors.ErrNotFound, handle)
	}
	return u.GetUser(ctx, handle)
}

func (u *UserService) ListHandles(ctx context.Context) ([]string, error) {
	handles, err := u.DB.ListUserHandles(ctx)
	if err != nil {
		return nil, potd_errors.HandleDBErrors(err, errMsgs, "cannot list user handles")
	}
	return handles, nil
}

// RefreshAll refreshes the rating of every registered user. Users that fail
// are recorded and skipped.
func (u *UserService) RefreshAll(ctx context.Context) (RefreshStats, error) {
	handles, err := u.ListHandles(ctx)
	if err != nil {
		return RefreshStats{}, err
	}

	stats := RefreshStats{Users: len(handles), Errors: []HandleError{}}
	for _, handle := range handles {
		if err = ctx.Err(); err != nil {
			return stats, err
		}
		changed, err := u.refreshBand(ctx, handle)
		if err == nil {
			stats.Refreshed++
			if changed {
				stats.BandChanges++
			}
			continue
		}
		log.WithField("handle", handle).Errorf("cannot refresh rating, %v", err)
		stats.Failed++
		stats.Errors = append(stats.Errors, HandleError{Handle: handle, Error: err.Error()})
	}

	log.WithFields(log.Fields{
		"users":        stats.Users,
		"failed":       stats.Failed,
		"band_changes": stats.BandChanges,
	}).Info("user ratings refreshed")
	return stats, nil
}

func (u *UserService) refreshBand(ctx context.Context, handle string) (bool, error) {
	before, err := u.GetUser(ctx, handle)
	if err != nil {
		return false, err
	}
	after, err := u.RefreshRating(ctx, handle)
	if err != nil {
		return false, err
	}
	return after.Band != before.Band, nil
}

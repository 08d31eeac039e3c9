package streak_service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	log "github.com/sirupsen/logrus"
)

// PgLedgerStore keeps the ledger in the users and streak_days tables.
type PgLedgerStore struct {
	DB *database.Queries
}

func (p *PgLedgerStore) GetLedger(ctx context.Context, handle string) (Ledger, error) {
	return loadLedger(ctx, p.DB, handle, false)
}

// UpdateLedger locks the user row, applies fn and writes back only what fn
// changed, all inside one transaction.
func (p *PgLedgerStore) UpdateLedger(
	ctx context.Context,
	handle string,
	fn func(*Ledger) error,
) (Ledger, error) {
	tx, err := service.GetNewTransaction(ctx)
	if err != nil {
		return Ledger{}, err
	}
	defer tx.Rollback(ctx)
	qtx := p.DB.WithTx(tx)

	before, err := loadLedger(ctx, qtx, handle, true)
	if err != nil {
		return Ledger{}, err
	}

	after := before.Clone()
	if err = fn(&after); err != nil {
		return Ledger{}, err
	}

	if err = writeLedgerDiff(ctx, qtx, before, after); err != nil {
		return Ledger{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf(
			"%w, cannot commit transaction while updating ledger of %s, %w",
			potd_errors.ErrInternal,
			handle,
			err,
		)
		log.Error(err)
		return Ledger{}, err
	}
	return after, nil
}

func (p *PgLedgerStore) ListHandles(ctx context.Context) ([]string, error) {
	handles, err := p.DB.ListUserHandles(ctx)
	if err != nil {
		return nil, potd_errors.HandleDBErrors(err, errMsgs, "cannot list user handles")
	}
	return handles, nil
}

func loadLedger(
	ctx context.Context,
	q *database.Queries,
	handle string,
	forUpdate bool,
) (Ledger, error) {
	var (
		user database.User
		err  error
	)
	if forUpdate {
		user, err = q.GetUserByHandleForUpdate(ctx, handle)
	} else {
		user, err = q.GetUserByHandle(ctx, handle)
	}
	if err != nil {
		return Ledger{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot fetch user %s", handle),
		)
	}

	days, err := q.ListStreakDays(ctx, handle)
	if err != nil {
		return Ledger{}, potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot fetch streak days of %s", handle),
		)
	}

	ledger := NewLedger(user.Handle)
	ledger.StreakCount = user.StreakCount
	if user.LastStreakDate != nil {
		last := daykey.FromTime(*user.LastStreakDate)
		ledger.LastStreakDate = &last
	}
	for _, day := range days {
		ledger.Days[daykey.FromTime(day.Day)] = day.Solved
	}
	return ledger, nil
}

func writeLedgerDiff(ctx context.Context, q *database.Queries, before, after Ledger) error {
	handle := after.Handle

	for day, solved := range after.Days {
		if old, ok := before.Days[day]; ok && old == solved {
			continue
		}
		if err := q.UpsertStreakDay(ctx, handle, day.Time(), solved); err != nil {
			return potd_errors.HandleDBErrors(
				err,
				errMsgs,
				fmt.Sprintf("cannot write streak day %s of %s", day, handle),
			)
		}
	}

	removed := make([]time.Time, 0)
	for day := range before.Days {
		if _, ok := after.Days[day]; !ok {
			removed = append(removed, day.Time())
		}
	}
	if len(removed) > 0 {
		if _, err := q.DeleteStreakDays(ctx, handle, removed); err != nil {
			return potd_errors.HandleDBErrors(
				err,
				errMsgs,
				fmt.Sprintf("cannot delete streak days of %s", handle),
			)
		}
	}

	var last *time.Time
	if after.LastStreakDate != nil {
		t := after.LastStreakDate.Time()
		last = &t
	}
	_, err := q.UpdateUserStreak(ctx, database.UpdateUserStreakParams{
		Handle:         handle,
		LastStreakDate: last,
		StreakCount:    after.StreakCount,
	})
	if err != nil {
		return potd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot update streak of %s", handle),
		)
	}
	return nil
}

package database

import (
	"context"
	"time"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (handle, rating)
VALUES ($1, $2)
RETURNING handle, rating, last_streak_date, streak_count, created_at, updated_at
`

func (q *Queries) CreateUser(ctx context.Context, handle string, rating *int32) (User, error) {
	row := q.db.QueryRow(ctx, createUser, handle, rating)
	return scanUser(row)
}

const getUserByHandle = `-- name: GetUserByHandle :one
SELECT handle, rating, last_streak_date, streak_count, created_at, updated_at
FROM users
WHERE handle = $1
`

func (q *Queries) GetUserByHandle(ctx context.Context, handle string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByHandle, handle)
	return scanUser(row)
}

const getUserByHandleForUpdate = `-- name: GetUserByHandleForUpdate :one
SELECT handle, rating, last_streak_date, streak_count, created_at, updated_at
FROM users
WHERE handle = $1
FOR UPDATE
`

// must be called inside a transaction, the row stays locked until commit
func (q *Queries) GetUserByHandleForUpdate(ctx context.Context, handle string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByHandleForUpdate, handle)
	return scanUser(row)
}

const updateUserRating = `-- name: UpdateUserRating :execrows
UPDATE users SET rating = $2, updated_at = now()
WHERE handle = $1
`

func (q *Queries) UpdateUserRating(ctx context.Context, handle string, rating *int32) (int64, error) {
	result, err := q.db.Exec(ctx, updateUserRating, handle, rating)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateUserStreak = `-- name: UpdateUserStreak :execrows
UPDATE users
SET last_streak_date = $2, streak_count = $3, updated_at = now()
WHERE handle = $1
`

type UpdateUserStreakParams struct {
	Handle         string
	LastStreakDate *time.Time
	StreakCount    int32
}

func (q *Queries) UpdateUserStreak(ctx context.Context, arg UpdateUserStreakParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateUserStreak, arg.Handle, arg.LastStreakDate, arg.StreakCount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listUserHandles = `-- name: ListUserHandles :many
SELECT handle FROM users ORDER BY handle
`

func (q *Queries) ListUserHandles(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listUserHandles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, err
		}
		items = append(items, handle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStreakDays = `-- name: ListStreakDays :many
SELECT handle, day, solved FROM streak_days
WHERE handle = $1
ORDER BY day
`

func (q *Queries) ListStreakDays(ctx context.Context, handle string) ([]StreakDay, error) {
	rows, err := q.db.Query(ctx, listStreakDays, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []StreakDay{}
	for rows.Next() {
		var i StreakDay
		if err := rows.Scan(&i.Handle, &i.Day, &i.Solved); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertStreakDay = `-- name: UpsertStreakDay :exec
INSERT INTO streak_days (handle, day, solved)
VALUES ($1, $2, $3)
ON CONFLICT (handle, day) DO UPDATE SET solved = EXCLUDED.solved
`

func (q *Queries) UpsertStreakDay(ctx context.Context, handle string, day time.Time, solved bool) error {
	_, err := q.db.Exec(ctx, upsertStreakDay, handle, day, solved)
	return err
}

const deleteStreakDays = `-- name: DeleteStreakDays :execrows
DELETE FROM streak_days
WHERE handle = $1 AND day = ANY($2::DATE[])
`

func (q *Queries) DeleteStreakDays(ctx context.Context, handle string, days []time.Time) (int64, error) {
	result, err := q.db.Exec(ctx, deleteStreakDays, handle, days)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.Handle,
		&i.Rating,
		&i.LastStreakDate,
		&i.StreakCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

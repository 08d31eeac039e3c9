package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const getProblemSet = `-- name: GetProblemSet :one
SELECT year, month, created_at FROM problem_sets
WHERE year = $1 AND month = $2
`

func (q *Queries) GetProblemSet(ctx context.Context, year int32, month int32) (ProblemSet, error) {
	row := q.db.QueryRow(ctx, getProblemSet, year, month)
	var i ProblemSet
	err := row.Scan(&i.Year, &i.Month, &i.CreatedAt)
	return i, err
}

const createProblemSet = `-- name: CreateProblemSet :execrows
INSERT INTO problem_sets (year, month)
VALUES ($1, $2)
ON CONFLICT (year, month) DO NOTHING
`

func (q *Queries) CreateProblemSet(ctx context.Context, year int32, month int32) (int64, error) {
	result, err := q.db.Exec(ctx, createProblemSet, year, month)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteProblemSetsBefore = `-- name: DeleteProblemSetsBefore :many
DELETE FROM problem_sets
WHERE (year, month) < ($1, $2)
RETURNING year, month, created_at
`

func (q *Queries) DeleteProblemSetsBefore(ctx context.Context, year int32, month int32) ([]ProblemSet, error) {
	rows, err := q.db.Query(ctx, deleteProblemSetsBefore, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProblemSet{}
	for rows.Next() {
		var i ProblemSet
		if err := rows.Scan(&i.Year, &i.Month, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMaxAssignedDay = `-- name: GetMaxAssignedDay :one
SELECT COALESCE(MAX(day), 0)::INTEGER FROM monthly_assignments
WHERE year = $1 AND month = $2 AND band = $3
`

func (q *Queries) GetMaxAssignedDay(ctx context.Context, year, month, band int32) (int32, error) {
	row := q.db.QueryRow(ctx, getMaxAssignedDay, year, month, band)
	var day int32
	err := row.Scan(&day)
	return day, err
}

const insertAssignment = `-- name: InsertAssignment :execrows
INSERT INTO monthly_assignments (year, month, band, day, problem_id, problem_url, source_band)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (year, month, band, day) DO NOTHING
`

type InsertAssignmentParams struct {
	Year       int32
	Month      int32
	Band       int32
	Day        int32
	ProblemID  string
	ProblemUrl string
	SourceBand int32
}

func (q *Queries) InsertAssignment(ctx context.Context, arg InsertAssignmentParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertAssignment,
		arg.Year,
		arg.Month,
		arg.Band,
		arg.Day,
		arg.ProblemID,
		arg.ProblemUrl,
		arg.SourceBand,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listAssignments = `-- name: ListAssignments :many
SELECT year, month, band, day, problem_id, problem_url, source_band, created_at
FROM monthly_assignments
WHERE year = $1 AND month = $2
ORDER BY band, day
`

func (q *Queries) ListAssignments(ctx context.Context, year, month int32) ([]MonthlyAssignment, error) {
	rows, err := q.db.Query(ctx, listAssignments, year, month)
	if err != nil {
		return nil, err
	}
	return scanAssignments(rows)
}

const getAssignment = `-- name: GetAssignment :one
SELECT year, month, band, day, problem_id, problem_url, source_band, created_at
FROM monthly_assignments
WHERE year = $1 AND month = $2 AND band = $3 AND day = $4
`

func (q *Queries) GetAssignment(ctx context.Context, year, month, band, day int32) (MonthlyAssignment, error) {
	row := q.db.QueryRow(ctx, getAssignment, year, month, band, day)
	var i MonthlyAssignment
	err := row.Scan(
		&i.Year,
		&i.Month,
		&i.Band,
		&i.Day,
		&i.ProblemID,
		&i.ProblemUrl,
		&i.SourceBand,
		&i.CreatedAt,
	)
	return i, err
}

func scanAssignments(rows pgx.Rows) ([]MonthlyAssignment, error) {
	defer rows.Close()
	items := []MonthlyAssignment{}
	for rows.Next() {
		var i MonthlyAssignment
		if err := rows.Scan(
			&i.Year,
			&i.Month,
			&i.Band,
			&i.Day,
			&i.ProblemID,
			&i.ProblemUrl,
			&i.SourceBand,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

package database

import (
	"context"
)

const countProblems = `-- name: CountProblems :one
SELECT COUNT(*) FROM problems
`

func (q *Queries) CountProblems(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countProblems)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getProblemById = `-- name: GetProblemById :one
SELECT problem_id, contest_id, problem_index, name, rating, problem_url, used, created_at, updated_at
FROM problems
WHERE problem_id = $1
`

func (q *Queries) GetProblemById(ctx context.Context, problemID string) (Problem, error) {
	row := q.db.QueryRow(ctx, getProblemById, problemID)
	var i Problem
	err := row.Scan(
		&i.ProblemID,
		&i.ContestID,
		&i.ProblemIndex,
		&i.Name,
		&i.Rating,
		&i.ProblemUrl,
		&i.Used,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertProblem = `-- name: InsertProblem :execrows
INSERT INTO problems (problem_id, contest_id, problem_index, name, rating, problem_url, used)
VALUES ($1, $2, $3, $4, $5, $6, FALSE)
ON CONFLICT (problem_id) DO NOTHING
`

type InsertProblemParams struct {
	ProblemID    string
	ContestID    int32
	ProblemIndex string
	Name         string
	Rating       *int32
	ProblemUrl   string
}

func (q *Queries) InsertProblem(ctx context.Context, arg InsertProblemParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertProblem,
		arg.ProblemID,
		arg.ContestID,
		arg.ProblemIndex,
		arg.Name,
		arg.Rating,
		arg.ProblemUrl,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateProblemRating = `-- name: UpdateProblemRating :execrows
UPDATE problems
SET rating = $2, updated_at = now()
WHERE problem_id = $1
`

func (q *Queries) UpdateProblemRating(ctx context.Context, problemID string, rating *int32) (int64, error) {
	result, err := q.db.Exec(ctx, updateProblemRating, problemID, rating)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listUnusedProblemsByRating = `-- name: ListUnusedProblemsByRating :many
SELECT problem_id, contest_id, problem_index, name, rating, problem_url, used, created_at, updated_at
FROM problems
WHERE rating = $1 AND used = FALSE
ORDER BY problem_id
LIMIT $2
`

func (q *Queries) ListUnusedProblemsByRating(ctx context.Context, rating int32, limit int32) ([]Problem, error) {
	rows, err := q.db.Query(ctx, listUnusedProblemsByRating, rating, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Problem{}
	for rows.Next() {
		var i Problem
		if err := rows.Scan(
			&i.ProblemID,
			&i.ContestID,
			&i.ProblemIndex,
			&i.Name,
			&i.Rating,
			&i.ProblemUrl,
			&i.Used,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const markProblemUsed = `-- name: MarkProblemUsed :execrows
UPDATE problems
SET used = TRUE, updated_at = now()
WHERE problem_id = $1
`

func (q *Queries) MarkProblemUsed(ctx context.Context, problemID string) (int64, error) {
	result, err := q.db.Exec(ctx, markProblemUsed, problemID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const resetProblemsUsedByRating = `-- name: ResetProblemsUsedByRating :execrows
UPDATE problems
SET used = FALSE, updated_at = now()
WHERE rating = $1 AND used = TRUE
`

func (q *Queries) ResetProblemsUsedByRating(ctx context.Context, rating int32) (int64, error) {
	result, err := q.db.Exec(ctx, resetProblemsUsedByRating, rating)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getSolvedProblems = `-- name: GetSolvedProblems :one
SELECT user_id, solves, updated_at FROM solved_problems WHERE user_id = $1`

func (q *Queries) GetSolvedProblems(ctx context.Context, userID pgtype.UUID) (SolvedProblem, error) {
	var i SolvedProblem
	err := q.db.QueryRow(ctx, getSolvedProblems, userID).Scan(&i.UserID, &i.Solves, &i.UpdatedAt)
	return i, err
}

const getSolvedProblemsForUpdate = `-- name: GetSolvedProblemsForUpdate :one
SELECT user_id, solves, updated_at FROM solved_problems WHERE user_id = $1 FOR UPDATE`

func (q *Queries) GetSolvedProblemsForUpdate(ctx context.Context, userID pgtype.UUID) (SolvedProblem, error) {
	var i SolvedProblem
	err := q.db.QueryRow(ctx, getSolvedProblemsForUpdate, userID).Scan(&i.UserID, &i.Solves, &i.UpdatedAt)
	return i, err
}

const upsertSolvedProblems = `-- name: UpsertSolvedProblems :exec
INSERT INTO solved_problems (user_id, solves, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET solves = EXCLUDED.solves, updated_at = NOW()`

type UpsertSolvedProblemsParams struct {
	UserID pgtype.UUID
	Solves []byte
}

func (q *Queries) UpsertSolvedProblems(ctx context.Context, arg UpsertSolvedProblemsParams) error {
	_, err := q.db.Exec(ctx, upsertSolvedProblems, arg.UserID, arg.Solves)
	return err
}

const ensureSolvedProblems = `-- name: EnsureSolvedProblems :exec
INSERT INTO solved_problems (user_id, solves) VALUES ($1, '[]'::jsonb)
ON CONFLICT (user_id) DO NOTHING`

// EnsureSolvedProblems creates an empty solve list so it can be locked.
func (q *Queries) EnsureSolvedProblems(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, ensureSolvedProblems, userID)
	return err
}

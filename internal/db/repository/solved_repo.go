package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/codeduel/platform/internal/db/queries"
	"github.com/codeduel/platform/internal/submission"
)

type solvedStore interface {
	GetSolvedProblems(ctx context.Context, userID pgtype.UUID) (queries.SolvedProblem, error)
	GetSolvedProblemsForUpdate(ctx context.Context, userID pgtype.UUID) (queries.SolvedProblem, error)
	UpsertSolvedProblems(ctx context.Context, arg queries.UpsertSolvedProblemsParams) error
	EnsureSolvedProblems(ctx context.Context, userID pgtype.UUID) error
}

// SolvedRepository stores each user's accepted solutions as one JSONB list.
type SolvedRepository struct {
	store solvedStore
	inTx  func(ctx context.Context, fn func(solvedStore) error) error
}

func NewSolvedRepository(db *queries.Store) *SolvedRepository {
	return &SolvedRepository{
		store: db.Queries,
		inTx: func(ctx context.Context, fn func(solvedStore) error) error {
			return db.ExecTx(ctx, func(q *queries.Queries) error { return fn(q) })
		},
	}
}

func newSolvedRepository(store solvedStore) *SolvedRepository {
	return &SolvedRepository{
		store: store,
		inTx: func(ctx context.Context, fn func(solvedStore) error) error {
			return fn(store)
		},
	}
}

func (r *SolvedRepository) List(ctx context.Context, userID uuid.UUID) ([]submission.Solve, error) {
	row, err := r.store.GetSolvedProblems(ctx, pgUUID(userID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeSolves(row.Solves)
}

// Record adds s to the user's list or refreshes the code of an earlier solve.
func (r *SolvedRepository) Record(ctx context.Context, userID uuid.UUID, s submission.Solve) (bool, error) {
	id := pgUUID(userID)
	var first bool
	err := r.inTx(ctx, func(q solvedStore) error {
		if err := q.EnsureSolvedProblems(ctx, id); err != nil {
			return err
		}
		row, err := q.GetSolvedProblemsForUpdate(ctx, id)
		if err != nil {
			return err
		}
		solves, err := decodeSolves(row.Solves)
		if err != nil {
			return err
		}

		first = true
		for i := range solves {
			if solves[i].ProblemID == s.ProblemID {
				solves[i].Code = s.Code
				solves[i].Language = s.Language
				first = false
				break
			}
		}
		if first {
			solves = append(solves, s)
		}

		raw, err := json.Marshal(solves)
		if err != nil {
			return err
		}
		return q.UpsertSolvedProblems(ctx, queries.UpsertSolvedProblemsParams{UserID: id, Solves: raw})
	})
	if err != nil {
		return false, fmt.Errorf("solved problems tx: %w", err)
	}
	return first, nil
}

func decodeSolves(raw []byte) ([]submission.Solve, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var solves []submission.Solve
	if err := json.Unmarshal(raw, &solves); err != nil {
		return nil, fmt.Errorf("decode solves: %w", err)
	}
	return solves, nil
}

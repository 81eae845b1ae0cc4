package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeduel/platform/internal/db/queries"
	"github.com/codeduel/platform/internal/problem"
)

type problemStore interface {
	GetProblem(ctx context.Context, problemID int32) (queries.Problem, error)
	ListProblems(ctx context.Context) ([]queries.Problem, error)
	ListProblemIDsByDifficulty(ctx context.Context, difficulty string) ([]int32, error)
	UpsertProblem(ctx context.Context, arg queries.UpsertProblemParams) error
}

// ProblemRepository implements problem.Store on Postgres.
type ProblemRepository struct {
	store problemStore
}

func NewProblemRepository(store problemStore) *ProblemRepository {
	return &ProblemRepository{store: store}
}

// List returns every problem without test cases.
func (r *ProblemRepository) List(ctx context.Context) ([]problem.Problem, error) {
	rows, err := r.store.ListProblems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]problem.Problem, 0, len(rows))
	for _, row := range rows {
		p, err := toProblem(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *ProblemRepository) Get(ctx context.Context, id int) (*problem.Problem, error) {
	row, err := r.store.GetProblem(ctx, int32(id))
	if err != nil {
		if isNoRows(err) {
			return nil, problem.ErrNotFound
		}
		return nil, err
	}
	return toProblem(row)
}

func (r *ProblemRepository) IDsByDifficulty(ctx context.Context, d problem.Difficulty) ([]int, error) {
	rows, err := r.store.ListProblemIDsByDifficulty(ctx, string(d))
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(rows))
	for i, id := range rows {
		ids[i] = int(id)
	}
	return ids, nil
}

// Upsert inserts or replaces a problem by id.
func (r *ProblemRepository) Upsert(ctx context.Context, p problem.Problem) error {
	if !p.Difficulty.Valid() {
		return fmt.Errorf("problem %d: invalid difficulty %q", p.ID, p.Difficulty)
	}
	params := queries.UpsertProblemParams{
		ProblemID:   int32(p.ID),
		Title:       p.Title,
		Difficulty:  string(p.Difficulty),
		Topic:       p.Topic,
		Description: p.Description,
		Constraints: p.Constraints,
	}
	if params.Constraints == nil {
		params.Constraints = []string{}
	}

	var err error
	if params.Examples, err = jsonOr(p.Examples, len(p.Examples), "[]"); err != nil {
		return err
	}
	if params.TestCases, err = jsonOr(p.TestCases, len(p.TestCases), "[]"); err != nil {
		return err
	}
	if params.StarterCode, err = jsonOr(p.StarterCode, len(p.StarterCode), "{}"); err != nil {
		return err
	}
	if params.DriverCodeTemplates, err = jsonOr(p.DriverCodeTemplates, len(p.DriverCodeTemplates), "{}"); err != nil {
		return err
	}
	return r.store.UpsertProblem(ctx, params)
}

func jsonOr(v interface{}, n int, empty string) ([]byte, error) {
	if n == 0 {
		return []byte(empty), nil
	}
	return json.Marshal(v)
}

func toProblem(row queries.Problem) (*problem.Problem, error) {
	p := &problem.Problem{
		ID:          int(row.ProblemID),
		Title:       row.Title,
		Difficulty:  problem.Difficulty(row.Difficulty),
		Topic:       row.Topic,
		Description: row.Description,
		Constraints: row.Constraints,
		CreatedAt:   fromTimestamptz(row.CreatedAt),
	}
	fields := []struct {
		raw []byte
		dst interface{}
	}{
		{row.Examples, &p.Examples},
		{row.TestCases, &p.TestCases},
		{row.StarterCode, &p.StarterCode},
		{row.DriverCodeTemplates, &p.DriverCodeTemplates},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode problem %d: %w", row.ProblemID, err)
		}
	}
	if len(p.TestCases) == 0 {
		p.TestCases = nil
	}
	if len(p.DriverCodeTemplates) == 0 {
		p.DriverCodeTemplates = nil
	}
	return p, nil
}

package queries

import (
	"context"
)

const problemColumns = `problem_id, title, difficulty, topic, description, examples, constraints,
	test_cases, starter_code, driver_code_templates, created_at`

func scanProblem(row interface{ Scan(...interface{}) error }) (Problem, error) {
	var i Problem
	err := row.Scan(
		&i.ProblemID,
		&i.Title,
		&i.Difficulty,
		&i.Topic,
		&i.Description,
		&i.Examples,
		&i.Constraints,
		&i.TestCases,
		&i.StarterCode,
		&i.DriverCodeTemplates,
		&i.CreatedAt,
	)
	return i, err
}

const getProblem = `-- name: GetProblem :one
SELECT ` + problemColumns + ` FROM problems WHERE problem_id = $1`

func (q *Queries) GetProblem(ctx context.Context, problemID int32) (Problem, error) {
	return scanProblem(q.db.QueryRow(ctx, getProblem, problemID))
}

const listProblems = `-- name: ListProblems :many
SELECT problem_id, title, difficulty, topic, description, examples, constraints,
	'[]'::jsonb AS test_cases, starter_code, driver_code_templates, created_at
FROM problems
ORDER BY problem_id`

// ListProblems omits test cases.
func (q *Queries) ListProblems(ctx context.Context) ([]Problem, error) {
	rows, err := q.db.Query(ctx, listProblems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Problem
	for rows.Next() {
		i, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listProblemIDsByDifficulty = `-- name: ListProblemIDsByDifficulty :many
SELECT problem_id FROM problems WHERE difficulty = $1`

func (q *Queries) ListProblemIDsByDifficulty(ctx context.Context, difficulty string) ([]int32, error) {
	rows, err := q.db.Query(ctx, listProblemIDsByDifficulty, difficulty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const upsertProblem = `-- name: UpsertProblem :exec
INSERT INTO problems (problem_id, title, difficulty, topic, description, examples, constraints,
	test_cases, starter_code, driver_code_templates)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (problem_id) DO UPDATE SET
	title = EXCLUDED.title,
	difficulty = EXCLUDED.difficulty,
	topic = EXCLUDED.topic,
	description = EXCLUDED.description,
	examples = EXCLUDED.examples,
	constraints = EXCLUDED.constraints,
	test_cases = EXCLUDED.test_cases,
	starter_code = EXCLUDED.starter_code,
	driver_code_templates = EXCLUDED.driver_code_templates`

type UpsertProblemParams struct {
	ProblemID           int32
	Title               string
	Difficulty          string
	Topic               string
	Description         string
	Examples            []byte
	Constraints         []string
	TestCases           []byte
	StarterCode         []byte
	DriverCodeTemplates []byte
}

func (q *Queries) UpsertProblem(ctx context.Context, arg UpsertProblemParams) error {
	_, err := q.db.Exec(ctx, upsertProblem,
		arg.ProblemID,
		arg.Title,
		arg.Difficulty,
		arg.Topic,
		arg.Description,
		arg.Examples,
		arg.Constraints,
		arg.TestCases,
		arg.StarterCode,
		arg.DriverCodeTemplates,
	)
	return err
}

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/codeduel/platform/internal/db/queries"
	"github.com/codeduel/platform/internal/problem"
)

type mockProblemStore struct {
	mock.Mock
}

func (m *mockProblemStore) GetProblem(ctx context.Context, problemID int32) (queries.Problem, error) {
	args := m.Called(ctx, problemID)
	return args.Get(0).(queries.Problem), args.Error(1)
}

func (m *mockProblemStore) ListProblems(ctx context.Context) ([]queries.Problem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]queries.Problem), args.Error(1)
}

func (m *mockProblemStore) ListProblemIDsByDifficulty(ctx context.Context, difficulty string) ([]int32, error) {
	args := m.Called(ctx, difficulty)
	return args.Get(0).([]int32), args.Error(1)
}

func (m *mockProblemStore) UpsertProblem(ctx context.Context, arg queries.UpsertProblemParams) error {
	return m.Called(ctx, arg).Error(0)
}

func TestProblemRepository_GetDecodesJSON(t *testing.T) {
	store := new(mockProblemStore)
	repo := NewProblemRepository(store)

	store.On("GetProblem", mock.Anything, int32(1)).Return(queries.Problem{
		ProblemID:           1,
		Title:               "Two Sum",
		Difficulty:          "Easy",
		Examples:            []byte(`[{"input":"[2,7] 9","output":"[0,1]"}]`),
		Constraints:         []string{"2 <= n"},
		TestCases:           []byte(`[{"input":"[2,7] 9","expected":"[0,1]"}]`),
		StarterCode:         []byte(`{"cpp":"class Solution {};"}`),
		DriverCodeTemplates: []byte(`{}`),
	}, nil)

	p, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, problem.Easy, p.Difficulty)
	require.Len(t, p.TestCases, 1)
	assert.Equal(t, "[0,1]", p.TestCases[0].Expected)
	assert.Equal(t, "class Solution {};", p.StarterCode["cpp"])
	assert.Nil(t, p.DriverCodeTemplates)
}

func TestProblemRepository_GetNotFound(t *testing.T) {
	store := new(mockProblemStore)
	repo := NewProblemRepository(store)

	store.On("GetProblem", mock.Anything, int32(9)).Return(queries.Problem{}, pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, problem.ErrNotFound)
}

func TestProblemRepository_IDsByDifficulty(t *testing.T) {
	store := new(mockProblemStore)
	repo := NewProblemRepository(store)

	store.On("ListProblemIDsByDifficulty", mock.Anything, "Hard").Return([]int32{4, 8}, nil)

	ids, err := repo.IDsByDifficulty(context.Background(), problem.Hard)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8}, ids)
}

func TestProblemRepository_Upsert(t *testing.T) {
	store := new(mockProblemStore)
	repo := NewProblemRepository(store)

	store.On("UpsertProblem", mock.Anything, mock.MatchedBy(func(arg queries.UpsertProblemParams) bool {
		return arg.ProblemID == 3 &&
			string(arg.Examples) == "[]" &&
			string(arg.TestCases) == `[{"input":"a","expected":"b"}]` &&
			string(arg.StarterCode) == "{}" &&
			len(arg.Constraints) == 0 && arg.Constraints != nil
	})).Return(nil)

	err := repo.Upsert(context.Background(), problem.Problem{
		ID:         3,
		Title:      "Echo",
		Difficulty: problem.Medium,
		TestCases:  []problem.TestCase{{Input: "a", Expected: "b"}},
	})
	require.NoError(t, err)
	store.AssertExpectations(t)

	err = repo.Upsert(context.Background(), problem.Problem{ID: 4, Difficulty: "Impossible"})
	assert.Error(t, err)
}

package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeduel/platform/internal/auth/jwt"
	"github.com/codeduel/platform/internal/problem"
	"github.com/codeduel/platform/internal/profile"
	"github.com/codeduel/platform/internal/profile/profiletest"
	"github.com/codeduel/platform/internal/submission/executor"
)

type stubProblems map[int]*problem.Problem

func (s stubProblems) Get(ctx context.Context, id int) (*problem.Problem, error) {
	p, ok := s[id]
	if !ok {
		return nil, problem.ErrNotFound
	}
	return p, nil
}

type stubGenerator struct {
	lang string
	err  error
}

func (g *stubGenerator) Generate(ctx context.Context, language, userCode string, tcs []problem.TestCase) (string, error) {
	g.lang = language
	return "driver:" + userCode, g.err
}

type stubExecutor struct {
	result executor.Result
	err    error
	calls  int
}

func (e *stubExecutor) Execute(ctx context.Context, language, source string) (*executor.Result, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	r := e.result
	return &r, nil
}

type memSolved struct {
	mu     sync.Mutex
	solves map[uuid.UUID][]Solve
}

func newMemSolved() *memSolved { return &memSolved{solves: make(map[uuid.UUID][]Solve)} }

func (m *memSolved) List(ctx context.Context, userID uuid.UUID) ([]Solve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Solve(nil), m.solves[userID]...), nil
}

func (m *memSolved) Record(ctx context.Context, userID uuid.UUID, s Solve) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, prev := range m.solves[userID] {
		if prev.ProblemID == s.ProblemID {
			m.solves[userID][i].Code = s.Code
			m.solves[userID][i].Language = s.Language
			return false, nil
		}
	}
	m.solves[userID] = append(m.solves[userID], s)
	return true, nil
}

type fixture struct {
	svc      *Service
	exec     *stubExecutor
	gen      *stubGenerator
	solved   *memSolved
	profiles *profiletest.Store
	metrics  *Metrics
	user     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	user := uuid.New()
	f := &fixture{
		exec:     &stubExecutor{result: executor.Result{Output: "Accepted\n"}},
		gen:      &stubGenerator{},
		solved:   newMemSolved(),
		profiles: profiletest.NewStore(profile.New(user, profile.Account{Name: "Ada"})),
		metrics:  NewMetrics(prometheus.NewRegistry()),
		user:     user,
	}
	problems := stubProblems{1: {ID: 1, Title: "Two Sum", TestCases: []problem.TestCase{{Input: "1 2", Expected: "3"}}}}
	f.svc = NewService(problems, f.gen, f.exec, f.solved, f.profiles, f.metrics, zerolog.Nop())
	return f
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func validRequest() Request {
	return Request{ProblemID: 1, UserCode: "int solve() {}", Language: "C++"}
}

func TestSubmitFirstSolveAwardsPoints(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Submit(context.Background(), f.user, validRequest())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, Accepted, res.Status)
	assert.Equal(t, FirstSolvePoints, res.PointsAwarded)
	require.NotNil(t, res.NewRank)
	assert.Equal(t, "Bronze I", res.NewRank.String())
	assert.Equal(t, "cpp", f.gen.lang)

	p, _ := f.profiles.Snapshot(f.user)
	assert.Equal(t, 10, p.Stats.Points)
	assert.Equal(t, 1, p.Stats.QuestionsSolved)
	assert.Zero(t, p.Stats.RankedPoints)

	solves, err := f.svc.Solved(context.Background(), f.user)
	require.NoError(t, err)
	require.Len(t, solves, 1)
	assert.Equal(t, 1, solves[0].ProblemID)
	assert.Equal(t, 1.0, counterValue(t, f.metrics.verdicts.WithLabelValues(string(Accepted))))
}

func TestSubmitResolveUpdatesCodeOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), f.user, validRequest())
	require.NoError(t, err)

	again := validRequest()
	again.UserCode = "int solve() { return 1; }"
	res, err := f.svc.Submit(context.Background(), f.user, again)
	require.NoError(t, err)

	assert.Equal(t, Accepted, res.Status)
	assert.Zero(t, res.PointsAwarded)
	assert.Nil(t, res.NewRank)

	p, _ := f.profiles.Snapshot(f.user)
	assert.Equal(t, 10, p.Stats.Points)
	assert.Equal(t, 1, p.Stats.QuestionsSolved)
	assert.Equal(t, 1, f.profiles.Updates(f.user))

	solves, _ := f.svc.Solved(context.Background(), f.user)
	require.Len(t, solves, 1)
	assert.Equal(t, again.UserCode, solves[0].Code)
}

func TestSubmitVerdicts(t *testing.T) {
	tests := []struct {
		name   string
		result executor.Result
		want   Verdict
	}{
		{"runtime error", executor.Result{Stderr: "segfault", Output: "Accepted"}, RuntimeError},
		{"wrong answer", executor.Result{Output: "Test 1 failed"}, WrongAnswer},
		{"accepted", executor.Result{Output: "  Accepted  "}, Accepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.exec.result = tt.result

			res, err := f.svc.Submit(context.Background(), f.user, validRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, tt.want == Accepted, res.Success)
			if tt.want != Accepted {
				assert.Zero(t, f.profiles.Updates(f.user))
			}
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.user, Request{ProblemID: 1, Language: "cpp"})
	assert.ErrorIs(t, err, ErrMissingFields)

	req := validRequest()
	req.ProblemID = 99
	_, err = f.svc.Submit(context.Background(), f.user, req)
	assert.ErrorIs(t, err, problem.ErrNotFound)
	assert.Zero(t, f.exec.calls)
}

func TestSubmitUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("boom")

	_, err := f.svc.Submit(context.Background(), f.user, validRequest())
	require.Error(t, err)
	assert.Zero(t, f.exec.calls)
}

func TestProblemIDAcceptsStrings(t *testing.T) {
	var r Request
	require.NoError(t, json.Unmarshal([]byte(`{"problemId":"12","userCode":"x","language":"python"}`), &r))
	assert.Equal(t, ProblemID(12), r.ProblemID)

	require.NoError(t, json.Unmarshal([]byte(`{"problemId":7}`), &r))
	assert.Equal(t, ProblemID(7), r.ProblemID)

	assert.Error(t, json.Unmarshal([]byte(`{"problemId":"two"}`), &r))
}

func TestHTTPHandlerSubmit(t *testing.T) {
	f := newFixture(t)
	h := NewHTTPHandler(f.svc, zerolog.Nop())
	withClaims := func(r *http.Request) *http.Request {
		return r.WithContext(jwt.WithClaims(r.Context(), &jwt.Claims{UserID: f.user}))
	}

	rec := httptest.NewRecorder()
	body := `{"problemId":1,"userCode":"int solve() {}","language":"cpp"}`
	h.Submit(rec, withClaims(httptest.NewRequest(http.MethodPost, "/v1/submit", strings.NewReader(body))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Accepted"`)
	assert.Contains(t, rec.Body.String(), `"pointsAwarded":10`)

	rec = httptest.NewRecorder()
	h.Submit(rec, withClaims(httptest.NewRequest(http.MethodPost, "/v1/submit", strings.NewReader(`{"problemId":1}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/v1/submit", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Solved(rec, withClaims(httptest.NewRequest(http.MethodGet, "/v1/solved-problems/me", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"problemId":1`)
}

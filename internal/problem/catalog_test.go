package problem

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	mu       sync.Mutex
	problems []Problem
	err      error
	idCalls  int
}

func (s *stubStore) List(ctx context.Context) ([]Problem, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Problem, len(s.problems))
	copy(out, s.problems)
	return out, nil
}

func (s *stubStore) Get(ctx context.Context, id int) (*Problem, error) {
	for _, p := range s.problems {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubStore) IDsByDifficulty(ctx context.Context, d Difficulty) ([]int, error) {
	s.mu.Lock()
	s.idCalls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var ids []int
	for _, p := range s.problems {
		if p.Difficulty == d {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func sampleProblems() []Problem {
	return []Problem{
		{ID: 1, Title: "Two Sum", Difficulty: Easy, TestCases: []TestCase{{Input: "a", Expected: "b"}}},
		{ID: 2, Title: "Valid Anagram", Difficulty: Easy},
		{ID: 7, Title: "LRU Cache", Difficulty: Medium},
	}
}

func TestSampleByDifficultyUsesMatchingBucket(t *testing.T) {
	_, client := newRedis(t)
	store := &stubStore{problems: sampleProblems()}
	catalog := NewCatalog(store, NewCache(client, 0), CatalogOptions{}, zerolog.Nop())

	for i := 0; i < 20; i++ {
		id := catalog.SampleByDifficulty(context.Background(), Easy)
		assert.Contains(t, []string{"1", "2"}, id)
	}
	assert.Equal(t, "7", catalog.SampleByDifficulty(context.Background(), Medium))

	// the first draw per difficulty fills the cache, later draws come from Redis
	assert.Equal(t, 2, store.idCalls)
}

func TestSampleByDifficultyFallback(t *testing.T) {
	_, client := newRedis(t)

	empty := NewCatalog(&stubStore{problems: sampleProblems()}, NewCache(client, 0), CatalogOptions{}, zerolog.Nop())
	assert.Equal(t, "1", empty.SampleByDifficulty(context.Background(), Hard))

	failing := NewCatalog(&stubStore{err: errors.New("db down")}, nil, CatalogOptions{FallbackID: "42"}, zerolog.Nop())
	assert.Equal(t, "42", failing.SampleByDifficulty(context.Background(), Easy))
}

func TestSampleSurvivesRedisOutage(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	catalog := NewCatalog(&stubStore{problems: sampleProblems()}, NewCache(client, 0), CatalogOptions{}, zerolog.Nop())
	assert.Equal(t, "7", catalog.SampleByDifficulty(context.Background(), Medium))
}

func TestWarmFillsSets(t *testing.T) {
	mr, client := newRedis(t)
	catalog := NewCatalog(&stubStore{problems: sampleProblems()}, NewCache(client, 0), CatalogOptions{}, zerolog.Nop())

	require.NoError(t, catalog.Warm(context.Background()))

	members, err := mr.Members(difficultyKey(Easy))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, members)
	assert.False(t, mr.Exists(difficultyKey(Hard)))
}

func TestListStripsTestCasesAndCaches(t *testing.T) {
	mr, client := newRedis(t)
	store := &stubStore{problems: sampleProblems()}
	catalog := NewCatalog(store, NewCache(client, 0), CatalogOptions{}, zerolog.Nop())

	list, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Nil(t, list[0].TestCases)
	assert.True(t, mr.Exists(listKey))

	store.err = errors.New("db down")
	cached, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 3)

	full, err := catalog.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, full.TestCases, 1)
}

func TestListHandler(t *testing.T) {
	h := NewHTTPHandler(NewCatalog(&stubStore{}, nil, CatalogOptions{}, zerolog.Nop()), zerolog.Nop())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/v1/problems", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h = NewHTTPHandler(NewCatalog(&stubStore{problems: sampleProblems()}, nil, CatalogOptions{}, zerolog.Nop()), zerolog.Nop())
	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/v1/problems", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":3`)
	assert.NotContains(t, rec.Body.String(), "testCases")
}

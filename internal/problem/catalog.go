package problem

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Store is the persistent problem source.
type Store interface {
	List(ctx context.Context) ([]Problem, error)
	Get(ctx context.Context, id int) (*Problem, error)
	IDsByDifficulty(ctx context.Context, d Difficulty) ([]int, error)
}

// CatalogOptions tune sampling.
type CatalogOptions struct {
	FallbackID string        // default "1"
	Timeout    time.Duration // per-sample budget, default 3s
}

// Catalog samples problems for matches and serves the public list.
type Catalog struct {
	store      Store
	cache      *Cache
	fallbackID string
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewCatalog builds a Catalog. cache may be nil.
func NewCatalog(store Store, cache *Cache, opts CatalogOptions, logger zerolog.Logger) *Catalog {
	if opts.FallbackID == "" {
		opts.FallbackID = "1"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &Catalog{
		store:      store,
		cache:      cache,
		fallbackID: opts.FallbackID,
		timeout:    opts.Timeout,
		logger:     logger.With().Str("component", "problem_catalog").Logger(),
	}
}

// SampleByDifficulty returns a uniformly random problem id of difficulty d.
// It never fails: lookups that error or find nothing yield the fallback id.
func (c *Catalog) SampleByDifficulty(ctx context.Context, d Difficulty) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.cache != nil {
		id, ok, err := c.cache.RandomID(ctx, d)
		if err != nil {
			c.logger.Warn().Err(err).Str("difficulty", string(d)).Msg("catalog cache read failed")
		} else if ok {
			return id
		}
	}

	ids, err := c.store.IDsByDifficulty(ctx, d)
	if err != nil {
		c.logger.Error().Err(err).Str("difficulty", string(d)).Msg("problem lookup failed, using fallback")
		return c.fallbackID
	}
	if len(ids) == 0 {
		c.logger.Warn().Str("difficulty", string(d)).Msg("no problems for difficulty, using fallback")
		return c.fallbackID
	}

	if c.cache != nil {
		if err := c.cache.FillIDs(ctx, d, ids); err != nil {
			c.logger.Warn().Err(err).Str("difficulty", string(d)).Msg("catalog cache fill failed")
		}
	}

	return strconv.Itoa(ids[rand.IntN(len(ids))])
}

// Warm preloads every difficulty set into the cache.
func (c *Catalog) Warm(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	for _, d := range Difficulties {
		ids, err := c.store.IDsByDifficulty(ctx, d)
		if err != nil {
			return err
		}
		if err := c.cache.FillIDs(ctx, d, ids); err != nil {
			return err
		}
	}
	return nil
}

// List returns every problem without test cases.
func (c *Catalog) List(ctx context.Context) ([]Problem, error) {
	if c.cache != nil {
		list, err := c.cache.GetList(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("problem list cache read failed")
		} else if list != nil {
			return list, nil
		}
	}

	list, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].TestCases = nil
		list[i].DriverCodeTemplates = nil
	}

	if c.cache != nil && len(list) > 0 {
		if err := c.cache.SetList(ctx, list); err != nil {
			c.logger.Warn().Err(err).Msg("problem list cache write failed")
		}
	}
	return list, nil
}

// Get returns a problem with its test cases.
func (c *Catalog) Get(ctx context.Context, id int) (*Problem, error) {
	return c.store.Get(ctx, id)
}

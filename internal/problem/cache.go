package problem

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache keeps per-difficulty id sets and the public problem list in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache builds a Cache; ttl <= 0 uses the default.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func difficultyKey(d Difficulty) string {
	return "problems:difficulty:" + string(d)
}

const listKey = "problems:list"

// RandomID draws a uniformly random id from the difficulty set.
// ok is false when the set is missing or empty.
func (c *Cache) RandomID(ctx context.Context, d Difficulty) (string, bool, error) {
	id, err := c.client.SRandMember(ctx, difficultyKey(d)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, id != "", nil
}

// FillIDs replaces the difficulty set with ids.
func (c *Cache) FillIDs(ctx context.Context, d Difficulty, ids []int) error {
	key := difficultyKey(d)
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = strconv.Itoa(id)
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetList returns the cached public list, or nil on a miss.
func (c *Cache) GetList(ctx context.Context) ([]Problem, error) {
	data, err := c.client.Get(ctx, listKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var list []Problem
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList caches the public list.
func (c *Cache) SetList(ctx context.Context, list []Problem) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listKey, data, c.ttl).Err()
}

// Invalidate drops every cached key.
func (c *Cache) Invalidate(ctx context.Context) error {
	keys := []string{listKey}
	for _, d := range Difficulties {
		keys = append(keys, difficultyKey(d))
	}
	return c.client.Del(ctx, keys...).Err()
}

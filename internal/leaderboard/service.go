package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/rank"
)

// Standing is a player's ranked position after a settlement.
type Standing struct {
	UserID       uuid.UUID
	Username     string
	Rank         rank.Rank
	RankedPoints int
}

// Entry represents a leaderboard record sent to clients.
type Entry struct {
	Position     int       `json:"position"`
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	Rank         rank.Rank `json:"rank"`
	RankedPoints int       `json:"rankedPoints"`
}

// Update is published after every recorded settlement. Board names the
// sorted set it was read from so several boards can share one channel.
type Update struct {
	Board string  `json:"board"`
	Top   []Entry `json:"top"`
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	Key           string
	TopN          int
	PubSubChannel string
}

// Service keeps ranked standings in a Redis sorted set and emits updates over Pub/Sub.
type Service struct {
	redis         *redis.Client
	logger        zerolog.Logger
	key           string
	topN          int
	pubsubChannel string
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	key := opts.Key
	if key == "" {
		key = "leaderboard:ranked"
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 10
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "leaderboard:updates"
	}
	return &Service{
		redis:         redis,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
		key:           key,
		topN:          topN,
		pubsubChannel: channel,
	}
}

// Record stores the current ranked points of each player.
func (s *Service) Record(ctx context.Context, standings ...Standing) error {
	if len(standings) == 0 {
		return nil
	}

	pipe := s.redis.TxPipeline()
	for _, st := range standings {
		pipe.ZAdd(ctx, s.key, redis.Z{Score: float64(st.RankedPoints), Member: st.UserID.String()})
		pipe.HSet(ctx, s.metaKey(st.UserID), map[string]interface{}{
			"username": st.Username,
			"rank":     st.Rank.String(),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	s.publishUpdate(ctx)
	return nil
}

// Top returns the highest ranked entries; limit falls back to the configured default.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skip malformed leaderboard member")
			continue
		}
		entry, err := s.readMeta(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		entry.Position = i + 1
		entry.RankedPoints = int(z.Score)
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Subscribe opens a Pub/Sub subscription on the update channel.
func (s *Service) Subscribe(ctx context.Context) *redis.PubSub {
	return s.redis.Subscribe(ctx, s.pubsubChannel)
}

func (s *Service) publishUpdate(ctx context.Context) {
	top, err := s.Top(ctx, s.topN)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to collect leaderboard update")
		return
	}
	data, err := json.Marshal(Update{Board: s.key, Top: top})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
		return
	}
	if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
	}
}

func (s *Service) readMeta(ctx context.Context, userID uuid.UUID) (*Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	entry := &Entry{UserID: userID, Rank: rank.Default}
	if len(data) == 0 {
		return entry, nil
	}
	entry.Username = data["username"]
	if label := data["rank"]; label != "" {
		entry.Rank = rank.Parse(label)
	}
	return entry, nil
}

func (s *Service) metaKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:meta:%s", s.key, userID.String())
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 100 {
		return def
	}
	return n
}

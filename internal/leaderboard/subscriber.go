package leaderboard

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	ws "github.com/codeduel/platform/pkg/http/ws"
)

// Fanout delivers an event to every connected client.
type Fanout interface {
	BroadcastAll(msgType string, payload interface{}) error
}

// Broadcaster relays published standings of one board to every client. An
// update identical to the last one relayed is dropped.
type Broadcaster struct {
	svc    *Service
	fanout Fanout
	logger zerolog.Logger

	mu   sync.Mutex
	last []Entry
}

// NewBroadcaster relays the updates svc publishes through fanout.
func NewBroadcaster(svc *Service, fanout Fanout, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		svc:    svc,
		fanout: fanout,
		logger: logger.With().Str("component", "leaderboard_broadcaster").Str("board", svc.key).Logger(),
	}
}

// Run subscribes to the update channel and blocks until the context is
// cancelled or the subscription closes.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.svc.redis == nil || b.fanout == nil {
		return nil
	}

	sub := b.svc.Subscribe(ctx)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info().Str("channel", b.svc.pubsubChannel).Msg("leaderboard broadcaster subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

// relay reports whether the payload was sent to clients.
func (b *Broadcaster) relay(payload string) bool {
	var u Update
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode leaderboard update payload")
		return false
	}
	if u.Board != b.svc.key {
		return false
	}
	if len(u.Top) > b.svc.topN {
		u.Top = u.Top[:b.svc.topN]
	}

	b.mu.Lock()
	if b.last != nil && slices.Equal(b.last, u.Top) {
		b.mu.Unlock()
		return false
	}
	b.last = u.Top
	b.mu.Unlock()

	if err := b.fanout.BroadcastAll(ws.TypeLeaderboardUpdate, u); err != nil {
		b.logger.Warn().Err(err).Int("entries", len(u.Top)).Msg("failed to broadcast leaderboard update")
		return false
	}
	return true
}

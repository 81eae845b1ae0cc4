// Package settlement applies match outcomes to player profiles.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/leaderboard"
	"github.com/codeduel/platform/internal/profile"
	"github.com/codeduel/platform/internal/rank"
)

// Type distinguishes point-bearing matches from practice ones.
type Type string

const (
	Ranked Type = "RANKED"
	Casual Type = "CASUAL"
)

// ErrSameUser is returned when winner and loser are the same account.
var ErrSameUser = errors.New("winner and loser are the same user")

// Side is one participant's outcome.
type Side struct {
	UserID       uuid.UUID `json:"userId"`
	PointsChange int       `json:"pointsChange"`
	NewPoints    int       `json:"newPoints"`
	NewRank      rank.Rank `json:"newRank"`
}

// Result holds both sides of a settled match.
type Result struct {
	Winner Side `json:"winner"`
	Loser  Side `json:"loser"`
}

// ProfileStore applies a paired stats update atomically.
type ProfileStore interface {
	UpdateStatsPair(ctx context.Context, first, second uuid.UUID, fn func(first, second *profile.Profile) error) (*profile.Profile, *profile.Profile, error)
}

// Recorder receives ranked standings after a settlement.
type Recorder interface {
	Record(ctx context.Context, standings ...leaderboard.Standing) error
}

// Options holds the ranked point awards.
type Options struct {
	WinPoints  int
	LossPoints int
}

// Settler settles finished matches.
type Settler struct {
	profiles ProfileStore
	recorder Recorder
	opts     Options
	logger   zerolog.Logger
}

// NewSettler builds a Settler. recorder may be nil.
func NewSettler(profiles ProfileStore, recorder Recorder, opts Options, logger zerolog.Logger) *Settler {
	if opts.WinPoints <= 0 {
		opts.WinPoints = 50
	}
	if opts.LossPoints <= 0 {
		opts.LossPoints = 20
	}
	return &Settler{
		profiles: profiles,
		recorder: recorder,
		opts:     opts,
		logger:   logger.With().Str("component", "settlement").Logger(),
	}
}

// Settle applies the outcome to both profiles in one write. It fails with
// profile.ErrNotFound, changing nothing, if either profile is missing.
func (s *Settler) Settle(ctx context.Context, winnerID, loserID uuid.UUID, t Type) (*Result, error) {
	if winnerID == loserID {
		return nil, ErrSameUser
	}

	var res Result
	winner, loser, err := s.profiles.UpdateStatsPair(ctx, winnerID, loserID, func(w, l *profile.Profile) error {
		res = apply(w, l, t, s.opts)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle %s match: %w", t, err)
	}

	s.logger.Info().
		Str("winner_id", winnerID.String()).
		Str("loser_id", loserID.String()).
		Str("type", string(t)).
		Int("winner_delta", res.Winner.PointsChange).
		Int("loser_delta", res.Loser.PointsChange).
		Msg("match settled")

	if t == Ranked && s.recorder != nil {
		err := s.recorder.Record(ctx,
			leaderboard.Standing{UserID: winner.UserID, Username: winner.Username, Rank: winner.Stats.Rank, RankedPoints: winner.Stats.RankedPoints},
			leaderboard.Standing{UserID: loser.UserID, Username: loser.Username, Rank: loser.Stats.Rank, RankedPoints: loser.Stats.RankedPoints},
		)
		if err != nil {
			s.logger.Warn().Err(err).Msg("leaderboard update failed")
		}
	}
	return &res, nil
}

func apply(w, l *profile.Profile, t Type, opts Options) Result {
	w.Stats.QuestionsSolved++

	winDelta, lossDelta := 0, 0
	if t == Ranked {
		winDelta = opts.WinPoints
		w.Stats.RankedPoints += winDelta

		before := l.Stats.RankedPoints
		l.Stats.RankedPoints = max(before-opts.LossPoints, 0)
		lossDelta = l.Stats.RankedPoints - before
	}
	w.RecomputeRank()
	l.RecomputeRank()

	return Result{
		Winner: Side{UserID: w.UserID, PointsChange: winDelta, NewPoints: reportedPoints(w, t), NewRank: w.Stats.Rank},
		Loser:  Side{UserID: l.UserID, PointsChange: lossDelta, NewPoints: reportedPoints(l, t), NewRank: l.Stats.Rank},
	}
}

// reportedPoints is the score shown for the match type: ranked points for
// ranked matches, casual points otherwise.
func reportedPoints(p *profile.Profile, t Type) int {
	if t == Ranked {
		return p.Stats.RankedPoints
	}
	return p.Stats.Points
}

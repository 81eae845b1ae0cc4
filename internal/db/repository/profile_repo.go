package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/codeduel/platform/internal/db/queries"
	"github.com/codeduel/platform/internal/profile"
	"github.com/codeduel/platform/internal/rank"
)

type profileStore interface {
	GetProfile(ctx context.Context, userID pgtype.UUID) (queries.Profile, error)
	GetProfileForUpdate(ctx context.Context, userID pgtype.UUID) (queries.Profile, error)
	CreateProfile(ctx context.Context, arg queries.CreateProfileParams) (queries.Profile, error)
	UpdateProfileDetails(ctx context.Context, arg queries.UpdateProfileDetailsParams) (queries.Profile, error)
	UpdateProfileStats(ctx context.Context, arg queries.UpdateProfileStatsParams) (queries.Profile, error)
}

// ProfileRepository implements profile.Store on Postgres.
type ProfileRepository struct {
	store profileStore
	inTx  func(ctx context.Context, fn func(profileStore) error) error
}

// NewProfileRepository builds a repository whose stat updates run in a transaction.
func NewProfileRepository(db *queries.Store) *ProfileRepository {
	return &ProfileRepository{
		store: db.Queries,
		inTx: func(ctx context.Context, fn func(profileStore) error) error {
			return db.ExecTx(ctx, func(q *queries.Queries) error { return fn(q) })
		},
	}
}

func newProfileRepository(store profileStore) *ProfileRepository {
	return &ProfileRepository{
		store: store,
		inTx: func(ctx context.Context, fn func(profileStore) error) error {
			return fn(store)
		},
	}
}

func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	row, err := r.store.GetProfile(ctx, pgUUID(userID))
	if err != nil {
		if isNoRows(err) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}
	return toProfile(row), nil
}

// Create inserts p or returns the profile that won a concurrent insert.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	row, err := r.store.CreateProfile(ctx, queries.CreateProfileParams{
		UserID:            pgUUID(p.UserID),
		Username:          p.Username,
		FullName:          p.FullName,
		College:           p.College,
		Bio:               p.Bio,
		PreferredLanguage: p.PreferredLanguage,
		Github:            p.GitHub,
		ProfilePic:        p.ProfilePic,
		Level:             int32(p.Stats.Level),
		Points:            int32(p.Stats.Points),
		RankedPoints:      int32(p.Stats.RankedPoints),
		QuestionsSolved:   int32(p.Stats.QuestionsSolved),
		Streak:            int32(p.Stats.Streak),
		Rank:              p.Stats.Rank.String(),
	})
	if isNoRows(err) {
		return r.Get(ctx, p.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return toProfile(row), nil
}

func (r *ProfileRepository) UpdateDetails(ctx context.Context, userID uuid.UUID, d profile.Details) (*profile.Profile, error) {
	row, err := r.store.UpdateProfileDetails(ctx, queries.UpdateProfileDetailsParams{
		UserID:            pgUUID(userID),
		Username:          d.Username,
		FullName:          d.FullName,
		College:           d.College,
		Bio:               d.Bio,
		PreferredLanguage: d.PreferredLanguage,
		Github:            d.GitHub,
		ProfilePic:        d.ProfilePic,
	})
	if err != nil {
		if isNoRows(err) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}
	return toProfile(row), nil
}

// UpdateStats locks the row, applies fn and writes the stats back.
func (r *ProfileRepository) UpdateStats(ctx context.Context, userID uuid.UUID, fn func(*profile.Profile) error) (*profile.Profile, error) {
	var out *profile.Profile
	err := r.inTx(ctx, func(q profileStore) error {
		row, err := q.GetProfileForUpdate(ctx, pgUUID(userID))
		if err != nil {
			if isNoRows(err) {
				return profile.ErrNotFound
			}
			return err
		}

		p := toProfile(row)
		if err := fn(p); err != nil {
			return err
		}

		updated, err := q.UpdateProfileStats(ctx, statsParams(p))
		if err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
		out = toProfile(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatsPair locks both rows in id order so concurrent settlements of
// the same pair cannot deadlock.
func (r *ProfileRepository) UpdateStatsPair(ctx context.Context, first, second uuid.UUID, fn func(first, second *profile.Profile) error) (*profile.Profile, *profile.Profile, error) {
	if first == second {
		return nil, nil, fmt.Errorf("update stats pair: same user %s", first)
	}
	var outA, outB *profile.Profile
	err := r.inTx(ctx, func(q profileStore) error {
		lockOrder := []uuid.UUID{first, second}
		if bytes.Compare(second[:], first[:]) < 0 {
			lockOrder[0], lockOrder[1] = second, first
		}
		locked := make(map[uuid.UUID]*profile.Profile, 2)
		for _, id := range lockOrder {
			row, err := q.GetProfileForUpdate(ctx, pgUUID(id))
			if err != nil {
				if isNoRows(err) {
					return profile.ErrNotFound
				}
				return err
			}
			locked[id] = toProfile(row)
		}

		if err := fn(locked[first], locked[second]); err != nil {
			return err
		}

		for _, id := range lockOrder {
			updated, err := q.UpdateProfileStats(ctx, statsParams(locked[id]))
			if err != nil {
				return fmt.Errorf("write stats: %w", err)
			}
			locked[id] = toProfile(updated)
		}
		outA, outB = locked[first], locked[second]
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return outA, outB, nil
}

func statsParams(p *profile.Profile) queries.UpdateProfileStatsParams {
	return queries.UpdateProfileStatsParams{
		UserID:          pgUUID(p.UserID),
		Level:           int32(p.Stats.Level),
		Points:          int32(p.Stats.Points),
		RankedPoints:    int32(p.Stats.RankedPoints),
		QuestionsSolved: int32(p.Stats.QuestionsSolved),
		Streak:          int32(p.Stats.Streak),
		Rank:            p.Stats.Rank.String(),
	}
}

func toProfile(row queries.Profile) *profile.Profile {
	return &profile.Profile{
		UserID:            fromPgUUID(row.UserID),
		Username:          row.Username,
		FullName:          row.FullName,
		College:           row.College,
		Bio:               row.Bio,
		PreferredLanguage: row.PreferredLanguage,
		GitHub:            row.Github,
		ProfilePic:        row.ProfilePic,
		Stats: profile.Stats{
			Level:           int(row.Level),
			Points:          int(row.Points),
			RankedPoints:    int(row.RankedPoints),
			QuestionsSolved: int(row.QuestionsSolved),
			Streak:          int(row.Streak),
			Rank:            rank.Parse(row.Rank),
		},
		CreatedAt: fromTimestamptz(row.CreatedAt),
		UpdatedAt: fromTimestamptz(row.UpdatedAt),
	}
}

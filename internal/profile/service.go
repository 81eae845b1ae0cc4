package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists profiles.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// Create inserts p, or returns the existing profile if one is already stored.
	Create(ctx context.Context, p *Profile) (*Profile, error)
	UpdateDetails(ctx context.Context, userID uuid.UUID, d Details) (*Profile, error)
	// UpdateStats applies fn to a locked copy of the profile and persists its stats.
	UpdateStats(ctx context.Context, userID uuid.UUID, fn func(*Profile) error) (*Profile, error)
	// UpdateStatsPair locks two distinct profiles and applies fn to both in one
	// transaction. Nothing is written unless both exist and fn succeeds.
	UpdateStatsPair(ctx context.Context, first, second uuid.UUID, fn func(first, second *Profile) error) (*Profile, *Profile, error)
}

// AccountSource resolves the account that owns a profile.
type AccountSource interface {
	Account(ctx context.Context, userID uuid.UUID) (Account, error)
}

// Service implements profile reads and edits.
type Service struct {
	store    Store
	accounts AccountSource
	logger   zerolog.Logger
}

// NewService creates a profile service.
func NewService(store Store, accounts AccountSource, logger zerolog.Logger) *Service {
	return &Service{store: store, accounts: accounts, logger: logger}
}

// Get returns a profile without creating one.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.store.Get(ctx, userID)
}

// GetOrCreate returns the user's profile, creating the default one on first access.
func (s *Service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	p, err := s.store.Get(ctx, userID)
	switch {
	case err == nil:
		return s.withAccountPic(ctx, p), nil
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("get profile: %w", err)
	}

	acct, err := s.accounts.Account(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err = s.store.Create(ctx, New(userID, acct))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("profile created")
	return p, nil
}

// Seed creates the default profile for a freshly registered account.
func (s *Service) Seed(ctx context.Context, userID uuid.UUID, name, profilePic string) error {
	_, err := s.store.Create(ctx, New(userID, Account{Name: name, ProfilePic: profilePic}))
	return err
}

// Update applies editable fields; stats are never touched here.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, d Details) (*Profile, error) {
	d = trimDetails(d)
	if d.Empty() {
		return s.store.Get(ctx, userID)
	}
	return s.store.UpdateDetails(ctx, userID, d)
}

// withAccountPic swaps a placeholder picture for the account's real one.
func (s *Service) withAccountPic(ctx context.Context, p *Profile) *Profile {
	if !strings.Contains(p.ProfilePic, "via.placeholder") || s.accounts == nil {
		return p
	}
	acct, err := s.accounts.Account(ctx, p.UserID)
	if err != nil || acct.ProfilePic == "" {
		return p
	}
	p.ProfilePic = acct.ProfilePic
	return p
}

func trimDetails(d Details) Details {
	return Details{
		Username:          strings.TrimSpace(d.Username),
		FullName:          strings.TrimSpace(d.FullName),
		College:           strings.TrimSpace(d.College),
		Bio:               strings.TrimSpace(d.Bio),
		PreferredLanguage: strings.TrimSpace(d.PreferredLanguage),
		GitHub:            strings.TrimSpace(d.GitHub),
		ProfilePic:        strings.TrimSpace(d.ProfilePic),
	}
}

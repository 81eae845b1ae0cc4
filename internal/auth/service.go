package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/auth/jwt"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u NewUser) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// ProfileSeeder creates the default profile for a fresh account.
type ProfileSeeder interface {
	Seed(ctx context.Context, userID uuid.UUID, name, profilePic string) error
}

// Service handles authentication and token issuance.
type Service struct {
	users    UserStore
	profiles ProfileSeeder
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// NewService creates an authentication service. profiles may be nil.
func NewService(users UserStore, profiles ProfileSeeder, tokens jwt.TokenConfig, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		tokenMgr: jwt.NewManager(tokens),
		logger:   logger,
	}
}

// Register creates a new account and its default profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, fmt.Errorf("invalid email")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("name required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, NewUser{Name: name, Email: email, PasswordHash: passwordHash})
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	if s.profiles != nil {
		if err := s.profiles.Seed(ctx, user.ID, user.Name, user.ProfilePic); err != nil {
			// the profile is recreated lazily on first read
			s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("profile seed failed")
		}
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return &user, tokens, nil
}

// Login authenticates with email and password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &user, tokens, nil
}

// RefreshToken issues a new access token from a refresh token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(subjectOf(user))
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

// ValidateToken checks an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

func (s *Service) generateTokenPair(user User) (*TokenPair, error) {
	sub := subjectOf(user)

	accessToken, err := s.tokenMgr.GenerateAccessToken(sub)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenMgr.GenerateRefreshToken(sub)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

func subjectOf(user User) jwt.Subject {
	return jwt.Subject{ID: user.ID, Email: user.Email, Name: user.Name}
}

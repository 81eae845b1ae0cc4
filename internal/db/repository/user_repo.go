package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/codeduel/platform/internal/auth"
	"github.com/codeduel/platform/internal/db/queries"
	"github.com/codeduel/platform/internal/profile"
)

type userStore interface {
	CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error)
	GetUserByEmail(ctx context.Context, email string) (queries.User, error)
	GetUserByID(ctx context.Context, userID pgtype.UUID) (queries.User, error)
}

// UserRepository exposes typed DB operations required by auth flows.
type UserRepository struct {
	store userStore
}

// NewUserRepository wraps Queries for user-specific operations.
func NewUserRepository(store userStore) *UserRepository {
	return &UserRepository{store: store}
}

// Create inserts a registered account.
func (r *UserRepository) Create(ctx context.Context, u auth.NewUser) (auth.User, error) {
	row, err := r.store.CreateUser(ctx, queries.CreateUserParams{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: pgtype.Text{String: u.PasswordHash, Valid: u.PasswordHash != ""},
	})
	if err != nil {
		if isUniqueViolation(err) {
			return auth.User{}, auth.ErrEmailTaken
		}
		return auth.User{}, fmt.Errorf("create user: %w", err)
	}
	return toUser(row), nil
}

// GetByEmail fetches a user by email if present.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	row, err := r.store.GetUserByEmail(ctx, email)
	if err != nil {
		if isNoRows(err) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, err
	}
	return toUser(row), nil
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (auth.User, error) {
	row, err := r.store.GetUserByID(ctx, pgUUID(userID))
	if err != nil {
		if isNoRows(err) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, err
	}
	return toUser(row), nil
}

// Account resolves the name and picture used to seed a profile.
func (r *UserRepository) Account(ctx context.Context, userID uuid.UUID) (profile.Account, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return profile.Account{}, profile.ErrAccountNotFound
		}
		return profile.Account{}, err
	}
	return profile.Account{Name: u.Name, ProfilePic: u.ProfilePic}, nil
}

func toUser(row queries.User) auth.User {
	return auth.User{
		ID:           fromPgUUID(row.UserID),
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash.String,
		ProfilePic:   row.ProfilePic,
		CreatedAt:    fromTimestamptz(row.CreatedAt),
	}
}

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/codeduel/platform/internal/auth"
	"github.com/codeduel/platform/internal/db/queries"
	"github.com/codeduel/platform/internal/profile"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (queries.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) GetUserByID(ctx context.Context, userID pgtype.UUID) (queries.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(queries.User), args.Error(1)
}

func TestUserRepository_Create(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	params := queries.CreateUserParams{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: pgtype.Text{String: "hashed", Valid: true},
	}
	store.On("CreateUser", mock.Anything, params).Return(queries.User{
		UserID:       uuidFromByte(1),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: params.PasswordHash,
	}, nil)

	got, err := repo.Create(context.Background(), auth.NewUser{Name: "Ada", Email: "ada@example.com", PasswordHash: "hashed"})

	assert.NoError(t, err)
	assert.Equal(t, idFromByte(1), got.ID)
	assert.Equal(t, "hashed", got.PasswordHash)
	store.AssertExpectations(t)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	store.On("CreateUser", mock.Anything, mock.Anything).
		Return(queries.User{}, &pgconn.PgError{Code: uniqueViolation})

	_, err := repo.Create(context.Background(), auth.NewUser{Email: "ada@example.com"})

	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	store.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(queries.User{}, pgx.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")

	assert.ErrorIs(t, err, auth.ErrUserNotFound)
	store.AssertExpectations(t)
}

func TestUserRepository_Account(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	store.On("GetUserByID", mock.Anything, uuidFromByte(2)).
		Return(queries.User{UserID: uuidFromByte(2), Name: "Ada", ProfilePic: "https://img/ada.png"}, nil)
	store.On("GetUserByID", mock.Anything, uuidFromByte(3)).Return(queries.User{}, pgx.ErrNoRows)

	acct, err := repo.Account(context.Background(), idFromByte(2))
	assert.NoError(t, err)
	assert.Equal(t, profile.Account{Name: "Ada", ProfilePic: "https://img/ada.png"}, acct)

	_, err = repo.Account(context.Background(), idFromByte(3))
	assert.ErrorIs(t, err, profile.ErrAccountNotFound)
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/codeduel/platform/internal/auth/jwt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, u NewUser) (User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(User), args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}

type mockSeeder struct {
	mock.Mock
}

func (m *mockSeeder) Seed(ctx context.Context, userID uuid.UUID, name, pic string) error {
	return m.Called(ctx, userID, name, pic).Error(0)
}

func newTestService(users UserStore, seeder ProfileSeeder) *Service {
	return NewService(users, seeder, jwt.TokenConfig{AccessSecret: []byte("test-secret")}, zerolog.Nop())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.NoError(t, VerifyPassword(hash, "testpassword123"))
	assert.Error(t, VerifyPassword(hash, "wrongpassword"))
}

func TestPasswordLengthLimits(t *testing.T) {
	_, err := HashPassword("short")
	assert.Equal(t, ErrPasswordTooShort, err)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = HashPassword(string(long))
	assert.Equal(t, ErrPasswordTooLong, err)
}

func TestService_Register(t *testing.T) {
	users := new(mockUserStore)
	seeder := new(mockSeeder)
	svc := newTestService(users, seeder)

	id := uuid.New()
	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(User{}, ErrUserNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u NewUser) bool {
		return u.Name == "Ada" && u.Email == "ada@example.com" && VerifyPassword(u.PasswordHash, "password123") == nil
	})).Return(User{ID: id, Name: "Ada", Email: "ada@example.com"}, nil)
	seeder.On("Seed", mock.Anything, id, "Ada", "").Return(nil)

	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ada",
		Email:    " Ada@Example.com ",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	users.AssertExpectations(t)
	seeder.AssertExpectations(t)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	users := new(mockUserStore)
	svc := newTestService(users, nil)

	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(User{ID: uuid.New()}, nil)

	_, _, err := svc.Register(context.Background(), RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_RegisterSeedFailureIsNotFatal(t *testing.T) {
	users := new(mockUserStore)
	seeder := new(mockSeeder)
	svc := newTestService(users, seeder)

	id := uuid.New()
	users.On("GetByEmail", mock.Anything, "bo@example.com").Return(User{}, ErrUserNotFound)
	users.On("Create", mock.Anything, mock.Anything).Return(User{ID: id, Name: "Bo", Email: "bo@example.com"}, nil)
	seeder.On("Seed", mock.Anything, id, "Bo", "").Return(assert.AnError)

	_, tokens, err := svc.Register(context.Background(), RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestService_RegisterValidation(t *testing.T) {
	svc := newTestService(new(mockUserStore), nil)

	_, _, err := svc.Register(context.Background(), RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "password123"})
	assert.Error(t, err)

	_, _, err = svc.Register(context.Background(), RegisterRequest{Name: " ", Email: "ada@example.com", Password: "password123"})
	assert.Error(t, err)
}

func TestService_Login(t *testing.T) {
	users := new(mockUserStore)
	svc := newTestService(users, nil)

	hash, err := HashPassword("password123")
	require.NoError(t, err)
	id := uuid.New()
	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(User{ID: id, Name: "Ada", PasswordHash: hash}, nil)

	user, tokens, err := svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	_, _, err = svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoginUnknownEmail(t *testing.T) {
	users := new(mockUserStore)
	svc := newTestService(users, nil)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(User{}, ErrUserNotFound)

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RefreshToken(t *testing.T) {
	users := new(mockUserStore)
	svc := newTestService(users, nil)

	id := uuid.New()
	user := User{ID: id, Name: "Ada"}
	users.On("GetByID", mock.Anything, id).Return(user, nil)

	pair, err := svc.generateTokenPair(user)
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	svc := newTestService(new(mockUserStore), nil)
	pair, err := svc.generateTokenPair(User{ID: uuid.New(), Name: "Ada"})
	require.NoError(t, err)

	protected := AuthMiddleware(svc, zerolog.Nop())(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "Ada", claims.Name)
		w.WriteHeader(http.StatusNoContent)
	})))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + pair.AccessToken, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/profile/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

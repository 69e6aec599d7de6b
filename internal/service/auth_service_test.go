package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sibaso/qbank-api/internal/models"
	"github.com/sibaso/qbank-api/pkg/config"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[string]*models.User
	createdUser *models.User
	lastLoginID string
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[user.ID] = user
	m.createdUser = user
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, _ time.Time) error {
	m.lastLoginID = id
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "qbank-test"}
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "jane@example.com",
			PasswordHash: hashPassword(t, "secret123"),
			FullName:     "Jane Doe",
			Role:         models.RoleLecturer,
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, testJWTConfig(), zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, int64(3600), res.ExpiresIn)
	require.Equal(t, "user-1", res.User.ID)
	require.Equal(t, "user-1", repo.lastLoginID)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleLecturer, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "jane@example.com",
			PasswordHash: hashPassword(t, "secret123"),
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownEmailSameError(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "jane@example.com",
			PasswordHash: hashPassword(t, "secret123"),
			Active:       false,
		},
	}}
	svc := NewAuthService(repo, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "taken@example.com", Active: true},
	}}
	svc := NewAuthService(repo, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "taken@example.com",
		Password: "secret123",
		FullName: "Dup User",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Nil(t, repo.createdUser)
}

func TestAuthServiceSignupUnknownRole(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "new@example.com",
		Password: "secret123",
		FullName: "New User",
		Role:     "superadmin",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceSignupDefaultsToUserRole(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewAuthService(repo, nil, testJWTConfig(), zap.NewNop())

	user, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "new@example.com",
		Password: "secret123",
		FullName: "New User",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, user.Role)
	require.True(t, user.Active)
	require.NotEqual(t, "secret123", user.PasswordHash)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "jane@example.com",
			PasswordHash: hashPassword(t, "secret123"),
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, testJWTConfig(), zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.Token + "x")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(repo, nil, config.JWTConfig{Secret: "different", Expiration: time.Hour}, zap.NewNop())
	_, err = other.ValidateToken(res.Token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

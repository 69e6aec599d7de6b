package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sibaso/qbank-api/internal/middleware"
	"github.com/sibaso/qbank-api/internal/models"
	"github.com/sibaso/qbank-api/internal/service"
	"github.com/sibaso/qbank-api/pkg/config"
)

type authUserRepoStub struct {
	users map[string]*models.User
}

func (s *authUserRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := s.users[email]
	return ok, nil
}

func (s *authUserRepoStub) Create(_ context.Context, user *models.User) error {
	s.users[user.Email] = user
	return nil
}

func (s *authUserRepoStub) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func signinTestEngine(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &authUserRepoStub{users: map[string]*models.User{
		"lecturer@example.edu": {
			ID:           "user-1",
			Email:        "lecturer@example.edu",
			PasswordHash: string(hash),
			FullName:     "Test Lecturer",
			Role:         models.RoleUser,
			Active:       true,
		},
		"admin@example.edu": {
			ID:           "admin-1",
			Email:        "admin@example.edu",
			PasswordHash: string(adminHash),
			FullName:     "Test Admin",
			Role:         models.RoleAdmin,
			Active:       true,
		},
	}}

	authSvc := service.NewAuthService(repo, nil, config.JWTConfig{
		Secret:     "handler-test-secret",
		Expiration: time.Hour,
		Issuer:     "qbank-api",
	}, zap.NewNop())

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/signin", NewAuthHandler(authSvc).Login)

	users := api.Group("/users")
	users.Use(middleware.Authenticate(authSvc), middleware.RequireAdmin())
	users.GET("", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router, authSvc
}

func signin(t *testing.T, router *gin.Engine, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthHandlerSigninSuccess(t *testing.T) {
	router, _ := signinTestEngine(t)

	recorder := signin(t, router, "lecturer@example.edu", "correct-horse")
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)
	require.Equal(t, int64(3600), envelope.Data.ExpiresIn)
	require.Equal(t, "lecturer@example.edu", envelope.Data.User.Email)
}

func TestAuthHandlerSigninWrongPassword(t *testing.T) {
	router, _ := signinTestEngine(t)

	recorder := signin(t, router, "lecturer@example.edu", "wrong")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Error.Code)
}

func TestAuthHandlerSigninMalformedBody(t *testing.T) {
	router, _ := signinTestEngine(t)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdminRouteRejectsRegularUserToken(t *testing.T) {
	router, _ := signinTestEngine(t)

	recorder := signin(t, router, "lecturer@example.edu", "correct-horse")
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	listRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+envelope.Data.Token)
	router.ServeHTTP(listRec, req)

	require.Equal(t, http.StatusForbidden, listRec.Code)
}

func TestAdminRouteAcceptsAdminToken(t *testing.T) {
	router, _ := signinTestEngine(t)

	recorder := signin(t, router, "admin@example.edu", "admin-pass")
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	listRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+envelope.Data.Token)
	router.ServeHTTP(listRec, req)

	require.Equal(t, http.StatusOK, listRec.Code)
}

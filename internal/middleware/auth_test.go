package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sibaso/qbank-api/internal/models"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
)

type stubValidator struct {
	claims map[string]*models.JWTClaims
}

func (v *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func authTestRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Authenticate(validator), func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.UserID)
	})
	return router
}

func TestAuthenticateMissingToken(t *testing.T) {
	router := authTestRouter(&stubValidator{})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestAuthenticateBearerHeader(t *testing.T) {
	validator := &stubValidator{claims: map[string]*models.JWTClaims{
		"good-token": {UserID: "user-1", Role: models.RoleLecturer},
	}}
	router := authTestRouter(validator)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if recorder.Body.String() != "user-1" {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestAuthenticateLegacyHeader(t *testing.T) {
	validator := &stubValidator{claims: map[string]*models.JWTClaims{
		"good-token": {UserID: "user-1", Role: models.RoleLecturer},
	}}
	router := authTestRouter(validator)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("x-access-token", "good-token")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	router := authTestRouter(&stubValidator{})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer forged")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestAuthenticateMalformedAuthorizationHeader(t *testing.T) {
	validator := &stubValidator{claims: map[string]*models.JWTClaims{
		"good-token": {UserID: "user-1", Role: models.RoleLecturer},
	}}
	router := authTestRouter(validator)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic good-token")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

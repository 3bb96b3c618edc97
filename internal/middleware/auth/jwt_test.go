package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runMiddleware(cfg JWTConfig, path, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddleware(cfg)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, c
}

func TestJWTMiddleware(t *testing.T) {
	logger := zap.NewNop()
	userID := uuid.New()

	t.Run("valid token stores the user in context", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":   userID.String(),
			"email": "owner@example.com",
			"role":  "owner",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		rec, c := runMiddleware(JWTConfig{Secret: testSecret, Logger: logger}, "/api/v1/businesses/abc/subscription", "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		user, ok := GetAuthUser(c)
		require.True(t, ok)
		assert.Equal(t, userID, user.UserID)
		assert.Equal(t, "owner@example.com", user.Email)
		assert.Equal(t, "owner", user.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _ := runMiddleware(JWTConfig{Secret: testSecret, Logger: logger}, "/api/v1/businesses/abc/subscription", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISSING_AUTH_HEADER")
	})

	t.Run("malformed header", func(t *testing.T) {
		rec, _ := runMiddleware(JWTConfig{Secret: testSecret, Logger: logger}, "/api/v1/businesses/abc/subscription", "Token abc")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_AUTH_FORMAT")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{
			"sub": userID.String(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		rec, _ := runMiddleware(JWTConfig{Secret: testSecret, Logger: logger}, "/api/v1/businesses/abc/subscription", "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": userID.String(),
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		rec, _ := runMiddleware(JWTConfig{Secret: testSecret, Logger: logger}, "/api/v1/businesses/abc/subscription", "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("subject must be a uuid", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		rec, _ := runMiddleware(JWTConfig{Secret: testSecret, Logger: logger}, "/api/v1/businesses/abc/subscription", "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_TOKEN_SUBJECT")
	})

	t.Run("skip path bypasses validation", func(t *testing.T) {
		cfg := JWTConfig{
			Secret:    testSecret,
			Logger:    logger,
			SkipPaths: []string{"/health", "/api/v1/plans"},
		}

		rec, _ := runMiddleware(cfg, "/api/v1/plans", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

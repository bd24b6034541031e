package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strollio/backend/internal/models"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:   42,
		Username: "tester",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// runAuth pushes a request with the given Authorization header through the
// middleware and reports the handler error plus the claims the inner handler
// observed (nil when the request never reached it).
func runAuth(t *testing.T, authHeader string) (error, *models.JwtCustomClaims) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *models.JwtCustomClaims
	handler := JWTAuthMiddleware(testSecret)(func(c echo.Context) error {
		seen = UserClaims(c)
		return c.NoContent(http.StatusOK)
	})
	return handler(c), seen
}

func unauthorized(t *testing.T, err error) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestJWTAuth_MissingHeaderIsUnauthorized(t *testing.T) {
	err, seen := runAuth(t, "")
	unauthorized(t, err)
	assert.Nil(t, seen)
}

func TestJWTAuth_MalformedHeaderIsUnauthorized(t *testing.T) {
	for _, header := range []string{
		"Bearer",
		"Token abc",
		"Bearer one two",
	} {
		err, seen := runAuth(t, header)
		unauthorized(t, err)
		assert.Nil(t, seen)
	}
}

func TestJWTAuth_WrongSignatureIsUnauthorized(t *testing.T) {
	token := signToken(t, "some-other-secret", time.Now().Add(time.Hour))
	err, seen := runAuth(t, "Bearer "+token)
	unauthorized(t, err)
	assert.Nil(t, seen)
}

func TestJWTAuth_ExpiredTokenIsUnauthorized(t *testing.T) {
	token := signToken(t, testSecret, time.Now().Add(-time.Hour))
	err, seen := runAuth(t, "Bearer "+token)
	unauthorized(t, err)
	assert.Nil(t, seen)
}

func TestJWTAuth_ValidTokenReachesHandlerWithClaims(t *testing.T) {
	token := signToken(t, testSecret, time.Now().Add(time.Hour))
	err, seen := runAuth(t, "Bearer "+token)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, uint(42), seen.UserID)
	assert.Equal(t, "tester", seen.Username)
}

func TestUserClaims_NilWithoutIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, UserClaims(c))
}

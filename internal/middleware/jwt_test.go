package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/middleware"
	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

func newTestSigner(t *testing.T) *utils.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return utils.NewSigner(key, &key.PublicKey, time.Hour, 7*24*time.Hour)
}

func runAuth(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", "/v1/users/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := middleware.JWTAuth(newTestSigner(t), nil, cache.New(nil), time.Minute)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsNonBearer(t *testing.T) {
	rec := runAuth(t, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	rec := runAuth(t, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsForeignSignature(t *testing.T) {
	// Signed by a different key than the middleware verifies with.
	foreign := newTestSigner(t)
	at, err := foreign.NewAccessToken(1, "a@b.c", "user")
	require.NoError(t, err)

	rec := runAuth(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	run := func(t *testing.T, role any) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest("POST", "/v1/services", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := middleware.RequireRole("admin")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, h(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run(t, "admin").Code)
	assert.Equal(t, http.StatusForbidden, run(t, "user").Code)
	assert.Equal(t, http.StatusForbidden, run(t, nil).Code)
	assert.Equal(t, http.StatusForbidden, run(t, 42).Code)
}

func TestIdentityAccessors(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest("GET", "/", nil), httptest.NewRecorder())

	assert.Equal(t, uint64(0), middleware.UserID(c))
	assert.Equal(t, "", middleware.Email(c))
	assert.Equal(t, "", middleware.Role(c))

	c.Set("user_id", uint64(9))
	c.Set("email", "x@y.z")
	c.Set("role", "admin")
	assert.Equal(t, uint64(9), middleware.UserID(c))
	assert.Equal(t, "x@y.z", middleware.Email(c))
	assert.Equal(t, "admin", middleware.Role(c))
}

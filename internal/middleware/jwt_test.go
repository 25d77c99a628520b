package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinepass/booking-api/internal/model"
	"github.com/cinepass/booking-api/internal/utils"
)

const testSecret = "unit-test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/my-bookings", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleCustomer, 5)
	require.NoError(t, err)

	rec, c := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleCustomer, c.Get("role"))
	// Number claims come back as float64 after parsing.
	assert.Equal(t, float64(42), c.Get("user_id"))
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	mw := JWTAuth(testSecret)

	rec, _ := doRequest(t, mw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, mw, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	tok, err := utils.NewAccessToken("other-secret", 42, model.RoleCustomer, 5)
	require.NoError(t, err)
	rec, _ = doRequest(t, mw, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token.
	tok, err = utils.NewAccessToken(testSecret, 42, model.RoleCustomer, -5)
	require.NoError(t, err)
	rec, _ = doRequest(t, mw, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	run := func(role interface{}, allowed ...string) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/bookings", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := RequireRole(allowed...)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, h(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(model.RoleAdmin, model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, run(model.RoleCustomer, model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, run(nil, model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, run(123, model.RoleAdmin))
	assert.Equal(t, http.StatusOK, run(model.RoleCustomer, model.RoleAdmin, model.RoleCustomer))
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "mw@example.com", "secret1")
	require.NoError(t, err)
	token, acct, err := svc.SignIn(ctx, "mw@example.com", "secret1")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	}, Middleware(svc))

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, acct.UserID, rec.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, email := range []string{"ops@example.com", "user@example.com"} {
		_, err := svc.SignUp(ctx, email, "secret1")
		require.NoError(t, err)
	}
	opsToken, _, err := svc.SignIn(ctx, "ops@example.com", "secret1")
	require.NoError(t, err)
	userToken, _, err := svc.SignIn(ctx, "user@example.com", "secret1")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/ops", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, Middleware(svc), RequireAdmin([]string{" OPS@example.com "}))
	e.GET("/locked", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, Middleware(svc), RequireAdmin(nil))

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"listed admin", "/ops", opsToken, http.StatusNoContent},
		{"regular user", "/ops", userToken, http.StatusForbidden},
		{"no admins configured", "/locked", opsToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

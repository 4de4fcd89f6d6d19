package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/testutil"
)

type handlerEnv struct {
	e     *echo.Echo
	token string
	store *Store
}

func newHandlerEnv(t *testing.T) handlerEnv {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	store := NewStore(tdb.Conn)
	svc := NewService(store, NewPhotoStore(t.TempDir(), "http://media.test"), tdb.Logger)

	authSvc, err := auth.NewService(tdb.Conn, svc, "secret", time.Hour, tdb.Logger)
	require.NoError(t, err)
	_, err = authSvc.SignUp(context.Background(), "p@example.com", "secret1")
	require.NoError(t, err)
	token, _, err := authSvc.SignIn(context.Background(), "p@example.com", "secret1")
	require.NoError(t, err)

	e := echo.New()
	g := e.Group("/api/v1/profile", auth.Middleware(authSvc))
	NewHandlers(svc).RegisterRoutes(g)

	return handlerEnv{e: e, token: token, store: store}
}

func (env handlerEnv) do(req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_GetEmptyProfile(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var u User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "p@example.com", u.Email)
	assert.Empty(t, u.Name)
	assert.Empty(t, u.Favorites)
}

func TestHandlers_UpdateJSON(t *testing.T) {
	env := newHandlerEnv(t)

	body := `{"name":"Grace","dateOfBirth":"1906-12-09","mobileNumber":"5551234567"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var u User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "Grace", u.Name)
	assert.Equal(t, "p@example.com", u.Email)
}

func TestHandlers_UpdateValidationError(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(`{"name":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := env.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Name is required", body.Fields["name"])
	assert.Equal(t, "Date of birth is required", body.Fields["dateOfBirth"])
	assert.Equal(t, "Mobile number must be 10 digits", body.Fields["mobileNumber"])
}

func TestHandlers_UpdateMultipartWithPhoto(t *testing.T) {
	env := newHandlerEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Grace"))
	require.NoError(t, mw.WriteField("dateOfBirth", "1906-12-09"))
	require.NoError(t, mw.WriteField("mobileNumber", "5551234567"))
	fw, err := mw.CreateFormFile("photo", "me.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var u User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.True(t, strings.HasPrefix(u.ProfilePhotoURL, "http://media.test/users/"))
	assert.True(t, strings.HasSuffix(u.ProfilePhotoURL, "/profile_photo.jpg"))
}

func TestHandlers_RequiresAuth(t *testing.T) {
	env := newHandlerEnv(t)

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

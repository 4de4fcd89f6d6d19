package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/config"
	"github.com/popcorn/popcorn/internal/health"
	"github.com/popcorn/popcorn/internal/logger"
	"github.com/popcorn/popcorn/internal/testutil"
	"github.com/popcorn/popcorn/internal/websocket"
)

type testServer struct {
	*Server
	token string
}

const adminEmail = "admin@example.com"

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServer(t, nil)
}

// newTestServer builds a server in developer mode. When recent is non-nil
// every log line is also kept there and served under /system/logs.
func newTestServer(t *testing.T, recent *logger.Recent) *testServer {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	log := tdb.Logger
	if recent != nil {
		log = zerolog.New(zerolog.MultiLevelWriter(recent, zerolog.NewTestWriter(t))).Level(zerolog.DebugLevel)
	}

	cfg := config.Default()
	cfg.DeveloperMode = true
	cfg.Lists.MinLoadingMS = -1
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AdminEmails = []string{adminEmail}
	cfg.Media.Dir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server, err := NewServer(tdb.Conn, hub, cfg, log)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(server.metadataService.Close)
	if recent != nil {
		server.SetRecentLogs(recent)
	}

	return &testServer{Server: server}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// signIn registers email and stores the returned token on ts.
func (ts *testServer) signIn(t *testing.T, email string) AuthResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", `{"email":"`+email+`","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[AuthResponse](t, rec)
	ts.token = resp.Token
	return resp
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("HealthCheck status = %d, want %d", rec.Code, http.StatusOK)
	}

	response := decode[map[string]string](t, rec)
	if response["status"] != "ok" {
		t.Errorf("HealthCheck status = %q, want %q", response["status"], "ok")
	}
}

func TestGetStatus(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GetStatus status = %d, want %d", rec.Code, http.StatusOK)
	}

	response := decode[map[string]interface{}](t, rec)
	if response["version"] != config.Version {
		t.Errorf("version = %v, want %v", response["version"], config.Version)
	}
	if response["developerMode"] != true {
		t.Errorf("developerMode = %v, want true", response["developerMode"])
	}
	if response["catalogConfigured"] != true {
		t.Errorf("catalogConfigured = %v, want true", response["catalogConfigured"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := setupTestServer(t)

	paths := []string{
		"/api/v1/lists/popular",
		"/api/v1/profile",
		"/api/v1/favorites",
		"/api/v1/catalog/movie/603",
		"/api/v1/auth/me",
		"/api/v1/scheduler/tasks",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, path, "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestSignUp(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.signIn(t, "new@example.com")
	if resp.Token == "" {
		t.Fatal("expected token")
	}
	if resp.User.UserID != resp.Account.UserID || resp.User.Email != "new@example.com" {
		t.Errorf("user = %+v, account = %+v", resp.User, resp.Account)
	}

	ts.token = ""
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", `{"email":"NEW@example.com","password":"secret1"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/signup", `{"email":"nope","password":"123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid signup status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, rec)
	if body.Fields["email"] == "" || body.Fields["password"] == "" {
		t.Errorf("fields = %v, want email and password errors", body.Fields)
	}
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "login@example.com")
	ts.token = ""

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"login@example.com","password":"wrong-pass"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"Login@Example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[AuthResponse](t, rec)
	ts.token = resp.Token

	rec = ts.do(t, http.MethodGet, "/api/v1/auth/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
}

func TestLogin_LocksAccountAfterFailures(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "lock@example.com")
	ts.token = ""

	for i := 0; i < 5; i++ {
		rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"lock@example.com","password":"wrong-pass"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want %d", i+1, rec.Code, http.StatusUnauthorized)
		}
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"lock@example.com","password":"secret1"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("locked login status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestLogout_RevokesTokenAndEndsSession(t *testing.T) {
	ts := setupTestServer(t)
	resp := ts.signIn(t, "bye@example.com")

	if rec := ts.do(t, http.MethodGet, "/api/v1/lists/popular", ""); rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if ts.sessions.Count() != 1 {
		t.Fatalf("sessions = %d, want 1", ts.sessions.Count())
	}

	if rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if _, ok := ts.sessions.Lookup(resp.Account.UserID); ok {
		t.Error("session should be gone after logout")
	}

	if rec := ts.do(t, http.MethodGet, "/api/v1/auth/me", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestListLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "lists@example.com")

	rec := ts.do(t, http.MethodGet, "/api/v1/lists/popular", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", rec.Code, rec.Body.String())
	}
	list := decode[ListResponse](t, rec)
	if len(list.Movies) != 6 || list.Loading {
		t.Fatalf("got %d movies, loading=%v", len(list.Movies), list.Loading)
	}
	if list.Movies[0].PosterURL == "" || list.Movies[0].ReleaseDisplay == "" {
		t.Errorf("movie view fields not filled: %+v", list.Movies[0])
	}
	first, second := list.Movies[0].ID, list.Movies[1].ID

	rec = ts.do(t, http.MethodPost, "/api/v1/lists/popular/selection/"+itoa(first), "")
	toggled := decode[struct {
		Selected bool `json:"selected"`
	}](t, rec)
	if !toggled.Selected {
		t.Error("expected movie to be selected")
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/lists/popular/active/"+itoa(first), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("set active status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/lists/popular/delete-selected", "")
	deleted := decode[struct {
		Removed int          `json:"removed"`
		List    ListResponse `json:"list"`
	}](t, rec)
	if deleted.Removed != 1 || len(deleted.List.Movies) != 5 {
		t.Errorf("removed = %d, remaining = %d", deleted.Removed, len(deleted.List.Movies))
	}
	if deleted.List.ActiveID != nil {
		t.Error("active movie was deleted, active reference should be cleared")
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/lists/popular/movies/"+itoa(second)+"/duplicate", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	dup := decode[struct {
		List ListResponse `json:"list"`
	}](t, rec)
	if len(dup.List.Movies) != 6 || dup.List.Movies[1].ID == second || dup.List.Movies[1].Title != dup.List.Movies[0].Title {
		t.Errorf("duplicate not placed after original: %+v", dup.List.Movies[:2])
	}

	// A second fetch keeps local edits.
	rec = ts.do(t, http.MethodGet, "/api/v1/lists/popular", "")
	if got := decode[ListResponse](t, rec); len(got.Movies) != 6 {
		t.Errorf("refetch returned %d movies, want local 6", len(got.Movies))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/lists/popular/movies/"+itoa(second), "")
	if rec.Code != http.StatusOK {
		t.Errorf("movie detail status = %d", rec.Code)
	}

	notFound := []struct{ method, path string }{
		{http.MethodPut, "/api/v1/lists/popular/active/" + itoa(first)},
		{http.MethodGet, "/api/v1/lists/popular/movies/" + itoa(first)},
		{http.MethodPost, "/api/v1/lists/popular/movies/" + itoa(first) + "/duplicate"},
	}
	for _, tt := range notFound {
		if rec := ts.do(t, tt.method, tt.path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestListSelectAllAndClear(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "select@example.com")
	ts.do(t, http.MethodGet, "/api/v1/lists/top_rated", "")

	rec := ts.do(t, http.MethodPost, "/api/v1/lists/top_rated/selection/all", "")
	list := decode[ListResponse](t, rec)
	if len(list.Selected) != len(list.Movies) {
		t.Errorf("selected %d of %d", len(list.Selected), len(list.Movies))
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/lists/top_rated/selection", "")
	if list := decode[ListResponse](t, rec); len(list.Selected) != 0 {
		t.Errorf("selection not cleared: %v", list.Selected)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/lists/top_rated/delete-selected", "")
	deleted := decode[struct {
		Removed int `json:"removed"`
	}](t, rec)
	if deleted.Removed != 0 {
		t.Errorf("removed = %d with empty selection", deleted.Removed)
	}
}

func TestList_UnknownCategory(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "cat@example.com")

	rec := ts.do(t, http.MethodGet, "/api/v1/lists/upcoming", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestFavorites(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "fav@example.com")

	for _, id := range []string{"603", "550", "999999"} {
		rec := ts.do(t, http.MethodPost, "/api/v1/favorites/"+id+"/toggle", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle %s status = %d", id, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/favorites", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("favorites status = %d", rec.Code)
	}
	favs := decode[FavoritesResponse](t, rec)
	if len(favs.IDs) != 3 {
		t.Errorf("ids = %v, want 3 entries", favs.IDs)
	}
	// 999999 is not in the catalog and is skipped.
	if len(favs.Movies) != 2 || favs.Movies[0].ID != 603 || favs.Movies[1].ID != 550 {
		t.Errorf("movies = %+v, want [603 550]", favs.Movies)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/favorites/603/toggle", "")
	toggled := decode[struct {
		Favorites []int64 `json:"favorites"`
		Added     bool    `json:"added"`
	}](t, rec)
	if toggled.Added || len(toggled.Favorites) != 2 || toggled.Favorites[0] != 550 {
		t.Errorf("toggle off = %+v", toggled)
	}
}

func TestProfileAndCatalogRoutes(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "me@example.com")

	rec := ts.do(t, http.MethodPut, "/api/v1/profile", `{"name":"Ada","dateOfBirth":"1990-01-01","mobileNumber":"0123456789"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/catalog/movie/603", "")
	if rec.Code != http.StatusOK {
		t.Errorf("catalog movie status = %d", rec.Code)
	}

	ts.signIn(t, adminEmail)

	rec = ts.do(t, http.MethodGet, "/api/v1/scheduler/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("scheduler tasks status = %d", rec.Code)
	}
	if tasks := decode[[]map[string]interface{}](t, rec); len(tasks) != 4 {
		t.Errorf("tasks = %d, want 4", len(tasks))
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/system/health/check", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health check status = %d", rec.Code)
	}
	if !ts.healthService.IsHealthy(health.CategoryCatalog, health.ItemCatalog) {
		t.Error("mock catalog should be healthy")
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/system/logs", "")
	if rec.Code != http.StatusOK {
		t.Errorf("logs status = %d", rec.Code)
	}
}

func TestOperatorRoutesRequireAdmin(t *testing.T) {
	ts := setupTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/system/logs"},
		{http.MethodGet, "/api/v1/system/sessions"},
		{http.MethodGet, "/api/v1/system/health"},
		{http.MethodPost, "/api/v1/system/health/check"},
		{http.MethodGet, "/api/v1/scheduler/tasks"},
		{http.MethodPost, "/api/v1/scheduler/tasks/session-sweep/run"},
		{http.MethodDelete, "/api/v1/catalog/cache"},
	}

	ts.signIn(t, "viewer@example.com")
	for _, r := range routes {
		if rec := ts.do(t, r.method, r.path, ""); rec.Code != http.StatusForbidden {
			t.Errorf("user %s %s status = %d, want %d", r.method, r.path, rec.Code, http.StatusForbidden)
		}
	}

	ts.signIn(t, adminEmail)
	for _, r := range routes {
		if rec := ts.do(t, r.method, r.path, ""); rec.Code == http.StatusForbidden || rec.Code == http.StatusUnauthorized {
			t.Errorf("admin %s %s status = %d", r.method, r.path, rec.Code)
		}
	}
}

func TestRequestLogOmitsQueryToken(t *testing.T) {
	recent := logger.NewRecent(200)
	ts := newTestServer(t, recent)

	victim := ts.signIn(t, "victim@example.com")
	ts.token = ""
	// Plain GET without upgrade headers: the websocket upgrade fails and is logged.
	ts.do(t, http.MethodGet, "/ws?token="+victim.Token, "")

	ts.signIn(t, adminEmail)
	rec := ts.do(t, http.MethodGet, "/api/v1/system/logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logs status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), victim.Token) {
		t.Fatal("request log exposes a bearer token from the query string")
	}

	sawWS := false
	for _, e := range decode[[]logger.Entry](t, rec) {
		if e.Fields["path"] == "/ws" {
			sawWS = true
		}
	}
	if !sawWS {
		t.Error("expected the /ws request to be logged by path")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

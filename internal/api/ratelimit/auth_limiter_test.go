package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

func TestAllowIP_Window(t *testing.T) {
	fc := clockwork.NewFakeClock()
	l := NewAuthLimiter(Config{IPLimit: 3, IPWindow: time.Minute, Clock: fc})

	for i := 0; i < 3; i++ {
		if !l.AllowIP("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.AllowIP("1.2.3.4") {
		t.Error("4th request should be refused")
	}
	if !l.AllowIP("5.6.7.8") {
		t.Error("other IPs have their own window")
	}

	fc.Advance(61 * time.Second)
	if !l.AllowIP("1.2.3.4") {
		t.Error("window should reset")
	}
}

func TestAccountLockout(t *testing.T) {
	fc := clockwork.NewFakeClock()
	l := NewAuthLimiter(Config{MaxFailedAttempts: 3, LockoutDuration: 10 * time.Minute, Clock: fc})

	for i := 0; i < 2; i++ {
		l.RecordFailedAttempt("User@Example.com")
	}
	if l.IsAccountLocked("user@example.com") {
		t.Fatal("account should not be locked before the limit")
	}

	l.RecordFailedAttempt("user@example.com")
	if !l.IsAccountLocked("USER@example.com") {
		t.Fatal("account should be locked at the limit")
	}
	if got := l.GetLockoutRemaining("user@example.com"); got != 10*time.Minute {
		t.Errorf("GetLockoutRemaining() = %v, want 10m", got)
	}

	fc.Advance(11 * time.Minute)
	if l.IsAccountLocked("user@example.com") {
		t.Fatal("lock should expire")
	}

	// Second lockout escalates.
	for i := 0; i < 3; i++ {
		l.RecordFailedAttempt("user@example.com")
	}
	if got := l.GetLockoutRemaining("user@example.com"); got != 20*time.Minute {
		t.Errorf("second lockout = %v, want 20m", got)
	}
}

func TestRecordSuccessfulLogin_Resets(t *testing.T) {
	l := NewAuthLimiter(Config{MaxFailedAttempts: 2, Clock: clockwork.NewFakeClock()})

	l.RecordFailedAttempt("a@b.co")
	l.RecordSuccessfulLogin("a@b.co")
	l.RecordFailedAttempt("a@b.co")

	if l.IsAccountLocked("a@b.co") {
		t.Error("success should reset the failure count")
	}
}

func TestCleanup(t *testing.T) {
	fc := clockwork.NewFakeClock()
	l := NewAuthLimiter(Config{MaxFailedAttempts: 2, LockoutDuration: time.Minute, Clock: fc})

	l.AllowIP("1.1.1.1")
	l.RecordFailedAttempt("once@b.co")
	l.RecordFailedAttempt("locked@b.co")
	l.RecordFailedAttempt("locked@b.co")

	fc.Advance(2 * time.Minute)
	if got := l.Cleanup(); got != 2 {
		t.Errorf("Cleanup() = %d, want 2 (ip window and single failure)", got)
	}

	fc.Advance(MaxLockoutDuration)
	if got := l.Cleanup(); got != 1 {
		t.Errorf("Cleanup() = %d, want 1 (stale lockout)", got)
	}
}

func TestMiddleware(t *testing.T) {
	l := NewAuthLimiter(Config{IPLimit: 1, Clock: clockwork.NewFakeClock()})
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, l.Middleware())

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [204 429]", codes)
	}
}

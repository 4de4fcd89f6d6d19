// Package ratelimit throttles login attempts per client address and per account.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

const (
	DefaultIPRequestsPerMinute = 10
	DefaultIPWindowDuration    = time.Minute
	DefaultMaxFailedAttempts   = 5
	DefaultLockoutDuration     = 15 * time.Minute
	MaxLockoutDuration         = time.Hour
)

type ipBucket struct {
	count     int
	resetTime time.Time
}

type accountLockout struct {
	failedAttempts int
	lockedUntil    time.Time
	lockoutCount   int
}

// Config tunes an AuthLimiter. Zero values select the defaults.
type Config struct {
	IPLimit           int
	IPWindow          time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	Clock             clockwork.Clock
}

// AuthLimiter combines a fixed-window request limit per client IP with an
// escalating lockout per account after repeated failed logins.
type AuthLimiter struct {
	mu              sync.Mutex
	ipBuckets       map[string]*ipBucket
	accountLockouts map[string]*accountLockout

	ipLimit             int
	ipWindow            time.Duration
	maxFailedAttempts   int
	baseLockoutDuration time.Duration
	clock               clockwork.Clock
}

// NewAuthLimiter creates a limiter.
func NewAuthLimiter(cfg Config) *AuthLimiter {
	if cfg.IPLimit <= 0 {
		cfg.IPLimit = DefaultIPRequestsPerMinute
	}
	if cfg.IPWindow <= 0 {
		cfg.IPWindow = DefaultIPWindowDuration
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = DefaultMaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = DefaultLockoutDuration
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &AuthLimiter{
		ipBuckets:           make(map[string]*ipBucket),
		accountLockouts:     make(map[string]*accountLockout),
		ipLimit:             cfg.IPLimit,
		ipWindow:            cfg.IPWindow,
		maxFailedAttempts:   cfg.MaxFailedAttempts,
		baseLockoutDuration: cfg.LockoutDuration,
		clock:               cfg.Clock,
	}
}

// Middleware rejects clients that exceed the per-IP request limit.
func (l *AuthLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.AllowIP(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

// AllowIP counts a request from ip and reports whether it is within the limit.
func (l *AuthLimiter) AllowIP(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	bucket, exists := l.ipBuckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.ipBuckets[ip] = &ipBucket{count: 1, resetTime: now.Add(l.ipWindow)}
		return true
	}

	if bucket.count >= l.ipLimit {
		return false
	}

	bucket.count++
	return true
}

func accountKey(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// IsAccountLocked reports whether logins for account are currently refused.
func (l *AuthLimiter) IsAccountLocked(account string) bool {
	return l.GetLockoutRemaining(account) > 0
}

// GetLockoutRemaining returns how long account stays locked.
func (l *AuthLimiter) GetLockoutRemaining(account string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	lockout, exists := l.accountLockouts[accountKey(account)]
	if !exists {
		return 0
	}

	remaining := lockout.lockedUntil.Sub(l.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordFailedAttempt counts a failed login. Reaching the attempt limit
// locks the account; each further lockout lasts longer, up to MaxLockoutDuration.
func (l *AuthLimiter) RecordFailedAttempt(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := accountKey(account)
	now := l.clock.Now()

	lockout, exists := l.accountLockouts[key]
	if !exists {
		lockout = &accountLockout{}
		l.accountLockouts[key] = lockout
	}

	if now.After(lockout.lockedUntil) && lockout.failedAttempts >= l.maxFailedAttempts {
		lockout.failedAttempts = 0
	}

	lockout.failedAttempts++

	if lockout.failedAttempts >= l.maxFailedAttempts {
		lockout.lockoutCount++
		duration := l.baseLockoutDuration * time.Duration(lockout.lockoutCount)
		if duration > MaxLockoutDuration {
			duration = MaxLockoutDuration
		}
		lockout.lockedUntil = now.Add(duration)
	}
}

// RecordSuccessfulLogin forgets the account's failure history.
func (l *AuthLimiter) RecordSuccessfulLogin(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accountLockouts, accountKey(account))
}

// Cleanup drops expired IP windows and stale account records. It returns
// the number of entries removed.
func (l *AuthLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	removed := 0

	for ip, bucket := range l.ipBuckets {
		if now.After(bucket.resetTime) {
			delete(l.ipBuckets, ip)
			removed++
		}
	}

	for key, lockout := range l.accountLockouts {
		unlocked := now.After(lockout.lockedUntil)
		stale := now.After(lockout.lockedUntil.Add(MaxLockoutDuration))
		if unlocked && (lockout.failedAttempts < l.maxFailedAttempts || stale) {
			delete(l.accountLockouts, key)
			removed++
		}
	}

	return removed
}

// Package tasks registers the server's maintenance jobs with the scheduler.
package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/scheduler"
)

const (
	SessionSweepTaskID   = "session-sweep"
	LimiterCleanupTaskID = "auth-limiter-cleanup"
	TokenPurgeTaskID     = "revoked-token-purge"
	HealthCheckTaskID    = "health-check"
)

// SessionSweeper drops idle sessions.
type SessionSweeper interface {
	Sweep() int
}

// LimiterCleaner forgets expired login limiter state.
type LimiterCleaner interface {
	Cleanup() int
}

// TokenPurger deletes revocation records for tokens that have expired anyway.
type TokenPurger interface {
	PurgeRevoked(ctx context.Context) (int64, error)
}

// HealthChecker re-runs the dependency checks.
type HealthChecker interface {
	CheckAll(ctx context.Context) error
}

// RegisterSessionSweepTask drops sessions idle past their timeout every five minutes.
func RegisterSessionSweepTask(sched *scheduler.Scheduler, sessions SessionSweeper) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          SessionSweepTaskID,
		Name:        "Session Sweep",
		Description: "Drops movie list sessions that have been idle longer than the idle timeout",
		Cron:        "*/5 * * * *",
		Func: func(context.Context) error {
			sessions.Sweep()
			return nil
		},
	})
}

// RegisterLimiterCleanupTask prunes login rate limiter entries every ten minutes.
func RegisterLimiterCleanupTask(sched *scheduler.Scheduler, limiter LimiterCleaner, logger zerolog.Logger) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          LimiterCleanupTaskID,
		Name:        "Auth Limiter Cleanup",
		Description: "Forgets expired login attempt windows and lockouts",
		Cron:        "*/10 * * * *",
		Func: func(context.Context) error {
			if n := limiter.Cleanup(); n > 0 {
				logger.Debug().Int("removed", n).Msg("Pruned auth limiter entries")
			}
			return nil
		},
	})
}

// RegisterTokenPurgeTask deletes stale token revocations daily at 3 AM and once on startup.
func RegisterTokenPurgeTask(sched *scheduler.Scheduler, purger TokenPurger, logger zerolog.Logger) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          TokenPurgeTaskID,
		Name:        "Revoked Token Purge",
		Description: "Deletes revocation records of tokens past their expiry",
		Cron:        "0 3 * * *",
		RunOnStart:  true,
		Func: func(ctx context.Context) error {
			n, err := purger.PurgeRevoked(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info().Int64("removed", n).Msg("Purged revoked tokens")
			}
			return nil
		},
	})
}

// RegisterHealthCheckTask re-checks the catalog, database and media directory
// every fifteen minutes and once on startup.
func RegisterHealthCheckTask(sched *scheduler.Scheduler, checker HealthChecker) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          HealthCheckTaskID,
		Name:        "Health Check",
		Description: "Checks catalog connectivity, the database and the media directory",
		Cron:        "*/15 * * * *",
		RunOnStart:  true,
		Func:        checker.CheckAll,
	})
}

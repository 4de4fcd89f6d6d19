package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcorn/popcorn/internal/scheduler"
)

type counter struct{ n atomic.Int32 }

func (c *counter) Sweep() int   { c.n.Add(1); return 2 }
func (c *counter) Cleanup() int { c.n.Add(1); return 1 }
func (c *counter) CheckAll(context.Context) error {
	c.n.Add(1)
	return nil
}
func (c *counter) PurgeRevoked(context.Context) (int64, error) {
	c.n.Add(1)
	return 3, nil
}

func TestRegisterMaintenanceTasks(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	sessions, limiter, tokens, checks := &counter{}, &counter{}, &counter{}, &counter{}
	require.NoError(t, RegisterSessionSweepTask(sched, sessions))
	require.NoError(t, RegisterLimiterCleanupTask(sched, limiter, zerolog.Nop()))
	require.NoError(t, RegisterTokenPurgeTask(sched, tokens, zerolog.Nop()))
	require.NoError(t, RegisterHealthCheckTask(sched, checks))

	ids := make([]string, 0, 4)
	for _, task := range sched.ListTasks() {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{LimiterCleanupTaskID, HealthCheckTaskID, TokenPurgeTaskID, SessionSweepTaskID}, ids)

	require.NoError(t, sched.Start())
	require.NoError(t, sched.RunNow(SessionSweepTaskID))
	require.NoError(t, sched.RunNow(LimiterCleanupTaskID))

	require.Eventually(t, func() bool {
		return sessions.n.Load() == 1 && limiter.n.Load() == 1 && tokens.n.Load() >= 1 && checks.n.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingPurger struct {
	calls  atomic.Int32
	err    error
	before time.Time
}

func (p *countingPurger) PurgeNotificationsBefore(_ context.Context, before time.Time) (int, error) {
	p.calls.Add(1)
	p.before = before
	return 0, p.err
}

func TestRunOnce_DeletesOldNotifications(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	u, err := st.CreateUser(ctx, model.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = st.CreateNotification(ctx, model.Notification{UserID: u.ID, Type: "t", CreatedAt: now.Add(-31 * 24 * time.Hour)})
	require.NoError(t, err)
	_, err = st.CreateNotification(ctx, model.Notification{UserID: u.ID, Type: "t", CreatedAt: now.Add(-29 * 24 * time.Hour)})
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	r := New(zap.New(core), st, time.Hour, 30*24*time.Hour)
	r.now = func() time.Time { return now }

	n, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, logs.FilterMessage("Deleted 1 notifications older than 30 days.").Len())

	n, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, logs.FilterMessage("No notifications older than 30 days to delete.").Len())

	left, err := st.ListNotifications(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestRunOnce_ErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := &countingPurger{err: errors.New("db down")}
	r := New(zap.New(core), p, time.Hour, 24*time.Hour)

	_, err := r.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Error occurred while deleting old notifications").Len())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	p := &countingPurger{}
	r := New(zap.NewNop(), p, 10*time.Millisecond, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

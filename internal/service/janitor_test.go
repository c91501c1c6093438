package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestJanitor_Sweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.h.CreateUser("alice", 40.44, -79.99)
	kept := env.h.CreateTask(owner, "kept")
	gone := env.h.CreateTask(owner, "gone")
	env.h.CreateMessage(kept.ID, owner.ID, "hello")
	env.h.CreateMessage(gone.ID, owner.ID, "bye")
	_, err := env.messages.Post(ctx, owner.ID, gone.ID, "anyone?")
	require.NoError(t, err)

	// a delete whose purge never ran
	ok, err := env.store.Tasks.DeleteOpen(ctx, gone.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, ok)

	j := NewJanitor(env.store, time.Hour, zap.NewNop())
	messages, notifications, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), messages)
	assert.Equal(t, int64(1), notifications)
	assert.Equal(t, 1, env.h.Count("messages", ""))

	messages, notifications, err = j.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, messages)
	assert.Zero(t, notifications)
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	owner := env.h.CreateUser("alice", 40.44, -79.99)
	task := env.h.CreateTask(owner, "gone")
	env.h.CreateMessage(task.ID, owner.ID, "bye")
	_, err := env.store.Tasks.DeleteOpen(context.Background(), task.ID, owner.ID)
	require.NoError(t, err)

	// the database pool outlives this check
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	j := NewJanitor(env.store, 10*time.Millisecond, zap.NewNop())
	go func() {
		j.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return env.h.Count("messages", "") == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
)

func newGuard(f *fakeServer, answer bool) (*Guard, *prompter, *navigator) {
	p := &prompter{answer: answer}
	n := &navigator{}
	return NewGuard(f.client(), p, n, nil), p, n
}

func TestGuardComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses unless in progress", func(t *testing.T) {
		for _, status := range []lifecycle.Status{lifecycle.StatusOpen, lifecycle.StatusAwaitVerification, lifecycle.StatusComplete} {
			f := newFakeServer(t)
			f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "b", Status: status.String()})
			g, p, _ := newGuard(f, true)

			_, err := g.Complete(ctx, "k")
			require.ErrorIs(t, err, ErrPrecondition)
			assert.True(t, IsRefused(err))
			assert.Equal(t, []string{MsgAlreadyComplete}, p.alerts)
			assert.Zero(t, f.count(http.MethodPost, "/tasks/info"), status)
		}
	})

	t.Run("marks complete with read version", func(t *testing.T) {
		f := newFakeServer(t)
		f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "b", Status: lifecycle.StatusInProgress.String(), Version: 4})
		g, p, _ := newGuard(f, true)

		task, err := g.Complete(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusAwaitVerification.String(), task.Status)
		assert.Equal(t, []string{ConfirmComplete}, p.confirms)

		c, ok := f.last(http.MethodPost, "/tasks/info")
		require.True(t, ok)
		assert.Equal(t, "4", c.Query.Get("version"))
		assert.Zero(t, f.count(http.MethodDelete, "/messages"))
	})

	t.Run("declined confirmation sends nothing", func(t *testing.T) {
		f := newFakeServer(t)
		f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "b", Status: lifecycle.StatusInProgress.String()})
		g, _, _ := newGuard(f, false)

		_, err := g.Complete(ctx, "k")
		require.ErrorIs(t, err, ErrCancelled)
		assert.Zero(t, f.count(http.MethodPost, "/tasks/info"))
	})

	t.Run("self help reopens and removes the task", func(t *testing.T) {
		f := newFakeServer(t)
		f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "a", Status: lifecycle.StatusInProgress.String()})
		g, p, _ := newGuard(f, true)

		_, err := g.Complete(ctx, "k")
		require.ErrorIs(t, err, ErrPrecondition)
		assert.Equal(t, []string{MsgSelfHelp}, p.alerts)
		assert.Empty(t, p.confirms)

		c, ok := f.last(http.MethodPost, "/tasks/info")
		require.True(t, ok)
		assert.Equal(t, lifecycle.StatusOpen.String(), c.Query.Get("status"))
		assert.Equal(t, 1, f.count(http.MethodDelete, "/tasks"))
		_, exists := f.task("k")
		assert.False(t, exists)
	})

	t.Run("stale version", func(t *testing.T) {
		f := newFakeServer(t)
		f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "b", Status: lifecycle.StatusInProgress.String()})
		f.configure(func(f *fakeServer) { f.transitionStatus = http.StatusConflict })
		g, p, _ := newGuard(f, true)

		_, err := g.Complete(ctx, "k")
		require.ErrorIs(t, err, ErrStale)
		assert.True(t, IsStatus(err, http.StatusConflict))
		assert.Equal(t, []string{MsgStale}, p.alerts)
		assert.Equal(t, 1, f.count(http.MethodPost, "/tasks/info"))
	})
}

func TestGuardDelete(t *testing.T) {
	ctx := context.Background()

	f := newFakeServer(t)
	f.addTask(api.Task{KeyString: "open", Owner: "a", Status: lifecycle.StatusOpen.String()})
	f.addTask(api.Task{KeyString: "busy", Owner: "a", Helper: "b", Status: lifecycle.StatusInProgress.String()})
	f.addMessages("open", 3)
	g, p, _ := newGuard(f, true)

	err := g.Delete(ctx, "busy")
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, []string{MsgDeleteNotOpen}, p.alerts)
	assert.Zero(t, f.count(http.MethodDelete, "/tasks"))

	require.NoError(t, g.Delete(ctx, "open"))
	assert.Equal(t, []string{ConfirmDelete}, p.confirms)
	_, exists := f.task("open")
	assert.False(t, exists)
	assert.Equal(t, 1, f.count(http.MethodDelete, "/messages"))

	err = g.Delete(ctx, "open")
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestGuardEdit(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	f.addTask(api.Task{KeyString: "k", Owner: "a", Status: lifecycle.StatusOpen.String(),
		Category: "pets", Overview: "walk", Detail: "walk the dog", Reward: 30, Version: 2})
	f.addTask(api.Task{KeyString: "done", Owner: "a", Status: lifecycle.StatusComplete.String()})
	g, p, _ := newGuard(f, true)

	_, err := g.Edit(ctx, "done")
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, []string{MsgEditNotOpen}, p.alerts)

	form, err := g.Edit(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, api.TaskForm{Category: "pets", Overview: "walk", Detail: "walk the dog", Reward: 30, Version: 2}, form.TaskForm)

	form.Reward = 45
	task, err := g.SubmitEdit(ctx, form)
	require.NoError(t, err)
	assert.EqualValues(t, 45, task.Reward)
}

func TestGuardAbandonVerifyDisapprove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		status     lifecycle.Status
		act        func(g *Guard) (*api.Task, error)
		wantStatus lifecycle.Status
		wantPurge  bool
		wantAlert  string
	}{
		{
			name:       "abandon",
			status:     lifecycle.StatusInProgress,
			act:        func(g *Guard) (*api.Task, error) { return g.Abandon(ctx, "k") },
			wantStatus: lifecycle.StatusOpen,
			wantPurge:  true,
		},
		{
			name:      "abandon after completion",
			status:    lifecycle.StatusAwaitVerification,
			act:       func(g *Guard) (*api.Task, error) { return g.Abandon(ctx, "k") },
			wantAlert: MsgAlreadyComplete,
		},
		{
			name:       "verify",
			status:     lifecycle.StatusAwaitVerification,
			act:        func(g *Guard) (*api.Task, error) { return g.Verify(ctx, "k") },
			wantStatus: lifecycle.StatusComplete,
			wantPurge:  true,
		},
		{
			name:      "verify twice",
			status:    lifecycle.StatusComplete,
			act:       func(g *Guard) (*api.Task, error) { return g.Verify(ctx, "k") },
			wantAlert: MsgAlreadyVerified,
		},
		{
			name:       "disapprove",
			status:     lifecycle.StatusAwaitVerification,
			act:        func(g *Guard) (*api.Task, error) { return g.Disapprove(ctx, "k") },
			wantStatus: lifecycle.StatusInProgress,
		},
		{
			name:      "disapprove verified",
			status:    lifecycle.StatusComplete,
			act:       func(g *Guard) (*api.Task, error) { return g.Disapprove(ctx, "k") },
			wantAlert: MsgAlreadyVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeServer(t)
			f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "b", Status: tt.status.String()})
			g, p, _ := newGuard(f, true)

			task, err := tt.act(g)
			if tt.wantAlert != "" {
				require.ErrorIs(t, err, ErrPrecondition)
				assert.Equal(t, []string{tt.wantAlert}, p.alerts)
				assert.Zero(t, f.count(http.MethodPost, "/tasks/info"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus.String(), task.Status)
			purges := f.count(http.MethodDelete, "/messages")
			if tt.wantPurge {
				assert.Equal(t, 1, purges)
			} else {
				assert.Zero(t, purges)
			}
		})
	}
}

func TestGuardClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("wins", func(t *testing.T) {
		f := newFakeServer(t)
		f.addTask(api.Task{KeyString: "k", Owner: "a", Status: lifecycle.StatusOpen.String()})
		g, _, n := newGuard(f, true)

		task, err := g.Claim(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusInProgress.String(), task.Status)
		assert.Empty(t, n.redirects)
	})

	t.Run("loses the race", func(t *testing.T) {
		f := newFakeServer(t)
		f.addTask(api.Task{KeyString: "k", Owner: "a", Status: lifecycle.StatusOpen.String()})
		f.configure(func(f *fakeServer) { f.claimStatus = http.StatusConflict })
		g, p, n := newGuard(f, true)

		_, err := g.Claim(ctx, "k")
		require.ErrorIs(t, err, ErrAlreadyClaimed)
		assert.Equal(t, []string{MsgAlreadyClaimed}, p.alerts)
		assert.Equal(t, []string{"/"}, n.redirects)
		assert.Equal(t, 1, f.count(http.MethodPost, "/tasks/edit"))
	})

	t.Run("not open", func(t *testing.T) {
		f := newFakeServer(t)
		f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "b", Status: lifecycle.StatusInProgress.String()})
		g, p, _ := newGuard(f, true)

		_, err := g.Claim(ctx, "k")
		require.ErrorIs(t, err, ErrPrecondition)
		assert.Equal(t, []string{MsgClaimNotOpen}, p.alerts)
		assert.Zero(t, f.count(http.MethodPost, "/tasks/edit"))
	})
}

func TestGuardServerRejection(t *testing.T) {
	ctx := context.Background()

	for name, act := range map[string]func(g *Guard) (*api.Task, error){
		"verify":     func(g *Guard) (*api.Task, error) { return g.Verify(ctx, "k") },
		"disapprove": func(g *Guard) (*api.Task, error) { return g.Disapprove(ctx, "k") },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFakeServer(t)
			f.addTask(api.Task{KeyString: "k", Owner: "a", Helper: "b", Status: lifecycle.StatusInProgress.String()})
			f.configure(func(f *fakeServer) { f.transitionStatus = http.StatusUnprocessableEntity })
			g, p, _ := newGuard(f, true)

			_, err := act(g)
			require.ErrorIs(t, err, ErrRejected)
			assert.NotErrorIs(t, err, ErrStale)
			assert.True(t, IsRefused(err))
			assert.Equal(t, []string{MsgNotFinished}, p.alerts)
			assert.Zero(t, f.count(http.MethodDelete, "/messages"))
		})
	}
}

// internal/service/task_service_test.go
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/testutil"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/email"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

func TestTaskService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.h.CreateUser("alice", 40.44, -79.99)

	tests := []struct {
		name    string
		userID  string
		form    api.TaskForm
		wantErr error
	}{
		{
			name:   "valid",
			userID: owner.ID,
			form:   api.TaskForm{Category: "Garden", Overview: " Rake leaves ", Detail: "Front yard", Reward: 30},
		},
		{
			name:    "missing overview",
			userID:  owner.ID,
			form:    api.TaskForm{Category: "garden", Detail: "Front yard"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown category",
			userID:  owner.ID,
			form:    api.TaskForm{Category: "cooking", Overview: "Cook", Detail: "Dinner"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "reward too high",
			userID:  owner.ID,
			form:    api.TaskForm{Category: "misc", Overview: "Move", Detail: "Couch", Reward: 201},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "profile without location",
			userID:  env.createBareUser(t).ID,
			form:    api.TaskForm{Category: "misc", Overview: "Move", Detail: "Couch"},
			wantErr: ErrProfileIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := env.tasks.Create(ctx, tt.userID, tt.form)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(lifecycle.StatusOpen), task.Status)
			assert.Equal(t, models.CategoryGarden, task.Category)
			assert.Equal(t, "Rake leaves", task.Overview)
			assert.Equal(t, "alice", task.OwnerNickname)
			assert.Equal(t, api.NoHelper, task.HelperNickname)
			assert.Equal(t, owner.Zipcode, task.Zipcode)
			assert.Equal(t, 40.44, task.Lat)
			assert.True(t, task.IsOwnerCurrentUser)
			assert.Equal(t, int64(1), task.Version)
		})
	}
}

func TestTaskService_Feed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.h.CreateUser("alice", 40.44, -79.99)
	bob := env.h.CreateUser("bob", 40.45, -79.98)

	for i := 0; i < 22; i++ {
		env.h.CreateTask(alice, fmt.Sprintf("task %d", i))
	}
	pets := env.h.CreateTask(bob, "Walk the dog", testutil.WithCategory(models.CategoryPets))
	env.h.CreateTask(alice, "Claimed", testutil.WithStatus(lifecycle.StatusInProgress, bob.ID))
	env.h.CreateTask(alice, "Far away", testutil.WithLocation(41.5, -79.99))

	near := FeedQuery{Lat: ptr(40.44), Lng: ptr(-79.99)}

	t.Run("pages", func(t *testing.T) {
		page, err := env.tasks.Feed(ctx, bob.ID, near)
		require.NoError(t, err)
		assert.Equal(t, 23, page.TaskCount)
		assert.Equal(t, 3, page.PageCount)
		require.Len(t, page.TaskPages, 3)
		assert.Equal(t, 10, strings.Count(page.TaskPages[0], "class='task'"))
		assert.Equal(t, 3, strings.Count(page.TaskPages[2], "class='task'"))

		// newest first; bob's own card has the help control disabled
		assert.True(t, strings.HasPrefix(page.TaskPages[0], "<div class='task' data-key='"+pets.ID+"'>"))
		assert.Contains(t, page.TaskPages[0], "This is your own task")
		assert.NotContains(t, page.TaskPages[0], "Claimed")
	})

	t.Run("idempotent", func(t *testing.T) {
		a, err := env.tasks.Feed(ctx, bob.ID, near)
		require.NoError(t, err)
		b, err := env.tasks.Feed(ctx, bob.ID, near)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("anonymous", func(t *testing.T) {
		page, err := env.tasks.Feed(ctx, "", near)
		require.NoError(t, err)
		assert.NotContains(t, page.TaskPages[0], "HELP OUT")
	})

	t.Run("category", func(t *testing.T) {
		q := near
		q.Category = "PETS"
		page, err := env.tasks.Feed(ctx, bob.ID, q)
		require.NoError(t, err)
		assert.Equal(t, 1, page.TaskCount)
		assert.Contains(t, page.TaskPages[0], "#pets")
	})

	t.Run("wide radius", func(t *testing.T) {
		q := near
		q.Miles = 100
		page, err := env.tasks.Feed(ctx, bob.ID, q)
		require.NoError(t, err)
		assert.Equal(t, 24, page.TaskCount)
	})

	t.Run("neighborhood", func(t *testing.T) {
		page, err := env.tasks.Feed(ctx, "", FeedQuery{Zipcode: "15213", Country: "us", Category: "all"})
		require.NoError(t, err)
		assert.Equal(t, 24, page.TaskCount)
	})

	t.Run("empty", func(t *testing.T) {
		page, err := env.tasks.Feed(ctx, "", FeedQuery{Lat: ptr(0.0), Lng: ptr(0.0)})
		require.NoError(t, err)
		assert.True(t, page.Empty())
		assert.Equal(t, 0, page.PageCount)
		assert.Empty(t, page.TaskPages)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := env.tasks.Feed(ctx, "", FeedQuery{})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = env.tasks.Feed(ctx, "", FeedQuery{Lat: ptr(40.0), Lng: ptr(-80.0), Category: "cooking"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = env.tasks.Feed(ctx, "", FeedQuery{Lat: ptr(40.0), Lng: ptr(-80.0), Miles: 500})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = env.tasks.Feed(ctx, "", FeedQuery{Lat: ptr(95.0), Lng: ptr(-80.0)})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = env.tasks.Feed(ctx, "", FeedQuery{Lat: ptr(math.NaN()), Lng: ptr(-80.0)})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = env.tasks.Feed(ctx, "", FeedQuery{Lat: ptr(40.0), Lng: ptr(-80.0), Miles: math.NaN()})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestTaskService_Claim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.h.CreateUser("alice", 40.44, -79.99)
	helper := env.h.CreateUser("bob", 40.44, -79.99)
	late := env.h.CreateUser("carol", 40.44, -79.99)
	task := env.h.CreateTask(owner, "Buy milk")

	// a message posted before the claim waits for the helper
	_, err := env.messages.Post(ctx, owner.ID, task.ID, "Thanks in advance")
	require.NoError(t, err)

	_, err = env.tasks.Claim(ctx, owner.ID, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := env.tasks.Claim(ctx, helper.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusInProgress), got.Status)
	assert.Equal(t, helper.ID, got.Helper)
	assert.Equal(t, "bob", got.HelperNickname)
	assert.False(t, got.IsOwnerCurrentUser)

	last := env.notifier.Last()
	require.NotNil(t, last)
	assert.Equal(t, email.KindTaskClaimed, last.Kind)
	assert.Equal(t, owner.Email, last.To)

	notes, err := env.notifications.List(ctx, helper.ID)
	require.NoError(t, err)
	assert.Equal(t, []api.Notification{{TaskID: task.ID, Overview: "Buy milk", Count: 1}}, notes)

	_, err = env.tasks.Claim(ctx, late.ID, task.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "already been claimed")

	stored, err := env.store.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, helper.ID, stored.Helper())

	_, err = env.tasks.Claim(ctx, late.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("complete then verify awards points", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.h.CreateUser("alice", 40.44, -79.99)
		helper := env.h.CreateUser("bob", 40.44, -79.99)
		task := env.h.CreateTask(owner, "Buy milk",
			testutil.WithStatus(lifecycle.StatusInProgress, helper.ID), testutil.WithReward(40))
		env.h.CreateMessage(task.ID, owner.ID, "see you")

		_, err := env.tasks.Transition(ctx, owner.ID, task.ID, lifecycle.StatusAwaitVerification, 0)
		assert.ErrorIs(t, err, ErrForbidden)

		got, err := env.tasks.Transition(ctx, helper.ID, task.ID, lifecycle.StatusAwaitVerification, task.Version)
		require.NoError(t, err)
		assert.Equal(t, string(lifecycle.StatusAwaitVerification), got.Status)
		assert.Equal(t, email.KindAwaitingVerification, env.notifier.Last().Kind)

		// the first read is stale now
		_, err = env.tasks.Transition(ctx, owner.ID, task.ID, lifecycle.StatusComplete, task.Version)
		assert.ErrorIs(t, err, ErrConflict)

		got, err = env.tasks.Transition(ctx, owner.ID, task.ID, lifecycle.StatusComplete, got.Version)
		require.NoError(t, err)
		assert.Equal(t, string(lifecycle.StatusComplete), got.Status)
		assert.Equal(t, helper.ID, got.Helper)

		last := env.notifier.Last()
		assert.Equal(t, email.KindTaskVerified, last.Kind)
		assert.Equal(t, helper.Email, last.To)

		u, err := env.store.Users.GetByID(ctx, helper.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(40), u.Points)
		assert.Equal(t, 0, env.h.Count("messages", "task_id = ?", task.ID))

		_, err = env.tasks.Transition(ctx, owner.ID, task.ID, lifecycle.StatusInProgress, 0)
		assert.ErrorIs(t, err, ErrIllegalTransition)
		assert.NotErrorIs(t, err, ErrConflict)
	})

	t.Run("disapprove", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.h.CreateUser("alice", 40.44, -79.99)
		helper := env.h.CreateUser("bob", 40.44, -79.99)
		task := env.h.CreateTask(owner, "Buy milk", testutil.WithStatus(lifecycle.StatusAwaitVerification, helper.ID))

		_, err := env.tasks.Transition(ctx, helper.ID, task.ID, lifecycle.StatusInProgress, 0)
		assert.ErrorIs(t, err, ErrForbidden)

		got, err := env.tasks.Transition(ctx, owner.ID, task.ID, lifecycle.StatusInProgress, 0)
		require.NoError(t, err)
		assert.Equal(t, string(lifecycle.StatusInProgress), got.Status)
		assert.Equal(t, helper.ID, got.Helper)
		assert.Empty(t, env.notifier.Sent())
	})

	t.Run("abandon clears helper and thread", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.h.CreateUser("alice", 40.44, -79.99)
		helper := env.h.CreateUser("bob", 40.44, -79.99)
		task := env.h.CreateTask(owner, "Buy milk", testutil.WithStatus(lifecycle.StatusInProgress, helper.ID))
		env.h.CreateMessage(task.ID, helper.ID, "on my way")

		got, err := env.tasks.Transition(ctx, helper.ID, task.ID, lifecycle.StatusOpen, 0)
		require.NoError(t, err)
		assert.Equal(t, string(lifecycle.StatusOpen), got.Status)
		assert.Empty(t, got.Helper)
		assert.Equal(t, api.NoHelper, got.HelperNickname)
		assert.Equal(t, 0, env.h.Count("messages", ""))
	})

	t.Run("illegal", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.h.CreateUser("alice", 40.44, -79.99)
		helper := env.h.CreateUser("bob", 40.44, -79.99)
		task := env.h.CreateTask(owner, "Buy milk")

		_, err := env.tasks.Transition(ctx, owner.ID, task.ID, lifecycle.StatusComplete, 0)
		assert.ErrorIs(t, err, ErrIllegalTransition)

		_, err = env.tasks.Transition(ctx, helper.ID, task.ID, lifecycle.StatusInProgress, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)

		claimed := env.h.CreateTask(owner, "Walk dog", testutil.WithStatus(lifecycle.StatusInProgress, helper.ID))
		for _, to := range []lifecycle.Status{lifecycle.StatusComplete, lifecycle.StatusInProgress} {
			_, err = env.tasks.Transition(ctx, owner.ID, claimed.ID, to, claimed.Version)
			assert.ErrorIs(t, err, ErrIllegalTransition, to)
			assert.NotErrorIs(t, err, ErrConflict, to)
		}
	})
}

func TestTaskService_EditAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.h.CreateUser("alice", 40.44, -79.99)
	other := env.h.CreateUser("bob", 40.44, -79.99)
	task := env.h.CreateTask(owner, "Buy milk")
	claimed := env.h.CreateTask(owner, "Claimed", testutil.WithStatus(lifecycle.StatusInProgress, other.ID))

	form := api.TaskForm{Category: "shopping", Overview: "Buy oat milk", Detail: "Two cartons", Reward: 10, Version: 1}

	_, err := env.tasks.Edit(ctx, other.ID, task.ID, form)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.tasks.Edit(ctx, owner.ID, claimed.ID, form)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := env.tasks.Edit(ctx, owner.ID, task.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", got.Overview)
	assert.Equal(t, int64(2), got.Version)

	// replaying the same form carries a stale version
	_, err = env.tasks.Edit(ctx, owner.ID, task.ID, form)
	assert.ErrorIs(t, err, ErrConflict)

	env.h.CreateMessage(task.ID, owner.ID, "hello")

	assert.ErrorIs(t, env.tasks.Delete(ctx, other.ID, task.ID), ErrForbidden)
	assert.ErrorIs(t, env.tasks.Delete(ctx, owner.ID, claimed.ID), ErrConflict)
	require.NoError(t, env.tasks.Delete(ctx, owner.ID, task.ID))

	_, err = env.tasks.Get(ctx, owner.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, env.h.Count("messages", "task_id = ?", task.ID))
}

func TestTaskService_MyTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.h.CreateUser("alice", 40.44, -79.99)
	helper := env.h.CreateUser("bob", 40.44, -79.99)

	for i := 0; i < 6; i++ {
		env.h.CreateTask(owner, fmt.Sprintf("open %d", i))
	}
	env.h.CreateTask(owner, "waiting", testutil.WithStatus(lifecycle.StatusAwaitVerification, helper.ID))
	env.h.CreateTask(owner, "done", testutil.WithStatus(lifecycle.StatusComplete, helper.ID))

	first, err := env.tasks.MyTasks(ctx, owner.ID, "Owner", false, "")
	require.NoError(t, err)
	require.Len(t, first.Tasks, 5)
	assert.NotEmpty(t, first.CursorString)
	assert.Equal(t, "open 5", first.Tasks[0].Overview)

	second, err := env.tasks.MyTasks(ctx, owner.ID, "Owner", false, first.CursorString)
	require.NoError(t, err)
	require.Len(t, second.Tasks, 1)
	assert.Empty(t, second.CursorString)
	assert.Equal(t, "open 0", second.Tasks[0].Overview)

	finished, err := env.tasks.MyTasks(ctx, helper.ID, "helper", true, "")
	require.NoError(t, err)
	require.Len(t, finished.Tasks, 2)
	assert.Equal(t, "done", finished.Tasks[0].Overview)
	assert.Equal(t, "bob", finished.Tasks[0].HelperNickname)

	_, err = env.tasks.MyTasks(ctx, owner.ID, "Stranger", false, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.tasks.MyTasks(ctx, owner.ID, "Owner", false, "not-a-cursor")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTaskService_Stats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.h.CreateUser("alice", 40.44, -79.99)
	helper := env.h.CreateUser("bob", 40.44, -79.99)
	env.h.CreateTask(owner, "a", testutil.WithCategory(models.CategoryPets))
	env.h.CreateTask(owner, "b", testutil.WithStatus(lifecycle.StatusComplete, helper.ID))

	stats, err := env.tasks.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"OPEN": 1, "COMPLETE": 1}, stats.ByStatus)
	assert.Equal(t, map[string]int{"pets": 1, "misc": 1}, stats.ByCategory)
	assert.Len(t, stats.Locations, 2)
}

func TestFeedPageCountMatchesPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.h.CreateUser("alice", 40.44, -79.99)

	for n := 0; n <= 21; n++ {
		page, err := env.tasks.Feed(ctx, "", FeedQuery{Zipcode: "15213", Country: "US"})
		require.NoError(t, err)
		assert.Equal(t, n, page.TaskCount)
		assert.Equal(t, paging.PageCount(n, 10), page.PageCount)
		assert.Len(t, page.TaskPages, page.PageCount)
		env.h.CreateTask(owner, fmt.Sprintf("task %d", n))
	}
}

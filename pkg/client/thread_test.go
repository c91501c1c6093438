package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

func ids(msgs []api.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestThreadLoaderPagesBackwards(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	f.addMessages("k", 25)
	l := NewThreadLoader(f.client(), "k", nil)

	require.NoError(t, l.LoadInitial(ctx))
	assert.Equal(t, []string{"m17", "m18", "m19", "m20", "m21", "m22", "m23", "m24", "m25"}, ids(l.Messages()))
	boundary, ok := l.Boundary()
	require.True(t, ok)
	assert.Equal(t, "m16", boundary.ID)
	assert.True(t, l.HasMore())
	assert.Empty(t, l.Anchor())

	require.NoError(t, l.LoadMore(ctx))
	msgs := l.Messages()
	require.Len(t, msgs, 19)
	assert.Equal(t, "m07", msgs[0].ID)
	assert.Equal(t, "m16", msgs[9].ID)
	assert.Equal(t, "m16", l.Anchor())
	boundary, ok = l.Boundary()
	require.True(t, ok)
	assert.Equal(t, "m06", boundary.ID)

	require.NoError(t, l.LoadMore(ctx))
	msgs = l.Messages()
	require.Len(t, msgs, 25)
	for i, m := range msgs {
		assert.EqualValues(t, i+1, m.SentTime, "thread must be chronological")
	}
	assert.Equal(t, "m06", l.Anchor())
	assert.False(t, l.HasMore())

	err := l.LoadMore(ctx)
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, 3, f.count(http.MethodGet, "/messages"))
}

func TestThreadLoaderShortThread(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	f.addMessages("k", 7)
	l := NewThreadLoader(f.client(), "k", nil)

	require.NoError(t, l.LoadInitial(ctx))
	assert.Len(t, l.Messages(), 7)
	assert.False(t, l.HasMore())
	_, ok := l.Boundary()
	assert.False(t, ok)
}

func TestThreadLoaderExactlyOnePage(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	f.addMessages("k", 10)
	l := NewThreadLoader(f.client(), "k", nil)

	require.NoError(t, l.LoadInitial(ctx))
	assert.Len(t, l.Messages(), 9)
	assert.True(t, l.HasMore())

	require.NoError(t, l.LoadMore(ctx))
	msgs := l.Messages()
	require.Len(t, msgs, 10)
	assert.Equal(t, "m01", msgs[0].ID)
	assert.False(t, l.HasMore())
}

func TestThreadLoaderPostIsOptimistic(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	f.addMessages("k", 2)
	l := NewThreadLoader(f.client(), "k", nil)
	l.now = func() time.Time { return time.UnixMilli(99) }
	require.NoError(t, l.LoadInitial(ctx))

	require.NoError(t, l.Post(ctx, "  on my way  "))
	msgs := l.Messages()
	require.Len(t, msgs, 3)
	last := msgs[2]
	assert.Equal(t, "on my way", last.Message)
	assert.Equal(t, api.ClassSentByMe, last.ClassName)
	assert.EqualValues(t, 99, last.SentTime)

	f.configure(func(f *fakeServer) { f.postStatus = http.StatusInternalServerError })
	err := l.Post(ctx, "still here")
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Len(t, l.Messages(), 4)

	require.ErrorIs(t, l.Post(ctx, "   "), ErrPrecondition)
	assert.Len(t, l.Messages(), 4)
	assert.Equal(t, 2, f.count(http.MethodPost, "/messages"))
}

func TestThreadLoaderPurge(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	f.addMessages("k", 12)
	l := NewThreadLoader(f.client(), "k", nil)
	require.NoError(t, l.LoadInitial(ctx))

	l.Purge(ctx)
	assert.Empty(t, l.Messages())
	assert.False(t, l.HasMore())
	assert.Equal(t, 1, f.count(http.MethodDelete, "/messages"))

	require.NoError(t, l.LoadInitial(ctx))
	assert.Empty(t, l.Messages())
}

func TestApp(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	app := NewApp(f.client(), &prompter{}, &navigator{}, nil)

	assert.Same(t, app.Thread("k"), app.Thread("k"))
	first := app.Thread("k")
	app.CloseThread("k")
	assert.NotSame(t, first, app.Thread("k"))

	require.ErrorIs(t, app.Browse(ctx, "", 5), ErrPrecondition)
	app.SetLocation(Location{Zipcode: "15213", Country: "US"})
	require.NoError(t, app.Browse(ctx, "pets", 5))
	c, ok := f.last(http.MethodGet, "/tasks")
	require.True(t, ok)
	assert.Equal(t, "pets", c.Query.Get("category"))
	assert.Equal(t, "15213", c.Query.Get("zipcode"))
	assert.True(t, app.Feed.Empty())
}

package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

func ptr(f float64) *float64 { return &f }

var pittsburgh = Location{Lat: ptr(40.44), Lng: ptr(-79.99)}

// pagesOf builds a feed of n tasks split into pages of 10.
func pagesOf(n int) api.FeedPage {
	cards := make([]string, n)
	for i := range cards {
		cards[i] = fmt.Sprintf("<div>task %d</div>", i)
	}
	var pages []string
	for _, p := range paging.Split(cards, 10) {
		html := ""
		for _, c := range p {
			html += c
		}
		pages = append(pages, html)
	}
	return paging.NewPageSet(n, pages)
}

func TestFeedPaginatorClampsCurrentPage(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	var size atomic.Int64
	f.configure(func(f *fakeServer) { f.feed = func(url.Values) api.FeedPage { return pagesOf(int(size.Load())) } })
	p := NewFeedPaginator(f.client())

	size.Store(25)
	require.NoError(t, p.Apply(ctx, FeedFilter{Location: pittsburgh}))
	assert.Equal(t, 3, p.Set().PageCount)
	assert.Equal(t, 1, p.Current())
	assert.False(t, p.HasPrev())
	assert.False(t, p.Prev())

	assert.True(t, p.Next())
	assert.True(t, p.Next())
	assert.False(t, p.Next())
	assert.False(t, p.HasNext())
	assert.Equal(t, 3, p.Current())

	size.Store(15)
	require.NoError(t, p.SetRadius(ctx, 2))
	assert.Equal(t, 2, p.Current())
	assert.Equal(t, 2.0, p.Filter().Miles)

	size.Store(0)
	require.NoError(t, p.SetCategory(ctx, "pets"))
	assert.True(t, p.Empty())
	assert.Equal(t, 1, p.Current())
	assert.Equal(t, "", p.Page())
	assert.False(t, p.HasNext())
}

func TestFeedPaginatorPageCount(t *testing.T) {
	ctx := context.Background()
	for _, n := range []int{0, 1, 9, 10, 11, 99, 100} {
		f := newFakeServer(t)
		f.configure(func(f *fakeServer) { f.feed = func(url.Values) api.FeedPage { return pagesOf(n) } })
		p := NewFeedPaginator(f.client())

		require.NoError(t, p.Apply(ctx, FeedFilter{Location: pittsburgh}))
		set := p.Set()
		assert.Equal(t, (n+9)/10, set.PageCount, n)
		assert.Equal(t, n, set.TaskCount)
		assert.GreaterOrEqual(t, p.Current(), 1)
		assert.LessOrEqual(t, p.Current(), max(1, set.PageCount))
	}
}

func TestFeedPaginatorSendsFilter(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	p := NewFeedPaginator(f.client())

	require.NoError(t, p.Apply(ctx, FeedFilter{Category: "garden", Miles: 3, Location: pittsburgh}))
	c, ok := f.last("GET", "/tasks")
	require.True(t, ok)
	assert.Equal(t, "garden", c.Query.Get("category"))
	assert.Equal(t, "40.44", c.Query.Get("lat"))
	assert.Equal(t, "-79.99", c.Query.Get("lng"))
	assert.Equal(t, "3", c.Query.Get("miles"))

	require.NoError(t, p.Apply(ctx, FeedFilter{Location: Location{Zipcode: "15213", Country: "US"}}))
	c, ok = f.last("GET", "/tasks")
	require.True(t, ok)
	assert.Equal(t, CategoryAll, c.Query.Get("category"))
	assert.Equal(t, "15213", c.Query.Get("zipcode"))
	assert.Empty(t, c.Query.Get("lat"))
	assert.Empty(t, c.Query.Get("miles"))

	err := p.Apply(ctx, FeedFilter{Location: Location{Zipcode: "15213"}})
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, 2, f.count("GET", "/tasks"))
}

func TestFeedPaginatorFilterIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	f.configure(func(f *fakeServer) {
		f.feed = func(q url.Values) api.FeedPage {
			n := 12
			if q.Get("category") == "pets" {
				n = 4
			}
			return pagesOf(n)
		}
	})
	p := NewFeedPaginator(f.client())
	filter := FeedFilter{Category: "pets", Location: pittsburgh}

	require.NoError(t, p.Apply(ctx, filter))
	first := p.Set()
	require.NoError(t, p.Apply(ctx, filter))
	if diff := cmp.Diff(first, p.Set()); diff != "" {
		t.Errorf("same filter produced different pages (-first +second):\n%s", diff)
	}
}

func TestFeedPaginatorDropsSupersededResponse(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.configure(func(f *fakeServer) {
		f.feed = func(q url.Values) api.FeedPage {
			if q.Get("category") == "slow" {
				close(started)
				<-release
				return pagesOf(30)
			}
			n, _ := strconv.Atoi(q.Get("miles"))
			return pagesOf(n)
		}
	})
	p := NewFeedPaginator(f.client())

	slow := make(chan error, 1)
	go func() {
		slow <- p.Apply(ctx, FeedFilter{Category: "slow", Location: pittsburgh})
	}()
	<-started

	require.NoError(t, p.Apply(ctx, FeedFilter{Category: "garden", Miles: 5, Location: pittsburgh}))
	close(release)

	require.ErrorIs(t, <-slow, ErrStale)
	assert.Equal(t, 5, p.Set().TaskCount)
	assert.Equal(t, "garden", p.Filter().Category)
}

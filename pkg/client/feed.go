package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// FeedPaginator holds the current feed result and page. Each Apply starts a
// new generation; a response from an older generation is dropped.
type FeedPaginator struct {
	api *Client

	mu     sync.Mutex
	gen    uint64
	filter FeedFilter
	book   paging.Book[string]
}

func NewFeedPaginator(c *Client) *FeedPaginator {
	return &FeedPaginator{api: c}
}

// Apply fetches the feed for f and replaces the page cache. The current page
// is kept when it still exists. ErrStale means a newer Apply started while
// this one was in flight, and its result was discarded.
func (p *FeedPaginator) Apply(ctx context.Context, f FeedFilter) error {
	if !f.Location.Resolved() {
		return fmt.Errorf("%w: location is not resolved", ErrPrecondition)
	}
	if f.Category == "" {
		f.Category = CategoryAll
	}

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	set, err := p.api.Feed(ctx, f)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return ErrStale
	}
	p.filter = f
	p.book.Reset(set)
	return nil
}

// SetCategory re-applies the last filter with another category.
func (p *FeedPaginator) SetCategory(ctx context.Context, category string) error {
	f := p.Filter()
	f.Category = category
	return p.Apply(ctx, f)
}

// SetRadius re-applies the last filter with another radius.
func (p *FeedPaginator) SetRadius(ctx context.Context, miles float64) error {
	f := p.Filter()
	f.Miles = miles
	return p.Apply(ctx, f)
}

func (p *FeedPaginator) Filter() FeedFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

func (p *FeedPaginator) Set() api.FeedPage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.Set()
}

// Current returns the 1-based current page.
func (p *FeedPaginator) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.Current()
}

// Page returns the rendered HTML of the current page.
func (p *FeedPaginator) Page() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	page, _ := p.book.CurrentPage()
	return page
}

// Empty reports whether the last result had no tasks.
func (p *FeedPaginator) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.Set().Empty()
}

func (p *FeedPaginator) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.HasNext()
}

func (p *FeedPaginator) HasPrev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.HasPrev()
}

// Next moves forward one page and reports whether it moved.
func (p *FeedPaginator) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.Next()
}

// Prev moves back one page and reports whether it moved.
func (p *FeedPaginator) Prev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.Prev()
}

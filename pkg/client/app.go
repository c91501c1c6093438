package client

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// App owns the client-side state of one user session: the location, the
// feed and one thread loader per open chat.
type App struct {
	API   *Client
	Guard *Guard
	Feed  *FeedPaginator

	logger *zap.Logger

	mu       sync.Mutex
	location Location
	threads  map[string]*ThreadLoader
}

func NewApp(c *Client, prompt Prompter, nav Navigator, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		API:     c,
		Guard:   NewGuard(c, prompt, nav, logger),
		Feed:    NewFeedPaginator(c),
		logger:  logger,
		threads: make(map[string]*ThreadLoader),
	}
}

func (a *App) SetLocation(loc Location) {
	a.mu.Lock()
	a.location = loc
	a.mu.Unlock()
}

func (a *App) Location() Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

// Browse loads the feed around the session location.
func (a *App) Browse(ctx context.Context, category string, miles float64) error {
	return a.Feed.Apply(ctx, FeedFilter{Category: category, Miles: miles, Location: a.Location()})
}

// Thread returns the loader for a task's chat, creating it on first use.
func (a *App) Thread(taskID string) *ThreadLoader {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.threads[taskID]
	if !ok {
		l = NewThreadLoader(a.API, taskID, a.logger)
		a.threads[taskID] = l
	}
	return l
}

// CloseThread drops the loader of a task.
func (a *App) CloseThread(taskID string) {
	a.mu.Lock()
	delete(a.threads, taskID)
	a.mu.Unlock()
}

package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

// MessagePageSize is the number of messages the server returns per call.
const MessagePageSize = 10

// ThreadLoader incrementally loads a task's chat, newest page first, and keeps
// the rendered thread in chronological order.
//
// When a call returns a full page, the oldest message of that page is held
// back as the boundary: it carries the "load more" control and is rendered
// on top of the next, older block.
type ThreadLoader struct {
	api      *Client
	taskID   string
	pageSize int
	logger   *zap.Logger
	now      func() time.Time

	// serializes loads so two calls never reuse one cursor
	loadMu sync.Mutex

	mu       sync.Mutex
	messages []api.Message
	boundary *api.Message
	cursor   string
	anchor   string
}

func NewThreadLoader(c *Client, taskID string, logger *zap.Logger) *ThreadLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThreadLoader{
		api:      c,
		taskID:   taskID,
		pageSize: MessagePageSize,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *ThreadLoader) TaskID() string { return l.taskID }

// LoadInitial replaces the thread with the most recent page.
func (l *ThreadLoader) LoadInitial(ctx context.Context) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	page, err := l.api.Messages(ctx, l.taskID, "")
	if err != nil {
		return err
	}
	shown, boundary, cursor := l.split(page)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = shown
	l.boundary = boundary
	l.cursor = cursor
	l.anchor = ""
	return nil
}

// LoadMore fetches the next older page and prepends it together with the
// previous boundary message. Anchor then names the previous boundary.
func (l *ThreadLoader) LoadMore(ctx context.Context) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	l.mu.Lock()
	prev, cursor := l.boundary, l.cursor
	l.mu.Unlock()
	if prev == nil || cursor == "" {
		return fmt.Errorf("%w: no older messages", ErrPrecondition)
	}

	page, err := l.api.Messages(ctx, l.taskID, cursor)
	if err != nil {
		return err
	}
	shown, boundary, next := l.split(page)

	l.mu.Lock()
	defer l.mu.Unlock()
	block := make([]api.Message, 0, len(shown)+1+len(l.messages))
	block = append(block, shown...)
	block = append(block, *prev)
	l.messages = append(block, l.messages...)
	l.boundary = boundary
	l.cursor = next
	l.anchor = prev.ID
	return nil
}

// split holds back the oldest message of a full page and returns the rest in
// chronological order.
func (l *ThreadLoader) split(page *api.MessagePage) ([]api.Message, *api.Message, string) {
	msgs := page.Messages
	var boundary *api.Message
	cursor := ""
	if len(msgs) >= l.pageSize && page.CursorString != "" {
		b := msgs[len(msgs)-1]
		boundary = &b
		msgs = msgs[:len(msgs)-1]
		cursor = page.CursorString
	}
	shown := make([]api.Message, len(msgs))
	for i, m := range msgs {
		shown[len(msgs)-1-i] = m
	}
	return shown, boundary, cursor
}

// Post appends the message locally and then sends it. The local copy stays
// even when sending fails.
func (l *ThreadLoader) Post(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty message", ErrPrecondition)
	}
	l.mu.Lock()
	l.messages = append(l.messages, api.Message{
		TaskID:    l.taskID,
		Message:   text,
		ClassName: api.ClassSentByMe,
		SentTime:  l.now().UnixMilli(),
	})
	l.mu.Unlock()

	_, err := l.api.PostMessage(ctx, l.taskID, text)
	return err
}

// Purge asks the server to delete the thread and clears it locally. The
// outcome of the request is ignored.
func (l *ThreadLoader) Purge(ctx context.Context) {
	if err := l.api.PurgeMessages(ctx, l.taskID); err != nil {
		l.logger.Debug("message purge failed", zap.String("task", l.taskID), zap.Error(err))
	}
	l.mu.Lock()
	l.messages = nil
	l.boundary = nil
	l.cursor = ""
	l.anchor = ""
	l.mu.Unlock()
}

// Messages returns the rendered thread, oldest first.
func (l *ThreadLoader) Messages() []api.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.Message(nil), l.messages...)
}

// Boundary returns the held-back message that carries the more-control.
func (l *ThreadLoader) Boundary() (api.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.boundary == nil {
		return api.Message{}, false
	}
	return *l.boundary, true
}

func (l *ThreadLoader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.boundary != nil && l.cursor != ""
}

// Anchor is the id of the message to scroll to after LoadMore.
func (l *ThreadLoader) Anchor() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.anchor
}

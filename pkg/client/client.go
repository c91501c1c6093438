// Package client talks to the NeighborHelp HTTP API. Besides the plain
// endpoint calls it carries the client-side workflow: the lifecycle guard
// that checks a task before acting on it, the feed paginator and the chat
// thread loader.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
)

const defaultTimeout = 30 * time.Second

// Client is a thin JSON client for the HTTP API. It is safe for concurrent
// use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body api.Error
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func (c *Client) Register(ctx context.Context, creds api.Credentials) (*api.TokenPair, error) {
	var pair api.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, creds, &pair); err != nil {
		return nil, err
	}
	c.SetToken(pair.AccessToken)
	return &pair, nil
}

func (c *Client) Login(ctx context.Context, creds api.Credentials) (*api.TokenPair, error) {
	var pair api.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &pair); err != nil {
		return nil, err
	}
	c.SetToken(pair.AccessToken)
	return &pair, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error) {
	var pair api.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, api.RefreshRequest{RefreshToken: refreshToken}, &pair); err != nil {
		return nil, err
	}
	c.SetToken(pair.AccessToken)
	return &pair, nil
}

// FeedFilter selects the feed. Coordinates take precedence over the
// neighborhood when both are set.
type FeedFilter struct {
	Category string
	Miles    float64
	Location Location
}

// Location is either a coordinate pair or a resolved neighborhood.
type Location struct {
	Lat, Lng *float64
	Zipcode  string
	Country  string
}

// HasCoordinates reports whether both coordinates are set.
func (l Location) HasCoordinates() bool { return l.Lat != nil && l.Lng != nil }

// Resolved reports whether the location can scope a query.
func (l Location) Resolved() bool {
	return l.HasCoordinates() || (l.Zipcode != "" && l.Country != "")
}

func (l Location) query(q url.Values) {
	if l.HasCoordinates() {
		q.Set("lat", formatFloat(*l.Lat))
		q.Set("lng", formatFloat(*l.Lng))
		return
	}
	if l.Zipcode != "" {
		q.Set("zipcode", l.Zipcode)
	}
	if l.Country != "" {
		q.Set("country", l.Country)
	}
}

func (c *Client) Feed(ctx context.Context, f FeedFilter) (api.FeedPage, error) {
	q := url.Values{}
	f.Location.query(q)
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Miles > 0 && f.Location.HasCoordinates() {
		q.Set("miles", formatFloat(f.Miles))
	}
	var page api.FeedPage
	err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &page)
	return page, err
}

func (c *Client) Task(ctx context.Context, key string) (*api.Task, error) {
	var task api.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/info", url.Values{"key": {key}}, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, form api.TaskForm) (*api.Task, error) {
	var task api.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, form, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/tasks", url.Values{"key": {key}}, nil, nil)
}

// Transition asks the server to move a task to status to. A positive version
// makes the server reject the change when the task moved on in between.
func (c *Client) Transition(ctx context.Context, key string, to lifecycle.Status, version int64) (*api.Task, error) {
	q := url.Values{"key": {key}, "status": {to.String()}}
	if version > 0 {
		q.Set("version", strconv.FormatInt(version, 10))
	}
	var task api.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/info", q, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Claim(ctx context.Context, key string) (*api.Task, error) {
	var task api.Task
	q := url.Values{"task-id": {key}, "action": {"helpout"}}
	if err := c.do(ctx, http.MethodPost, "/tasks/edit", q, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) EditTask(ctx context.Context, key string, form api.TaskForm) (*api.Task, error) {
	var task api.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/edit", url.Values{"task-id": {key}}, form, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// MyTasks lists the caller's tasks as owner or helper.
func (c *Client) MyTasks(ctx context.Context, keyword string, complete bool, cursor string) (*api.MyTasksPage, error) {
	q := url.Values{"keyword": {keyword}, "complete": {strconv.FormatBool(complete)}}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var page api.MyTasksPage
	if err := c.do(ctx, http.MethodGet, "/mytasks", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Messages(ctx context.Context, taskID, cursor string) (*api.MessagePage, error) {
	q := url.Values{"task-id": {taskID}}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var page api.MessagePage
	if err := c.do(ctx, http.MethodGet, "/messages", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) PostMessage(ctx context.Context, taskID, text string) (*api.Message, error) {
	var msg api.Message
	if err := c.do(ctx, http.MethodPost, "/messages", url.Values{"task-id": {taskID}}, api.PostMessage{Message: text}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) PurgeMessages(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/messages", url.Values{"task-id": {taskID}}, nil, nil)
}

func (c *Client) Notifications(ctx context.Context) ([]api.Notification, error) {
	var notes []api.Notification
	err := c.do(ctx, http.MethodGet, "/notifications", nil, nil, &notes)
	return notes, err
}

func (c *Client) Account(ctx context.Context) (*api.User, error) {
	var user api.User
	if err := c.do(ctx, http.MethodGet, "/account", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateAccount(ctx context.Context, p api.Profile) (*api.User, error) {
	var user api.User
	if err := c.do(ctx, http.MethodPost, "/account", nil, p, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TopScorers returns the leaderboard, scoped to loc when it is resolved.
func (c *Client) TopScorers(ctx context.Context, loc Location, miles float64) ([]api.User, error) {
	q := url.Values{"action": {"topscorers"}}
	loc.query(q)
	if miles > 0 && loc.HasCoordinates() {
		q.Set("miles", formatFloat(miles))
	}
	var users []api.User
	err := c.do(ctx, http.MethodGet, "/account", q, nil, &users)
	return users, err
}

func (c *Client) AdminStats(ctx context.Context) (*api.AdminStats, error) {
	var stats api.AdminStats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) RecordAdminTask(ctx context.Context, form api.AdminTaskForm) (*api.AdminTask, error) {
	var task api.AdminTask
	if err := c.do(ctx, http.MethodPost, "/admin/tasks", nil, form, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) AdminTasks(ctx context.Context) ([]api.AdminTask, error) {
	var tasks []api.AdminTask
	err := c.do(ctx, http.MethodGet, "/admin/tasks", nil, nil, &tasks)
	return tasks, err
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

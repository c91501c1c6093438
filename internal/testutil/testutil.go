// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/database"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
)

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	db, err := database.Open(database.Config{Driver: database.DriverSQLite, DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// TestHelpers provides common test utilities
type TestHelpers struct {
	t   testing.TB
	db  *sqlx.DB
	now time.Time
}

func NewTestHelpers(t testing.TB, db *sqlx.DB) *TestHelpers {
	return &TestHelpers{t: t, db: db, now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

// Tick returns a strictly increasing timestamp in unix millis.
func (h *TestHelpers) Tick() int64 {
	h.now = h.now.Add(time.Second)
	return h.now.UnixMilli()
}

// CreateUser inserts a user with a profile located at lat/lng.
func (h *TestHelpers) CreateUser(nickname string, lat, lng float64) *models.User {
	h.t.Helper()
	ts := h.Tick()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        fmt.Sprintf("%s-%s@example.com", nickname, uuid.NewString()[:8]),
		PasswordHash: "x",
		Nickname:     nickname,
		Address:      "1 Main St",
		Zipcode:      "15213",
		Country:      "US",
		Lat:          sql.NullFloat64{Float64: lat, Valid: true},
		Lng:          sql.NullFloat64{Float64: lng, Valid: true},
		Role:         models.RoleUser,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	_, err := h.db.NamedExec(`INSERT INTO users (
		id, email, password_hash, nickname, address, zipcode, country, phone,
		lat, lng, points, role, created_at, updated_at
	) VALUES (
		:id, :email, :password_hash, :nickname, :address, :zipcode, :country, :phone,
		:lat, :lng, :points, :role, :created_at, :updated_at
	)`, u)
	require.NoError(h.t, err)
	return u
}

// TaskOption customizes CreateTask.
type TaskOption func(*models.Task)

func WithStatus(s lifecycle.Status, helperID string) TaskOption {
	return func(t *models.Task) {
		t.Status = string(s)
		if helperID != "" {
			t.HelperID = sql.NullString{String: helperID, Valid: true}
		}
	}
}

func WithCategory(c string) TaskOption {
	return func(t *models.Task) { t.Category = c }
}

func WithLocation(lat, lng float64) TaskOption {
	return func(t *models.Task) { t.Lat, t.Lng = lat, lng }
}

func WithReward(r int64) TaskOption {
	return func(t *models.Task) { t.Reward = r }
}

// CreateTask inserts an open task owned by owner at the owner's location.
func (h *TestHelpers) CreateTask(owner *models.User, overview string, opts ...TaskOption) *models.Task {
	h.t.Helper()
	ts := h.Tick()
	task := &models.Task{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Status:    string(lifecycle.StatusOpen),
		Category:  models.CategoryMisc,
		Overview:  overview,
		Detail:    overview + " detail",
		Reward:    50,
		Address:   owner.Address,
		Zipcode:   owner.Zipcode,
		Country:   owner.Country,
		Lat:       owner.Lat.Float64,
		Lng:       owner.Lng.Float64,
		Version:   1,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	for _, opt := range opts {
		opt(task)
	}
	_, err := h.db.NamedExec(`INSERT INTO tasks (
		id, owner_id, helper_id, status, category, overview, detail, reward,
		address, zipcode, country, lat, lng, version, created_at, updated_at
	) VALUES (
		:id, :owner_id, :helper_id, :status, :category, :overview, :detail, :reward,
		:address, :zipcode, :country, :lat, :lng, :version, :created_at, :updated_at
	)`, task)
	require.NoError(h.t, err)
	return task
}

// CreateMessage inserts a chat message sent at the next tick.
func (h *TestHelpers) CreateMessage(taskID, senderID, body string) *models.Message {
	h.t.Helper()
	m := &models.Message{
		ID:       uuid.NewString(),
		TaskID:   taskID,
		SenderID: senderID,
		Body:     body,
		SentAt:   h.Tick(),
	}
	_, err := h.db.NamedExec(
		`INSERT INTO messages (id, task_id, sender_id, body, sent_at) VALUES (:id, :task_id, :sender_id, :body, :sent_at)`, m)
	require.NoError(h.t, err)
	return m
}

// Count returns the number of rows in table matching an optional where
// clause.
func (h *TestHelpers) Count(table, where string, args ...any) int {
	h.t.Helper()
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(h.t, h.db.Get(&n, h.db.Rebind(query), args...))
	return n
}

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Statements are portable between PostgreSQL and SQLite. Timestamps are unix
// milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		nickname TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		zipcode TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		points BIGINT NOT NULL DEFAULT 0,
		role TEXT NOT NULL DEFAULT 'user',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_points ON users (points)`,
	`CREATE INDEX IF NOT EXISTS idx_users_neighborhood ON users (zipcode, country)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users (id),
		helper_id TEXT,
		status TEXT NOT NULL,
		category TEXT NOT NULL,
		overview TEXT NOT NULL,
		detail TEXT NOT NULL,
		reward BIGINT NOT NULL DEFAULT 0,
		address TEXT NOT NULL DEFAULT '',
		zipcode TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks (owner_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_helper ON tasks (helper_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_neighborhood ON tasks (zipcode, country)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		body TEXT NOT NULL,
		sent_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_task_sent ON messages (task_id, sent_at)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		receiver_id TEXT,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications (receiver_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_task ON notifications (task_id)`,
	`CREATE TABLE IF NOT EXISTS admin_tasks (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		detail TEXT NOT NULL,
		scheduled_date TEXT NOT NULL,
		scheduled_time TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_admin_tasks_schedule ON admin_tasks (scheduled_date, scheduled_time)`,
}

// Migrate creates missing tables and indexes. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

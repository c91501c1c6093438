package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/neighborhelp/internal/database"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db            *sqlx.DB
	Tasks         *TaskRepository
	Users         *UserRepository
	Messages      *MessageRepository
	Notifications *NotificationRepository
	AdminTasks    *AdminTaskRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:            db,
		Tasks:         NewTaskRepository(db),
		Users:         NewUserRepository(db),
		Messages:      NewMessageRepository(db),
		Notifications: NewNotificationRepository(db),
		AdminTasks:    NewAdminTaskRepository(db),
	}
}

// InTx runs fn with repositories bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&Store{
			db:            s.db,
			Tasks:         s.Tasks.WithTx(tx),
			Users:         s.Users.WithTx(tx),
			Messages:      s.Messages.WithTx(tx),
			Notifications: s.Notifications.WithTx(tx),
			AdminTasks:    s.AdminTasks.WithTx(tx),
		})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

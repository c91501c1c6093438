package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

type MessageRepository struct {
	base
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{base: newBase(db)}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext,
		`INSERT INTO messages (id, task_id, sender_id, body, sent_at) VALUES (:id, :task_id, :sender_id, :body, :sent_at)`, m)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListPage returns up to limit messages of a task, newest first, strictly
// after the cursor position.
func (r *MessageRepository) ListPage(ctx context.Context, taskID string, cursor paging.Cursor, limit int) ([]models.Message, error) {
	preds := []*sql.Predicate{sql.EQ("task_id", taskID)}
	if !cursor.IsZero() {
		preds = append(preds, after("sent_at", cursor))
	}
	q := r.builder().Select("id", "task_id", "sender_id", "body", "sent_at").
		From(sql.Table("messages")).
		Where(sql.And(preds...)).
		OrderBy(sql.Desc("sent_at"), sql.Desc("id")).
		Limit(limit)

	var msgs []models.Message
	if err := r.selectAll(ctx, &msgs, q); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepository) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	n, err := r.exec(ctx, r.builder().Delete("messages").Where(sql.EQ("task_id", taskID)))
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return n, nil
}

// DeleteOrphans removes messages whose task no longer exists.
func (r *MessageRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	n, err := r.execRaw(ctx,
		`DELETE FROM messages WHERE NOT EXISTS (SELECT 1 FROM tasks WHERE tasks.id = messages.task_id)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphan messages: %w", err)
	}
	return n, nil
}

func (r *MessageRepository) WithTx(tx *sqlx.Tx) *MessageRepository {
	return &MessageRepository{base: r.withTx(tx)}
}

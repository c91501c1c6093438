package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/neighborhelp/internal/models"
)

type NotificationRepository struct {
	base
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{base: newBase(db)}
}

func (r *NotificationRepository) WithTx(tx *sqlx.Tx) *NotificationRepository {
	return &NotificationRepository{base: r.withTx(tx)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext,
		`INSERT INTO notifications (id, task_id, receiver_id, created_at) VALUES (:id, :task_id, :receiver_id, :created_at)`, n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// AssignPending hands notifications that were waiting for a helper to
// receiverID.
func (r *NotificationRepository) AssignPending(ctx context.Context, taskID, receiverID string) (int64, error) {
	q := r.builder().Update("notifications").
		Set("receiver_id", receiverID).
		Where(sql.And(sql.EQ("task_id", taskID), sql.IsNull("receiver_id")))
	n, err := r.exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("assign notifications: %w", err)
	}
	return n, nil
}

// CountByReceiver groups a user's notifications per task.
func (r *NotificationRepository) CountByReceiver(ctx context.Context, receiverID string) ([]models.NotificationCount, error) {
	var counts []models.NotificationCount
	err := sqlx.SelectContext(ctx, r.ext, &counts, r.ext.Rebind(`
		SELECT n.task_id AS task_id, COALESCE(t.overview, '') AS overview, COUNT(*) AS count
		FROM notifications n
		LEFT JOIN tasks t ON t.id = n.task_id
		WHERE n.receiver_id = ?
		GROUP BY n.task_id, t.overview
		ORDER BY MAX(n.created_at) DESC`), receiverID)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	return counts, nil
}

// Clear removes the notifications a user holds for one task.
func (r *NotificationRepository) Clear(ctx context.Context, taskID, receiverID string) (int64, error) {
	q := r.builder().Delete("notifications").
		Where(sql.And(sql.EQ("task_id", taskID), sql.EQ("receiver_id", receiverID)))
	n, err := r.exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	n, err := r.exec(ctx, r.builder().Delete("notifications").Where(sql.EQ("task_id", taskID)))
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return n, nil
}

// DeleteOrphans removes notifications whose task no longer exists.
func (r *NotificationRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	n, err := r.execRaw(ctx,
		`DELETE FROM notifications WHERE NOT EXISTS (SELECT 1 FROM tasks WHERE tasks.id = notifications.task_id)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphan notifications: %w", err)
	}
	return n, nil
}

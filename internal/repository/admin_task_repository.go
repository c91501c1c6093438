package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/neighborhelp/internal/models"
)

type AdminTaskRepository struct {
	base
}

func NewAdminTaskRepository(db *sqlx.DB) *AdminTaskRepository {
	return &AdminTaskRepository{base: newBase(db)}
}

func (r *AdminTaskRepository) WithTx(tx *sqlx.Tx) *AdminTaskRepository {
	return &AdminTaskRepository{base: r.withTx(tx)}
}

func (r *AdminTaskRepository) Create(ctx context.Context, t *models.AdminTask) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext, `
		INSERT INTO admin_tasks (id, owner, detail, scheduled_date, scheduled_time, created_by, created_at)
		VALUES (:id, :owner, :detail, :scheduled_date, :scheduled_time, :created_by, :created_at)`, t)
	if err != nil {
		return fmt.Errorf("insert admin task: %w", err)
	}
	return nil
}

// List returns up to limit admin tasks, earliest schedule first.
func (r *AdminTaskRepository) List(ctx context.Context, limit int) ([]models.AdminTask, error) {
	q := r.builder().Select("id", "owner", "detail", "scheduled_date", "scheduled_time", "created_by", "created_at").
		From(sql.Table("admin_tasks")).
		OrderBy("scheduled_date", "scheduled_time", "id").
		Limit(limit)
	var tasks []models.AdminTask
	if err := r.selectAll(ctx, &tasks, q); err != nil {
		return nil, fmt.Errorf("list admin tasks: %w", err)
	}
	return tasks, nil
}

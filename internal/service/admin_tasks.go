package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

const adminTasksLimit = 500

// RecordAdminTask stores an errand an admin took down for a neighbor.
func (s *TaskService) RecordAdminTask(ctx context.Context, adminID string, form api.AdminTaskForm) (*api.AdminTask, error) {
	form, err := s.validate.adminTask(form)
	if err != nil {
		return nil, err
	}
	t := &models.AdminTask{
		ID:        uuid.NewString(),
		Owner:     form.Owner,
		Detail:    form.Detail,
		Date:      form.Date,
		Time:      form.Time,
		CreatedBy: adminID,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.store.AdminTasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("record admin task: %w", err)
	}
	s.logger.Info("admin task recorded", zap.String("admin_task_id", t.ID), zap.String("admin_id", adminID))
	view := adminTaskView(t)
	return &view, nil
}

// AdminTasks lists recorded errands, earliest first.
func (s *TaskService) AdminTasks(ctx context.Context) ([]api.AdminTask, error) {
	tasks, err := s.store.AdminTasks.List(ctx, adminTasksLimit)
	if err != nil {
		return nil, err
	}
	out := make([]api.AdminTask, 0, len(tasks))
	for i := range tasks {
		out = append(out, adminTaskView(&tasks[i]))
	}
	return out, nil
}

func adminTaskView(t *models.AdminTask) api.AdminTask {
	return api.AdminTask{
		KeyString: t.ID,
		Owner:     t.Owner,
		Detail:    t.Detail,
		Date:      t.Date,
		Time:      t.Time,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/repository"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

// MessageService serves the chat thread of a task to its participants.
type MessageService struct {
	store    *repository.Store
	validate *ValidationConfig
	pageSize int
	logger   *zap.Logger
	now      func() time.Time
}

func NewMessageService(store *repository.Store, pageSize int, logger *zap.Logger) *MessageService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &MessageService{
		store:    store,
		validate: DefaultValidationConfig(),
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// Page returns one page of the thread, newest first. The cursor string is
// set only when the page is full. Reading the first page clears the
// requester's notifications for the task.
func (s *MessageService) Page(ctx context.Context, userID, taskID, cursor string) (*api.MessagePage, error) {
	after, err := paging.DecodeCursor(cursor)
	if err != nil {
		return nil, invalidf("invalid cursor")
	}
	if _, err := s.participant(ctx, userID, taskID); err != nil {
		return nil, err
	}

	msgs, err := s.store.Messages.ListPage(ctx, taskID, after, s.pageSize)
	if err != nil {
		return nil, err
	}

	page := &api.MessagePage{Messages: make([]api.Message, 0, len(msgs))}
	for _, m := range msgs {
		class := api.ClassSentByOthers
		if m.SenderID == userID {
			class = api.ClassSentByMe
		}
		page.Messages = append(page.Messages, api.Message{
			ID:        m.ID,
			TaskID:    m.TaskID,
			Message:   m.Body,
			ClassName: class,
			SentTime:  m.SentAt,
		})
	}
	if len(msgs) == s.pageSize {
		last := msgs[len(msgs)-1]
		page.CursorString = paging.Cursor{Key: last.SentAt, ID: last.ID}.String()
	}

	if after.IsZero() {
		if _, err := s.store.Notifications.Clear(ctx, taskID, userID); err != nil {
			s.logger.Warn("clear notifications failed", zap.String("task_id", taskID), zap.Error(err))
		}
	}
	return page, nil
}

// Post appends a message and notifies the other participant. While the task
// has no helper the notification waits for whoever claims it.
func (s *MessageService) Post(ctx context.Context, userID, taskID, body string) (*api.Message, error) {
	body, err := s.validate.message(body)
	if err != nil {
		return nil, err
	}
	task, err := s.participant(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now().UnixMilli()
	msg := &models.Message{
		ID:       uuid.NewString(),
		TaskID:   taskID,
		SenderID: userID,
		Body:     body,
		SentAt:   now,
	}

	var receiver sql.NullString
	if userID == task.OwnerID {
		receiver = task.HelperID
	} else {
		receiver = sql.NullString{String: task.OwnerID, Valid: true}
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Messages.Create(ctx, msg); err != nil {
			return err
		}
		return tx.Notifications.Create(ctx, &models.Notification{
			ID:         uuid.NewString(),
			TaskID:     taskID,
			ReceiverID: receiver,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	return &api.Message{
		ID:        msg.ID,
		TaskID:    taskID,
		Message:   body,
		ClassName: api.ClassSentByMe,
		SentTime:  now,
	}, nil
}

// Purge deletes the thread of a task. Participants may purge; once the task
// is gone anyone may clear what is left of it.
func (s *MessageService) Purge(ctx context.Context, userID, taskID string) error {
	if taskID == "" {
		return invalidf("task id is required")
	}
	task, err := s.store.Tasks.GetByID(ctx, taskID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return fmt.Errorf("get task: %w", err)
	case userID != task.OwnerID && userID != task.Helper():
		return newError(ErrForbidden, "only the task participants can delete its messages")
	}

	n, err := s.store.Messages.DeleteByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.store.Notifications.DeleteByTask(ctx, taskID); err != nil {
		return err
	}
	s.logger.Debug("messages purged", zap.String("task_id", taskID), zap.Int64("count", n))
	return nil
}

func (s *MessageService) participant(ctx context.Context, userID, taskID string) (*models.Task, error) {
	if taskID == "" {
		return nil, invalidf("task id is required")
	}
	task, err := s.store.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "task not found")
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if userID != task.OwnerID && userID != task.Helper() {
		return nil, newError(ErrForbidden, "only the task participants can use its chat")
	}
	return task, nil
}

// NotificationService reports unread chat activity.
type NotificationService struct {
	store *repository.Store
}

func NewNotificationService(store *repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]api.Notification, error) {
	counts, err := s.store.Notifications.CountByReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]api.Notification, 0, len(counts))
	for _, c := range counts {
		out = append(out, api.Notification{TaskID: c.TaskID, Overview: c.Overview, Count: c.Count})
	}
	return out, nil
}

// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/geo"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/render"
	"github.com/gurkanbulca/neighborhelp/internal/repository"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/email"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

// TaskConfig sizes the feed and the "my tasks" pages.
type TaskConfig struct {
	ResultLimit        int
	PageSize           int
	MyTasksPageSize    int
	DefaultRadiusMiles float64
	LocationsLimit     int
}

func DefaultTaskConfig() TaskConfig {
	return TaskConfig{
		ResultLimit:        100,
		PageSize:           10,
		MyTasksPageSize:    5,
		DefaultRadiusMiles: 5,
		LocationsLimit:     1000,
	}
}

type TaskService struct {
	store     *repository.Store
	nicknames *Nicknames
	renderer  *render.Renderer
	notifier  email.Notifier
	validate  *ValidationConfig
	cfg       TaskConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewTaskService(
	store *repository.Store,
	nicknames *Nicknames,
	renderer *render.Renderer,
	notifier email.Notifier,
	cfg TaskConfig,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		store:     store,
		nicknames: nicknames,
		renderer:  renderer,
		notifier:  notifier,
		validate:  DefaultValidationConfig(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Create publishes an open task at the owner's profile location.
func (s *TaskService) Create(ctx context.Context, userID string, form api.TaskForm) (*api.Task, error) {
	form, err := s.validate.taskForm(form)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthenticated, "account not found")
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	if !owner.HasLocation() || owner.Zipcode == "" {
		return nil, newError(ErrProfileIncomplete, "complete your profile before posting a task")
	}

	now := s.now().UnixMilli()
	task := &models.Task{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Status:    string(lifecycle.StatusOpen),
		Category:  form.Category,
		Overview:  form.Overview,
		Detail:    form.Detail,
		Reward:    form.Reward,
		Address:   owner.Address,
		Zipcode:   owner.Zipcode,
		Country:   owner.Country,
		Lat:       owner.Lat.Float64,
		Lng:       owner.Lng.Float64,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Info("task created", zap.String("task_id", task.ID), zap.String("owner_id", owner.ID))
	view := s.view(ctx, s.nicknames.memo(), task, userID)
	return &view, nil
}

// Get returns one task as seen by viewerID, who may be anonymous.
func (s *TaskService) Get(ctx context.Context, viewerID, key string) (*api.Task, error) {
	task, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, s.nicknames.memo(), task, viewerID)
	return &view, nil
}

// FeedQuery locates the feed by coordinates or by neighborhood.
type FeedQuery struct {
	Category string
	Lat      *float64
	Lng      *float64
	Miles    float64
	Zipcode  string
	Country  string
}

// Feed returns the open tasks around a location, newest first, pre-rendered
// into pages.
func (s *TaskService) Feed(ctx context.Context, viewerID string, q FeedQuery) (*api.FeedPage, error) {
	filter := repository.FeedFilter{Limit: s.cfg.ResultLimit}

	if c := strings.TrimSpace(q.Category); c != "" && !strings.EqualFold(c, models.CategoryAll) {
		category, known := models.NormalizeCategory(c)
		if !known {
			return nil, invalidf("unknown category %q", category)
		}
		filter.Category = category
	}

	var center *geo.Point
	var radius float64
	switch {
	case q.Lat != nil && q.Lng != nil:
		point, miles, err := s.validate.area(*q.Lat, *q.Lng, q.Miles, s.cfg.DefaultRadiusMiles)
		if err != nil {
			return nil, err
		}
		center = &point
		radius = geo.MilesToMeters(miles)
		box := geo.BoundingBox(*center, radius)
		filter.Box = &box
	case q.Zipcode != "" && q.Country != "":
		filter.Zipcode = strings.TrimSpace(q.Zipcode)
		filter.Country = strings.ToUpper(strings.TrimSpace(q.Country))
	default:
		return nil, invalidf("a location or a zipcode and country are required")
	}

	tasks, err := s.store.Tasks.ListOpen(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	m := s.nicknames.memo()
	cards := make([]render.Card, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if center != nil && !geo.Within(*center, geo.Point{Lat: t.Lat, Lng: t.Lng}, radius) {
			continue
		}
		cards = append(cards, render.Card{
			Key:           t.ID,
			OwnerNickname: m.lookup(ctx, t.OwnerID),
			Overview:      t.Overview,
			Category:      t.Category,
			DateTime:      s.renderer.DateTime(t.CreatedAt),
			LoggedIn:      viewerID != "",
			IsOwn:         viewerID != "" && viewerID == t.OwnerID,
		})
	}

	pages, err := s.renderer.Pages(paging.Split(cards, s.cfg.PageSize))
	if err != nil {
		return nil, fmt.Errorf("render feed: %w", err)
	}
	set := paging.NewPageSet(len(cards), pages)
	return &set, nil
}

// MyTasks pages through the tasks a user owns or helps with. complete
// selects finished tasks instead of active ones.
func (s *TaskService) MyTasks(ctx context.Context, userID, keyword string, complete bool, cursor string) (*api.MyTasksPage, error) {
	var asHelper bool
	switch strings.ToLower(keyword) {
	case "owner":
	case "helper":
		asHelper = true
	default:
		return nil, invalidf("keyword must be Owner or Helper")
	}

	after, err := paging.DecodeCursor(cursor)
	if err != nil {
		return nil, invalidf("invalid cursor")
	}

	statuses := []lifecycle.Status{lifecycle.StatusOpen, lifecycle.StatusInProgress}
	if complete {
		statuses = []lifecycle.Status{lifecycle.StatusAwaitVerification, lifecycle.StatusComplete}
	}

	tasks, err := s.store.Tasks.ListByParticipant(ctx, repository.ParticipantFilter{
		UserID:   userID,
		AsHelper: asHelper,
		Statuses: statuses,
		After:    after,
		Limit:    s.cfg.MyTasksPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list my tasks: %w", err)
	}

	m := s.nicknames.memo()
	page := &api.MyTasksPage{Tasks: make([]api.Task, 0, len(tasks))}
	for i := range tasks {
		page.Tasks = append(page.Tasks, s.view(ctx, m, &tasks[i], userID))
	}
	if len(tasks) == s.cfg.MyTasksPageSize {
		last := tasks[len(tasks)-1]
		page.CursorString = paging.Cursor{Key: last.CreatedAt, ID: last.ID}.String()
	}
	return page, nil
}

// Edit changes the details of an open task. Only the owner may edit.
func (s *TaskService) Edit(ctx context.Context, userID, key string, form api.TaskForm) (*api.Task, error) {
	form, err := s.validate.taskForm(form)
	if err != nil {
		return nil, err
	}
	task, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != userID {
		return nil, newError(ErrForbidden, "only the owner can edit this task")
	}
	if !lifecycle.CanEdit(lifecycle.Status(task.Status)) {
		return nil, newError(ErrConflict, "You can only edit an 'OPEN' task.")
	}

	ok, err := s.store.Tasks.UpdateDetails(ctx, repository.DetailsInput{
		ID:            task.ID,
		OwnerID:       userID,
		Category:      form.Category,
		Overview:      form.Overview,
		Detail:        form.Detail,
		Reward:        form.Reward,
		ExpectVersion: form.Version,
		Now:           s.now().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("edit task: %w", err)
	}
	if !ok {
		return nil, newError(ErrConflict, "the task changed since it was loaded")
	}
	return s.Get(ctx, userID, key)
}

// Delete removes an open task with its chat thread. Only the owner may
// delete.
func (s *TaskService) Delete(ctx context.Context, userID, key string) error {
	task, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if task.OwnerID != userID {
		return newError(ErrForbidden, "only the owner can delete this task")
	}
	if !lifecycle.CanDelete(lifecycle.Status(task.Status)) {
		return newError(ErrConflict, "You can only delete an 'OPEN' task.")
	}

	ok, err := s.store.Tasks.DeleteOpen(ctx, key, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !ok {
		return newError(ErrConflict, "You can only delete an 'OPEN' task.")
	}

	s.purge(ctx, key)
	s.logger.Info("task deleted", zap.String("task_id", key), zap.String("owner_id", userID))
	return nil
}

// Claim assigns an open task to userID. Concurrent claims race on the
// status; the loser gets a conflict.
func (s *TaskService) Claim(ctx context.Context, userID, key string) (*api.Task, error) {
	task, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	tr, err := lifecycle.Lookup(lifecycle.StatusOpen, lifecycle.ActionClaim)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(tr, task.OwnerID, task.Helper(), userID); err != nil {
		return nil, newError(ErrForbidden, "you cannot help out with your own task")
	}
	if !lifecycle.CanClaim(lifecycle.Status(task.Status)) {
		return nil, newError(ErrConflict, "Task has already been claimed by another helper")
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		ok, err := tx.Tasks.Transition(ctx, repository.TransitionInput{
			ID:       key,
			From:     tr.From,
			To:       tr.To,
			HelperID: userID,
			Now:      s.now().UnixMilli(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrConflict, "Task has already been claimed by another helper")
		}
		_, err = tx.Notifications.AssignPending(ctx, key, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task claimed", zap.String("task_id", key), zap.String("helper_id", userID))
	s.notify(ctx, lifecycle.ActionClaim, task, userID)
	return s.Get(ctx, userID, key)
}

// Transition moves a task to status to on behalf of userID. A non-zero
// version must match the stored one.
func (s *TaskService) Transition(ctx context.Context, userID, key string, to lifecycle.Status, version int64) (*api.Task, error) {
	task, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	from := lifecycle.Status(task.Status)
	tr, err := lifecycle.Resolve(from, to)
	if err != nil {
		return nil, newError(ErrIllegalTransition, "cannot change a %s task to %s", from, to)
	}
	if tr.Action == lifecycle.ActionClaim {
		return nil, invalidf("use the help out action to claim a task")
	}
	if err := lifecycle.Authorize(tr, task.OwnerID, task.Helper(), userID); err != nil {
		return nil, newError(ErrForbidden, "only the task %s can %s it", tr.Actor, tr.Action)
	}
	if version > 0 && version != task.Version {
		return nil, newError(ErrConflict, "the task changed since it was loaded")
	}

	in := repository.TransitionInput{
		ID:            key,
		From:          tr.From,
		To:            tr.To,
		ExpectVersion: version,
		ClearHelper:   lifecycle.ClearsHelper(tr.To),
		Now:           s.now().UnixMilli(),
	}
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		ok, err := tx.Tasks.Transition(ctx, in)
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrConflict, "the task changed since it was loaded")
		}
		if tr.Action == lifecycle.ActionVerify && task.Reward > 0 {
			if err := tx.Users.AddPoints(ctx, task.Helper(), task.Reward, in.Now); err != nil {
				return fmt.Errorf("award points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if lifecycle.PurgesMessages(tr.Action) {
		s.purge(ctx, key)
	}
	s.logger.Info("task status changed",
		zap.String("task_id", key),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("user_id", userID),
	)
	s.notify(ctx, tr.Action, task, task.Helper())
	return s.Get(ctx, userID, key)
}

// Stats summarizes tasks for the admin dashboard.
func (s *TaskService) Stats(ctx context.Context) (*api.AdminStats, error) {
	byStatus, err := s.store.Tasks.CountBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	byCategory, err := s.store.Tasks.CountBy(ctx, "category")
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks.Locations(ctx, s.cfg.LocationsLimit)
	if err != nil {
		return nil, err
	}
	stats := &api.AdminStats{
		ByStatus:   byStatus,
		ByCategory: byCategory,
		Locations:  make([]api.Location, 0, len(tasks)),
	}
	for _, t := range tasks {
		stats.Locations = append(stats.Locations, api.Location{KeyString: t.ID, Lat: t.Lat, Lng: t.Lng})
	}
	return stats, nil
}

func (s *TaskService) load(ctx context.Context, key string) (*models.Task, error) {
	if key == "" {
		return nil, invalidf("task key is required")
	}
	task, err := s.store.Tasks.GetByID(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "task not found")
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// purge drops the chat thread of a task. Failures are left to the janitor.
func (s *TaskService) purge(ctx context.Context, key string) {
	if _, err := s.store.Messages.DeleteByTask(ctx, key); err != nil {
		s.logger.Warn("purge messages failed", zap.String("task_id", key), zap.Error(err))
	}
	if _, err := s.store.Notifications.DeleteByTask(ctx, key); err != nil {
		s.logger.Warn("purge notifications failed", zap.String("task_id", key), zap.Error(err))
	}
}

// notify emails the counterpart of a lifecycle step. Failures are logged.
func (s *TaskService) notify(ctx context.Context, action lifecycle.Action, task *models.Task, helperID string) {
	if s.notifier == nil {
		return
	}
	summary := email.TaskSummary{Key: task.ID, Overview: task.Overview, Reward: task.Reward}

	var err error
	switch action {
	case lifecycle.ActionClaim, lifecycle.ActionComplete:
		owner, lookupErr := s.store.Users.GetByID(ctx, task.OwnerID)
		if lookupErr != nil {
			err = lookupErr
			break
		}
		to := email.Recipient{Email: owner.Email, Nickname: owner.Nickname}
		helper := s.nicknames.Lookup(ctx, helperID)
		if action == lifecycle.ActionClaim {
			err = s.notifier.SendTaskClaimed(ctx, to, summary, helper)
		} else {
			err = s.notifier.SendAwaitingVerification(ctx, to, summary, helper)
		}
	case lifecycle.ActionVerify:
		helper, lookupErr := s.store.Users.GetByID(ctx, helperID)
		if lookupErr != nil {
			err = lookupErr
			break
		}
		err = s.notifier.SendTaskVerified(ctx, email.Recipient{Email: helper.Email, Nickname: helper.Nickname}, summary)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("lifecycle email failed",
			zap.String("task_id", task.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func (s *TaskService) view(ctx context.Context, m *memo, t *models.Task, viewerID string) api.Task {
	helperNickname := api.NoHelper
	if h := t.Helper(); h != "" {
		helperNickname = m.lookup(ctx, h)
	}
	return api.Task{
		KeyString:          t.ID,
		Owner:              t.OwnerID,
		OwnerNickname:      m.lookup(ctx, t.OwnerID),
		Helper:             t.Helper(),
		HelperNickname:     helperNickname,
		Status:             t.Status,
		Category:           t.Category,
		Overview:           t.Overview,
		Detail:             t.Detail,
		Reward:             t.Reward,
		Address:            t.Address,
		Zipcode:            t.Zipcode,
		Country:            t.Country,
		Lat:                t.Lat,
		Lng:                t.Lng,
		CreationTime:       t.CreatedAt,
		DateTime:           s.renderer.DateTime(t.CreatedAt),
		Version:            t.Version,
		IsOwnerCurrentUser: viewerID != "" && viewerID == t.OwnerID,
	}
}

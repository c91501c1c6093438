package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/neighborhelp/internal/geo"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

var taskColumns = []string{
	"id", "owner_id", "helper_id", "status", "category", "overview", "detail",
	"reward", "address", "zipcode", "country", "lat", "lng", "version",
	"created_at", "updated_at",
}

type TaskRepository struct {
	base
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{base: newBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *TaskRepository) WithTx(tx *sqlx.Tx) *TaskRepository {
	return &TaskRepository{base: r.withTx(tx)}
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext, `INSERT INTO tasks (
		id, owner_id, helper_id, status, category, overview, detail, reward,
		address, zipcode, country, lat, lng, version, created_at, updated_at
	) VALUES (
		:id, :owner_id, :helper_id, :status, :category, :overview, :detail, :reward,
		:address, :zipcode, :country, :lat, :lng, :version, :created_at, :updated_at
	)`, t)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	q := r.builder().Select(taskColumns...).
		From(sql.Table("tasks")).
		Where(sql.EQ("id", id))
	if err := r.get(ctx, &t, q); err != nil {
		return nil, err
	}
	return &t, nil
}

// FeedFilter selects open tasks for the feed.
type FeedFilter struct {
	// Category is matched exactly; empty means every category.
	Category string
	// Box restricts coordinates; the caller refines by exact distance.
	Box     *geo.Box
	Zipcode string
	Country string
	Limit   int
}

// ListOpen returns open tasks newest first.
func (r *TaskRepository) ListOpen(ctx context.Context, f FeedFilter) ([]models.Task, error) {
	preds := []*sql.Predicate{sql.EQ("status", string(lifecycle.StatusOpen))}
	if f.Category != "" {
		preds = append(preds, sql.EQ("category", f.Category))
	}
	if f.Box != nil {
		preds = append(preds,
			sql.GTE("lat", f.Box.MinLat), sql.LTE("lat", f.Box.MaxLat),
			sql.GTE("lng", f.Box.MinLng), sql.LTE("lng", f.Box.MaxLng),
		)
	}
	if f.Zipcode != "" {
		preds = append(preds, sql.EQ("zipcode", f.Zipcode), sql.EQ("country", f.Country))
	}

	q := r.builder().Select(taskColumns...).
		From(sql.Table("tasks")).
		Where(sql.And(preds...)).
		OrderBy(sql.Desc("created_at"), sql.Desc("id"))
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var tasks []models.Task
	if err := r.selectAll(ctx, &tasks, q); err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	return tasks, nil
}

// ParticipantFilter selects the tasks a user owns or helps with.
type ParticipantFilter struct {
	UserID   string
	AsHelper bool
	Statuses []lifecycle.Status
	After    paging.Cursor
	Limit    int
}

// ListByParticipant pages through a user's tasks newest first.
func (r *TaskRepository) ListByParticipant(ctx context.Context, f ParticipantFilter) ([]models.Task, error) {
	column := "owner_id"
	if f.AsHelper {
		column = "helper_id"
	}
	preds := []*sql.Predicate{sql.EQ(column, f.UserID)}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		preds = append(preds, sql.In("status", anySlice(statuses)...))
	}
	if !f.After.IsZero() {
		preds = append(preds, after("created_at", f.After))
	}

	q := r.builder().Select(taskColumns...).
		From(sql.Table("tasks")).
		Where(sql.And(preds...)).
		OrderBy(sql.Desc("created_at"), sql.Desc("id")).
		Limit(f.Limit)

	var tasks []models.Task
	if err := r.selectAll(ctx, &tasks, q); err != nil {
		return nil, fmt.Errorf("list participant tasks: %w", err)
	}
	return tasks, nil
}

// TransitionInput describes a compare-and-swap status change.
type TransitionInput struct {
	ID   string
	From lifecycle.Status
	To   lifecycle.Status
	// ExpectVersion of 0 skips the version comparison.
	ExpectVersion int64
	// HelperID is assigned when set; ClearHelper removes the assignment.
	HelperID    string
	ClearHelper bool
	Now         int64
}

// Transition applies in only if the row still has the expected status and
// version. It reports whether the row changed.
func (r *TaskRepository) Transition(ctx context.Context, in TransitionInput) (bool, error) {
	u := r.builder().Update("tasks").
		Set("status", string(in.To)).
		Set("updated_at", in.Now).
		Add("version", 1)
	switch {
	case in.ClearHelper:
		u = u.SetNull("helper_id")
	case in.HelperID != "":
		u = u.Set("helper_id", in.HelperID)
	}

	preds := []*sql.Predicate{sql.EQ("id", in.ID), sql.EQ("status", string(in.From))}
	if in.ExpectVersion > 0 {
		preds = append(preds, sql.EQ("version", in.ExpectVersion))
	}
	n, err := r.exec(ctx, u.Where(sql.And(preds...)))
	if err != nil {
		return false, fmt.Errorf("transition task: %w", err)
	}
	return n == 1, nil
}

// DetailsInput carries the editable fields of an open task.
type DetailsInput struct {
	ID            string
	OwnerID       string
	Category      string
	Overview      string
	Detail        string
	Reward        int64
	ExpectVersion int64
	Now           int64
}

// UpdateDetails edits an open task owned by in.OwnerID. It reports whether
// the row changed.
func (r *TaskRepository) UpdateDetails(ctx context.Context, in DetailsInput) (bool, error) {
	preds := []*sql.Predicate{
		sql.EQ("id", in.ID),
		sql.EQ("owner_id", in.OwnerID),
		sql.EQ("status", string(lifecycle.StatusOpen)),
	}
	if in.ExpectVersion > 0 {
		preds = append(preds, sql.EQ("version", in.ExpectVersion))
	}
	u := r.builder().Update("tasks").
		Set("category", in.Category).
		Set("overview", in.Overview).
		Set("detail", in.Detail).
		Set("reward", in.Reward).
		Set("updated_at", in.Now).
		Add("version", 1).
		Where(sql.And(preds...))

	n, err := r.exec(ctx, u)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	return n == 1, nil
}

// DeleteOpen removes an open task owned by ownerID.
func (r *TaskRepository) DeleteOpen(ctx context.Context, id, ownerID string) (bool, error) {
	d := r.builder().Delete("tasks").Where(sql.And(
		sql.EQ("id", id),
		sql.EQ("owner_id", ownerID),
		sql.EQ("status", string(lifecycle.StatusOpen)),
	))
	n, err := r.exec(ctx, d)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return n == 1, nil
}

type bucket struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// CountBy groups all tasks by status or category.
func (r *TaskRepository) CountBy(ctx context.Context, column string) (map[string]int, error) {
	if column != "status" && column != "category" {
		return nil, fmt.Errorf("cannot group tasks by %q", column)
	}
	q := r.builder().Select(sql.As(column, "key"), sql.As(sql.Count("*"), "count")).
		From(sql.Table("tasks")).
		GroupBy(column)

	var rows []bucket
	if err := r.selectAll(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("count tasks by %s: %w", column, err)
	}
	out := make(map[string]int, len(rows))
	for _, b := range rows {
		out[b.Key] = b.Count
	}
	return out, nil
}

// Locations returns the coordinates of the newest tasks.
func (r *TaskRepository) Locations(ctx context.Context, limit int) ([]models.Task, error) {
	q := r.builder().Select("id", "lat", "lng").
		From(sql.Table("tasks")).
		OrderBy(sql.Desc("created_at")).
		Limit(limit)

	var tasks []models.Task
	if err := r.selectAll(ctx, &tasks, q); err != nil {
		return nil, fmt.Errorf("list task locations: %w", err)
	}
	return tasks, nil
}

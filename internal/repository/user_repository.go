package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/neighborhelp/internal/geo"
	"github.com/gurkanbulca/neighborhelp/internal/models"
)

var userColumns = []string{
	"id", "email", "password_hash", "nickname", "address", "zipcode", "country",
	"phone", "lat", "lng", "points", "role", "created_at", "updated_at",
}

type UserRepository struct {
	base
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{base: newBase(db)}
}

func (r *UserRepository) WithTx(tx *sqlx.Tx) *UserRepository {
	return &UserRepository{base: r.withTx(tx)}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	_, err := sqlx.NamedExecContext(ctx, r.ext, `INSERT INTO users (
		id, email, password_hash, nickname, address, zipcode, country, phone,
		lat, lng, points, role, created_at, updated_at
	) VALUES (
		:id, :email, :password_hash, :nickname, :address, :zipcode, :country, :phone,
		:lat, :lng, :points, :role, :created_at, :updated_at
	)`, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", strings.ToLower(email))
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	var u models.User
	q := r.builder().Select(userColumns...).
		From(sql.Table("users")).
		Where(sql.EQ(column, value))
	if err := r.get(ctx, &u, q); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile writes the user editable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	q := r.builder().Update("users").
		Set("nickname", u.Nickname).
		Set("address", u.Address).
		Set("zipcode", u.Zipcode).
		Set("country", u.Country).
		Set("phone", u.Phone).
		Set("lat", u.Lat).
		Set("lng", u.Lng).
		Set("updated_at", u.UpdatedAt).
		Where(sql.EQ("id", u.ID))
	n, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPoints credits delta reward points to a user.
func (r *UserRepository) AddPoints(ctx context.Context, id string, delta int64, now int64) error {
	q := r.builder().Update("users").
		Add("points", delta).
		Set("updated_at", now).
		Where(sql.EQ("id", id))
	n, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ScoreFilter scopes the leaderboard.
type ScoreFilter struct {
	Zipcode string
	Country string
	Box     *geo.Box
	Limit   int
}

// TopScorers returns users ordered by points, highest first.
func (r *UserRepository) TopScorers(ctx context.Context, f ScoreFilter) ([]models.User, error) {
	var preds []*sql.Predicate
	if f.Zipcode != "" {
		preds = append(preds, sql.EQ("zipcode", f.Zipcode), sql.EQ("country", f.Country))
	}
	if f.Box != nil {
		preds = append(preds,
			sql.NotNull("lat"), sql.NotNull("lng"),
			sql.GTE("lat", f.Box.MinLat), sql.LTE("lat", f.Box.MaxLat),
			sql.GTE("lng", f.Box.MinLng), sql.LTE("lng", f.Box.MaxLng),
		)
	}

	q := r.builder().Select(userColumns...).
		From(sql.Table("users")).
		OrderBy(sql.Desc("points"), sql.Asc("created_at")).
		Limit(f.Limit)
	if len(preds) > 0 {
		q = q.Where(sql.And(preds...))
	}

	var users []models.User
	if err := r.selectAll(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list top scorers: %w", err)
	}
	return users, nil
}

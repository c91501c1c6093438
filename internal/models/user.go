package models

import "database/sql"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// DefaultNickname is shown for users who never filled in a profile.
	DefaultNickname = "Neighbor"
)

type User struct {
	ID           string          `db:"id"`
	Email        string          `db:"email"`
	PasswordHash string          `db:"password_hash"`
	Nickname     string          `db:"nickname"`
	Address      string          `db:"address"`
	Zipcode      string          `db:"zipcode"`
	Country      string          `db:"country"`
	Phone        string          `db:"phone"`
	Lat          sql.NullFloat64 `db:"lat"`
	Lng          sql.NullFloat64 `db:"lng"`
	Points       int64           `db:"points"`
	Role         string          `db:"role"`
	CreatedAt    int64           `db:"created_at"`
	UpdatedAt    int64           `db:"updated_at"`
}

// HasLocation reports whether the profile carries coordinates.
func (u *User) HasLocation() bool { return u.Lat.Valid && u.Lng.Valid }

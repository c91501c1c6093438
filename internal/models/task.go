package models

import (
	"database/sql"
	"strings"
	"time"
)

// Category constants
const (
	CategoryAll      = "all"
	CategoryGarden   = "garden"
	CategoryShopping = "shopping"
	CategoryPets     = "pets"
	CategoryMisc     = "misc"
)

var Categories = []string{CategoryGarden, CategoryShopping, CategoryPets, CategoryMisc}

// NormalizeCategory lowercases c and reports whether it is a known category.
func NormalizeCategory(c string) (string, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return c, false
}

const (
	MaxReward = 200
	// DateTimeLayout renders as HH:mm MM-dd-yyyy.
	DateTimeLayout = "15:04 01-02-2006"
)

type Task struct {
	ID        string         `db:"id"`
	OwnerID   string         `db:"owner_id"`
	HelperID  sql.NullString `db:"helper_id"`
	Status    string         `db:"status"`
	Category  string         `db:"category"`
	Overview  string         `db:"overview"`
	Detail    string         `db:"detail"`
	Reward    int64          `db:"reward"`
	Address   string         `db:"address"`
	Zipcode   string         `db:"zipcode"`
	Country   string         `db:"country"`
	Lat       float64        `db:"lat"`
	Lng       float64        `db:"lng"`
	Version   int64          `db:"version"`
	CreatedAt int64          `db:"created_at"`
	UpdatedAt int64          `db:"updated_at"`
}

// Helper returns the helper id or "" when the task is unclaimed.
func (t *Task) Helper() string {
	if t.HelperID.Valid {
		return t.HelperID.String
	}
	return ""
}

func (t *Task) Created() time.Time { return time.UnixMilli(t.CreatedAt) }

func Millis(t time.Time) int64 { return t.UnixMilli() }

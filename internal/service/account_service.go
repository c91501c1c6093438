package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/geo"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/repository"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

const (
	// leaderboard size and the candidate pool it is picked from
	topScorersLimit    = 10
	topScorerCandidate = 100
)

// AccountService manages profiles and the points leaderboard.
type AccountService struct {
	store     *repository.Store
	nicknames *Nicknames
	validate  *ValidationConfig
	radius    float64
	logger    *zap.Logger
	now       func() time.Time
}

func NewAccountService(store *repository.Store, nicknames *Nicknames, defaultRadiusMiles float64, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:     store,
		nicknames: nicknames,
		validate:  DefaultValidationConfig(),
		radius:    defaultRadiusMiles,
		logger:    logger,
		now:       time.Now,
	}
}

// Profile returns the user's own account.
func (s *AccountService) Profile(ctx context.Context, userID string) (*api.User, error) {
	u, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "account not found")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	view := userView(u, userID, true)
	return &view, nil
}

// UpdateProfile stores the profile form and refreshes the cached nickname.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, p api.Profile) (*api.User, error) {
	p, err := s.validate.profile(p)
	if err != nil {
		return nil, err
	}
	u, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "account not found")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	u.Nickname = p.Nickname
	u.Address = p.Address
	u.Zipcode = p.Zipcode
	u.Country = p.Country
	u.Phone = p.Phone
	u.Lat = sql.NullFloat64{Float64: p.Lat, Valid: true}
	u.Lng = sql.NullFloat64{Float64: p.Lng, Valid: true}
	u.UpdatedAt = s.now().UnixMilli()
	if err := s.store.Users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	s.nicknames.Remember(ctx, u.ID, u.Nickname)
	s.logger.Info("profile updated", zap.String("user_id", u.ID))
	view := userView(u, userID, true)
	return &view, nil
}

// ScoreQuery scopes the leaderboard to a neighborhood or a radius. A zero
// query ranks everyone.
type ScoreQuery struct {
	Zipcode string
	Country string
	Lat     *float64
	Lng     *float64
	Miles   float64
}

// TopScorers ranks users by points. viewerID, when set, is flagged in the
// result.
func (s *AccountService) TopScorers(ctx context.Context, viewerID string, q ScoreQuery) ([]api.User, error) {
	filter := repository.ScoreFilter{Limit: topScorersLimit}

	var center *geo.Point
	var radius float64
	switch {
	case q.Lat != nil && q.Lng != nil:
		point, miles, err := s.validate.area(*q.Lat, *q.Lng, q.Miles, s.radius)
		if err != nil {
			return nil, err
		}
		center = &point
		radius = geo.MilesToMeters(miles)
		box := geo.BoundingBox(*center, radius)
		filter.Box = &box
		filter.Limit = topScorerCandidate
	case q.Zipcode != "" || q.Country != "":
		if q.Zipcode == "" || q.Country == "" {
			return nil, invalidf("zipcode and country go together")
		}
		filter.Zipcode = strings.TrimSpace(q.Zipcode)
		filter.Country = strings.ToUpper(strings.TrimSpace(q.Country))
	}

	users, err := s.store.Users.TopScorers(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]api.User, 0, topScorersLimit)
	for i := range users {
		u := &users[i]
		if center != nil && !geo.Within(*center, geo.Point{Lat: u.Lat.Float64, Lng: u.Lng.Float64}, radius) {
			continue
		}
		out = append(out, userView(u, viewerID, false))
		if len(out) == topScorersLimit {
			break
		}
	}
	return out, nil
}

// userView renders u for viewerID; private fields only go to the owner.
func userView(u *models.User, viewerID string, private bool) api.User {
	nickname := u.Nickname
	if nickname == "" {
		nickname = models.DefaultNickname
	}
	v := api.User{
		UserID:        u.ID,
		Nickname:      nickname,
		Zipcode:       u.Zipcode,
		Country:       u.Country,
		Points:        u.Points,
		IsCurrentUser: viewerID != "" && viewerID == u.ID,
	}
	if private {
		v.Email = u.Email
		v.Address = u.Address
		v.Phone = u.Phone
		v.Role = u.Role
		if u.HasLocation() {
			lat, lng := u.Lat.Float64, u.Lng.Float64
			v.Lat, v.Lng = &lat, &lng
		}
	}
	return v
}

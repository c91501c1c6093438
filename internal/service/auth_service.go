// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/repository"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/auth"
)

type AuthService struct {
	users           *repository.UserRepository
	nicknames       *Nicknames
	tokenManager    *auth.TokenManager
	passwordManager *auth.PasswordManager
	adminEmails     map[string]bool
	logger          *zap.Logger
	now             func() time.Time
}

// NewAuthService creates a new authentication service. Accounts registered
// with one of adminEmails get the admin role.
func NewAuthService(
	users *repository.UserRepository,
	nicknames *Nicknames,
	tokenManager *auth.TokenManager,
	passwordManager *auth.PasswordManager,
	adminEmails []string,
	logger *zap.Logger,
) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &AuthService{
		users:           users,
		nicknames:       nicknames,
		tokenManager:    tokenManager,
		passwordManager: passwordManager,
		adminEmails:     admins,
		logger:          logger,
		now:             time.Now,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req api.Credentials) (*api.TokenPair, error) {
	if err := s.validateRegisterRequest(&req); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, newError(ErrAlreadyExists, "an account with this email already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	hashed, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, invalidf("%s", err.Error())
	}

	role := models.RoleUser
	if s.adminEmails[req.Email] {
		role = models.RoleAdmin
	}

	now := s.now().UnixMilli()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hashed,
		Nickname:     req.Nickname,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.nicknames.Remember(ctx, u.ID, u.Nickname)

	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("role", role))
	return s.issue(u)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req api.Credentials) (*api.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, invalidf("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("login failed", zap.String("reason", "unknown email"))
			return nil, newError(ErrUnauthenticated, "invalid credentials")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := s.passwordManager.ComparePassword(u.PasswordHash, req.Password); err != nil {
		s.logger.Info("login failed", zap.String("user_id", u.ID), zap.String("reason", "wrong password"))
		return nil, newError(ErrUnauthenticated, "invalid credentials")
	}
	return s.issue(u)
}

// Refresh exchanges a refresh token for a new pair. The account is reloaded
// so role and nickname changes reach the new tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error) {
	if refreshToken == "" {
		return nil, invalidf("refresh token is required")
	}
	claims, err := s.tokenManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, newError(ErrUnauthenticated, "invalid refresh token")
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthenticated, "account no longer exists")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*api.TokenPair, error) {
	pair, err := s.tokenManager.GenerateTokenPair(auth.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     u.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &api.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.UnixMilli(),
		UserID:       u.ID,
	}, nil
}

// Validation helpers
func (s *AuthService) validateRegisterRequest(req *api.Credentials) error {
	var errs []string

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Nickname = strings.TrimSpace(req.Nickname)

	if err := auth.ValidateEmail(req.Email); err != nil {
		errs = append(errs, err.Error())
	}
	if req.Nickname == "" {
		req.Nickname = models.DefaultNickname
	} else if err := auth.ValidateNickname(req.Nickname); err != nil {
		errs = append(errs, err.Error())
	}
	if err := s.passwordManager.ValidatePassword(req.Password); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return invalidf("%s", strings.Join(errs, "; "))
	}
	return nil
}

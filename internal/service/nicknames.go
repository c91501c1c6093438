package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/cache"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/repository"
)

// Nicknames resolves user ids to display names through the cache.
type Nicknames struct {
	users  *repository.UserRepository
	cache  cache.NicknameCache
	logger *zap.Logger
}

func NewNicknames(users *repository.UserRepository, c cache.NicknameCache, logger *zap.Logger) *Nicknames {
	return &Nicknames{users: users, cache: c, logger: logger}
}

// Lookup never fails; unknown users and lookup errors yield the default
// nickname.
func (n *Nicknames) Lookup(ctx context.Context, userID string) string {
	if userID == "" {
		return models.DefaultNickname
	}
	if v, ok := n.cache.Get(ctx, userID); ok {
		return v
	}
	u, err := n.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			n.logger.Warn("nickname lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return models.DefaultNickname
	}
	nickname := u.Nickname
	if nickname == "" {
		nickname = models.DefaultNickname
	}
	n.cache.Set(ctx, userID, nickname)
	return nickname
}

func (n *Nicknames) Remember(ctx context.Context, userID, nickname string) {
	n.cache.Set(ctx, userID, nickname)
}

// memo is a per-request Lookup cache.
type memo struct {
	n    *Nicknames
	seen map[string]string
}

func (n *Nicknames) memo() *memo {
	return &memo{n: n, seen: make(map[string]string)}
}

func (m *memo) lookup(ctx context.Context, userID string) string {
	if v, ok := m.seen[userID]; ok {
		return v
	}
	v := m.n.Lookup(ctx, userID)
	m.seen[userID] = v
	return v
}

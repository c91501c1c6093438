package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurkanbulca/neighborhelp/internal/cache"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/render"
	"github.com/gurkanbulca/neighborhelp/internal/repository"
	"github.com/gurkanbulca/neighborhelp/internal/testutil"
	"github.com/gurkanbulca/neighborhelp/pkg/auth"
	"github.com/gurkanbulca/neighborhelp/pkg/email"
)

type testEnv struct {
	db            *sqlx.DB
	h             *testutil.TestHelpers
	store         *repository.Store
	notifier      *email.MockNotifier
	nicknames     *Nicknames
	tasks         *TaskService
	messages      *MessageService
	notifications *NotificationService
	accounts      *AccountService
	auth          *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	logger := zap.NewNop()
	notifier := email.NewMockNotifier()
	nicknames := NewNicknames(store.Users, cache.NewMemoryCache(time.Minute), logger)

	cfg := DefaultTaskConfig()
	tokens := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	return &testEnv{
		db:            db,
		h:             testutil.NewTestHelpers(t, db),
		store:         store,
		notifier:      notifier,
		nicknames:     nicknames,
		tasks:         NewTaskService(store, nicknames, render.New(time.UTC), notifier, cfg, logger),
		messages:      NewMessageService(store, 10, logger),
		notifications: NewNotificationService(store),
		accounts:      NewAccountService(store, nicknames, cfg.DefaultRadiusMiles, logger),
		auth: NewAuthService(store.Users, nicknames, tokens, auth.NewPasswordManager(bcrypt.MinCost),
			[]string{"Admin@Example.com"}, logger),
	}
}

// createBareUser inserts an account that never filled in a profile.
func (e *testEnv) createBareUser(t *testing.T) *models.User {
	t.Helper()
	ts := e.h.Tick()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
}

func ptr[T any](v T) *T { return &v }

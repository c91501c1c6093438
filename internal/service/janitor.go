package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/repository"
)

// Janitor removes chat data left behind by deleted tasks.
type Janitor struct {
	store    *repository.Store
	interval time.Duration
	logger   *zap.Logger
}

func NewJanitor(store *repository.Store, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{store: store, interval: interval, logger: logger}
}

// Run sweeps on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	j.logger.Info("starting cleanup job", zap.Duration("interval", j.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := j.Sweep(ctx); err != nil {
				j.logger.Warn("cleanup failed", zap.Error(err))
			}
		}
	}
}

// Sweep deletes orphaned messages and notifications once.
func (j *Janitor) Sweep(ctx context.Context) (messages, notifications int64, err error) {
	messages, err = j.store.Messages.DeleteOrphans(ctx)
	if err != nil {
		return 0, 0, err
	}
	notifications, err = j.store.Notifications.DeleteOrphans(ctx)
	if err != nil {
		return messages, 0, err
	}
	if messages > 0 || notifications > 0 {
		j.logger.Info("cleanup completed",
			zap.Int64("messages", messages),
			zap.Int64("notifications", notifications),
		)
	}
	return messages, notifications, nil
}

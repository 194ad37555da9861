package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops expired entries and reports how many.
type Sweeper interface {
	Sweep() int
}

// SessionSweepJob evicts expired in-memory sessions.
type SessionSweepJob struct {
	store  Sweeper
	logger *zap.Logger
}

func NewSessionSweepJob(store Sweeper, logger *zap.Logger) *SessionSweepJob {
	return &SessionSweepJob{store: store, logger: logger}
}

func (j *SessionSweepJob) Name() string { return "SessionSweepJob" }

func (j *SessionSweepJob) Run() {
	if n := j.store.Sweep(); n > 0 {
		j.logger.Info("expired sessions removed", zap.Int("count", n))
	}
}

// ReadInboxPurger deletes read inbox messages older than a cutoff.
type ReadInboxPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// InboxRetentionJob purges read inbox messages past the retention window.
type InboxRetentionJob struct {
	inbox     ReadInboxPurger
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewInboxRetentionJob(inbox ReadInboxPurger, retention time.Duration, logger *zap.Logger) *InboxRetentionJob {
	return &InboxRetentionJob{inbox: inbox, retention: retention, logger: logger, now: time.Now}
}

func (j *InboxRetentionJob) Name() string { return "InboxRetentionJob" }

func (j *InboxRetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := j.inbox.DeleteReadBefore(ctx, j.now().Add(-j.retention))
	if err != nil {
		j.logger.Error("purge read inbox messages failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Info("purged read inbox messages", zap.Int64("count", n))
	}
}

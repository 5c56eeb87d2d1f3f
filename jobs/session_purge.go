package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wanderstay/wanderstay/internal/auth"
	jobmetrics "github.com/wanderstay/wanderstay/internal/jobs"
)

// SessionPurgeJob deletes expired session audit rows.
type SessionPurgeJob struct {
	Sessions *auth.PGSessionRepository
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewSessionPurgeJob wires dependencies for the purge handler.
func NewSessionPurgeJob(sessions *auth.PGSessionRepository, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionPurgeJob {
	return &SessionPurgeJob{Sessions: sessions, Logger: logger, Metrics: metrics}
}

// Handle processes session purge tasks.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sessions == nil {
		return errors.New("session purge: handler not configured")
	}
	tracker := j.Metrics.Track(TaskSessionPurge)
	removed, err := j.Sessions.PurgeExpired(ctx, time.Now())
	err = tracker.End(err)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("purge sessions", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("expired sessions purged", slog.Int64("removed", removed))
	}
	return nil
}

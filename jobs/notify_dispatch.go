package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/wanderstay/wanderstay/internal/jobs"
	"github.com/wanderstay/wanderstay/internal/notifications"
)

// NotifyDispatchJob delivers queued notifications to recipient inboxes.
type NotifyDispatchJob struct {
	Notifications *notifications.Service
	Logger        *slog.Logger
	Metrics       *jobmetrics.Metrics
}

// NewNotifyDispatchJob wires dependencies for the dispatch handler.
func NewNotifyDispatchJob(svc *notifications.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotifyDispatchJob {
	return &NotifyDispatchJob{Notifications: svc, Logger: logger, Metrics: metrics}
}

// Handle processes notification fan-out tasks.
func (j *NotifyDispatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Notifications == nil {
		return errors.New("notify dispatch: handler not configured")
	}
	var payload NotifyDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskNotifyDispatch)
	err := j.Notifications.Deliver(ctx, payload.Input)
	err = tracker.End(err)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("deliver notifications",
				slog.Int("recipients", len(payload.Input.UserIDs)),
				slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("notifications delivered",
			slog.String("kind", string(payload.Input.Kind)),
			slog.Int("recipients", len(payload.Input.UserIDs)))
	}
	return nil
}

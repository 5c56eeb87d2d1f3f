package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/wanderstay/wanderstay/internal/notifications"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotifyDispatch fans a notification out to recipient inboxes.
	TaskNotifyDispatch = "notify:dispatch"
	// TaskRatingSweep recomputes denormalised accommodation ratings.
	TaskRatingSweep = "catalog:rating_sweep"
	// TaskSessionPurge trims expired session audit rows.
	TaskSessionPurge = "auth:session_purge"
)

// NotifyDispatchPayload carries the notification fan-out request.
type NotifyDispatchPayload struct {
	Input notifications.SendInput `json:"input"`
}

// NewNotifyDispatchTask constructs an Asynq task for notification fan-out.
func NewNotifyDispatchTask(input notifications.SendInput) (*asynq.Task, error) {
	data, err := json.Marshal(NotifyDispatchPayload{Input: input})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyDispatch, data, asynq.Queue(QueueDefault)), nil
}

// RatingSweepPayload contains options for the rating sweep job.
type RatingSweepPayload struct {
	Force bool `json:"force"`
}

// NewRatingSweepTask builds a rating sweep task.
func NewRatingSweepTask(force bool) (*asynq.Task, error) {
	data, err := json.Marshal(RatingSweepPayload{Force: force})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRatingSweep, data, asynq.Queue(QueueDefault)), nil
}

// NewSessionPurgeTask builds a session purge task.
func NewSessionPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionPurge, nil, asynq.Queue(QueueDefault))
}

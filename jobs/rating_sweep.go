package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/wanderstay/wanderstay/internal/jobs"
	"github.com/wanderstay/wanderstay/internal/shared"
)

const ratingSweepLockTTL = 10 * time.Minute

// RatingSweepJob recomputes the denormalised rating columns on every
// accommodation from its published reviews. The per-entity refresh runs
// inline on moderation; the sweep catches drift from crashed refreshes.
type RatingSweepJob struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRatingSweepJob wires dependencies for the sweep handler.
func NewRatingSweepJob(pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *RatingSweepJob {
	return &RatingSweepJob{Pool: pool, Redis: redisClient, Logger: logger, Metrics: metrics}
}

// Handle processes rating sweep tasks. Overlapping runs are skipped by a
// Redis lock unless the payload forces execution.
func (j *RatingSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("rating sweep: handler not configured")
	}
	var payload RatingSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if j.Redis != nil && !payload.Force {
		lockKey := shared.ReindexLockKey("accommodation")
		ok, err := j.Redis.SetNX(ctx, lockKey, "1", ratingSweepLockTTL).Result()
		if err != nil {
			return err
		}
		if !ok {
			if j.Logger != nil {
				j.Logger.Info("rating sweep already running, skipping")
			}
			return nil
		}
		defer j.Redis.Del(context.WithoutCancel(ctx), lockKey)
	}

	tracker := j.Metrics.Track(TaskRatingSweep)
	err := j.sweep(ctx)
	err = tracker.End(err)
	if err != nil && j.Logger != nil {
		j.Logger.Error("rating sweep", slog.Any("error", err))
	}
	return err
}

func (j *RatingSweepJob) sweep(ctx context.Context) error {
	tag, err := j.Pool.Exec(ctx, `
		UPDATE accommodations a SET
			rating = COALESCE(r.avg, 0),
			review_count = COALESCE(r.cnt, 0)
		FROM (
			SELECT accommodation_id, AVG(rating) AS avg, COUNT(*) AS cnt
			FROM reviews
			WHERE status = 'PUBLISHED' AND deleted_at IS NULL
			GROUP BY accommodation_id
		) r
		WHERE a.id = r.accommodation_id
		  AND (a.rating IS DISTINCT FROM COALESCE(r.avg, 0)
		   OR  a.review_count IS DISTINCT FROM COALESCE(r.cnt, 0))`)
	if err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("rating sweep finished", slog.Int64("updated", tag.RowsAffected()))
	}
	return nil
}

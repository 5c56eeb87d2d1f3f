package access

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a single access decision appended to the audit trail.
type Entry struct {
	ActorID    string
	ActorRole  Role
	EntityType string
	EntityID   string
	Permission string
	Granted    bool
	Reason     Reason
	Meta       map[string]any
	At         time.Time
}

// Recorder persists access decisions. It is injected into every guard so
// tests can substitute a capturing implementation.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// PGRecorder writes decisions into the access_log table.
type PGRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPGRecorder returns a Recorder backed by PostgreSQL.
func NewPGRecorder(pool *pgxpool.Pool, logger *slog.Logger) *PGRecorder {
	return &PGRecorder{pool: pool, logger: logger}
}

// Record persists the entry. Persistence failures are logged and returned,
// but callers treat recording as best-effort: a denied request stays denied
// even if its trail entry could not be written.
func (r *PGRecorder) Record(ctx context.Context, entry Entry) error {
	if r == nil || r.pool == nil {
		return errors.New("access recorder not initialised")
	}
	if entry.EntityType == "" {
		return errors.New("access entry requires entity type")
	}
	if entry.ActorID == "" {
		entry.ActorID = PublicActorID
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO access_log (actor_id, actor_role, entity_type, entity_id, permission, granted, reason, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE(NULLIF($9, '0001-01-01 00:00:00+00'::timestamptz), NOW()))`,
		entry.ActorID, string(entry.ActorRole), entry.EntityType, entry.EntityID, entry.Permission, entry.Granted, string(entry.Reason), metaJSON, entry.At)
	if err != nil && r.logger != nil {
		r.logger.Error("record access decision", slog.Any("error", err))
	}
	return err
}

var _ Recorder = (*PGRecorder)(nil)

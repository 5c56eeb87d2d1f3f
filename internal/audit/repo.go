package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const timelineColumns = `occurred_at, actor_id, actor_role, entity_type, entity_id, permission, granted, reason, COALESCE(meta->>'action', '')`

// PGRepository reads the access trail from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a PostgreSQL-backed trail repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Window fetches one page of decisions, newest first.
func (r *PGRepository) Window(ctx context.Context, q Query) ([]TimelineRow, error) {
	where, args := buildWhere(q.Filters)
	query := fmt.Sprintf(`SELECT %s FROM access_log %s ORDER BY occurred_at DESC OFFSET $%d LIMIT $%d`,
		timelineColumns, where, len(args)+1, len(args)+2)
	args = append(args, q.Offset, q.Limit)
	return r.query(ctx, query, args)
}

// All fetches every decision in the window, newest first.
func (r *PGRepository) All(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	where, args := buildWhere(filters)
	query := fmt.Sprintf(`SELECT %s FROM access_log %s ORDER BY occurred_at DESC`, timelineColumns, where)
	return r.query(ctx, query, args)
}

func (r *PGRepository) query(ctx context.Context, query string, args []any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		row, err := scanTimelineRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func buildWhere(filters TimelineFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !filters.From.IsZero() {
		clauses = append(clauses, "occurred_at >= "+arg(filters.From.UTC()))
	}
	if !filters.To.IsZero() {
		clauses = append(clauses, "occurred_at < "+arg(filters.To.UTC().Add(24*time.Hour)))
	}
	if v := strings.TrimSpace(filters.Actor); v != "" {
		clauses = append(clauses, "actor_id = "+arg(v))
	}
	if v := strings.TrimSpace(filters.Entity); v != "" {
		clauses = append(clauses, "entity_type = "+arg(v))
	}
	if v := strings.TrimSpace(filters.Reason); v != "" {
		clauses = append(clauses, "reason = "+arg(strings.ToUpper(v)))
	}
	if filters.Granted != nil {
		clauses = append(clauses, "granted = "+arg(*filters.Granted))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanTimelineRow(row pgx.Row) (TimelineRow, error) {
	var out TimelineRow
	err := row.Scan(&out.At, &out.Actor, &out.Role, &out.Entity, &out.EntityID, &out.Permission, &out.Granted, &out.Reason, &out.Action)
	return out, err
}

var _ Repository = (*PGRepository)(nil)

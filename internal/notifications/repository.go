package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderstay/wanderstay/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, user_id, kind, title, body, read_at, created_at`

// GetByID fetches one notification.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	return scanNotification(row)
}

// ListByUser returns one inbox page plus the unpaged total.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, page, perPage int) ([]Notification, int, error) {
	cond := `user_id = $1`
	if onlyUnread {
		cond += ` AND read_at IS NULL`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE `+cond, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	paging := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE `+cond+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, paging.PerPage, paging.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CreateBatch inserts all rows of one fan-out in a single batch round trip.
func (r *Repository) CreateBatch(ctx context.Context, items []Notification) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, n := range items {
		batch.Queue(`INSERT INTO notifications (id, user_id, kind, title, body, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, n.UserID, string(n.Kind), n.Title, n.Body, n.CreatedAt)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range items {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// MarkRead stamps one entry.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read_at = $1 WHERE id = $2 AND read_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkAllRead stamps every unread entry in the inbox.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET read_at = $1 WHERE user_id = $2 AND read_at IS NULL`, at, userID)
	return err
}

// CountUnread returns the unread total for one inbox.
func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	return count, err
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var kind string
	var readAt pgtype.Timestamptz
	err := row.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &readAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	n.Kind = Kind(kind)
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

var _ RepositoryPort = (*Repository)(nil)

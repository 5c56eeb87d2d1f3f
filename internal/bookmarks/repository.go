package bookmarks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const bookmarkColumns = `id, user_id, accommodation_id, note, created_at`

// GetByID fetches one bookmark.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Bookmark, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = $1`, id)
	return scanBookmark(row)
}

// ListByUser returns one user's collection plus the unpaged total.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]Bookmark, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	paging := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, paging.PerPage, paging.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Create inserts a bookmark row. The (user_id, accommodation_id) unique
// index keeps a listing pinned at most once per user.
func (r *Repository) Create(ctx context.Context, b Bookmark) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO bookmarks (id, user_id, accommodation_id, note, created_at) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.UserID, b.AccommodationID, b.Note, b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: accommodation %s already bookmarked", shared.ErrAlreadyExists, b.AccommodationID)
		}
		return err
	}
	return nil
}

// Delete removes the bookmark row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanBookmark(row pgx.Row) (*Bookmark, error) {
	var b Bookmark
	err := row.Scan(&b.ID, &b.UserID, &b.AccommodationID, &b.Note, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

var _ RepositoryPort = (*Repository)(nil)

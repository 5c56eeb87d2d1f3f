package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const reviewColumns = `id, accommodation_id, author_id, rating, title, body, status, created_at, updated_at, moderated_at, moderated_by, deleted_at, deleted_by`

// GetByID fetches one review. Soft-deleted rows are treated as absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanReview(row)
}

// ListByAccommodation returns reviews for one listing plus the unpaged total.
func (r *Repository) ListByAccommodation(ctx context.Context, accommodationID uuid.UUID, filter ListFilter) ([]Review, int, error) {
	args := []any{accommodationID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	cond := "accommodation_id = $1 AND deleted_at IS NULL"
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		clause := "status = ANY(" + arg(statuses) + ")"
		if filter.ViewerID != uuid.Nil {
			clause = "(" + clause + " OR author_id = " + arg(filter.ViewerID) + ")"
		}
		cond += " AND " + clause
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	paging := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT ` + arg(paging.PerPage) + ` OFFSET ` + arg(paging.Offset())
	return r.collect(ctx, query, args, total)
}

// ListByAuthor returns one author's reviews plus the unpaged total.
func (r *Repository) ListByAuthor(ctx context.Context, authorID uuid.UUID, page, perPage int) ([]Review, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE author_id = $1 AND deleted_at IS NULL`, authorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	paging := shared.NewPagination(page, perPage, total)
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE author_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.collect(ctx, query, []any{authorID, paging.PerPage, paging.Offset()}, total)
}

// Create inserts a review row. The (accommodation_id, author_id) unique
// index enforces one review per author per listing.
func (r *Repository) Create(ctx context.Context, rv Review) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO reviews (id, accommodation_id, author_id, rating, title, body, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rv.ID, rv.AccommodationID, rv.AuthorID, rv.Rating, rv.Title, rv.Body, string(rv.Status), rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: review for accommodation %s", shared.ErrAlreadyExists, rv.AccommodationID)
		}
		return err
	}
	return nil
}

// Update patches the review content, forces the given status and clears
// the moderation marks.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch UpdateInput, status Status, updatedAt time.Time) (*Review, error) {
	set := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if patch.Rating != nil {
		set = append(set, "rating = "+arg(*patch.Rating))
	}
	if patch.Title != nil {
		set = append(set, "title = "+arg(*patch.Title))
	}
	if patch.Body != nil {
		set = append(set, "body = "+arg(*patch.Body))
	}
	set = append(set, "status = "+arg(string(status)), "moderated_at = NULL", "moderated_by = NULL", "updated_at = "+arg(updatedAt))

	query := `UPDATE reviews SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + arg(id) + ` AND deleted_at IS NULL RETURNING ` + reviewColumns
	row := r.pool.QueryRow(ctx, query, args...)
	return scanReview(row)
}

// SetStatus records a moderation decision.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status Status, moderatedBy uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reviews SET status = $1, moderated_at = $2, moderated_by = $3, updated_at = $2 WHERE id = $4 AND deleted_at IS NULL`,
		string(status), at, moderatedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete marks the row deleted without removing it.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reviews SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`, at, deletedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) collect(ctx context.Context, query string, args []any, total int) ([]Review, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	var status string
	var moderatedAt, deletedAt pgtype.Timestamptz
	var moderatedBy pgtype.UUID
	var deletedBy pgtype.Text
	err := row.Scan(&rv.ID, &rv.AccommodationID, &rv.AuthorID, &rv.Rating, &rv.Title, &rv.Body, &status,
		&rv.CreatedAt, &rv.UpdatedAt, &moderatedAt, &moderatedBy, &deletedAt, &deletedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	rv.Status = Status(status)
	if moderatedAt.Valid {
		t := moderatedAt.Time
		rv.ModeratedAt = &t
	}
	if moderatedBy.Valid {
		id := uuid.UUID(moderatedBy.Bytes)
		rv.ModeratedBy = &id
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		rv.DeletedAt = &t
	}
	if deletedBy.Valid {
		s := deletedBy.String
		rv.DeletedBy = &s
	}
	return &rv, nil
}

var _ RepositoryPort = (*Repository)(nil)

package accommodations

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

	"github.com/wanderstay/wanderstay/internal/access"
	platformdb "github.com/wanderstay/wanderstay/internal/platform/db"
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

const accommodationColumns = `id, slug, name, summary, type, destination_id, owner_id, visibility, price_per_night, currency, rating, review_count, created_at, created_by, updated_at, deleted_at, deleted_by`

// GetByID fetches one accommodation. Soft-deleted rows read as absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Accommodation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accommodationColumns+` FROM accommodations WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanAccommodation(row)
}

// GetBySlug fetches one accommodation by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Accommodation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accommodationColumns+` FROM accommodations WHERE slug = $1 AND deleted_at IS NULL`, slug)
	return scanAccommodation(row)
}

// Search returns matching accommodations plus the unpaged total.
func (r *Repository) Search(ctx context.Context, filters SearchFilters) ([]Accommodation, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.Visibility != "" {
		where = append(where, "visibility = "+arg(string(filters.Visibility)))
	}
	if filters.DestinationID != uuid.Nil {
		where = append(where, "destination_id = "+arg(filters.DestinationID))
	}
	if filters.OwnerID != uuid.Nil {
		where = append(where, "owner_id = "+arg(filters.OwnerID))
	}
	if filters.Type != "" {
		where = append(where, "type = "+arg(string(filters.Type)))
	}
	if filters.MinPrice > 0 {
		where = append(where, "price_per_night >= "+arg(filters.MinPrice))
	}
	if filters.MaxPrice > 0 {
		where = append(where, "price_per_night <= "+arg(filters.MaxPrice))
	}
	if filters.Query != "" {
		p := arg("%" + strings.ToLower(filters.Query) + "%")
		where = append(where, "(LOWER(name) LIKE "+p+" OR LOWER(summary) LIKE "+p+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accommodations WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	paging := shared.NewPagination(filters.Page, filters.PerPage, total)
	query := `SELECT ` + accommodationColumns + ` FROM accommodations WHERE ` + cond +
		` ORDER BY rating DESC, name ASC LIMIT ` + arg(paging.PerPage) + ` OFFSET ` + arg(paging.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Accommodation
	for rows.Next() {
		a, err := scanAccommodation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Create inserts an accommodation row.
func (r *Repository) Create(ctx context.Context, a Accommodation) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO accommodations (id, slug, name, summary, type, destination_id, owner_id, visibility, price_per_night, currency, created_at, created_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.Slug, a.Name, a.Summary, string(a.Type), a.DestinationID, a.OwnerID, string(a.Visibility), a.PricePerNight, a.Currency, a.CreatedAt, a.CreatedBy, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: accommodation slug %s", shared.ErrAlreadyExists, a.Slug)
		}
		return err
	}
	return nil
}

// Update applies the patch and returns the stored row. The statement can
// only touch mutable columns: id, owner_id, created_at and created_by are
// not reachable from UpdateInput.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Accommodation, error) {
	set := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if patch.Name != nil {
		set = append(set, "name = "+arg(*patch.Name), "slug = "+arg(shared.Slugify(*patch.Name)))
	}
	if patch.Summary != nil {
		set = append(set, "summary = "+arg(*patch.Summary))
	}
	if patch.Type != nil {
		set = append(set, "type = "+arg(string(*patch.Type)))
	}
	if patch.DestinationID != nil {
		set = append(set, "destination_id = "+arg(*patch.DestinationID))
	}
	if patch.Visibility != nil {
		set = append(set, "visibility = "+arg(string(*patch.Visibility)))
	}
	if patch.PricePerNight != nil {
		set = append(set, "price_per_night = "+arg(*patch.PricePerNight))
	}
	if patch.Currency != nil {
		set = append(set, "currency = "+arg(strings.ToUpper(*patch.Currency)))
	}
	set = append(set, "updated_at = "+arg(updatedAt))

	query := `UPDATE accommodations SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + arg(id) + ` AND deleted_at IS NULL RETURNING ` + accommodationColumns
	row := r.pool.QueryRow(ctx, query, args...)
	return scanAccommodation(row)
}

// SoftDelete marks the row deleted and records the deleting actor.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accommodations SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`, at, deletedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HardDelete removes the row and its tag links.
func (r *Repository) HardDelete(ctx context.Context, id uuid.UUID) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accommodation_tags WHERE accommodation_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accommodations WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SetTags replaces the tag links for one listing.
func (r *Repository) SetTags(ctx context.Context, id uuid.UUID, tagIDs []uuid.UUID) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accommodation_tags WHERE accommodation_id = $1`, id); err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO accommodation_tags (accommodation_id, tag_id) VALUES ($1, $2)`, id, tagID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTags returns the tag ids attached to one listing.
func (r *Repository) ListTags(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT tag_id FROM accommodation_tags WHERE accommodation_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var tagID uuid.UUID
		if err := rows.Scan(&tagID); err != nil {
			return nil, err
		}
		ids = append(ids, tagID)
	}
	return ids, rows.Err()
}

// RefreshRating recomputes rating and review_count from published reviews.
func (r *Repository) RefreshRating(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE accommodations SET
rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE accommodation_id = $1 AND status = 'PUBLISHED' AND deleted_at IS NULL), 0),
review_count = (SELECT COUNT(*) FROM reviews WHERE accommodation_id = $1 AND status = 'PUBLISHED' AND deleted_at IS NULL)
WHERE id = $1`, id)
	return err
}

func scanAccommodation(row pgx.Row) (*Accommodation, error) {
	var a Accommodation
	var typ, visibility string
	var deletedAt pgtype.Timestamptz
	var deletedBy pgtype.Text
	err := row.Scan(&a.ID, &a.Slug, &a.Name, &a.Summary, &typ, &a.DestinationID, &a.OwnerID, &visibility,
		&a.PricePerNight, &a.Currency, &a.Rating, &a.ReviewCount, &a.CreatedAt, &a.CreatedBy, &a.UpdatedAt, &deletedAt, &deletedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	a.Type = Type(typ)
	a.Visibility = access.Visibility(visibility)
	if deletedAt.Valid {
		t := deletedAt.Time
		a.DeletedAt = &t
	}
	if deletedBy.Valid {
		s := deletedBy.String
		a.DeletedBy = &s
	}
	return &a, nil
}

var _ RepositoryPort = (*Repository)(nil)

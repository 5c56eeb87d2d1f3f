package destinations

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

const destinationColumns = `id, slug, name, summary, country, visibility, created_by, created_at, updated_at, deleted_at, deleted_by`

// GetByID fetches one destination. Soft-deleted rows are treated as absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Destination, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanDestination(row)
}

// Exists reports whether a live destination with the id is present.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM destinations WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&exists)
	return exists, err
}

// GetBySlug fetches one destination by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Destination, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE slug = $1 AND deleted_at IS NULL`, slug)
	return scanDestination(row)
}

// Search returns matching destinations plus the unpaged total.
func (r *Repository) Search(ctx context.Context, filters SearchFilters) ([]Destination, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.Visibility != "" {
		where = append(where, "visibility = "+arg(string(filters.Visibility)))
	}
	if filters.Country != "" {
		where = append(where, "country = "+arg(filters.Country))
	}
	if filters.Query != "" {
		p := arg("%" + strings.ToLower(filters.Query) + "%")
		where = append(where, "(LOWER(name) LIKE "+p+" OR LOWER(summary) LIKE "+p+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM destinations WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	paging := shared.NewPagination(filters.Page, filters.PerPage, total)
	query := `SELECT ` + destinationColumns + ` FROM destinations WHERE ` + cond +
		` ORDER BY name ASC LIMIT ` + arg(paging.PerPage) + ` OFFSET ` + arg(paging.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Create inserts a destination row.
func (r *Repository) Create(ctx context.Context, d Destination) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO destinations (id, slug, name, summary, country, visibility, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Slug, d.Name, d.Summary, d.Country, string(d.Visibility), d.CreatedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: destination slug %s", shared.ErrAlreadyExists, d.Slug)
		}
		return err
	}
	return nil
}

// Update applies the patch and returns the stored row. Identity and
// provenance columns are never part of the statement.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Destination, error) {
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
	if patch.Country != nil {
		set = append(set, "country = "+arg(*patch.Country))
	}
	if patch.Visibility != nil {
		set = append(set, "visibility = "+arg(string(*patch.Visibility)))
	}
	set = append(set, "updated_at = "+arg(updatedAt))

	query := `UPDATE destinations SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + arg(id) + ` AND deleted_at IS NULL RETURNING ` + destinationColumns
	row := r.pool.QueryRow(ctx, query, args...)
	return scanDestination(row)
}

// SoftDelete marks the row deleted without removing it.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE destinations SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`, at, deletedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanDestination(row pgx.Row) (*Destination, error) {
	var d Destination
	var visibility string
	var deletedAt pgtype.Timestamptz
	var deletedBy pgtype.Text
	err := row.Scan(&d.ID, &d.Slug, &d.Name, &d.Summary, &d.Country, &visibility, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt, &deletedAt, &deletedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	d.Visibility = access.Visibility(visibility)
	if deletedAt.Valid {
		t := deletedAt.Time
		d.DeletedAt = &t
	}
	if deletedBy.Valid {
		s := deletedBy.String
		d.DeletedBy = &s
	}
	return &d, nil
}

var _ RepositoryPort = (*Repository)(nil)

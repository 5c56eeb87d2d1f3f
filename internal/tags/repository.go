package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderstay/wanderstay/internal/platform/db"
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

const tagColumns = `id, slug, name, category, created_by, created_at, updated_at`

// GetByID fetches one tag.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tag, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id)
	return scanTag(row)
}

// GetBySlug fetches one tag by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Tag, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE slug = $1`, slug)
	return scanTag(row)
}

// List returns tags ordered by name plus the unpaged total.
func (r *Repository) List(ctx context.Context, category string, page, perPage int) ([]Tag, int, error) {
	where := "TRUE"
	args := []any{}
	if category != "" {
		args = append(args, category)
		where = "category = $1"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tags WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	paging := shared.NewPagination(page, perPage, total)
	args = append(args, paging.PerPage, paging.Offset())
	query := fmt.Sprintf(`SELECT `+tagColumns+` FROM tags WHERE `+where+` ORDER BY name ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Create inserts a tag row.
func (r *Repository) Create(ctx context.Context, t Tag) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO tags (id, slug, name, category, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Slug, t.Name, t.Category, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: tag slug %s", shared.ErrAlreadyExists, t.Slug)
		}
		return err
	}
	return nil
}

// Update applies the patch and returns the stored row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Tag, error) {
	set := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if patch.Name != nil {
		set = append(set, "name = "+arg(*patch.Name), "slug = "+arg(shared.Slugify(*patch.Name)))
	}
	if patch.Category != nil {
		set = append(set, "category = "+arg(*patch.Category))
	}
	set = append(set, "updated_at = "+arg(updatedAt))

	query := `UPDATE tags SET ` + strings.Join(set, ", ") + ` WHERE id = ` + arg(id) + ` RETURNING ` + tagColumns
	row := r.pool.QueryRow(ctx, query, args...)
	return scanTag(row)
}

// Delete removes the tag and its accommodation attachments together.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accommodation_tags WHERE tag_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanTag(row pgx.Row) (*Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Category, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

var _ RepositoryPort = (*Repository)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/repository"
)

// compile-time check that *DB implements repository.CategoryRepository
var _ repository.CategoryRepository = (*DB)(nil)

// CreateCategory inserts a new category. Slugs are unique; a duplicate slug
// surfaces as apperror.ErrConflict.
func (db *DB) CreateCategory(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()
	category.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (id, title, slug, description, is_published, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.Title,
		category.Slug,
		category.Description,
		category.IsPublished,
		category.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("category", category.Slug)
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}
	return nil
}

// GetCategoryBySlug retrieves a category by its URL slug.
func (db *DB) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var c model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, description, is_published, created_at
		 FROM categories WHERE slug = ?`,
		slug,
	).Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.IsPublished, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category", slug)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", slug, err)
	}
	return &c, nil
}

// ListPublishedCategories returns published categories ordered by title, for
// the post form's category choices.
func (db *DB) ListPublishedCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, slug, description, is_published, created_at
		 FROM categories WHERE is_published = 1 ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.IsPublished, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	return categories, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// The driver exposes no typed error for it, so this matches the message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/repository"
)

// compile-time check that *DB implements repository.PostRepository
var _ repository.PostRepository = (*DB)(nil)

// postColumns is the SELECT list shared by GetByID and List. Every post query
// joins the author and LEFT JOINs category and location, so predicates over
// category publication never require a second round trip.
const postColumns = `
	p.id, p.title, p.text, p.pub_date, p.is_published,
	p.author_id, p.category_id, p.location_id, p.created_at,
	u.username, u.first_name, u.last_name,
	c.title, c.slug, c.is_published,
	l.name, l.is_published`

const postFrom = `
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN locations l ON l.id = p.location_id`

// Create inserts a new post. The ID and CreatedAt are generated here; the
// caller (service layer) has already stamped AuthorID and defaulted PubDate.
func (db *DB) Create(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, text, pub_date, is_published, author_id, category_id, location_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Text,
		post.PubDate,
		post.IsPublished,
		post.AuthorID,
		nullable(post.CategoryID),
		nullable(post.LocationID),
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post with author, category and location joined.
// Returns apperror.ErrNotFound when no row matches.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT`+postColumns+postFrom+` WHERE p.id = ?`, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return post, nil
}

// List retrieves posts matching the filter, newest pub_date first.
//
// With PublishedOnly set, the anonymous visibility predicate runs inside SQL:
// published, not future-dated, and the category (if any) itself published.
// Posts without a category pass the category clause.
func (db *DB) List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT` + postColumns + postFrom + ` WHERE 1=1`
	args := []any{}

	if filter.PublishedOnly {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		query += ` AND p.is_published = 1 AND p.pub_date <= ?
			AND (p.category_id IS NULL OR c.is_published = 1)`
		args = append(args, now)
	}
	if filter.CategoryID != "" {
		query += ` AND p.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.AuthorID != "" {
		query += ` AND p.author_id = ?`
		args = append(args, filter.AuthorID)
	}

	query += ` ORDER BY p.pub_date DESC, p.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// Update rewrites the mutable columns of a post. AuthorID and CreatedAt are
// immutable and never touched. Returns ErrNotFound when the post is gone.
func (db *DB) Update(ctx context.Context, post *model.Post) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, text = ?, pub_date = ?, is_published = ?, category_id = ?, location_id = ?
		 WHERE id = ?`,
		post.Title,
		post.Text,
		post.PubDate,
		post.IsPublished,
		nullable(post.CategoryID),
		nullable(post.LocationID),
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}
	return nil
}

// Delete removes a post; its comments go with it via ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPost reads one joined post row. Category and location columns come from
// LEFT JOINs, so they scan through sql.Null* and materialize only when set.
func scanPost(s scanner) (*model.Post, error) {
	var (
		p          model.Post
		author     model.User
		categoryID sql.NullString
		locationID sql.NullString
		catTitle   sql.NullString
		catSlug    sql.NullString
		catPub     sql.NullBool
		locName    sql.NullString
		locPub     sql.NullBool
	)

	err := s.Scan(
		&p.ID, &p.Title, &p.Text, &p.PubDate, &p.IsPublished,
		&p.AuthorID, &categoryID, &locationID, &p.CreatedAt,
		&author.Username, &author.FirstName, &author.LastName,
		&catTitle, &catSlug, &catPub,
		&locName, &locPub,
	)
	if err != nil {
		return nil, err
	}

	author.ID = p.AuthorID
	p.Author = &author

	if categoryID.Valid {
		p.CategoryID = categoryID.String
		p.Category = &model.Category{
			ID:          categoryID.String,
			Title:       catTitle.String,
			Slug:        catSlug.String,
			IsPublished: catPub.Bool,
		}
	}
	if locationID.Valid {
		p.LocationID = locationID.String
		p.Location = &model.Location{
			ID:          locationID.String,
			Name:        locName.String,
			IsPublished: locPub.Bool,
		}
	}

	return &p, nil
}

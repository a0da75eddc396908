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

// compile-time check that *DB implements repository.CommentRepository
var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts a new comment. AuthorID and PostID are stamped by the
// service layer before this call and are never updated afterwards.
//
// The method names carry the Comment suffix because *DB implements several
// repository interfaces in one type.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, text, author_id, post_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.Text,
		comment.AuthorID,
		comment.PostID,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}
	return nil
}

// GetCommentByID retrieves a single comment with its author joined.
func (db *DB) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	var (
		c      model.Comment
		author model.User
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT c.id, c.text, c.author_id, c.post_id, c.created_at,
		        u.username, u.first_name, u.last_name
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.id = ?`,
		id,
	).Scan(
		&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt,
		&author.Username, &author.FirstName, &author.LastName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}

	author.ID = c.AuthorID
	c.Author = &author
	return &c, nil
}

// ListCommentsByPost returns a post's comments oldest first, each with its
// author joined for display.
func (db *DB) ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.text, c.author_id, c.post_id, c.created_at,
		        u.username, u.first_name, u.last_name
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = ?
		 ORDER BY c.created_at ASC, c.id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for post %s: %w", postID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var (
			c      model.Comment
			author model.User
		)
		if err := rows.Scan(
			&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt,
			&author.Username, &author.FirstName, &author.LastName,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		author.ID = c.AuthorID
		c.Author = &author
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

// UpdateComment rewrites the comment text. Author and post are immutable.
func (db *DB) UpdateComment(ctx context.Context, comment *model.Comment) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE comments SET text = ? WHERE id = ?`,
		comment.Text,
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", comment.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", comment.ID)
	}
	return nil
}

// DeleteComment removes a comment by ID.
func (db *DB) DeleteComment(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", id)
	}
	return nil
}

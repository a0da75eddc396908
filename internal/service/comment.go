package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/repository"
)

// MaxCommentLength bounds comment text.
const MaxCommentLength = 10000

// CommentService handles comment mutations. Every operation resolves the
// comment through its post: a comment reached under the wrong post ID is
// treated as missing.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	logger   *slog.Logger
	now      func() time.Time // injectable clock for tests
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		logger:   logger,
		now:      time.Now,
	}
}

// Create adds the actor's comment to a post. The post must be visible to the
// actor — commenting is how visibility would otherwise leak, so a hidden post
// reads as not-found here too. Author and post are stamped from the session
// and the URL, never from the form.
func (s *CommentService) Create(ctx context.Context, postID, actorID, text string) (*model.Comment, error) {
	if actorID == "" {
		return nil, apperror.Forbidden("login required to comment")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !PostVisibleTo(post, actorID, s.now()) {
		return nil, apperror.NotFound("post", postID)
	}

	text, err = validateCommentText(text)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Text:     text,
		AuthorID: actorID,
		PostID:   post.ID,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("post", postID),
			slog.String("author", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment created",
		slog.String("id", comment.ID),
		slog.String("post", comment.PostID),
	)
	return comment, nil
}

// GetOwned returns a comment for its author's edit or delete form, checking
// both that the comment belongs to the post in the URL and that the actor
// wrote it.
func (s *CommentService) GetOwned(ctx context.Context, postID, commentID, actorID string) (*model.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, apperror.NotFound("comment", commentID)
	}
	if err := requireOwner(comment.AuthorID, actorID); err != nil {
		return nil, err
	}
	return comment, nil
}

// Update replaces a comment's text after the ownership check. Nothing else
// about a comment is editable.
func (s *CommentService) Update(ctx context.Context, postID, commentID, actorID, text string) (*model.Comment, error) {
	comment, err := s.GetOwned(ctx, postID, commentID, actorID)
	if err != nil {
		return nil, err
	}

	text, err = validateCommentText(text)
	if err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}

	s.logger.Info("comment updated", slog.String("id", comment.ID))
	return comment, nil
}

// Delete removes a comment after the ownership check.
func (s *CommentService) Delete(ctx context.Context, postID, commentID, actorID string) error {
	comment, err := s.GetOwned(ctx, postID, commentID, actorID)
	if err != nil {
		return err
	}

	if err := s.comments.DeleteComment(ctx, comment.ID); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	s.logger.Info("comment deleted",
		slog.String("id", commentID),
		slog.String("post", postID),
	)
	return nil
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed("text", "comment text is required")
	}
	if len(text) > MaxCommentLength {
		return "", apperror.ValidationFailed("text",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}
	return text, nil
}

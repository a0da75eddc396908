// Package service contains the business rules of the application: the
// visibility predicate, the ownership guard, feed assembly, and the
// validation applied to every mutation. Handlers stay HTTP-only; repositories
// stay SQL-only; every authorization decision lives here.
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

const (
	// PageSize is the number of posts per feed page (home, category, profile).
	PageSize = 10

	MaxTitleLength = 256
	MaxTextLength  = 100000
)

// PostVisibleTo reports whether the viewer may read the post.
//
// The author always sees their own post, flags and dates notwithstanding —
// that is how preview-before-publish works. Everyone else sees it only when
// it is published, its pub date has passed, and its category (if it has one)
// is itself published. An empty viewerID means anonymous.
func PostVisibleTo(post *model.Post, viewerID string, now time.Time) bool {
	if viewerID != "" && viewerID == post.AuthorID {
		return true
	}
	if !post.IsPublished || post.PubDate.After(now) {
		return false
	}
	if post.CategoryID != "" && (post.Category == nil || !post.Category.IsPublished) {
		return false
	}
	return true
}

// requireOwner is the single write-authorization check shared by every post
// and comment mutation. Handlers translate the Forbidden error into a
// redirect to the record's detail view rather than an error page.
func requireOwner(authorID, actorID string) error {
	if actorID == "" || actorID != authorID {
		return apperror.Forbidden("only the author may modify this record")
	}
	return nil
}

// PostInput carries the author-editable fields of a post. AuthorID is
// deliberately absent: it is stamped from the session, never from a form.
type PostInput struct {
	Title       string
	Text        string
	PubDate     time.Time // zero value defaults to now
	IsPublished bool
	CategoryID  string // empty = no category
	LocationID  string // empty = no location
}

// PostService handles feeds, detail access, and post mutations.
type PostService struct {
	posts      repository.PostRepository
	comments   repository.CommentRepository
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	users      repository.UserRepository
	logger     *slog.Logger
	now        func() time.Time // injectable clock for tests
}

// NewPostService creates a PostService. Dependencies are interfaces so tests
// can substitute in-memory fakes.
func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	categories repository.CategoryRepository,
	locations repository.LocationRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:      posts,
		comments:   comments,
		categories: categories,
		locations:  locations,
		users:      users,
		logger:     logger,
		now:        time.Now,
	}
}

// HomeFeed returns one page of publicly visible posts, newest first, and
// whether a further page exists.
//
// Feeds always apply the anonymous form of the visibility predicate: an
// author's own drafts never appear here, only via their profile or a direct
// link to the detail page.
func (s *PostService) HomeFeed(ctx context.Context, page int) ([]model.Post, bool, error) {
	return s.feed(ctx, repository.PostFilter{PublishedOnly: true, Now: s.now()}, page)
}

// CategoryFeed returns one page of the named category's visible posts. The
// category itself must exist and be published; an unpublished category is
// indistinguishable from a missing one.
func (s *PostService) CategoryFeed(ctx context.Context, slug string, page int) (*model.Category, []model.Post, bool, error) {
	category, err := s.categories.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, false, err
	}
	if !category.IsPublished {
		return nil, nil, false, apperror.NotFound("category", slug)
	}

	posts, hasNext, err := s.feed(ctx, repository.PostFilter{
		PublishedOnly: true,
		Now:           s.now(),
		CategoryID:    category.ID,
	}, page)
	if err != nil {
		return nil, nil, false, err
	}
	return category, posts, hasNext, nil
}

// ProfileFeed returns one page of every post by the named user — drafts and
// future-dated posts included, with no visibility filtering for any viewer.
func (s *PostService) ProfileFeed(ctx context.Context, username string, page int) (*model.User, []model.Post, bool, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, false, err
	}

	posts, hasNext, err := s.feed(ctx, repository.PostFilter{AuthorID: user.ID}, page)
	if err != nil {
		return nil, nil, false, err
	}
	return user, posts, hasNext, nil
}

// feed fetches one extra row beyond the page size to learn whether a next
// page exists without a COUNT query.
func (s *PostService) feed(ctx context.Context, filter repository.PostFilter, page int) ([]model.Post, bool, error) {
	if page < 1 {
		page = 1
	}

	posts, err := s.posts.List(ctx, filter, repository.ListOptions{
		Limit:  PageSize + 1,
		Offset: (page - 1) * PageSize,
	})
	if err != nil {
		return nil, false, fmt.Errorf("listing posts: %w", err)
	}

	hasNext := len(posts) > PageSize
	if hasNext {
		posts = posts[:PageSize]
	}
	return posts, hasNext, nil
}

// GetVisible returns a post for the detail view together with its comments,
// oldest first. A post hidden from the viewer surfaces as not-found, never as
// forbidden — non-authors must not learn that an unpublished post exists.
func (s *PostService) GetVisible(ctx context.Context, id, viewerID string) (*model.Post, []model.Comment, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !PostVisibleTo(post, viewerID, s.now()) {
		return nil, nil, apperror.NotFound("post", id)
	}

	comments, err := s.comments.ListCommentsByPost(ctx, post.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing comments for post %s: %w", post.ID, err)
	}

	return post, comments, nil
}

// GetOwned returns a post for its author's edit or delete form. A non-owner
// gets ErrForbidden, which the handler turns into a redirect to the detail
// view.
func (s *PostService) GetOwned(ctx context.Context, id, actorID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(post.AuthorID, actorID); err != nil {
		return nil, err
	}
	return post, nil
}

// FormChoices returns the published categories and locations offered on the
// post form.
func (s *PostService) FormChoices(ctx context.Context) ([]model.Category, []model.Location, error) {
	categories, err := s.categories.ListPublishedCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing categories: %w", err)
	}
	locations, err := s.locations.ListPublishedLocations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing locations: %w", err)
	}
	return categories, locations, nil
}

// Create validates and persists a new post authored by the actor. The author
// is always the authenticated actor; nothing in the input can override it.
func (s *PostService) Create(ctx context.Context, actorID string, in PostInput) (*model.Post, error) {
	if actorID == "" {
		return nil, apperror.Forbidden("login required to create a post")
	}
	if err := validatePostInput(&in); err != nil {
		return nil, err
	}
	if in.PubDate.IsZero() {
		in.PubDate = s.now()
	}

	post := &model.Post{
		Title:       in.Title,
		Text:        in.Text,
		PubDate:     in.PubDate,
		IsPublished: in.IsPublished,
		AuthorID:    actorID,
		CategoryID:  in.CategoryID,
		LocationID:  in.LocationID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("author", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("author", post.AuthorID),
	)
	return post, nil
}

// Update applies the input to an existing post after the ownership check.
// Author and creation time never change.
func (s *PostService) Update(ctx context.Context, id, actorID string, in PostInput) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(post.AuthorID, actorID); err != nil {
		return nil, err
	}
	if err := validatePostInput(&in); err != nil {
		return nil, err
	}
	if in.PubDate.IsZero() {
		in.PubDate = post.PubDate
	}

	post.Title = in.Title
	post.Text = in.Text
	post.PubDate = in.PubDate
	post.IsPublished = in.IsPublished
	post.CategoryID = in.CategoryID
	post.LocationID = in.LocationID

	if err := s.posts.Update(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.String("id", post.ID))
	return post, nil
}

// Delete removes a post (and, via the storage layer, its comments) after the
// ownership check.
func (s *PostService) Delete(ctx context.Context, id, actorID string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(post.AuthorID, actorID); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted",
		slog.String("id", id),
		slog.String("author", actorID),
	)
	return nil
}

func validatePostInput(in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Text = strings.TrimSpace(in.Text)

	if in.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if in.Text == "" {
		return apperror.ValidationFailed("text", "text is required")
	}
	if len(in.Text) > MaxTextLength {
		return apperror.ValidationFailed("text",
			fmt.Sprintf("text must be %d characters or less", MaxTextLength))
	}
	return nil
}

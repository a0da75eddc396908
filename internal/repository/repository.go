// Package repository declares the storage interfaces consumed by the service
// layer. The sqlite subpackage provides the concrete implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/avolkov/goblog/internal/model"
)

// ListOptions is LIMIT/OFFSET pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows a post list query. Zero value means "all posts".
//
// PublishedOnly applies the anonymous visibility predicate in SQL:
// is_published AND pub_date <= Now AND (no category OR category published).
// Feeds always set it; the profile feed never does.
type PostFilter struct {
	PublishedOnly bool
	Now           time.Time // reference time for pub_date <= Now; required with PublishedOnly
	CategoryID    string    // restrict to one category
	AuthorID      string    // restrict to one author
}

// PostRepository persists posts. GetByID and List return posts with Author,
// Category and Location populated via joins.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, filter PostFilter, opts ListOptions) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository persists comments. ListCommentsByPost returns comments
// oldest first with Author populated.
//
// Method names carry the Comment suffix because the sqlite.DB type implements
// every repository interface on one receiver.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error)
	UpdateComment(ctx context.Context, comment *model.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// CategoryRepository persists categories. Slugs are unique.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListPublishedCategories(ctx context.Context) ([]model.Category, error)
}

// LocationRepository persists locations.
type LocationRepository interface {
	CreateLocation(ctx context.Context, location *model.Location) error
	GetLocationByID(ctx context.Context, id string) (*model.Location, error)
	ListPublishedLocations(ctx context.Context) ([]model.Location, error)
}

// UserRepository persists user accounts. Usernames are unique; GitHubID is
// unique among OAuth accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

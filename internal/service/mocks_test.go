package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces. The
// services only see the interfaces, so tests run without a database. The
// post mock reimplements the visibility filter so feed tests exercise the
// same semantics the SQL layer provides.

type mockPostRepo struct {
	posts      map[string]*model.Post
	categories *mockCategoryRepo // for resolving category visibility in List
	users      *mockUserRepo     // for populating Author
	nextID     int
}

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	m.nextID++
	post.ID = fmt.Sprintf("post-%d", m.nextID)
	post.CreatedAt = time.Now()
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	result := *post
	m.populate(&result)
	return &result, nil
}

func (m *mockPostRepo) List(_ context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}

	result := make([]model.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.PublishedOnly {
			if !p.IsPublished || p.PubDate.After(now) {
				continue
			}
			if p.CategoryID != "" {
				cat, ok := m.categories.byID(p.CategoryID)
				if !ok || !cat.IsPublished {
					continue
				}
			}
		}
		stored := *p
		m.populate(&stored)
		result = append(result, stored)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].PubDate.Equal(result[j].PubDate) {
			return result[i].PubDate.After(result[j].PubDate)
		}
		return result[i].ID > result[j].ID
	})

	if opts.Offset >= len(result) {
		return []model.Post{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockPostRepo) Update(_ context.Context, post *model.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return apperror.NotFound("post", post.ID)
	}
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockPostRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) populate(post *model.Post) {
	if post.CategoryID != "" {
		if cat, ok := m.categories.byID(post.CategoryID); ok {
			c := *cat
			post.Category = &c
		}
	}
	if u, ok := m.users.users[post.AuthorID]; ok {
		author := *u
		post.Author = &author
	}
}

type mockCommentRepo struct {
	comments map[string]*model.Comment
	nextID   int
}

func (m *mockCommentRepo) CreateComment(_ context.Context, comment *model.Comment) error {
	m.nextID++
	comment.ID = fmt.Sprintf("comment-%d", m.nextID)
	comment.CreatedAt = time.Now()
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *mockCommentRepo) GetCommentByID(_ context.Context, id string) (*model.Comment, error) {
	comment, ok := m.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	result := *comment
	return &result, nil
}

func (m *mockCommentRepo) ListCommentsByPost(_ context.Context, postID string) ([]model.Comment, error) {
	result := make([]model.Comment, 0)
	for _, c := range m.comments {
		if c.PostID == postID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockCommentRepo) UpdateComment(_ context.Context, comment *model.Comment) error {
	if _, ok := m.comments[comment.ID]; !ok {
		return apperror.NotFound("comment", comment.ID)
	}
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *mockCommentRepo) DeleteComment(_ context.Context, id string) error {
	if _, ok := m.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(m.comments, id)
	return nil
}

type mockCategoryRepo struct {
	categories map[string]*model.Category // keyed by slug
	nextID     int
}

func (m *mockCategoryRepo) CreateCategory(_ context.Context, category *model.Category) error {
	if _, ok := m.categories[category.Slug]; ok {
		return apperror.Conflict("category", category.Slug)
	}
	m.nextID++
	category.ID = fmt.Sprintf("category-%d", m.nextID)
	stored := *category
	m.categories[category.Slug] = &stored
	return nil
}

func (m *mockCategoryRepo) GetCategoryBySlug(_ context.Context, slug string) (*model.Category, error) {
	category, ok := m.categories[slug]
	if !ok {
		return nil, apperror.NotFound("category", slug)
	}
	result := *category
	return &result, nil
}

func (m *mockCategoryRepo) ListPublishedCategories(_ context.Context) ([]model.Category, error) {
	result := make([]model.Category, 0)
	for _, c := range m.categories {
		if c.IsPublished {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

func (m *mockCategoryRepo) byID(id string) (*model.Category, bool) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

type mockLocationRepo struct {
	locations map[string]*model.Location
	nextID    int
}

func (m *mockLocationRepo) CreateLocation(_ context.Context, location *model.Location) error {
	m.nextID++
	location.ID = fmt.Sprintf("location-%d", m.nextID)
	stored := *location
	m.locations[location.ID] = &stored
	return nil
}

func (m *mockLocationRepo) GetLocationByID(_ context.Context, id string) (*model.Location, error) {
	location, ok := m.locations[id]
	if !ok {
		return nil, apperror.NotFound("location", id)
	}
	result := *location
	return &result, nil
}

func (m *mockLocationRepo) ListPublishedLocations(_ context.Context) ([]model.Location, error) {
	result := make([]model.Location, 0)
	for _, l := range m.locations {
		if l.IsPublished {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type mockUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	for _, u := range m.users {
		if u.GitHubID == githubID {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
}

func (m *mockUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================

// testNow is the frozen clock every service test runs against.
var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	posts      *mockPostRepo
	comments   *mockCommentRepo
	categories *mockCategoryRepo
	locations  *mockLocationRepo
	users      *mockUserRepo

	postSvc    *PostService
	commentSvc *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &mockUserRepo{users: make(map[string]*model.User)}
	categories := &mockCategoryRepo{categories: make(map[string]*model.Category)}
	locations := &mockLocationRepo{locations: make(map[string]*model.Location)}
	posts := &mockPostRepo{posts: make(map[string]*model.Post), categories: categories, users: users}
	comments := &mockCommentRepo{comments: make(map[string]*model.Comment)}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	postSvc := NewPostService(posts, comments, categories, locations, users, logger)
	postSvc.now = func() time.Time { return testNow }

	commentSvc := NewCommentService(comments, posts, logger)
	commentSvc.now = func() time.Time { return testNow }

	return &testEnv{
		posts:      posts,
		comments:   comments,
		categories: categories,
		locations:  locations,
		users:      users,
		postSvc:    postSvc,
		commentSvc: commentSvc,
	}
}

func (e *testEnv) seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com"}
	if err := e.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seedUser(%q): %v", username, err)
	}
	return user
}

func (e *testEnv) seedCategory(t *testing.T, slug string, published bool) *model.Category {
	t.Helper()
	category := &model.Category{Title: slug, Slug: slug, IsPublished: published}
	if err := e.categories.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("seedCategory(%q): %v", slug, err)
	}
	return category
}

// seedPost inserts a post directly at the repository level, bypassing the
// service so tests control every field.
func (e *testEnv) seedPost(t *testing.T, post *model.Post) *model.Post {
	t.Helper()
	if post.Title == "" {
		post.Title = "a post"
	}
	if post.Text == "" {
		post.Text = "some text"
	}
	if post.PubDate.IsZero() {
		post.PubDate = testNow.Add(-time.Hour)
	}
	if err := e.posts.Create(context.Background(), post); err != nil {
		t.Fatalf("seedPost: %v", err)
	}
	return post
}

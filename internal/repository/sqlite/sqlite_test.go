package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/avolkov/goblog/internal/model"
)

// Tests run against an in-memory database: fast, isolated, destroyed when
// the connection closes. The helpers report failures at the caller's line.

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$fakehashfortesting",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

func createTestCategory(t *testing.T, db *DB, slug string, published bool) *model.Category {
	t.Helper()
	category := &model.Category{
		Title:       "Category " + slug,
		Slug:        slug,
		IsPublished: published,
	}
	if err := db.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("failed to create test category %q: %v", slug, err)
	}
	return category
}

func createTestLocation(t *testing.T, db *DB, name string, published bool) *model.Location {
	t.Helper()
	location := &model.Location{Name: name, IsPublished: published}
	if err := db.CreateLocation(context.Background(), location); err != nil {
		t.Fatalf("failed to create test location %q: %v", name, err)
	}
	return location
}

func createTestPost(t *testing.T, db *DB, post *model.Post) *model.Post {
	t.Helper()
	if post.Title == "" {
		post.Title = "a post"
	}
	if post.Text == "" {
		post.Text = "some text"
	}
	if post.PubDate.IsZero() {
		post.PubDate = time.Now().Add(-time.Hour)
	}
	if err := db.Create(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

func createTestComment(t *testing.T, db *DB, postID, authorID, text string) *model.Comment {
	t.Helper()
	comment := &model.Comment{Text: text, PostID: postID, AuthorID: authorID}
	if err := db.CreateComment(context.Background(), comment); err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}
	return comment
}

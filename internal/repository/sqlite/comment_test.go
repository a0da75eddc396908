package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/model"
)

func TestCommentCreate(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	post := createTestPost(t, db, &model.Post{AuthorID: author.ID, IsPublished: true})

	comment := &model.Comment{Text: "first!", PostID: post.ID, AuthorID: author.ID}
	if err := db.CreateComment(context.Background(), comment); err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	if comment.ID == "" {
		t.Error("CreateComment() did not set comment.ID")
	}
	if comment.CreatedAt.IsZero() {
		t.Error("CreateComment() did not set comment.CreatedAt")
	}
}

func TestCommentGetByID_JoinsAuthor(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	post := createTestPost(t, db, &model.Post{AuthorID: author.ID, IsPublished: true})
	created := createTestComment(t, db, post.ID, author.ID, "hello")

	found, err := db.GetCommentByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetCommentByID() error = %v", err)
	}
	if found.Text != "hello" {
		t.Errorf("Text = %q, want %q", found.Text, "hello")
	}
	if found.Author == nil || found.Author.Username != "alice" {
		t.Errorf("Author not joined: %+v", found.Author)
	}
}

func TestCommentGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetCommentByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCommentByID() error = %v, want ErrNotFound", err)
	}
}

func TestCommentList_OldestFirstAndScoped(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	postA := createTestPost(t, db, &model.Post{AuthorID: author.ID, IsPublished: true})
	postB := createTestPost(t, db, &model.Post{AuthorID: author.ID, IsPublished: true})

	for i := 0; i < 3; i++ {
		createTestComment(t, db, postA.ID, author.ID, fmt.Sprintf("on A #%d", i))
	}
	createTestComment(t, db, postB.ID, author.ID, "on B")

	comments, err := db.ListCommentsByPost(context.Background(), postA.ID)
	if err != nil {
		t.Fatalf("ListCommentsByPost() error = %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("ListCommentsByPost() returned %d comments, want 3", len(comments))
	}
	for i, c := range comments {
		want := fmt.Sprintf("on A #%d", i)
		if c.Text != want {
			t.Errorf("comment[%d].Text = %q, want %q (oldest first)", i, c.Text, want)
		}
		if c.PostID != postA.ID {
			t.Errorf("comment %q belongs to post %q, want %q", c.Text, c.PostID, postA.ID)
		}
	}
}

func TestCommentList_EmptyPost(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	post := createTestPost(t, db, &model.Post{AuthorID: author.ID, IsPublished: true})

	comments, err := db.ListCommentsByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("ListCommentsByPost() error = %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("ListCommentsByPost() returned %d comments, want 0", len(comments))
	}
}

func TestCommentUpdate(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	post := createTestPost(t, db, &model.Post{AuthorID: author.ID, IsPublished: true})
	comment := createTestComment(t, db, post.ID, author.ID, "before")

	comment.Text = "after"
	if err := db.UpdateComment(context.Background(), comment); err != nil {
		t.Fatalf("UpdateComment() error = %v", err)
	}

	found, _ := db.GetCommentByID(context.Background(), comment.ID)
	if found.Text != "after" {
		t.Errorf("Text = %q, want %q", found.Text, "after")
	}
}

func TestCommentUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateComment(context.Background(), &model.Comment{ID: "nonexistent", Text: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateComment() error = %v, want ErrNotFound", err)
	}
}

func TestCommentDelete(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	post := createTestPost(t, db, &model.Post{AuthorID: author.ID, IsPublished: true})
	comment := createTestComment(t, db, post.ID, author.ID, "to delete")

	if err := db.DeleteComment(context.Background(), comment.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}

	_, err := db.GetCommentByID(context.Background(), comment.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCommentByID() after delete: error = %v, want ErrNotFound", err)
	}
}

func TestCommentDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeleteComment(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteComment() error = %v, want ErrNotFound", err)
	}
}

package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/goblog/internal/auth"
	"github.com/avolkov/goblog/internal/handler"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/repository/sqlite"
	"github.com/avolkov/goblog/internal/service"
)

// testApp runs the real stack end to end: chi router, auth middleware,
// handlers, services, in-memory SQLite, and the actual templates. Only the
// network listener is missing.
type testApp struct {
	db       *sqlite.DB
	router   chi.Router
	accounts *service.AccountService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4)

	renderer, err := handler.NewRenderer("../../web/templates", logger)
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	postService := service.NewPostService(db, db, db, db, db, logger)
	commentService := service.NewCommentService(db, db, logger)
	accountService := service.NewAccountService(db, tokens, passwords, logger)

	posts := handler.NewPostHandler(postService, accountService, renderer, logger)
	comments := handler.NewCommentHandler(commentService, accountService, renderer, logger)
	profiles := handler.NewProfileHandler(postService, accountService, renderer, logger)
	accounts := handler.NewAccountHandler(accountService, nil, renderer, logger)

	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Get("/", posts.HandleHome)
		r.Get("/posts/{postID}", posts.HandleDetail)
		r.Get("/category/{slug}", posts.HandleCategory)
		r.Get("/profile/{username}", profiles.HandleProfile)

		r.Get("/auth/register", accounts.HandleRegisterForm)
		r.Post("/auth/register", accounts.HandleRegister)
		r.Get("/auth/login", accounts.HandleLoginForm)
		r.Post("/auth/login", accounts.HandleLogin)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin(tokens))

		r.Get("/posts/create", posts.HandleCreateForm)
		r.Post("/posts/create", posts.HandleCreate)
		r.Get("/posts/{postID}/edit", posts.HandleEditForm)
		r.Post("/posts/{postID}/edit", posts.HandleEdit)
		r.Get("/posts/{postID}/delete", posts.HandleDeleteForm)
		r.Post("/posts/{postID}/delete", posts.HandleDelete)

		r.Post("/posts/{postID}/comment", comments.HandleCreate)
		r.Get("/posts/{postID}/comment/{commentID}/edit", comments.HandleEditForm)
		r.Post("/posts/{postID}/comment/{commentID}/edit", comments.HandleEdit)
		r.Get("/posts/{postID}/comment/{commentID}/delete", comments.HandleDeleteForm)
		r.Post("/posts/{postID}/comment/{commentID}/delete", comments.HandleDelete)

		r.Get("/profile/edit", profiles.HandleEditForm)
		r.Post("/profile/edit", profiles.HandleEdit)

		r.Post("/auth/logout", accounts.HandleLogout)
	})

	return &testApp{db: db, router: router, accounts: accountService}
}

// signUp creates an account through the service and returns the user and a
// valid session token for request cookies.
func (app *testApp) signUp(t *testing.T, username string) (*model.User, string) {
	t.Helper()
	result, err := app.accounts.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("signUp(%q): %v", username, err)
	}
	return result.User, result.Token
}

func (app *testApp) seedPost(t *testing.T, post *model.Post) *model.Post {
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
	if err := app.db.Create(context.Background(), post); err != nil {
		t.Fatalf("seedPost: %v", err)
	}
	return post
}

func (app *testApp) seedComment(t *testing.T, postID, authorID, text string) *model.Comment {
	t.Helper()
	comment := &model.Comment{Text: text, PostID: postID, AuthorID: authorID}
	if err := app.db.CreateComment(context.Background(), comment); err != nil {
		t.Fatalf("seedComment: %v", err)
	}
	return comment
}

// get performs a GET request. An empty token means anonymous.
func (app *testApp) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

// postForm performs a form POST.
func (app *testApp) postForm(t *testing.T, path, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

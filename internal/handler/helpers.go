package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/goblog/internal/auth"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/service"
)

// currentUser resolves the session user for the page layout. Returns nil for
// anonymous visitors and for stale sessions whose user no longer exists.
func currentUser(r *http.Request, accounts *service.AccountService) *model.User {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	user, err := accounts.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

// actorID returns the session user ID, or "" for anonymous visitors.
func actorID(r *http.Request) string {
	userID, _ := auth.UserIDFromContext(r.Context())
	return userID
}

// pageParam reads ?page=N, defaulting to the first page.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// paginate fills the pagination fields of a page's template data.
func paginate(data *templateData, page int, hasNext bool) {
	data.Page = page
	data.HasNext = hasNext
	data.HasPrev = page > 1
	data.NextPage = page + 1
	data.PrevPage = page - 1
}

// parsePubDate reads a datetime-local form value. An empty value is valid and
// means "default it" (now on create, unchanged on edit).
func parsePubDate(value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", value, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// safeNext accepts only same-site paths as post-login redirect targets, so
// the login form cannot be used to bounce users to another origin.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

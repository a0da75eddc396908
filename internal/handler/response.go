package handler

import (
	"errors"
	"net/http"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/model"
)

// renderError translates a domain error into an HTML error page. Validation
// and conflict errors are not handled here — handlers re-render the form for
// those; this covers not-found, forbidden (where no redirect applies) and
// everything unexpected.
func (rn *Renderer) Error(w http.ResponseWriter, currentUser *model.User, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong on our side."

	switch {
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		message = "The page you are looking for does not exist."
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		message = "You are not allowed to do that."
	default:
		rn.logger.Error("unhandled error", "error", err.Error())
	}

	rn.Render(w, status, "error.html", &templateData{
		Title:       http.StatusText(status),
		CurrentUser: currentUser,
		Status:      status,
		Message:     message,
	})
}

// formFailure extracts the message and field from a validation or conflict
// error for re-rendering a form. Returns ok=false for other errors.
func formFailure(err error) (message, field string, ok bool) {
	if !errors.Is(err, apperror.ErrValidation) && !errors.Is(err, apperror.ErrConflict) {
		return "", "", false
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message, appErr.Field, true
	}
	return err.Error(), "", true
}

// isForbidden reports whether the error is an ownership denial.
func isForbidden(err error) bool {
	return errors.Is(err, apperror.ErrForbidden)
}

// redirectToPost sends the browser to a post's detail page. This is the
// deny-path for mutations on records the actor does not own.
func redirectToPost(w http.ResponseWriter, r *http.Request, postID string) {
	http.Redirect(w, r, "/posts/"+postID, http.StatusSeeOther)
}

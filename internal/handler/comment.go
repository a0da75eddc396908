package handler

import (
	"log/slog"
	"net/http"

	"github.com/avolkov/goblog/internal/service"
)

// CommentHandler serves the comment create/edit/delete flows. Comments have
// no page of their own; every flow starts and ends on the post detail page.
type CommentHandler struct {
	comments *service.CommentService
	accounts *service.AccountService
	renderer *Renderer
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService, accounts *service.AccountService, renderer *Renderer, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, accounts: accounts, renderer: renderer, logger: logger}
}

// HandleCreate adds a comment from the form on the detail page.
//
// HTTP: POST /posts/{postID}/comment (login required)
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	_, err := h.comments.Create(r.Context(), postID, actorID(r), r.PostFormValue("text"))
	if err != nil {
		// An empty comment box is not worth a dedicated error page; land back
		// on the post. Everything else renders normally.
		if _, _, ok := formFailure(err); ok {
			redirectToPost(w, r, postID)
			return
		}
		h.renderer.Error(w, currentUser(r, h.accounts), err)
		return
	}

	redirectToPost(w, r, postID)
}

// HandleEditForm serves the edit form for the actor's own comment.
//
// HTTP: GET /posts/{postID}/comment/{commentID}/edit (login required)
func (h *CommentHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	comment, err := h.comments.GetOwned(r.Context(), postID, r.PathValue("commentID"), actorID(r))
	if err != nil {
		h.denyOrError(w, r, postID, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "comment_form.html", &templateData{
		Title:       "Edit comment",
		CurrentUser: currentUser(r, h.accounts),
		Form:        comment,
	})
}

// HandleEdit processes the comment edit form.
//
// HTTP: POST /posts/{postID}/comment/{commentID}/edit (login required)
func (h *CommentHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")
	commentID := r.PathValue("commentID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	comment, err := h.comments.Update(r.Context(), postID, commentID, actorID(r), r.PostFormValue("text"))
	if err != nil {
		if message, field, ok := formFailure(err); ok {
			stale, getErr := h.comments.GetOwned(r.Context(), postID, commentID, actorID(r))
			if getErr != nil {
				h.denyOrError(w, r, postID, getErr)
				return
			}
			h.renderer.Render(w, http.StatusUnprocessableEntity, "comment_form.html", &templateData{
				Title:       "Edit comment",
				CurrentUser: currentUser(r, h.accounts),
				Form:        stale,
				FormError:   message,
				FormField:   field,
			})
			return
		}
		h.denyOrError(w, r, postID, err)
		return
	}

	redirectToPost(w, r, comment.PostID)
}

// HandleDeleteForm serves the delete confirmation page for a comment.
//
// HTTP: GET /posts/{postID}/comment/{commentID}/delete (login required)
func (h *CommentHandler) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	comment, err := h.comments.GetOwned(r.Context(), postID, r.PathValue("commentID"), actorID(r))
	if err != nil {
		h.denyOrError(w, r, postID, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "comment_confirm_delete.html", &templateData{
		Title:       "Delete comment",
		CurrentUser: currentUser(r, h.accounts),
		Form:        comment,
	})
}

// HandleDelete deletes a comment after confirmation.
//
// HTTP: POST /posts/{postID}/comment/{commentID}/delete (login required)
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	if err := h.comments.Delete(r.Context(), postID, r.PathValue("commentID"), actorID(r)); err != nil {
		h.denyOrError(w, r, postID, err)
		return
	}

	redirectToPost(w, r, postID)
}

func (h *CommentHandler) denyOrError(w http.ResponseWriter, r *http.Request, postID string, err error) {
	if isForbidden(err) {
		redirectToPost(w, r, postID)
		return
	}
	h.renderer.Error(w, currentUser(r, h.accounts), err)
}

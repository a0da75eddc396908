package handler

import (
	"log/slog"
	"net/http"

	"github.com/avolkov/goblog/internal/service"
)

// postForm carries submitted values back into the form template after a
// failed validation, so the user does not lose their input.
type postForm struct {
	Title       string
	Text        string
	PubDate     string
	IsPublished bool
	CategoryID  string
	LocationID  string
}

// PostHandler serves the feeds, the post detail page, and the post
// create/edit/delete flows.
type PostHandler struct {
	posts    *service.PostService
	accounts *service.AccountService
	renderer *Renderer
	logger   *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, accounts *service.AccountService, renderer *Renderer, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, accounts: accounts, renderer: renderer, logger: logger}
}

// HandleHome serves the home feed.
//
// HTTP: GET /?page=N
func (h *PostHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r, h.accounts)
	page := pageParam(r)

	posts, hasNext, err := h.posts.HomeFeed(r.Context(), page)
	if err != nil {
		h.renderer.Error(w, user, err)
		return
	}

	data := &templateData{
		Title:       "Latest posts",
		CurrentUser: user,
		Posts:       posts,
	}
	paginate(data, page, hasNext)
	h.renderer.Render(w, http.StatusOK, "home.html", data)
}

// HandleCategory serves a category's feed. Unpublished and missing
// categories both render the 404 page.
//
// HTTP: GET /category/{slug}?page=N
func (h *PostHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r, h.accounts)
	page := pageParam(r)

	category, posts, hasNext, err := h.posts.CategoryFeed(r.Context(), r.PathValue("slug"), page)
	if err != nil {
		h.renderer.Error(w, user, err)
		return
	}

	data := &templateData{
		Title:       category.Title,
		CurrentUser: user,
		Category:    category,
		Posts:       posts,
	}
	paginate(data, page, hasNext)
	h.renderer.Render(w, http.StatusOK, "category.html", data)
}

// HandleDetail serves a post's detail page with its comments. Posts the
// viewer may not see render the 404 page, never a 403.
//
// HTTP: GET /posts/{postID}
func (h *PostHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r, h.accounts)

	post, comments, err := h.posts.GetVisible(r.Context(), r.PathValue("postID"), actorID(r))
	if err != nil {
		h.renderer.Error(w, user, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "detail.html", &templateData{
		Title:       post.Title,
		CurrentUser: user,
		Post:        post,
		Comments:    comments,
	})
}

// HandleCreateForm serves the empty post form.
//
// HTTP: GET /posts/create (login required)
func (h *PostHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderPostForm(w, r, http.StatusOK, "New post", &postForm{IsPublished: true}, "", "")
}

// HandleCreate processes the post form. The author is the session user,
// whatever the form says.
//
// HTTP: POST /posts/create (login required)
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form, input, ok := h.parsePostForm(w, r, "New post")
	if !ok {
		return
	}

	post, err := h.posts.Create(r.Context(), actorID(r), input)
	if err != nil {
		if message, field, ok := formFailure(err); ok {
			h.renderPostForm(w, r, http.StatusUnprocessableEntity, "New post", form, message, field)
			return
		}
		h.renderer.Error(w, currentUser(r, h.accounts), err)
		return
	}

	http.Redirect(w, r, "/posts/"+post.ID, http.StatusSeeOther)
}

// HandleEditForm serves the post form pre-filled with the post's current
// values. Non-owners are bounced to the detail page.
//
// HTTP: GET /posts/{postID}/edit (login required)
func (h *PostHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	post, err := h.posts.GetOwned(r.Context(), postID, actorID(r))
	if err != nil {
		h.denyOrError(w, r, postID, err)
		return
	}

	form := &postForm{
		Title:       post.Title,
		Text:        post.Text,
		PubDate:     inputDate(post.PubDate),
		IsPublished: post.IsPublished,
		CategoryID:  post.CategoryID,
		LocationID:  post.LocationID,
	}
	h.renderPostForm(w, r, http.StatusOK, "Edit post", form, "", "")
}

// HandleEdit processes the edit form.
//
// HTTP: POST /posts/{postID}/edit (login required)
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	form, input, ok := h.parsePostForm(w, r, "Edit post")
	if !ok {
		return
	}

	post, err := h.posts.Update(r.Context(), postID, actorID(r), input)
	if err != nil {
		if message, field, ok := formFailure(err); ok {
			h.renderPostForm(w, r, http.StatusUnprocessableEntity, "Edit post", form, message, field)
			return
		}
		h.denyOrError(w, r, postID, err)
		return
	}

	http.Redirect(w, r, "/posts/"+post.ID, http.StatusSeeOther)
}

// HandleDeleteForm serves the delete confirmation page.
//
// HTTP: GET /posts/{postID}/delete (login required)
func (h *PostHandler) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	post, err := h.posts.GetOwned(r.Context(), postID, actorID(r))
	if err != nil {
		h.denyOrError(w, r, postID, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "post_confirm_delete.html", &templateData{
		Title:       "Delete post",
		CurrentUser: currentUser(r, h.accounts),
		Post:        post,
	})
}

// HandleDelete deletes a post after confirmation and returns the author to
// their profile.
//
// HTTP: POST /posts/{postID}/delete (login required)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")
	user := currentUser(r, h.accounts)

	if err := h.posts.Delete(r.Context(), postID, actorID(r)); err != nil {
		h.denyOrError(w, r, postID, err)
		return
	}

	if user != nil {
		http.Redirect(w, r, "/profile/"+user.Username, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// denyOrError turns ErrForbidden into the redirect-to-detail deny path and
// renders an error page for everything else.
func (h *PostHandler) denyOrError(w http.ResponseWriter, r *http.Request, postID string, err error) {
	if isForbidden(err) {
		redirectToPost(w, r, postID)
		return
	}
	h.renderer.Error(w, currentUser(r, h.accounts), err)
}

// parsePostForm reads the submitted post form. A malformed pub date is the
// one validation the handler owns, since the service never sees the string.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request, title string) (*postForm, service.PostInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, service.PostInput{}, false
	}

	form := &postForm{
		Title:       r.PostFormValue("title"),
		Text:        r.PostFormValue("text"),
		PubDate:     r.PostFormValue("pub_date"),
		IsPublished: r.PostFormValue("is_published") != "",
		CategoryID:  r.PostFormValue("category_id"),
		LocationID:  r.PostFormValue("location_id"),
	}

	pubDate, ok := parsePubDate(form.PubDate)
	if !ok {
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, title, form,
			"publication date must look like 2006-01-02T15:04", "pub_date")
		return nil, service.PostInput{}, false
	}

	return form, service.PostInput{
		Title:       form.Title,
		Text:        form.Text,
		PubDate:     pubDate,
		IsPublished: form.IsPublished,
		CategoryID:  form.CategoryID,
		LocationID:  form.LocationID,
	}, true
}

func (h *PostHandler) renderPostForm(w http.ResponseWriter, r *http.Request, status int, title string, form *postForm, message, field string) {
	categories, locations, err := h.posts.FormChoices(r.Context())
	if err != nil {
		h.renderer.Error(w, currentUser(r, h.accounts), err)
		return
	}

	h.renderer.Render(w, status, "post_form.html", &templateData{
		Title:       title,
		CurrentUser: currentUser(r, h.accounts),
		Categories:  categories,
		Locations:   locations,
		Form:        form,
		FormError:   message,
		FormField:   field,
	})
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/avolkov/goblog/internal/service"
)

// profileForm re-displays the profile edit form after a failed submission.
type profileForm struct {
	Email     string
	FirstName string
	LastName  string
	Bio       string
}

// ProfileHandler serves public profile pages and the owner's profile edit
// flow.
type ProfileHandler struct {
	posts    *service.PostService
	accounts *service.AccountService
	renderer *Renderer
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(posts *service.PostService, accounts *service.AccountService, renderer *Renderer, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{posts: posts, accounts: accounts, renderer: renderer, logger: logger}
}

// HandleProfile serves a user's page: their details and everything they
// wrote, drafts included, to any visitor.
//
// HTTP: GET /profile/{username}?page=N
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r, h.accounts)
	page := pageParam(r)

	profileUser, posts, hasNext, err := h.posts.ProfileFeed(r.Context(), r.PathValue("username"), page)
	if err != nil {
		h.renderer.Error(w, user, err)
		return
	}

	data := &templateData{
		Title:       profileUser.DisplayName(),
		CurrentUser: user,
		ProfileUser: profileUser,
		Posts:       posts,
	}
	paginate(data, page, hasNext)
	h.renderer.Render(w, http.StatusOK, "profile.html", data)
}

// HandleEditForm serves the profile edit form, pre-filled. The target is
// always the session user; there is no way to address someone else's profile.
//
// HTTP: GET /profile/edit (login required)
func (h *ProfileHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r, h.accounts)
	if user == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	form := &profileForm{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
	}
	h.renderProfileForm(w, r, http.StatusOK, form, "", "")
}

// HandleEdit processes the profile edit form.
//
// HTTP: POST /profile/edit (login required)
func (h *ProfileHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := &profileForm{
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Bio:       r.PostFormValue("bio"),
	}

	user, err := h.accounts.UpdateProfile(r.Context(), actorID(r), service.ProfileInput{
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Bio:       form.Bio,
	})
	if err != nil {
		if message, field, ok := formFailure(err); ok {
			h.renderProfileForm(w, r, http.StatusUnprocessableEntity, form, message, field)
			return
		}
		h.renderer.Error(w, currentUser(r, h.accounts), err)
		return
	}

	http.Redirect(w, r, "/profile/"+user.Username, http.StatusSeeOther)
}

func (h *ProfileHandler) renderProfileForm(w http.ResponseWriter, r *http.Request, status int, form *profileForm, message, field string) {
	h.renderer.Render(w, status, "profile_form.html", &templateData{
		Title:       "Edit profile",
		CurrentUser: currentUser(r, h.accounts),
		Form:        form,
		FormError:   message,
		FormField:   field,
	})
}

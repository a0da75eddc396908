package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/avolkov/goblog/internal/auth"
	"github.com/avolkov/goblog/internal/service"
)

const oauthStateCookie = "oauth_state"

// registerForm and loginForm re-display submitted values after a failed
// attempt. Passwords are never echoed back.
type registerForm struct {
	Username string
	Email    string
}

type loginForm struct {
	Username string
}

// AccountHandler serves registration, login, logout, and the GitHub OAuth
// flow. The github provider may be nil; the server only registers the OAuth
// routes when it is configured.
type AccountHandler struct {
	accounts *service.AccountService
	github   *auth.GitHubProvider
	renderer *Renderer
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *service.AccountService, github *auth.GitHubProvider, renderer *Renderer, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, github: github, renderer: renderer, logger: logger}
}

// GitHubEnabled reports whether the GitHub sign-in routes should exist.
func (h *AccountHandler) GitHubEnabled() bool {
	return h.github != nil
}

// HandleRegisterForm serves the registration form.
//
// HTTP: GET /auth/register
func (h *AccountHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, http.StatusOK, "register.html", &registerForm{}, "", "")
}

// HandleRegister creates an account and signs it in.
//
// HTTP: POST /auth/register
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := &registerForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	}

	result, err := h.accounts.Register(r.Context(), form.Username, form.Email, r.PostFormValue("password"))
	if err != nil {
		if message, field, ok := formFailure(err); ok {
			h.renderAuthPage(w, r, http.StatusUnprocessableEntity, "register.html", form, message, field)
			return
		}
		h.renderer.Error(w, nil, err)
		return
	}

	auth.SetSessionCookie(w, result.Token)
	http.Redirect(w, r, "/profile/"+result.User.Username, http.StatusSeeOther)
}

// HandleLoginForm serves the login form, carrying through the ?next= resume
// target set by the login-required middleware.
//
// HTTP: GET /auth/login?next=/posts/create
func (h *AccountHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, http.StatusOK, "login.html", &loginForm{}, "", "")
}

// HandleLogin authenticates and resumes whatever the user was doing before
// being sent to the form.
//
// HTTP: POST /auth/login
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := &loginForm{Username: r.PostFormValue("username")}

	result, err := h.accounts.Login(r.Context(), form.Username, r.PostFormValue("password"))
	if err != nil {
		if message, field, ok := formFailure(err); ok {
			h.renderAuthPage(w, r, http.StatusUnprocessableEntity, "login.html", form, message, field)
			return
		}
		h.renderer.Error(w, nil, err)
		return
	}

	auth.SetSessionCookie(w, result.Token)
	http.Redirect(w, r, safeNext(r.PostFormValue("next")), http.StatusSeeOther)
}

// HandleLogout clears the session cookie. POST only: logout changes state.
//
// HTTP: POST /auth/logout
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin starts the OAuth flow. The random state lands in a
// short-lived cookie and must come back unchanged on the callback.
//
// HTTP: GET /auth/github/login
func (h *AccountHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the OAuth flow: verify state, exchange the
// code, sign the GitHub account in (creating it on first visit), set the
// session cookie.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AccountHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback with missing or mismatched state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single-use
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.accounts.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("github sign-in failed",
			slog.Int64("github_id", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	auth.SetSessionCookie(w, result.Token)
	http.Redirect(w, r, "/profile/"+result.User.Username, http.StatusSeeOther)
}

// renderAuthPage renders login/register pages. They never show a logged-in
// layout: anyone on them either has no session or is replacing one.
func (h *AccountHandler) renderAuthPage(w http.ResponseWriter, r *http.Request, status int, page string, form any, message, field string) {
	title := "Log in"
	if page == "register.html" {
		title = "Register"
	}

	h.renderer.Render(w, status, page, &templateData{
		Title:     title,
		Form:      form,
		FormError: message,
		FormField: field,
		Next:      safeNext(r.URL.Query().Get("next")),
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/auth"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// AuthResult is a signed-in user together with their session token. Handlers
// set the token as a cookie.
type AuthResult struct {
	User  *model.User
	Token string
}

// AccountService handles registration, login, GitHub sign-in, and profile
// edits.
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(users repository.UserRepository, tokens *auth.TokenService, passwords *auth.PasswordService, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a password account and signs it in. A taken username
// surfaces as ErrConflict so the form can re-render with the field marked.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("username", user.Username))
	return s.signIn(user)
}

// Login authenticates a password account. A missing user and a wrong
// password produce the same validation error, so the form cannot be used to
// probe which usernames exist.
func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	badCredentials := apperror.ValidationFailed("username", "invalid username or password")

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, badCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		// GitHub-only account, no password to check.
		return nil, badCredentials
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, badCredentials
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))
	return s.signIn(user)
}

// LoginOrRegisterGitHub signs in the account linked to the GitHub user,
// creating one on first sign-in. The link key is GitHub's numeric ID, which
// is stable across login renames. A first-time user whose GitHub login is
// already taken locally gets the login suffixed with the numeric ID.
func (s *AccountService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		return s.signIn(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	username := gh.Login
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		username = fmt.Sprintf("%s-%d", gh.Login, gh.ID)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	user = &model.User{
		Username: username,
		Email:    gh.Email,
		GitHubID: gh.ID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered via github",
		slog.String("username", user.Username),
		slog.Int64("github_id", gh.ID),
	)
	return s.signIn(user)
}

// GetUserByID loads a user, for showing the signed-in identity in the layout
// and pre-filling the profile form.
func (s *AccountService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// ProfileInput carries the self-editable profile fields. Username is fixed at
// registration; it is part of profile URLs.
type ProfileInput struct {
	Email     string
	FirstName string
	LastName  string
	Bio       string
}

// UpdateProfile applies the input to the actor's own profile. There is no
// ownership check to get wrong here: the target is always the session user.
func (s *AccountService) UpdateProfile(ctx context.Context, actorID string, in ProfileInput) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	user.Email = strings.TrimSpace(in.Email)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Bio = strings.TrimSpace(in.Bio)

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("username", user.Username))
	return user, nil
}

func (s *AccountService) signIn(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func validateUsername(username string) error {
	if len(username) < 3 {
		return apperror.ValidationFailed("username", "username must be at least 3 characters")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if !usernamePattern.MatchString(username) {
		return apperror.ValidationFailed("username",
			"username may contain only letters, digits, '.', '-' and '_'")
	}
	return nil
}

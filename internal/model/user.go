// Package model defines the data structures used throughout the application.
// These are plain records with no behaviour attached — the business rules
// (visibility, ownership) live in the service layer.
package model

import "time"

// User is a registered account. The username doubles as the public identity:
// it appears in profile URLs and as the author name on posts and comments.
//
// Accounts are created either with a username/password pair (PasswordHash is
// a bcrypt hash) or via GitHub OAuth (GitHubID set, PasswordHash empty). Both
// kinds of account are equal everywhere else in the app.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"` // unique, used in /profile/{username}
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized
	GitHubID     int64     `json:"-"` // 0 for password-only accounts
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DisplayName returns the user's full name if set, falling back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

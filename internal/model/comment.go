package model

import "time"

// Comment is a reply attached to a post. Comments have no visibility flags of
// their own — they are only ever reachable through their post's detail view,
// so they inherit its visibility.
//
// AuthorID and PostID are stamped from the session and the URL path at create
// time and never change afterwards.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"authorId"`
	PostID    string    `json:"postId"`
	CreatedAt time.Time `json:"createdAt"`

	Author *User `json:"author,omitempty"`
}

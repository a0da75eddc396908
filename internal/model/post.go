package model

import "time"

// Post is a blog entry. A post belongs to exactly one author and optionally to
// one category and one location (empty ID = none; stored as NULL).
//
// PubDate and IsPublished together control read-visibility for everyone except
// the author: a post is publicly visible only when it is published, its pub
// date is not in the future, and its category (if any) is itself published.
// The predicate lives in the service layer (service.PostVisibleTo) and is
// pushed into SQL for list queries.
//
// Author, Category and Location are populated by joined queries at load time.
// Category and Location are nil when the post has none — predicates must not
// reach through them without a nil check.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	PubDate     time.Time `json:"pubDate"`
	IsPublished bool      `json:"isPublished"`
	AuthorID    string    `json:"authorId"` // immutable after create
	CategoryID  string    `json:"categoryId,omitempty"`
	LocationID  string    `json:"locationId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	Author   *User     `json:"author,omitempty"`
	Category *Category `json:"category,omitempty"`
	Location *Location `json:"location,omitempty"`
}

package model

import "time"

// Category groups posts and is addressed by its slug in URLs (/category/{slug}).
//
// An unpublished category hides itself AND every post filed under it from
// non-author viewers; the category feed for it returns not-found.
type Category struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"` // unique, URL-safe
	Description string    `json:"description"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

package model

import "time"

// Location is an optional place attribute of a post.
//
// Unlike Category, an unpublished location does not hide its posts; its flag
// only controls whether the location is offered as a choice on the post form.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

package models

import "time"

// Post is an authored article. AuthorUsername is resolved from the users
// table on reads and is never written to the posts table itself.
type Post struct {
	ID             string
	AuthorID       string
	AuthorUsername string
	Title          string
	Body           string

	// CoverKey is the object-storage key of the cover image, "" when unset.
	CoverKey string

	CreatedAt time.Time
	UpdatedAt time.Time
}

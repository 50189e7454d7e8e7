// Package posts provides PostgreSQL-backed persistence for post records,
// including filtered, paginated listing.
package posts

import (
	"context"

	"github.com/avolkov/minipost/internal/server/models"
)

// Sort is an allowlisted ordering for post listings. The string values match
// the client-facing query parameter.
type Sort string

const (
	SortCreatedAtDesc Sort = "-created_at"
	SortCreatedAtAsc  Sort = "created_at"
	SortTitleAsc      Sort = "title"
	SortTitleDesc     Sort = "-title"
)

// ParseSort maps a client-supplied sort key to a supported ordering, falling
// back to newest-first for anything outside the allowlist.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortCreatedAtAsc, SortCreatedAtDesc, SortTitleAsc, SortTitleDesc:
		return Sort(s)
	default:
		return SortCreatedAtDesc
	}
}

// ListFilter narrows and pages a post listing. Zero values mean "no filter".
type ListFilter struct {
	// AuthorID restricts results to one author when non-empty.
	AuthorID string
	// TitleQuery is a case-insensitive substring match on the title.
	TitleQuery string
	Sort       Sort
	Limit      int
	Offset     int
}

type Repository interface {
	// Create inserts the post and fills in the generated id and timestamps.
	// AuthorUsername is left untouched; reads resolve it via join.
	Create(ctx context.Context, post *models.Post) (*models.Post, error)

	// GetByID returns the post with its author's username resolved.
	GetByID(ctx context.Context, id string) (*models.Post, error)

	// List returns one page of posts plus the total count matching the
	// filter (ignoring Limit/Offset).
	List(ctx context.Context, filter ListFilter) ([]*models.Post, int64, error)

	// Update rewrites title and body and refreshes updated_at.
	Update(ctx context.Context, post *models.Post) error

	Delete(ctx context.Context, id string) error

	// SetCoverKey records the object-storage key of the post's cover image.
	SetCoverKey(ctx context.Context, id string, key string) error
}

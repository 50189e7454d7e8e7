package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/avolkov/minipost/internal/common"
	"github.com/avolkov/minipost/internal/dbx"
	"github.com/avolkov/minipost/internal/server/models"
	"github.com/avolkov/minipost/internal/server/repositories/posts"
	"github.com/avolkov/minipost/internal/server/repositories/repomanager"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	maxTitleLength = 200
)

type CreatePostParams struct {
	Title string
	Body  string
}

// UpdatePostParams carries a partial update: nil fields stay untouched.
type UpdatePostParams struct {
	Title *string
	Body  *string
}

type ListPostsParams struct {
	AuthorID   string
	TitleQuery string
	Sort       posts.Sort
	Page       int
	Limit      int
}

// ListPostsResult reports the effective page and limit after clamping so the
// response envelope reflects what was actually queried.
type ListPostsResult struct {
	Posts []*models.Post
	Page  int
	Limit int
	Total int64
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, repomanager repomanager.RepositoryManager) *PostService {
	return &PostService{
		db:          db,
		repomanager: repomanager,
	}
}

// validateTitle counts runes, not bytes, so multibyte titles are not cut short.
func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n < 1 || n > maxTitleLength {
		return fmt.Errorf("%w: title must be 1 to %d characters", common.ErrValidation, maxTitleLength)
	}
	return nil
}

// Create inserts a post owned by author. The body is stored as given, only
// the title is trimmed.
func (s *PostService) Create(ctx context.Context, author *models.User, p CreatePostParams) (*models.Post, error) {
	title := strings.TrimSpace(p.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Body) == "" {
		return nil, fmt.Errorf("%w: body is required", common.ErrValidation)
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{
		AuthorID: author.ID,
		Title:    title,
		Body:     p.Body,
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	post.AuthorUsername = author.Username
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.repomanager.Posts(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	return post, nil
}

// List pages through posts. Out-of-range paging inputs are clamped instead
// of rejected: page floors at 1, limit defaults to DefaultPageSize and caps
// at MaxPageSize.
func (s *PostService) List(ctx context.Context, p ListPostsParams) (*ListPostsResult, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	items, total, err := s.repomanager.Posts(s.db).List(ctx, posts.ListFilter{
		AuthorID:   strings.TrimSpace(p.AuthorID),
		TitleQuery: strings.TrimSpace(p.TitleQuery),
		Sort:       p.Sort,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	return &ListPostsResult{
		Posts: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}, nil
}

// Update applies a partial update to a post owned by userID. The fetch and
// the write share one transaction so the ownership check cannot go stale.
func (s *PostService) Update(ctx context.Context, userID string, postID string, p UpdatePostParams) (*models.Post, error) {
	if p.Title == nil && p.Body == nil {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}

	var updated *models.Post

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)

		post, err := repo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != userID {
			return common.ErrForbidden
		}

		if p.Title != nil {
			title := strings.TrimSpace(*p.Title)
			if err := validateTitle(title); err != nil {
				return err
			}
			post.Title = title
		}
		if p.Body != nil {
			if strings.TrimSpace(*p.Body) == "" {
				return fmt.Errorf("%w: body cannot be empty", common.ErrValidation)
			}
			post.Body = *p.Body
		}

		if err := repo.Update(ctx, post); err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	return updated, nil
}

// Delete removes a post owned by userID, with the same transactional
// ownership check as Update.
func (s *PostService) Delete(ctx context.Context, userID string, postID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)

		post, err := repo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != userID {
			return common.ErrForbidden
		}

		return repo.Delete(ctx, postID)
	})
	if err != nil {
		if isDomainErr(err) {
			return err
		}
		return fmt.Errorf("error deleting post: %w", err)
	}
	return nil
}

// isDomainErr reports whether err is an outcome callers handle explicitly,
// as opposed to an unexpected failure.
func isDomainErr(err error) bool {
	return errors.Is(err, common.ErrNotFound) ||
		errors.Is(err, common.ErrForbidden) ||
		errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrAlreadyExists)
}

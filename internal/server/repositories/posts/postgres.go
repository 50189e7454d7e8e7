package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkov/minipost/internal/common"
	"github.com/avolkov/minipost/internal/dbx"
	"github.com/avolkov/minipost/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the PostgreSQL error code raised when the author
// row no longer exists at insert time.
const foreignKeyViolation = "23503"

// PostgresRepository implements post storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var orderClauses = map[Sort]string{
	SortCreatedAtDesc: "p.created_at DESC",
	SortCreatedAtAsc:  "p.created_at ASC",
	SortTitleAsc:      "p.title ASC",
	SortTitleDesc:     "p.title DESC",
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {

	query :=
		`INSERT INTO posts (author_id, title, body)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.AuthorID, post.Title, post.Body).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`SELECT p.id, p.author_id, u.username, p.title, p.body, p.cover_key, p.created_at, p.updated_at
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.id = $1
		 `

	post := &models.Post{}
	var coverKey sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&post.ID, &post.AuthorID, &post.AuthorUsername, &post.Title, &post.Body,
			&coverKey, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	post.CoverKey = coverKey.String
	return post, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*models.Post, int64, error) {
	where :=
		`WHERE ($1 = '' OR p.author_id::text = $1)
		   AND ($2 = '' OR p.title ILIKE '%' || $2 || '%')`

	titleQuery := escapeLike(filter.TitleQuery)

	var total int64
	countQuery := `SELECT COUNT(*) FROM posts p ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, filter.AuthorID, titleQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	order, ok := orderClauses[filter.Sort]
	if !ok {
		order = orderClauses[SortCreatedAtDesc]
	}

	query :=
		`SELECT p.id, p.author_id, u.username, p.title, p.body, p.cover_key, p.created_at, p.updated_at
		 FROM posts p
		 JOIN users u ON u.id = p.author_id ` + where + `
		 ORDER BY ` + order + `
		 LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, filter.AuthorID, titleQuery, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		var item models.Post
		var coverKey sql.NullString
		if err := rows.Scan(
			&item.ID, &item.AuthorID, &item.AuthorUsername, &item.Title, &item.Body,
			&coverKey, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		item.CoverKey = coverKey.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts SET title = $2, body = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, post.ID, post.Title, post.Body).Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) SetCoverKey(ctx context.Context, id string, key string) error {
	query :=
		`UPDATE posts SET cover_key = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

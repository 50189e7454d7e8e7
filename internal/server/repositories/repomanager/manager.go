package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkov/minipost/internal/dbx"
	"github.com/avolkov/minipost/internal/server/repositories/posts"
	"github.com/avolkov/minipost/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a concrete DB handle, so the
// same factory serves both plain connections and open transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
}

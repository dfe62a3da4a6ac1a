package postgres

import (
	"context"
	"database/sql"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/dbx"
	"github.com/pratik-mahalle/creatorhub/internal/repository"
)

// repos is a set of repositories bound to one DBTX
type repos struct {
	users     user.Repository
	content   content.Repository
	snapshots snapshot.Repository
}

func newRepos(db dbx.DBTX, d dialect) *repos {
	return &repos{
		users:     NewUserRepository(db),
		content:   newContentRepository(db, d),
		snapshots: NewSnapshotRepository(db),
	}
}

func (r *repos) Users() user.Repository         { return r.users }
func (r *repos) Content() content.Repository    { return r.content }
func (r *repos) Snapshots() snapshot.Repository { return r.snapshots }

// Manager implements repository.Manager over a *sql.DB
type Manager struct {
	*repos
	db      *sql.DB
	dialect dialect
}

// NewManager creates a repository manager
func NewManager(db *sql.DB) repository.Manager {
	d := dialectOf(db)
	return &Manager{repos: newRepos(db, d), db: db, dialect: d}
}

// Conn returns the underlying pool
func (m *Manager) Conn() *sql.DB {
	return m.db
}

// WithTx runs fn with repositories bound to a single transaction
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, r repository.Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, newRepos(tx, m.dialect))
	})
}

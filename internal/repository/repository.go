// Package repository defines how services reach the data layer as a unit.
package repository

import (
	"context"
	"database/sql"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
)

// Repositories is a set of repositories sharing one connection or transaction
type Repositories interface {
	Users() user.Repository
	Content() content.Repository
	Snapshots() snapshot.Repository
}

// Manager vends repositories bound to the pool, or to a transaction for the
// duration of WithTx.
type Manager interface {
	Repositories

	// WithTx runs fn with repositories bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	Conn() *sql.DB
}

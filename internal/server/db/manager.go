// Package db wires the PostgreSQL connection, goose migrations and the
// per-table repositories behind one manager.
package db

import (
	"context"
	"database/sql"

	"github.com/veristamp/veristamp/internal/server/repositories/attestations"
	"github.com/veristamp/veristamp/internal/server/repositories/refreshtokens"
	"github.com/veristamp/veristamp/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Attestations() attestations.Repository
}

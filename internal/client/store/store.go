// Package store is the CLI's local sqlite state: the metadata key/value
// table holding auth tokens, and a cache of attestation receipts so "list
// --cached" and "share" work without a server round trip.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/veristamp/veristamp/internal/client/migrations"
)

type Store struct {
	db       *sql.DB
	Metadata *MetadataRepository
	Receipts *ReceiptRepository
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the sqlite database at dsn and applies
// pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		Metadata: NewMetadataRepository(db),
		Receipts: NewReceiptRepository(db),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

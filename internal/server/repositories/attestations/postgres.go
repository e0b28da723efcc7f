// Package attestations provides the PostgreSQL-backed repository for
// attestation records.
package attestations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/veristamp/veristamp/internal/attest"
	"github.com/veristamp/veristamp/internal/common"
	"github.com/veristamp/veristamp/internal/dbx"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `id, attestation_id, user_id, file_name, file_type, file_size, file_hash, storage_key, created_at`

func scanRecord(row interface{ Scan(...any) error }) (*attest.Record, error) {
	var rec attest.Record
	err := row.Scan(&rec.ID, &rec.Identifier, &rec.OwnerID, &rec.DisplayName,
		&rec.ContentKind, &rec.ContentLength, &rec.Digest, &rec.StorageKey, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*attest.Record, error) {
	defer rows.Close()

	var result []*attest.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Insert persists rec as one atomic row and fills in the generated row id
// and creation timestamp. A unique-constraint hit on attestation_id maps to
// common.ErrDuplicateIdentifier.
func (r *PostgresRepository) Insert(ctx context.Context, rec *attest.Record) (*attest.Record, error) {
	query := `
		INSERT INTO attestations (attestation_id, user_id, file_name, file_type, file_size, file_hash, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.Identifier, rec.OwnerID, rec.DisplayName, rec.ContentKind,
		rec.ContentLength, rec.Digest, rec.StorageKey,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// ByDigest returns records matching the digest, most recently created first.
func (r *PostgresRepository) ByDigest(ctx context.Context, digest string) ([]*attest.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attestations WHERE file_hash=$1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to select by digest: %w", err)
	}
	return collectRecords(rows)
}

// ByIdentifier returns records matching the exact identifier.
func (r *PostgresRepository) ByIdentifier(ctx context.Context, identifier string) ([]*attest.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attestations WHERE attestation_id=$1`
	rows, err := r.db.QueryContext(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to select by identifier: %w", err)
	}
	return collectRecords(rows)
}

// ExistsByDigest reports whether any record carries the digest.
func (r *PostgresRepository) ExistsByDigest(ctx context.Context, digest string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attestations WHERE file_hash=$1)`, digest).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check digest existence: %w", err)
	}
	return exists, nil
}

// ListByOwner returns the owner's records, most recently created first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*attest.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attestations WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attestations: %w", err)
	}
	return collectRecords(rows)
}

// GetForOwner returns the record with the given row id if ownerID owns it,
// common.ErrorNotFound otherwise.
func (r *PostgresRepository) GetForOwner(ctx context.Context, ownerID, id string) (*attest.Record, error) {
	// id comes from a request path; a non-uuid value cannot match any row
	// and would otherwise surface as a cast error from the uuid column
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + recordColumns + ` FROM attestations WHERE id=$1 AND user_id=$2`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get attestation: %w", err)
	}
	return rec, nil
}

// DeleteForOwner removes the record with the given row id if ownerID owns
// it, common.ErrorNotFound otherwise.
func (r *PostgresRepository) DeleteForOwner(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM attestations WHERE id=$1 AND user_id=$2`, id, ownerID)
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
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// CountByOwner returns the number of records the owner has.
func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM attestations WHERE user_id=$1`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attestations: %w", err)
	}
	return n, nil
}

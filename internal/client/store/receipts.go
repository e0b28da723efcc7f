package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veristamp/veristamp/internal/dbx"
)

// Receipt is the locally cached proof of a successful attestation.
type Receipt struct {
	Identifier  string
	DisplayName string
	Digest      string
	VerifyURL   string
	CreatedAt   time.Time
}

type ReceiptRepository struct {
	db dbx.DBTX
}

func NewReceiptRepository(db dbx.DBTX) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Save upserts a receipt keyed by its identifier.
func (r *ReceiptRepository) Save(ctx context.Context, rec *Receipt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO receipts (attestation_id, file_name, file_hash, verify_url, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(attestation_id) DO UPDATE SET
			file_name = excluded.file_name,
			file_hash = excluded.file_hash,
			verify_url = excluded.verify_url,
			created_at = excluded.created_at
	`, rec.Identifier, rec.DisplayName, rec.Digest, rec.VerifyURL, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save receipt %s: %w", rec.Identifier, err)
	}
	return nil
}

// Get returns the cached receipt, or (nil, nil) when absent.
func (r *ReceiptRepository) Get(ctx context.Context, identifier string) (*Receipt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT attestation_id, file_name, file_hash, verify_url, created_at
		FROM receipts WHERE attestation_id = ?
	`, identifier)

	var rec Receipt
	err := row.Scan(&rec.Identifier, &rec.DisplayName, &rec.Digest, &rec.VerifyURL, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", identifier, err)
	}
	return &rec, nil
}

// List returns all cached receipts, newest first.
func (r *ReceiptRepository) List(ctx context.Context) ([]*Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT attestation_id, file_name, file_hash, verify_url, created_at
		FROM receipts ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var result []*Receipt
	for rows.Next() {
		var rec Receipt
		if err := rows.Scan(&rec.Identifier, &rec.DisplayName, &rec.Digest, &rec.VerifyURL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt row: %w", err)
		}
		result = append(result, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipt rows: %w", err)
	}

	return result, nil
}

func (r *ReceiptRepository) Delete(ctx context.Context, identifier string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE attestation_id = ?`, identifier)
	if err != nil {
		return fmt.Errorf("failed to delete receipt %s: %w", identifier, err)
	}
	return nil
}

// Clear wipes the receipt cache.
func (r *ReceiptRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM receipts`)
	if err != nil {
		return fmt.Errorf("failed to clear receipts: %w", err)
	}
	return nil
}

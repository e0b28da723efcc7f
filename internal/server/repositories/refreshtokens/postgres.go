// Package refreshtokens provides the PostgreSQL-backed repository for
// refresh token persistence.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veristamp/veristamp/internal/common"
	"github.com/veristamp/veristamp/internal/dbx"
	"github.com/veristamp/veristamp/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func insertToken(ctx context.Context, db dbx.DBTX, userID, token string, validity time.Duration) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, time.Now().Add(validity))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	return insertToken(ctx, r.db, userID, token, validity)
}

func (r *PostgresRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM refresh_tokens WHERE token=$1`, token).
		Scan(&t.Token, &t.UserID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if time.Now().After(t.ExpiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}
	return &t, nil
}

// Replace consumes oldToken and persists newToken for userID in one
// transaction. The delete checks rows affected, so of two concurrent
// rotations of the same token exactly one succeeds; the loser gets
// common.ErrorNotFound.
func (r *PostgresRepository) Replace(ctx context.Context, oldToken, userID, newToken string, validity time.Duration) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token=$1`, oldToken)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected error: %w", err)
		}
		if n == 0 {
			return common.ErrorNotFound
		}
		return insertToken(ctx, tx, userID, newToken, validity)
	})
}

package refreshtokens

import (
	"context"
	"time"

	"github.com/veristamp/veristamp/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, token string, validity time.Duration) error
	// Get returns the token row, or common.ErrorNotFound if absent, or
	// common.ErrRefreshTokenExpired if present but past its expiry.
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	// Replace atomically consumes oldToken and stores newToken for userID.
	// Returns common.ErrorNotFound when oldToken was already consumed, so a
	// rotated token can never be redeemed twice.
	Replace(ctx context.Context, oldToken, userID, newToken string, validity time.Duration) error
}

package users

import (
	"context"

	"github.com/veristamp/veristamp/internal/server/models"
)

type Repository interface {
	// Create inserts a new user and returns it with the generated id and
	// creation timestamp. A duplicate email maps to common.ErrEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

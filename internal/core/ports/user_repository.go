package ports

import (
	"context"

	"github.com/storefront/sessions-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Lookups report absence as domain.ErrUserNotFound.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByEmailFold matches the whole email ignoring case.
	FindByEmailFold(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create fails with domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, digest string) error
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/sessions-api/internal/core/domain"
	"github.com/storefront/sessions-api/internal/core/ports"
)

// IdentitySerializer stores a user's identifier in the session and resolves it
// back to the full record on later requests.
type IdentitySerializer struct {
	repo ports.UserRepository
}

func NewIdentitySerializer(repo ports.UserRepository) *IdentitySerializer {
	return &IdentitySerializer{repo: repo}
}

func (s *IdentitySerializer) Serialize(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", domain.ErrMissingIdentity
	}
	return user.ID, nil
}

// Deserialize returns (nil, nil) for an empty token or a token naming no
// user; the session layer treats that as anonymous.
func (s *IdentitySerializer) Deserialize(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}

	user, err := s.repo.FindByID(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrDeserializeUser, err)
	}
	return user, nil
}

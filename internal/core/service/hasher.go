package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/sessions-api/internal/core/domain"
)

// BcryptHasher implements ports.PasswordHasher with bcrypt. Every Hash call
// draws a fresh salt, so equal passwords produce different digests.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.ErrPasswordTooLong
		}
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the digest stored on user. A
// missing user, an empty digest or a malformed digest never verifies.
func (h *BcryptHasher) Verify(user *domain.User, plaintext string) bool {
	if user == nil || !user.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plaintext)) == nil
}

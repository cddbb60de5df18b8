package ports

import (
	"context"
	"time"

	"github.com/storefront/sessions-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

// LoginInput carries local credentials.
type LoginInput struct {
	Email    string
	Password string
}

// ResetPasswordInput carries the reset form. The email is matched ignoring case.
type ResetPasswordInput struct {
	Email       string
	NewPassword string
}

// GithubProfile is the subset of the GitHub user profile the github strategy uses.
type GithubProfile struct {
	Login string
	Name  string
	Email string
}

// StrategySet exposes the four verification flows. Each call runs to
// completion and returns a terminal outcome.
type StrategySet interface {
	Register(ctx context.Context, in RegisterInput) domain.Outcome
	Login(ctx context.Context, in LoginInput) domain.Outcome
	ResetPassword(ctx context.Context, in ResetPasswordInput) domain.Outcome
	Github(ctx context.Context, profile GithubProfile) domain.Outcome
}

// PasswordHasher produces and checks salted password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(user *domain.User, plaintext string) bool
}

// IdentitySerializer maps a user to the token kept by the session layer and back.
type IdentitySerializer interface {
	Serialize(user *domain.User) (string, error)
	// Deserialize returns (nil, nil) when the token names no user.
	Deserialize(ctx context.Context, token string) (*domain.User, error)
}

package ports

import (
	"context"

	"github.com/storefront/sessions-api/internal/core/domain"
)

// SessionManager binds an authenticated user to the request's session. The
// context must come from a request that went through the session middleware.
type SessionManager interface {
	Login(ctx context.Context, user *domain.User) error
	// CurrentUser returns (nil, nil) for an anonymous session.
	CurrentUser(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context) error
	PutOAuthState(ctx context.Context, state string)
	PopOAuthState(ctx context.Context) string
}

// GithubAuthenticator runs the GitHub authorization-code exchange.
type GithubAuthenticator interface {
	Configured() bool
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (GithubProfile, error)
}

// StateSigner issues and checks the opaque OAuth state parameter.
type StateSigner interface {
	Issue() (string, error)
	Verify(state string) error
}

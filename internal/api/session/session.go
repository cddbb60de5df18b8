// Package session keeps the authenticated user's identity in a server-side
// session. The session cookie carries only an opaque token; the store (Redis
// in production) holds the serialized identity.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/sessions-api/internal/core/domain"
	"github.com/storefront/sessions-api/internal/core/ports"
	"github.com/storefront/sessions-api/internal/pkg/metrics"
)

const (
	userIDKey     = "userID"
	oauthStateKey = "oauthState"
)

// Config controls the session cookie and its lifetime.
type Config struct {
	CookieName  string
	Lifetime    time.Duration
	IdleTimeout time.Duration
	Secure      bool
}

// Manager implements ports.SessionManager on top of scs.
type Manager struct {
	sm         *scs.SessionManager
	identities ports.IdentitySerializer
	log        zerolog.Logger
}

// NewManager builds a Manager. A nil store keeps scs' in-memory default.
func NewManager(store scs.Store, identities ports.IdentitySerializer, cfg Config, log zerolog.Logger) *Manager {
	sm := scs.New()
	if store != nil {
		sm.Store = store
	}
	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
	}
	if cfg.IdleTimeout > 0 {
		sm.IdleTimeout = cfg.IdleTimeout
	}
	if cfg.CookieName != "" {
		sm.Cookie.Name = cfg.CookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.Secure
	sm.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("session store error")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	return &Manager{sm: sm, identities: identities, log: log}
}

// Middleware loads the session before the handler runs and commits it when
// the response is written.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return echo.WrapMiddleware(m.sm.LoadAndSave)
}

// Login stores user's identity token under a fresh session token.
func (m *Manager) Login(ctx context.Context, user *domain.User) error {
	token, err := m.identities.Serialize(user)
	if err != nil {
		return err
	}
	if err := m.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	m.sm.Put(ctx, userIDKey, token)
	return nil
}

// CurrentUser resolves the session's identity token. A token naming a user
// that no longer exists is dropped from the session.
func (m *Manager) CurrentUser(ctx context.Context) (*domain.User, error) {
	token := m.sm.GetString(ctx, userIDKey)
	if token == "" {
		metrics.SessionResolutionsTotal.WithLabelValues("anonymous").Inc()
		return nil, nil
	}

	user, err := m.identities.Deserialize(ctx, token)
	if err != nil {
		metrics.SessionResolutionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if user == nil {
		m.sm.Remove(ctx, userIDKey)
		metrics.SessionResolutionsTotal.WithLabelValues("anonymous").Inc()
		return nil, nil
	}

	metrics.SessionResolutionsTotal.WithLabelValues("user").Inc()
	return user, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	if err := m.sm.Destroy(ctx); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (m *Manager) PutOAuthState(ctx context.Context, state string) {
	m.sm.Put(ctx, oauthStateKey, state)
}

// PopOAuthState returns the pending state and removes it, so a state value
// can complete at most one callback.
func (m *Manager) PopOAuthState(ctx context.Context) string {
	return m.sm.PopString(ctx, oauthStateKey)
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/sessions-api/internal/core/ports"
)

// Context keys set by RequireUser.
const (
	UserKey = "user"
	RoleKey = "role"
)

// RequireUser resolves the session identity and injects the user and its role
// into the context. Anonymous requests are answered with 401.
func RequireUser(sessions ports.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := sessions.CurrentUser(c.Request().Context())
			if err != nil {
				return err
			}
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			c.Set(UserKey, user)
			c.Set(RoleKey, user.EffectiveRole())

			return next(c)
		}
	}
}

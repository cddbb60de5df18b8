package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/sessions-api/internal/core/domain"
)

// RBAC admits requests whose session role is one of allowedRoles. It must run
// after RequireUser; a request without a resolved user is forbidden.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := allowed[sessionRole(c)]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error())
			}
			return next(c)
		}
	}
}

// sessionRole prefers the role RequireUser stored and falls back to the
// user's effective role when only the user was set.
func sessionRole(c echo.Context) string {
	if role, ok := c.Get(RoleKey).(string); ok && role != "" {
		return role
	}
	if user, ok := c.Get(UserKey).(*domain.User); ok && user != nil {
		return user.EffectiveRole()
	}
	return ""
}

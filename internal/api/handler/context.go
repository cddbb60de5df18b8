package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/sessions-api/internal/api/middleware"
	"github.com/storefront/sessions-api/internal/core/domain"
)

// ctxUser returns the user injected by the RequireUser middleware. A missing
// user means the route was mounted without it; answer 401 rather than panic.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(middleware.UserKey).(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return user, nil
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// RequireRole admits callers holding at least one of roles. It must run after
// Gate.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sec := SecurityContextFrom(c)
			if !sec.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			for _, r := range roles {
				if sec.HasRole(r) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Access denied")
		}
	}
}

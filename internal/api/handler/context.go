package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/api/middleware"
	"github.com/99minutos/accounts-api/internal/core/domain"
)

// securityContext returns the identity resolved by the gate and fails fast
// with 401 when the request was never authenticated.
func securityContext(c echo.Context) (domain.SecurityContext, error) {
	sec := middleware.SecurityContextFrom(c)
	if !sec.Authenticated() {
		return sec, echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return sec, nil
}

// respond writes the success envelope.
func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, apiResponse{
		Message:       message,
		Status:        code,
		StatusMessage: http.StatusText(code),
		Path:          c.Request().URL.Path,
		Data:          data,
	})
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/api/metrics"
	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  apiResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /api/users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		case errors.Is(err, domain.ErrInvalidInput):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return respond(c, http.StatusCreated, "User registered successfully", user)
}

// SignIn authenticates by username or email and returns a bearer token.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials; username may be an email"
// @Success      200   {object}  apiResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      429   {object}  map[string]any
// @Router       /api/users/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.SignIn(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.SignInsTotal.WithLabelValues("invalid_credentials").Inc()
			h.log.Info().Str("ip", c.RealIP()).Msg("sign-in rejected")
		} else {
			metrics.SignInsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.SignInsTotal.WithLabelValues("success").Inc()
	return respond(c, http.StatusOK, "Sign-in successful", signInResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/api/metrics"
	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// securityContextKey is the echo context key holding the domain.SecurityContext.
const securityContextKey = "security_context"

// Rejection messages returned by the gate.
const (
	msgMissingHeader = "Missing or invalid Authorization header"
	msgMalformed     = "Malformed token"
	msgExpired       = "Token expired"
	msgInvalid       = "Invalid or expired token"
	msgUnexpected    = "Unexpected error: "
)

// TokenVerifier is the subset of the token service the gate relies on.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	Validate(token, expectedSubject string) error
}

// GateConfig configures the request gate.
type GateConfig struct {
	Tokens     TokenVerifier
	Identities ports.IdentityResolver
	// PublicPaths are matched exactly against the request path.
	PublicPaths []string
	// PublicPrefixes are matched as path prefixes.
	PublicPrefixes []string
	Log            zerolog.Logger
}

// Gate authenticates every non-public request from its bearer token and
// stores the resolved identity on the echo context. OPTIONS requests pass
// through untouched.
func Gate(cfg GateConfig) echo.MiddlewareFunc {
	public := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = struct{}{}
	}

	isPublic := func(path string) bool {
		if _, ok := public[path]; ok {
			return true
		}
		for _, prefix := range cfg.PublicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodOptions || isPublic(req.URL.Path) {
				return next(c)
			}

			sec, rej := authenticate(req.Context(), cfg, req.Header.Get(echo.HeaderAuthorization))
			if rej != nil {
				metrics.GateRejectionsTotal.WithLabelValues(rej.reason).Inc()
				cfg.Log.Warn().
					Str("reason", rej.reason).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Str("ip", c.RealIP()).
					Msg("request rejected by gate")
				return echo.NewHTTPError(rej.code, rej.message)
			}

			c.Set(securityContextKey, sec)
			return next(c)
		}
	}
}

type rejection struct {
	code    int
	reason  string
	message string
}

func reject(code int, reason, message string) *rejection {
	return &rejection{code: code, reason: reason, message: message}
}

// authenticate resolves the caller behind an Authorization header value.
// A panic anywhere in resolution is reported as an unexpected failure.
func authenticate(ctx context.Context, cfg GateConfig, header string) (sec domain.SecurityContext, rej *rejection) {
	defer func() {
		if r := recover(); r != nil {
			sec = domain.SecurityContext{}
			rej = reject(http.StatusUnauthorized, "unexpected", fmt.Sprintf("%s%v", msgUnexpected, r))
		}
	}()

	token, ok := bearerToken(header)
	if !ok {
		return sec, reject(http.StatusForbidden, "missing_header", msgMissingHeader)
	}

	subject, err := cfg.Tokens.ExtractSubject(token)
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return sec, reject(http.StatusUnauthorized, "expired", msgExpired)
	case errors.Is(err, domain.ErrTokenMalformed):
		return sec, reject(http.StatusUnauthorized, "malformed", msgMalformed)
	case err != nil:
		return sec, reject(http.StatusUnauthorized, "unexpected", msgUnexpected+err.Error())
	}

	user, err := cfg.Identities.FindByUsername(ctx, subject)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return sec, reject(http.StatusUnauthorized, "invalid", msgInvalid)
	case err != nil:
		return sec, reject(http.StatusUnauthorized, "unexpected", msgUnexpected+err.Error())
	case user == nil || !user.Active:
		return sec, reject(http.StatusUnauthorized, "invalid", msgInvalid)
	}

	if err := cfg.Tokens.Validate(token, user.Username); err != nil {
		return sec, reject(http.StatusUnauthorized, "invalid", msgInvalid)
	}

	return domain.SecurityContext{Identity: user}, nil
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// SecurityContextFrom returns the identity stored by Gate. Requests that did
// not pass through the gate yield an unauthenticated context.
func SecurityContextFrom(c echo.Context) domain.SecurityContext {
	sec, _ := c.Get(securityContextKey).(domain.SecurityContext)
	return sec
}

// WithSecurityContext stores sec on c. Used by tests and internal callers that
// authenticate through other means.
func WithSecurityContext(c echo.Context, sec domain.SecurityContext) {
	c.Set(securityContextKey, sec)
}

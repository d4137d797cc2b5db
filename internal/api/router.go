package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/api/handler"
	"github.com/99minutos/accounts-api/internal/api/middleware"
	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/infrastructure/http/handlers"
)

const (
	pathRegister = "/api/users/register"
	pathSignIn   = "/api/users/signin"
	uploadsRoute = "/uploads"
)

// Deps carries everything the router wires into handlers and middleware.
type Deps struct {
	Log        zerolog.Logger
	Auth       ports.AuthService
	Users      ports.UserService
	Tokens     middleware.TokenVerifier
	Identities ports.IdentityResolver
	Readiness  *handlers.HealthDependenciesHandler
	// SignInLimiter throttles register and sign-in per client IP. Optional.
	SignInLimiter *middleware.RateLimiter

	UploadDir          string
	BodyLimit          string
	CORSAllowedOrigins []string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// HTTP metrics go to a registry owned by this router; /metrics also
	// exposes the default registry holding the domain counters.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "accounts",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.Secure())
	if d.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(d.BodyLimit))
	}
	e.Use(middleware.Gate(middleware.GateConfig{
		Tokens:         d.Tokens,
		Identities:     d.Identities,
		PublicPaths:    []string{pathRegister, pathSignIn, "/health", "/health/ready", "/metrics"},
		PublicPrefixes: []string{uploadsRoute + "/"},
		Log:            d.Log,
	}))

	// --- Probes and metrics (public) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	if d.Readiness != nil {
		e.GET("/health/ready", d.Readiness.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	}))

	// --- Uploaded files (public) ---
	if d.UploadDir != "" {
		e.Static(uploadsRoute, d.UploadDir)
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Log)
	var throttle []echo.MiddlewareFunc
	if d.SignInLimiter != nil {
		throttle = append(throttle, d.SignInLimiter.Middleware())
	}
	e.POST(pathRegister, authHandler.Register, throttle...)
	e.POST(pathSignIn, authHandler.SignIn, throttle...)

	// --- Profile routes (gate + self-or-admin in the service) ---
	profileHandler := handler.NewProfileHandler(d.Users)
	users := e.Group("/api/users")
	users.GET("/me", profileHandler.Me)
	users.GET("/profile/:id", profileHandler.Get)
	users.PUT("/profile/:id", profileHandler.Update)
	users.DELETE("/profile/:id", profileHandler.Delete)
	users.POST("/profile/:id/picture", profileHandler.UploadPicture)

	fileHandler := handler.NewFileHandler(d.Users)
	e.POST("/api/files/upload", fileHandler.Upload)

	// --- Admin routes ---
	adminHandler := handler.NewAdminHandler(d.Users)
	admin := e.Group("/api/admin", middleware.RequireRole(domain.RoleAdmin))
	admin.PUT("/users/:id/roles", adminHandler.SetRoles)

	return e
}

// requestLogger emits one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				event = log.Error().Err(v.Error)
			case v.Status >= http.StatusBadRequest:
				event = log.Warn()
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

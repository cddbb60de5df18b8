package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/storefront/sessions-api/docs"
	"github.com/storefront/sessions-api/internal/api/handler"
	"github.com/storefront/sessions-api/internal/api/middleware"
	"github.com/storefront/sessions-api/internal/api/session"
	"github.com/storefront/sessions-api/internal/core/domain"
	"github.com/storefront/sessions-api/internal/core/ports"
)

// Dependencies is everything the router needs; main assembles it.
type Dependencies struct {
	Strategies ports.StrategySet
	Sessions   *session.Manager
	Github     handler.GithubFlow
	Readiness  map[string]handler.DependencyCheck
	Log        zerolog.Logger

	// Registry receives the HTTP metrics. Nil means the default registry,
	// which also carries the strategy and audit metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational routes (no session) ---
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Session routes ---
	authHandler := handler.NewAuthHandler(deps.Strategies, deps.Sessions, deps.Github, deps.Log)
	requireUser := middleware.RequireUser(deps.Sessions)

	sessions := e.Group("/api/sessions", deps.Sessions.Middleware())
	sessions.POST("/register", authHandler.Register)
	sessions.POST("/login", authHandler.Login)
	sessions.PUT("/restartPassword", authHandler.RestartPassword)
	sessions.GET("/github", authHandler.Github)
	sessions.GET("/githubcallback", authHandler.GithubCallback)
	sessions.POST("/logout", authHandler.Logout)
	sessions.GET("/current", authHandler.Current, requireUser, middleware.RBAC(domain.RoleUser, domain.RoleAdmin))

	return e
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/catalog-api/docs"
	"github.com/99minutos/catalog-api/internal/api/handler"
	"github.com/99minutos/catalog-api/internal/api/middleware"
	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/ports"
	"github.com/99minutos/catalog-api/internal/core/service"
	"github.com/99minutos/catalog-api/internal/pkg/config"
	"github.com/99minutos/catalog-api/internal/pkg/validation"
)

const bodyLimit = "1M"

// Dependencies are the collaborators the router wires into services and
// handlers. Idempotency, Events and Registry are optional.
type Dependencies struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Products    ports.ProductRepository
	Idempotency ports.IdempotencyStore
	Events      ports.EventPublisher
	Checks      []handler.DependencyCheck
	// Registry replaces the global Prometheus registry for HTTP metrics.
	Registry *prometheus.Registry
	Version  string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	cfg := deps.Config
	log := deps.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

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
	e.Use(requestLogger(log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			handler.HeaderIdempotencyKey,
		},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "catalog",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authService := service.NewAuthService(service.Credentials{
		Email:    cfg.Auth.AdminEmail,
		Password: cfg.Auth.AdminPassword,
	}, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var opts []service.ProductOption
	if deps.Idempotency != nil {
		opts = append(opts, service.WithIdempotencyStore(deps.Idempotency))
	}
	if deps.Events != nil {
		opts = append(opts, service.WithEventPublisher(deps.Events))
	}
	productService := service.NewProductService(deps.Products, log, opts...)

	authHandler := handler.NewAuthHandler(authService)
	productHandler := handler.NewProductHandler(productService)

	requireAuth := middleware.Auth(authService)
	requireAdmin := middleware.RBAC(domain.RoleAdmin)

	e.GET("/", handler.Index(deps.Version))

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, requireAuth, requireAdmin)

	// --- Product routes (reads are public, mutations require an admin token) ---
	products := e.Group("/api/products")
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("/create", productHandler.Create, requireAuth, requireAdmin)
	products.PUT("/:id", productHandler.Update, requireAuth, requireAdmin)
	products.DELETE("/:id", productHandler.Delete, requireAuth, requireAdmin)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/hourbank/timebank/docs"
	"github.com/hourbank/timebank/internal/api/handler"
	"github.com/hourbank/timebank/internal/api/middleware"
	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

// bodyLimit caps JSON request bodies.
const bodyLimit = "10K"

// RouterConfig carries everything NewRouter needs. Counter may be nil, in
// which case requests are not rate limited.
type RouterConfig struct {
	JWTSecret string
	RateLimit middleware.RateLimitConfig
	Counter   middleware.Counter

	Auth    ports.AuthService
	Users   ports.UserService
	Orders  ports.OrderService
	Reviews ports.ReviewService
	Health  map[string]handler.PingFunc

	Log zerolog.Logger
	// Registry replaces the default Prometheus registry when set.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if cfg.Registry != nil {
		registerer, gatherer = cfg.Registry, cfg.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echomiddleware.GzipWithConfig(echomiddleware.GzipConfig{
		// promhttp compresses /metrics on its own
		Skipper: func(c echo.Context) bool { return !strings.HasPrefix(c.Path(), "/api") },
	}))
	e.Use(requestLogger(cfg.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	healthHandler := handler.NewHealthHandler(cfg.Health)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- API ---
	apiGroup := e.Group("/api")
	if cfg.Counter != nil {
		apiGroup.Use(middleware.RateLimit(cfg.Counter, cfg.RateLimit, cfg.Log))
	}
	v1 := apiGroup.Group("/v1")

	authHandler := handler.NewAuthHandler(cfg.Auth)
	userHandler := handler.NewUserHandler(cfg.Users)
	orderHandler := handler.NewOrderHandler(cfg.Orders)
	reviewHandler := handler.NewReviewHandler(cfg.Reviews)

	// Auth is attached per route: a guarded group would also guard its
	// not-found fallback and turn unknown paths into 401s.
	authMiddleware := middleware.Auth(cfg.JWTSecret, cfg.Auth)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	noPrivileged := middleware.RejectPrivilegedFields(cfg.Log)

	users := v1.Group("/users")
	users.POST("/signup", authHandler.Signup, noPrivileged)
	users.POST("/login", authHandler.Login)
	users.POST("/forgot-password", authHandler.ForgotPassword)
	users.PATCH("/reset-password/:token", authHandler.ResetPassword)
	users.PATCH("/update-password", authHandler.UpdatePassword, authMiddleware)

	users.GET("/me", authHandler.Me, authMiddleware)
	users.PATCH("/me", authHandler.UpdateMe, authMiddleware, noPrivileged)
	users.DELETE("/me", authHandler.DeactivateMe, authMiddleware)

	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update, authMiddleware, adminOnly)
	users.DELETE("/:id", userHandler.Delete, authMiddleware, adminOnly)

	users.POST("/:id/order-hour", orderHandler.Send, authMiddleware)
	users.POST("/order-hour/:id", orderHandler.Send, authMiddleware)
	users.POST("/:id/reviews", reviewHandler.Create, authMiddleware)
	users.GET("/:id/reviews", reviewHandler.ListForSubject)

	orders := v1.Group("/orders")
	orders.PATCH("/approve/:id", orderHandler.Approve, authMiddleware)
	orders.PATCH("/reject/:id", orderHandler.Reject, authMiddleware)
	orders.PATCH("/transact/:id", orderHandler.Transact, authMiddleware)
	orders.GET("", orderHandler.List, authMiddleware, adminOnly)
	orders.GET("/:id", orderHandler.Get, authMiddleware, adminOnly)

	reviews := v1.Group("/reviews")
	reviews.GET("", reviewHandler.List)
	reviews.GET("/:id", reviewHandler.Get)
	reviews.PATCH("/:id", reviewHandler.Update, authMiddleware)
	reviews.DELETE("/:id", reviewHandler.Delete, authMiddleware, adminOnly)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
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
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

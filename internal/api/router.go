package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/next-connect/next-connect/docs"
	"github.com/next-connect/next-connect/internal/api/handler"
	"github.com/next-connect/next-connect/internal/api/middleware"
	"github.com/next-connect/next-connect/internal/core/ports"
	"github.com/next-connect/next-connect/internal/session"
)

// SigninPath is where CheckAuth sends anonymous visitors.
const SigninPath = "/signin"

// Dependencies is everything the HTTP layer needs. Redis and Mongo are
// optional; Registerer and Gatherer default to the global Prometheus registry.
type Dependencies struct {
	Log        zerolog.Logger
	Production bool

	Sessions *session.Manager
	Signup   ports.Strategy
	Signin   ports.Strategy
	Messages ports.MessageService

	DB    handler.Pinger
	Redis *redis.Client
	Mongo *mongo.Client

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log, "/_next", "/static"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "next_connect",
		Registerer: deps.Registerer,
	}))
	if deps.Production {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
		e.Use(echomiddleware.Secure())
		e.Use(echomiddleware.Gzip())
	}

	// --- Operational endpoints, no session ---
	health := handler.NewHealthHandler(deps.DB, deps.Redis, deps.Mongo)
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	if !deps.Production {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- App routes, behind the session ---
	sess := deps.Sessions.Middleware()
	checkAuth := middleware.CheckAuth(SigninPath)

	auth := handler.NewAuthHandler(deps.Signup, deps.Signin, deps.Sessions)
	e.POST("/api/auth/signup", auth.Signup, sess)
	e.POST("/api/auth/signin", auth.Signin, sess)
	e.GET("/api/auth/signout", auth.Signout, sess)
	e.GET("/api/auth/me", auth.Me, sess, checkAuth)

	messages := handler.NewMessageHandler(deps.Messages)
	e.GET("/api/messages", messages.Latest, sess)

	pages := handler.NewPageHandler(deps.Messages)
	e.GET("/", pages.Index, sess)
	e.GET(SigninPath, pages.Signin, sess)
	e.GET("/profile", pages.Profile, sess, checkAuth)

	return e, nil
}

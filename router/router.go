package router

import (
	_ "go-music-api/docs"
	"go-music-api/handler"
	"go-music-api/metrics"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Dependencies are the handlers and middleware the router wires together.
type Dependencies struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Health        *handler.HealthHandler
	Authenticator handler.Authenticator
	LoginLimiter  *handler.LoginRateLimiter
	Metrics       *metrics.Collector
	Gatherer      prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	requireAuth := handler.AuthMiddleware(deps.Authenticator, deps.Metrics)

	mux.HandleFunc("GET /health", deps.Health.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler(deps.Gatherer))
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(deps.Users.Register))
	mux.Handle("POST /login", deps.LoginLimiter.Middleware(handler.ErrorHandlingMiddleware(deps.Auth.Login)))
	mux.Handle("POST /refresh", handler.ErrorHandlingMiddleware(deps.Auth.Refresh))
	mux.Handle("POST /logout", handler.ErrorHandlingMiddleware(deps.Auth.Logout))
	mux.Handle("GET /me", requireAuth(handler.ErrorHandlingMiddleware(deps.Users.Me)))

	return handler.RecoverMiddleware(handler.RequestLogger(deps.Metrics)(mux))
}

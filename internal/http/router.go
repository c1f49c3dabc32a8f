package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/handlers"
	"docqa/internal/metrics"
	"docqa/internal/rag"
	"docqa/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Documents        service.DocumentService
	Auth             service.AuthService
	Engine           rag.Engine
	Health           http.Handler // nil disables /health
	MetricsHandler   http.Handler // nil disables /metrics
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	MaxFileSizeBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(Metrics(deps.Metrics))
	r.Use(CORS)

	documentsHandler := handlers.NewDocumentsHandler(deps.Documents, deps.MaxFileSizeBytes)
	askHandler := handlers.NewAskHandler(deps.Engine)
	authHandler := handlers.NewAuthHandler(deps.Auth)

	if deps.Health != nil {
		r.Method(http.MethodGet, "/health", deps.Health)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/me", authHandler.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(deps.Auth))

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", documentsHandler.List)
			r.Post("/upload", documentsHandler.Upload)
			r.Post("/query", documentsHandler.Query)
			r.Delete("/{documentID}", documentsHandler.Delete)
		})
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Get("/queries", askHandler.History)
	})

	return r
}

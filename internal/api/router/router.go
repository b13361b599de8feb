package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/clinic-scheduler/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Sessions       *handlers.SessionsHandler
	MetricsHandler http.Handler

	// TokenSecret verifies bearer tokens when set.
	TokenSecret        string
	CORSAllowedOrigins []string

	// SessionLimiter throttles session creation and submits (optional).
	SessionLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Booking sessions
	if cfg.Sessions != nil {
		r.Route("/sessions", func(sessions chi.Router) {
			sessions.Use(httpmiddleware.BearerToken(cfg.TokenSecret))
			sessions.Use(throttleWrites(cfg.SessionLimiter))
			sessions.Mount("/", cfg.Sessions.Routes())
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// throttleWrites rate-limits session creation and submits only; form edits
// and reads stay unthrottled.
func throttleWrites(limiter *httpmiddleware.RateLimiter) func(http.Handler) http.Handler {
	limit := httpmiddleware.RateLimit(limiter)
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && (r.URL.Path == "/sessions" || r.URL.Path == "/sessions/" || strings.HasSuffix(r.URL.Path, "/submit")) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

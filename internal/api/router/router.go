package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/consult-booking/internal/booking"
	httpmiddleware "github.com/wolfman30/consult-booking/internal/http/middleware"
	"github.com/wolfman30/consult-booking/internal/session"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Booking        *booking.Handler
	Sessions       *session.Store
	MetricsHandler http.Handler
	// RequestMetrics records per-route latency (optional).
	RequestMetrics     httpmiddleware.RequestObserver
	CORSAllowedOrigins []string
	CookieSecure       bool
	RateLimitRPS       float64
	RateLimitBurst     int
	// Readiness reports dependency health on /health (optional).
	Readiness func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.RequestMetrics))
	r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.RateLimitRPS > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.Readiness))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Visitor API, one session per cookie
	if cfg.Booking != nil && cfg.Sessions != nil {
		r.Group(func(api chi.Router) {
			api.Use(httpmiddleware.Sessions(cfg.Sessions, cfg.CookieSecure))
			api.Mount("/api", cfg.Booking.Routes())
		})
	}

	return r
}

func healthHandler(readiness func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := readiness(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/wolfman30/consult-booking/pkg/logging"
)

// RequestObserver records per-route request metrics. Implemented by the metrics package.
type RequestObserver interface {
	ObserveHTTP(route, method string, status int, seconds float64)
}

// RequestLogger emits structured logs for every HTTP request and echoes the
// request id back in X-Request-ID. observer may be nil.
func RequestLogger(logger *logging.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			logger.Debug("request started",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", reqID,
				"remote_ip", ClientIP(r),
			)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"request_id", reqID,
				"duration_ms", elapsed.Milliseconds(),
			)
			if observer != nil {
				observer.ObserveHTTP(routePattern(r), r.Method, status, elapsed.Seconds())
			}
		})
	}
}

// routePattern keeps metric labels bounded by using the chi pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS allows credentialed requests from the listed origins. "*" echoes any
// origin; an empty list leaves responses untouched.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	var origins []string
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	for _, origin := range origins {
		if origin == "*" {
			// Credentialed requests cannot use a literal wildcard.
			opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
			return cors.Handler(opts)
		}
	}
	opts.AllowedOrigins = origins
	return cors.Handler(opts)
}

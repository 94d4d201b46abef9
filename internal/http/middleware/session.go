package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wolfman30/consult-booking/internal/session"
)

// SessionCookie names the cookie carrying the visitor's session id.
const SessionCookie = "consult_session"

type sessionCtxKey struct{}

// Sessions attaches the visitor's session to the request context, starting a
// new one when the cookie is missing or the session has ended.
func Sessions(store *session.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var st *session.State
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				st, _ = store.Get(c.Value)
			}
			if st == nil {
				st = store.Create(r.Context(), ClientIP(r))
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    st.ID(),
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), st)))
		})
	}
}

// WithSession stores st in ctx.
func WithSession(ctx context.Context, st *session.State) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, st)
}

// SessionFrom returns the session attached by Sessions.
func SessionFrom(ctx context.Context) (*session.State, bool) {
	st, ok := ctx.Value(sessionCtxKey{}).(*session.State)
	return st, ok && st != nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

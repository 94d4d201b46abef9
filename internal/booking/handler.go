// Package booking serves the appointment flow over HTTP: catalog, cart,
// checkout, account forms and the notification stream.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wolfman30/consult-booking/internal/auth"
	"github.com/wolfman30/consult-booking/internal/doctors"
	"github.com/wolfman30/consult-booking/internal/http/middleware"
	"github.com/wolfman30/consult-booking/internal/payments"
	"github.com/wolfman30/consult-booking/internal/session"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

const maxBodyBytes = 64 << 10

// DoctorDirectory lists and looks up doctors.
type DoctorDirectory interface {
	List(ctx context.Context) ([]doctors.Doctor, error)
	Get(ctx context.Context, id string) (doctors.Doctor, error)
}

// Handler serves the booking API.
type Handler struct {
	auth       *auth.Service
	doctors    DoctorDirectory
	dispatcher *payments.Dispatcher
	logger     *logging.Logger
}

// NewHandler creates a booking handler.
func NewHandler(authSvc *auth.Service, directory DoctorDirectory, dispatcher *payments.Dispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		auth:       authSvc,
		doctors:    directory,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type errorResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// current returns the request's session or writes a 500.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	st, ok := middleware.SessionFrom(r.Context())
	if !ok {
		h.logger.Error("booking: request without session", "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}
	return st, true
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// boundContext is cancelled when either the request or the session ends.
func boundContext(r *http.Request, st *session.State) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(st.Context(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

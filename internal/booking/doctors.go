package booking

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/consult-booking/internal/doctors"
)

// ListDoctors returns the doctor directory.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	docs, err := h.doctors.List(r.Context())
	if err != nil {
		h.logger.Warn("doctor list unavailable", "error", err)
		writeError(w, http.StatusBadGateway, "doctors are unavailable right now")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "doctors": docs})
}

// GetDoctor returns one doctor for the appointment page.
func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doc, err := h.doctors.Get(r.Context(), chi.URLParam(r, "docID"))
	switch {
	case errors.Is(err, doctors.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor not found")
	case err != nil:
		h.logger.Warn("doctor lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, "doctors are unavailable right now")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "doctor": doc})
	}
}

package booking

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/internal/payments"
)

// LoginPath is where visitors without a token are sent.
const LoginPath = "/login"

type checkoutRequest struct {
	DoctorID string `json:"doc_id"`
}

type checkoutResponse struct {
	Success bool `json:"success"`
	*payments.Outcome
}

// Checkout starts a payment for the cart with the method in the URL.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	method, err := payments.ParseMethod(chi.URLParam(r, "method"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unsupported payment method")
		return
	}
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := boundContext(r, st)
	defer cancel()

	customer := ""
	if req.DoctorID != "" && h.doctors != nil {
		if doc, err := h.doctors.Get(ctx, req.DoctorID); err == nil {
			customer = doc.Name
		}
	}

	outcome, err := h.dispatcher.Checkout(ctx, payments.Checkout{
		Method:       method,
		Token:        st.Token(),
		Total:        st.Total(),
		Locale:       st.Locale(),
		CustomerName: customer,
		Session:      st,
	})
	if err != nil {
		h.checkoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Success: true, Outcome: outcome})
}

// VerifyRazorpay forwards the widget's completion payload for verification.
func (h *Handler) VerifyRazorpay(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := boundContext(r, st)
	defer cancel()

	err = h.dispatcher.ConfirmWidget(ctx, payments.Confirmation{
		Method:  payments.MethodRazorpay,
		Token:   st.Token(),
		Payload: json.RawMessage(payload),
		Session: st,
	})
	if err != nil {
		h.checkoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: payments.MsgPaymentSuccessful})
}

func (h *Handler) checkoutError(w http.ResponseWriter, err error) {
	var be *backend.Error
	switch {
	case errors.Is(err, payments.ErrLoginRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: payments.MsgLoginRequired, Redirect: LoginPath})
	case errors.Is(err, payments.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, payments.MsgSelectPlanFirst)
	case errors.Is(err, payments.ErrPaymentInProgress), errors.Is(err, payments.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, payments.MsgDuplicateSubmit)
	case errors.Is(err, payments.ErrUnknownMethod):
		writeError(w, http.StatusNotFound, "unsupported payment method")
	case errors.Is(err, payments.ErrVerificationFailed):
		writeError(w, http.StatusBadRequest, payments.MsgVerificationFailed)
	case errors.As(err, &be):
		writeError(w, http.StatusBadGateway, messageOrDefault(be.Message, payments.MsgPaymentFailed))
	default:
		writeError(w, http.StatusBadGateway, payments.MsgPaymentFailed)
	}
}

func messageOrDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

package booking

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/consult-booking/internal/auth"
	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/internal/session"
)

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type newPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type recoveryResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Stage   auth.Stage `json:"stage"`
}

// Register creates an account and signs the visitor in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var in auth.RegisterInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.accountError(w, st, err)
		return
	}
	st.SetToken(token)
	st.Board().Success(auth.MsgRegistered)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: auth.MsgRegistered})
}

// Login signs the visitor in.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var in auth.LoginInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.auth.Login(r.Context(), in)
	if err != nil {
		h.accountError(w, st, err)
		return
	}
	st.SetToken(token)
	st.Board().Success(auth.MsgLoggedIn)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: auth.MsgLoggedIn})
}

// Logout forgets the visitor's token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	st.Logout()
	writeJSON(w, http.StatusOK, messageResponse{Success: true})
}

// RequestOTP starts password recovery for an email address.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var req otpRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flow := st.Recovery(h.auth.NewForgotFlow)
	msg, err := flow.RequestOTP(r.Context(), req.Email)
	h.recoveryResult(w, st, flow, msg, err)
}

// VerifyOTP checks the emailed code.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var req otpRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flow := st.Recovery(h.auth.NewForgotFlow)
	msg, err := flow.VerifyOTP(r.Context(), strings.TrimSpace(req.OTP))
	h.recoveryResult(w, st, flow, msg, err)
}

// ResetPassword sets the new password at the end of recovery.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var req newPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flow := st.Recovery(h.auth.NewForgotFlow)
	msg, err := flow.Reset(r.Context(), req.NewPassword, req.ConfirmPassword)
	h.recoveryResult(w, st, flow, msg, err)
}

// ValidateResetToken checks a reset link.
func (h *Handler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var req newPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.auth.ValidateResetToken(r.Context(), req.Token); err != nil {
		h.accountError(w, st, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true})
}

// ResetPasswordWithToken sets a new password from a reset link.
func (h *Handler) ResetPasswordWithToken(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var req newPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := h.auth.ResetWithToken(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.accountError(w, st, err)
		return
	}
	st.Board().Success(msg)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: msg})
}

func (h *Handler) recoveryResult(w http.ResponseWriter, st *session.State, flow *auth.ForgotFlow, msg string, err error) {
	if err != nil {
		if errors.Is(err, auth.ErrWrongStage) {
			writeJSON(w, http.StatusConflict, recoveryResponse{Message: "Please restart password recovery.", Stage: flow.Stage()})
			return
		}
		h.accountError(w, st, err)
		return
	}
	st.Board().Success(msg)
	writeJSON(w, http.StatusOK, recoveryResponse{Success: true, Message: msg, Stage: flow.Stage()})
}

// accountError notifies and reports a failed account action. Validation and
// backend rejections carry their own message; transport failures do not.
func (h *Handler) accountError(w http.ResponseWriter, st *session.State, err error) {
	var (
		status int
		msg    string
		be     *backend.Error
	)
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		status, msg = http.StatusBadRequest, auth.MsgPasswordsDiffer
	case errors.Is(err, auth.ErrInvalidInput):
		status, msg = http.StatusBadRequest, strings.TrimPrefix(err.Error(), auth.ErrInvalidInput.Error()+": ")
	case errors.As(err, &be):
		status, msg = http.StatusBadRequest, messageOrDefault(be.Message, auth.MsgGenericFailure)
	default:
		h.logger.Error("account request failed", "session_id", st.ID(), "error", err)
		status, msg = http.StatusBadGateway, auth.MsgGenericFailure
	}
	st.Board().Error(msg)
	writeError(w, status, msg)
}

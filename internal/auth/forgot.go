package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWrongStage is returned when a recovery step is attempted out of order.
var ErrWrongStage = errors.New("auth: password recovery step out of order")

// Stage is a step of the forgot-password flow.
type Stage string

const (
	StageEmail Stage = "email"
	StageOTP   Stage = "otp"
	StageReset Stage = "reset"
	StageDone  Stage = "done"
)

// ForgotFlow walks email -> otp -> reset. A failed step leaves the stage unchanged.
type ForgotFlow struct {
	svc *Service

	mu    sync.Mutex
	stage Stage
	email string
	otp   string
}

// NewForgotFlow starts a recovery flow at the email stage.
func (s *Service) NewForgotFlow() *ForgotFlow {
	return &ForgotFlow{svc: s, stage: StageEmail}
}

// Stage returns the current step.
func (f *ForgotFlow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Email returns the address recovery was requested for.
func (f *ForgotFlow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// RequestOTP sends a one-time code to email. Re-requesting from the OTP stage
// is allowed so the visitor can ask for a fresh code.
func (f *ForgotFlow) RequestOTP(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != StageEmail && f.stage != StageOTP {
		return "", fmt.Errorf("%w: at %s", ErrWrongStage, f.stage)
	}
	email = normalizeEmail(email)
	if err := f.svc.validate.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: enter a valid email address", ErrInvalidInput)
	}

	msg, err := f.svc.backend.RequestOTP(ctx, email)
	if err != nil {
		f.svc.logger.Warn("otp request failed", "error", err)
		return "", err
	}
	f.email = email
	f.stage = StageOTP
	return messageOr(msg, MsgOTPSent), nil
}

// VerifyOTP checks the emailed code. Its format is left to the backend
// beyond the 6 character limit of the form.
func (f *ForgotFlow) VerifyOTP(ctx context.Context, otp string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != StageOTP {
		return "", fmt.Errorf("%w: at %s", ErrWrongStage, f.stage)
	}
	if err := f.svc.validate.Var(otp, "required,max=6"); err != nil {
		return "", fmt.Errorf("%w: otp must be at most 6 characters", ErrInvalidInput)
	}

	msg, err := f.svc.backend.VerifyOTP(ctx, f.email, otp)
	if err != nil {
		f.svc.logger.Warn("otp verification failed", "error", err)
		return "", err
	}
	f.otp = otp
	f.stage = StageReset
	return messageOr(msg, MsgOTPVerified), nil
}

// Reset sets the new password. A mismatched confirmation never reaches the backend.
func (f *ForgotFlow) Reset(ctx context.Context, newPassword, confirm string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != StageReset {
		return "", fmt.Errorf("%w: at %s", ErrWrongStage, f.stage)
	}
	if err := f.svc.checkNewPassword(newPassword, confirm); err != nil {
		return "", err
	}

	msg, err := f.svc.backend.ResetPassword(ctx, f.email, f.otp, newPassword)
	if err != nil {
		f.svc.logger.Warn("password reset failed", "error", err)
		return "", err
	}
	f.stage = StageDone
	f.otp = ""
	return messageOr(msg, MsgPasswordReset), nil
}

// Package auth drives sign-up, sign-in and password recovery against the
// consultation backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

var (
	// ErrPasswordMismatch is returned when the confirmation differs from the new password.
	ErrPasswordMismatch = errors.New("auth: passwords do not match")

	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("auth: invalid input")
)

// Messages shown to the visitor, matching the booking pages.
const (
	MsgRegistered      = "Registration successful!"
	MsgLoggedIn        = "Login successful!"
	MsgOTPSent         = "OTP sent to your email."
	MsgOTPVerified     = "OTP verified.  Please set your new password."
	MsgPasswordReset   = "Password reset successfully."
	MsgPasswordsDiffer = "Passwords do not match."
	MsgGenericFailure  = "An error occurred. Please try again."
)

// Backend is the subset of the backend client used for authentication.
type Backend interface {
	Register(ctx context.Context, req backend.RegisterRequest) (string, error)
	Login(ctx context.Context, req backend.LoginRequest) (string, error)
	RequestOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error)
	ValidateResetToken(ctx context.Context, token string) error
	ResetPasswordWithToken(ctx context.Context, token, newPassword string) (string, error)
}

// RegisterInput is a sign-up form.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginInput is a sign-in form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service validates forms and calls the backend.
type Service struct {
	backend  Backend
	validate *validator.Validate
	logger   *logging.Logger
}

// NewService creates an auth service.
func NewService(b Backend, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		backend:  b,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register creates an account and returns its token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return "", err
	}
	token, err := s.backend.Register(ctx, backend.RegisterRequest{Name: in.Name, Email: in.Email, Password: in.Password})
	if err != nil {
		s.logger.Warn("registration failed", "error", err)
		return "", err
	}
	s.logger.Info("user registered")
	return token, nil
}

// Login exchanges credentials for a token.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return "", err
	}
	token, err := s.backend.Login(ctx, backend.LoginRequest{Email: in.Email, Password: in.Password})
	if err != nil {
		s.logger.Warn("login failed", "error", err)
		return "", err
	}
	return token, nil
}

// ValidateResetToken checks a reset link before the form is shown.
func (s *Service) ValidateResetToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: missing reset token", ErrInvalidInput)
	}
	return s.backend.ValidateResetToken(ctx, token)
}

// ResetWithToken sets a new password from a reset link.
func (s *Service) ResetWithToken(ctx context.Context, token, newPassword, confirm string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: missing reset token", ErrInvalidInput)
	}
	if err := s.checkNewPassword(newPassword, confirm); err != nil {
		return "", err
	}
	msg, err := s.backend.ResetPasswordWithToken(ctx, token, newPassword)
	if err != nil {
		s.logger.Warn("token password reset failed", "error", err)
		return "", err
	}
	return messageOr(msg, MsgPasswordReset), nil
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidInput, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) checkNewPassword(newPassword, confirm string) error {
	if err := s.validate.Var(newPassword, "required"); err != nil {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "enter a valid email address"
	default:
		return field + " is invalid"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

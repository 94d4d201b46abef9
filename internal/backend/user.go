package backend

import (
	"context"
	"net/http"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account and returns its auth token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out tokenResponse
	err := c.do(ctx, call{op: "register", method: http.MethodPost, path: "/api/user/register", body: req}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &Error{Op: "register", Message: "backend returned no token"}
	}
	return out.Token, nil
}

// Login exchanges credentials for an auth token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	var out tokenResponse
	err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/api/user/login", body: req}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &Error{Op: "login", Message: "backend returned no token"}
	}
	return out.Token, nil
}

// RequestOTP asks the backend to email a one-time password.
func (c *Client) RequestOTP(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{
		op: "request_otp", method: http.MethodPost, path: "/api/user/forgot-password/request-otp",
		body: map[string]string{"email": email},
	}, &out)
	return out.Message, err
}

// VerifyOTP checks the emailed code.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{
		op: "verify_otp", method: http.MethodPost, path: "/api/user/forgot-password/verify-otp",
		body: map[string]string{"email": email, "otp": otp},
	}, &out)
	return out.Message, err
}

// ResetPassword sets a new password after OTP verification.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{
		op: "reset_password", method: http.MethodPost, path: "/api/user/forgot-password/reset-password",
		body: map[string]string{"email": email, "otp": otp, "newPassword": newPassword},
	}, &out)
	return out.Message, err
}

// ValidateResetToken checks a password reset link token.
func (c *Client) ValidateResetToken(ctx context.Context, token string) error {
	return c.do(ctx, call{
		op: "validate_reset_token", method: http.MethodPost, path: "/api/reset-password/validate-token",
		body: map[string]string{"token": token},
	}, nil)
}

// ResetPasswordWithToken sets a new password using a reset link token.
func (c *Client) ResetPasswordWithToken(ctx context.Context, token, newPassword string) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{
		op: "reset_password_token", method: http.MethodPost, path: "/api/reset-password",
		body: map[string]string{"token": token, "newPassword": newPassword},
	}, &out)
	return out.Message, err
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

type stubBackend struct {
	token    string
	err      error
	message  string
	calls    []string
	lastReg  backend.RegisterRequest
	lastOTP  string
	lastPass string
}

func (s *stubBackend) Register(_ context.Context, req backend.RegisterRequest) (string, error) {
	s.calls = append(s.calls, "register")
	s.lastReg = req
	return s.token, s.err
}

func (s *stubBackend) Login(_ context.Context, req backend.LoginRequest) (string, error) {
	s.calls = append(s.calls, "login")
	return s.token, s.err
}

func (s *stubBackend) RequestOTP(_ context.Context, email string) (string, error) {
	s.calls = append(s.calls, "request_otp:"+email)
	return s.message, s.err
}

func (s *stubBackend) VerifyOTP(_ context.Context, email, otp string) (string, error) {
	s.calls = append(s.calls, "verify_otp:"+email)
	s.lastOTP = otp
	return s.message, s.err
}

func (s *stubBackend) ResetPassword(_ context.Context, email, otp, newPassword string) (string, error) {
	s.calls = append(s.calls, "reset:"+email+":"+otp)
	s.lastPass = newPassword
	return s.message, s.err
}

func (s *stubBackend) ValidateResetToken(_ context.Context, token string) error {
	s.calls = append(s.calls, "validate:"+token)
	return s.err
}

func (s *stubBackend) ResetPasswordWithToken(_ context.Context, token, newPassword string) (string, error) {
	s.calls = append(s.calls, "reset_token:"+token)
	s.lastPass = newPassword
	return s.message, s.err
}

func TestRegister_NormalizesAndReturnsToken(t *testing.T) {
	stub := &stubBackend{token: "tok"}
	svc := NewService(stub, logging.Discard())

	token, err := svc.Register(context.Background(), RegisterInput{Name: "  Asha ", Email: " Asha@Example.COM ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "Asha", stub.lastReg.Name)
	assert.Equal(t, "asha@example.com", stub.lastReg.Email)
}

func TestRegister_ValidationSkipsBackend(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "pw"}, "name is required"},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "pw"}, "valid email"},
		{"missing password", RegisterInput{Name: "A", Email: "a@example.com"}, "password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubBackend{token: "tok"}
			_, err := NewService(stub, logging.Discard()).Register(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, stub.calls)
		})
	}
}

func TestLogin_BackendRejection(t *testing.T) {
	stub := &stubBackend{err: &backend.Error{Op: "login", Message: "Invalid credentials"}}
	_, err := NewService(stub, logging.Discard()).Login(context.Background(), LoginInput{Email: "a@example.com", Password: "pw"})
	msg, ok := backend.MessageOf(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid credentials", msg)
}

func TestForgotFlow_HappyPath(t *testing.T) {
	stub := &stubBackend{}
	flow := NewService(stub, logging.Discard()).NewForgotFlow()
	ctx := context.Background()
	assert.Equal(t, StageEmail, flow.Stage())

	msg, err := flow.RequestOTP(ctx, "A@example.com")
	require.NoError(t, err)
	assert.Equal(t, MsgOTPSent, msg)
	assert.Equal(t, StageOTP, flow.Stage())
	assert.Equal(t, "a@example.com", flow.Email())

	msg, err = flow.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, MsgOTPVerified, msg)
	assert.Equal(t, StageReset, flow.Stage())

	msg, err = flow.Reset(ctx, "newpass", "newpass")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordReset, msg)
	assert.Equal(t, StageDone, flow.Stage())
	assert.Equal(t, "newpass", stub.lastPass)
	assert.Equal(t, []string{
		"request_otp:a@example.com",
		"verify_otp:a@example.com",
		"reset:a@example.com:123456",
	}, stub.calls)
}

func TestForgotFlow_OutOfOrder(t *testing.T) {
	flow := NewService(&stubBackend{}, logging.Discard()).NewForgotFlow()
	ctx := context.Background()

	_, err := flow.VerifyOTP(ctx, "123456")
	assert.ErrorIs(t, err, ErrWrongStage)
	_, err = flow.Reset(ctx, "a", "a")
	assert.ErrorIs(t, err, ErrWrongStage)
	assert.Equal(t, StageEmail, flow.Stage())
}

func TestForgotFlow_PasswordMismatchNeverCallsBackend(t *testing.T) {
	stub := &stubBackend{}
	flow := NewService(stub, logging.Discard()).NewForgotFlow()
	ctx := context.Background()
	_, err := flow.RequestOTP(ctx, "a@example.com")
	require.NoError(t, err)
	_, err = flow.VerifyOTP(ctx, "654321")
	require.NoError(t, err)

	_, err = flow.Reset(ctx, "one", "two")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Equal(t, StageReset, flow.Stage())
	assert.Len(t, stub.calls, 2)
}

func TestForgotFlow_InvalidOTP(t *testing.T) {
	stub := &stubBackend{}
	flow := NewService(stub, logging.Discard()).NewForgotFlow()
	ctx := context.Background()
	_, err := flow.RequestOTP(ctx, "a@example.com")
	require.NoError(t, err)

	for _, otp := range []string{"", "1234567"} {
		_, err = flow.VerifyOTP(ctx, otp)
		assert.ErrorIs(t, err, ErrInvalidInput, otp)
	}
	assert.Equal(t, StageOTP, flow.Stage())
	assert.Len(t, stub.calls, 1)
}

func TestForgotFlow_AlphanumericOTPReachesBackend(t *testing.T) {
	stub := &stubBackend{}
	flow := NewService(stub, logging.Discard()).NewForgotFlow()
	ctx := context.Background()
	_, err := flow.RequestOTP(ctx, "a@example.com")
	require.NoError(t, err)

	_, err = flow.VerifyOTP(ctx, "ab12cd")
	require.NoError(t, err)
	assert.Equal(t, StageReset, flow.Stage())
	assert.Equal(t, "ab12cd", stub.lastOTP)
}

func TestForgotFlow_BackendFailureKeepsStage(t *testing.T) {
	stub := &stubBackend{err: &backend.Error{Op: "request_otp", Message: "No account with that email"}}
	flow := NewService(stub, logging.Discard()).NewForgotFlow()

	_, err := flow.RequestOTP(context.Background(), "a@example.com")
	msg, ok := backend.MessageOf(err)
	require.True(t, ok)
	assert.Equal(t, "No account with that email", msg)
	assert.Equal(t, StageEmail, flow.Stage())
}

func TestResetWithToken(t *testing.T) {
	stub := &stubBackend{message: "Password reset successfully. Redirecting to login..."}
	svc := NewService(stub, logging.Discard())
	ctx := context.Background()

	_, err := svc.ResetWithToken(ctx, "", "a", "a")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ResetWithToken(ctx, "link-token", "a", "b")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Empty(t, stub.calls)

	msg, err := svc.ResetWithToken(ctx, "link-token", "pw", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Password reset successfully. Redirecting to login...", msg)

	require.NoError(t, svc.ValidateResetToken(ctx, "link-token"))
	assert.Equal(t, []string{"reset_token:link-token", "validate:link-token"}, stub.calls)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)

	got, ok := TokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
	assert.False(t, TokenExpired(signed, time.Now()))
	assert.True(t, TokenExpired(signed, exp.Add(time.Second)))
}

func TestTokenExpiry_OpaqueTokens(t *testing.T) {
	_, ok := TokenExpiry("not-a-jwt")
	assert.False(t, ok)
	assert.False(t, TokenExpired("not-a-jwt", time.Now()))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1"}).SignedString([]byte("s"))
	require.NoError(t, err)
	_, ok = TokenExpiry(noExp)
	assert.False(t, ok)
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrPasswordMismatch, ErrInvalidInput))
}

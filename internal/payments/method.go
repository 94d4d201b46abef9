package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/internal/pricing"
)

// Method names a payment integration.
type Method string

const (
	// MethodStripe creates a hosted checkout session and redirects to it.
	MethodStripe Method = "stripe"
	// MethodRazorpay opens a client widget and verifies its callback.
	MethodRazorpay Method = "razorpay"
)

// ParseMethod accepts a method name from a URL or form.
func ParseMethod(value string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(value))) {
	case MethodStripe:
		return MethodStripe, nil
	case MethodRazorpay:
		return MethodRazorpay, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, value)
	}
}

// Request is one payment attempt for the cart total.
type Request struct {
	Token          string
	Amount         int
	Locale         pricing.Locale
	IdempotencyKey string
	// CustomerName prefills the widget when known.
	CustomerName string
}

// OutcomeKind tells the page what to do next.
type OutcomeKind string

const (
	OutcomeRedirect OutcomeKind = "redirect"
	OutcomeWidget   OutcomeKind = "widget"
)

// Outcome is the result of initiating a payment.
type Outcome struct {
	Method      Method        `json:"method"`
	Kind        OutcomeKind   `json:"kind"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Widget      *WidgetConfig `json:"widget,omitempty"`
}

// WidgetConfig carries everything the client widget is opened with.
type WidgetConfig struct {
	KeyID       string  `json:"key"`
	OrderID     string  `json:"order_id"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
	ThemeColor  string  `json:"theme_color"`
}

// Prefill seeds the widget's customer fields.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// PaymentMethod is one payment integration.
type PaymentMethod interface {
	Name() Method
	Initiate(ctx context.Context, req Request) (*Outcome, error)
}

// Confirmer is implemented by methods that confirm payment after a client callback.
type Confirmer interface {
	Confirm(ctx context.Context, token string, payload json.RawMessage) error
}

// Backend is the subset of the backend client used for payments.
type Backend interface {
	CreateStripeSession(ctx context.Context, token string, amount int, idempotencyKey string) (string, error)
	CreateRazorpayOrder(ctx context.Context, token string, amount int, idempotencyKey string) (*backend.RazorpayOrder, error)
	VerifyRazorpay(ctx context.Context, token string, payload json.RawMessage) error
}

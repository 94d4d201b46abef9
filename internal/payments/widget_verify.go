package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// ErrEmptyCallback is returned when the widget callback carries no payload.
var ErrEmptyCallback = errors.New("payments: empty widget callback")

// WidgetVerify creates a Razorpay order, hands it to the client widget and
// later forwards the widget's completion payload for verification.
type WidgetVerify struct {
	backend    Backend
	keyID      string
	themeColor string
}

// NewWidgetVerify creates the widget method with the publishable key the
// widget is opened with.
func NewWidgetVerify(b Backend, keyID, themeColor string) *WidgetVerify {
	if themeColor == "" {
		themeColor = "#3498db"
	}
	return &WidgetVerify{backend: b, keyID: keyID, themeColor: themeColor}
}

// Name implements PaymentMethod.
func (w *WidgetVerify) Name() Method { return MethodRazorpay }

// Initiate implements PaymentMethod.
func (w *WidgetVerify) Initiate(ctx context.Context, req Request) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "payments.razorpay.initiate")
	defer span.End()
	span.SetAttributes(attribute.Int("consult.amount", req.Amount))

	order, err := w.backend.CreateRazorpayOrder(ctx, req.Token, req.Amount, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("razorpay.order_id", order.ID))

	return &Outcome{
		Method: MethodRazorpay,
		Kind:   OutcomeWidget,
		Widget: &WidgetConfig{
			KeyID:       w.keyID,
			OrderID:     order.ID,
			Amount:      order.Amount,
			Currency:    order.Currency,
			Name:        "Consultation Payment",
			Description: "Payment for consultation",
			Prefill:     Prefill{Name: req.CustomerName},
			ThemeColor:  w.themeColor,
		},
	}, nil
}

// Confirm implements Confirmer.
func (w *WidgetVerify) Confirm(ctx context.Context, token string, payload json.RawMessage) error {
	ctx, span := tracer.Start(ctx, "payments.razorpay.confirm")
	defer span.End()

	if len(payload) == 0 || string(payload) == "null" {
		return ErrEmptyCallback
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payments: widget callback is not valid json")
	}
	return w.backend.VerifyRazorpay(ctx, token, payload)
}

package payments

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("consult.internal.payments")

// HostedRedirect asks the backend for a Stripe Checkout session and sends the
// visitor to its hosted page.
type HostedRedirect struct {
	backend Backend
}

// NewHostedRedirect creates the hosted-redirect method.
func NewHostedRedirect(b Backend) *HostedRedirect {
	return &HostedRedirect{backend: b}
}

// Name implements PaymentMethod.
func (h *HostedRedirect) Name() Method { return MethodStripe }

// Initiate implements PaymentMethod.
func (h *HostedRedirect) Initiate(ctx context.Context, req Request) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "payments.stripe.initiate")
	defer span.End()
	span.SetAttributes(attribute.Int("consult.amount", req.Amount))

	url, err := h.backend.CreateStripeSession(ctx, req.Token, req.Amount, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	return &Outcome{Method: MethodStripe, Kind: OutcomeRedirect, RedirectURL: url}, nil
}

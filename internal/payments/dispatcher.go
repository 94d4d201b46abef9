package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/internal/notify"
	"github.com/wolfman30/consult-booking/internal/pricing"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

var (
	// ErrLoginRequired is returned when checkout is attempted without a token.
	ErrLoginRequired = errors.New("payments: login required")
	// ErrEmptyCart is returned when the cart total is zero.
	ErrEmptyCart = errors.New("payments: cart is empty")
	// ErrPaymentInProgress is returned while another attempt holds the loading flag.
	ErrPaymentInProgress = errors.New("payments: payment already in progress")
	// ErrDuplicateSubmission is returned when the submit guard rejects a repeat.
	ErrDuplicateSubmission = errors.New("payments: duplicate submission")
	// ErrUnknownMethod is returned for a method with no registered integration.
	ErrUnknownMethod = errors.New("payments: unknown payment method")
	// ErrVerificationFailed wraps a rejected widget confirmation.
	ErrVerificationFailed = errors.New("payments: verification failed")
)

const (
	MsgLoginRequired      = "Login to book appointment"
	MsgSelectPlanFirst    = "Please select a plan first."
	MsgDuplicateSubmit    = "Payment already in progress."
	MsgPaymentFailed      = "Payment failed. Please try again."
	MsgPaymentSuccessful  = "Payment successful!"
	MsgVerificationFailed = "Payment verification failed."
)

// Session is the visitor state a checkout acts on.
type Session interface {
	ID() string
	// BeginPayment claims the loading flag; false means it is already held.
	BeginPayment() bool
	EndPayment()
	// CompletePayment empties the cart after a verified payment.
	CompletePayment()
	Notify(kind notify.Kind, message string)
}

// Checkout is one request to pay for the current cart.
type Checkout struct {
	Method       Method
	Token        string
	Total        int
	Locale       pricing.Locale
	CustomerName string
	Session      Session
}

// Confirmation carries a widget callback for verification.
type Confirmation struct {
	Method  Method
	Token   string
	Payload json.RawMessage
	Session Session
}

// CheckoutObserver records checkout outcomes.
type CheckoutObserver interface {
	ObserveCheckout(method, outcome string, seconds float64)
}

// Dispatcher routes checkouts to the registered payment methods.
type Dispatcher struct {
	methods  map[Method]PaymentMethod
	guard    SubmitGuard
	observer CheckoutObserver
	logger   *logging.Logger
	newKey   func() string
}

// NewDispatcher registers the given methods.
func NewDispatcher(logger *logging.Logger, methods ...PaymentMethod) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	registry := make(map[Method]PaymentMethod, len(methods))
	for _, m := range methods {
		if m != nil {
			registry[m.Name()] = m
		}
	}
	return &Dispatcher{
		methods: registry,
		logger:  logger,
		newKey:  func() string { return uuid.New().String() },
	}
}

// WithGuard sets the cross-instance submit guard.
func (d *Dispatcher) WithGuard(g SubmitGuard) *Dispatcher {
	d.guard = g
	return d
}

// WithObserver attaches a metrics observer.
func (d *Dispatcher) WithObserver(o CheckoutObserver) *Dispatcher {
	d.observer = o
	return d
}

// Methods lists the registered method names.
func (d *Dispatcher) Methods() []Method {
	out := make([]Method, 0, len(d.methods))
	for _, m := range []Method{MethodStripe, MethodRazorpay} {
		if _, ok := d.methods[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Checkout starts a payment for the cart total. The cart is never modified
// here; it is only emptied by a confirmed widget payment.
func (d *Dispatcher) Checkout(ctx context.Context, c Checkout) (out *Outcome, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "payments.checkout")
	defer span.End()
	span.SetAttributes(
		attribute.String("payments.method", string(c.Method)),
		attribute.Int("consult.amount", c.Total),
	)
	defer func() {
		d.observe(c.Method, outcomeLabel(err), start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if c.Token == "" {
		c.Session.Notify(notify.KindWarning, MsgLoginRequired)
		return nil, ErrLoginRequired
	}
	if c.Total <= 0 {
		c.Session.Notify(notify.KindInfo, MsgSelectPlanFirst)
		return nil, ErrEmptyCart
	}
	method, ok := d.methods[c.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}
	if !c.Session.BeginPayment() {
		return nil, ErrPaymentInProgress
	}
	defer c.Session.EndPayment()

	key := SubmitKey(c.Session.ID(), c.Method, c.Total)
	if d.guard != nil {
		allowed, gerr := d.guard.Acquire(ctx, key)
		if gerr == nil && !allowed {
			c.Session.Notify(notify.KindInfo, MsgDuplicateSubmit)
			return nil, ErrDuplicateSubmission
		}
	}

	out, err = method.Initiate(ctx, Request{
		Token:          c.Token,
		Amount:         c.Total,
		Locale:         c.Locale,
		IdempotencyKey: d.newKey(),
		CustomerName:   c.CustomerName,
	})
	// A widget outcome hands payment to the visitor; only a hosted redirect
	// keeps the window so a double click cannot open two sessions.
	if d.guard != nil && (err != nil || out.Kind == OutcomeWidget) {
		d.guard.Release(context.WithoutCancel(ctx), key)
	}
	if err != nil {
		d.logger.Warn("checkout failed", "session_id", c.Session.ID(), "method", c.Method, "error", err)
		c.Session.Notify(notify.KindError, failureMessage(err, MsgPaymentFailed))
		return nil, err
	}
	d.logger.Info("checkout initiated", "session_id", c.Session.ID(), "method", c.Method, "kind", out.Kind, "amount", c.Total)
	return out, nil
}

// ConfirmWidget verifies a widget callback and empties the cart on success.
func (d *Dispatcher) ConfirmWidget(ctx context.Context, c Confirmation) (err error) {
	start := time.Now()
	if c.Method == "" {
		c.Method = MethodRazorpay
	}
	ctx, span := tracer.Start(ctx, "payments.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("payments.method", string(c.Method)))
	defer func() {
		d.observe(c.Method, "confirm_"+outcomeLabel(err), start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if c.Token == "" {
		c.Session.Notify(notify.KindWarning, MsgLoginRequired)
		return ErrLoginRequired
	}
	confirmer, ok := d.methods[c.Method].(Confirmer)
	if !ok {
		return fmt.Errorf("%w: %q cannot confirm", ErrUnknownMethod, c.Method)
	}
	if !c.Session.BeginPayment() {
		return ErrPaymentInProgress
	}
	defer c.Session.EndPayment()

	if err := confirmer.Confirm(ctx, c.Token, c.Payload); err != nil {
		d.logger.Warn("payment verification failed", "session_id", c.Session.ID(), "method", c.Method, "error", err)
		c.Session.Notify(notify.KindError, MsgVerificationFailed)
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	c.Session.CompletePayment()
	c.Session.Notify(notify.KindSuccess, MsgPaymentSuccessful)
	d.logger.Info("payment verified", "session_id", c.Session.ID(), "method", c.Method)
	return nil
}

func (d *Dispatcher) observe(method Method, outcome string, start time.Time) {
	if d.observer == nil {
		return
	}
	d.observer.ObserveCheckout(string(method), outcome, time.Since(start).Seconds())
}

// failureMessage prefers the backend's own message over the generic one.
func failureMessage(err error, fallback string) string {
	if msg, ok := backend.MessageOf(err); ok && msg != "" {
		return msg
	}
	return fallback
}

func outcomeLabel(err error) string {
	var be *backend.Error
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrLoginRequired):
		return "login_required"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrPaymentInProgress), errors.Is(err, ErrDuplicateSubmission):
		return "duplicate"
	case errors.Is(err, ErrUnknownMethod):
		return "unknown_method"
	case errors.As(err, &be):
		return "rejected"
	default:
		return "error"
	}
}

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RazorpayOrder is the order the client widget is opened with.
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type amountRequest struct {
	Amount int `json:"amount"`
}

type razorpayOrderResponse struct {
	Order *RazorpayOrder `json:"order"`
}

type stripeSessionResponse struct {
	SessionURL string `json:"session_url"`
}

// CreateRazorpayOrder requests an order for amount.
func (c *Client) CreateRazorpayOrder(ctx context.Context, token string, amount int, idempotencyKey string) (*RazorpayOrder, error) {
	var out razorpayOrderResponse
	err := c.do(ctx, call{
		op: "payment_razorpay", method: http.MethodPost, path: "/api/user/payment-razorpay",
		token: token, idempotencyKey: idempotencyKey, body: amountRequest{Amount: amount},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Order == nil || out.Order.ID == "" {
		return nil, fmt.Errorf("%w: payment_razorpay returned no order", ErrIncompleteResponse)
	}
	return out.Order, nil
}

// VerifyRazorpay forwards the widget's completion payload untouched.
func (c *Client) VerifyRazorpay(ctx context.Context, token string, payload json.RawMessage) error {
	return c.do(ctx, call{
		op: "verify_razorpay", method: http.MethodPost, path: "/api/user/verifyRazorpay",
		token: token, body: payload,
	}, nil)
}

// CreateStripeSession requests a hosted checkout session and returns its URL.
func (c *Client) CreateStripeSession(ctx context.Context, token string, amount int, idempotencyKey string) (string, error) {
	var out stripeSessionResponse
	err := c.do(ctx, call{
		op: "payment_stripe", method: http.MethodPost, path: "/api/user/payment-stripe",
		token: token, idempotencyKey: idempotencyKey, body: amountRequest{Amount: amount},
	}, &out)
	if err != nil {
		return "", err
	}
	if out.SessionURL == "" {
		return "", fmt.Errorf("%w: payment_stripe returned no session url", ErrIncompleteResponse)
	}
	return out.SessionURL, nil
}

// Package backend is the HTTP client for the consultation backend API. Every
// endpoint answers with a {success, message} envelope; success:false is
// surfaced as *Error carrying the backend's message.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/consult-booking/pkg/logging"
)

var tracer = otel.Tracer("consult.internal.backend")

// TokenHeader carries the visitor's auth token on authenticated endpoints.
const TokenHeader = "token"

// ErrIncompleteResponse is returned when a successful envelope lacks the data
// the call needs.
var ErrIncompleteResponse = errors.New("backend: incomplete response")

// Error is a failure reported by the backend itself.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("backend: %s: %s", e.Op, e.Message)
}

// MessageOf returns the backend-provided message inside err, if any.
func MessageOf(err error) (string, bool) {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message, true
	}
	return "", false
}

// CallObserver records backend call outcomes. Implemented by the metrics package.
type CallObserver interface {
	ObserveBackendCall(op, outcome string, seconds float64)
}

// Client talks to the consultation backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	observer   CallObserver
}

// NewClient creates a client. A zero timeout leaves requests unbounded apart
// from the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithHTTPClient overrides the HTTP client (for testing).
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// WithObserver attaches a metrics observer.
func (c *Client) WithObserver(observer CallObserver) *Client {
	c.observer = observer
	return c
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type call struct {
	op             string
	method         string
	path           string
	token          string
	idempotencyKey string
	body           any
}

// do sends the call and decodes the full response into out when the envelope
// reports success.
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	ctx, span := tracer.Start(ctx, "backend."+cl.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("backend.path", cl.path),
	)

	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			var be *Error
			if errors.As(err, &be) {
				outcome = "rejected"
			} else {
				outcome = "error"
			}
		}
		if c.observer != nil {
			c.observer.ObserveBackendCall(cl.op, outcome, time.Since(start).Seconds())
		}
	}()

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("backend: %s encode: %w", cl.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return fmt.Errorf("backend: %s request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set(TokenHeader, cl.token)
	}
	if cl.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", cl.idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s http: %w", cl.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend: %s read: %w", cl.op, err)
	}

	var env envelope
	if jsonErr := json.Unmarshal(data, &env); jsonErr != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return &Error{Op: cl.op, Status: resp.StatusCode}
		}
		return fmt.Errorf("backend: %s decode: %w", cl.op, jsonErr)
	}
	if !env.Success {
		c.logger.Debug("backend rejected request", "op", cl.op, "status", resp.StatusCode, "message", env.Message)
		return &Error{Op: cl.op, Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("backend: %s decode: %w", cl.op, err)
		}
	}
	return nil
}

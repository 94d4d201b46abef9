package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/consult-booking/internal/auth"
	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/internal/booking"
	"github.com/wolfman30/consult-booking/internal/doctors"
	httpmiddleware "github.com/wolfman30/consult-booking/internal/http/middleware"
	"github.com/wolfman30/consult-booking/internal/observability/metrics"
	"github.com/wolfman30/consult-booking/internal/payments"
	"github.com/wolfman30/consult-booking/internal/session"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

func newTestRouter(t *testing.T, readiness func(context.Context) error) http.Handler {
	t.Helper()

	logger := logging.Discard()
	client := backend.NewClient("http://127.0.0.1:1", 0, logger)
	store := session.NewStore(nil, logger)
	t.Cleanup(store.Close)

	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	dispatcher := payments.NewDispatcher(logger, payments.NewHostedRedirect(client))
	h := booking.NewHandler(auth.NewService(client, logger), doctors.NewDirectory(client, time.Minute, logger), dispatcher, logger)

	return New(&Config{
		Logger:             logger,
		Booking:            h,
		Sessions:           store,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RequestMetrics:     m,
		CORSAllowedOrigins: []string{"https://consult.example"},
		Readiness:          readiness,
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Errorf("health checks must not start sessions")
	}
}

func TestRouterHealthDegraded(t *testing.T) {
	router := newTestRouter(t, func(context.Context) error { return errors.New("redis down") })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestRouterCartEndpointStartsSession(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/plan", strings.NewReader(`{"name":"Comprehensive"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["total"] != float64(200) {
		t.Fatalf("expected total 200, got %v", resp["total"])
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != httpmiddleware.SessionCookie {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/catalog", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `consult_http_requests_total{method="GET",route="/api/catalog",status="2xx"} 1`) {
		t.Fatalf("expected request metric, got:\n%s", rr.Body.String())
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/checkout/stripe", nil)
	req.Header.Set("Origin", "https://consult.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://consult.example" {
		t.Fatalf("expected allow origin, got %q", got)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

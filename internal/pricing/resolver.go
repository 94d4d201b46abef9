package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/consult-booking/pkg/logging"
)

var tracer = otel.Tracer("consult.internal.pricing")

// DefaultGeolocationURL is the free IP lookup used when none is configured.
// The {ip} segment is replaced by the visitor address, or dropped when the
// address is unknown so the lookup falls back to the caller's own IP.
const DefaultGeolocationURL = "https://ipapi.co/{ip}/json/"

// LocaleObserver records locale resolutions. Implemented by the metrics package.
type LocaleObserver interface {
	ObserveLocale(locale string, failed bool)
}

// Resolver detects the visitor's pricing locale from an IP geolocation lookup.
type Resolver struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
	observer   LocaleObserver
}

type geolocationResponse struct {
	CountryCode string `json:"country_code"`
}

// NewResolver creates a resolver against the given lookup URL. The client has
// no timeout; the caller's context bounds the lookup.
func NewResolver(url string, logger *logging.Logger) *Resolver {
	if url == "" {
		url = DefaultGeolocationURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		url:        url,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// WithHTTPClient overrides the HTTP client (for testing).
func (r *Resolver) WithHTTPClient(client *http.Client) *Resolver {
	if client != nil {
		r.httpClient = client
	}
	return r
}

// WithObserver attaches a metrics observer.
func (r *Resolver) WithObserver(observer LocaleObserver) *Resolver {
	r.observer = observer
	return r
}

// Resolve makes exactly one lookup. Every failure resolves to LocaleDefault.
func (r *Resolver) Resolve(ctx context.Context, clientIP string) Locale {
	ctx, span := tracer.Start(ctx, "pricing.resolve_locale")
	defer span.End()

	code, err := r.lookup(ctx, clientIP)
	if err != nil {
		r.logger.Warn("locale detection failed, using default pricing", "error", err)
		span.SetAttributes(attribute.Bool("pricing.lookup_failed", true))
		r.observe(LocaleDefault, true)
		return LocaleDefault
	}

	locale := FromCountryCode(code)
	span.SetAttributes(
		attribute.String("pricing.country_code", code),
		attribute.String("pricing.locale", string(locale)),
	)
	r.logger.Debug("locale detected", "country_code", code, "locale", locale)
	r.observe(locale, false)
	return locale
}

func (r *Resolver) lookup(ctx context.Context, clientIP string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL(r.url, clientIP), nil)
	if err != nil {
		return "", fmt.Errorf("pricing: geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pricing: geolocation http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("pricing: geolocation status %d", resp.StatusCode)
	}

	var parsed geolocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("pricing: geolocation decode: %w", err)
	}
	return parsed.CountryCode, nil
}

func (r *Resolver) observe(locale Locale, failed bool) {
	if r.observer != nil {
		r.observer.ObserveLocale(string(locale), failed)
	}
}

func lookupURL(template, clientIP string) string {
	if !strings.Contains(template, "{ip}") {
		return template
	}
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return strings.Replace(strings.Replace(template, "{ip}/", "", 1), "{ip}", "", 1)
	}
	return strings.Replace(template, "{ip}", ip.String(), 1)
}

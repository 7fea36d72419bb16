// Package geocode resolves free-text addresses to coordinates via Nominatim (default),
// the Census one-line geocoder, or the Google Geocoding API.
package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Provider names accepted by WithProvider.
const (
	ProviderNominatim = "nominatim"
	ProviderCensus    = "census"
	ProviderGoogle    = "google"
)

// DefaultUserAgent identifies this client to public geocoding services.
const DefaultUserAgent = "area-check/1.0"

// maxResponseBytes caps a geocoder response body.
const maxResponseBytes = 4 << 20

// Client geocodes free-text addresses. Only the first candidate is returned.
type Client interface {
	// Geocode resolves a single address. Zero candidates is not an error:
	// the result has Matched set to false.
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude    float64
	Longitude   float64
	Source      string // provider name
	Quality     string // "rooftop", "range", "centroid", "approximate"
	DisplayName string
	Matched     bool
}

// TransportError reports an unreachable geocoder or a non-success HTTP status.
type TransportError struct {
	Source     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geocode: %s returned status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("geocode: %s request: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidProvider reports whether name is a supported provider.
func ValidProvider(name string) bool {
	switch name {
	case ProviderNominatim, ProviderCensus, ProviderGoogle:
		return true
	default:
		return false
	}
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithProvider selects the geocoding backend.
func WithProvider(name string) Option {
	return func(g *geocoder) {
		if name != "" {
			g.provider = strings.ToLower(name)
		}
	}
}

// WithBaseURL overrides the Nominatim endpoint, e.g. for a self-hosted instance.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent sets the client marker sent with every request.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithEmail sets the contact address Nominatim asks heavy users to provide.
func WithEmail(email string) Option {
	return func(g *geocoder) {
		g.email = email
	}
}

// WithGoogleAPIKey sets the key used by the Google provider.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for all providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit shared by all calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout bounds each Geocode call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		g.timeout = d
	}
}

type geocoder struct {
	httpClient *http.Client
	provider   string
	baseURL    string
	userAgent  string
	email      string
	googleKey  string
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		provider:   ProviderNominatim,
		baseURL:    nominatimBaseURL,
		userAgent:  DefaultUserAgent,
		limiter:    rate.NewLimiter(1, 1), // Nominatim usage policy: 1 req/s
		timeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves address with the configured provider in a single attempt.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return &Result{Matched: false, Source: g.provider}, nil
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var (
		result *Result
		err    error
	)
	switch g.provider {
	case ProviderNominatim:
		result, err = g.geocodeNominatim(ctx, address)
	case ProviderCensus:
		result, err = g.geocodeCensus(ctx, address)
	case ProviderGoogle:
		result, err = g.geocodeGoogle(ctx, address)
	default:
		return nil, eris.Errorf("geocode: unknown provider %q", g.provider)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("geocode: lookup complete",
		zap.String("provider", g.provider),
		zap.Bool("matched", result.Matched),
		zap.Float64("lat", result.Latitude),
		zap.Float64("lon", result.Longitude),
	)
	return result, nil
}

// get performs one rate-limited GET and returns the body of a 2xx response.
// Network failures and other statuses become a *TransportError.
func (g *geocoder) get(ctx context.Context, source, reqURL string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "geocode: %s rate limit", source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s build request", source)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Source: source, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("geocode: %s returned status %d", source, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Source: source, Err: err}
	}
	return body, nil
}

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-cli/internal/observability"
	"github.com/i474232898/weather-cli/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and instrumentation shared by adapters.
type HTTPClientConfig struct {
	Client  *http.Client
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// APIError is a non-2xx response from a provider API.
type APIError struct {
	Provider   weather.Kind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsAuthFailure reports whether err is a 401 or 403 from a provider.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

const maxErrorBody = 512

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// getJSON issues a single GET through the circuit breaker and decodes a 2xx
// body into out. There are no retries: the first failure is returned.
// Only 5xx and 429 responses count against the breaker, so a rejected API key
// never opens it.
func getJSON(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	kind weather.Kind,
	endpoint string,
	rawURL string,
	out any,
) error {
	if cfg.Client == nil {
		return errNoHTTPClient
	}

	start := time.Now()
	outcome := "success"
	defer func() {
		observe(cfg, kind, endpoint, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		outcome = "transport_error"
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			defer resp.Body.Close()
			return nil, newAPIError(kind, resp)
		}
		return resp, nil
	})
	if err != nil {
		var apiErr *APIError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "circuit_open"
			return fmt.Errorf("%s %s: %w: %v", kind, endpoint, errCircuitOpen, err)
		case errors.As(err, &apiErr):
			outcome = "status_error"
			return err
		default:
			outcome = "transport_error"
			// url.Error embeds the request URL, which carries the API key.
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				err = urlErr.Err
			}
			return fmt.Errorf("%s %s request: %w", kind, endpoint, err)
		}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		outcome = "transport_error"
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "status_error"
		return newAPIError(kind, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = "decode_error"
		return fmt.Errorf("decode %s %s response: %w", kind, endpoint, err)
	}
	return nil
}

func newAPIError(kind weather.Kind, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := string(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Provider: kind, StatusCode: resp.StatusCode, Message: msg}
}

func observe(cfg HTTPClientConfig, kind weather.Kind, endpoint, outcome string, d time.Duration) {
	if cfg.Logger != nil {
		cfg.Logger.Debug("provider request",
			"provider", kind,
			"endpoint", endpoint,
			"outcome", outcome,
			"duration", d,
		)
	}
	if cfg.Metrics == nil {
		return
	}
	cfg.Metrics.ProviderRequests.WithLabelValues(string(kind), endpoint, outcome).Inc()
	cfg.Metrics.ProviderRequestDuration.WithLabelValues(string(kind), endpoint).Observe(d.Seconds())
}

// validateKey runs search and maps an auth failure to false.
func validateKey(cfg HTTPClientConfig, kind weather.Kind, search func() error) (bool, error) {
	err := search()
	valid := err == nil
	if err != nil && !IsAuthFailure(err) {
		return false, err
	}
	if cfg.Metrics != nil {
		result := "invalid"
		if valid {
			result = "valid"
		}
		cfg.Metrics.KeyValidations.WithLabelValues(string(kind), result).Inc()
	}
	return valid, nil
}

// Option customizes an adapter.
type Option func(*options)

type options struct {
	baseURL string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// WithBaseURL points the adapter at a different host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(defaultHost string, opts []Option) options {
	o := options{baseURL: defaultHost}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

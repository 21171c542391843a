package weather

import (
	"context"
	"errors"
	"fmt"
)

// ReferenceCity is searched when validating an API key. It exists in every
// provider's dataset, so a failed lookup can only be blamed on the key.
const ReferenceCity = "Kyiv"

var (
	// ErrBadResponse matches any BadResponseError.
	ErrBadResponse = errors.New("bad response from provider api")

	// ErrIncompatibleLocation is returned when a location lacks the id or
	// coordinates a provider needs for its weather lookup.
	ErrIncompatibleLocation = errors.New("location is not usable by this provider")
)

// BadResponseError reports a well-formed upstream response that lacks the
// expected weather data.
type BadResponseError struct {
	Provider Kind
	Reason   string
}

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("%s: bad response: %s", e.Provider, e.Reason)
}

func (e *BadResponseError) Is(target error) bool {
	return target == ErrBadResponse
}

// Provider abstracts a weather data source (OpenWeather, WeatherApi, AccuWeather).
// Every call issues exactly one HTTP request.
type Provider interface {
	// ValidateAPIKey reports false when the provider rejects the key with 401/403.
	ValidateAPIKey(ctx context.Context, apiKey string) (bool, error)
	// SearchLocation returns matching places; an empty slice means no match.
	SearchLocation(ctx context.Context, apiKey, query string) ([]Location, error)
	GetWeather(ctx context.Context, apiKey string, loc Location) (Weather, error)
	Kind() Kind
}

// ProviderFactory builds the adapter for a kind.
type ProviderFactory func(kind Kind) (Provider, error)

// ConfigStore is the contract the persistent configuration store must satisfy.
type ConfigStore interface {
	IsProviderConfigured(kind Kind) bool
	ConfigureProvider(kind Kind, apiKey string)
	MarkProviderActive(kind Kind)
	ActiveProvider() (Kind, bool)
	// APIKey panics if kind is not configured.
	APIKey(kind Kind) string
	// SaveLocation panics if kind is not configured.
	SaveLocation(kind Kind, loc Location)
	SavedLocation(kind Kind) (Location, bool)
	Store() error
}

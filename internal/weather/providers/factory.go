package providers

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/i474232898/weather-cli/internal/weather"
)

// New builds the adapter for kind. Options apply to every adapter, so
// WithBaseURL is only meaningful when a single kind is being built.
func New(kind weather.Kind, client *http.Client, opts ...Option) (weather.Provider, error) {
	switch kind {
	case weather.KindOpenWeather:
		return NewOpenWeatherProvider(client, opts...), nil
	case weather.KindWeatherAPI:
		return NewWeatherAPIProvider(client, opts...), nil
	case weather.KindAccuWeather:
		return NewAccuWeatherProvider(client, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", weather.ErrUnknownProvider, kind)
	}
}

// Factory returns a weather.ProviderFactory that shares client and options.
// Adapters are built once and reused, so each keeps its circuit breaker state.
func Factory(client *http.Client, opts ...Option) weather.ProviderFactory {
	var mu sync.Mutex
	built := make(map[weather.Kind]weather.Provider)
	return func(kind weather.Kind) (weather.Provider, error) {
		mu.Lock()
		defer mu.Unlock()
		if p, ok := built[kind]; ok {
			return p, nil
		}
		p, err := New(kind, client, opts...)
		if err != nil {
			return nil, err
		}
		built[kind] = p
		return p, nil
	}
}

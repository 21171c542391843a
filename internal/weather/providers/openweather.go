package providers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-cli/internal/weather"
)

const openWeatherHost = "https://api.openweathermap.org"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
// Weather lookups are keyed by coordinates; temperatures arrive in kelvin.
type OpenWeatherProvider struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, opts ...Option) *OpenWeatherProvider {
	o := applyOptions(openWeatherHost, opts)
	return &OpenWeatherProvider{
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Metrics: o.metrics,
			Logger:  o.logger,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Kind() weather.Kind {
	return weather.KindOpenWeather
}

func (p *OpenWeatherProvider) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	return validateKey(p.httpCfg, p.Kind(), func() error {
		_, err := p.geoDirect(ctx, apiKey, weather.ReferenceCity, 1)
		return err
	})
}

func (p *OpenWeatherProvider) SearchLocation(ctx context.Context, apiKey, query string) ([]weather.Location, error) {
	items, err := p.geoDirect(ctx, apiKey, query, 5)
	if err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(items))
	for _, it := range items {
		lat, lon := it.Lat, it.Lon
		locs = append(locs, weather.Location{
			Name:    it.Name,
			State:   it.State,
			Country: it.Country,
			Lat:     &lat,
			Lon:     &lon,
		})
	}
	return locs, nil
}

type openWeatherGeo struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   *string `json:"state"`
}

func (p *OpenWeatherProvider) geoDirect(ctx context.Context, apiKey, query string, limit int) ([]openWeatherGeo, error) {
	u := mustBuildURL(p.baseURL, []string{"geo", "1.0", "direct"},
		queryParam{"appid", apiKey},
		queryParam{"q", query},
		queryParam{"limit", strconv.Itoa(limit)},
	)

	var payload []openWeatherGeo
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.Kind(), "geo_direct", u, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *OpenWeatherProvider) GetWeather(ctx context.Context, apiKey string, loc weather.Location) (weather.Weather, error) {
	lat, lon, ok := loc.Coordinates()
	if !ok {
		return weather.Weather{}, weather.ErrIncompatibleLocation
	}

	u := mustBuildURL(p.baseURL, []string{"data", "2.5", "weather"},
		queryParam{"appid", apiKey},
		queryParam{"lat", formatFloat(lat)},
		queryParam{"lon", formatFloat(lon)},
	)

	var payload struct {
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.Kind(), "weather", u, &payload); err != nil {
		return weather.Weather{}, err
	}

	if payload.Main == nil {
		return weather.Weather{}, &weather.BadResponseError{Provider: p.Kind(), Reason: "missing main section"}
	}
	if len(payload.Weather) == 0 {
		return weather.Weather{}, &weather.BadResponseError{Provider: p.Kind(), Reason: "no weather entries"}
	}

	return weather.Weather{
		Temperature: weather.FromKelvin(payload.Main.Temp),
		Description: payload.Weather[0].Main,
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-cli/internal/weather"
)

const weatherAPIHost = "https://api.weatherapi.com"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, opts ...Option) *WeatherAPIProvider {
	o := applyOptions(weatherAPIHost, opts)
	return &WeatherAPIProvider{
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Metrics: o.metrics,
			Logger:  o.logger,
		},
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Kind() weather.Kind {
	return weather.KindWeatherAPI
}

func (p *WeatherAPIProvider) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	return validateKey(p.httpCfg, p.Kind(), func() error {
		_, err := p.search(ctx, apiKey, weather.ReferenceCity)
		return err
	})
}

func (p *WeatherAPIProvider) SearchLocation(ctx context.Context, apiKey, query string) ([]weather.Location, error) {
	items, err := p.search(ctx, apiKey, query)
	if err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(items))
	for _, it := range items {
		lat, lon, region := it.Lat, it.Lon, it.Region
		locs = append(locs, weather.Location{
			Name:    it.Name,
			State:   &region,
			Country: it.Country,
			Lat:     &lat,
			Lon:     &lon,
		})
	}
	return locs, nil
}

type weatherAPISearchItem struct {
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (p *WeatherAPIProvider) search(ctx context.Context, apiKey, query string) ([]weatherAPISearchItem, error) {
	u := mustBuildURL(p.baseURL, []string{"v1", "search.json"},
		queryParam{"key", apiKey},
		queryParam{"q", query},
	)

	var payload []weatherAPISearchItem
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.Kind(), "search", u, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *WeatherAPIProvider) GetWeather(ctx context.Context, apiKey string, loc weather.Location) (weather.Weather, error) {
	lat, lon, ok := loc.Coordinates()
	if !ok {
		return weather.Weather{}, weather.ErrIncompatibleLocation
	}

	// WeatherAPI uses "q" for location; it accepts "lat,lon".
	u := mustBuildURL(p.baseURL, []string{"v1", "current.json"},
		queryParam{"key", apiKey},
		queryParam{"q", fmt.Sprintf("%s,%s", formatFloat(lat), formatFloat(lon))},
	)

	var payload struct {
		Current *struct {
			TempC     float64 `json:"temp_c"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.Kind(), "current", u, &payload); err != nil {
		return weather.Weather{}, err
	}

	if payload.Current == nil {
		return weather.Weather{}, &weather.BadResponseError{Provider: p.Kind(), Reason: "missing current conditions"}
	}

	return weather.Weather{
		Temperature: weather.FromCelsius(payload.Current.TempC),
		Description: payload.Current.Condition.Text,
	}, nil
}

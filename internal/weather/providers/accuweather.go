package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-cli/internal/weather"
)

const accuWeatherHost = "https://dataservice.accuweather.com"

// AccuWeatherProvider implements the weather.Provider interface for AccuWeather.
// Weather lookups are keyed by the location key returned from the city search.
type AccuWeatherProvider struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewAccuWeatherProvider(client *http.Client, opts ...Option) *AccuWeatherProvider {
	o := applyOptions(accuWeatherHost, opts)
	return &AccuWeatherProvider{
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Metrics: o.metrics,
			Logger:  o.logger,
		},
		circuit: newCircuitBreaker("accuweather"),
	}
}

func (p *AccuWeatherProvider) Kind() weather.Kind {
	return weather.KindAccuWeather
}

func (p *AccuWeatherProvider) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	return validateKey(p.httpCfg, p.Kind(), func() error {
		_, err := p.citiesSearch(ctx, apiKey, weather.ReferenceCity)
		return err
	})
}

func (p *AccuWeatherProvider) SearchLocation(ctx context.Context, apiKey, query string) ([]weather.Location, error) {
	items, err := p.citiesSearch(ctx, apiKey, query)
	if err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(items))
	for _, it := range items {
		key, area := it.Key, it.AdministrativeArea.LocalizedName
		locs = append(locs, weather.Location{
			ID:      &key,
			Name:    it.LocalizedName,
			State:   &area,
			Country: it.Country.LocalizedName,
		})
	}
	return locs, nil
}

type accuWeatherName struct {
	LocalizedName string `json:"LocalizedName"`
}

type accuWeatherCity struct {
	Key                string          `json:"Key"`
	LocalizedName      string          `json:"LocalizedName"`
	Country            accuWeatherName `json:"Country"`
	AdministrativeArea accuWeatherName `json:"AdministrativeArea"`
}

func (p *AccuWeatherProvider) citiesSearch(ctx context.Context, apiKey, query string) ([]accuWeatherCity, error) {
	u := mustBuildURL(p.baseURL, []string{"locations", "v1", "cities", "search"},
		queryParam{"apikey", apiKey},
		queryParam{"q", query},
	)

	var payload []accuWeatherCity
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.Kind(), "cities_search", u, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *AccuWeatherProvider) GetWeather(ctx context.Context, apiKey string, loc weather.Location) (weather.Weather, error) {
	if loc.ID == nil || *loc.ID == "" {
		return weather.Weather{}, weather.ErrIncompatibleLocation
	}

	// The id comes from the config file, so it is not trusted as a path segment.
	u, err := buildURL(p.baseURL, []string{"currentconditions", "v1", *loc.ID},
		queryParam{"apikey", apiKey},
	)
	if err != nil {
		return weather.Weather{}, fmt.Errorf("%w: %v", weather.ErrIncompatibleLocation, err)
	}

	var payload []struct {
		WeatherText string `json:"WeatherText"`
		Temperature struct {
			Metric struct {
				Value float64 `json:"Value"`
			} `json:"Metric"`
		} `json:"Temperature"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.Kind(), "current_conditions", u.String(), &payload); err != nil {
		return weather.Weather{}, err
	}

	if len(payload) == 0 {
		return weather.Weather{}, &weather.BadResponseError{Provider: p.Kind(), Reason: "no current conditions"}
	}

	// The endpoint returns a single-element array for the location.
	current := payload[0]
	return weather.Weather{
		Temperature: weather.FromCelsius(current.Temperature.Metric.Value),
		Description: current.WeatherText,
	}, nil
}

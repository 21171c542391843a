package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-cli/internal/observability"
	"github.com/i474232898/weather-cli/internal/weather"
)

const openWeatherGeoBody = `[
  {"name": "Kyiv", "lat": 50.4500336, "lon": 30.5241361, "country": "UA", "state": "Kyiv"},
  {"name": "Kyiv", "lat": 45.0, "lon": 34.1, "country": "UA"}
]`

const openWeatherCurrentBody = `{
  "coord": {"lon": 30.5241, "lat": 50.45},
  "weather": [{"id": 804, "main": "Clouds", "description": "overcast clouds", "icon": "04d"}],
  "main": {"temp": 300, "feels_like": 299.1, "pressure": 1012, "humidity": 40},
  "name": "Kyiv"
}`

func newTestOpenWeather(t *testing.T, h http.HandlerFunc) (*OpenWeatherProvider, *stubServer, *observability.Metrics) {
	t.Helper()
	srv := newStubServer(t, h)
	m := observability.NewMetricsForTesting()
	return NewOpenWeatherProvider(testHTTPClient(), testOptions(srv.URL, m)...), srv, m
}

func TestOpenWeather_SearchLocation(t *testing.T) {
	p, srv, _ := newTestOpenWeather(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "Kyiv", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, openWeatherGeoBody)
	})

	locs, err := p.SearchLocation(context.Background(), testAPIKey, "Kyiv")
	require.NoError(t, err)

	want := []weather.Location{
		{Name: "Kyiv", State: ptr("Kyiv"), Country: "UA", Lat: ptr(50.4500336), Lon: ptr(30.5241361)},
		{Name: "Kyiv", Country: "UA", Lat: ptr(45.0), Lon: ptr(34.1)},
	}
	if diff := cmp.Diff(want, locs); diff != "" {
		t.Errorf("SearchLocation mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, srv.Hits())
}

func TestOpenWeather_SearchLocation_NoMatches(t *testing.T) {
	p, _, _ := newTestOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})

	locs, err := p.SearchLocation(context.Background(), testAPIKey, "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestOpenWeather_ValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{name: "accepted", status: http.StatusOK, body: openWeatherGeoBody, want: true},
		{name: "accepted with no results", status: http.StatusOK, body: `[]`, want: true},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"cod":401,"message":"Invalid API key"}`},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, srv, _ := newTestOpenWeather(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, weather.ReferenceCity, r.URL.Query().Get("q"))
				assert.Equal(t, "1", r.URL.Query().Get("limit"))
				writeJSON(w, tt.status, tt.body)
			})

			ok, err := p.ValidateAPIKey(context.Background(), testAPIKey)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, 1, srv.Hits(), "validation must issue exactly one request")
		})
	}
}

func TestOpenWeather_ValidateAPIKey_CountsResult(t *testing.T) {
	p, _, m := newTestOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{}`)
	})

	ok, err := p.ValidateAPIKey(context.Background(), "bad-key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeyValidations.WithLabelValues("OpenWeather", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("OpenWeather", "geo_direct", "status_error")))
}

func TestOpenWeather_GetWeather(t *testing.T) {
	p, _, m := newTestOpenWeather(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "50.45", r.URL.Query().Get("lat"))
		assert.Equal(t, "30.5241", r.URL.Query().Get("lon"))
		writeJSON(w, http.StatusOK, openWeatherCurrentBody)
	})

	loc := weather.Location{Name: "Kyiv", Country: "UA", Lat: ptr(50.45), Lon: ptr(30.5241)}
	got, err := p.GetWeather(context.Background(), testAPIKey, loc)
	require.NoError(t, err)

	assert.Equal(t, "Clouds", got.Description)
	assert.InDelta(t, 300.0, got.Temperature.Kelvin(), 1e-9)
	assert.InDelta(t, 26.85, got.Temperature.Celsius(), 1e-9)
	assert.Equal(t, "27°C", got.Temperature.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("OpenWeather", "weather", "success")))
}

func TestOpenWeather_GetWeather_RequiresCoordinates(t *testing.T) {
	p, srv, _ := newTestOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, openWeatherCurrentBody)
	})

	_, err := p.GetWeather(context.Background(), testAPIKey, weather.Location{ID: ptr("324505"), Name: "Kyiv"})
	require.ErrorIs(t, err, weather.ErrIncompatibleLocation)
	assert.Zero(t, srv.Hits())
}

func TestOpenWeather_GetWeather_BadResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty weather array", body: `{"weather": [], "main": {"temp": 280}}`},
		{name: "missing main", body: `{"weather": [{"main": "Rain"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newTestOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			loc := weather.Location{Name: "Kyiv", Lat: ptr(50.45), Lon: ptr(30.52)}
			_, err := p.GetWeather(context.Background(), testAPIKey, loc)
			require.ErrorIs(t, err, weather.ErrBadResponse)

			var bad *weather.BadResponseError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, weather.KindOpenWeather, bad.Provider)
		})
	}
}

func TestOpenWeather_GetWeather_StatusError(t *testing.T) {
	p, srv, _ := newTestOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadGateway, `upstream down`)
	})

	loc := weather.Location{Name: "Kyiv", Lat: ptr(50.45), Lon: ptr(30.52)}
	_, err := p.GetWeather(context.Background(), testAPIKey, loc)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, 1, srv.Hits(), "failed requests are not retried")
}

func TestOpenWeather_DecodeError(t *testing.T) {
	p, _, m := newTestOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{not json`)
	})

	_, err := p.SearchLocation(context.Background(), testAPIKey, "Kyiv")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("OpenWeather", "geo_direct", "decode_error")))
}

func TestOpenWeather_TransportErrorDoesNotLeakKey(t *testing.T) {
	p, srv, _ := newTestOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	srv.Close()

	_, err := p.SearchLocation(context.Background(), "secret-key-123", "Kyiv")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key-123")
}

func TestOpenWeather_CircuitOpensOnServerErrorsOnly(t *testing.T) {
	p, srv, _ := newTestOpenWeather(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") == "bad-key" {
			writeJSON(w, http.StatusUnauthorized, `{}`)
			return
		}
		writeJSON(w, http.StatusInternalServerError, `{}`)
	})
	ctx := context.Background()

	// Rejected keys never trip the breaker.
	for i := 0; i < 10; i++ {
		ok, err := p.ValidateAPIKey(ctx, "bad-key")
		require.NoError(t, err)
		require.False(t, ok)
	}
	assert.Equal(t, 10, srv.Hits())

	// gobreaker trips after more than five consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := p.SearchLocation(ctx, testAPIKey, "Kyiv")
		require.Error(t, err)
	}
	assert.Equal(t, 16, srv.Hits())

	_, err := p.SearchLocation(ctx, testAPIKey, "Kyiv")
	require.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, 16, srv.Hits(), "open circuit must not reach the server")
}

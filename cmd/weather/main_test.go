package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-cli/internal/observability"
	"github.com/i474232898/weather-cli/internal/store"
	"github.com/i474232898/weather-cli/internal/weather"
)

type cliProvider struct {
	kind weather.Kind
	key  string
	locs []weather.Location
}

func (p *cliProvider) Kind() weather.Kind { return p.kind }

func (p *cliProvider) ValidateAPIKey(_ context.Context, apiKey string) (bool, error) {
	return apiKey == p.key, nil
}

func (p *cliProvider) SearchLocation(context.Context, string, string) ([]weather.Location, error) {
	return p.locs, nil
}

func (p *cliProvider) GetWeather(_ context.Context, _ string, loc weather.Location) (weather.Weather, error) {
	return weather.Weather{Temperature: weather.FromCelsius(12.3), Description: "Rain in " + loc.Country}, nil
}

type cliHarness struct {
	backend *store.MemoryBackend
	service *weather.Service
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	lat, lon := 51.5, -0.12
	p := &cliProvider{
		kind: weather.KindWeatherAPI,
		key:  "good",
		locs: []weather.Location{
			{Name: "London", Country: "United Kingdom", Lat: &lat, Lon: &lon},
			{Name: "London", Country: "Canada", Lat: &lat, Lon: &lon},
		},
	}
	factory := func(weather.Kind) (weather.Provider, error) { return p, nil }

	h := &cliHarness{backend: store.NewMemoryBackend(nil)}
	storage, err := store.Load(h.backend, observability.DiscardLogger())
	require.NoError(t, err)
	h.service = weather.NewService(storage, factory, observability.DiscardLogger())
	return h
}

func (h *cliHarness) run(input string, args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	a := &app{
		service: h.service,
		in:      bufio.NewReader(strings.NewReader(input)),
		out:     newPrinter(&h.stdout, false),
		errOut:  newPrinter(&h.stderr, false),
	}
	return a.dispatch(context.Background(), args)
}

func TestConfigureCommand(t *testing.T) {
	h := newHarness(t)

	code := h.run("bad\n", "configure", "weather-api")
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "Incorrect provider API key.")
	assert.Zero(t, h.backend.Writes())

	code = h.run("\ngood\n", "configure", "weather-api")
	assert.Equal(t, 0, code)
	assert.Contains(t, h.stdout.String(), "Successfully saved provider configuration.")
	assert.Equal(t, 1, h.backend.Writes())

	code = h.run("n\n", "configure", "weather-api")
	assert.Equal(t, 0, code)
	assert.Contains(t, h.stdout.String(), "Provider configuration has not changed.")
	assert.Equal(t, 1, h.backend.Writes())
}

func TestConfigureCommand_ReadsKeyWithoutEcho(t *testing.T) {
	h := newHarness(t)

	var secretReads int
	a := &app{
		service: h.service,
		in:      bufio.NewReader(strings.NewReader("")),
		readSecret: func() (string, error) {
			secretReads++
			if secretReads == 1 {
				return "  ", nil
			}
			return "good", nil
		},
		out:    newPrinter(&h.stdout, false),
		errOut: newPrinter(&h.stderr, false),
	}

	code := a.dispatch(context.Background(), []string{"configure", "weather-api"})
	assert.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, 2, secretReads, "blank input asks again")
	assert.NotContains(t, h.stdout.String(), "good")
	assert.True(t, h.service.IsConfigured(weather.KindWeatherAPI))
}

func TestTerminalSecretReader_NotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	defer f.Close()

	assert.Nil(t, terminalSecretReader(f, &bytes.Buffer{}))
}

func TestConfigureCommand_BadArgs(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run("", "configure"))
	assert.Equal(t, 1, h.run("", "configure", "dark-sky"))
	assert.Contains(t, h.stderr.String(), "dark-sky")
	assert.Equal(t, 1, h.run("", "configure", "weather-api"), "no key on stdin")
}

func TestGetCommand(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run("", "get", "London"))
	assert.Contains(t, h.stderr.String(), "There is none configured provider.")

	require.Equal(t, 0, h.run("good\n", "configure", "weather-api"))

	code := h.run("7\n2\n", "get", "London")
	assert.Equal(t, 0, code)
	assert.Contains(t, h.stdout.String(), "1) London, United Kingdom")
	assert.Contains(t, h.stdout.String(), "Rain in Canada, 12°C")
	assert.Contains(t, h.stderr.String(), "Please enter a number from the list.")

	// Saved location is reused when no address is given.
	code = h.run("", "get")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Rain in Canada, 12°C\n", h.stdout.String())
}

func TestGetCommand_ProviderFlag(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run("", "get", "-provider", "accu-weather", "Kyiv"))
	assert.Contains(t, h.stderr.String(), "Provider is not configured.")

	assert.Equal(t, 1, h.run("", "get", "-provider", "nope", "Kyiv"))
}

func TestProvidersCommand(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("good\n", "configure", "weather-api"))

	require.Equal(t, 0, h.run("", "providers"))
	out := h.stdout.String()
	assert.Contains(t, out, "* weather-api")
	assert.Contains(t, out, "  open-weather  not configured")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 1, h.run("", "forecast"))
}

func TestPrinter_ColorsByCondition(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, true)
	p.weather(weather.Weather{Temperature: weather.FromCelsius(5), Description: "Light snow"})

	assert.Equal(t, conditionColors[weather.ConditionSnow]+"Light snow, 5°C"+ansiReset+"\n", buf.String())

	buf.Reset()
	p.weather(weather.Weather{Temperature: weather.FromCelsius(5), Description: "Tornado"})
	assert.Equal(t, "Tornado, 5°C\n", buf.String())
}

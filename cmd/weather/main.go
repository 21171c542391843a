// Command weather shows current weather from a configured provider.
//
//	weather configure <provider>
//	weather get [-provider <provider>] [location...]
//	weather providers
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/i474232898/weather-cli/internal/config"
	"github.com/i474232898/weather-cli/internal/observability"
	"github.com/i474232898/weather-cli/internal/store"
	"github.com/i474232898/weather-cli/internal/weather"
	"github.com/i474232898/weather-cli/internal/weather/providers"
)

const version = "0.3.0"

const usage = `Simple weather CLI.

Usage:
  weather configure <provider>               Configure credentials for the provider.
  weather get [-provider <p>] [location...]  Show weather for the provided address.
  weather providers                          List providers and their state.

Providers: open-weather, weather-api, accu-weather

Flags:
  -h, -help      Print help
  -V, -version   Print version
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	switch args[0] {
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	case "-V", "-version", "--version":
		fmt.Fprintf(os.Stdout, "weather %s\n", version)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	path, err := cfg.StoragePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve config path: %v\n", err)
		return 1
	}
	storage, err := store.Load(store.NewFileBackend(path), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Internal local storage error: %v\n", err)
		return 1
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	service := weather.NewService(storage, providers.Factory(httpClient, providers.WithLogger(logger)), logger)

	a := &app{
		service:    service,
		in:         bufio.NewReader(os.Stdin),
		readSecret: terminalSecretReader(os.Stdin, os.Stdout),
		out:        newPrinter(os.Stdout, useColor(os.Stdout)),
		errOut:     newPrinter(os.Stderr, useColor(os.Stderr)),
	}
	return a.dispatch(context.Background(), args)
}

type app struct {
	service *weather.Service
	in      *bufio.Reader
	// readSecret reads the API key without echo; nil falls back to in.
	readSecret func() (string, error)
	out        *printer
	errOut     *printer
}

// dispatch runs one command and persists the store once at the end.
func (a *app) dispatch(ctx context.Context, args []string) int {
	var err error
	switch args[0] {
	case "configure":
		err = a.configure(ctx, args[1:])
	case "get":
		err = a.get(ctx, args[1:])
	case "providers":
		err = a.providers()
	default:
		err = fmt.Errorf("unrecognized subcommand %q", args[0])
	}

	if flushErr := a.service.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("internal local storage error: %w", flushErr)
	}
	if err != nil {
		a.errOut.failure(describeError(err))
		return 1
	}
	return 0
}

func (a *app) configure(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("configure", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("configure requires exactly one <provider>")
	}
	kind, err := weather.ParseKind(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid value '%s' for '<PROVIDER>'", fs.Arg(0))
	}

	if a.service.IsConfigured(kind) {
		a.out.info("Provider is already configured.")
		ok, err := a.confirm("Do you want to reconfigure?")
		if err != nil {
			return err
		}
		if !ok {
			a.out.info("Provider configuration has not changed.")
			return nil
		}
	}

	apiKey, err := a.promptSecret("Input provider API key")
	if err != nil {
		return err
	}
	if err := a.service.Configure(ctx, kind, apiKey); err != nil {
		return err
	}
	a.out.success("Successfully saved provider configuration.")
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("provider", "", "provider to use instead of the active one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var kind weather.Kind
	if *name != "" {
		k, err := weather.ParseKind(*name)
		if err != nil {
			return fmt.Errorf("invalid value '%s' for '--provider <PROVIDER>'", *name)
		}
		kind = k
	}
	kind, err := a.service.ChooseActiveProvider(kind)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	report, err := a.service.CurrentWeather(ctx, kind, query, a.chooseLocation)
	if err != nil {
		return err
	}
	a.out.weather(report.Weather)
	return nil
}

func (a *app) providers() error {
	for _, st := range a.service.Providers() {
		marker := " "
		if st.Active {
			marker = "*"
		}
		state := "not configured"
		if st.Configured {
			state = "configured"
		}
		line := fmt.Sprintf("%s %-13s %s", marker, st.Kind.Slug(), state)
		if st.SavedLocation != nil {
			line += " (" + st.SavedLocation.String() + ")"
		}
		a.out.info(line)
	}
	return nil
}

func describeError(err error) string {
	var apiErr *providers.APIError
	switch {
	case errors.Is(err, weather.ErrNoActiveProvider):
		return "There is none configured provider."
	case errors.Is(err, weather.ErrProviderNotConfigured):
		return "Provider is not configured."
	case errors.Is(err, weather.ErrInvalidAPIKey):
		return "Incorrect provider API key."
	case errors.Is(err, weather.ErrLocationNotFound):
		return "Sorry, cannot find any location for the given input."
	case errors.Is(err, weather.ErrNoLocation):
		return "No location given and none saved for this provider."
	case errors.Is(err, weather.ErrBadResponse):
		return "Got a bad response from the provider API."
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Failed to communicate with provider API (status %d).", apiErr.StatusCode)
	default:
		return err.Error()
	}
}

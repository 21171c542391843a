package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrProviderNotConfigured = errors.New("provider is not configured")
	ErrNoActiveProvider      = errors.New("there is no configured provider")
	ErrInvalidAPIKey         = errors.New("incorrect provider api key")
	ErrLocationNotFound      = errors.New("cannot find any location for the given input")
	ErrNoLocation            = errors.New("no location given and none saved for provider")
)

// LocationChooser picks one of several matching locations and returns its index.
type LocationChooser func(locs []Location) (int, error)

// Report is the result of a current weather lookup.
type Report struct {
	Provider Kind     `json:"provider"`
	Location Location `json:"location"`
	Weather  Weather  `json:"weather"`
}

// ProviderStatus describes how a provider kind is set up in the store.
type ProviderStatus struct {
	Kind          Kind      `json:"kind"`
	Configured    bool      `json:"configured"`
	Active        bool      `json:"active"`
	SavedLocation *Location `json:"savedLocation,omitempty"`
}

// Service orchestrates providers and the configuration store. Operations are
// serialized so the store always has a single mutator.
type Service struct {
	mu          sync.Mutex
	store       ConfigStore
	newProvider ProviderFactory
	logger      *slog.Logger
}

// NewService creates a new Service.
func NewService(store ConfigStore, factory ProviderFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		newProvider: factory,
		logger:      logger,
	}
}

// Configure validates apiKey against the provider and, if accepted, stores it
// and makes the provider active.
func (s *Service) Configure(ctx context.Context, kind Kind, apiKey string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, kind)
	}
	p, err := s.newProvider(kind)
	if err != nil {
		return err
	}

	ok, err := p.ValidateAPIKey(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("validate %s api key: %w", kind, err)
	}
	if !ok {
		return ErrInvalidAPIKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ConfigureProvider(kind, apiKey)
	s.logger.Info("provider configured", "provider", kind)
	return nil
}

// IsConfigured reports whether kind has credentials in the store.
func (s *Service) IsConfigured(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.IsProviderConfigured(kind)
}

// ChooseActiveProvider resolves the provider to use. An empty kind means the
// currently active one; an explicit kind must be configured and becomes active.
func (s *Service) ChooseActiveProvider(kind Kind) (Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == "" {
		active, ok := s.store.ActiveProvider()
		if !ok {
			return "", ErrNoActiveProvider
		}
		return active, nil
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, kind)
	}
	if !s.store.IsProviderConfigured(kind) {
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, kind)
	}
	s.store.MarkProviderActive(kind)
	return kind, nil
}

// SearchLocations queries the provider's geocoding endpoint.
func (s *Service) SearchLocations(ctx context.Context, kind Kind, query string) ([]Location, error) {
	p, apiKey, err := s.provider(kind)
	if err != nil {
		return nil, err
	}
	return p.SearchLocation(ctx, apiKey, query)
}

// CurrentWeather resolves query to a location (or falls back to the saved one
// when query is empty) and fetches its current weather. A location resolved
// from a query is saved for the provider.
func (s *Service) CurrentWeather(ctx context.Context, kind Kind, query string, choose LocationChooser) (Report, error) {
	p, apiKey, err := s.provider(kind)
	if err != nil {
		return Report{}, err
	}

	var loc Location
	if query == "" {
		s.mu.Lock()
		saved, ok := s.store.SavedLocation(kind)
		s.mu.Unlock()
		if !ok {
			return Report{}, ErrNoLocation
		}
		loc = saved
	} else {
		locs, err := p.SearchLocation(ctx, apiKey, query)
		if err != nil {
			return Report{}, fmt.Errorf("search location: %w", err)
		}
		loc, err = pickLocation(locs, choose)
		if err != nil {
			return Report{}, err
		}
		s.mu.Lock()
		s.store.SaveLocation(kind, loc)
		s.mu.Unlock()
	}

	w, err := p.GetWeather(ctx, apiKey, loc)
	if err != nil {
		return Report{}, fmt.Errorf("get weather: %w", err)
	}
	s.logger.Debug("weather fetched", "provider", kind, "location", loc.String())

	return Report{Provider: kind, Location: loc, Weather: w}, nil
}

func pickLocation(locs []Location, choose LocationChooser) (Location, error) {
	switch len(locs) {
	case 0:
		return Location{}, ErrLocationNotFound
	case 1:
		return locs[0], nil
	}
	if choose == nil {
		return locs[0], nil
	}
	i, err := choose(locs)
	if err != nil {
		return Location{}, err
	}
	if i < 0 || i >= len(locs) {
		return Location{}, fmt.Errorf("location selection %d out of range", i)
	}
	return locs[i], nil
}

// Providers reports the status of every supported kind.
func (s *Service) Providers() []ProviderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, _ := s.store.ActiveProvider()
	out := make([]ProviderStatus, 0, len(kinds))
	for _, k := range kinds {
		st := ProviderStatus{
			Kind:       k,
			Configured: s.store.IsProviderConfigured(k),
			Active:     k == active,
		}
		if loc, ok := s.store.SavedLocation(k); ok {
			st.SavedLocation = &loc
		}
		out = append(out, st)
	}
	return out
}

// Flush persists pending store mutations.
func (s *Service) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Store()
}

func (s *Service) provider(kind Kind) (Provider, string, error) {
	if !kind.Valid() {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownProvider, kind)
	}

	s.mu.Lock()
	if !s.store.IsProviderConfigured(kind) {
		s.mu.Unlock()
		return nil, "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, kind)
	}
	apiKey := s.store.APIKey(kind)
	s.mu.Unlock()

	p, err := s.newProvider(kind)
	if err != nil {
		return nil, "", err
	}
	return p, apiKey, nil
}

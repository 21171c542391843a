package store

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-cli/internal/weather"
)

var (
	// ErrNotFound is returned by a Backend when nothing has been persisted yet.
	ErrNotFound = errors.New("no stored config")

	// ErrCorruptConfig is returned when the stored config cannot be decoded or
	// violates the store's invariants. It is never silently reset.
	ErrCorruptConfig = errors.New("corrupt config")
)

// Backend reads and writes the serialized config.
type Backend interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// Field order below is the on-disk order and must stay stable.
type providerData struct {
	Kind          weather.Kind      `toml:"kind" validate:"provider_kind"`
	APIKey        string            `toml:"api_key"`
	SavedLocation *weather.Location `toml:"saved_location,omitempty"`
}

type config struct {
	ActiveProvider *weather.Kind  `toml:"active_provider,omitempty" validate:"omitempty,provider_kind"`
	Providers      []providerData `toml:"providers" validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("provider_kind", func(fl validator.FieldLevel) bool {
		return weather.Kind(fl.Field().String()).Valid()
	})
	return v
}

// Storage is the in-memory view of the config file and its only mutator.
// Mutations set a dirty flag; Store writes only when it is set.
// Storage is not safe for concurrent use.
type Storage struct {
	backend Backend
	config  config
	dirty   bool
	logger  *slog.Logger
}

// Load reads the config from backend. A backend with nothing stored yields an
// empty config; anything unreadable is an error.
func Load(backend Backend, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{backend: backend, logger: logger}

	data, err := backend.Read()
	if errors.Is(err, ErrNotFound) {
		logger.Debug("no stored config, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	s.config = cfg
	return s, nil
}

func decode(data []byte) (config, error) {
	var cfg config
	// Unknown keys are ignored so newer files stay readable.
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return config{}, fmt.Errorf("%w: %v", ErrCorruptConfig, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return config{}, fmt.Errorf("%w: %v", ErrCorruptConfig, err)
	}

	seen := make(map[weather.Kind]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if seen[p.Kind] {
			return config{}, fmt.Errorf("%w: provider %s listed more than once", ErrCorruptConfig, p.Kind)
		}
		seen[p.Kind] = true
	}
	if cfg.ActiveProvider != nil && !seen[*cfg.ActiveProvider] {
		return config{}, fmt.Errorf("%w: active provider %s is not configured", ErrCorruptConfig, *cfg.ActiveProvider)
	}
	return cfg, nil
}

func encode(cfg config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Storage) find(kind weather.Kind) *providerData {
	for i := range s.config.Providers {
		if s.config.Providers[i].Kind == kind {
			return &s.config.Providers[i]
		}
	}
	return nil
}

func (s *Storage) mustFind(kind weather.Kind) *providerData {
	p := s.find(kind)
	if p == nil {
		panic(fmt.Sprintf("store: provider %s is not configured", kind))
	}
	return p
}

func (s *Storage) IsProviderConfigured(kind weather.Kind) bool {
	return s.find(kind) != nil
}

// ConfigureProvider sets the API key for kind, adding it if needed, and marks
// it active.
func (s *Storage) ConfigureProvider(kind weather.Kind, apiKey string) {
	if p := s.find(kind); p != nil {
		p.APIKey = apiKey
		s.logger.Debug("reconfigured provider", "provider", kind)
	} else {
		s.config.Providers = append(s.config.Providers, providerData{Kind: kind, APIKey: apiKey})
		s.logger.Debug("configured provider", "provider", kind)
	}
	s.dirty = true
	s.MarkProviderActive(kind)
}

// MarkProviderActive makes kind the active provider. It is a no-op, and leaves
// the dirty flag alone, when kind is already active. The caller must have
// checked that kind is configured.
func (s *Storage) MarkProviderActive(kind weather.Kind) {
	if s.config.ActiveProvider != nil && *s.config.ActiveProvider == kind {
		return
	}
	k := kind
	s.config.ActiveProvider = &k
	s.dirty = true
	s.logger.Debug("marked provider active", "provider", kind)
}

func (s *Storage) ActiveProvider() (weather.Kind, bool) {
	if s.config.ActiveProvider == nil {
		return "", false
	}
	return *s.config.ActiveProvider, true
}

// APIKey returns the key for kind. It panics if kind is not configured.
func (s *Storage) APIKey(kind weather.Kind) string {
	return s.mustFind(kind).APIKey
}

// SaveLocation caches loc for kind. It panics if kind is not configured.
func (s *Storage) SaveLocation(kind weather.Kind, loc weather.Location) {
	p := s.mustFind(kind)
	l := loc
	p.SavedLocation = &l
	s.dirty = true
	s.logger.Debug("saved location", "provider", kind, "location", loc.String())
}

func (s *Storage) SavedLocation(kind weather.Kind) (weather.Location, bool) {
	p := s.find(kind)
	if p == nil || p.SavedLocation == nil {
		return weather.Location{}, false
	}
	return *p.SavedLocation, true
}

// ConfiguredProviders returns configured kinds in insertion order.
func (s *Storage) ConfiguredProviders() []weather.Kind {
	out := make([]weather.Kind, 0, len(s.config.Providers))
	for _, p := range s.config.Providers {
		out = append(out, p.Kind)
	}
	return out
}

// Dirty reports whether there are unsaved mutations.
func (s *Storage) Dirty() bool {
	return s.dirty
}

// Store writes the config back if it was mutated since load or the last Store.
func (s *Storage) Store() error {
	if !s.dirty {
		return nil
	}
	data, err := encode(s.config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := s.backend.Write(data); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	s.dirty = false
	s.logger.Debug("stored config")
	return nil
}

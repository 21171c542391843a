package weather

import (
	"fmt"
	"strings"

	"github.com/i474232898/weather-cli/internal/common"
)

// Kind identifies one of the supported weather providers.
// The string value is what gets persisted in the config file.
type Kind string

const (
	KindOpenWeather Kind = "OpenWeather"
	KindWeatherAPI  Kind = "WeatherApi"
	KindAccuWeather Kind = "AccuWeather"
)

var kinds = []Kind{KindOpenWeather, KindWeatherAPI, KindAccuWeather}

// Kinds returns every supported provider kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Slug returns the command-line form of the kind, e.g. "open-weather".
func (k Kind) Slug() string {
	switch k {
	case KindOpenWeather:
		return "open-weather"
	case KindWeatherAPI:
		return "weather-api"
	case KindAccuWeather:
		return "accu-weather"
	default:
		return strings.ToLower(string(k))
	}
}

// ParseKind accepts either the canonical name or the slug, case-insensitively.
func ParseKind(s string) (Kind, error) {
	norm := normalizeKind(s)
	for _, k := range kinds {
		if norm == normalizeKind(string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

func normalizeKind(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}

// Location represents a resolved place. Providers keying weather lookups by id
// set ID; providers keying by coordinates set Lat/Lon.
type Location struct {
	ID      *string  `json:"id,omitempty" toml:"id,omitempty"`
	Name    string   `json:"name" toml:"name"`
	State   *string  `json:"state,omitempty" toml:"state,omitempty"`
	Country string   `json:"country" toml:"country"`
	Lat     *float64 `json:"lat,omitempty" toml:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty" toml:"lon,omitempty"`
}

// Coordinates returns the latitude and longitude when both are set.
func (l Location) Coordinates() (lat, lon float64, ok bool) {
	if l.Lat == nil || l.Lon == nil {
		return 0, 0, false
	}
	return *l.Lat, *l.Lon, true
}

// String renders the location as "Name, State, Country".
func (l Location) String() string {
	parts := []string{l.Name}
	if state := common.Deref(l.State); state != "" {
		parts = append(parts, state)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ", ")
}

// Temperature is a thermodynamic temperature stored in kelvin.
type Temperature float64

const celsiusOffset = 273.15

func FromKelvin(k float64) Temperature { return Temperature(k) }

func FromCelsius(c float64) Temperature { return Temperature(c + celsiusOffset) }

func (t Temperature) Kelvin() float64 { return float64(t) }

func (t Temperature) Celsius() float64 { return float64(t) - celsiusOffset }

// String formats the temperature in whole degrees Celsius.
func (t Temperature) String() string {
	return fmt.Sprintf("%.0f°C", t.Celsius())
}

// Weather is the normalized current conditions for a location.
type Weather struct {
	Temperature Temperature `json:"temperature"`
	Description string      `json:"description"`
}

// Condition derives a coarse condition from the free-text description.
func (w Weather) Condition() Condition {
	return ClassifyDescription(w.Description)
}

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionWind    Condition = "wind"
	ConditionMist    Condition = "mist"
)

// ClassifyDescription maps provider free text ("Partly cloudy", "Clouds",
// "Light rain shower") onto a Condition. Order matters: "thunderstorm with rain"
// is a storm, "sunny intervals" after clouds is still cloudy.
func ClassifyDescription(desc string) Condition {
	d := strings.ToLower(desc)
	switch {
	case d == "":
		return ConditionUnknown
	case common.HasAny(d, "thunder", "storm"):
		return ConditionStorm
	case common.HasAny(d, "snow", "sleet", "blizzard", "ice"):
		return ConditionSnow
	case common.HasAny(d, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.HasAny(d, "mist", "fog", "haze", "smoke"):
		return ConditionMist
	case common.HasAny(d, "cloud", "overcast"):
		return ConditionCloudy
	case common.HasAny(d, "wind", "breez"):
		return ConditionWind
	case common.HasAny(d, "clear", "sun"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

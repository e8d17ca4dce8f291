package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*WeatherOptions)(nil)

// WeatherOptions configures the OpenWeatherMap proxy.
type WeatherOptions struct {
	// APIKey is kept server side. Without it the weather routes answer 500.
	APIKey  string        `json:"api-key" mapstructure:"api-key"`
	BaseURL string        `json:"base-url" mapstructure:"base-url"`
	Lang    string        `json:"lang" mapstructure:"lang"`
	Units   string        `json:"units" mapstructure:"units"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewWeatherOptions() *WeatherOptions {
	return &WeatherOptions{
		BaseURL: "https://api.openweathermap.org/data/2.5",
		Lang:    "pt_br",
		Units:   "metric",
		Timeout: 10 * time.Second,
	}
}

func (o *WeatherOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Errorf("--weather.base-url must be an absolute URL, got %q", o.BaseURL))
	}
	if o.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("--weather.timeout must be positive"))
	}

	return errors
}

func (o *WeatherOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.APIKey, "weather.api-key", o.APIKey, "OpenWeatherMap API key.")
	fs.StringVar(&o.BaseURL, "weather.base-url", o.BaseURL, "OpenWeatherMap API base URL.")
	fs.StringVar(&o.Lang, "weather.lang", o.Lang, "Language of weather descriptions.")
	fs.StringVar(&o.Units, "weather.units", o.Units, "Unit system for weather data.")
	fs.DurationVar(&o.Timeout, "weather.timeout", o.Timeout, "Timeout for upstream weather requests.")
}

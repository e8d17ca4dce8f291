package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/garage/internal/pkg/metrics"
	"github.com/autopeer-io/garage/pkg/log"
	"github.com/autopeer-io/garage/pkg/options"
)

const (
	endpointCurrent  = "weather"
	endpointForecast = "forecast"
)

// Error is a failure that carries the HTTP status the proxy should answer with.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrMissingQuery  = &Error{Status: http.StatusBadRequest, Message: "City or coordinates (lat, lon) are required."}
	ErrNoAPIKey      = &Error{Status: http.StatusInternalServerError, Message: "Weather API key is not configured on the server."}
	ErrEmptyForecast = &Error{Status: http.StatusBadGateway, Message: "Weather provider returned no forecast data."}
)

// StatusOf returns the status carried by err, or 500.
func StatusOf(err error) int {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Status
	}
	return http.StatusInternalServerError
}

// Query selects a location either by city name or by coordinates.
type Query struct {
	City string
	Lat  string
	Lon  string
}

func (q Query) values() (url.Values, error) {
	v := url.Values{}
	switch {
	case strings.TrimSpace(q.City) != "":
		v.Set("q", strings.TrimSpace(q.City))
	case q.Lat != "" && q.Lon != "":
		v.Set("lat", q.Lat)
		v.Set("lon", q.Lon)
	default:
		return nil, ErrMissingQuery
	}
	return v, nil
}

// Report bundles the raw upstream payloads with a driving tip.
type Report struct {
	Current  json.RawMessage `json:"current"`
	Forecast json.RawMessage `json:"forecast"`
	Tip      string          `json:"tip,omitempty"`
}

// Client proxies the OpenWeatherMap current and forecast endpoints. The
// API key never leaves the server.
type Client struct {
	baseURL string
	apiKey  string
	lang    string
	units   string
	http    *http.Client
	clock   clock.PassiveClock
	logger  log.Logger
}

// New creates a Client from opts.
func New(opts *options.WeatherOptions) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		lang:    opts.Lang,
		units:   opts.Units,
		http:    &http.Client{Timeout: opts.Timeout},
		clock:   clock.RealClock{},
		logger:  log.WithName("weather"),
	}
}

// Lookup fetches current conditions and the 5 day forecast in parallel.
func (c *Client) Lookup(ctx context.Context, q Query) (*Report, error) {
	if _, err := q.values(); err != nil {
		return nil, err
	}

	var current, forecast json.RawMessage
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		current, err = c.get(ctx, endpointCurrent, q)
		return err
	})
	eg.Go(func() error {
		var err error
		forecast, err = c.get(ctx, endpointForecast, q)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Current: current, Forecast: forecast}
	var cond Conditions
	if err := json.Unmarshal(current, &cond); err == nil {
		report.Tip = cond.Tip(c.clock.Now().Hour())
	}
	return report, nil
}

// Daily fetches the forecast and summarizes it per day.
func (c *Client) Daily(ctx context.Context, q Query) ([]DailySummary, error) {
	raw, err := c.get(ctx, endpointForecast, q)
	if err != nil {
		return nil, err
	}

	var f Forecast
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, &Error{Status: http.StatusBadGateway, Message: "Malformed forecast from weather provider.", Err: err}
	}
	days := Summarize(f)
	if len(days) == 0 {
		return nil, ErrEmptyForecast
	}
	return days, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q Query) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params, err := q.values()
	if err != nil {
		return nil, err
	}
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)
	params.Set("lang", c.lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Message: "Failed to build weather request.", Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.WeatherRequestSeconds.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		c.logger.Error(err, "Weather provider unreachable", "endpoint", endpoint)
		return nil, &Error{Status: http.StatusBadGateway, Message: "Failed to reach the weather provider.", Err: err}
	}
	defer resp.Body.Close()
	metrics.WeatherRequestSeconds.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: http.StatusBadGateway, Message: "Failed to read weather response.", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var upstream struct {
			Message string `json:"message"`
		}
		msg := fmt.Sprintf("Error %d fetching weather data.", resp.StatusCode)
		if json.Unmarshal(body, &upstream) == nil && upstream.Message != "" {
			msg = upstream.Message
		}
		c.logger.Warn("Weather provider returned an error", "endpoint", endpoint, "status", resp.StatusCode, "message", msg)
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}
	return json.RawMessage(body), nil
}

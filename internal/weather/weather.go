// Package weather provides the geocoding and weather lookup tools.
//
// Both tools degrade gracefully without API keys: geocoding returns a
// fixed London-area coordinate and the weather lookup returns a fixed
// sunny report. This keeps the agent fully testable offline.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/scoutagent/scout/internal/httpkit"
)

// Default API endpoints. Overridable for tests.
const (
	defaultGeocodeURL = "https://geocode.maps.co/search"
	defaultWeatherURL = "https://api.tomorrow.io/v4/weather/realtime"
)

// LatLng is a geographic coordinate. The upstream geocoder returns
// stringified numerics; json.Number preserves them without loss.
type LatLng struct {
	Lat json.Number `json:"lat"`
	Lng json.Number `json:"lng"`
}

// Report is a current-conditions summary, pre-formatted for the model.
type Report struct {
	Temperature string `json:"temperature"`
	Description string `json:"description"`
}

// Client calls the geocoding and weather providers.
type Client struct {
	geoAPIKey     string
	weatherAPIKey string
	geocodeURL    string
	weatherURL    string
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithGeocodeURL overrides the geocoding endpoint (tests).
func WithGeocodeURL(u string) Option {
	return func(c *Client) { c.geocodeURL = u }
}

// WithWeatherURL overrides the weather endpoint (tests).
func WithWeatherURL(u string) Option {
	return func(c *Client) { c.weatherURL = u }
}

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a weather client. Either key may be empty; the affected
// lookup then returns its fixed no-key fallback.
func New(geoAPIKey, weatherAPIKey string, opts ...Option) *Client {
	c := &Client{
		geoAPIKey:     geoAPIKey,
		weatherAPIKey: weatherAPIKey,
		geocodeURL:    defaultGeocodeURL,
		weatherURL:    defaultWeatherURL,
		httpClient:    httpkit.NewClient(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ErrNoLocation is the retry hint raised when the geocoder finds no
// match for the description. The model sees this and may rephrase.
const ErrNoLocation = "Could not find the location"

// Geocode resolves a free-text location description to a coordinate.
// Without an API key it returns a fixed fallback regardless of input.
// An empty upstream result is a retryable condition, not an error.
func (c *Client) Geocode(ctx context.Context, locationDescription string) (LatLng, error) {
	if c.geoAPIKey == "" {
		return LatLng{Lat: "51.1", Lng: "-0.1"}, nil
	}

	params := url.Values{
		"q":       {locationDescription},
		"api_key": {c.geoAPIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return LatLng{}, fmt.Errorf("geocode: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LatLng{}, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return LatLng{}, fmt.Errorf("geocode: HTTP %d: %s", resp.StatusCode, body)
	}

	var results []struct {
		Lat json.Number `json:"lat"`
		Lon json.Number `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return LatLng{}, fmt.Errorf("geocode: decode response: %w", err)
	}

	if len(results) == 0 {
		return LatLng{}, retryNoLocation()
	}

	return LatLng{Lat: results[0].Lat, Lng: results[0].Lon}, nil
}

// Current fetches current conditions for a coordinate. Without an API
// key it returns a fixed sunny report.
func (c *Client) Current(ctx context.Context, lat, lng float64) (Report, error) {
	if c.weatherAPIKey == "" {
		return Report{Temperature: "21 °C", Description: "Sunny"}, nil
	}

	params := url.Values{
		"apikey":   {c.weatherAPIKey},
		"location": {fmt.Sprintf("%v,%v", lat, lng)},
		"units":    {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.weatherURL+"?"+params.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return Report{}, fmt.Errorf("weather: HTTP %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Data struct {
			Values struct {
				TemperatureApparent float64 `json:"temperatureApparent"`
				WeatherCode         int     `json:"weatherCode"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Report{}, fmt.Errorf("weather: decode response: %w", err)
	}

	return Report{
		Temperature: fmt.Sprintf("%.0f°C", payload.Data.Values.TemperatureApparent),
		Description: DescribeCode(payload.Data.Values.WeatherCode),
	}, nil
}

// codeLookup maps tomorrow.io weather codes to descriptions.
// https://docs.tomorrow.io/reference/data-layers-weather-codes
var codeLookup = map[int]string{
	1000: "Clear, Sunny",
	1100: "Mostly Clear",
	1101: "Partly Cloudy",
	1102: "Mostly Cloudy",
	1001: "Cloudy",
	2000: "Fog",
	2100: "Light Fog",
	4000: "Drizzle",
	4001: "Rain",
	4200: "Light Rain",
	4201: "Heavy Rain",
	5000: "Snow",
	5001: "Flurries",
	5100: "Light Snow",
	5101: "Heavy Snow",
	6000: "Freezing Drizzle",
	6001: "Freezing Rain",
	6200: "Light Freezing Rain",
	6201: "Heavy Freezing Rain",
	7000: "Ice Pellets",
	7101: "Heavy Ice Pellets",
	7102: "Light Ice Pellets",
	8000: "Thunderstorm",
}

// DescribeCode translates a weather code to its description.
// Unmapped codes yield "Unknown" rather than an error.
func DescribeCode(code int) string {
	if desc, ok := codeLookup[code]; ok {
		return desc
	}
	return "Unknown"
}

package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const weatherTimeout = 10 * time.Second

var weatherTrigger = regexp.MustCompile(`(?i)\bweather\b(?:\s+(?:in|for|at)\s+(.+?))?\s*\??\s*$`)

// WeatherPlugin answers "weather in <city>" questions against an
// Open-Meteo-compatible endpoint. The city is first resolved to
// coordinates through the geocoding API.
type WeatherPlugin struct {
	forecastURL string
	geocodeURL  string
	client      *http.Client
}

// NewWeatherPlugin creates a WeatherPlugin against forecastURL. An empty
// geocodeURL uses the public Open-Meteo geocoder.
func NewWeatherPlugin(forecastURL, geocodeURL string) *WeatherPlugin {
	if geocodeURL == "" {
		geocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	return &WeatherPlugin{
		forecastURL: forecastURL,
		geocodeURL:  geocodeURL,
		client:      &http.Client{Timeout: weatherTimeout},
	}
}

func (p *WeatherPlugin) Name() string        { return "weather" }
func (p *WeatherPlugin) Description() string { return "Reports current weather for a city" }

// Match claims inputs mentioning weather with a named place.
func (p *WeatherPlugin) Match(input string) (string, bool) {
	m := weatherTrigger.FindStringSubmatch(input)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Run geocodes the city and fetches the current conditions.
func (p *WeatherPlugin) Run(ctx context.Context, city string) (string, error) {
	lat, lon, name, err := p.geocode(ctx, city)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current_weather", "true")

	var payload struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
		} `json:"current_weather"`
	}
	if err := p.getJSON(ctx, p.forecastURL+"?"+q.Encode(), &payload); err != nil {
		return "", fmt.Errorf("fetching forecast for %s: %w", name, err)
	}

	return fmt.Sprintf("Current weather in %s: %.1f°C, wind %.1f km/h",
		name, payload.CurrentWeather.Temperature, payload.CurrentWeather.WindSpeed), nil
}

func (p *WeatherPlugin) geocode(ctx context.Context, city string) (lat, lon float64, name string, err error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := p.getJSON(ctx, p.geocodeURL+"?"+q.Encode(), &payload); err != nil {
		return 0, 0, "", fmt.Errorf("geocoding %q: %w", city, err)
	}
	if len(payload.Results) == 0 {
		return 0, 0, "", fmt.Errorf("unknown place %q", city)
	}
	r := payload.Results[0]
	return r.Latitude, r.Longitude, r.Name, nil
}

func (p *WeatherPlugin) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

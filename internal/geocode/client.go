package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/metrics"
)

// Client resolves coordinates to place names through the OpenCage
// geocoding API. Lookups are best-effort; callers are expected to treat
// failures as a missing place, never as a request failure.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a client from environment configuration.
func NewClient() *Client {
	baseURL := getEnvOrDefault("OPENCAGE_URL", "https://api.opencagedata.com/geocode/v1/json")
	apiKey := os.Getenv("OPENCAGE_API_KEY")

	timeoutStr := getEnvOrDefault("OPENCAGE_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 10 * time.Second
	}

	log.Info().
		Str("base_url", baseURL).
		Dur("timeout", timeout).
		Bool("api_key_set", apiKey != "").
		Msg("Geocoding client initialized")

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// openCageResponse is the subset of the OpenCage payload we read.
type openCageResponse struct {
	Results []struct {
		Formatted string `json:"formatted"`
	} `json:"results"`
}

// ReverseGeocode resolves (lat, long) to a formatted place name. An empty
// string with nil error means the service had no name for the location.
func (c *Client) ReverseGeocode(ctx context.Context, lat, long float64) (string, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%f+%f", lat, long))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	fetchStart := time.Now()
	resp, err := c.httpClient.Do(req)
	fetchDuration := time.Since(fetchStart)

	if err != nil {
		metrics.RecordGeocodeLookup("error")
		metrics.RecordGeocodeDuration(fetchDuration)
		return "", fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordGeocodeLookup("error")
		metrics.RecordGeocodeDuration(fetchDuration)
		return "", fmt.Errorf("geocoding API returned status %d", resp.StatusCode)
	}

	metrics.RecordGeocodeLookup("success")
	metrics.RecordGeocodeDuration(fetchDuration)

	var payload openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if len(payload.Results) == 0 {
		return "", nil
	}
	return payload.Results[0].Formatted, nil
}

// Helper function to get environment variable with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

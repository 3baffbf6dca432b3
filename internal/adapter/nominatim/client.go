// Package nominatim implements domain.Geocoder against a Nominatim search
// endpoint. The public instance allows roughly one request per second, so the
// client serializes requests and enforces a minimum delay between them.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

const resultLimit = 5

// Client implements domain.Geocoder using the Nominatim search API.
type Client struct {
	baseURL    string
	userAgent  string
	minDelay   time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a Nominatim geocoding client. userAgent is mandatory for
// the public instance's usage policy.
func NewClient(baseURL, userAgent string, timeout, minDelay time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		minDelay:   minDelay,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Search geocodes a free-text query into ranked candidates. With usOnly set
// the search is restricted to United States results.
func (c *Client) Search(ctx context.Context, query string, usOnly bool) ([]domain.GeocodeCandidate, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {strconv.Itoa(resultLimit)},
		"addressdetails": {"1"},
	}
	if usOnly {
		params.Set("countrycodes", "us")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]domain.GeocodeCandidate, 0, len(places))
	for _, p := range places {
		lat, err1 := strconv.ParseFloat(p.Lat, 64)
		lon, err2 := strconv.ParseFloat(p.Lon, 64)
		if err1 != nil || err2 != nil || !domain.ValidLatLon(lat, lon) {
			c.logger.Debug("nominatim place with bad coordinates", "lat", p.Lat, "lon", p.Lon)
			continue
		}
		candidates = append(candidates, domain.GeocodeCandidate{
			Lat:         lat,
			Lon:         lon,
			Importance:  p.Importance,
			DisplayName: p.DisplayName,
			Country:     p.Address.Country,
			State:       p.Address.State,
			CountryCode: p.Address.CountryCode,
		})
	}
	return candidates, nil
}

// throttle blocks until minDelay has passed since the previous request.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.lastCall.Add(c.minDelay).Sub(now)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Nominatim API response types.

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Importance  float64 `json:"importance"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
}

type address struct {
	Country     string `json:"country"`
	State       string `json:"state"`
	CountryCode string `json:"country_code"`
}

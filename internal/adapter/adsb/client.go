// Package adsb implements the fleet flight feed against an adsb.lol style
// ADS-B aggregator API.
package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

// GroundAltitudeFt is the barometric altitude below which a report with no
// explicit ground flag is still treated as grounded. Transponders sometimes
// keep reporting a small residual altitude after landing.
const GroundAltitudeFt = 300.0

// Client implements domain.FlightFeed by querying one aggregator endpoint
// per fleet airframe.
type Client struct {
	baseURL    string
	fleet      map[string]string // callsign -> ICAO hex
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a flight feed client for the given fleet.
func NewClient(baseURL string, fleet map[string]string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		fleet:      fleet,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Latest returns the freshest positioned snapshot across the fleet, or nil
// when no airframe is currently visible. Per-airframe fetch errors are logged
// and skipped so one dead endpoint cannot blind the whole feed.
func (c *Client) Latest(ctx context.Context) (*domain.FlightState, error) {
	callsigns := make([]string, 0, len(c.fleet))
	for cs := range c.fleet {
		callsigns = append(callsigns, cs)
	}
	sort.Strings(callsigns)

	var best *domain.FlightState
	var lastErr error
	seen := make(map[string]bool)
	for _, cs := range callsigns {
		icao := c.fleet[cs]
		if seen[icao] {
			continue
		}
		seen[icao] = true

		state, err := c.fetchAircraft(ctx, cs, icao)
		if err != nil {
			c.logger.Warn("flight feed fetch failed", "callsign", cs, "icao", icao, "error", err)
			lastErr = err
			continue
		}
		if state == nil {
			continue
		}
		if best == nil || state.Timestamp.After(best.Timestamp) {
			best = state
		}
	}

	if best == nil && lastErr != nil {
		return nil, fmt.Errorf("flight feed: %w", lastErr)
	}
	return best, nil
}

func (c *Client) fetchAircraft(ctx context.Context, callsign, icao string) (*domain.FlightState, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, strings.ToLower(icao))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aircraft request: %w", err)
	}
	defer resp.Body.Close()

	// A 404 means the airframe is not currently visible to the aggregator,
	// which is the normal state most of the day.
	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("airframe not visible", "callsign", callsign, "icao", icao)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("aggregator API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	now := domain.Now()
	var best *domain.FlightState
	for _, ac := range payload.Aircraft {
		if ac.Lat == 0 && ac.Lon == 0 {
			continue
		}
		if !domain.ValidLatLon(ac.Lat, ac.Lon) {
			continue
		}

		onGround := ac.AltBaro.ground || (ac.AltBaro.present && ac.AltBaro.ft < GroundAltitudeFt)
		status := domain.FlightAirborne
		if onGround {
			status = domain.FlightGrounded
		}

		state := &domain.FlightState{
			Callsign:   firstNonEmpty(strings.TrimSpace(ac.Flight), callsign),
			Lat:        ac.Lat,
			Lon:        ac.Lon,
			AltitudeFt: ac.AltBaro.ft,
			OnGround:   onGround,
			Timestamp:  now.Add(-time.Duration(ac.SeenPos * float64(time.Second))),
			Status:     status,
			TrackerURL: "https://globe.adsbexchange.com/?icao=" + strings.ToLower(icao),
		}
		if best == nil || state.Timestamp.After(best.Timestamp) {
			best = state
		}
	}
	return best, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Aggregator API response types.

type response struct {
	Aircraft []aircraft `json:"ac"`
}

type aircraft struct {
	Hex     string   `json:"hex"`
	Flight  string   `json:"flight"`
	AltBaro altitude `json:"alt_baro"`
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	SeenPos float64  `json:"seen_pos"`
}

// altitude handles the aggregator's polymorphic alt_baro field: a number in
// feet when airborne, the literal string "ground" when on the ground.
type altitude struct {
	ft      float64
	ground  bool
	present bool
}

func (a *altitude) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if string(b) == `"ground"` {
		a.ground = true
		a.present = true
		return nil
	}
	if err := json.Unmarshal(b, &a.ft); err != nil {
		return fmt.Errorf("alt_baro: %w", err)
	}
	a.present = true
	return nil
}

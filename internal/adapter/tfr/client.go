// Package tfr implements the airspace restriction feed against the FAA TFR
// export API.
package tfr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

// Client implements domain.TFRFeed.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a TFR feed client.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Restrictions fetches the current notice list. Coordinates are extracted
// from the free-text description when present; records with malformed dates
// are dropped.
func (c *Client) Restrictions(ctx context.Context) ([]domain.TFRRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tfr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tfr API error: status %d: %s", resp.StatusCode, body)
	}

	var notices []notice
	if err := json.NewDecoder(resp.Body).Decode(&notices); err != nil {
		return nil, fmt.Errorf("decode tfr list: %w", err)
	}

	records := make([]domain.TFRRecord, 0, len(notices))
	for _, n := range notices {
		from, err := time.Parse(time.RFC3339, n.DateEffective)
		if err != nil {
			c.logger.Debug("tfr with unparseable effective date", "notam", n.NotamID, "error", err)
			continue
		}
		to, err := time.Parse(time.RFC3339, n.DateExpire)
		if err != nil {
			c.logger.Debug("tfr with unparseable expire date", "notam", n.NotamID, "error", err)
			continue
		}

		rec := domain.TFRRecord{
			ValidFrom:   from.UTC(),
			ValidTo:     to.UTC(),
			Category:    n.Type,
			Description: n.Description,
		}
		if lat, lon, ok := domain.ParseTFRCoordinates(n.Description); ok {
			rec.Lat, rec.Lon = &lat, &lon
		}
		records = append(records, rec)
	}
	return records, nil
}

type notice struct {
	NotamID       string `json:"notam_id"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	DateEffective string `json:"date_effective"`
	DateExpire    string `json:"date_expire"`
}

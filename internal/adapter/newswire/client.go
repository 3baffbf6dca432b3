// Package newswire implements the pool-report wire feed. Reports carry a
// dateline naming the city they were filed from, which places the subject
// with low but non-zero confidence.
package newswire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

const (
	narrowWindow = 24 * time.Hour
	wideWindow   = 7 * 24 * time.Hour
)

// Client implements domain.NewsFeed. Datelines are resolved to coordinates
// through the alias table; items whose dateline resolves nowhere are skipped.
type Client struct {
	url        string
	aliases    domain.AliasTable
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a news feed client.
func NewClient(url string, aliases domain.AliasTable, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		aliases:    aliases,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// LatestDateline returns the most recent resolvable dateline. It queries the
// past 24 hours first and widens to 7 days when the narrow query fails or
// comes back empty. Returns nil when nothing resolves.
func (c *Client) LatestDateline(ctx context.Context) (*domain.NewsLocation, error) {
	loc, err := c.query(ctx, narrowWindow)
	if err != nil {
		c.logger.Warn("narrow newswire query failed, widening", "error", err)
		return c.query(ctx, wideWindow)
	}
	if loc == nil {
		return c.query(ctx, wideWindow)
	}
	return loc, nil
}

func (c *Client) query(ctx context.Context, window time.Duration) (*domain.NewsLocation, error) {
	since := domain.Now().Add(-window)

	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newswire request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("newswire API error: status %d: %s", resp.StatusCode, body)
	}

	var items []item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode newswire: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Published.After(items[j].Published) })
	for _, it := range items {
		if it.Published.Before(since) || it.Dateline == "" {
			continue
		}
		alias, ok := c.aliases.Resolve(it.Dateline)
		if !ok {
			c.logger.Debug("unresolvable dateline", "dateline", it.Dateline)
			continue
		}
		return &domain.NewsLocation{Lat: alias.Lat, Lon: alias.Lon, Name: alias.Name}, nil
	}
	return nil, nil
}

type item struct {
	Published time.Time `json:"published"`
	Dateline  string    `json:"dateline"`
	Title     string    `json:"title"`
}

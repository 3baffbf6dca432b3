// Package schedule implements the public daily schedule feed.
package schedule

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

// Client implements domain.ScheduleFeed against the published calendar JSON.
type Client struct {
	url        string
	tz         *time.Location
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a schedule feed client. Feed timestamps are local to tz.
func NewClient(url string, tz *time.Location, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		tz:         tz,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Events fetches and normalizes the schedule, newest first. Entries without a
// parseable date are dropped, as are "no public events" stub entries; entries
// without a time are pinned to local midnight so day-only items still
// participate in windowing.
func (c *Client) Events(ctx context.Context) ([]domain.ScheduleEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("schedule API error: status %d: %s", resp.StatusCode, body)
	}

	var entries []entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}

	events := make([]domain.ScheduleEvent, 0, len(entries))
	for _, e := range entries {
		if isStub(e) {
			continue
		}
		start, ok := c.parseStart(e)
		if !ok {
			continue
		}
		events = append(events, domain.ScheduleEvent{
			StartUTC: start,
			Summary:  e.Details,
			Location: e.Location,
		})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartUTC.After(events[j].StartUTC) })
	return events, nil
}

func (c *Client) parseStart(e entry) (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	clock := e.Time
	if clock == "" {
		clock = "00:00:00"
	}
	start, err := time.ParseInLocation("2006-01-02 15:04:05", e.Date+" "+clock, c.tz)
	if err != nil {
		c.logger.Debug("unparseable schedule entry", "date", e.Date, "time", e.Time, "error", err)
		return time.Time{}, false
	}
	return start.UTC(), true
}

// isStub filters placeholder entries published on days with nothing on the
// public schedule.
func isStub(e entry) bool {
	return strings.Contains(strings.ToLower(e.Details), "no public events")
}

type entry struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Details  string `json:"details"`
	Location string `json:"location"`
}

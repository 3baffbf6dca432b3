// Command resolve runs one resolution cycle against the live feeds and prints
// the winning candidate with the full cascade trace as JSON. Useful for
// checking feed health and cascade behavior without starting the service.
//
// Usage:
//
//	go run ./cmd/resolve | jq .
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/adapter/adsb"
	"github.com/couchcryptid/subject-tracker/internal/adapter/newswire"
	"github.com/couchcryptid/subject-tracker/internal/adapter/nominatim"
	"github.com/couchcryptid/subject-tracker/internal/adapter/schedule"
	"github.com/couchcryptid/subject-tracker/internal/adapter/tfr"
	"github.com/couchcryptid/subject-tracker/internal/config"
	"github.com/couchcryptid/subject-tracker/internal/domain"
	"github.com/couchcryptid/subject-tracker/internal/observability"
	"github.com/couchcryptid/subject-tracker/internal/resolver"
)

const feedTimeout = 10 * time.Second

func main() {
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline")
	flag.Parse()

	if err := run(*timeout); err != nil {
		slog.Error("resolve failed", "error", err)
		os.Exit(1)
	}
}

func run(timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays clean JSON.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()

	aliases, err := domain.DefaultAliases()
	if err != nil {
		return err
	}
	if cfg.AliasPath != "" {
		if aliases, err = domain.LoadAliases(cfg.AliasPath); err != nil {
			return err
		}
	}
	tz, err := time.LoadLocation(cfg.HomeTimezone)
	if err != nil {
		return err
	}

	var geocoder domain.Geocoder
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, cfg.GeocoderMinDelay, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize, metrics)
	}

	var news domain.NewsFeed
	if cfg.NewswireFeedURL != "" {
		news = newswire.NewClient(cfg.NewswireFeedURL, aliases, feedTimeout, logger)
	}

	res := resolver.New(resolver.Options{
		Flights:  adsb.NewClient(cfg.FlightFeedURL, cfg.Fleet, feedTimeout, logger),
		Schedule: schedule.NewClient(cfg.ScheduleFeedURL, tz, feedTimeout, logger),
		TFRs:     tfr.NewClient(cfg.TFRFeedURL, feedTimeout, logger),
		News:     news,
		Geocoder: geocoder,
		Aliases:  aliases,
		Timezone: tz,
		Logger:   logger,
		Metrics:  metrics,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	location, trace := res.ResolveWithTrace(ctx, false)
	out := struct {
		Location domain.CandidateLocation `json:"location"`
		Trace    []resolver.TraceStep     `json:"trace"`
	}{location, trace}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

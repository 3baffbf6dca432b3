package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/adapter/adsb"
	"github.com/couchcryptid/subject-tracker/internal/adapter/arrivalstore"
	"github.com/couchcryptid/subject-tracker/internal/adapter/feedcache"
	httpadapter "github.com/couchcryptid/subject-tracker/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/subject-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/subject-tracker/internal/adapter/newswire"
	"github.com/couchcryptid/subject-tracker/internal/adapter/nominatim"
	"github.com/couchcryptid/subject-tracker/internal/adapter/schedule"
	"github.com/couchcryptid/subject-tracker/internal/adapter/tfr"
	"github.com/couchcryptid/subject-tracker/internal/config"
	"github.com/couchcryptid/subject-tracker/internal/domain"
	"github.com/couchcryptid/subject-tracker/internal/geolog"
	"github.com/couchcryptid/subject-tracker/internal/observability"
	"github.com/couchcryptid/subject-tracker/internal/resolver"
)

// feedTimeout bounds every upstream HTTP call.
const feedTimeout = 10 * time.Second

const geocodeLogRetention = 500

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	aliases, err := loadAliases(cfg)
	if err != nil {
		logger.Error("failed to load alias table", "error", err)
		os.Exit(1)
	}
	tz, err := time.LoadLocation(cfg.HomeTimezone)
	if err != nil {
		logger.Error("invalid home timezone", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data dir", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	// Feed adapters, each behind its own last-value TTL cache.
	flightClient := adsb.NewClient(cfg.FlightFeedURL, cfg.Fleet, feedTimeout, logger)
	scheduleClient := schedule.NewClient(cfg.ScheduleFeedURL, tz, feedTimeout, logger)
	tfrClient := tfr.NewClient(cfg.TFRFeedURL, feedTimeout, logger)

	flightCache := feedcache.New(cfg.FlightCacheTTL, flightClient.Latest)
	scheduleCache := feedcache.New(cfg.ScheduleCacheTTL, scheduleClient.Events)
	tfrCache := feedcache.New(cfg.TFRCacheTTL, tfrClient.Restrictions)

	invalidate := func() {
		flightCache.Invalidate()
		scheduleCache.Invalidate()
		tfrCache.Invalidate()
	}

	var news domain.NewsFeed
	if cfg.NewswireFeedURL != "" {
		newsClient := newswire.NewClient(cfg.NewswireFeedURL, aliases, feedTimeout, logger)
		newsCache := feedcache.New(cfg.NewsCacheTTL, newsClient.LatestDateline)
		prevInvalidate := invalidate
		invalidate = func() {
			prevInvalidate()
			newsCache.Invalidate()
		}
		news = cachedNewsFeed{newsCache}
	} else {
		logger.Info("newswire feed disabled")
	}

	// Geocoder (feature-flagged via GEOCODER_ENABLED).
	var geocoder domain.Geocoder
	var geoLog *geolog.Log
	if cfg.GeocoderEnabled {
		geoLog, err = geolog.Open(filepath.Join(cfg.DataDir, "geocode_log.jsonl"), geocodeLogRetention, logger)
		if err != nil {
			logger.Error("failed to open geocode log", "error", err)
			os.Exit(1)
		}
		client := nominatim.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, cfg.GeocoderMinDelay, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize, metrics)
		logger.Info("geocoding enabled", "cache_size", cfg.GeocoderCacheSize, "min_delay", cfg.GeocoderMinDelay)
	} else {
		logger.Info("geocoding disabled")
	}

	arrivals := arrivalstore.New(filepath.Join(cfg.DataDir, "last_arrival.json"))

	// Change event sink (feature-flagged via KAFKA_ENABLED).
	var sink resolver.EventSink = resolver.NewLogSink(logger)
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		sink = kafkaWriter
		logger.Info("kafka event sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	res := resolver.New(resolver.Options{
		Flights:    cachedFlightFeed{flightCache},
		Schedule:   cachedScheduleFeed{scheduleCache},
		TFRs:       cachedTFRFeed{tfrCache},
		News:       news,
		Geocoder:   geocoder,
		Arrivals:   arrivals,
		Aliases:    aliases,
		Timezone:   tz,
		GeoLog:     geoLog,
		Logger:     logger,
		Metrics:    metrics,
		Invalidate: invalidate,
	})

	detector := resolver.NewChangeDetector(sink, logger, metrics)
	poller := resolver.NewPoller(res, detector, cfg.PollInterval, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, poller, poller, res, geoLog, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := poller.Run(ctx); err != nil {
			logger.Error("resolution loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadAliases(cfg *config.Config) (domain.AliasTable, error) {
	if cfg.AliasPath != "" {
		return domain.LoadAliases(cfg.AliasPath)
	}
	return domain.DefaultAliases()
}

// Thin wrappers binding the generic feed caches to the resolver's ports.

type cachedFlightFeed struct {
	c *feedcache.Cache[*domain.FlightState]
}

func (f cachedFlightFeed) Latest(ctx context.Context) (*domain.FlightState, error) {
	return f.c.Get(ctx)
}

type cachedScheduleFeed struct {
	c *feedcache.Cache[[]domain.ScheduleEvent]
}

func (f cachedScheduleFeed) Events(ctx context.Context) ([]domain.ScheduleEvent, error) {
	return f.c.Get(ctx)
}

type cachedTFRFeed struct {
	c *feedcache.Cache[[]domain.TFRRecord]
}

func (f cachedTFRFeed) Restrictions(ctx context.Context) ([]domain.TFRRecord, error) {
	return f.c.Get(ctx)
}

type cachedNewsFeed struct {
	c *feedcache.Cache[*domain.NewsLocation]
}

func (f cachedNewsFeed) LatestDateline(ctx context.Context) (*domain.NewsLocation, error) {
	return f.c.Get(ctx)
}

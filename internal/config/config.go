package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	PollInterval    time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	HomeTimezone    string
	DataDir         string
	AliasPath       string

	// Upstream feed endpoints and cache windows.
	FlightFeedURL    string
	ScheduleFeedURL  string
	TFRFeedURL       string
	NewswireFeedURL  string
	FlightCacheTTL   time.Duration
	ScheduleCacheTTL time.Duration
	TFRCacheTTL      time.Duration
	NewsCacheTTL     time.Duration

	// Fleet maps ADS-B callsigns to ICAO hex codes.
	Fleet map[string]string

	// Geocoder configuration.
	GeocoderEnabled   bool
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderMinDelay  time.Duration
	GeocoderCacheSize int

	// Kafka change event sink. When disabled, events go to the log.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	pollInterval, err := envDuration("POLL_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	flightTTL, err := envDuration("FLIGHT_CACHE_TTL", "10s")
	if err != nil {
		return nil, err
	}
	scheduleTTL, err := envDuration("SCHEDULE_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}
	tfrTTL, err := envDuration("TFR_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	newsTTL, err := envDuration("NEWSWIRE_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := envDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocoderMinDelay, err := envDuration("GEOCODER_MIN_DELAY", "1100ms")
	if err != nil {
		return nil, err
	}

	fleet, err := parseFleet(sharedcfg.EnvOrDefault("FLEET", defaultFleet))
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"
	geocoderEnabled := true
	if v := os.Getenv("GEOCODER_ENABLED"); v != "" {
		geocoderEnabled = v == "true"
	}

	cfg := &Config{
		PollInterval:    pollInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		HomeTimezone:    sharedcfg.EnvOrDefault("HOME_TZ", "America/New_York"),
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "./data"),
		AliasPath:       os.Getenv("ALIAS_TABLE_PATH"),

		FlightFeedURL:    sharedcfg.EnvOrDefault("FLIGHT_FEED_URL", "https://api.adsb.lol/v2/hex"),
		ScheduleFeedURL:  sharedcfg.EnvOrDefault("SCHEDULE_FEED_URL", "https://media-cdn.factba.se/rss/json/calendar-full.json"),
		TFRFeedURL:       sharedcfg.EnvOrDefault("TFR_FEED_URL", "https://tfr.faa.gov/tfrapi/exportTfrList"),
		NewswireFeedURL:  sharedcfg.EnvOrDefault("NEWSWIRE_FEED_URL", ""),
		FlightCacheTTL:   flightTTL,
		ScheduleCacheTTL: scheduleTTL,
		TFRCacheTTL:      tfrTTL,
		NewsCacheTTL:     newsTTL,

		Fleet: fleet,

		GeocoderEnabled:   geocoderEnabled,
		GeocoderURL:       sharedcfg.EnvOrDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUserAgent: sharedcfg.EnvOrDefault("GEOCODER_USER_AGENT", "subject-tracker/1.0"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderMinDelay:  geocoderMinDelay,
		GeocoderCacheSize: parseGeocoderCacheSize(),

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "subject-location-events"),
	}

	if cfg.PollInterval <= 0 {
		return nil, errors.New("POLL_INTERVAL must be positive")
	}
	if len(cfg.Fleet) == 0 {
		return nil, errors.New("FLEET must list at least one callsign=icao pair")
	}
	if _, err := time.LoadLocation(cfg.HomeTimezone); err != nil {
		return nil, fmt.Errorf("invalid HOME_TZ: %w", err)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is not set")
	}

	return cfg, nil
}

// defaultFleet covers the aircraft publicly associated with the subject's
// travel: the two VC-25As plus the C-32A commonly used for shorter trips.
const defaultFleet = "AF1=ADFDF8,SAM28000=ADFDF8,SAM29000=ADFDF9,SAM46=AE0443"

func parseFleet(s string) (map[string]string, error) {
	fleet := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		callsign, icao, ok := strings.Cut(pair, "=")
		if !ok || callsign == "" || icao == "" {
			return nil, fmt.Errorf("invalid FLEET entry %q, want callsign=icao", pair)
		}
		fleet[strings.ToUpper(strings.TrimSpace(callsign))] = strings.ToUpper(strings.TrimSpace(icao))
	}
	return fleet, nil
}

func parseGeocoderCacheSize() int {
	if s := os.Getenv("GEOCODER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 500
}

func envDuration(key, fallback string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

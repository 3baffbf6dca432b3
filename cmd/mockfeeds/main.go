// Command mockfeeds serves fake upstream feeds for local development: the
// ADS-B aggregator, the schedule calendar, the TFR export, and the newswire.
// Payloads use the same shapes the real adapters parse, with timestamps
// anchored to the current day so freshness windows behave.
//
// Usage:
//
//	go run ./cmd/mockfeeds -addr :9090 -scenario grounded
//
// then point the tracker at it:
//
//	FLIGHT_FEED_URL=http://localhost:9090/adsb \
//	SCHEDULE_FEED_URL=http://localhost:9090/calendar.json \
//	TFR_FEED_URL=http://localhost:9090/tfr.json \
//	NEWSWIRE_FEED_URL=http://localhost:9090/newswire.json \
//	go run ./cmd/tracker
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const fleetHex = "adfdf8"

type scenario string

const (
	scenarioAirborne  scenario = "airborne"
	scenarioGrounded  scenario = "grounded"
	scenarioOvernight scenario = "overnight"
	scenarioQuiet     scenario = "quiet"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	name := flag.String("scenario", "grounded", "airborne, grounded, overnight, or quiet")
	tzName := flag.String("tz", "America/New_York", "schedule feed timezone")
	flag.Parse()

	sc := scenario(*name)
	switch sc {
	case scenarioAirborne, scenarioGrounded, scenarioOvernight, scenarioQuiet:
	default:
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *name)
		os.Exit(1)
	}
	tz, err := time.LoadLocation(*tzName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -tz: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := &feeds{scenario: sc, tz: tz, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /adsb/{icao}", srv.handleAircraft)
	mux.HandleFunc("GET /calendar.json", srv.handleCalendar)
	mux.HandleFunc("GET /tfr.json", srv.handleTFR)
	mux.HandleFunc("GET /newswire.json", srv.handleNewswire)

	logger.Info("mock feeds listening", "addr", *addr, "scenario", sc)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type feeds struct {
	scenario scenario
	tz       *time.Location
	logger   *slog.Logger
}

func (f *feeds) handleAircraft(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToLower(r.PathValue("icao"))
	if icao != fleetHex {
		http.NotFound(w, r)
		return
	}

	switch f.scenario {
	case scenarioAirborne:
		writeJSON(w, map[string]any{"ac": []map[string]any{{
			"hex": fleetHex, "flight": "SAM28000 ",
			"alt_baro": 32000, "lat": 37.54, "lon": -77.43, "seen_pos": 4.2,
		}}})
	case scenarioGrounded:
		writeJSON(w, map[string]any{"ac": []map[string]any{{
			"hex": fleetHex, "flight": "SAM28000 ",
			"alt_baro": "ground", "lat": 26.6839, "lon": -80.0956, "seen_pos": 45.0,
		}}})
	default:
		// Overnight and quiet: the airframe is not visible.
		http.NotFound(w, r)
	}
}

func (f *feeds) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().In(f.tz)
	day := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	var entries []map[string]string
	switch f.scenario {
	case scenarioAirborne:
		entries = []map[string]string{
			{"date": day, "time": "09:00:00", "details": "Departs for Palm Beach", "location": "Joint Base Andrews"},
		}
	case scenarioGrounded:
		entries = []map[string]string{
			{"date": day, "time": "17:00:00", "details": "Dinner remarks", "location": "Mar-a-Lago"},
			{"date": day, "time": "11:00:00", "details": "Arrives West Palm Beach", "location": "Palm Beach Intl Airport"},
		}
	case scenarioOvernight:
		entries = []map[string]string{
			{"date": yesterday, "time": "19:30:00", "details": "Dinner remarks", "location": "Mar-a-Lago"},
			{"date": tomorrow, "time": "07:00:00", "details": "Departs for Washington", "location": "Palm Beach Intl Airport"},
		}
	case scenarioQuiet:
		entries = []map[string]string{}
	}
	writeJSON(w, entries)
}

func (f *feeds) handleTFR(w http.ResponseWriter, _ *http.Request) {
	if f.scenario != scenarioGrounded {
		writeJSON(w, []map[string]string{})
		return
	}
	now := time.Now().UTC()
	writeJSON(w, []map[string]string{{
		"notam_id":       "5/1234",
		"type":           "SECURITY",
		"description":    "VIP MOVEMENT PALM BEACH N26.68 W80.04",
		"date_effective": now.Add(-2 * time.Hour).Format(time.RFC3339),
		"date_expire":    now.Add(48 * time.Hour).Format(time.RFC3339),
	}})
}

func (f *feeds) handleNewswire(w http.ResponseWriter, _ *http.Request) {
	if f.scenario == scenarioQuiet {
		writeJSON(w, []map[string]any{})
		return
	}
	writeJSON(w, []map[string]any{{
		"published": time.Now().UTC().Add(-3 * time.Hour).Format(time.RFC3339),
		"dateline":  "PALM BEACH",
		"title":     "Pool report #2",
	}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck // mock server
}

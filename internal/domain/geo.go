package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// WGS-84 coordinate pairs.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dp := (lat2 - lat1) * math.Pi / 180
	dl := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dp/2)*math.Sin(dp/2) +
		math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Centroid returns the unweighted average coordinate of the context events.
// The caller guarantees a non-empty slice.
func Centroid(events []ContextEvent) (lat, lon float64) {
	for _, e := range events {
		lat += e.Lat
		lon += e.Lon
	}
	n := float64(len(events))
	return lat / n, lon / n
}

// ValidLatLon reports whether a coordinate pair is within WGS-84 range.
func ValidLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// tfrCoordRE matches hemisphere-prefixed decimal coordinates embedded in TFR
// descriptions, e.g. "VIP SECURITY N40.7128, W74.0060".
var tfrCoordRE = regexp.MustCompile(`([NS])(\d+(?:\.\d+)?),\s*([EW])(\d+(?:\.\d+)?)`)

// ParseTFRCoordinates extracts a lat/lon pair from a TFR free-text
// description. Returns false when no coordinates are present or the parsed
// values fall outside valid ranges.
func ParseTFRCoordinates(description string) (lat, lon float64, ok bool) {
	m := tfrCoordRE.FindStringSubmatch(description)
	if m == nil {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	if m[1] == "S" {
		lat = -lat
	}

	lon, err = strconv.ParseFloat(m[4], 64)
	if err != nil {
		return 0, 0, false
	}
	if m[3] == "W" {
		lon = -lon
	}

	if !ValidLatLon(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

// FormatCoords renders a coordinate pair for display names and trace lines.
func FormatCoords(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

// NormalizePlace lower-cases and strips typographic dashes and non-breaking
// spaces so free-text place names line up with alias-table keys.
func NormalizePlace(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"–", "-", // en dash
		"—", "-", // em dash
		" ", " ", // NB space
		"’", "'",
	)
	return replacer.Replace(s)
}

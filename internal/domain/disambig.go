package domain

import "time"

// Disambiguation parameters.
const (
	// MaxTravelSpeedKmH bounds how far the subject can plausibly move per
	// hour. Generous on purpose: false rejections are worse than false
	// acceptances here.
	MaxTravelSpeedKmH = 800.0
	// MinTimeGapHours floors the feasibility time gap so near-simultaneous
	// context events don't collapse the reachable radius to zero.
	MinTimeGapHours = 0.1
	// SuspiciousDistanceKm marks a winner unusually far from the context
	// centroid for monitoring; it never changes the selection.
	SuspiciousDistanceKm = 500.0
)

// GeocodeCandidate is one match returned by the external geocoding provider.
type GeocodeCandidate struct {
	Lat         float64
	Lon         float64
	Importance  float64
	DisplayName string
	Country     string
	State       string
	CountryCode string
}

// DisambiguationResult is the selected candidate plus monitoring flags.
type DisambiguationResult struct {
	Candidate GeocodeCandidate
	// AllInfeasible is set when the feasibility filter emptied the set and
	// the selection fell back to raw importance ranking.
	AllInfeasible bool
	// SuspiciousDistance is set when the winner lies more than
	// SuspiciousDistanceKm from the context centroid.
	SuspiciousDistance bool
}

// Disambiguate picks one geocode candidate using nearby-in-time context
// events. Three layers apply in order:
//
//  1. Feasibility: a candidate is kept only if at least one context event
//     could plausibly reach it within the elapsed time at MaxTravelSpeedKmH.
//     If no candidate survives, fall back to the highest-importance raw
//     candidate and flag AllInfeasible.
//  2. Centroid ranking: among feasible candidates, the one nearest the
//     unweighted centroid of the context coordinates wins.
//  3. Suspicious distance: a winner more than SuspiciousDistanceKm from the
//     centroid keeps its selection but is flagged.
//
// With no context events the highest-importance raw candidate wins outright.
// Returns false only for an empty candidate list.
func Disambiguate(candidates []GeocodeCandidate, targetTime time.Time, context []ContextEvent) (DisambiguationResult, bool) {
	if len(candidates) == 0 {
		return DisambiguationResult{}, false
	}
	if len(context) == 0 {
		return DisambiguationResult{Candidate: mostImportant(candidates)}, true
	}

	feasible := make([]GeocodeCandidate, 0, len(candidates))
	for _, c := range candidates {
		if reachableFromContext(c, targetTime, context) {
			feasible = append(feasible, c)
		}
	}

	centLat, centLon := Centroid(context)

	if len(feasible) == 0 {
		best := mostImportant(candidates)
		return DisambiguationResult{
			Candidate:          best,
			AllInfeasible:      true,
			SuspiciousDistance: HaversineKm(best.Lat, best.Lon, centLat, centLon) > SuspiciousDistanceKm,
		}, true
	}

	best := feasible[0]
	bestDist := HaversineKm(best.Lat, best.Lon, centLat, centLon)
	for _, c := range feasible[1:] {
		if d := HaversineKm(c.Lat, c.Lon, centLat, centLon); d < bestDist {
			best, bestDist = c, d
		}
	}

	return DisambiguationResult{
		Candidate:          best,
		SuspiciousDistance: bestDist > SuspiciousDistanceKm,
	}, true
}

// reachableFromContext reports whether any context event could reach the
// candidate within its time gap to the target at MaxTravelSpeedKmH.
func reachableFromContext(c GeocodeCandidate, targetTime time.Time, context []ContextEvent) bool {
	for _, ev := range context {
		gapHours := targetTime.Sub(ev.Time).Abs().Hours()
		if gapHours < MinTimeGapHours {
			gapHours = MinTimeGapHours
		}
		maxKm := gapHours * MaxTravelSpeedKmH
		if HaversineKm(c.Lat, c.Lon, ev.Lat, ev.Lon) <= maxKm {
			return true
		}
	}
	return false
}

func mostImportant(candidates []GeocodeCandidate) GeocodeCandidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Importance > best.Importance {
			best = c
		}
	}
	return best
}

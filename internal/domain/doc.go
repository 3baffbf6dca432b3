// Package domain models the location-fusion pipeline for a single tracked
// mobile subject.
//
// # Data Sources
//
// Five independent, unreliable, asynchronous feeds contribute candidate
// locations, fused by the resolver into exactly one winner per cycle:
//
//   - ADS-B transponder feed: live aircraft position for a small known fleet.
//   - Public schedule feed: dated calendar entries with free-text locations.
//   - Airspace-restriction (TFR) feed: VIP temporary flight restrictions,
//     used both as a standalone candidate and as a proximity corroboration
//     signal for grounded aircraft positions.
//   - News-wire feed: article datelines mentioning the subject.
//   - Arrival cache: the last persisted grounded-aircraft position.
//
// # Reason Tags
//
// Every candidate carries exactly one provenance tag from a closed set:
//
//	plane_air         airborne ADS-B position
//	plane_ground      grounded ADS-B position
//	plane_tfr         grounded ADS-B position corroborated by a nearby TFR
//	overnight_dc      overnight base inference, Washington DC region
//	overnight_fl      overnight base inference, Palm Beach region
//	overnight_nj      overnight base inference, Bedminster region
//	calendar_alias    schedule location matched the alias table
//	calendar_summary  schedule summary matched the alias table
//	calendar_geocode  schedule location geocoded and disambiguated
//	tfr_json          standalone TFR candidate
//	newswire          news-wire article dateline
//	last_arrival      arrival-cache fallback
//	unknown           terminal fallback, confidence 0
//
// # Confidence Model
//
// Confidence is an integer 0-100 expressing trust in a candidate, decaying
// with data age. Each source has a piecewise-linear decay: full confidence
// for a sub-window, linear decay to a floor over a second sub-window, then
// rejection past a hard ceiling:
//
//	Airborne:  95 for ≤5 min | 95→75 over 5-10 min | rejected past 10 min
//	Grounded:  90 for ≤10 min | 90→70 over 10-20 min | rejected past 20 min
//	Schedule:  70 at age 0 | linear to floor 30 over 72 h | never rejected
//	Arrival:   30 at age 0 | -3/day, floor 10 | rejected past 7 days
//
// A grounded position within 55 km of an active TFR earns a +10 bonus,
// capped at 95. All decay functions are monotonically non-increasing in age.
//
// # Geocoding Disambiguation
//
// Free-text place names resolve through three layers: a hand-curated alias
// table (substring match, bypasses geocoding entirely), a skip-list of known
// non-geocodable phrases, and finally the external geocoder. When the
// geocoder returns several plausible matches, nearby already-resolved
// schedule events (context events) disambiguate: candidates unreachable from
// context at 800 km/h are discarded, survivors rank by distance to the
// context centroid, and a winner more than 500 km from the centroid is
// flagged suspicious without changing the selection. See [Disambiguate].
package domain

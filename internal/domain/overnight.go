package domain

import (
	"sort"
	"time"
)

// Overnight inference parameters. All hours are in the subject's home
// timezone (US Eastern unless reconfigured).
const (
	overnightStartHour = 21 // inclusive
	overnightEndHour   = 8  // exclusive

	eveningAnchorHour  = 17 // evening events start at or after this local hour
	morningAnchorHour  = 12 // morning events start before this local hour
	eveningLookBack    = 14 * time.Hour
	morningLookAhead   = 18 * time.Hour
	BaseRegionRadiusKm = 80.0
)

// Base is a known overnight residence with its surrounding region. An
// evening or morning schedule event inside the region implies the subject
// sleeps at the base coordinates.
type Base struct {
	Key    string
	Name   string
	Reason Reason

	// Region center for the radius test.
	CenterLat float64
	CenterLon float64

	// Reported overnight coordinates.
	Lat float64
	Lon float64
}

// DefaultBases lists the known overnight residences, checked in order.
func DefaultBases() []Base {
	return []Base{
		{
			Key:       "dc",
			Name:      "The White House",
			Reason:    ReasonOvernightDC,
			CenterLat: 38.9072, CenterLon: -77.0369,
			Lat: 38.897676, Lon: -77.036529,
		},
		{
			Key:       "fl",
			Name:      "Mar-a-Lago, FL",
			Reason:    ReasonOvernightFL,
			CenterLat: 26.6758, CenterLon: -80.0364,
			Lat: 26.6758, Lon: -80.0364,
		},
		{
			Key:       "nj",
			Name:      "Trump Nat'l Golf Club Bedminster, NJ",
			Reason:    ReasonOvernightNJ,
			CenterLat: 40.6456, CenterLon: -74.6392,
			Lat: 40.645560, Lon: -74.639170,
		},
	}
}

// InOvernightWindow reports whether the local clock is between 21:00 and
// 08:00 in the given timezone.
func InOvernightWindow(now time.Time, tz *time.Location) bool {
	h := now.In(tz).Hour()
	return h >= overnightStartHour || h < overnightEndHour
}

// InferOvernightBase infers which base the subject is sleeping at. Outside
// the overnight window it always declines. Inside the window it needs two
// anchors from the schedule: the most recent evening event (local start at
// or after 17:00, within the past 14 hours) and the soonest morning event
// (local start before 12:00, within the next 18 hours) whose location field
// resolves to coordinates via the alias table. Anchor selection stops at the
// first resolvable event in each direction; only then are the two anchors
// classified into base regions (within 80 km of a center), and both must
// land in the same one. An anchor outside every region means the subject is
// likely traveling, so no inference is made even if an older event would
// have classified. This is deliberately stricter than the daytime alias
// branch: a lone evening event near a base is not proof the subject stayed
// the night.
//
// The second return value is the evening anchor, for display.
func InferOvernightBase(events []ScheduleEvent, now time.Time, tz *time.Location, aliases AliasTable, bases []Base) (Base, ScheduleEvent, bool) {
	if !InOvernightWindow(now, tz) {
		return Base{}, ScheduleEvent{}, false
	}

	var evening, morning []ScheduleEvent
	for _, ev := range events {
		localHour := ev.StartUTC.In(tz).Hour()
		switch {
		case !ev.StartUTC.After(now) && now.Sub(ev.StartUTC) <= eveningLookBack && localHour >= eveningAnchorHour:
			evening = append(evening, ev)
		case ev.StartUTC.After(now) && ev.StartUTC.Sub(now) <= morningLookAhead && localHour < morningAnchorHour:
			morning = append(morning, ev)
		}
	}
	sort.Slice(evening, func(i, j int) bool { return evening[i].StartUTC.After(evening[j].StartUTC) })
	sort.Slice(morning, func(i, j int) bool { return morning[i].StartUTC.Before(morning[j].StartUTC) })

	eveningEv, eveningAlias, ok := firstResolvable(evening, aliases)
	if !ok {
		return Base{}, ScheduleEvent{}, false
	}
	_, morningAlias, ok := firstResolvable(morning, aliases)
	if !ok {
		return Base{}, ScheduleEvent{}, false
	}

	eveningBase, ok := classifyRegion(eveningAlias, bases)
	if !ok {
		return Base{}, ScheduleEvent{}, false
	}
	morningBase, ok := classifyRegion(morningAlias, bases)
	if !ok || morningBase.Key != eveningBase.Key {
		return Base{}, ScheduleEvent{}, false
	}
	return eveningBase, eveningEv, true
}

// firstResolvable walks candidate anchors in preference order and returns
// the first whose location field resolves to coordinates.
func firstResolvable(events []ScheduleEvent, aliases AliasTable) (ScheduleEvent, Alias, bool) {
	for _, ev := range events {
		if alias, ok := aliases.Resolve(ev.Location); ok {
			return ev, alias, true
		}
	}
	return ScheduleEvent{}, Alias{}, false
}

// classifyRegion finds the base whose region contains the coordinates.
func classifyRegion(alias Alias, bases []Base) (Base, bool) {
	for _, b := range bases {
		if HaversineKm(alias.Lat, alias.Lon, b.CenterLat, b.CenterLon) <= BaseRegionRadiusKm {
			return b, true
		}
	}
	return Base{}, false
}

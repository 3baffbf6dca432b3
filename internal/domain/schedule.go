package domain

import (
	"sort"
	"time"
)

// Schedule selection windows: how far back and forward from now an event is
// still considered "current".
const (
	ScheduleLookBack  = 36 * time.Hour
	ScheduleLookAhead = 24 * time.Hour

	// MinContextEvents is how many resolved neighbors the disambiguator
	// wants before it stops expanding outward from the target event.
	MinContextEvents = 2
)

// HasEffectiveLocation reports whether an event can be placed: either its
// location field is non-empty, or its summary matches an alias (implicit
// location indicators like pool call times).
func HasEffectiveLocation(ev ScheduleEvent, aliases AliasTable) bool {
	if ev.Location != "" {
		return true
	}
	_, ok := aliases.Resolve(ev.Summary)
	return ok
}

// CurrentEvent picks the schedule entry that best represents where the
// subject most likely is. Preference rules, applied in order:
//
//  1. Recent past window: the event with an effective location closest to
//     now while scanning backwards; fallback to the time-closest past event
//     even if it cannot be placed.
//  2. Upcoming window: same logic scanning forward.
//  3. No match: nil.
func CurrentEvent(events []ScheduleEvent, now time.Time, aliases AliasTable) *ScheduleEvent {
	recent := filterWindow(events, now, ScheduleLookBack, true)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].StartUTC.After(recent[j].StartUTC) // newest first
	})
	for i := range recent {
		if HasEffectiveLocation(recent[i], aliases) {
			return &recent[i]
		}
	}
	if len(recent) > 0 {
		return &recent[0]
	}

	upcoming := filterWindow(events, now, ScheduleLookAhead, false)
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartUTC.Before(upcoming[j].StartUTC) // soonest first
	})
	for i := range upcoming {
		if HasEffectiveLocation(upcoming[i], aliases) {
			return &upcoming[i]
		}
	}
	if len(upcoming) > 0 {
		return &upcoming[0]
	}

	return nil
}

func filterWindow(events []ScheduleEvent, now time.Time, window time.Duration, past bool) []ScheduleEvent {
	var out []ScheduleEvent
	for _, ev := range events {
		var delta time.Duration
		if past {
			delta = now.Sub(ev.StartUTC)
		} else {
			delta = ev.StartUTC.Sub(now)
		}
		if delta >= 0 && delta <= window {
			out = append(out, ev)
		}
	}
	return out
}

// ContextEvents collects alias-resolvable neighbors of the target event for
// geocoding disambiguation, expanding outward in temporal distance until
// MinContextEvents are found or the list is exhausted. The result is sorted
// closest-in-time first.
func ContextEvents(events []ScheduleEvent, target ScheduleEvent, aliases AliasTable, minContext int) []ContextEvent {
	sorted := make([]ScheduleEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		di := sorted[i].StartUTC.Sub(target.StartUTC).Abs()
		dj := sorted[j].StartUTC.Sub(target.StartUTC).Abs()
		return di < dj
	})

	var context []ContextEvent
	for _, ev := range sorted {
		if ev == target {
			continue
		}
		alias, ok := aliases.Resolve(ev.Location)
		if !ok {
			continue
		}
		context = append(context, ContextEvent{Lat: alias.Lat, Lon: alias.Lon, Time: ev.StartUTC})
		if len(context) >= minContext {
			break
		}
	}
	return context
}

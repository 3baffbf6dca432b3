package domain

import "context"

// FlightFeed serves the freshest normalized ADS-B snapshot for the tracked
// fleet, or nil when no fleet aircraft is currently visible.
type FlightFeed interface {
	Latest(ctx context.Context) (*FlightState, error)
}

// ScheduleFeed serves the published daily schedule.
type ScheduleFeed interface {
	Events(ctx context.Context) ([]ScheduleEvent, error)
}

// TFRFeed serves airspace restriction notices. Implementations return all
// records they know about; callers filter by validity window.
type TFRFeed interface {
	Restrictions(ctx context.Context) ([]TFRRecord, error)
}

// NewsFeed serves the most recent dateline extracted from wire coverage, or
// nil when no recent item names a place.
type NewsFeed interface {
	LatestDateline(ctx context.Context) (*NewsLocation, error)
}

// Geocoder turns a free-text place name into ranked coordinate candidates.
// usOnly restricts the search to United States results; callers try the
// restricted search first and widen on an empty result.
type Geocoder interface {
	Search(ctx context.Context, query string, usOnly bool) ([]GeocodeCandidate, error)
}

// ArrivalStore persists the last known grounded-aircraft position across
// restarts. Load returns nil when nothing has been stored yet.
type ArrivalStore interface {
	Load(ctx context.Context) (*ArrivalRecord, error)
	Save(ctx context.Context, rec ArrivalRecord) error
}

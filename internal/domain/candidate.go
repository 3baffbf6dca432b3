package domain

import "time"

// Reason identifies which source produced a candidate. The set is closed;
// downstream consumers key display labels and alerting off these tags.
type Reason string

const (
	ReasonPlaneAir        Reason = "plane_air"
	ReasonPlaneGround     Reason = "plane_ground"
	ReasonPlaneTFR        Reason = "plane_tfr"
	ReasonOvernightDC     Reason = "overnight_dc"
	ReasonOvernightFL     Reason = "overnight_fl"
	ReasonOvernightNJ     Reason = "overnight_nj"
	ReasonCalendarAlias   Reason = "calendar_alias"
	ReasonCalendarSummary Reason = "calendar_summary"
	ReasonCalendarGeocode Reason = "calendar_geocode"
	ReasonTFRJSON         Reason = "tfr_json"
	ReasonNewswire        Reason = "newswire"
	ReasonLastArrival     Reason = "last_arrival"
	ReasonUnknown         Reason = "unknown"
)

// CandidateLocation is the unit of output: one proposed location with
// confidence and provenance. Exactly one candidate wins per resolution
// cycle; losing candidates appear only in the diagnostic trace.
type CandidateLocation struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Name       string  `json:"name"`
	Confidence int     `json:"confidence"`
	Reason     Reason  `json:"reason"`

	InFlight      bool   `json:"in_flight,omitempty"`
	TFRConfirmed  bool   `json:"tfr_confirmed,omitempty"`
	EventSummary  string `json:"event_summary,omitempty"`
	SourceDisplay string `json:"source_display,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
}

// Unknown is the terminal fallback returned when every source is silent.
func Unknown() CandidateLocation {
	return CandidateLocation{Name: "Unknown", Confidence: 0, Reason: ReasonUnknown}
}

// IsUnknown reports whether the candidate is the terminal fallback.
func (c CandidateLocation) IsUnknown() bool {
	return c.Reason == ReasonUnknown
}

// FlightStatus distinguishes the two transponder states.
type FlightStatus string

const (
	FlightAirborne FlightStatus = "airborne"
	FlightGrounded FlightStatus = "grounded"
)

// FlightState is a normalized ADS-B snapshot for one fleet aircraft.
type FlightState struct {
	Callsign   string       `json:"callsign"`
	Lat        float64      `json:"lat"`
	Lon        float64      `json:"lon"`
	AltitudeFt float64      `json:"altitude"`
	OnGround   bool         `json:"on_ground"`
	Timestamp  time.Time    `json:"ts"`
	Status     FlightStatus `json:"status"`
	Confidence int          `json:"confidence"`
	TrackerURL string       `json:"tracker_url,omitempty"`
}

// ScheduleEvent is one entry from the public schedule feed, immutable once
// fetched. StartUTC is the event's local start time converted to UTC.
type ScheduleEvent struct {
	StartUTC time.Time `json:"start_utc"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
}

// ContextEvent is a schedule event already resolved to coordinates, used
// only to disambiguate the geocoding of a different target event. Derived,
// never persisted.
type ContextEvent struct {
	Lat  float64
	Lon  float64
	Time time.Time
}

// TFRRecord is one currently-valid airspace restriction notice.
type TFRRecord struct {
	ValidFrom   time.Time
	ValidTo     time.Time
	Category    string
	Description string
	Lat         *float64
	Lon         *float64
}

// Active reports whether the record's validity interval contains now.
func (r TFRRecord) Active(now time.Time) bool {
	return !now.Before(r.ValidFrom) && !now.After(r.ValidTo)
}

// NewsLocation is a dateline extracted from the news-wire feed.
type NewsLocation struct {
	Lat  float64
	Lon  float64
	Name string
}

// ArrivalRecord is the persisted last grounded-aircraft position. The newest
// write supersedes; records are never merged.
type ArrivalRecord struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"ts"`
}

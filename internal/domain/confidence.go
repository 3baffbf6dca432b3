package domain

import "time"

// Decay parameters. Each source has a full-confidence sub-window, a linear
// decay sub-window down to a floor, and (except schedule) a rejection age.
const (
	airborneFullWindow = 5 * time.Minute
	airborneMaxAge     = 10 * time.Minute
	airborneBase       = 95
	airborneFloor      = 75

	groundedFullWindow = 10 * time.Minute
	groundedMaxAge     = 20 * time.Minute
	groundedBase       = 90
	groundedFloor      = 70

	scheduleBase       = 70
	scheduleFloor      = 30
	scheduleDecaySpan  = 72 * time.Hour
	ArrivalMaxAge      = 7 * 24 * time.Hour
	arrivalBase        = 30
	arrivalFloor       = 10
	arrivalDecayPerDay = 3

	// TFRBonusRadiusKm is how close an active TFR must be to a grounded
	// position to corroborate it.
	TFRBonusRadiusKm = 55.0
	tfrBonus         = 10
	tfrBonusCap      = 95

	// TFRConfidence is the fixed confidence of a standalone TFR candidate.
	TFRConfidence = 40
	// NewswireConfidence is the fixed confidence of a news-dateline candidate.
	NewswireConfidence = 35
	// OvernightConfidence is the fixed confidence of an overnight-base inference.
	OvernightConfidence = 58
)

// ClampConfidence forces a confidence score into the documented 0-100 range.
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// AirborneConfidence maps the age of an airborne ADS-B snapshot to a
// confidence score: 95 for the first 5 minutes, linear decay to 75 at
// 10 minutes, rejected beyond that.
func AirborneConfidence(age time.Duration) (int, bool) {
	return linearDecay(age, airborneFullWindow, airborneMaxAge, airborneBase, airborneFloor)
}

// GroundedConfidence maps the age of a grounded ADS-B snapshot to a
// confidence score: 90 for the first 10 minutes, linear decay to 70 at
// 20 minutes, rejected beyond that.
func GroundedConfidence(age time.Duration) (int, bool) {
	return linearDecay(age, groundedFullWindow, groundedMaxAge, groundedBase, groundedFloor)
}

// FlightConfidence dispatches on the snapshot's airborne/grounded status.
func FlightConfidence(age time.Duration, onGround bool) (int, bool) {
	if onGround {
		return GroundedConfidence(age)
	}
	return AirborneConfidence(age)
}

// ScheduleConfidence maps the age of a schedule-derived candidate to a
// confidence score: 70 at age 0 decaying linearly to a floor of 30 over
// 72 hours. Schedule candidates are never rejected purely by age; future
// events count as age 0.
func ScheduleConfidence(age time.Duration) int {
	if age < 0 {
		age = 0
	}
	if age >= scheduleDecaySpan {
		return scheduleFloor
	}
	span := float64(scheduleBase - scheduleFloor)
	return scheduleBase - int(age.Hours()/scheduleDecaySpan.Hours()*span)
}

// ArrivalConfidence maps the age of a persisted arrival record to a
// confidence score: 30 at age 0, losing 3 points per day with a floor of 10,
// rejected once strictly older than 7 days. The cutoff is exact: a record
// aged 7 days minus a second is accepted, 7 days plus any positive duration
// is not.
func ArrivalConfidence(age time.Duration) (int, bool) {
	if age < 0 {
		age = 0
	}
	if age > ArrivalMaxAge {
		return 0, false
	}
	days := age.Hours() / 24
	c := arrivalBase - int(days*arrivalDecayPerDay)
	if c < arrivalFloor {
		c = arrivalFloor
	}
	return c, true
}

// ApplyTFRBonus adds the +10 proximity bonus for a grounded candidate
// corroborated by a nearby active TFR, capped at 95.
func ApplyTFRBonus(confidence int) int {
	c := confidence + tfrBonus
	if c > tfrBonusCap {
		c = tfrBonusCap
	}
	return c
}

func linearDecay(age, fullWindow, maxAge time.Duration, base, floor int) (int, bool) {
	if age < 0 {
		age = 0
	}
	if age > maxAge {
		return 0, false
	}
	if age <= fullWindow {
		return base, true
	}
	progress := float64(age-fullWindow) / float64(maxAge-fullWindow)
	return base - int(progress*float64(base-floor)), true
}

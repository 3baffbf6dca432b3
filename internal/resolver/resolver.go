// Package resolver fuses the upstream feeds into a single best-guess
// location per cycle. Sources are consulted in a fixed priority cascade;
// the first acceptable candidate wins, with one exception: a schedule
// candidate and a standalone airspace-restriction candidate are compared on
// confidence, higher wins and the schedule takes ties.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
	"github.com/couchcryptid/subject-tracker/internal/geolog"
	"github.com/couchcryptid/subject-tracker/internal/observability"
)

// TraceStep records one cascade stage for the diagnostic trace.
type TraceStep struct {
	Source    string                    `json:"source"`
	Outcome   string                    `json:"outcome"`
	Candidate *domain.CandidateLocation `json:"candidate,omitempty"`
}

// Resolver runs the fusion cascade. All feed errors are swallowed into "no
// candidate from this source"; Resolve never fails.
type Resolver struct {
	flights  domain.FlightFeed
	schedule domain.ScheduleFeed
	tfrs     domain.TFRFeed
	news     domain.NewsFeed
	geocoder domain.Geocoder // nil when geocoding is disabled
	arrivals domain.ArrivalStore

	aliases domain.AliasTable
	bases   []domain.Base
	tz      *time.Location

	geoLog  *geolog.Log
	logger  *slog.Logger
	metrics *observability.Metrics

	// invalidate drops feed caches ahead of a forced-fresh resolution.
	invalidate func()
}

// Options carries the resolver's collaborators.
type Options struct {
	Flights  domain.FlightFeed
	Schedule domain.ScheduleFeed
	TFRs     domain.TFRFeed
	News     domain.NewsFeed
	Geocoder domain.Geocoder
	Arrivals domain.ArrivalStore

	Aliases  domain.AliasTable
	Bases    []domain.Base
	Timezone *time.Location

	GeoLog     *geolog.Log
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	Invalidate func()
}

// New creates a resolver.
func New(opts Options) *Resolver {
	bases := opts.Bases
	if bases == nil {
		bases = domain.DefaultBases()
	}
	return &Resolver{
		flights:    opts.Flights,
		schedule:   opts.Schedule,
		tfrs:       opts.TFRs,
		news:       opts.News,
		geocoder:   opts.Geocoder,
		arrivals:   opts.Arrivals,
		aliases:    opts.Aliases,
		bases:      bases,
		tz:         opts.Timezone,
		geoLog:     opts.GeoLog,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		invalidate: opts.Invalidate,
	}
}

// Resolve runs one cascade pass and returns the winning candidate. It never
// fails; with every source silent it returns the unknown candidate.
func (r *Resolver) Resolve(ctx context.Context) domain.CandidateLocation {
	winner, _, _ := r.resolve(ctx)
	return winner
}

// Cycle runs one cascade pass and additionally returns the raw flight
// reading, which the change detector compares independently of the winner.
func (r *Resolver) Cycle(ctx context.Context) (domain.CandidateLocation, *domain.FlightState) {
	winner, _, flight := r.resolve(ctx)
	return winner, flight
}

// ResolveWithTrace runs the cascade and returns every stage's outcome. With
// fresh set, feed caches are dropped first so the trace reflects live data.
func (r *Resolver) ResolveWithTrace(ctx context.Context, fresh bool) (domain.CandidateLocation, []TraceStep) {
	if fresh && r.invalidate != nil {
		r.invalidate()
	}
	winner, trace, _ := r.resolve(ctx)
	return winner, trace
}

func (r *Resolver) resolve(ctx context.Context) (domain.CandidateLocation, []TraceStep, *domain.FlightState) {
	var trace []TraceStep
	now := domain.Now()

	restrictions := r.fetchRestrictions(ctx)
	events := r.fetchSchedule(ctx)
	current := domain.CurrentEvent(events, now, r.aliases)

	// 1-2. Aircraft feed. Airborne wins unconditionally; grounded wins only
	// while newer than the current schedule event, so a stale parked reading
	// cannot shadow an event that started after the aircraft arrived.
	flight, c := r.flightCandidate(ctx, now, restrictions, current, &trace)
	if c != nil {
		return r.won(*c), trace, flight
	}

	// 3. Overnight base inference.
	if c := r.overnightCandidate(events, now, &trace); c != nil {
		return r.won(*c), trace, flight
	}

	// 4. Schedule against the standalone airspace candidate. Both are
	// evaluated; the higher confidence wins and the schedule takes ties.
	scheduleCand := r.scheduleCandidate(ctx, events, current, now, &trace)
	tfrCand := r.tfrCandidate(restrictions, now, &trace)
	switch {
	case scheduleCand != nil && tfrCand != nil:
		if tfrCand.Confidence > scheduleCand.Confidence {
			return r.won(*tfrCand), trace, flight
		}
		return r.won(*scheduleCand), trace, flight
	case scheduleCand != nil:
		return r.won(*scheduleCand), trace, flight
	case tfrCand != nil:
		return r.won(*tfrCand), trace, flight
	}

	// 5. News-wire dateline.
	if c := r.newsCandidate(ctx, &trace); c != nil {
		return r.won(*c), trace, flight
	}

	// 6. Persisted last arrival.
	if c := r.arrivalCandidate(ctx, now, &trace); c != nil {
		return r.won(*c), trace, flight
	}

	// 7. Unknown, carrying the unplaceable schedule summary as a side-note
	// when one existed.
	r.logger.Info("no source produced a candidate")
	unknown := domain.Unknown()
	if current != nil {
		unknown.EventSummary = current.Summary
	}
	return r.won(unknown), trace, flight
}

func (r *Resolver) won(c domain.CandidateLocation) domain.CandidateLocation {
	c.Confidence = domain.ClampConfidence(c.Confidence)
	r.metrics.ResolvedReason.WithLabelValues(string(c.Reason)).Inc()
	return c
}

func (r *Resolver) flightCandidate(ctx context.Context, now time.Time, restrictions []domain.TFRRecord, current *domain.ScheduleEvent, trace *[]TraceStep) (*domain.FlightState, *domain.CandidateLocation) {
	state, err := r.fetchFlight(ctx)
	if err != nil || state == nil {
		outcome := "no aircraft visible"
		if err != nil {
			outcome = "feed error"
		}
		*trace = append(*trace, TraceStep{Source: "adsb", Outcome: outcome})
		return nil, nil
	}

	age := now.Sub(state.Timestamp)
	conf, ok := domain.FlightConfidence(age, state.OnGround)
	if !ok {
		*trace = append(*trace, TraceStep{Source: "adsb", Outcome: fmt.Sprintf("snapshot too old (%s)", age.Round(time.Second))})
		return state, nil
	}
	if state.OnGround && current != nil && !state.Timestamp.After(current.StartUTC) {
		*trace = append(*trace, TraceStep{Source: "adsb", Outcome: "grounded reading predates current schedule event"})
		return state, nil
	}

	c := domain.CandidateLocation{
		Lat:           state.Lat,
		Lon:           state.Lon,
		Confidence:    conf,
		SourceDisplay: state.Callsign,
		SourceURL:     state.TrackerURL,
	}
	if state.OnGround {
		c.Reason = domain.ReasonPlaneGround
		c.Name = "On ground (" + domain.FormatCoords(state.Lat, state.Lon) + ")"
		r.persistArrival(ctx, state)
		if r.nearActiveRestriction(restrictions, state.Lat, state.Lon, now) {
			c.Confidence = domain.ApplyTFRBonus(c.Confidence)
			c.Reason = domain.ReasonPlaneTFR
			c.TFRConfirmed = true
		}
	} else {
		c.Reason = domain.ReasonPlaneAir
		c.InFlight = true
		c.Name = "In flight (" + domain.FormatCoords(state.Lat, state.Lon) + ")"
	}

	*trace = append(*trace, TraceStep{Source: "adsb", Outcome: "candidate", Candidate: &c})
	return state, &c
}

// persistArrival records a grounded position for the terminal fallback. Best
// effort: a failed write costs nothing but the fallback's freshness.
func (r *Resolver) persistArrival(ctx context.Context, state *domain.FlightState) {
	if r.arrivals == nil {
		return
	}
	rec := domain.ArrivalRecord{Lat: state.Lat, Lon: state.Lon, Timestamp: state.Timestamp}
	if err := r.arrivals.Save(ctx, rec); err != nil {
		r.logger.Warn("arrival record save failed", "error", err)
	}
}

func (r *Resolver) nearActiveRestriction(restrictions []domain.TFRRecord, lat, lon float64, now time.Time) bool {
	for _, rec := range restrictions {
		if !rec.Active(now) || rec.Lat == nil {
			continue
		}
		if domain.HaversineKm(lat, lon, *rec.Lat, *rec.Lon) <= domain.TFRBonusRadiusKm {
			return true
		}
	}
	return false
}

func (r *Resolver) overnightCandidate(events []domain.ScheduleEvent, now time.Time, trace *[]TraceStep) *domain.CandidateLocation {
	base, anchor, ok := domain.InferOvernightBase(events, now, r.tz, r.aliases, r.bases)
	if !ok {
		*trace = append(*trace, TraceStep{Source: "overnight", Outcome: "not applicable"})
		return nil
	}
	c := domain.CandidateLocation{
		Lat:          base.Lat,
		Lon:          base.Lon,
		Name:         base.Name,
		Confidence:   domain.OvernightConfidence,
		Reason:       base.Reason,
		EventSummary: anchor.Summary,
	}
	*trace = append(*trace, TraceStep{Source: "overnight", Outcome: "candidate", Candidate: &c})
	return &c
}

func (r *Resolver) scheduleCandidate(ctx context.Context, events []domain.ScheduleEvent, ev *domain.ScheduleEvent, now time.Time, trace *[]TraceStep) *domain.CandidateLocation {
	if ev == nil {
		*trace = append(*trace, TraceStep{Source: "schedule", Outcome: "no current event"})
		return nil
	}

	age := now.Sub(ev.StartUTC)
	conf := domain.ScheduleConfidence(age)

	// Alias table first: the location string, then summary phrases that
	// imply a place.
	if alias, ok := r.aliases.Resolve(ev.Location); ok {
		c := domain.CandidateLocation{
			Lat: alias.Lat, Lon: alias.Lon, Name: alias.Name,
			Confidence: conf, Reason: domain.ReasonCalendarAlias,
			EventSummary: ev.Summary,
		}
		*trace = append(*trace, TraceStep{Source: "schedule", Outcome: "alias match", Candidate: &c})
		return &c
	}
	if alias, ok := r.aliases.Resolve(ev.Summary); ok {
		c := domain.CandidateLocation{
			Lat: alias.Lat, Lon: alias.Lon, Name: alias.Name,
			Confidence: conf, Reason: domain.ReasonCalendarSummary,
			EventSummary: ev.Summary,
		}
		*trace = append(*trace, TraceStep{Source: "schedule", Outcome: "summary match", Candidate: &c})
		return &c
	}

	if ev.Location == "" {
		*trace = append(*trace, TraceStep{Source: "schedule", Outcome: "event has no location"})
		return nil
	}

	c := r.geocodeEvent(ctx, events, *ev, conf)
	if c == nil {
		*trace = append(*trace, TraceStep{Source: "schedule", Outcome: "geocoding produced nothing"})
		return nil
	}
	*trace = append(*trace, TraceStep{Source: "schedule", Outcome: "geocoded", Candidate: c})
	return c
}

func (r *Resolver) geocodeEvent(ctx context.Context, events []domain.ScheduleEvent, ev domain.ScheduleEvent, conf int) *domain.CandidateLocation {
	if r.geocoder == nil {
		return nil
	}
	if r.aliases.ShouldSkipGeocode(ev.Location) {
		r.metrics.GeocodeSkipped.Inc()
		r.geoLog.Record(ev.Location, geolog.ResultSkipped, "", "skip-list")
		return nil
	}

	candidates, scope, err := r.searchBothScopes(ctx, ev.Location)
	if err != nil {
		r.logger.Warn("geocoding failed", "query", ev.Location, "error", err)
		r.geoLog.Record(ev.Location, geolog.ResultError, "", err.Error())
		return nil
	}
	if len(candidates) == 0 {
		r.geoLog.Record(ev.Location, geolog.ResultNoResult, "", "")
		return nil
	}

	context := domain.ContextEvents(events, ev, r.aliases, domain.MinContextEvents)
	result, ok := domain.Disambiguate(candidates, ev.StartUTC, context)
	if !ok {
		return nil
	}
	if result.AllInfeasible {
		r.logger.Warn("no geocode candidate was reachable, using raw ranking", "query", ev.Location)
	}
	if result.SuspiciousDistance {
		r.logger.Warn("geocode winner is unusually far from schedule context",
			"query", ev.Location, "display_name", result.Candidate.DisplayName)
	}

	resultType := geolog.ResultUS
	if scope == "intl" {
		resultType = geolog.ResultInternational
	}
	r.geoLog.Record(ev.Location, resultType, result.Candidate.DisplayName, "")

	best := result.Candidate
	return &domain.CandidateLocation{
		Lat:          best.Lat,
		Lon:          best.Lon,
		Name:         shortDisplayName(best.DisplayName),
		Confidence:   conf,
		Reason:       domain.ReasonCalendarGeocode,
		EventSummary: ev.Summary,
	}
}

// searchBothScopes tries a United States restricted search first and widens
// to the world on an empty result. Most schedule locations are domestic and
// the restriction avoids far-away namesakes winning on importance.
func (r *Resolver) searchBothScopes(ctx context.Context, query string) ([]domain.GeocodeCandidate, string, error) {
	candidates, err := r.geocoder.Search(ctx, query, true)
	if err != nil {
		r.metrics.GeocodeRequests.WithLabelValues("us", "error").Inc()
		return nil, "us", err
	}
	if len(candidates) > 0 {
		r.metrics.GeocodeRequests.WithLabelValues("us", "success").Inc()
		return candidates, "us", nil
	}
	r.metrics.GeocodeRequests.WithLabelValues("us", "empty").Inc()

	candidates, err = r.geocoder.Search(ctx, query, false)
	if err != nil {
		r.metrics.GeocodeRequests.WithLabelValues("intl", "error").Inc()
		return nil, "intl", err
	}
	outcome := "empty"
	if len(candidates) > 0 {
		outcome = "success"
	}
	r.metrics.GeocodeRequests.WithLabelValues("intl", outcome).Inc()
	return candidates, "intl", nil
}

// shortDisplayName trims a full geocoder display name ("Springfield, Fairfax
// County, Virginia, United States") to its leading two components.
func shortDisplayName(name string) string {
	parts := strings.Split(name, ",")
	if len(parts) <= 2 {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(parts[0]) + "," + parts[1]
}

func (r *Resolver) tfrCandidate(restrictions []domain.TFRRecord, now time.Time, trace *[]TraceStep) *domain.CandidateLocation {
	best := selectVIPRestriction(restrictions, now)
	if best == nil {
		*trace = append(*trace, TraceStep{Source: "tfr", Outcome: "no locatable vip restriction"})
		return nil
	}
	c := domain.CandidateLocation{
		Lat:        *best.Lat,
		Lon:        *best.Lon,
		Name:       "Airspace restriction (" + domain.FormatCoords(*best.Lat, *best.Lon) + ")",
		Confidence: domain.TFRConfidence,
		Reason:     domain.ReasonTFRJSON,
	}
	*trace = append(*trace, TraceStep{Source: "tfr", Outcome: "candidate", Candidate: &c})
	return &c
}

// selectVIPRestriction picks the most likely subject-related notice: active,
// with parseable coordinates, ranked by VIP wording then security category,
// newest effective date breaking ties.
func selectVIPRestriction(restrictions []domain.TFRRecord, now time.Time) *domain.TFRRecord {
	var best *domain.TFRRecord
	bestScore := 0
	for i := range restrictions {
		rec := &restrictions[i]
		if !rec.Active(now) || rec.Lat == nil {
			continue
		}
		score := 1
		if strings.Contains(strings.ToUpper(rec.Description), "VIP") {
			score += 2
		}
		if strings.EqualFold(rec.Category, "SECURITY") {
			score++
		}
		if score < 2 {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && rec.ValidFrom.After(best.ValidFrom)) {
			best, bestScore = rec, score
		}
	}
	return best
}

func (r *Resolver) newsCandidate(ctx context.Context, trace *[]TraceStep) *domain.CandidateLocation {
	loc, err := r.fetchNews(ctx)
	if err != nil || loc == nil {
		outcome := "no recent dateline"
		if err != nil {
			outcome = "feed error"
		}
		*trace = append(*trace, TraceStep{Source: "newswire", Outcome: outcome})
		return nil
	}
	c := domain.CandidateLocation{
		Lat:        loc.Lat,
		Lon:        loc.Lon,
		Name:       loc.Name,
		Confidence: domain.NewswireConfidence,
		Reason:     domain.ReasonNewswire,
	}
	*trace = append(*trace, TraceStep{Source: "newswire", Outcome: "candidate", Candidate: &c})
	return &c
}

func (r *Resolver) arrivalCandidate(ctx context.Context, now time.Time, trace *[]TraceStep) *domain.CandidateLocation {
	if r.arrivals == nil {
		*trace = append(*trace, TraceStep{Source: "arrival", Outcome: "store disabled"})
		return nil
	}
	rec, err := r.arrivals.Load(ctx)
	if err != nil {
		r.logger.Warn("arrival record load failed", "error", err)
		*trace = append(*trace, TraceStep{Source: "arrival", Outcome: "load error"})
		return nil
	}
	if rec == nil {
		*trace = append(*trace, TraceStep{Source: "arrival", Outcome: "nothing persisted"})
		return nil
	}

	age := now.Sub(rec.Timestamp)
	conf, ok := domain.ArrivalConfidence(age)
	if !ok {
		*trace = append(*trace, TraceStep{Source: "arrival", Outcome: fmt.Sprintf("record too old (%s)", age.Round(time.Hour))})
		return nil
	}
	c := domain.CandidateLocation{
		Lat:        rec.Lat,
		Lon:        rec.Lon,
		Name:       "Last known arrival (" + domain.FormatCoords(rec.Lat, rec.Lon) + ")",
		Confidence: conf,
		Reason:     domain.ReasonLastArrival,
	}
	*trace = append(*trace, TraceStep{Source: "arrival", Outcome: "candidate", Candidate: &c})
	return &c
}

// Instrumented feed fetch helpers.

func (r *Resolver) fetchFlight(ctx context.Context) (*domain.FlightState, error) {
	if r.flights == nil {
		return nil, nil
	}
	return timedFetch(r.metrics, "adsb",
		func() (*domain.FlightState, error) { return r.flights.Latest(ctx) },
		func(s *domain.FlightState) bool { return s == nil })
}

func (r *Resolver) fetchSchedule(ctx context.Context) []domain.ScheduleEvent {
	if r.schedule == nil {
		return nil
	}
	events, err := timedFetch(r.metrics, "schedule",
		func() ([]domain.ScheduleEvent, error) { return r.schedule.Events(ctx) },
		func(e []domain.ScheduleEvent) bool { return len(e) == 0 })
	if err != nil {
		r.logger.Warn("schedule feed failed", "error", err)
		return nil
	}
	return events
}

func (r *Resolver) fetchRestrictions(ctx context.Context) []domain.TFRRecord {
	if r.tfrs == nil {
		return nil
	}
	records, err := timedFetch(r.metrics, "tfr",
		func() ([]domain.TFRRecord, error) { return r.tfrs.Restrictions(ctx) },
		func(t []domain.TFRRecord) bool { return len(t) == 0 })
	if err != nil {
		r.logger.Warn("tfr feed failed", "error", err)
		return nil
	}
	return records
}

func (r *Resolver) fetchNews(ctx context.Context) (*domain.NewsLocation, error) {
	if r.news == nil {
		return nil, nil
	}
	return timedFetch(r.metrics, "newswire",
		func() (*domain.NewsLocation, error) { return r.news.LatestDateline(ctx) },
		func(l *domain.NewsLocation) bool { return l == nil })
}

func timedFetch[T any](m *observability.Metrics, feed string, fetch func() (T, error), empty func(T) bool) (T, error) {
	start := time.Now()
	v, err := fetch()
	m.FeedDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		m.FeedFetches.WithLabelValues(feed, "error").Inc()
	case empty(v):
		m.FeedFetches.WithLabelValues(feed, "empty").Inc()
	default:
		m.FeedFetches.WithLabelValues(feed, "success").Inc()
	}
	return v, err
}

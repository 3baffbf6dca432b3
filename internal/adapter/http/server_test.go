package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/subject-tracker/internal/adapter/http"
	"github.com/couchcryptid/subject-tracker/internal/domain"
	"github.com/couchcryptid/subject-tracker/internal/geolog"
	"github.com/couchcryptid/subject-tracker/internal/resolver"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockLocation struct {
	loc domain.CandidateLocation
	at  time.Time
}

func (m *mockLocation) Latest() (domain.CandidateLocation, time.Time) { return m.loc, m.at }

type mockTracer struct {
	loc   domain.CandidateLocation
	trace []resolver.TraceStep
	fresh bool
}

func (m *mockTracer) ResolveWithTrace(_ context.Context, fresh bool) (domain.CandidateLocation, []resolver.TraceStep) {
	m.fresh = fresh
	return m.loc, m.trace
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error, geoLog *geolog.Log) (*httpadapter.Server, *mockLocation, *mockTracer) {
	loc := &mockLocation{
		loc: domain.CandidateLocation{
			Lat: 38.897676, Lon: -77.036529,
			Name: "The White House", Confidence: 69,
			Reason: domain.ReasonCalendarAlias,
		},
		at: time.Date(2025, 6, 3, 18, 0, 0, 0, time.UTC),
	}
	tracer := &mockTracer{
		loc:   loc.loc,
		trace: []resolver.TraceStep{{Source: "adsb", Outcome: "no aircraft visible"}},
	}
	srv := httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, loc, tracer, geoLog, discardLogger())
	return srv, loc, tracer
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil)
	rec := get(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil)
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _, _ := newTestServer(fmt.Errorf("no resolution cycle has completed yet"), nil)
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no resolution cycle has completed yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil)
	rec := get(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLocationEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil)
	rec := get(t, srv, "/location.json")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name       string    `json:"name"`
		Reason     string    `json:"reason"`
		Confidence int       `json:"confidence"`
		ResolvedAt time.Time `json:"resolved_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "The White House", body.Name)
	assert.Equal(t, "calendar_alias", body.Reason)
	assert.Equal(t, 69, body.Confidence)
	assert.Equal(t, time.Date(2025, 6, 3, 18, 0, 0, 0, time.UTC), body.ResolvedAt)
}

func TestLocationEndpointNotReady(t *testing.T) {
	srv, _, _ := newTestServer(fmt.Errorf("warming up"), nil)
	rec := get(t, srv, "/location.json")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResolveDebugEndpoint(t *testing.T) {
	srv, _, tracer := newTestServer(nil, nil)
	rec := get(t, srv, "/debug/resolve.json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, tracer.fresh)

	var body struct {
		Location domain.CandidateLocation `json:"location"`
		Trace    []resolver.TraceStep     `json:"trace"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ReasonCalendarAlias, body.Location.Reason)
	require.Len(t, body.Trace, 1)
	assert.Equal(t, "adsb", body.Trace[0].Source)
}

func TestResolveDebugEndpointFresh(t *testing.T) {
	srv, _, tracer := newTestServer(nil, nil)
	rec := get(t, srv, "/debug/resolve.json?fresh=1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, tracer.fresh)
}

func TestGeocodeLogEndpoint(t *testing.T) {
	log, err := geolog.Open("", 100, discardLogger())
	require.NoError(t, err)
	log.Record("springfield", geolog.ResultUS, "Springfield, Fairfax County, Virginia, United States", "")
	log.Record("stakeout location", geolog.ResultSkipped, "", "skip-list")

	srv, _, _ := newTestServer(nil, log)
	rec := get(t, srv, "/debug/geocode.json")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stats  geolog.Stats   `json:"stats"`
		Recent []geolog.Entry `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Stats.Total)
	require.Len(t, body.Recent, 2)
	assert.Equal(t, "stakeout location", body.Recent[0].Query, "newest first")
}

func TestGeocodeLogEndpointLimitValidation(t *testing.T) {
	log, err := geolog.Open("", 100, discardLogger())
	require.NoError(t, err)
	srv, _, _ := newTestServer(nil, log)

	rec := get(t, srv, "/debug/geocode.json?limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, srv, "/debug/geocode.json?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocodeLogEndpointDisabled(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil)
	rec := get(t, srv, "/debug/geocode.json")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

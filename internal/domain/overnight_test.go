package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEastern(t *testing.T) *time.Location {
	t.Helper()
	tz, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return tz
}

func TestInOvernightWindow(t *testing.T) {
	tz := loadEastern(t)
	mk := func(hour int) time.Time {
		return time.Date(2025, 6, 3, hour, 30, 0, 0, tz)
	}
	assert.True(t, InOvernightWindow(mk(23), tz))
	assert.True(t, InOvernightWindow(mk(21), tz))
	assert.True(t, InOvernightWindow(mk(3), tz))
	assert.True(t, InOvernightWindow(mk(7), tz))
	assert.False(t, InOvernightWindow(mk(8), tz))
	assert.False(t, InOvernightWindow(mk(12), tz))
	assert.False(t, InOvernightWindow(mk(20), tz))
}

func TestInferOvernightBase(t *testing.T) {
	tz := loadEastern(t)
	aliases, err := DefaultAliases()
	require.NoError(t, err)
	bases := DefaultBases()

	// 23:30 ET on June 3rd.
	now := time.Date(2025, 6, 3, 23, 30, 0, 0, tz).UTC()

	eveningFL := ScheduleEvent{
		StartUTC: time.Date(2025, 6, 3, 19, 0, 0, 0, tz).UTC(),
		Summary:  "Dinner remarks",
		Location: "Mar-a-Lago",
	}
	morningFL := ScheduleEvent{
		StartUTC: time.Date(2025, 6, 4, 10, 0, 0, 0, tz).UTC(),
		Summary:  "Briefing",
		Location: "Palm Beach Intl Airport",
	}
	morningDC := ScheduleEvent{
		StartUTC: time.Date(2025, 6, 4, 9, 0, 0, 0, tz).UTC(),
		Summary:  "Departure",
		Location: "The White House",
	}

	t.Run("evening and morning in the same region", func(t *testing.T) {
		base, anchor, ok := InferOvernightBase([]ScheduleEvent{eveningFL, morningFL}, now, tz, aliases, bases)
		require.True(t, ok)
		assert.Equal(t, "fl", base.Key)
		assert.Equal(t, ReasonOvernightFL, base.Reason)
		assert.Equal(t, 26.6758, base.Lat)
		assert.Equal(t, "Dinner remarks", anchor.Summary)
	})

	t.Run("declines outside the window", func(t *testing.T) {
		noon := time.Date(2025, 6, 3, 12, 0, 0, 0, tz).UTC()
		_, _, ok := InferOvernightBase([]ScheduleEvent{eveningFL, morningFL}, noon, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("evening alone is not enough", func(t *testing.T) {
		_, _, ok := InferOvernightBase([]ScheduleEvent{eveningFL}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("morning alone is not enough", func(t *testing.T) {
		_, _, ok := InferOvernightBase([]ScheduleEvent{morningFL}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("different regions yield nothing", func(t *testing.T) {
		_, _, ok := InferOvernightBase([]ScheduleEvent{eveningFL, morningDC}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("afternoon event is not an evening anchor", func(t *testing.T) {
		afternoon := eveningFL
		afternoon.StartUTC = time.Date(2025, 6, 3, 14, 0, 0, 0, tz).UTC()
		_, _, ok := InferOvernightBase([]ScheduleEvent{afternoon, morningFL}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("stale evening event beyond the look back is ignored", func(t *testing.T) {
		stale := eveningFL
		stale.StartUTC = now.Add(-15 * time.Hour)
		_, _, ok := InferOvernightBase([]ScheduleEvent{stale, morningFL}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("summary text alone does not anchor", func(t *testing.T) {
		evening := ScheduleEvent{
			StartUTC: time.Date(2025, 6, 3, 19, 30, 0, 0, tz).UTC(),
			Summary:  "Dinner - The White House",
		}
		_, _, ok := InferOvernightBase([]ScheduleEvent{evening, morningDC}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("anchors outside every base region", func(t *testing.T) {
		evening := ScheduleEvent{
			StartUTC: time.Date(2025, 6, 3, 19, 0, 0, 0, tz).UTC(),
			Location: "Camp David",
		}
		morning := ScheduleEvent{
			StartUTC: time.Date(2025, 6, 4, 9, 0, 0, 0, tz).UTC(),
			Location: "Camp David",
		}
		_, _, ok := InferOvernightBase([]ScheduleEvent{evening, morning}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("newest evening event outside every region blocks inference", func(t *testing.T) {
		older := ScheduleEvent{
			StartUTC: time.Date(2025, 6, 3, 18, 0, 0, 0, tz).UTC(),
			Summary:  "Roundtable",
			Location: "Mar-a-Lago",
		}
		newest := ScheduleEvent{
			StartUTC: time.Date(2025, 6, 3, 20, 0, 0, 0, tz).UTC(),
			Summary:  "Dinner",
			Location: "Camp David",
		}
		// The 20:00 event is the anchor even though it classifies into no
		// region; the older Mar-a-Lago event must not be consulted.
		_, _, ok := InferOvernightBase([]ScheduleEvent{older, newest, morningFL}, now, tz, aliases, bases)
		assert.False(t, ok)
	})

	t.Run("most recent evening anchor wins", func(t *testing.T) {
		earlier := ScheduleEvent{
			StartUTC: time.Date(2025, 6, 3, 17, 30, 0, 0, tz).UTC(),
			Summary:  "Reception",
			Location: "Trump International Golf Club",
		}
		base, anchor, ok := InferOvernightBase([]ScheduleEvent{earlier, eveningFL, morningFL}, now, tz, aliases, bases)
		require.True(t, ok)
		assert.Equal(t, "fl", base.Key)
		assert.Equal(t, "Dinner remarks", anchor.Summary)
	})
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasEffectiveLocation(t *testing.T) {
	aliases, err := DefaultAliases()
	require.NoError(t, err)

	assert.True(t, HasEffectiveLocation(ScheduleEvent{Location: "The White House"}, aliases))
	assert.True(t, HasEffectiveLocation(ScheduleEvent{Location: "somewhere unlisted"}, aliases))
	assert.True(t, HasEffectiveLocation(ScheduleEvent{Summary: "In-Town Pool Call Time"}, aliases))
	assert.False(t, HasEffectiveLocation(ScheduleEvent{Summary: "Lid called"}, aliases))
}

func TestCurrentEvent(t *testing.T) {
	aliases, err := DefaultAliases()
	require.NoError(t, err)
	now := time.Date(2025, 6, 3, 18, 0, 0, 0, time.UTC)

	t.Run("no events", func(t *testing.T) {
		assert.Nil(t, CurrentEvent(nil, now, aliases))
	})

	t.Run("most recent placeable past event wins", func(t *testing.T) {
		events := []ScheduleEvent{
			{StartUTC: now.Add(-10 * time.Hour), Summary: "Briefing", Location: "The White House"},
			{StartUTC: now.Add(-2 * time.Hour), Summary: "Remarks", Location: "East Room"},
			{StartUTC: now.Add(-1 * time.Hour), Summary: "Lid called"},
		}
		ev := CurrentEvent(events, now, aliases)
		require.NotNil(t, ev)
		assert.Equal(t, "Remarks", ev.Summary)
	})

	t.Run("unplaceable recent event is still the fallback", func(t *testing.T) {
		events := []ScheduleEvent{
			{StartUTC: now.Add(-3 * time.Hour), Summary: "Travel pool gathers"},
		}
		ev := CurrentEvent(events, now, aliases)
		require.NotNil(t, ev)
		assert.Equal(t, "Travel pool gathers", ev.Summary)
	})

	t.Run("past window excludes events older than 36h", func(t *testing.T) {
		events := []ScheduleEvent{
			{StartUTC: now.Add(-37 * time.Hour), Summary: "Old", Location: "The White House"},
			{StartUTC: now.Add(6 * time.Hour), Summary: "Upcoming", Location: "Mar-a-Lago"},
		}
		ev := CurrentEvent(events, now, aliases)
		require.NotNil(t, ev)
		assert.Equal(t, "Upcoming", ev.Summary)
	})

	t.Run("upcoming window excludes events beyond 24h", func(t *testing.T) {
		events := []ScheduleEvent{
			{StartUTC: now.Add(30 * time.Hour), Summary: "Too far", Location: "Mar-a-Lago"},
		}
		assert.Nil(t, CurrentEvent(events, now, aliases))
	})

	t.Run("placeable upcoming beats unplaceable sooner one", func(t *testing.T) {
		events := []ScheduleEvent{
			{StartUTC: now.Add(2 * time.Hour), Summary: "TBD"},
			{StartUTC: now.Add(5 * time.Hour), Summary: "Rally", Location: "Palm Beach Intl Airport"},
		}
		ev := CurrentEvent(events, now, aliases)
		require.NotNil(t, ev)
		assert.Equal(t, "Rally", ev.Summary)
	})
}

func TestContextEvents(t *testing.T) {
	aliases, err := DefaultAliases()
	require.NoError(t, err)
	base := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	target := ScheduleEvent{StartUTC: base, Summary: "Meeting", Location: "Springfield"}

	t.Run("collects nearest resolvable neighbors", func(t *testing.T) {
		events := []ScheduleEvent{
			target,
			{StartUTC: base.Add(-2 * time.Hour), Location: "The White House"},
			{StartUTC: base.Add(-5 * time.Hour), Location: "Blair House"},
			{StartUTC: base.Add(-8 * time.Hour), Location: "Camp David"},
		}
		ctx := ContextEvents(events, target, aliases, MinContextEvents)
		require.Len(t, ctx, 2)
		assert.Equal(t, base.Add(-2*time.Hour), ctx[0].Time)
		assert.Equal(t, base.Add(-5*time.Hour), ctx[1].Time)
	})

	t.Run("skips the target and unresolvable neighbors", func(t *testing.T) {
		events := []ScheduleEvent{
			target,
			{StartUTC: base.Add(-time.Hour), Location: "an unlisted diner"},
			{StartUTC: base.Add(3 * time.Hour), Location: "Joint Base Andrews"},
		}
		ctx := ContextEvents(events, target, aliases, MinContextEvents)
		require.Len(t, ctx, 1)
		assert.Equal(t, 38.810830, ctx[0].Lat)
	})

	t.Run("empty when nothing resolves", func(t *testing.T) {
		assert.Empty(t, ContextEvents([]ScheduleEvent{target}, target, aliases, MinContextEvents))
	})
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAirborneConfidence(t *testing.T) {
	t.Run("fresh snapshot scores full", func(t *testing.T) {
		c, ok := AirborneConfidence(2 * time.Minute)
		assert.True(t, ok)
		assert.Equal(t, 95, c)
	})

	t.Run("full window boundary is inclusive", func(t *testing.T) {
		c, ok := AirborneConfidence(5 * time.Minute)
		assert.True(t, ok)
		assert.Equal(t, 95, c)
	})

	t.Run("decays between five and ten minutes", func(t *testing.T) {
		c, ok := AirborneConfidence(7*time.Minute + 30*time.Second)
		assert.True(t, ok)
		assert.Equal(t, 85, c)
	})

	t.Run("reaches floor at max age", func(t *testing.T) {
		c, ok := AirborneConfidence(10 * time.Minute)
		assert.True(t, ok)
		assert.Equal(t, 75, c)
	})

	t.Run("rejected past max age", func(t *testing.T) {
		_, ok := AirborneConfidence(10*time.Minute + time.Second)
		assert.False(t, ok)
	})
}

func TestGroundedConfidence(t *testing.T) {
	t.Run("fresh snapshot scores full", func(t *testing.T) {
		c, ok := GroundedConfidence(9 * time.Minute)
		assert.True(t, ok)
		assert.Equal(t, 90, c)
	})

	t.Run("decays between ten and twenty minutes", func(t *testing.T) {
		c, ok := GroundedConfidence(15 * time.Minute)
		assert.True(t, ok)
		assert.Equal(t, 80, c)
	})

	t.Run("rejected past max age", func(t *testing.T) {
		_, ok := GroundedConfidence(21 * time.Minute)
		assert.False(t, ok)
	})
}

func TestFlightConfidence(t *testing.T) {
	air, _ := FlightConfidence(time.Minute, false)
	ground, _ := FlightConfidence(time.Minute, true)
	assert.Equal(t, 95, air)
	assert.Equal(t, 90, ground)
}

func TestScheduleConfidence(t *testing.T) {
	t.Run("fresh event scores base", func(t *testing.T) {
		assert.Equal(t, 70, ScheduleConfidence(0))
	})

	t.Run("future event counts as fresh", func(t *testing.T) {
		assert.Equal(t, 70, ScheduleConfidence(-6*time.Hour))
	})

	t.Run("halfway through the span", func(t *testing.T) {
		assert.Equal(t, 50, ScheduleConfidence(36*time.Hour))
	})

	t.Run("floors at 30 and never rejects", func(t *testing.T) {
		assert.Equal(t, 30, ScheduleConfidence(72*time.Hour))
		assert.Equal(t, 30, ScheduleConfidence(30*24*time.Hour))
	})
}

func TestArrivalConfidence(t *testing.T) {
	t.Run("fresh record scores base", func(t *testing.T) {
		c, ok := ArrivalConfidence(time.Hour)
		assert.True(t, ok)
		assert.Equal(t, 30, c)
	})

	t.Run("loses three points per day", func(t *testing.T) {
		c, ok := ArrivalConfidence(2 * 24 * time.Hour)
		assert.True(t, ok)
		assert.Equal(t, 24, c)
	})

	t.Run("floors at 10", func(t *testing.T) {
		c, ok := ArrivalConfidence(6*24*time.Hour + 23*time.Hour)
		assert.True(t, ok)
		assert.Equal(t, 10, c)
	})

	t.Run("exactly seven days is accepted", func(t *testing.T) {
		c, ok := ArrivalConfidence(ArrivalMaxAge)
		assert.True(t, ok)
		assert.Equal(t, 10, c)
	})

	t.Run("one second past seven days is rejected", func(t *testing.T) {
		_, ok := ArrivalConfidence(ArrivalMaxAge + time.Second)
		assert.False(t, ok)
	})
}

func TestApplyTFRBonus(t *testing.T) {
	assert.Equal(t, 80, ApplyTFRBonus(70))
	assert.Equal(t, 95, ApplyTFRBonus(90), "bonus is capped at 95")
	assert.Equal(t, 95, ApplyTFRBonus(95))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0, ClampConfidence(-5))
	assert.Equal(t, 57, ClampConfidence(57))
	assert.Equal(t, 100, ClampConfidence(140))
}

func TestDecayMonotonicity(t *testing.T) {
	prev := 100
	for age := time.Duration(0); age <= 10*time.Minute; age += 15 * time.Second {
		c, ok := AirborneConfidence(age)
		if !ok {
			break
		}
		assert.LessOrEqual(t, c, prev, "confidence must never rise with age (age=%s)", age)
		prev = c
	}
}

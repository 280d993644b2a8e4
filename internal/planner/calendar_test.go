package planner

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSprintWindow(t *testing.T) {
    start := date(2026, time.January, 5) // a Monday
    ws, we := SprintWindow(start, 1)
    assert.Equal(t, start, ws)
    assert.Equal(t, date(2026, time.January, 18), we)

    ws, we = SprintWindow(start, 3)
    assert.Equal(t, date(2026, time.February, 2), ws)
    assert.Equal(t, date(2026, time.February, 15), we)
}

func TestSprintWindowIgnoresTimeOfDay(t *testing.T) {
    start := time.Date(2026, time.January, 5, 14, 30, 0, 0, time.UTC)
    ws, _ := SprintWindow(start, 1)
    assert.Equal(t, date(2026, time.January, 5), ws)
}

func TestSprintAt(t *testing.T) {
    start := date(2026, time.January, 5)
    assert.Equal(t, 1, SprintAt(start, start))
    assert.Equal(t, 1, SprintAt(start, date(2026, time.January, 18)))
    assert.Equal(t, 2, SprintAt(start, date(2026, time.January, 19)))
    assert.Equal(t, 3, SprintAt(start, date(2026, time.February, 2)))
}

func TestSprintAtClampsDatesBeforeStart(t *testing.T) {
    start := date(2026, time.January, 5)
    assert.Equal(t, 1, SprintAt(start, date(2025, time.December, 26)))
}

func TestRemainingWorkdays(t *testing.T) {
    // full sprint window Mon..Sun(+1wk) holds exactly ten weekdays
    require.Equal(t, 10, RemainingWorkdays(date(2026, time.January, 5), date(2026, time.January, 18)))
    // Wed of the second week through the window end: Wed, Thu, Fri
    assert.Equal(t, 3, RemainingWorkdays(date(2026, time.January, 14), date(2026, time.January, 18)))
    // weekend only
    assert.Equal(t, 0, RemainingWorkdays(date(2026, time.January, 17), date(2026, time.January, 18)))
    // from after to
    assert.Equal(t, 0, RemainingWorkdays(date(2026, time.January, 19), date(2026, time.January, 18)))
}

func TestSlotOrderingAndLabels(t *testing.T) {
    assert.Equal(t, "4", Scheduled(4).Label())
    assert.Equal(t, "100", Overflow.Label())
    assert.True(t, Scheduled(1).Before(Scheduled(2)))
    assert.True(t, Scheduled(99).Before(Overflow))
    assert.False(t, Overflow.Before(Scheduled(1)))
    assert.False(t, Overflow.Before(Overflow))
    assert.True(t, Overflow.Equal(Overflow))
}

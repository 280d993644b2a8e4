/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package planner

import "time"

const (
    // SprintDays is fixed domain policy: every sprint is a 14-day window.
    SprintDays = 14
    // sprintWorkdays is the weekday count inside one sprint, used for
    // prorating an in-progress sprint.
    sprintWorkdays = 10
)

// Midnight truncates t to the start of its day; placement and proration
// compare dates at day granularity only.
func Midnight(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SprintWindow maps a 1-based sprint number onto its [start, end] dates:
// start = projectStart + (n-1)*14d, end = start + 13d.
func SprintWindow(projectStart time.Time, n int) (time.Time, time.Time) {
    start := Midnight(projectStart).AddDate(0, 0, (n-1)*SprintDays)
    end := start.AddDate(0, 0, SprintDays-1)
    return start, end
}

// SprintAt returns the sprint number whose window contains date. Dates before
// the project start clamp to sprint 1: work due before the project even
// begins is still schedulable in the earliest window.
func SprintAt(projectStart, date time.Time) int {
    days := int(Midnight(date).Sub(Midnight(projectStart)).Hours() / 24)
    if days < 0 { return 1 }
    return days/SprintDays + 1
}

// RemainingWorkdays counts Mon-Fri from from to to, inclusive of from. The
// walk is day-by-day; callers pass midnight-truncated dates.
func RemainingWorkdays(from, to time.Time) int {
    from = Midnight(from)
    to = Midnight(to)
    n := 0
    for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
        wd := d.Weekday()
        if wd != time.Saturday && wd != time.Sunday { n++ }
    }
    return n
}

/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package planner

import "strconv"

// overflowLabel is what the legacy sheet format calls the "could not be
// scheduled" bucket. It is only a representation; the engine never compares
// against the number.
const overflowLabel = "100"

// Slot is where an issue landed: a numbered sprint, or the terminal overflow
// bucket for work that could not be scheduled within the horizon.
type Slot struct {
    Sprint      int
    Unscheduled bool
}

func Scheduled(n int) Slot { return Slot{Sprint: n} }

// Overflow is the terminal capacity-less bucket. Downstream consumers render
// it as sprint "100" and flag the issue as unplanned.
var Overflow = Slot{Unscheduled: true}

func (s Slot) Label() string {
    if s.Unscheduled { return overflowLabel }
    return strconv.Itoa(s.Sprint)
}

// Before reports strict ordering; overflow sorts after every numbered sprint
// and never before itself.
func (s Slot) Before(o Slot) bool {
    if s.Unscheduled { return false }
    if o.Unscheduled { return true }
    return s.Sprint < o.Sprint
}

func (s Slot) Equal(o Slot) bool {
    if s.Unscheduled || o.Unscheduled { return s.Unscheduled == o.Unscheduled }
    return s.Sprint == o.Sprint
}

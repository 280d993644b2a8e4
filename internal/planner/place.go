/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package planner

import (
    "strings"
    "time"

    "github.com/example/sprint-pilot/internal/domain"
)

// Unassigned is the assignee recorded for issues with no named owner; it is
// normally also one of the pooled pseudo-assignees.
const Unassigned = "Unassigned"

// Config is the per-run policy for one project's planning computation.
type Config struct {
    ProjectStart time.Time
    Now          time.Time
    // Horizon bounds the forward scan during placement (not the capacity
    // horizon, which is larger).
    Horizon int
}

func (c Config) horizon() int {
    if c.Horizon <= 0 { return 26 }
    return c.Horizon
}

// PlannedIssue is one placement decision. Exactly one exists per input issue;
// the repair pass may reassign its Slot but nothing else.
type PlannedIssue struct {
    Issue    domain.Issue
    Assignee string
    Hours    float64
    Slot     Slot
}

// Result is the sole output of the engine: every placement plus the capacity
// records and usage aggregates of the run's ledger.
type Result struct {
    Planned []*PlannedIssue
    byKey   map[string]*PlannedIssue
    ledger  *Ledger
}

func (r *Result) ByKey(key string) *PlannedIssue { return r.byKey[key] }

func (r *Result) Capacities() []*SprintCapacity { return r.ledger.Records() }

func (r *Result) UsedByEmployee() map[string]map[string]float64 { return r.ledger.UsedByEmployee() }

func (r *Result) SprintHours() map[string]map[string]float64 { return r.ledger.SprintHours() }

func (r *Result) Unplanned() int {
    n := 0
    for _, pi := range r.Planned {
        if pi.Slot.Unscheduled { n++ }
    }
    return n
}

// Plan runs the greedy pass: issues are taken in placement order and each is
// committed to the first feasible sprint from its target window, or to the
// overflow bucket when nothing in the horizon fits. Infeasibility is data,
// never an error.
func Plan(issues []domain.Issue, g *Graph, led *Ledger, cfg Config) *Result {
    res := &Result{byKey: map[string]*PlannedIssue{}, ledger: led}
    for _, iss := range OrderIssues(issues, g) {
        // a keyless issue cannot be linked or tracked; drop it here so
        // placements never collide in the key index
        if strings.TrimSpace(iss.Key) == "" { continue }
        res.place(iss, g, led, cfg)
    }
    return res
}

func (r *Result) place(iss domain.Issue, g *Graph, led *Ledger, cfg Config) {
    assignee := strings.TrimSpace(iss.Assignee)
    if assignee == "" { assignee = Unassigned }
    hours := float64(iss.EstimateSeconds) / 3600

    target := SprintAt(cfg.ProjectStart, cfg.Now)
    if iss.DueAt != nil { target = SprintAt(cfg.ProjectStart, *iss.DueAt) }

    slot := Overflow
    if !r.predecessorStranded(iss.Key, g) {
        for s := target; s < target+cfg.horizon(); s++ {
            if !r.predecessorsBefore(iss.Key, g, s) { continue }
            if !r.successorsAfter(iss.Key, g, s) { continue }
            if !led.Fits(assignee, s, hours) { continue }
            slot = Scheduled(s)
            break
        }
    }

    pi := &PlannedIssue{Issue: iss, Assignee: assignee, Hours: hours, Slot: slot}
    r.Planned = append(r.Planned, pi)
    r.byKey[iss.Key] = pi
    led.Consume(assignee, slot, hours)

    // a successor cannot sit in a real sprint behind an unschedulable
    // predecessor; drag already-placed successors into overflow with us
    if slot.Unscheduled {
        for _, sk := range g.Successors(iss.Key) {
            if spi := r.byKey[sk]; spi != nil && !spi.Slot.Unscheduled {
                r.move(spi, Overflow, led)
            }
        }
    }
}

// predecessorStranded reports whether any committed predecessor sits in the
// overflow bucket, which makes every numbered sprint infeasible outright.
func (r *Result) predecessorStranded(key string, g *Graph) bool {
    for _, pk := range g.Predecessors(key) {
        if pi := r.byKey[pk]; pi != nil && pi.Slot.Unscheduled { return true }
    }
    return false
}

// predecessorsBefore: every committed predecessor must sit strictly before s.
func (r *Result) predecessorsBefore(key string, g *Graph, s int) bool {
    for _, pk := range g.Predecessors(key) {
        pi := r.byKey[pk]
        if pi == nil { continue }
        if pi.Slot.Unscheduled || pi.Slot.Sprint >= s { return false }
    }
    return true
}

// successorsAfter: every committed successor must sit strictly after s.
func (r *Result) successorsAfter(key string, g *Graph, s int) bool {
    for _, sk := range g.Successors(key) {
        pi := r.byKey[sk]
        if pi == nil || pi.Slot.Unscheduled { continue }
        if pi.Slot.Sprint <= s { return false }
    }
    return true
}

// move reassigns a placement, keeping the ledger and both aggregates in sync.
func (r *Result) move(pi *PlannedIssue, to Slot, led *Ledger) {
    if pi.Slot.Equal(to) { return }
    led.Release(pi.Assignee, pi.Slot, pi.Hours)
    pi.Slot = to
    led.Consume(pi.Assignee, to, pi.Hours)
}

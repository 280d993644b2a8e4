/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package planner

import (
    "math"
    "strings"
    "time"

    "github.com/example/sprint-pilot/internal/domain"
)

// SprintCapacity is how many hours one employee can absorb in one sprint.
// Available starts at Capacity (prorated for the sprint in progress, zero for
// elapsed sprints) and is mutated downward as issues are committed.
type SprintCapacity struct {
    Employee    string
    Project     string
    Sprint      int
    Capacity    float64
    Available   float64
    WindowStart *time.Time
}

// Ledger owns every capacity record of one planning run plus the two usage
// aggregates that placement and repair must keep in sync. Each run builds its
// own Ledger; records are mutated in place and must never be shared between
// concurrent runs.
type Ledger struct {
    recs  []*SprintCapacity
    byEmp map[string]map[int]*SprintCapacity
    pool  map[string]bool

    // pooledUsed tracks hours drawn by the pseudo-assignees; they have no
    // records of their own to decrement.
    pooledUsed map[int]float64

    usedByEmployee map[string]map[string]float64 // employee -> sprint label -> hours
    usedBySprint   map[string]map[string]float64 // sprint label -> employee -> hours
}

// BuildLedger derives one record per (employee, sprint) for sprints
// 1..horizon. Base sprint capacity is weekly hours x 2. When projectStart is
// set, the sprint containing now is prorated by remaining workdays and fully
// elapsed sprints get zero; without an anchor every sprint stays at full
// capacity. Employees with zero weekly hours still get records so they do not
// vanish from reporting. Rows allocated to other projects are skipped.
func BuildLedger(rows []domain.CapacityRow, project string, projectStart *time.Time, now time.Time, horizon int, pool []string) *Ledger {
    l := &Ledger{
        byEmp:          map[string]map[int]*SprintCapacity{},
        pool:           map[string]bool{},
        pooledUsed:     map[int]float64{},
        usedByEmployee: map[string]map[string]float64{},
        usedBySprint:   map[string]map[string]float64{},
    }
    for _, p := range pool { l.pool[p] = true }
    if horizon <= 0 { horizon = 100 }

    add := func(emp string, weekly float64) {
        if emp == "" { return }
        if _, ok := l.byEmp[emp]; ok { return }
        base := weekly * 2
        if base < 0 { base = 0 }
        perSprint := map[int]*SprintCapacity{}
        for n := 1; n <= horizon; n++ {
            rec := &SprintCapacity{Employee: emp, Project: project, Sprint: n, Capacity: base, Available: base}
            if projectStart != nil {
                ws, we := SprintWindow(*projectStart, n)
                rec.WindowStart = &ws
                today := Midnight(now)
                if today.After(we) {
                    rec.Available = 0
                } else if !today.Before(ws) {
                    rec.Available = math.Round(base * float64(RemainingWorkdays(today, we)) / sprintWorkdays)
                }
            }
            perSprint[n] = rec
            l.recs = append(l.recs, rec)
        }
        l.byEmp[emp] = perSprint
    }

    for _, row := range rows {
        if len(row.Projects) > 0 && !containsFold(row.Projects, project) { continue }
        add(row.Employee, row.WeeklyHours)
    }
    // pseudo-assignees carry no capacity of their own; they draw from the
    // pooled remainder at placement time
    for _, p := range pool { add(p, 0) }
    return l
}

func containsFold(list []string, v string) bool {
    for _, s := range list {
        if strings.EqualFold(strings.TrimSpace(s), v) { return true }
    }
    return false
}

func (l *Ledger) IsPool(emp string) bool { return l.pool[emp] }

func (l *Ledger) Available(emp string, sprint int) float64 {
    if per, ok := l.byEmp[emp]; ok {
        if rec, ok := per[sprint]; ok { return rec.Available }
    }
    return 0
}

// PooledAvailable is what the pseudo-assignees may still draw in a sprint:
// the sum of every named employee's remaining availability minus what the
// pool has already consumed there.
func (l *Ledger) PooledAvailable(sprint int) float64 {
    sum := 0.0
    for emp, per := range l.byEmp {
        if l.pool[emp] { continue }
        if rec, ok := per[sprint]; ok { sum += rec.Available }
    }
    return sum - l.pooledUsed[sprint]
}

// Fits reports whether emp can absorb hours in sprint. Pool members are
// checked against the pooled remainder instead of a named record.
func (l *Ledger) Fits(emp string, sprint int, hours float64) bool {
    if hours <= 0 { return true }
    if l.pool[emp] { return l.PooledAvailable(sprint) >= hours }
    return l.Available(emp, sprint) >= hours
}

// Consume commits hours for emp in slot, updating the capacity record (or the
// pooled counter) and both usage aggregates. The overflow bucket has no
// capacity to decrement; only the aggregates record it.
func (l *Ledger) Consume(emp string, slot Slot, hours float64) {
    l.addUsed(emp, slot.Label(), hours)
    if slot.Unscheduled { return }
    if l.pool[emp] {
        l.pooledUsed[slot.Sprint] += hours
        return
    }
    if per, ok := l.byEmp[emp]; ok {
        if rec, ok := per[slot.Sprint]; ok { rec.Available -= hours }
    }
}

// Release is the exact inverse of Consume; repair moves call Release on the
// old slot before Consume on the new one.
func (l *Ledger) Release(emp string, slot Slot, hours float64) {
    l.addUsed(emp, slot.Label(), -hours)
    if slot.Unscheduled { return }
    if l.pool[emp] {
        l.pooledUsed[slot.Sprint] -= hours
        return
    }
    if per, ok := l.byEmp[emp]; ok {
        if rec, ok := per[slot.Sprint]; ok { rec.Available += hours }
    }
}

func (l *Ledger) addUsed(emp, label string, delta float64) {
    if l.usedByEmployee[emp] == nil { l.usedByEmployee[emp] = map[string]float64{} }
    l.usedByEmployee[emp][label] += delta
    if l.usedBySprint[label] == nil { l.usedBySprint[label] = map[string]float64{} }
    l.usedBySprint[label][emp] += delta
}

func (l *Ledger) Records() []*SprintCapacity { return l.recs }

// UsedByEmployee is employee -> sprint label -> committed hours.
func (l *Ledger) UsedByEmployee() map[string]map[string]float64 { return l.usedByEmployee }

// SprintHours is sprint label -> employee -> committed hours.
func (l *Ledger) SprintHours() map[string]map[string]float64 { return l.usedBySprint }

/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package planner

// maxRepairDepth caps a single cascade. The moved-set already guarantees
// termination; the cap is a second net against pathological link data.
const maxRepairDepth = 64

// Repair re-validates a committed schedule against the due-date, predecessor
// and successor invariants and fixes violations by relocating issues,
// cascading through the dependency graph. An issue is moved at most once per
// run. Returns whether any violation was found and fixed; running Repair
// again on the result is a no-op when the schedule is consistent.
func Repair(res *Result, g *Graph, cfg Config) bool {
    moved := map[string]bool{}
    changed := false
    for _, pi := range res.Planned {
        if repairIssue(res, g, cfg, pi.Issue.Key, moved, 0) { changed = true }
    }
    return changed
}

func repairIssue(res *Result, g *Graph, cfg Config, key string, moved map[string]bool, depth int) bool {
    if depth > maxRepairDepth { return false }
    pi := res.byKey[key]
    if pi == nil { return false }
    changed := false
    cascade := false

    // due-date invariant: an issue must not sit in a sprint that starts
    // after its due date; relocate to the sprint containing the date
    if pi.Issue.DueAt != nil && !pi.Slot.Unscheduled && !moved[key] {
        ws, _ := SprintWindow(cfg.ProjectStart, pi.Slot.Sprint)
        if pi.Issue.DueAt.Before(ws) {
            res.move(pi, Scheduled(SprintAt(cfg.ProjectStart, *pi.Issue.DueAt)), res.ledger)
            moved[key] = true
            changed, cascade = true, true
        }
    }

    // predecessor invariant: predecessors must sit strictly before us
    for _, pk := range g.Predecessors(key) {
        pp := res.byKey[pk]
        if pp == nil || moved[key] { continue }
        if pp.Slot.Unscheduled {
            if !pi.Slot.Unscheduled {
                res.move(pi, Overflow, res.ledger)
                moved[key] = true
                changed, cascade = true, true
            }
        } else if !pi.Slot.Unscheduled && pp.Slot.Sprint >= pi.Slot.Sprint {
            res.move(pi, Scheduled(pp.Slot.Sprint+1), res.ledger)
            moved[key] = true
            changed, cascade = true, true
        }
    }

    // successor invariant: successors must sit strictly after us
    for _, sk := range g.Successors(key) {
        sp := res.byKey[sk]
        if sp == nil || moved[sk] || sp.Slot.Unscheduled { continue }
        if pi.Slot.Unscheduled {
            res.move(sp, Overflow, res.ledger)
            moved[sk] = true
            changed = true
            if repairIssue(res, g, cfg, sk, moved, depth+1) { changed = true }
        } else if sp.Slot.Sprint <= pi.Slot.Sprint {
            res.move(sp, Scheduled(pi.Slot.Sprint+1), res.ledger)
            moved[sk] = true
            changed = true
            if repairIssue(res, g, cfg, sk, moved, depth+1) { changed = true }
        }
    }

    // a relocation of this issue can break its own neighborhood; re-check
    // both sides transitively
    if cascade {
        for _, pk := range g.Predecessors(key) {
            if repairIssue(res, g, cfg, pk, moved, depth+1) { changed = true }
        }
        for _, sk := range g.Successors(key) {
            if repairIssue(res, g, cfg, sk, moved, depth+1) { changed = true }
        }
    }
    return changed
}

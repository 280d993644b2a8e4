/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package planner

import (
    "sort"
    "strings"

    "github.com/example/sprint-pilot/internal/domain"
)

// Placement buckets, evaluated first-match-wins. Anchors (issues others
// depend on) go first so dependents find them committed and the repair pass
// has less to do.
const (
    bucketAnchor = iota // is a predecessor of something
    bucketHasPreds      // depends on something still open
    bucketSuccOnly      // carries precedence links, but all counterparts closed
    bucketDueDated      // no precedence, but a due date
    bucketRest
)

func bucketOf(iss domain.Issue, g *Graph) int {
    switch {
    case len(g.Successors(iss.Key)) > 0:
        return bucketAnchor
    case len(g.Predecessors(iss.Key)) > 0:
        return bucketHasPreds
    case g.HasPrecedenceLinks(iss.Key):
        return bucketSuccOnly
    case iss.DueAt != nil:
        return bucketDueDated
    default:
        return bucketRest
    }
}

// PriorityRank maps Jira priority names to a sort rank; lower is more urgent.
// Unknown priorities sort with Lowest.
func PriorityRank(p string) int {
    switch strings.ToLower(strings.TrimSpace(p)) {
    case "highest", "blocker":
        return 0
    case "high", "critical":
        return 1
    case "medium":
        return 2
    case "low":
        return 3
    default:
        return 4
    }
}

// OrderIssues returns the issues in placement order: five disjoint buckets,
// then priority rank within each, ties broken by key for determinism.
func OrderIssues(issues []domain.Issue, g *Graph) []domain.Issue {
    out := make([]domain.Issue, len(issues))
    copy(out, issues)
    sort.SliceStable(out, func(i, j int) bool {
        a, b := out[i], out[j]
        ba, bb := bucketOf(a, g), bucketOf(b, g)
        if ba != bb { return ba < bb }
        ra, rb := PriorityRank(a.Priority), PriorityRank(b.Priority)
        if ra != rb { return ra < rb }
        return a.Key < b.Key
    })
    return out
}

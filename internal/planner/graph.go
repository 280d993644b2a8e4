/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package planner

import (
    "sort"
    "strings"

    "github.com/example/sprint-pilot/internal/domain"
)

// GraphOptions names which link types carry precedence semantics and which
// statuses count as closed. A closed predecessor no longer constrains
// scheduling, so its edges are dropped at build time.
type GraphOptions struct {
    PrecedenceTypes []string
    ClosedStatuses  []string
}

// Graph is the per-run adjacency over active precedence edges. It is built
// once from the flat link arrays so the repair cascades never rescan links.
type Graph struct {
    preds map[string][]string
    succs map[string][]string
    // linked marks issues that carry precedence-typed links at all, even when
    // every linked issue is already closed; ordering treats those as
    // successor-only work.
    linked map[string]bool
}

func BuildGraph(issues []domain.Issue, opts GraphOptions) *Graph {
    g := &Graph{preds: map[string][]string{}, succs: map[string][]string{}, linked: map[string]bool{}}
    closed := map[string]bool{}
    for _, s := range opts.ClosedStatuses { closed[strings.ToLower(strings.TrimSpace(s))] = true }
    isPrecedence := func(t string) bool {
        for _, p := range opts.PrecedenceTypes {
            if strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(t)) { return true }
        }
        return false
    }

    edge := map[[2]string]bool{}
    addEdge := func(pred, succ string) {
        if pred == "" || succ == "" || pred == succ { return }
        k := [2]string{pred, succ}
        if edge[k] { return }
        edge[k] = true
        g.preds[succ] = append(g.preds[succ], pred)
        g.succs[pred] = append(g.succs[pred], succ)
    }

    for _, iss := range issues {
        for _, ln := range iss.Links {
            if !isPrecedence(ln.Type) { continue }
            g.linked[iss.Key] = true
            if closed[strings.ToLower(strings.TrimSpace(ln.OtherStatus))] { continue }
            switch strings.ToLower(ln.Direction) {
            case "outward":
                // this issue has OtherKey as a predecessor
                addEdge(ln.OtherKey, iss.Key)
            case "inward":
                // this issue is a predecessor of OtherKey
                addEdge(iss.Key, ln.OtherKey)
            }
        }
    }
    for k := range g.preds { sort.Strings(g.preds[k]) }
    for k := range g.succs { sort.Strings(g.succs[k]) }
    return g
}

// Predecessors returns the active (non-closed) issues key depends on.
func (g *Graph) Predecessors(key string) []string { return g.preds[key] }

// Successors returns the active issues that depend on key.
func (g *Graph) Successors(key string) []string { return g.succs[key] }

// HasPrecedenceLinks reports whether key carried precedence-typed links in
// the input at all, including links to issues that are already closed.
func (g *Graph) HasPrecedenceLinks(key string) bool { return g.linked[key] }

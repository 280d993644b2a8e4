package planner

import (
    "testing"
    "time"

    "github.com/example/sprint-pilot/internal/domain"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var graphOpts = GraphOptions{
    PrecedenceTypes: []string{"Precedes"},
    ClosedStatuses:  []string{"Done", "Closed"},
}

func precedes(other, status string) domain.IssueLink {
    return domain.IssueLink{Type: "Precedes", Direction: "outward", OtherKey: other, OtherStatus: status}
}

func TestBuildGraphFiltersTypeDirectionAndStatus(t *testing.T) {
    issues := []domain.Issue{
        {Key: "SP-2", Links: []domain.IssueLink{precedes("SP-1", "Open")}},
        {Key: "SP-3", Links: []domain.IssueLink{
            {Type: "Relates", Direction: "outward", OtherKey: "SP-1", OtherStatus: "Open"},
            {Type: "Precedes", Direction: "inward", OtherKey: "SP-4", OtherStatus: "Open"},
            precedes("SP-9", "Done"), // closed predecessor no longer constrains
        }},
    }
    g := BuildGraph(issues, graphOpts)

    assert.Equal(t, []string{"SP-1"}, g.Predecessors("SP-2"))
    assert.Equal(t, []string{"SP-2"}, g.Successors("SP-1"))
    assert.Equal(t, []string{"SP-4"}, g.Successors("SP-3"))
    assert.Empty(t, g.Predecessors("SP-3"))
    assert.True(t, g.HasPrecedenceLinks("SP-3"))
    assert.True(t, g.HasPrecedenceLinks("SP-2"))
    assert.False(t, g.HasPrecedenceLinks("E-unlinked"))
}

func TestOrderIssuesBuckets(t *testing.T) {
    due := date(2026, time.March, 1)
    issues := []domain.Issue{
        {Key: "E-plain"},
        {Key: "D-due", DueAt: &due},
        {Key: "C-succ-only", Links: []domain.IssueLink{precedes("SP-0", "Done")}},
        {Key: "B-dependent", Links: []domain.IssueLink{precedes("A-anchor", "Open")}},
        {Key: "A-anchor"},
    }
    g := BuildGraph(issues, graphOpts)
    ordered := OrderIssues(issues, g)

    keys := make([]string, len(ordered))
    for i, iss := range ordered { keys[i] = iss.Key }
    require.Equal(t, []string{"A-anchor", "B-dependent", "C-succ-only", "D-due", "E-plain"}, keys)
}

func TestOrderIssuesPriorityWithinBucket(t *testing.T) {
    issues := []domain.Issue{
        {Key: "Z", Priority: "Highest"},
        {Key: "A", Priority: "Low"},
        {Key: "M", Priority: "Highest"},
        {Key: "Q"}, // unknown priority sorts with Lowest
        {Key: "B", Priority: "Lowest"},
    }
    g := BuildGraph(issues, graphOpts)
    ordered := OrderIssues(issues, g)

    keys := make([]string, len(ordered))
    for i, iss := range ordered { keys[i] = iss.Key }
    assert.Equal(t, []string{"M", "Z", "A", "B", "Q"}, keys)
}

func TestPriorityRank(t *testing.T) {
    assert.Less(t, PriorityRank("Highest"), PriorityRank("High"))
    assert.Less(t, PriorityRank("High"), PriorityRank("Medium"))
    assert.Less(t, PriorityRank("Medium"), PriorityRank("Low"))
    assert.Less(t, PriorityRank("Low"), PriorityRank("Lowest"))
    assert.Equal(t, PriorityRank("Lowest"), PriorityRank("whatever"))
}

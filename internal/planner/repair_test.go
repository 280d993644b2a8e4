package planner

import (
    "testing"
    "time"

    "github.com/example/sprint-pilot/internal/domain"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRepairIsIdempotentOnValidSchedule(t *testing.T) {
    issues := []domain.Issue{
        {Key: "SP-1", Assignee: "Ann", EstimateSeconds: 10 * hour},
        {Key: "SP-2", Assignee: "Ann", EstimateSeconds: 10 * hour,
            Links: []domain.IssueLink{precedes("SP-1", "Open")}},
    }
    rows := []domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}
    res, g, cfg := planFixture(t, issues, rows, nil)

    assert.False(t, Repair(res, g, cfg))
    assert.False(t, Repair(res, g, cfg))
}

func TestRepairFixesDueDateViolation(t *testing.T) {
    due := date(2026, time.January, 10) // inside sprint 1
    issues := []domain.Issue{{Key: "SP-1", Assignee: "Ann", EstimateSeconds: 8 * hour, DueAt: &due}}
    rows := []domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}
    res, g, cfg := planFixture(t, issues, rows, nil)

    // force the issue past its due date
    res.move(res.ByKey("SP-1"), Scheduled(3), res.ledger)
    require.True(t, Repair(res, g, cfg))
    assert.Equal(t, Scheduled(1), res.ByKey("SP-1").Slot)
    assert.False(t, Repair(res, g, cfg))
}

func TestRepairMovesIssueAfterPredecessor(t *testing.T) {
    issues := []domain.Issue{
        {Key: "SP-1", Assignee: "Ann", EstimateSeconds: 10 * hour},
        {Key: "SP-2", Assignee: "Ann", EstimateSeconds: 10 * hour,
            Links: []domain.IssueLink{precedes("SP-1", "Open")}},
    }
    rows := []domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}
    res, g, cfg := planFixture(t, issues, rows, nil)

    // drag the dependent back into its predecessor's sprint
    res.move(res.ByKey("SP-2"), Scheduled(1), res.ledger)
    require.True(t, Repair(res, g, cfg))

    p1, p2 := res.ByKey("SP-1"), res.ByKey("SP-2")
    assert.True(t, p1.Slot.Before(p2.Slot))
}

func TestRepairCascadesThroughChain(t *testing.T) {
    issues := []domain.Issue{
        {Key: "A", Assignee: "Ann", EstimateSeconds: 4 * hour},
        {Key: "B", Assignee: "Ann", EstimateSeconds: 4 * hour, Links: []domain.IssueLink{precedes("A", "Open")}},
        {Key: "C", Assignee: "Ann", EstimateSeconds: 4 * hour, Links: []domain.IssueLink{precedes("B", "Open")}},
    }
    rows := []domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}
    res, g, cfg := planFixture(t, issues, rows, nil)

    // compress the chain into one sprint, then let repair spread it out
    res.move(res.ByKey("B"), Scheduled(1), res.ledger)
    res.move(res.ByKey("C"), Scheduled(1), res.ledger)
    require.True(t, Repair(res, g, cfg))

    a, b, c := res.ByKey("A"), res.ByKey("B"), res.ByKey("C")
    assert.True(t, a.Slot.Before(b.Slot), "A=%v B=%v", a.Slot, b.Slot)
    assert.True(t, b.Slot.Before(c.Slot), "B=%v C=%v", b.Slot, c.Slot)
    assert.False(t, Repair(res, g, cfg))
}

func TestRepairSendsSuccessorOfOverflowToOverflow(t *testing.T) {
    issues := []domain.Issue{
        {Key: "SP-1", Assignee: "Ann", EstimateSeconds: 10 * hour},
        {Key: "SP-2", Assignee: "Ann", EstimateSeconds: 10 * hour,
            Links: []domain.IssueLink{precedes("SP-1", "Open")}},
    }
    rows := []domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}
    res, g, cfg := planFixture(t, issues, rows, nil)

    res.move(res.ByKey("SP-1"), Overflow, res.ledger)
    require.True(t, Repair(res, g, cfg))
    assert.True(t, res.ByKey("SP-2").Slot.Unscheduled)
}

func TestRepairTerminatesOnCyclicLinks(t *testing.T) {
    issues := []domain.Issue{
        {Key: "A", Assignee: "Ann", EstimateSeconds: 4 * hour, Links: []domain.IssueLink{precedes("B", "Open")}},
        {Key: "B", Assignee: "Ann", EstimateSeconds: 4 * hour, Links: []domain.IssueLink{precedes("A", "Open")}},
    }
    rows := []domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}
    res, g, cfg := planFixture(t, issues, rows, nil)

    // must terminate; a contradictory cycle resolves into the overflow
    // bucket rather than looping
    Repair(res, g, cfg)
    Repair(res, g, cfg)
    assert.Len(t, res.Planned, 2)
}

func TestRepairKeepsAggregatesInSync(t *testing.T) {
    issues := []domain.Issue{
        {Key: "SP-1", Assignee: "Ann", EstimateSeconds: 10 * hour},
        {Key: "SP-2", Assignee: "Ann", EstimateSeconds: 10 * hour,
            Links: []domain.IssueLink{precedes("SP-1", "Open")}},
    }
    rows := []domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}
    res, g, cfg := planFixture(t, issues, rows, nil)

    res.move(res.ByKey("SP-2"), Scheduled(1), res.ledger)
    Repair(res, g, cfg)

    total := 0.0
    for _, used := range res.UsedByEmployee()["Ann"] { total += used }
    require.Equal(t, 20.0, total)
    for _, pi := range res.Planned {
        assert.Equal(t, pi.Hours, res.SprintHours()[pi.Slot.Label()][pi.Assignee])
    }
}

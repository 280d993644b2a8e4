package domain

import "time"

// Issue is a read-only planning input sourced from Jira. The engine consults
// its estimate, due date and links but never writes to it.
type Issue struct {
    Key             string
    Summary         string
    Project         string
    Type            string
    Priority        string
    Assignee        string
    Status          string
    EstimateSeconds int64
    DueAt           *time.Time
    Links           []IssueLink
}

// IssueLink is one typed, directed link to another issue. Direction is
// "outward" (this issue has the other as a predecessor) or "inward" (this
// issue is a predecessor of the other).
type IssueLink struct {
    Type        string
    Direction   string
    OtherKey    string
    OtherStatus string
}

// CapacityRow is one raw capacity line as read from the capacity sheet or the
// projects file: an employee, weekly effective hours, and the projects they
// are allocated to (empty = all).
type CapacityRow struct {
    Employee    string
    WeeklyHours float64
    Projects    []string
}

// ProjectConfig anchors a project's sprint 1 and names where its issues come
// from.
type ProjectConfig struct {
    Key         string     `yaml:"key"`
    SprintStart *time.Time `yaml:"sprint_start"`
    Board       string     `yaml:"board"`
    JQL         string     `yaml:"jql"`
}

type PlanRun struct {
    ID         int64      `json:"id"`
    Project    string     `json:"project"`
    StartedAt  time.Time  `json:"started_at"`
    FinishedAt *time.Time `json:"finished_at"`
    Issues     int        `json:"issues"`
    Unplanned  int        `json:"unplanned"`
    Repaired   bool       `json:"repaired"`
    Success    bool       `json:"success"`
    Error      string     `json:"error"`
}

// PlannedRow is the persisted/rendered form of one placement decision.
type PlannedRow struct {
    IssueKey string
    Project  string
    Sprint   string
    Assignee string
    Hours    float64
    Priority string
    DueAt    *time.Time
}

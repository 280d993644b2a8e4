/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/example/sprint-pilot/internal/config"
    "github.com/example/sprint-pilot/internal/domain"
    "github.com/example/sprint-pilot/internal/planner"
    "github.com/example/sprint-pilot/internal/repo"
    "github.com/rs/zerolog"
)

// planLockKey is the advisory lock shared by all planning entry points so
// cron and admin triggers cannot overlap across replicas.
const planLockKey int64 = 7_451_002

type JiraClient interface {
    SearchAll(ctx context.Context, jql string) ([]map[string]any, error)
}

type SheetsClient interface {
    ReadRange(ctx context.Context, rng string) ([][]string, error)
    WriteRange(ctx context.Context, rng string, rows [][]string) error
    Clear(ctx context.Context, rng string) error
}

type Notifier interface {
    SendMessage(ctx context.Context, chatID int64, text string) error
    SendMessagePlain(ctx context.Context, chatID int64, text string) error
}

type LLM interface {
    Enabled() bool
    SummarizePlan(ctx context.Context, project string, sprintCounts map[string]int, unplanned []string) (string, error)
}

type Service struct {
    cfg    config.Config
    log    zerolog.Logger
    repo   *repo.Repository
    jira   JiraClient
    sheets SheetsClient
    llm    LLM
    tg     Notifier
}

func New(cfg config.Config, log zerolog.Logger, r *repo.Repository, jira JiraClient, sheets SheetsClient, llm LLM, tg Notifier) *Service {
    return &Service{cfg: cfg, log: log, repo: r, jira: jira, sheets: sheets, llm: llm, tg: tg}
}

// PlanAll plans every configured project under one advisory lock. A project
// that fails does not stop the others.
func (s *Service) PlanAll(ctx context.Context) error {
    ok, err := s.repo.TryAdvisoryLock(ctx, planLockKey)
    if err != nil { return err }
    if !ok { s.log.Warn().Msg("planning already running, skipping"); return nil }
    defer func(){ _ = s.repo.AdvisoryUnlock(ctx, planLockKey) }()
    var firstErr error
    for _, p := range s.cfg.Projects {
        if err := s.planProject(ctx, p); err != nil {
            s.log.Error().Err(err).Str("project", p.Key).Msg("planning failed")
            if firstErr == nil { firstErr = err }
        }
    }
    return firstErr
}

// PlanProject plans a single project by key.
func (s *Service) PlanProject(ctx context.Context, key string) error {
    p, err := s.cfg.ProjectByKey(key)
    if err != nil { return err }
    ok, err := s.repo.TryAdvisoryLock(ctx, planLockKey)
    if err != nil { return err }
    if !ok { return fmt.Errorf("planning already running") }
    defer func(){ _ = s.repo.AdvisoryUnlock(ctx, planLockKey) }()
    return s.planProject(ctx, p)
}

func (s *Service) planProject(ctx context.Context, p domain.ProjectConfig) error {
    runID, err := s.repo.StartPlanRun(ctx, p.Key)
    if err != nil { s.log.Error().Err(err).Msg("start plan run failed") }
    s.log.Info().Str("project", p.Key).Msg("planning: start")

    var planErr error
    var issues []domain.Issue
    var res *planner.Result
    repaired := false
    defer func(){
        if runID == 0 { return }
        unplanned := 0
        if res != nil { unplanned = res.Unplanned() }
        errStr := ""
        if planErr != nil { errStr = planErr.Error() }
        _ = s.repo.FinishPlanRun(ctx, runID, len(issues), unplanned, repaired, planErr == nil, errStr)
    }()

    issues, planErr = s.fetchIssues(ctx, p)
    if planErr != nil { return planErr }
    rows, err := s.loadCapacity(ctx, p.Key)
    if err != nil { planErr = err; return planErr }

    now := time.Now().UTC()
    start := now
    if p.SprintStart != nil { start = *p.SprintStart }

    g := planner.BuildGraph(issues, planner.GraphOptions{
        PrecedenceTypes: s.cfg.PrecedenceLinkTypes,
        ClosedStatuses:  s.cfg.ClosedStatuses,
    })
    led := planner.BuildLedger(rows, p.Key, p.SprintStart, now, s.cfg.CapacityHorizonSprints, s.cfg.PoolAssignees)
    cfg := planner.Config{ProjectStart: start, Now: now, Horizon: s.cfg.PlanHorizonSprints}
    res = planner.Plan(issues, g, led, cfg)
    repaired = planner.Repair(res, g, cfg)

    planned := planRows(p.Key, res)
    if err := s.repo.BulkInsertPlannedIssues(ctx, runID, planned); err != nil { planErr = err; return planErr }
    if err := s.repo.BulkInsertCapacitySnapshots(ctx, runID, capacitySnapshots(res)); err != nil {
        s.log.Error().Err(err).Msg("capacity snapshot persist failed")
    }
    s.writePlanSheet(ctx, planned)
    s.sendDigest(ctx, p.Key, res)
    s.log.Info().Str("project", p.Key).Int("issues", len(issues)).Int("unplanned", res.Unplanned()).Bool("repaired", repaired).Msg("planning: done")
    return nil
}

func (s *Service) fetchIssues(ctx context.Context, p domain.ProjectConfig) ([]domain.Issue, error) {
    jql := strings.TrimSpace(p.JQL)
    if jql == "" { jql = fmt.Sprintf("project=%s AND statusCategory != Done ORDER BY key", p.Key) }
    raw, err := s.jira.SearchAll(ctx, jql)
    if err != nil { return nil, err }
    out := make([]domain.Issue, 0, len(raw))
    for _, im := range raw {
        iss := parseIssue(im)
        if iss.Key == "" { continue }
        if iss.Project == "" { iss.Project = p.Key }
        out = append(out, iss)
    }
    return out, nil
}

// loadCapacity reads the capacity sheet when configured, otherwise falls back
// to the YAML team roster.
func (s *Service) loadCapacity(ctx context.Context, project string) ([]domain.CapacityRow, error) {
    if s.sheets != nil && s.cfg.SheetsSpreadsheetID != "" {
        grid, err := s.sheets.ReadRange(ctx, s.cfg.SheetsCapacityRange)
        if err != nil { return nil, err }
        rows := capacityFromGrid(grid)
        if len(rows) > 0 { return rows, nil }
    }
    rows := make([]domain.CapacityRow, 0, len(s.cfg.Team))
    for _, m := range s.cfg.Team {
        rows = append(rows, domain.CapacityRow{Employee: m.Name, WeeklyHours: m.WeeklyHours, Projects: m.Projects})
    }
    if len(rows) == 0 {
        return nil, fmt.Errorf("%w: no capacity source for project %s", config.ErrConfigInvalid, project)
    }
    return rows, nil
}

// writePlanSheet replaces the plan range with the new grid. The range is
// cleared first so rows from a larger previous plan do not linger below the
// fresh one. Write-back failures are logged, never fatal to the run.
func (s *Service) writePlanSheet(ctx context.Context, planned []domain.PlannedRow) {
    if s.sheets == nil || s.cfg.SheetsSpreadsheetID == "" { return }
    if err := s.sheets.Clear(ctx, s.cfg.SheetsPlanRange); err != nil {
        s.log.Error().Err(err).Msg("sheet clear failed")
    }
    if err := s.sheets.WriteRange(ctx, s.cfg.SheetsPlanRange, planGrid(planned)); err != nil {
        s.log.Error().Err(err).Msg("sheet write-back failed")
    }
}

func (s *Service) sendDigest(ctx context.Context, project string, res *planner.Result) {
    if s.tg == nil || len(s.cfg.TelegramChatIDs) == 0 { return }
    counts := map[string]int{}
    var unplanned []string
    for _, pi := range res.Planned {
        counts[pi.Slot.Label()]++
        if pi.Slot.Unscheduled { unplanned = append(unplanned, pi.Issue.Key) }
    }
    sort.Strings(unplanned)

    text := ""
    if s.llm != nil && s.llm.Enabled() {
        if t, err := s.llm.SummarizePlan(ctx, project, counts, unplanned); err == nil {
            text = t
        } else {
            s.log.Error().Err(err).Msg("llm summary failed, sending plain digest")
        }
    }
    if text == "" { text = plainDigest(project, counts, unplanned) }
    for _, chat := range s.cfg.TelegramChatIDs {
        for _, part := range chunkText(text, 3800) {
            // markdown first; LLM prose can carry characters Telegram's
            // parser rejects, so retry without parse_mode
            if err := s.tg.SendMessage(ctx, chat, part); err != nil {
                s.log.Warn().Err(err).Int64("chat", chat).Msg("markdown send failed, retrying plain")
                if err := s.tg.SendMessagePlain(ctx, chat, part); err != nil {
                    s.log.Error().Err(err).Int64("chat", chat).Msg("telegram send failed")
                }
            }
        }
    }
}

func plainDigest(project string, counts map[string]int, unplanned []string) string {
    labels := make([]string, 0, len(counts))
    for l := range counts {
        if l == planner.Overflow.Label() { continue }
        labels = append(labels, l)
    }
    sort.Slice(labels, func(i, j int) bool {
        a, _ := strconv.Atoi(labels[i])
        b, _ := strconv.Atoi(labels[j])
        return a < b
    })
    b := &strings.Builder{}
    fmt.Fprintf(b, "Sprint plan for %s\n", project)
    for _, l := range labels { fmt.Fprintf(b, "Sprint %s: %d issues\n", l, counts[l]) }
    if len(unplanned) > 0 {
        fmt.Fprintf(b, "Unschedulable: %s\n", strings.Join(unplanned, ", "))
    }
    return b.String()
}

func (s *Service) GetLastRun(ctx context.Context) (*domain.PlanRun, error) {
    return s.repo.GetLastRun(ctx)
}

func (s *Service) GetPlan(ctx context.Context, project string) (*domain.PlanRun, []domain.PlannedRow, error) {
    return s.repo.GetPlan(ctx, project)
}

// ---- plan output shaping ----

func planRows(project string, res *planner.Result) []domain.PlannedRow {
    out := make([]domain.PlannedRow, 0, len(res.Planned))
    for _, pi := range res.Planned {
        out = append(out, domain.PlannedRow{
            IssueKey: pi.Issue.Key,
            Project:  project,
            Sprint:   pi.Slot.Label(),
            Assignee: pi.Assignee,
            Hours:    pi.Hours,
            Priority: pi.Issue.Priority,
            DueAt:    pi.Issue.DueAt,
        })
    }
    sort.Slice(out, func(i, j int) bool {
        a, _ := strconv.Atoi(out[i].Sprint)
        b, _ := strconv.Atoi(out[j].Sprint)
        if a != b { return a < b }
        return out[i].IssueKey < out[j].IssueKey
    })
    return out
}

// planGrid shapes rows for the plan sheet: key, sprint, assignee, hours,
// priority, due date.
func planGrid(rows []domain.PlannedRow) [][]string {
    grid := make([][]string, 0, len(rows))
    for _, r := range rows {
        due := ""
        if r.DueAt != nil { due = r.DueAt.Format("2006-01-02") }
        grid = append(grid, []string{
            r.IssueKey, r.Sprint, r.Assignee,
            strconv.FormatFloat(r.Hours, 'f', 1, 64),
            r.Priority, due,
        })
    }
    return grid
}

func capacitySnapshots(res *planner.Result) []repo.CapacitySnapshot {
    recs := res.Capacities()
    out := make([]repo.CapacitySnapshot, 0, len(recs))
    for _, rec := range recs {
        out = append(out, repo.CapacitySnapshot{
            Employee: rec.Employee, Project: rec.Project, Sprint: rec.Sprint,
            Capacity: rec.Capacity, Available: rec.Available, WindowStart: rec.WindowStart,
        })
    }
    return out
}

// ---- Jira payload parsing ----

func parseIssue(im map[string]any) domain.Issue {
    fields, _ := im["fields"].(map[string]any)
    iss := domain.Issue{Key: toStrAny(im["key"])}
    if fields == nil { return iss }
    iss.Summary = toStrAny(fields["summary"])
    if pj, ok := fields["project"].(map[string]any); ok { iss.Project = toStrAny(pj["key"]) }
    if tp, ok := fields["issuetype"].(map[string]any); ok { iss.Type = toStrAny(tp["name"]) }
    if pr, ok := fields["priority"].(map[string]any); ok { iss.Priority = toStrAny(pr["name"]) }
    if as, ok := fields["assignee"].(map[string]any); ok { iss.Assignee = toStrAny(as["displayName"]) }
    if st, ok := fields["status"].(map[string]any); ok { iss.Status = toStrAny(st["name"]) }
    if v, ok := fields["timeoriginalestimate"].(float64); ok { iss.EstimateSeconds = int64(v) }
    if iss.EstimateSeconds == 0 {
        if v, ok := fields["timeestimate"].(float64); ok { iss.EstimateSeconds = int64(v) }
    }
    iss.DueAt = parseTimeUTC(fields["duedate"])
    if lv, ok := fields["issuelinks"].([]any); ok {
        for _, l0 := range lv {
            lm, _ := l0.(map[string]any)
            if lm == nil { continue }
            if link, ok := parseIssueLink(lm); ok { iss.Links = append(iss.Links, link) }
        }
    }
    return iss
}

func parseIssueLink(lm map[string]any) (domain.IssueLink, bool) {
    link := domain.IssueLink{}
    if t, ok := lm["type"].(map[string]any); ok { link.Type = toStrAny(t["name"]) }
    other, _ := lm["outwardIssue"].(map[string]any)
    if other != nil {
        link.Direction = "outward"
    } else {
        other, _ = lm["inwardIssue"].(map[string]any)
        link.Direction = "inward"
    }
    if other == nil { return link, false }
    link.OtherKey = toStrAny(other["key"])
    if f, ok := other["fields"].(map[string]any); ok {
        if st, ok := f["status"].(map[string]any); ok { link.OtherStatus = toStrAny(st["name"]) }
    }
    return link, link.OtherKey != ""
}

// capacityFromGrid parses sheet rows of employee, weekly hours, projects
// (comma separated, optional). Rows without a name are skipped; a named row
// whose hours cell does not parse (or is negative) becomes a zero-capacity
// row so the employee never silently vanishes from reporting.
func capacityFromGrid(grid [][]string) []domain.CapacityRow {
    out := make([]domain.CapacityRow, 0, len(grid))
    for _, row := range grid {
        if len(row) < 2 { continue }
        name := strings.TrimSpace(row[0])
        if name == "" { continue }
        hours, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(row[1], ",", ".")), 64)
        if err != nil || hours < 0 { hours = 0 }
        cr := domain.CapacityRow{Employee: name, WeeklyHours: hours}
        if len(row) > 2 {
            for _, p := range strings.Split(row[2], ",") {
                p = strings.TrimSpace(p)
                if p != "" { cr.Projects = append(cr.Projects, p) }
            }
        }
        out = append(out, cr)
    }
    return out
}

// ---- small helpers ----

func parseTimeUTC(v any) *time.Time {
    s, _ := v.(string)
    if s == "" { return nil }
    layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05-0700", "2006-01-02"}
    for _, l := range layouts {
        if t, err := time.Parse(l, s); err == nil {
            tt := t.UTC(); return &tt
        }
    }
    return nil
}

func toStrAny(v any) string {
    if v == nil { return "" }
    if s, ok := v.(string); ok { return s }
    return fmt.Sprintf("%v", v)
}

// chunkText splits text into chunks of up to max runes, attempting to break on line boundaries.
func chunkText(s string, max int) []string {
    if max <= 0 { return []string{s} }
    var chunks []string
    lines := strings.Split(s, "\n")
    cur := ""
    curlen := 0
    for _, ln := range lines {
        rl := len([]rune(ln))
        if rl > max {
            if curlen > 0 { chunks = append(chunks, cur); cur = ""; curlen = 0 }
            r := []rune(ln)
            for i := 0; i < rl; i += max {
                j := i + max
                if j > rl { j = rl }
                chunks = append(chunks, string(r[i:j]))
            }
            continue
        }
        extra := rl
        if curlen > 0 { extra += 1 }
        if curlen+extra > max {
            chunks = append(chunks, cur)
            cur = ln
            curlen = rl
        } else {
            if curlen == 0 { cur = ln; curlen = rl } else { cur += "\n" + ln; curlen += extra }
        }
    }
    if curlen > 0 { chunks = append(chunks, cur) }
    if len(chunks) == 0 { chunks = []string{""} }
    return chunks
}

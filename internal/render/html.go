/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package render

import (
    "fmt"
    "html"
    "sort"
    "strconv"
    "strings"

    "github.com/example/sprint-pilot/internal/domain"
)

const overflowLabel = "100"

const pageHead = `<!DOCTYPE html>
<html>
<head>
    <title>%s - Sprint Plan</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; color: #333; }
        .container { max-width: 1100px; margin: 0 auto; }
        .card { background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); margin-bottom: 20px; }
        h1 { margin-top: 0; }
        h2 { margin: 0 0 10px 0; font-size: 18px; }
        table { border-collapse: collapse; width: 100%%; font-size: 14px; }
        th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #e0e0e0; }
        th { color: #666; font-weight: 500; }
        .meta { color: #666; font-size: 14px; margin-bottom: 20px; }
        .overflow h2 { color: #721c24; }
        .overflow { background: #fdf0f1; }
        .hours { text-align: right; }
    </style>
</head>
<body>
    <div class="container">
`

// PlanPage renders the stored plan of one project: a table per sprint in
// sprint order, unschedulable work last, then the per-employee hour totals.
func PlanPage(project string, run *domain.PlanRun, rows []domain.PlannedRow) string {
    var sb strings.Builder
    sb.WriteString(fmt.Sprintf(pageHead, html.EscapeString(project)))
    sb.WriteString(fmt.Sprintf("        <h1>Sprint Plan: %s</h1>\n", html.EscapeString(project)))

    if run == nil {
        sb.WriteString("        <div class=\"card\">No successful planning run for this project yet.</div>\n")
        sb.WriteString("    </div>\n</body>\n</html>")
        return sb.String()
    }

    finished := ""
    if run.FinishedAt != nil { finished = run.FinishedAt.Format("2006-01-02 15:04") }
    sb.WriteString(fmt.Sprintf("        <div class=\"meta\">Run #%d finished %s &middot; %d issues, %d unschedulable</div>\n",
        run.ID, finished, run.Issues, run.Unplanned))

    bySprint := map[string][]domain.PlannedRow{}
    for _, r := range rows { bySprint[r.Sprint] = append(bySprint[r.Sprint], r) }
    labels := make([]string, 0, len(bySprint))
    for l := range bySprint { labels = append(labels, l) }
    sort.Slice(labels, func(i, j int) bool {
        a, _ := strconv.Atoi(labels[i])
        b, _ := strconv.Atoi(labels[j])
        return a < b
    })

    for _, label := range labels {
        title := "Sprint " + label
        class := "card"
        if label == overflowLabel {
            title = "Unschedulable"
            class = "card overflow"
        }
        sb.WriteString(fmt.Sprintf("        <div class=\"%s\">\n            <h2>%s</h2>\n", class, title))
        sb.WriteString("            <table>\n                <tr><th>Issue</th><th>Assignee</th><th>Priority</th><th>Due</th><th class=\"hours\">Hours</th></tr>\n")
        total := 0.0
        for _, r := range bySprint[label] {
            due := ""
            if r.DueAt != nil { due = r.DueAt.Format("2006-01-02") }
            sb.WriteString(fmt.Sprintf("                <tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class=\"hours\">%.1f</td></tr>\n",
                html.EscapeString(r.IssueKey), html.EscapeString(r.Assignee), html.EscapeString(r.Priority), due, r.Hours))
            total += r.Hours
        }
        sb.WriteString(fmt.Sprintf("                <tr><th colspan=\"4\">Total</th><th class=\"hours\">%.1f</th></tr>\n            </table>\n        </div>\n", total))
    }

    writeEmployeeTotals(&sb, rows)
    sb.WriteString("    </div>\n</body>\n</html>")
    return sb.String()
}

func writeEmployeeTotals(sb *strings.Builder, rows []domain.PlannedRow) {
    totals := map[string]float64{}
    for _, r := range rows {
        if r.Sprint == overflowLabel { continue }
        totals[r.Assignee] += r.Hours
    }
    if len(totals) == 0 { return }
    names := make([]string, 0, len(totals))
    for n := range totals { names = append(names, n) }
    sort.Strings(names)
    sb.WriteString("        <div class=\"card\">\n            <h2>Scheduled hours by assignee</h2>\n            <table>\n                <tr><th>Assignee</th><th class=\"hours\">Hours</th></tr>\n")
    for _, n := range names {
        sb.WriteString(fmt.Sprintf("                <tr><td>%s</td><td class=\"hours\">%.1f</td></tr>\n", html.EscapeString(n), totals[n]))
    }
    sb.WriteString("            </table>\n        </div>\n")
}

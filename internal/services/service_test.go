package services

import (
    "context"
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/example/sprint-pilot/internal/config"
    "github.com/example/sprint-pilot/internal/domain"
    "github.com/example/sprint-pilot/internal/planner"
    "github.com/rs/zerolog"
)

func TestParseIssue_FieldsEstimateAndLinks(t *testing.T) {
    im := map[string]any{
        "key": "SP-7",
        "fields": map[string]any{
            "summary":   "Build capacity importer",
            "project":   map[string]any{"key": "SP"},
            "issuetype": map[string]any{"name": "Story"},
            "priority":  map[string]any{"name": "High"},
            "assignee":  map[string]any{"displayName": "Ann"},
            "status":    map[string]any{"name": "Open"},
            "timeoriginalestimate": float64(28800),
            "duedate":   "2026-02-10",
            "issuelinks": []any{
                map[string]any{
                    "type": map[string]any{"name": "Precedes"},
                    "outwardIssue": map[string]any{
                        "key":    "SP-6",
                        "fields": map[string]any{"status": map[string]any{"name": "Open"}},
                    },
                },
                map[string]any{
                    "type": map[string]any{"name": "Precedes"},
                    "inwardIssue": map[string]any{
                        "key":    "SP-8",
                        "fields": map[string]any{"status": map[string]any{"name": "Done"}},
                    },
                },
                // a link with no linked issue object must be dropped
                map[string]any{"type": map[string]any{"name": "Relates"}},
            },
        },
    }
    iss := parseIssue(im)
    if iss.Key != "SP-7" || iss.Project != "SP" || iss.Assignee != "Ann" {
        t.Fatalf("unexpected identity fields: %#v", iss)
    }
    if iss.Priority != "High" || iss.Status != "Open" || iss.Type != "Story" {
        t.Fatalf("unexpected classification fields: %#v", iss)
    }
    if iss.EstimateSeconds != 28800 { t.Fatalf("estimate = %d, want 28800", iss.EstimateSeconds) }
    if iss.DueAt == nil || !iss.DueAt.Equal(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)) {
        t.Fatalf("due date not parsed: %v", iss.DueAt)
    }
    if len(iss.Links) != 2 { t.Fatalf("expected 2 links, got %#v", iss.Links) }
    if iss.Links[0].Direction != "outward" || iss.Links[0].OtherKey != "SP-6" || iss.Links[0].OtherStatus != "Open" {
        t.Fatalf("outward link wrong: %#v", iss.Links[0])
    }
    if iss.Links[1].Direction != "inward" || iss.Links[1].OtherKey != "SP-8" || iss.Links[1].OtherStatus != "Done" {
        t.Fatalf("inward link wrong: %#v", iss.Links[1])
    }
}

func TestParseIssue_FallsBackToRemainingEstimate(t *testing.T) {
    im := map[string]any{
        "key": "SP-9",
        "fields": map[string]any{"timeestimate": float64(3600)},
    }
    iss := parseIssue(im)
    if iss.EstimateSeconds != 3600 { t.Fatalf("estimate = %d, want 3600", iss.EstimateSeconds) }
}

func TestCapacityFromGrid_RowHandling(t *testing.T) {
    grid := [][]string{
        {"Ann", "20", "SP, OPS"},
        {"Bob", "2,5"},           // decimal comma
        {"", "40"},               // no name: nothing to report on
        {"Cleo", "not-a-number"}, // named but unparsable: kept at zero
        {"Dre", "-3"},            // negative clamps to zero
        {"Eve"},                  // too short
    }
    rows := capacityFromGrid(grid)
    if len(rows) != 4 { t.Fatalf("expected 4 rows, got %#v", rows) }
    if rows[0].Employee != "Ann" || rows[0].WeeklyHours != 20 {
        t.Fatalf("row 0 wrong: %#v", rows[0])
    }
    if len(rows[0].Projects) != 2 || rows[0].Projects[1] != "OPS" {
        t.Fatalf("projects not split: %#v", rows[0].Projects)
    }
    if rows[1].Employee != "Bob" || rows[1].WeeklyHours != 2.5 {
        t.Fatalf("decimal comma not handled: %#v", rows[1])
    }
    if rows[2].Employee != "Cleo" || rows[2].WeeklyHours != 0 {
        t.Fatalf("unparsable hours must yield a zero-capacity row: %#v", rows[2])
    }
    if rows[3].Employee != "Dre" || rows[3].WeeklyHours != 0 {
        t.Fatalf("negative hours must clamp to zero: %#v", rows[3])
    }
}

func digestResult() *planner.Result {
    start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
    issues := []domain.Issue{{Key: "SP-1", Assignee: "Ann", EstimateSeconds: 4 * 3600}}
    g := planner.BuildGraph(issues, planner.GraphOptions{})
    led := planner.BuildLedger([]domain.CapacityRow{{Employee: "Ann", WeeklyHours: 20}}, "SP", &start, start, 5, nil)
    return planner.Plan(issues, g, led, planner.Config{ProjectStart: start, Now: start})
}

type fakeNotifier struct {
    mdErr error
    md    []string
    plain []string
}

func (f *fakeNotifier) SendMessage(_ context.Context, _ int64, text string) error {
    f.md = append(f.md, text)
    return f.mdErr
}

func (f *fakeNotifier) SendMessagePlain(_ context.Context, _ int64, text string) error {
    f.plain = append(f.plain, text)
    return nil
}

func TestSendDigest_PrefersMarkdown(t *testing.T) {
    tg := &fakeNotifier{}
    s := &Service{cfg: config.Config{TelegramChatIDs: []int64{42}}, log: zerolog.Nop(), tg: tg}
    s.sendDigest(context.Background(), "SP", digestResult())
    if len(tg.md) != 1 || len(tg.plain) != 0 {
        t.Fatalf("markdown=%d plain=%d, want one markdown send", len(tg.md), len(tg.plain))
    }
    if !strings.Contains(tg.md[0], "Sprint plan for SP") { t.Fatalf("unexpected digest: %q", tg.md[0]) }
}

func TestSendDigest_FallsBackToPlainOnParseError(t *testing.T) {
    tg := &fakeNotifier{mdErr: errors.New("can't parse entities")}
    s := &Service{cfg: config.Config{TelegramChatIDs: []int64{42}}, log: zerolog.Nop(), tg: tg}
    s.sendDigest(context.Background(), "SP", digestResult())
    if len(tg.plain) != 1 { t.Fatalf("expected one plain retry, got %d", len(tg.plain)) }
    if tg.plain[0] != tg.md[0] { t.Fatalf("plain retry must resend the same text") }
}

type fakeSheets struct{ calls []string }

func (f *fakeSheets) ReadRange(_ context.Context, rng string) ([][]string, error) {
    f.calls = append(f.calls, "read "+rng)
    return nil, nil
}

func (f *fakeSheets) WriteRange(_ context.Context, rng string, _ [][]string) error {
    f.calls = append(f.calls, "write "+rng)
    return nil
}

func (f *fakeSheets) Clear(_ context.Context, rng string) error {
    f.calls = append(f.calls, "clear "+rng)
    return nil
}

func TestWritePlanSheet_ClearsRangeBeforeWriting(t *testing.T) {
    sc := &fakeSheets{}
    s := &Service{
        cfg:    config.Config{SheetsSpreadsheetID: "sheet", SheetsPlanRange: "Planning!A2:F"},
        log:    zerolog.Nop(),
        sheets: sc,
    }
    s.writePlanSheet(context.Background(), []domain.PlannedRow{{IssueKey: "SP-1", Sprint: "1"}})
    want := []string{"clear Planning!A2:F", "write Planning!A2:F"}
    if len(sc.calls) != 2 || sc.calls[0] != want[0] || sc.calls[1] != want[1] {
        t.Fatalf("calls = %#v, want %#v", sc.calls, want)
    }
}

func TestCapacitySnapshotsCarryWindowStart(t *testing.T) {
    snaps := capacitySnapshots(digestResult())
    if len(snaps) == 0 { t.Fatal("no snapshots produced") }
    if snaps[0].WindowStart == nil { t.Fatal("window start missing from snapshot") }
    want := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
    if !snaps[0].WindowStart.Equal(want) {
        t.Fatalf("window start = %v, want %v", snaps[0].WindowStart, want)
    }
}

func TestChunkText_BreaksOnLinesAndHardSplits(t *testing.T) {
    parts := chunkText("aaa\nbbb\nccc", 7)
    if len(parts) != 2 { t.Fatalf("expected 2 chunks, got %#v", parts) }
    if parts[0] != "aaa\nbbb" || parts[1] != "ccc" { t.Fatalf("unexpected chunks: %#v", parts) }

    long := chunkText("abcdefghij", 4)
    if len(long) != 3 || long[0] != "abcd" || long[2] != "ij" {
        t.Fatalf("hard split wrong: %#v", long)
    }
}

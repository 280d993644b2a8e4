package config

import (
    "errors"
    "os"
    "path/filepath"
    "testing"
    "time"
)

func writeProjectsFile(t *testing.T, body string) string {
    t.Helper()
    p := filepath.Join(t.TempDir(), "projects.yaml")
    if err := os.WriteFile(p, []byte(body), 0o600); err != nil { t.Fatal(err) }
    return p
}

func TestLoadProjectsFile(t *testing.T) {
    path := writeProjectsFile(t, `
projects:
  - key: SP
    sprint_start: 2026-01-05
    board: "SP board"
  - key: OPS
team:
  - name: Ann
    weekly_hours: 20
    projects: [SP]
pool: [Team, Unassigned]
`)
    cfg := Config{ProjectsFile: path}
    if err := cfg.loadProjectsFile(); err != nil { t.Fatalf("load: %v", err) }
    if len(cfg.Projects) != 2 { t.Fatalf("expected 2 projects, got %#v", cfg.Projects) }

    sp, err := cfg.ProjectByKey("sp") // lookup is case-insensitive
    if err != nil { t.Fatalf("ProjectByKey: %v", err) }
    if sp.Board != "SP board" { t.Fatalf("board = %q", sp.Board) }
    if sp.SprintStart == nil { t.Fatal("sprint_start not parsed") }
    want := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
    if !sp.SprintStart.Equal(want) { t.Fatalf("sprint_start = %v, want %v", sp.SprintStart, want) }

    ops, _ := cfg.ProjectByKey("OPS")
    if ops.SprintStart != nil { t.Fatalf("OPS should have no anchor: %v", ops.SprintStart) }

    if len(cfg.Team) != 1 || cfg.Team[0].WeeklyHours != 20 { t.Fatalf("team not loaded: %#v", cfg.Team) }
    if len(cfg.PoolAssignees) != 2 || cfg.PoolAssignees[0] != "Team" { t.Fatalf("pool not loaded: %#v", cfg.PoolAssignees) }
}

func TestLoadProjectsFileRejectsBadInput(t *testing.T) {
    cases := map[string]string{
        "empty key":        "projects:\n  - key: \"\"\n",
        "bad sprint_start": "projects:\n  - key: SP\n    sprint_start: sometime\n",
        "not yaml":         "{{{",
    }
    for name, body := range cases {
        cfg := Config{ProjectsFile: writeProjectsFile(t, body)}
        err := cfg.loadProjectsFile()
        if !errors.Is(err, ErrConfigInvalid) {
            t.Errorf("%s: expected ErrConfigInvalid, got %v", name, err)
        }
    }
}

func TestProjectByKeyUnknown(t *testing.T) {
    cfg := Config{}
    if _, err := cfg.ProjectByKey("NOPE"); !errors.Is(err, ErrConfigInvalid) {
        t.Fatalf("expected ErrConfigInvalid, got %v", err)
    }
}

package repo

import (
    "context"
    "errors"
    "time"

    "github.com/example/sprint-pilot/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"

    "github.com/example/sprint-pilot/internal/config"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

// EnsureSchema creates the tables when they do not exist yet. Kept as plain
// DDL so a fresh database works without an external migration step.
func (r *Repository) EnsureSchema(ctx context.Context) error {
    const ddl = `
        CREATE TABLE IF NOT EXISTS plan_runs(
            id BIGSERIAL PRIMARY KEY,
            project TEXT NOT NULL,
            started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            finished_at TIMESTAMPTZ,
            issues INT,
            unplanned INT,
            repaired BOOL,
            success BOOL NOT NULL DEFAULT false,
            error TEXT
        );
        CREATE TABLE IF NOT EXISTS planned_issues(
            run_id BIGINT NOT NULL REFERENCES plan_runs(id) ON DELETE CASCADE,
            issue_key TEXT NOT NULL,
            project TEXT NOT NULL,
            sprint TEXT NOT NULL,
            assignee TEXT NOT NULL,
            hours DOUBLE PRECISION NOT NULL,
            priority TEXT,
            due_at TIMESTAMPTZ,
            PRIMARY KEY (run_id, issue_key)
        );
        CREATE TABLE IF NOT EXISTS capacity_snapshots(
            run_id BIGINT NOT NULL REFERENCES plan_runs(id) ON DELETE CASCADE,
            employee TEXT NOT NULL,
            project TEXT NOT NULL,
            sprint INT NOT NULL,
            capacity DOUBLE PRECISION NOT NULL,
            available DOUBLE PRECISION NOT NULL,
            window_start TIMESTAMPTZ,
            PRIMARY KEY (run_id, employee, sprint)
        );`
    _, err := r.db.Pool.Exec(ctx, ddl)
    return err
}

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

// Plan runs
func (r *Repository) StartPlanRun(ctx context.Context, project string) (int64, error) {
    const q = `INSERT INTO plan_runs(project, started_at, success) VALUES($1, now(), false) RETURNING id`
    var id int64
    if err := r.db.Pool.QueryRow(ctx, q, project).Scan(&id); err != nil { return 0, err }
    return id, nil
}

func (r *Repository) FinishPlanRun(ctx context.Context, id int64, issues, unplanned int, repaired, success bool, errStr string) error {
    const q = `UPDATE plan_runs SET finished_at=now(), issues=$2, unplanned=$3, repaired=$4, success=$5, error=$6 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, issues, unplanned, repaired, success, errStr)
    return err
}

func (r *Repository) GetLastRun(ctx context.Context) (*domain.PlanRun, error) {
    const q = `SELECT id, project, started_at, finished_at,
        coalesce(issues,0), coalesce(unplanned,0), coalesce(repaired,false),
        coalesce(success,false), coalesce(error,'')
        FROM plan_runs ORDER BY id DESC LIMIT 1`
    row := r.db.Pool.QueryRow(ctx, q)
    pr := &domain.PlanRun{}
    if err := row.Scan(&pr.ID, &pr.Project, &pr.StartedAt, &pr.FinishedAt, &pr.Issues, &pr.Unplanned, &pr.Repaired, &pr.Success, &pr.Error); err != nil {
        return nil, err
    }
    return pr, nil
}

func (r *Repository) BulkInsertPlannedIssues(ctx context.Context, runID int64, rows []domain.PlannedRow) error {
    if len(rows) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO planned_issues(run_id, issue_key, project, sprint, assignee, hours, priority, due_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (run_id, issue_key) DO UPDATE SET
            sprint=EXCLUDED.sprint,
            assignee=EXCLUDED.assignee,
            hours=EXCLUDED.hours`
    for _, p := range rows {
        batch.Queue(q, runID, p.IssueKey, p.Project, p.Sprint, p.Assignee, p.Hours, p.Priority, p.DueAt)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range rows { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

// CapacitySnapshot is one persisted ledger record after a run. WindowStart is
// nil for projects without a sprint anchor.
type CapacitySnapshot struct {
    Employee    string
    Project     string
    Sprint      int
    Capacity    float64
    Available   float64
    WindowStart *time.Time
}

func (r *Repository) BulkInsertCapacitySnapshots(ctx context.Context, runID int64, snaps []CapacitySnapshot) error {
    if len(snaps) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO capacity_snapshots(run_id, employee, project, sprint, capacity, available, window_start)
        VALUES($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (run_id, employee, sprint) DO NOTHING`
    for _, s := range snaps { batch.Queue(q, runID, s.Employee, s.Project, s.Sprint, s.Capacity, s.Available, s.WindowStart) }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range snaps { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

// GetPlan returns the rows of the latest successful run for a project, sprint
// order first (overflow label sorts last because it is numeric), then key.
func (r *Repository) GetPlan(ctx context.Context, project string) (*domain.PlanRun, []domain.PlannedRow, error) {
    const qr = `SELECT id, project, started_at, finished_at,
        coalesce(issues,0), coalesce(unplanned,0), coalesce(repaired,false),
        coalesce(success,false), coalesce(error,'')
        FROM plan_runs WHERE project=$1 AND success ORDER BY id DESC LIMIT 1`
    pr := &domain.PlanRun{}
    row := r.db.Pool.QueryRow(ctx, qr, project)
    if err := row.Scan(&pr.ID, &pr.Project, &pr.StartedAt, &pr.FinishedAt, &pr.Issues, &pr.Unplanned, &pr.Repaired, &pr.Success, &pr.Error); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil, nil }
        return nil, nil, err
    }
    rows, err := r.db.Pool.Query(ctx, `SELECT issue_key, project, sprint, assignee, hours, coalesce(priority,''), due_at
        FROM planned_issues WHERE run_id=$1 ORDER BY sprint::int, issue_key`, pr.ID)
    if err != nil { return nil, nil, err }
    defer rows.Close()
    var out []domain.PlannedRow
    for rows.Next() {
        var p domain.PlannedRow
        if err := rows.Scan(&p.IssueKey, &p.Project, &p.Sprint, &p.Assignee, &p.Hours, &p.Priority, &p.DueAt); err != nil { return nil, nil, err }
        out = append(out, p)
    }
    return pr, out, nil
}

/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/example/sprint-pilot/internal/adapters/jira"
    "github.com/example/sprint-pilot/internal/adapters/openai"
    "github.com/example/sprint-pilot/internal/adapters/sheets"
    "github.com/example/sprint-pilot/internal/adapters/telegram"
    "github.com/example/sprint-pilot/internal/config"
    httpx "github.com/example/sprint-pilot/internal/http"
    "github.com/example/sprint-pilot/internal/jobs"
    "github.com/example/sprint-pilot/internal/logger"
    "github.com/example/sprint-pilot/internal/repo"
    "github.com/example/sprint-pilot/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()
    repository := repo.NewRepository(db, log)
    if err := repository.EnsureSchema(ctx); err != nil {
        log.Fatal().Err(err).Msg("schema setup failed")
    }

    // Adapters
    jc := jira.NewClient(cfg, log)
    sc := sheets.NewClient(cfg, log)
    llm := openai.NewClient(cfg, log)
    tg := telegram.NewClient(cfg, log)

    svc := services.New(cfg, log, repository, jc, sc, llm, tg)

    if len(cfg.Projects) == 0 {
        log.Warn().Str("file", cfg.ProjectsFile).Msg("no projects configured; planning runs will be no-ops")
    }

    // HTTP server (Gin)
    router := httpx.NewRouter(cfg, log, svc)

    // Cron
    cr := jobs.NewCron(cfg, log, svc)
    cr.Start()
    defer cr.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}

/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "net/http"

    "github.com/example/sprint-pilot/internal/config"
    "github.com/example/sprint-pilot/internal/domain"
    "github.com/example/sprint-pilot/internal/render"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
)

type service interface {
    PlanAll(ctx context.Context) error
    PlanProject(ctx context.Context, key string) error
    GetLastRun(ctx context.Context) (*domain.PlanRun, error)
    GetPlan(ctx context.Context, project string) (*domain.PlanRun, []domain.PlannedRow, error)
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc.(service)}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.svc.GetLastRun(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, lr)
}

func (h *Handlers) PlanAll(c *gin.Context) {
    // Run in background detached from the HTTP request to avoid context cancellation
    go func(){ _ = h.svc.PlanAll(context.Background()) }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) PlanProject(c *gin.Context) {
    key := c.Param("project")
    if _, err := h.cfg.ProjectByKey(key); err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
        return
    }
    go func(){ _ = h.svc.PlanProject(context.Background(), key) }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued", "project": key})
}

func (h *Handlers) PlanHTML(c *gin.Context) {
    key := c.Param("project")
    run, rows, err := h.svc.GetPlan(c.Request.Context(), key)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(render.PlanPage(key, run, rows)))
}

func (h *Handlers) PlanJSON(c *gin.Context) {
    key := c.Param("project")
    run, rows, err := h.svc.GetPlan(c.Request.Context(), key)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    if run == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "no plan for project " + key})
        return
    }
    c.JSON(http.StatusOK, gin.H{"run": run, "rows": rowsJSON(rows)})
}

func rowsJSON(rows []domain.PlannedRow) []gin.H {
    out := make([]gin.H, 0, len(rows))
    for _, r := range rows {
        out = append(out, gin.H{
            "issue_key": r.IssueKey,
            "sprint":    r.Sprint,
            "assignee":  r.Assignee,
            "hours":     r.Hours,
            "priority":  r.Priority,
            "due_at":    r.DueAt,
        })
    }
    return out
}

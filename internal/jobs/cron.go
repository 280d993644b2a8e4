package jobs

import (
    "context"
    "time"

    "github.com/example/sprint-pilot/internal/config"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type service interface { PlanAll(ctx context.Context) error }

type Cron struct {
    cfg config.Config
    log zerolog.Logger
    svc service
    c   *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service) *Cron {
    loc, _ := time.LoadLocation(cfg.TZ)
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
    _, _ = c.AddFunc(cfg.PlanCron, cr.plan)
    return cr
}

func (cr *Cron) Start(){ cr.c.Start() }
func (cr *Cron) Stop(){ cr.c.Stop() }

// plan triggers the weekly planning pass. Mutual exclusion across replicas
// lives in the service's advisory lock, not here.
func (cr *Cron) plan(){
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute); defer cancel()
    cr.log.Info().Msg("cron: planning run")
    if err := cr.svc.PlanAll(ctx); err != nil { cr.log.Error().Err(err).Msg("cron: planning failed") }
}

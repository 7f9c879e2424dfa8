package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/next-connect/next-connect/internal/core/ports"
	"github.com/next-connect/next-connect/internal/pkg/metrics"
)

const pruneTimeout = 30 * time.Second

// Pruner periodically deletes expired session records.
type Pruner struct {
	store ports.SessionStore
	cron  *cron.Cron
	log   zerolog.Logger
	now   func() time.Time
}

// NewPruner schedules pruning on spec (any robfig/cron spec, e.g. "@every 15m").
func NewPruner(store ports.SessionStore, spec string, log zerolog.Logger) (*Pruner, error) {
	p := &Pruner{
		store: store,
		cron:  cron.New(),
		log:   log,
		now:   time.Now,
	}
	if _, err := p.cron.AddFunc(spec, p.run); err != nil {
		return nil, fmt.Errorf("session pruner: invalid schedule %q: %w", spec, err)
	}
	return p, nil
}

// Start launches the scheduler in its own goroutine.
func (p *Pruner) Start() {
	p.log.Info().Msg("session pruner started")
	p.cron.Start()
}

// Stop halts the scheduler. The returned context is done once a running
// prune has finished.
func (p *Pruner) Stop() context.Context {
	p.log.Info().Msg("session pruner stopping")
	return p.cron.Stop()
}

// RunOnce deletes every session expired at the current time.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	n, err := p.store.Prune(ctx, p.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	metrics.SessionsPrunedTotal.Add(float64(n))
	return n, nil
}

func (p *Pruner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	n, err := p.RunOnce(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("session prune failed")
		return
	}
	if n > 0 {
		p.log.Info().Int64("deleted", n).Msg("expired sessions pruned")
	}
}

// Package worker runs the periodic sweeps: the hourly governance pass that
// re-evaluates every live suggestion and referendum, and the daily cleanup
// that drops aged-out booking leads. Sweeps are the self-healing layer: any
// vote-triggered evaluation missed to a crash is redone here.
package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"agora/internal/domain"
	"agora/internal/governance"
)

var (
	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "agora_sweep_runs_total", Help: "Completed sweep passes"},
		[]string{"sweep"},
	)
	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agora_sweep_duration_seconds",
			Help:    "Wall time of a sweep pass",
			Buckets: prometheus.DefBuckets,
		}, []string{"sweep"},
	)
)

func init() { prometheus.MustRegister(sweepRuns, sweepDuration) }

type Sweeper struct {
	engine  *governance.Engine
	leads   domain.BookingLeadRepository
	log     *zap.Logger
	resolve time.Duration
	cleanup time.Duration
	horizon time.Duration
}

func NewSweeper(engine *governance.Engine, leads domain.BookingLeadRepository, log *zap.Logger, resolveEvery, cleanupEvery, leadHorizon time.Duration) *Sweeper {
	if resolveEvery <= 0 {
		resolveEvery = time.Hour
	}
	if cleanupEvery <= 0 {
		cleanupEvery = 24 * time.Hour
	}
	if leadHorizon <= 0 {
		leadHorizon = 14 * 24 * time.Hour
	}
	return &Sweeper{
		engine:  engine,
		leads:   leads,
		log:     log,
		resolve: resolveEvery,
		cleanup: cleanupEvery,
		horizon: leadHorizon,
	}
}

// Start launches both timers and blocks until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("sweeper started",
		zap.Duration("resolve_every", s.resolve),
		zap.Duration("cleanup_every", s.cleanup),
	)
	resolveTick := time.NewTicker(s.resolve)
	cleanupTick := time.NewTicker(s.cleanup)
	defer resolveTick.Stop()
	defer cleanupTick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-resolveTick.C:
			s.runResolve(ctx)
		case <-cleanupTick.C:
			s.runCleanup(ctx)
		}
	}
}

func (s *Sweeper) runResolve(ctx context.Context) {
	start := time.Now()
	s.engine.SweepSuggestions(ctx)
	s.engine.SweepActive(ctx)
	sweepRuns.WithLabelValues("resolve").Inc()
	sweepDuration.WithLabelValues("resolve").Observe(time.Since(start).Seconds())
}

func (s *Sweeper) runCleanup(ctx context.Context) {
	start := time.Now()
	cutoff := time.Now().Add(-s.horizon)
	n, err := s.leads.DeleteDatedBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("cleanup old leads", zap.Error(err))
	} else if n > 0 {
		s.log.Info("cleaned up old leads", zap.Int64("deleted", n))
	}
	sweepRuns.WithLabelValues("cleanup").Inc()
	sweepDuration.WithLabelValues("cleanup").Observe(time.Since(start).Seconds())
}

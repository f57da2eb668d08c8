// Package scheduler implements the tuning scheduler (C8): a single
// long-running worker that periodically invokes the weight tuner (C7),
// patterned on a ticker-and-select reconciliation loop.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/varunvs7692/chaos-negotiator/internal/tuner"
)

// DefaultInterval is the section 4.8 default tuning interval.
const DefaultInterval = 300 * time.Second

// tuneTimeout bounds a single tune pass so a stuck store read cannot wedge
// the scheduler loop past one interval.
const tuneTimeout = 30 * time.Second

// Scheduler drives tuner.Tuner on a fixed interval until its context is
// cancelled.
type Scheduler struct {
	tuner    *tuner.Tuner
	interval time.Duration
	logger   *slog.Logger
}

// New returns a Scheduler. interval <= 0 falls back to DefaultInterval.
func New(t *tuner.Tuner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{tuner: t, interval: interval, logger: logger}
}

// Run executes the tuning loop until ctx is cancelled. It tunes once
// immediately, then on every tick thereafter. A cancellation races the
// ticker via select, so shutdown is not delayed by a sleeping tick
// (section 4.8: "preempt sleeping ... return control within <=1 second").
// A tune failure is logged and never stops the loop.
func (s *Scheduler) Run(ctx context.Context) {
	if s == nil || s.tuner == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("weight tuning scheduler started", "interval", s.interval)
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("weight tuning scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, tuneTimeout)
	defer cancel()

	result, err := s.tuner.Tune(ctx)
	if err != nil {
		s.logger.Warn("weight tuning pass failed", "error", err)
		return
	}
	s.logger.Info("weight tuning pass completed",
		"samples_used", result.SamplesUsed,
		"changed", result.Changed,
		"heuristic_weight", result.NewWeights.HeuristicWeight,
		"ml_weight", result.NewWeights.MLWeight,
	)
}

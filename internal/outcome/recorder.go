// Package outcome implements the outcome recorder (C6): validates and
// persists the actual result of a deployment, re-scoring it through the
// ensemble predictor so the stored row carries the heuristic/ml/final
// scores that were in effect at record time.
package outcome

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/repository"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/ensemble"
)

// Sentinel validation errors, matched with errors.Is by callers (section
// 4.6's "record" rejects malformed input before any write).
var (
	ErrNegativeErrorRate = errors.New("outcome: actual_error_rate_percent must be non-negative")
	ErrNonFiniteMetric   = errors.New("outcome: actual metrics must be finite numbers")
)

// Recorder implements C6 against a predictor (C4) and a store (C1).
type Recorder struct {
	predictor *ensemble.Predictor
	store     repository.OutcomeRepository
}

// New returns a Recorder wired to the given predictor and store.
func New(predictor *ensemble.Predictor, store repository.OutcomeRepository) *Recorder {
	return &Recorder{predictor: predictor, store: store}
}

// Record validates actualErrorRatePercent/actualLatencyChangePercent,
// re-runs the ensemble predictor against dctx to capture the scores in
// effect right now, and persists the resulting DeploymentOutcome. No
// write happens if validation fails.
func (r *Recorder) Record(ctx context.Context, dctx domain.DeploymentContext, actualErrorRatePercent, actualLatencyChangePercent float64, rollbackTriggered bool) (domain.DeploymentOutcome, error) {
	if err := validateMetrics(actualErrorRatePercent, actualLatencyChangePercent); err != nil {
		return domain.DeploymentOutcome{}, err
	}

	deploymentID := dctx.DeploymentID
	if deploymentID == "" {
		deploymentID = uuid.NewString()
	}

	assessment := r.predictor.Predict(ctx, dctx)

	o := &domain.DeploymentOutcome{
		DeploymentID:               deploymentID,
		Timestamp:                  time.Now().UTC(),
		HeuristicScore:             assessment.HeuristicScore,
		MLScore:                    assessment.MLScore,
		FinalScore:                 assessment.RiskScore,
		ActualErrorRatePercent:     actualErrorRatePercent,
		ActualLatencyChangePercent: actualLatencyChangePercent,
		RollbackTriggered:          rollbackTriggered,
	}

	if err := r.store.Save(ctx, o); err != nil {
		return domain.DeploymentOutcome{}, fmt.Errorf("outcome: save failed: %w", err)
	}
	return *o, nil
}

func validateMetrics(errorRatePercent, latencyChangePercent float64) error {
	if math.IsNaN(errorRatePercent) || math.IsInf(errorRatePercent, 0) ||
		math.IsNaN(latencyChangePercent) || math.IsInf(latencyChangePercent, 0) {
		return ErrNonFiniteMetric
	}
	if errorRatePercent < 0 {
		return ErrNegativeErrorRate
	}
	return nil
}

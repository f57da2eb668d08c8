// Package engine is the assessment service (C9): the request-path
// composition root wiring the heuristic and ML scorers, the ensemble
// predictor, the canary policy generator, the outcome recorder, and the
// outcome store behind a small set of operations.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/varunvs7692/chaos-negotiator/internal/canary"
	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/outcome"
	"github.com/varunvs7692/chaos-negotiator/internal/repository"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/ensemble"
)

// AssessResult is the section 6 "Assess" response shape.
type AssessResult struct {
	RiskAssessment domain.RiskAssessment `json:"risk_assessment"`
	CanaryPolicy   domain.CanaryPolicy   `json:"canary_policy"`
}

// Engine exposes the operations the transport layer calls. It holds no
// lock of its own: concurrency safety is pushed down into the predictor's
// atomic weight/parameter pointers and the store's own serialization
// (section 5).
type Engine struct {
	predictor *ensemble.Predictor
	recorder  *outcome.Recorder
	store     repository.OutcomeRepository
	logger    *slog.Logger

	ready atomic.Bool
}

// New constructs an Engine. It is not ready until MarkReady is called by
// the caller once the store has finished opening (section 7:
// NotReadyError covers "engine started but essential state not yet
// initialized").
func New(predictor *ensemble.Predictor, recorder *outcome.Recorder, store repository.OutcomeRepository, logger *slog.Logger) *Engine {
	return &Engine{predictor: predictor, recorder: recorder, store: store, logger: logger}
}

// MarkReady flips the engine into the ready state. Called once, after
// the store has opened successfully.
func (e *Engine) MarkReady() { e.ready.Store(true) }

func (e *Engine) checkReady() error {
	if !e.ready.Load() {
		return notReadyErr()
	}
	return nil
}

// Assess implements section 4.9: validate, score via C2/C3, combine via
// C4, build a policy via C5, return both. Pure and deterministic
// relative to the current weights snapshot; no side effects.
func (e *Engine) Assess(ctx context.Context, dctx domain.DeploymentContext) (AssessResult, error) {
	if err := ctx.Err(); err != nil {
		return AssessResult{}, mapContextErr(err)
	}
	if err := validateContext(dctx); err != nil {
		return AssessResult{}, validationErr(err)
	}

	assessment := e.predictor.Predict(ctx, dctx)
	policy := canary.Generate(assessment, dctx)
	if len(policy.Stages) > 0 {
		assessment.AffectedUsersEstimated = int(dctx.CurrentQPS * float64(policy.Stages[0].DurationSeconds))
	}

	return AssessResult{RiskAssessment: assessment, CanaryPolicy: policy}, nil
}

// RecordOutcome implements the section 6 "Record Outcome" operation. The
// caller supplies only an id, so a minimal context (empty changes,
// service_name "unknown") is always synthesized per section 6's note;
// this is logged, not silently absorbed, per section 9's open question 3.
func (e *Engine) RecordOutcome(ctx context.Context, deploymentID string, actualErrorRatePercent, actualLatencyChangePercent float64, rollbackTriggered bool) (domain.DeploymentOutcome, error) {
	if err := e.checkReady(); err != nil {
		return domain.DeploymentOutcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.DeploymentOutcome{}, mapContextErr(err)
	}

	dctx := domain.DeploymentContext{DeploymentID: deploymentID, ServiceName: "unknown"}
	if e.logger != nil {
		e.logger.Info("synthesizing minimal context for outcome record",
			"deployment_id", deploymentID, "synthesized_context", true)
	}

	o, err := e.recorder.Record(ctx, dctx, actualErrorRatePercent, actualLatencyChangePercent, rollbackTriggered)
	if err != nil {
		return domain.DeploymentOutcome{}, classifyRecordErr(err)
	}
	return o, nil
}

// RecordOutcomeWithContext is RecordOutcome's counterpart for callers
// that supply the full DeploymentContext alongside the observed metrics,
// so C6 re-scores against the real context rather than a synthesized
// minimal one. Not part of section 6's literal wire contract, but a
// natural extension the same operation supports.
func (e *Engine) RecordOutcomeWithContext(ctx context.Context, dctx domain.DeploymentContext, actualErrorRatePercent, actualLatencyChangePercent float64, rollbackTriggered bool) (domain.DeploymentOutcome, error) {
	if err := e.checkReady(); err != nil {
		return domain.DeploymentOutcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.DeploymentOutcome{}, mapContextErr(err)
	}
	if err := validateContext(dctx); err != nil {
		return domain.DeploymentOutcome{}, validationErr(err)
	}

	o, err := e.recorder.Record(ctx, dctx, actualErrorRatePercent, actualLatencyChangePercent, rollbackTriggered)
	if err != nil {
		return domain.DeploymentOutcome{}, classifyRecordErr(err)
	}
	return o, nil
}

// Recent implements section 6 "List Recent Outcomes".
func (e *Engine) Recent(ctx context.Context, limit int) ([]domain.DeploymentOutcome, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, validationErr(err)
	}
	rows, err := e.store.Recent(ctx, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

// Advance wraps canary.Advance for transport uniformity; it is pure and
// cannot fail.
func (e *Engine) Advance(policy domain.CanaryPolicy, currentStageIndex int, metrics *canary.ObservedMetrics) domain.CanaryAdvice {
	return canary.Advance(policy, currentStageIndex, metrics)
}

func mapContextErr(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutErr(err)
	}
	return internalErr(err)
}

// classifyRecordErr maps outcome.Recorder's sentinel validation errors and
// any other failure (treated as storage, since the recorder's only other
// failure path is the repository) into the engine's taxonomy.
func classifyRecordErr(err error) *Error {
	if errors.Is(err, outcome.ErrNegativeErrorRate) || errors.Is(err, outcome.ErrNonFiniteMetric) {
		return validationErr(err)
	}
	return storageErr(err)
}

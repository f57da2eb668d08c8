// Package ensemble implements the ensemble risk predictor (C4): a
// weighted combination of the heuristic and ML scorers producing a final
// risk score, confidence, and predicted impact.
package ensemble

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/repository"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/heuristic"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/mlscore"
)

// calibrationWindow is N in section 4.4: historical_calibration looks at
// the last 20 outcomes.
const calibrationWindow = 20

// minOutcomesForCalibration is the threshold below which calibration
// falls back to the neutral 50 value.
const minOutcomesForCalibration = 5

// Predictor combines the heuristic and ML scorers under a set of
// EnsembleWeights that can be swapped atomically by the weight tuner (C7)
// without blocking in-flight predictions.
type Predictor struct {
	weights atomic.Pointer[domain.EnsembleWeights]
	ml      *mlscore.Scorer
	history repository.OutcomeRepository
}

// New constructs a Predictor with the default cold-start weights.
func New(ml *mlscore.Scorer, history repository.OutcomeRepository) *Predictor {
	p := &Predictor{ml: ml, history: history}
	w := domain.DefaultEnsembleWeights()
	p.weights.Store(&w)
	return p
}

// Weights returns a snapshot of the current ensemble weights.
func (p *Predictor) Weights() domain.EnsembleWeights {
	return *p.weights.Load()
}

// SetWeights atomically replaces the ensemble weights. Only the weight
// tuner (C7) calls this in steady state.
func (p *Predictor) SetWeights(w domain.EnsembleWeights) {
	p.weights.Store(&w)
}

// MLScorer exposes the underlying ML scorer so the tuner can update its
// parameters alongside the ensemble weights.
func (p *Predictor) MLScorer() *mlscore.Scorer {
	return p.ml
}

// Predict computes a full RiskAssessment for ctx. The weights pointer is
// snapshotted exactly once at entry so heuristic_weight+ml_weight always
// sums to 1 within a single computation, even under a concurrent tune
// (section 4.4, section 5, section 8 scenario 6).
func (p *Predictor) Predict(ctx context.Context, dctx domain.DeploymentContext) domain.RiskAssessment {
	w := *p.weights.Load()

	h := heuristic.Score(dctx)
	mlRaw := p.ml.Predict(dctx) // already rescaled to 0-100 at the C3 boundary

	finalScore := w.HeuristicWeight*h.Score + w.MLWeight*mlRaw
	if finalScore < 0 {
		finalScore = 0
	}
	if finalScore > 100 {
		finalScore = 100
	}

	agreement := 100 - minFloat(100, absFloat(h.Score-mlRaw))
	calibration := p.historicalCalibration(ctx)

	confidence := 0.6*agreement + 0.2*h.Confidence + 0.2*calibration
	confidence = clamp(confidence, 0, 100)

	assessment := domain.RiskAssessment{
		RiskScore:                         finalScore,
		RiskLevel:                         domain.RiskLevelForScore(finalScore),
		ConfidencePercent:                 confidence,
		IdentifiedFactors:                 h.IdentifiedFactors,
		PredictedErrorRateIncreasePercent: h.PredictedErrorRateIncreasePercent,
		PredictedP95LatencyIncreasePct:    h.PredictedP95LatencyIncreasePct,
		HeuristicScore:                    h.Score,
		MLScore:                           mlRaw,
	}
	assessment.Reasoning = reasoning(assessment, h.Score, mlRaw)
	return assessment
}

// historicalCalibration implements section 4.4's derivation: mean
// absolute error of final_score vs. actual_risk_proxy*100 over the last
// N=20 outcomes, 50 as the cold-start fallback below 5 samples.
func (p *Predictor) historicalCalibration(ctx context.Context) float64 {
	if p.history == nil {
		return 50
	}
	recent, err := p.history.Recent(ctx, calibrationWindow)
	if err != nil || len(recent) < minOutcomesForCalibration {
		return 50
	}

	var sumAbsErr float64
	for _, o := range recent {
		actual := o.ActualRiskProxy() * 100
		sumAbsErr += absFloat(o.FinalScore - actual)
	}
	mae := sumAbsErr / float64(len(recent))
	return clamp(100-minFloat(100, mae), 0, 100)
}

func reasoning(a domain.RiskAssessment, h, ml float64) string {
	return fmt.Sprintf(
		"risk=%s (score=%.1f/100); heuristic=%.1f ml=%.1f; confidence=%.1f%%",
		a.RiskLevel, a.RiskScore, h, ml, a.ConfidencePercent,
	)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

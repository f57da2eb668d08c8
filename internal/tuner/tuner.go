// Package tuner implements the weight tuner (C7): a grid search over
// ensemble weight pairs against recent outcome history, followed by a
// bias update to the ML scorer, applied atomically to the ensemble
// predictor shared with the request path.
package tuner

import (
	"context"
	"fmt"
	"sync"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/repository"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/ensemble"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/mlscore"
)

// defaultSampleWindow is K in section 4.7: up to the most recent 100
// outcomes feed a single tune pass.
const defaultSampleWindow = 100

// minOutcomesForTune is the floor below which a tune leaves weights
// unchanged (section 4.7 step 1).
const minOutcomesForTune = 5

// smoothingCurrent and smoothingChosen implement the exponential
// smoothing of section 4.7 step 5: new = 0.7*chosen + 0.3*current.
const (
	smoothingChosen  = 0.7
	smoothingCurrent = 0.3
)

// candidateHeuristicWeights is the grid search domain of section 4.7 step
// 3, w_h in {0.0, 0.1, ..., 1.0}.
var candidateHeuristicWeights = []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// Config controls one Tuner's behavior.
type Config struct {
	SampleWindow int
	MLUpdate     mlscore.UpdateConfig
}

// DefaultConfig returns the section 4.7/4.3 defaults.
func DefaultConfig() Config {
	return Config{SampleWindow: defaultSampleWindow, MLUpdate: mlscore.DefaultUpdateConfig()}
}

// Result reports what a Tune call did.
type Result struct {
	NewWeights domain.EnsembleWeights
	SamplesUsed int
	Changed     bool
}

// Tuner reads outcome history (C1) and updates the ensemble predictor's
// weights and ML parameters (C4) in place.
type Tuner struct {
	predictor *ensemble.Predictor
	history   repository.OutcomeRepository
	cfg       Config

	// mu serializes tune passes: section 4.7's "at most one tune in
	// flight at a time".
	mu sync.Mutex
}

// New returns a Tuner wired to predictor and history with cfg.
func New(predictor *ensemble.Predictor, history repository.OutcomeRepository, cfg Config) *Tuner {
	if cfg.SampleWindow <= 0 {
		cfg.SampleWindow = defaultSampleWindow
	}
	return &Tuner{predictor: predictor, history: history, cfg: cfg}
}

// Tune runs one tuning pass: section 4.7 steps 1-7.
func (t *Tuner) Tune(ctx context.Context) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	outcomes, err := t.history.Recent(ctx, t.cfg.SampleWindow)
	if err != nil {
		return Result{}, fmt.Errorf("tuner: reading outcome history: %w", err)
	}

	current := t.predictor.Weights()
	if len(outcomes) < minOutcomesForTune {
		return Result{NewWeights: current, SamplesUsed: len(outcomes)}, nil
	}

	chosen := bestWeights(outcomes, current)
	smoothed := domain.EnsembleWeights{
		HeuristicWeight: smoothingChosen*chosen.HeuristicWeight + smoothingCurrent*current.HeuristicWeight,
		MLWeight:        smoothingChosen*chosen.MLWeight + smoothingCurrent*current.MLWeight,
	}
	normalized := normalize(smoothed)
	t.predictor.SetWeights(normalized)

	ml := t.predictor.MLScorer()
	samples := make([]mlscore.OutcomeSample, 0, len(outcomes))
	for _, o := range outcomes {
		samples = append(samples, mlscore.OutcomeSample{
			PredictedMLScore: o.MLScore,
			ProxyTarget:      o.ActualRiskProxy(),
		})
	}
	ml.Replace(ml.UpdateFromOutcomes(samples, t.cfg.MLUpdate))

	return Result{NewWeights: normalized, SamplesUsed: len(outcomes), Changed: true}, nil
}

// bestWeights implements section 4.7 steps 3-4: grid search over
// w_h in {0.0,...,1.0} minimizing MSE of w_h*heuristic + w_m*ml against
// proxy*100, tie-broken by L1 distance to current.
func bestWeights(outcomes []domain.DeploymentOutcome, current domain.EnsembleWeights) domain.EnsembleWeights {
	best := domain.EnsembleWeights{HeuristicWeight: candidateHeuristicWeights[0], MLWeight: 1 - candidateHeuristicWeights[0]}
	bestMSE := mse(outcomes, best)
	bestL1 := l1Distance(best, current)

	for _, wh := range candidateHeuristicWeights[1:] {
		candidate := domain.EnsembleWeights{HeuristicWeight: wh, MLWeight: 1 - wh}
		candidateMSE := mse(outcomes, candidate)
		candidateL1 := l1Distance(candidate, current)

		if candidateMSE < bestMSE || (candidateMSE == bestMSE && candidateL1 < bestL1) {
			best = candidate
			bestMSE = candidateMSE
			bestL1 = candidateL1
		}
	}
	return best
}

func mse(outcomes []domain.DeploymentOutcome, w domain.EnsembleWeights) float64 {
	var sumSq float64
	for _, o := range outcomes {
		predicted := w.HeuristicWeight*o.HeuristicScore + w.MLWeight*o.MLScore
		target := o.ActualRiskProxy() * 100
		diff := predicted - target
		sumSq += diff * diff
	}
	return sumSq / float64(len(outcomes))
}

func l1Distance(a, b domain.EnsembleWeights) float64 {
	return absFloat(a.HeuristicWeight-b.HeuristicWeight) + absFloat(a.MLWeight-b.MLWeight)
}

// normalize rescales w so its components sum to exactly 1, guarding
// against floating point drift after smoothing.
func normalize(w domain.EnsembleWeights) domain.EnsembleWeights {
	sum := w.HeuristicWeight + w.MLWeight
	if sum <= 0 {
		return domain.DefaultEnsembleWeights()
	}
	return domain.EnsembleWeights{
		HeuristicWeight: w.HeuristicWeight / sum,
		MLWeight:        w.MLWeight / sum,
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

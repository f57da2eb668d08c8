package domain

// EnsembleWeights are the two coefficients combining the heuristic and ML
// scorers into a final risk score. They always sum to 1. Treated as an
// immutable value: callers that want to change weights build a new struct
// and swap the pointer (see risk/ensemble.Predictor), never mutate fields
// in place.
type EnsembleWeights struct {
	HeuristicWeight float64 `json:"heuristic_weight"`
	MLWeight        float64 `json:"ml_weight"`
}

// DefaultEnsembleWeights are the cold-start weights: 0.6 heuristic, 0.4 ML.
func DefaultEnsembleWeights() EnsembleWeights {
	return EnsembleWeights{HeuristicWeight: 0.6, MLWeight: 0.4}
}

// Normalized reports whether the two weights sum to 1 within tolerance.
func (w EnsembleWeights) Normalized() bool {
	const eps = 1e-9
	sum := w.HeuristicWeight + w.MLWeight
	return sum > 1-eps && sum < 1+eps
}

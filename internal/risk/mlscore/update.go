package mlscore

import "github.com/varunvs7692/chaos-negotiator/internal/domain"

// Sample is one training example for an update pass: the context that
// produced a prediction, and the actual risk proxy observed for it.
type Sample struct {
	Context   domain.DeploymentContext
	ProxyTarget float64 // actual risk proxy in [0,1], section 4.3/glossary
}

// UpdateConfig controls the incremental SGD pass.
type UpdateConfig struct {
	LearningRate float64 // eta, default 0.05
	L2           float64 // lambda, default 1e-3
}

// DefaultUpdateConfig returns the defaults named in section 4.3.
func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{LearningRate: 0.05, L2: 1e-3}
}

const maxUpdateBatch = 200

// Update performs one stochastic-gradient-style pass over up to 200
// samples, minimizing squared error between the model's [0,1] prediction
// and each sample's actual risk proxy, with L2 regularization. It returns
// the new parameter set without mutating the Scorer; callers decide
// whether and when to Replace().
func (s *Scorer) Update(samples []Sample, cfg UpdateConfig) Params {
	if len(samples) > maxUpdateBatch {
		samples = samples[:maxUpdateBatch]
	}
	p := s.Params()

	for _, sample := range samples {
		features := extractFeatures(sample.Context)
		raw := p.Bias
		for i, f := range features {
			raw += f * p.Weights[i]
		}
		predicted := sigmoid(raw)
		// d(MSE)/d(raw) = 2*(predicted-target)*sigmoid'(raw); absorb the
		// constant 2 into the learning rate, as is conventional for this
		// style of hand-rolled SGD step.
		grad := (predicted - sample.ProxyTarget) * predicted * (1 - predicted)

		for i, f := range features {
			p.Weights[i] -= cfg.LearningRate * (grad*f + cfg.L2*p.Weights[i])
		}
		p.Bias -= cfg.LearningRate * grad
	}

	return p
}

// OutcomeSample is a training example derived from a persisted outcome
// rather than a live context: the ML score captured at record time and
// the actual risk proxy observed for it. Persisted outcomes do not
// retain the DeploymentContext that produced them (see package outcome),
// so only the gradient term that does not depend on the original feature
// vector -- the bias -- can be recovered from history. Update above
// remains the full-feature form, used when a context is available.
type OutcomeSample struct {
	PredictedMLScore float64 // final_ml_score, 0-100
	ProxyTarget      float64 // actual risk proxy in [0,1]
}

// UpdateFromOutcomes performs the tuner's history-driven SGD pass (section
// 4.7 step 6): a bias-only gradient step per sample, since the feature
// vectors behind historical ml_score values were not retained.
func (s *Scorer) UpdateFromOutcomes(samples []OutcomeSample, cfg UpdateConfig) Params {
	if len(samples) > maxUpdateBatch {
		samples = samples[:maxUpdateBatch]
	}
	p := s.Params()

	for _, sample := range samples {
		predicted := clamp01(sample.PredictedMLScore / 100)
		grad := (predicted - sample.ProxyTarget) * predicted * (1 - predicted)
		p.Bias -= cfg.LearningRate * (grad + cfg.L2*p.Bias)
	}

	return p
}

// Package heuristic implements the deterministic rule-based risk scorer
// (C2): a pure function of DeploymentContext with no clock and no
// randomness, per section 4.2.
package heuristic

import (
	"strings"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

// Result is the heuristic scorer's output, consumed by the ensemble
// predictor (C4).
type Result struct {
	Score                             float64
	IdentifiedFactors                 []domain.RiskTag
	PredictedErrorRateIncreasePercent float64
	PredictedP95LatencyIncreasePct    float64
	Confidence                        float64
}

// Score computes the heuristic risk assessment for ctx, following the
// five-step algorithm in section 4.2.
func Score(ctx domain.DeploymentContext) Result {
	matched := map[domain.RiskTag]bool{}
	var latencyIncrease, errorIncrease float64

	for _, change := range ctx.Changes {
		desc := strings.ToLower(change.Description)
		for _, r := range ruleTable {
			if matched[r.tag] {
				continue // already counted for this request; avoid double contribution
			}
			if matchesRule(r, desc, change.RiskTags) {
				matched[r.tag] = true
				latencyIncrease += r.latencyIncreasePct
				errorIncrease += r.errorRateIncreasePct
			}
		}
	}

	matchedCount := len(matched)
	score := float64(len(ctx.Changes))*2 + float64(matchedCount)*15 + sizeFactor(ctx.TotalLinesChanged())
	if ctx.DependencyCount() >= 2 {
		score += 10
	}
	score = clamp(score, 0, 100)

	factors := make([]domain.RiskTag, 0, len(matched))
	for tag := range matched {
		factors = append(factors, tag)
	}

	confidence := clamp(50+10*float64(matchedCount), 0, 95)

	return Result{
		Score:                              score,
		IdentifiedFactors:                  factors,
		PredictedErrorRateIncreasePercent: clamp(errorIncrease, 0, 100),
		PredictedP95LatencyIncreasePct:    clamp(latencyIncrease, 0, 100),
		Confidence:                        confidence,
	}
}

// sizeFactor is the piecewise-linear size contribution from section 4.2
// step 2: 0 for <=50 lines, +10 for <=500, +25 otherwise.
func sizeFactor(totalLinesChanged int) float64 {
	switch {
	case totalLinesChanged <= 50:
		return 0
	case totalLinesChanged <= 500:
		return 10
	default:
		return 25
	}
}

func matchesRule(r rule, lowerDescription string, declaredTags []domain.RiskTag) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lowerDescription, kw) {
			return true
		}
	}
	for _, tag := range declaredTags {
		if tag == r.tag {
			return true
		}
	}
	return false
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

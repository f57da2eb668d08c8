package canary

import (
	"fmt"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

// ObservedMetrics are the caller-reported metrics for the stage currently
// running, used by Advance to decide whether to hold, advance, or roll
// back. This is a pure function of already-returned data; the engine
// never fetches these itself (section 1, Non-goal (a)).
type ObservedMetrics struct {
	ErrorRatePercent float64 `json:"error_rate_percent"`
	LatencyMS        float64 `json:"latency_ms"`
}

// Advance recommends the next action for a canary rollout currently
// sitting on currentStageIndex, given policy's guardrails and optionally
// observed metrics. Grounded in
// original_source/chaos_negotiator/canary/orchestrator.py's next_stage,
// adapted to this specification's Stage/CanaryPolicy shape.
func Advance(policy domain.CanaryPolicy, currentStageIndex int, metrics *ObservedMetrics) domain.CanaryAdvice {
	if len(policy.Stages) == 0 {
		return domain.CanaryAdvice{
			RecommendedTrafficPercent: 100,
			Reason:                    "policy has no stages; defaulting to full rollout",
			ReadyToPromote:            true,
		}
	}
	if currentStageIndex >= len(policy.Stages)-1 {
		return domain.CanaryAdvice{
			RecommendedTrafficPercent: 100,
			Reason:                    "all canary stages passed; ready for full rollout",
			ReadyToPromote:            true,
		}
	}

	if metrics != nil && policy.RollbackOnViolation {
		if metrics.ErrorRatePercent > policy.ErrorRateThresholdPct {
			return domain.CanaryAdvice{
				RecommendedTrafficPercent: 0,
				Reason: fmt.Sprintf("error rate %.2f%% exceeds threshold %.2f%%",
					metrics.ErrorRatePercent, policy.ErrorRateThresholdPct),
				RollbackRecommended: true,
			}
		}
		if metrics.LatencyMS > policy.LatencyThresholdMS {
			return domain.CanaryAdvice{
				RecommendedTrafficPercent: 0,
				Reason: fmt.Sprintf("latency %.0fms exceeds threshold %.0fms",
					metrics.LatencyMS, policy.LatencyThresholdMS),
				RollbackRecommended: true,
			}
		}
	}

	if metrics != nil && !policy.RollbackOnViolation && currentStageIndex >= 0 &&
		(metrics.ErrorRatePercent > policy.ErrorRateThresholdPct || metrics.LatencyMS > policy.LatencyThresholdMS) {
		current := policy.Stages[currentStageIndex]
		return domain.CanaryAdvice{
			RecommendedTrafficPercent: current.TrafficPercent,
			Reason: fmt.Sprintf("guardrail breached without rollback authority; holding at stage %d (%s): %.0f%% traffic",
				current.Index, current.Name, current.TrafficPercent),
		}
	}

	next := policy.Stages[currentStageIndex+1]
	return domain.CanaryAdvice{
		RecommendedTrafficPercent: next.TrafficPercent,
		Reason: fmt.Sprintf("advancing to stage %d (%s): %.0f%% traffic",
			next.Index, next.Name, next.TrafficPercent),
	}
}

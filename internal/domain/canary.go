package domain

// Stage is one segment of a staged canary rollout.
type Stage struct {
	Index          int     `json:"index"`
	Name           string  `json:"name"`
	TrafficPercent float64 `json:"traffic_percent"`
	DurationSeconds int    `json:"duration_seconds"`
}

// CanaryPolicy is the output of the canary policy generator (C5).
type CanaryPolicy struct {
	Stages                   []Stage `json:"stages"`
	ErrorRateThresholdPct    float64 `json:"error_rate_threshold_percent"`
	LatencyThresholdMS       float64 `json:"latency_threshold_ms"`
	RollbackOnViolation      bool    `json:"rollback_on_violation"`
}

// CanaryAdvice is a pure recommendation returned by the optional
// advance-canary operation: given a policy and the stage the caller is
// currently sitting on (plus optional observed metrics), whether to hold,
// advance, roll back, or promote to full traffic.
type CanaryAdvice struct {
	RecommendedTrafficPercent float64 `json:"recommended_traffic_percent"`
	Reason                    string  `json:"reason"`
	ReadyToPromote            bool    `json:"ready_to_promote"`
	RollbackRecommended       bool    `json:"rollback_recommended"`
}

package domain

import "time"

// DeploymentOutcome is a persisted record of one deployment's predicted and
// observed values. Rows are append-only; the ensemble weights in effect at
// recording time are captured into HeuristicScore/MLScore/FinalScore so
// past rows stay reproducible even after the weights change.
type DeploymentOutcome struct {
	ID                          int64     `json:"id"`
	DeploymentID                string    `json:"deployment_id"`
	Timestamp                   time.Time `json:"timestamp"`
	HeuristicScore              float64   `json:"heuristic_score"`
	MLScore                     float64   `json:"ml_score"`
	FinalScore                  float64   `json:"final_score"`
	ActualErrorRatePercent      float64   `json:"actual_error_rate_percent"`
	ActualLatencyChangePercent  float64   `json:"actual_latency_change_percent"`
	RollbackTriggered           bool      `json:"rollback_triggered"`
}

// ActualRiskProxy computes the deterministic [0,1] target signal used both
// as the ML scorer's training target and as the calibration reference for
// historical_calibration (section 4.3 / glossary: "actual risk proxy").
func (o DeploymentOutcome) ActualRiskProxy() float64 {
	rollback := 0.0
	if o.RollbackTriggered {
		rollback = 1.0
	}
	proxy := 0.5*rollback + 0.3*(o.ActualErrorRatePercent/1.0) + 0.2*(o.ActualLatencyChangePercent/50.0)
	if proxy < 0 {
		proxy = 0
	}
	if proxy > 1 {
		proxy = 1
	}
	return proxy
}

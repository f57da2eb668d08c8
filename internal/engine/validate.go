package engine

import (
	"fmt"
	"math"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

// DefaultRecentLimit and MaxRecentLimit are the section 6 "List Recent
// Outcomes" defaults: transport applies DefaultRecentLimit when the
// caller omits the parameter entirely; the engine only bounds-checks
// whatever value it is actually given, since limit==0 is a legitimate,
// distinct request (section 4.1: "limit == 0 returns empty"), not a
// stand-in for "omitted".
const (
	DefaultRecentLimit = 20
	MaxRecentLimit      = 500
)

// validateContext rejects malformed DeploymentContext input per section 7:
// negative rates, non-finite numbers. Unknown risk_tags are tolerated
// rather than rejected (section 7's last propagation rule) -- there is no
// enum-membership check here at all, by design.
func validateContext(dctx domain.DeploymentContext) error {
	fields := map[string]float64{
		"current_error_rate_percent": dctx.CurrentErrorRatePct,
		"current_p95_latency_ms":     dctx.CurrentP95LatencyMS,
		"target_error_rate_percent":  dctx.TargetErrorRatePct,
		"target_p95_latency_ms":      dctx.TargetP95LatencyMS,
		"current_qps":                dctx.CurrentQPS,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
	}
	if dctx.CurrentErrorRatePct < 0 {
		return fmt.Errorf("current_error_rate_percent must be non-negative")
	}
	if dctx.CurrentP95LatencyMS < 0 {
		return fmt.Errorf("current_p95_latency_ms must be non-negative")
	}
	if dctx.CurrentQPS < 0 {
		return fmt.Errorf("current_qps must be non-negative")
	}
	for _, c := range dctx.Changes {
		if c.LinesChanged < 0 {
			return fmt.Errorf("lines_changed must be non-negative")
		}
	}
	return nil
}

// validateLimit rejects a limit outside [0, MaxRecentLimit] (section 7:
// "limit out of range" is a ValidationError, not something to clamp).
func validateLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if limit > MaxRecentLimit {
		return fmt.Errorf("limit must not exceed %d", MaxRecentLimit)
	}
	return nil
}

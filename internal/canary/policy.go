// Package canary implements the canary policy generator (C5): a pure
// function of (RiskAssessment, DeploymentContext) mapping risk and
// confidence to a staged rollout plan and guardrail thresholds.
package canary

import "github.com/varunvs7692/chaos-negotiator/internal/domain"

type confidenceBand string

const (
	confidenceHigh   confidenceBand = "high"
	confidenceMedium confidenceBand = "medium"
	confidenceLow    confidenceBand = "low"
)

func bandForConfidence(confidence float64) confidenceBand {
	switch {
	case confidence >= 80:
		return confidenceHigh
	case confidence >= 60:
		return confidenceMedium
	default:
		return confidenceLow
	}
}

// stageTemplate is one row of the base-stage tables in section 4.5.
type stageTemplate struct {
	name            string
	trafficPercent  float64
	baseDurationSec int
}

var (
	stages3 = []stageTemplate{
		{"smoke", 10, 180},
		{"majority", 50, 300},
		{"full", 100, 300},
	}
	stages4 = []stageTemplate{
		{"smoke", 5, 300},
		{"light", 25, 420},
		{"majority", 50, 420},
		{"full", 100, 300},
	}
	stages5 = []stageTemplate{
		{"smoke", 5, 300},
		{"light", 10, 420},
		{"half", 25, 600},
		{"majority", 50, 600},
		{"full", 100, 300},
	}
)

// planCell is one entry of the risk-band x confidence-band matrix in
// section 4.5.
type planCell struct {
	templates        []stageTemplate
	durationMultiplier float64
}

var planMatrix = map[domain.RiskLevel]map[confidenceBand]planCell{
	domain.RiskLow: {
		confidenceHigh:   {stages3, 0.8},
		confidenceMedium: {stages4, 1.0},
		confidenceLow:    {stages5, 1.2},
	},
	domain.RiskModerate: {
		confidenceHigh:   {stages4, 1.0},
		confidenceMedium: {stages4, 1.2},
		confidenceLow:    {stages5, 1.5},
	},
	domain.RiskHigh: {
		confidenceHigh:   {stages4, 1.2},
		confidenceMedium: {stages5, 1.5},
		confidenceLow:    {stages5, 1.8},
	},
	domain.RiskCritical: {
		confidenceHigh:   {stages5, 1.5},
		confidenceMedium: {stages5, 1.8},
		confidenceLow:    {stages5, 2.0},
	},
}

// guardrailsByBand gives the (error_rate_threshold, latency_threshold)
// pair per risk band in section 4.5.
var guardrailsByBand = map[domain.RiskLevel]struct {
	errorRatePct float64
	latencyMS    float64
}{
	domain.RiskCritical: {0.2, 200},
	domain.RiskHigh:     {0.3, 250},
	domain.RiskModerate: {0.5, 500},
	domain.RiskLow:      {0.5, 500},
}

// cachingLatencyCapMS is the hard cap applied when the caching factor is
// identified, regardless of risk band (section 4.5, "Additional rule").
const cachingLatencyCapMS = 200

// Generate builds the CanaryPolicy for the given assessment and context.
func Generate(assessment domain.RiskAssessment, dctx domain.DeploymentContext) domain.CanaryPolicy {
	cell := planMatrix[assessment.RiskLevel][bandForConfidence(assessment.ConfidencePercent)]

	stages := make([]domain.Stage, 0, len(cell.templates))
	for i, tpl := range cell.templates {
		stages = append(stages, domain.Stage{
			Index:           i,
			Name:            tpl.name,
			TrafficPercent:  tpl.trafficPercent,
			DurationSeconds: int(float64(tpl.baseDurationSec) * cell.durationMultiplier),
		})
	}

	guard := guardrailsByBand[assessment.RiskLevel]
	latencyThreshold := guard.latencyMS
	if assessment.HasFactor(domain.RiskTagCaching) && latencyThreshold > cachingLatencyCapMS {
		latencyThreshold = cachingLatencyCapMS
	}

	rollbackOnViolation := dctx.RollbackCapability &&
		(assessment.RiskLevel == domain.RiskHigh || assessment.RiskLevel == domain.RiskCritical)

	return domain.CanaryPolicy{
		Stages:                stages,
		ErrorRateThresholdPct: guard.errorRatePct,
		LatencyThresholdMS:    latencyThreshold,
		RollbackOnViolation:   rollbackOnViolation,
	}
}

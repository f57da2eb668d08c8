package heuristic

import (
	"testing"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

func TestScoreIsPureAndDeterministic(t *testing.T) {
	ctx := domain.DeploymentContext{
		Changes: []domain.ChangeDescriptor{
			{Description: "Optimize cache TTL for session store", LinesChanged: 45, RiskTags: []domain.RiskTag{domain.RiskTagCaching}},
		},
		RollbackCapability: true,
	}

	first := Score(ctx)
	second := Score(ctx)

	if first.Score != second.Score {
		t.Fatalf("expected deterministic score, got %v then %v", first.Score, second.Score)
	}
	if first.PredictedP95LatencyIncreasePct != second.PredictedP95LatencyIncreasePct {
		t.Fatalf("expected deterministic latency prediction")
	}
}

func TestScoreIdentifiesCachingFactor(t *testing.T) {
	ctx := domain.DeploymentContext{
		Changes: []domain.ChangeDescriptor{
			{Description: "Optimize cache TTL", LinesChanged: 45, RiskTags: []domain.RiskTag{domain.RiskTagCaching}},
		},
	}

	result := Score(ctx)

	found := false
	for _, f := range result.IdentifiedFactors {
		if f == domain.RiskTagCaching {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected caching factor, got %v", result.IdentifiedFactors)
	}
	if result.PredictedP95LatencyIncreasePct <= 0 {
		t.Fatalf("expected positive latency increase, got %v", result.PredictedP95LatencyIncreasePct)
	}
}

func TestScoreClampsToValidRange(t *testing.T) {
	changes := make([]domain.ChangeDescriptor, 0, 40)
	for i := 0; i < 40; i++ {
		changes = append(changes, domain.ChangeDescriptor{
			Description:  "rewrite database schema migration api contract traffic load balancing encrypt cache permission storage",
			LinesChanged: 1000,
		})
	}
	ctx := domain.DeploymentContext{Changes: changes, Dependencies: []string{"a", "b", "c"}}

	result := Score(ctx)

	if result.Score < 0 || result.Score > 100 {
		t.Fatalf("score out of range: %v", result.Score)
	}
	if result.PredictedErrorRateIncreasePercent < 0 || result.PredictedErrorRateIncreasePercent > 100 {
		t.Fatalf("error rate increase out of range: %v", result.PredictedErrorRateIncreasePercent)
	}
	if result.PredictedP95LatencyIncreasePct < 0 || result.PredictedP95LatencyIncreasePct > 100 {
		t.Fatalf("latency increase out of range: %v", result.PredictedP95LatencyIncreasePct)
	}
	if result.Confidence < 0 || result.Confidence > 95 {
		t.Fatalf("confidence out of range: %v", result.Confidence)
	}
}

func TestScoreEmptyChangesIsLow(t *testing.T) {
	ctx := domain.DeploymentContext{
		CurrentErrorRatePct: 0.01,
		CurrentP95LatencyMS: 50,
	}

	result := Score(ctx)

	if result.Score >= 30 {
		t.Fatalf("expected low score for empty changes, got %v", result.Score)
	}
}

func TestSizeFactorBoundaries(t *testing.T) {
	cases := []struct {
		lines int
		want  float64
	}{
		{0, 0},
		{50, 0},
		{51, 10},
		{500, 10},
		{501, 25},
	}
	for _, tc := range cases {
		if got := sizeFactor(tc.lines); got != tc.want {
			t.Errorf("sizeFactor(%d) = %v, want %v", tc.lines, got, tc.want)
		}
	}
}

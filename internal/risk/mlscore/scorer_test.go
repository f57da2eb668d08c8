package mlscore

import (
	"math"
	"testing"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

func TestPredictColdStartWithinBounds(t *testing.T) {
	s := New()
	ctx := domain.DeploymentContext{
		Changes: []domain.ChangeDescriptor{
			{Description: "Optimize cache TTL", LinesChanged: 45, RiskTags: []domain.RiskTag{domain.RiskTagCaching}},
		},
		CurrentQPS: 500,
	}

	score := s.Predict(ctx)

	if score < 0 || score > 100 {
		t.Fatalf("score out of bounds: %v", score)
	}
}

func TestPredictDeterministic(t *testing.T) {
	s := New()
	ctx := domain.DeploymentContext{
		Changes: []domain.ChangeDescriptor{{Description: "database schema migration", LinesChanged: 800}},
	}

	a := s.Predict(ctx)
	b := s.Predict(ctx)

	if a != b {
		t.Fatalf("expected identical scores for identical input, got %v and %v", a, b)
	}
}

func TestPredictEmptyContextNearCapZero(t *testing.T) {
	s := New()
	score := s.Predict(domain.DeploymentContext{})

	if score < 0 || score > 40 {
		t.Fatalf("expected a low prior for an empty context, got %v", score)
	}
}

func TestUpdateMovesTowardTarget(t *testing.T) {
	s := New()
	ctx := domain.DeploymentContext{
		Changes: []domain.ChangeDescriptor{
			{Description: "database schema migration", LinesChanged: 2000, RiskTags: []domain.RiskTag{domain.RiskTagDatabaseSchema}},
		},
	}
	before := s.Predict(ctx) / 100

	samples := make([]Sample, 50)
	for i := range samples {
		samples[i] = Sample{Context: ctx, ProxyTarget: 0.95}
	}
	updated := s.Update(samples, DefaultUpdateConfig())
	s.Replace(updated)

	after := s.Predict(ctx) / 100

	if math.Abs(after-0.95) >= math.Abs(before-0.95) {
		t.Fatalf("expected prediction to move toward target: before=%v after=%v", before, after)
	}
}

func TestUpdateCapsBatchSize(t *testing.T) {
	s := New()
	samples := make([]Sample, 1000)
	for i := range samples {
		samples[i] = Sample{Context: domain.DeploymentContext{}, ProxyTarget: 1.0}
	}

	// Must not panic or loop indefinitely on an oversized batch.
	_ = s.Update(samples, DefaultUpdateConfig())
}

package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/repository/memstore"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/ensemble"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/mlscore"
	"github.com/varunvs7692/chaos-negotiator/internal/tuner"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunTunesImmediatelyAndStopsOnCancel(t *testing.T) {
	store := memstore.New()
	for i := 0; i < 10; i++ {
		_ = store.Save(context.Background(), &domain.DeploymentOutcome{
			DeploymentID: "dep", Timestamp: time.Now().UTC(),
			HeuristicScore: 40, MLScore: 60, ActualErrorRatePercent: 0.3,
		})
	}
	predictor := ensemble.New(mlscore.New(), store)
	tn := tuner.New(predictor, store, tuner.DefaultConfig())
	s := New(tn, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// the immediate tune-once should have run well before the hour-long tick
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after cancellation")
	}

	if predictor.Weights() == domain.DefaultEnsembleWeights() {
		t.Fatal("expected the immediate tune-once pass to have adjusted weights")
	}
}

func TestRunSurvivesTunerFailureWithoutStopping(t *testing.T) {
	s := New(tuner.New(ensemble.New(mlscore.New(), failingHistory{}), failingHistory{}, tuner.DefaultConfig()), time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after cancellation despite tuner failure")
	}
}

type failingHistory struct{}

func (failingHistory) Save(ctx context.Context, o *domain.DeploymentOutcome) error { return errUnavailable }
func (failingHistory) Recent(ctx context.Context, limit int) ([]domain.DeploymentOutcome, error) {
	return nil, errUnavailable
}
func (failingHistory) RecentByDeployment(ctx context.Context, deploymentID string, limit int) ([]domain.DeploymentOutcome, error) {
	return nil, errUnavailable
}
func (failingHistory) Count(ctx context.Context) (int, error) { return 0, errUnavailable }

var errUnavailable = &staticError{"scheduler test: store unavailable"}

type staticError struct{ msg string }

func (e *staticError) Error() string { return e.msg }

package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/engine"
	"github.com/varunvs7692/chaos-negotiator/internal/outcome"
	"github.com/varunvs7692/chaos-negotiator/internal/repository/memstore"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/ensemble"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/mlscore"
)

func newTestRouter(t *testing.T, cfg Config) *Router {
	t.Helper()
	store := memstore.New()
	predictor := ensemble.New(mlscore.New(), store)
	recorder := outcome.New(predictor, store)
	e := engine.New(predictor, recorder, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.MarkReady()
	return NewRouter(e, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func doRequest(r *Router, method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleAssessReturnsRiskAssessmentAndPolicy(t *testing.T) {
	r := newTestRouter(t, Config{})

	rec := doRequest(r, http.MethodPost, "/v1/assess", domain.DeploymentContext{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		RiskAssessment struct {
			RiskScore float64 `json:"risk_score"`
		} `json:"risk_assessment"`
		CanaryPolicy struct {
			Stages []domain.Stage `json:"stages"`
		} `json:"canary_policy"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.CanaryPolicy.Stages) == 0 {
		t.Fatal("expected non-empty stage list")
	}
}

func TestHandleAssessRejectsInvalidContextWith400(t *testing.T) {
	r := newTestRouter(t, Config{})

	rec := doRequest(r, http.MethodPost, "/v1/assess", domain.DeploymentContext{CurrentErrorRatePct: -5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAssessRejectsMalformedJSON(t *testing.T) {
	r := newTestRouter(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/assess", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleAssessWrongMethodReturns405(t *testing.T) {
	r := newTestRouter(t, Config{})

	rec := doRequest(r, http.MethodGet, "/v1/assess", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleRecordOutcomeThenListRoundTrips(t *testing.T) {
	r := newTestRouter(t, Config{})

	rec := doRequest(r, http.MethodPost, "/v1/outcomes", map[string]any{
		"deployment_id":                  "dep-1",
		"actual_error_rate_percent":      0.2,
		"actual_latency_change_percent":  1.5,
		"rollback_triggered":             false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 recording outcome, got %d: %s", rec.Code, rec.Body.String())
	}

	listRec := doRequest(r, http.MethodGet, "/v1/outcomes?limit=5", nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing outcomes, got %d", listRec.Code)
	}
	var listed struct {
		Total    int                         `json:"total"`
		Outcomes []domain.DeploymentOutcome `json:"outcomes"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if listed.Total != 1 || len(listed.Outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %+v", listed)
	}
}

func TestHandleRecordOutcomeRejectsNegativeErrorRate(t *testing.T) {
	r := newTestRouter(t, Config{})

	rec := doRequest(r, http.MethodPost, "/v1/outcomes", map[string]any{
		"deployment_id":             "dep-1",
		"actual_error_rate_percent": -1.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleListOutcomesRejectsNonIntegerLimit(t *testing.T) {
	r := newTestRouter(t, Config{})

	rec := doRequest(r, http.MethodGet, "/v1/outcomes?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCanaryAdvanceRecommendsRollbackOnViolation(t *testing.T) {
	r := newTestRouter(t, Config{})

	policy := domain.CanaryPolicy{
		Stages: []domain.Stage{
			{Index: 0, Name: "initial", TrafficPercent: 5, DurationSeconds: 300},
			{Index: 1, Name: "full", TrafficPercent: 100, DurationSeconds: 0},
		},
		ErrorRateThresholdPct: 1.0,
		RollbackOnViolation:   true,
	}
	rec := doRequest(r, http.MethodPost, "/v1/canary/advance", map[string]any{
		"policy":              policy,
		"current_stage_index": 0,
		"observed_metrics":    map[string]any{"error_rate_percent": 5.0, "latency_ms": 10.0},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var advice domain.CanaryAdvice
	if err := json.Unmarshal(rec.Body.Bytes(), &advice); err != nil {
		t.Fatalf("decode advice: %v", err)
	}
	if !advice.RollbackRecommended {
		t.Fatalf("expected rollback recommendation, got %+v", advice)
	}
}

func TestHandleHealthzReturnsOKWhenReady(t *testing.T) {
	r := newTestRouter(t, Config{})

	rec := doRequest(r, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyRequiredForMutatingRoutesWhenConfigured(t *testing.T) {
	r := newTestRouter(t, Config{APIAuthKey: "secret-key"})

	rec := doRequest(r, http.MethodPost, "/v1/assess", domain.DeploymentContext{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/assess", bytes.NewReader(mustJSON(domain.DeploymentContext{})))
	req.Header.Set(authHeader, "secret-key")
	recWithKey := httptest.NewRecorder()
	r.ServeHTTP(recWithKey, req)
	if recWithKey.Code != http.StatusOK {
		t.Fatalf("expected 200 with correct key, got %d: %s", recWithKey.Code, recWithKey.Body.String())
	}
}

func TestRateLimitExceededReturns429(t *testing.T) {
	r := newTestRouter(t, Config{RateLimitRPS: 1, RateLimitBurst: 1})

	first := doRequest(r, http.MethodPost, "/v1/assess", domain.DeploymentContext{})
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", first.Code)
	}
	second := doRequest(r, http.MethodPost, "/v1/assess", domain.DeploymentContext{})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second immediate request, got %d", second.Code)
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

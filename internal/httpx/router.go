// Package httpx is the HTTP/JSON transport for the negotiation engine:
// request decoding, response encoding, and the ambient concerns (rate
// limiting, API key auth, metrics) layered around the engine's pure
// operations.
package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/varunvs7692/chaos-negotiator/internal/canary"
	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/engine"
)

const healthCheckTimeout = 2 * time.Second

// Router wires HTTP endpoints to the engine.
type Router struct {
	mux     *http.ServeMux
	engine  *engine.Engine
	logger  *slog.Logger
	limiter *limiter
	metrics *metrics
	apiKey  string
}

// Config controls rate limiting and auth for a Router.
type Config struct {
	APIAuthKey     string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultConfig returns reasonable rate-limit defaults with no API key.
func DefaultConfig() Config {
	return Config{RateLimitRPS: 20, RateLimitBurst: 40}
}

// NewRouter assembles the routes.
func NewRouter(eng *engine.Engine, logger *slog.Logger, cfg Config) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		engine:  eng,
		logger:  logger,
		metrics: newMetrics(),
		apiKey:  cfg.APIAuthKey,
	}
	if cfg.RateLimitRPS > 0 {
		r.limiter = newLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("healthz", r.handleHealthz))
	r.mux.Handle("/metrics", metricsHandler)
	r.mux.HandleFunc("/v1/assess", r.audit("assess", r.withRateLimit(r.requireAPIKey(r.handleAssess))))
	r.mux.HandleFunc("/v1/outcomes", r.audit("outcomes", r.withRateLimit(r.handleOutcomes)))
	r.mux.HandleFunc("/v1/canary/advance", r.audit("canary_advance", r.withRateLimit(r.requireAPIKey(r.handleCanaryAdvance))))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := timeoutCtx(req, healthCheckTimeout)
	defer cancel()
	_, err := r.engine.Recent(ctx, 0)
	if err != nil && engine.IsKind(err, engine.KindNotReady) {
		writeError(w, http.StatusServiceUnavailable, "engine not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleAssess(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var dctx domain.DeploymentContext
	if err := json.NewDecoder(req.Body).Decode(&dctx); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := r.engine.Assess(req.Context(), dctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type recordOutcomeRequest struct {
	DeploymentID               string  `json:"deployment_id"`
	ActualErrorRatePercent     float64 `json:"actual_error_rate_percent"`
	ActualLatencyChangePercent float64 `json:"actual_latency_change_percent"`
	RollbackTriggered          bool    `json:"rollback_triggered"`
}

func (r *Router) handleOutcomes(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.requireAPIKey(r.handleRecordOutcome)(w, req)
	case http.MethodGet:
		r.handleListOutcomes(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleRecordOutcome(w http.ResponseWriter, req *http.Request) {
	var payload recordOutcomeRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	o, err := r.engine.RecordOutcome(req.Context(), payload.DeploymentID,
		payload.ActualErrorRatePercent, payload.ActualLatencyChangePercent, payload.RollbackTriggered)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"deployment_id": o.DeploymentID,
		"final_score":   o.FinalScore,
		"timestamp":     o.Timestamp.Format(time.RFC3339Nano),
	})
}

func (r *Router) handleListOutcomes(w http.ResponseWriter, req *http.Request) {
	limit := engine.DefaultRecentLimit
	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	outcomes, err := r.engine.Recent(req.Context(), limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(outcomes),
		"outcomes": outcomes,
	})
}

type canaryAdvanceRequest struct {
	Policy            domain.CanaryPolicy     `json:"policy"`
	CurrentStageIndex int                     `json:"current_stage_index"`
	ObservedMetrics   *canary.ObservedMetrics `json:"observed_metrics,omitempty"`
}

func (r *Router) handleCanaryAdvance(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload canaryAdvanceRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	advice := r.engine.Advance(payload.Policy, payload.CurrentStageIndex, payload.ObservedMetrics)
	writeJSON(w, http.StatusOK, advice)
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func timeoutCtx(req *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(req.Context(), d)
}

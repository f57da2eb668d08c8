package config

import (
	"time"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

// EngineConfig holds runtime configuration for the negotiation engine,
// loaded from environment variables (section 6, "Configuration
// (environment)").
type EngineConfig struct {
	Environment string
	Addr        string

	HistoryDBPath        string
	HistoryRetentionRows int

	EnableTuning       bool
	TuningIntervalSec  int
	TuningSampleWindow int

	InitialWeights domain.EnsembleWeights

	APIAuthKey string

	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadEngineConfig constructs an EngineConfig from environment variables.
func LoadEngineConfig() EngineConfig {
	weights := domain.EnsembleWeights{
		HeuristicWeight: GetFloat("HEURISTIC_WEIGHT_INIT", domain.DefaultEnsembleWeights().HeuristicWeight),
		MLWeight:        GetFloat("ML_WEIGHT_INIT", domain.DefaultEnsembleWeights().MLWeight),
	}
	if !weights.Normalized() {
		weights = domain.DefaultEnsembleWeights()
	}

	return EngineConfig{
		Environment: GetString("APP_ENV", "development"),
		Addr:        GetString("ENGINE_ADDR", ":8080"),

		HistoryDBPath:        GetString("HISTORY_DB_PATH", "deployment_history.db"),
		HistoryRetentionRows: GetInt("HISTORY_RETENTION_ROWS", 1_000_000),

		EnableTuning:       GetBool("ENABLE_TUNING", true),
		TuningIntervalSec:  GetInt("TUNING_INTERVAL_SEC", 300),
		TuningSampleWindow: GetInt("TUNING_SAMPLE_WINDOW", 100),

		InitialWeights: weights,

		APIAuthKey: GetString("API_AUTH_KEY", ""),

		RateLimitRPS:   GetFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: GetInt("RATE_LIMIT_BURST", 40),
	}
}

// TuningInterval is TuningIntervalSec as a time.Duration.
func (c EngineConfig) TuningInterval() time.Duration {
	return time.Duration(c.TuningIntervalSec) * time.Second
}

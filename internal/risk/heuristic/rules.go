package heuristic

import "github.com/varunvs7692/chaos-negotiator/internal/domain"

// rule describes one risk pattern family: a set of keyword matchers (over a
// lower-cased change description), the tag it identifies, its additive
// impact contributions, and a pattern weight. The base score counts
// matched families and does not read patternWeight. Compiled once into
// ruleTable at package init, never per request
// (section 9: "Build the table at process start from a constant source;
// never recompile per request").
type rule struct {
	tag                   domain.RiskTag
	keywords              []string
	latencyIncreasePct    float64
	errorRateIncreasePct  float64
	patternWeight         float64
}

// ruleTable enumerates the eight rule families named in section 3's
// risk-tag vocabulary. The caching/database_schema/api_contract/traffic
// families are grounded on original_source/chaos_negotiator/predictors/
// risk_predictor.py's risk_patterns table; permissions, encryption,
// load_balancing, and storage are new families authored for the full
// vocabulary this specification requires.
var ruleTable = []rule{
	{
		tag:                  domain.RiskTagCaching,
		keywords:             []string{"cache", "ttl", "redis", "memcached"},
		latencyIncreasePct:   5.0,
		errorRateIncreasePct: 0,
		patternWeight:        1.0,
	},
	{
		tag:                  domain.RiskTagDatabaseSchema,
		keywords:             []string{"schema", "migration", "database", "sql", "index", "column"},
		latencyIncreasePct:   15.0,
		errorRateIncreasePct: 2.0,
		patternWeight:        1.5,
	},
	{
		tag:                  domain.RiskTagAPIContract,
		keywords:             []string{"api", "contract", "endpoint", "request", "response", "deprecat"},
		latencyIncreasePct:   8.0,
		errorRateIncreasePct: 1.5,
		patternWeight:        1.2,
	},
	{
		tag:                  domain.RiskTagTraffic,
		keywords:             []string{"load", "traffic", "rampup", "ramp-up", "connection", "throughput"},
		latencyIncreasePct:   20.0,
		errorRateIncreasePct: 1.0,
		patternWeight:        1.3,
	},
	{
		tag:                  domain.RiskTagPermissions,
		keywords:             []string{"permission", "role", "rbac", "acl", "authoriz"},
		latencyIncreasePct:   2.0,
		errorRateIncreasePct: 3.0,
		patternWeight:        1.4,
	},
	{
		tag:                  domain.RiskTagEncryption,
		keywords:             []string{"encrypt", "tls", "cert", "cipher", "key rotation"},
		latencyIncreasePct:   6.0,
		errorRateIncreasePct: 1.0,
		patternWeight:        1.3,
	},
	{
		tag:                  domain.RiskTagLoadBalancing,
		keywords:             []string{"load balanc", "upstream", "routing", "weighted round robin", "lb "},
		latencyIncreasePct:   10.0,
		errorRateIncreasePct: 1.0,
		patternWeight:        1.2,
	},
	{
		tag:                  domain.RiskTagStorage,
		keywords:             []string{"storage", "disk", "volume", "s3", "blob", "retention"},
		latencyIncreasePct:   7.0,
		errorRateIncreasePct: 0.5,
		patternWeight:        1.1,
	},
}

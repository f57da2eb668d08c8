// Package mlscore implements the online ML scorer (C3): a small linear
// model with logistic squashing over a fixed, normalized feature vector,
// supporting bounded incremental updates from recorded outcomes.
package mlscore

import (
	"math"
	"strings"
	"sync/atomic"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

// riskTagOrder fixes the order of the eight risk-tag indicator features,
// matching the family list in section 3.
var riskTagOrder = []domain.RiskTag{
	domain.RiskTagCaching,
	domain.RiskTagDatabaseSchema,
	domain.RiskTagAPIContract,
	domain.RiskTagTraffic,
	domain.RiskTagPermissions,
	domain.RiskTagEncryption,
	domain.RiskTagLoadBalancing,
	domain.RiskTagStorage,
}

// Scorer holds the current model parameters behind an atomic pointer so a
// prediction in flight always sees one consistent, fully-formed parameter
// set even while Update swaps in a new one.
type Scorer struct {
	params atomic.Pointer[Params]
}

// New returns a Scorer initialized with the cold-start parameters.
func New() *Scorer {
	s := &Scorer{}
	p := coldStartParams()
	s.params.Store(&p)
	return s
}

// Predict returns a risk score in [0, 100] for ctx, the result of the
// linear-plus-sigmoid model rescaled once at this boundary (section 9,
// Open Questions: "implementations must apply this rescale once, at the
// boundary of C3").
func (s *Scorer) Predict(ctx domain.DeploymentContext) float64 {
	p := s.params.Load()
	features := extractFeatures(ctx)
	raw := p.Bias
	for i, f := range features {
		raw += f * p.Weights[i]
	}
	return sigmoid(raw) * 100
}

// Params returns a copy of the current parameter set, for tuning.
func (s *Scorer) Params() Params {
	return *s.params.Load()
}

// Replace atomically swaps in a new parameter set, published under
// release semantics so concurrent readers see either the whole old
// vector or the whole new one.
func (s *Scorer) Replace(p Params) {
	s.params.Store(&p)
}

func extractFeatures(ctx domain.DeploymentContext) [featureCount]float64 {
	var f [featureCount]float64

	f[0] = clamp01(float64(len(ctx.Changes)) / 50)
	f[1] = clamp01(float64(ctx.TotalLinesChanged()) / 5000)
	f[2] = clamp01(ctx.CurrentErrorRatePct / 10)
	f[3] = clamp01(ctx.CurrentP95LatencyMS / 2000)
	f[4] = clamp01(ctx.CurrentQPS / 10000)

	present := tagsPresent(ctx)
	for i, tag := range riskTagOrder {
		if present[tag] {
			f[5+i] = 1.0
		}
	}

	f[13] = clamp01(float64(ctx.DependencyCount()) / 10)
	f[14] = boolFeature(present[domain.RiskTagDatabaseSchema])
	f[15] = boolFeature(present[domain.RiskTagAPIContract])
	f[16] = boolFeature(present[domain.RiskTagCaching])

	return f
}

// tagsPresent merges explicitly declared risk_tags with a light keyword
// scan of each change's description, grounded in
// original_source/chaos_negotiator/predictors/ml_predictor.py's
// has_db/has_api detection ("migration" in descs or "db" in descs; "api"
// in descs or "endpoint" in descs), generalized to the full tag
// vocabulary.
func tagsPresent(ctx domain.DeploymentContext) map[domain.RiskTag]bool {
	present := make(map[domain.RiskTag]bool)
	for _, change := range ctx.Changes {
		for _, tag := range change.RiskTags {
			present[tag] = true
		}
		desc := strings.ToLower(change.Description)
		for tag, keywords := range descriptionKeywords {
			if present[tag] {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(desc, kw) {
					present[tag] = true
					break
				}
			}
		}
	}
	return present
}

var descriptionKeywords = map[domain.RiskTag][]string{
	domain.RiskTagCaching:        {"cache", "ttl", "redis", "memcached"},
	domain.RiskTagDatabaseSchema: {"migration", "db", "schema", "database"},
	domain.RiskTagAPIContract:    {"api", "endpoint", "contract"},
	domain.RiskTagTraffic:        {"traffic", "load", "rampup"},
	domain.RiskTagPermissions:    {"permission", "role", "rbac"},
	domain.RiskTagEncryption:     {"encrypt", "tls", "cert"},
	domain.RiskTagLoadBalancing:  {"load balanc", "upstream", "routing"},
	domain.RiskTagStorage:        {"storage", "disk", "volume"},
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

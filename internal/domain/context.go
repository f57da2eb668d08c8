package domain

// DeploymentContext is the immutable input to a single risk assessment.
type DeploymentContext struct {
	DeploymentID           string             `json:"deployment_id"`
	ServiceName            string             `json:"service_name"`
	Environment            string             `json:"environment"`
	Version                string             `json:"version"`
	Changes                []ChangeDescriptor `json:"changes"`
	CurrentErrorRatePct    float64            `json:"current_error_rate_percent"`
	CurrentP95LatencyMS    float64            `json:"current_p95_latency_ms"`
	TargetErrorRatePct     float64            `json:"target_error_rate_percent"`
	TargetP95LatencyMS     float64            `json:"target_p95_latency_ms"`
	CurrentQPS             float64            `json:"current_qps"`
	RollbackCapability     bool               `json:"rollback_capability"`
	Dependencies           []string           `json:"dependencies,omitempty"`
}

// TotalLinesChanged sums LinesChanged across all changes.
func (c DeploymentContext) TotalLinesChanged() int {
	total := 0
	for _, ch := range c.Changes {
		total += ch.LinesChanged
	}
	return total
}

// DependencyCount returns the number of declared downstream dependencies.
func (c DeploymentContext) DependencyCount() int {
	return len(c.Dependencies)
}

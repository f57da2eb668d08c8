package repository

import (
	"context"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
)

// OutcomeRepository persists DeploymentOutcome rows. Implementations must
// guarantee that save is durable before returning (section 4.1) and that a
// concurrent save observed by a recent call either fully appears or is
// fully absent, never partially.
type OutcomeRepository interface {
	Save(ctx context.Context, outcome *domain.DeploymentOutcome) error
	Recent(ctx context.Context, limit int) ([]domain.DeploymentOutcome, error)
	RecentByDeployment(ctx context.Context, deploymentID string, limit int) ([]domain.DeploymentOutcome, error)
	Count(ctx context.Context) (int, error)
}

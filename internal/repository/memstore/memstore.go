// Package memstore is an in-memory OutcomeRepository used by tests across
// the risk, tuner, and engine packages in place of the sqlite-backed store.
package memstore

import (
	"context"
	"sync"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/repository"
)

// Store is a goroutine-safe, append-only in-memory outcome log.
type Store struct {
	mu    sync.RWMutex
	rows  []domain.DeploymentOutcome
	nextID int64
}

var _ repository.OutcomeRepository = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{nextID: 1}
}

// Save appends outcome, assigning it the next sequential ID.
func (s *Store) Save(ctx context.Context, outcome *domain.DeploymentOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome.ID = s.nextID
	s.nextID++
	s.rows = append(s.rows, *outcome)
	return nil
}

// Recent returns up to limit most recent rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.DeploymentOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.rows, limit, ""), nil
}

// RecentByDeployment returns up to limit most recent rows for one
// deployment id, newest first.
func (s *Store) RecentByDeployment(ctx context.Context, deploymentID string, limit int) ([]domain.DeploymentOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.rows, limit, deploymentID), nil
}

// Count returns the total number of persisted outcomes.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

func newestFirst(rows []domain.DeploymentOutcome, limit int, deploymentID string) []domain.DeploymentOutcome {
	if limit <= 0 {
		return []domain.DeploymentOutcome{}
	}
	out := make([]domain.DeploymentOutcome, 0, limit)
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		if deploymentID != "" && rows[i].DeploymentID != deploymentID {
			continue
		}
		out = append(out, rows[i])
	}
	return out
}

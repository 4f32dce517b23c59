// Package oco coordinates pairs of mutually exclusive pending orders:
// when one leg triggers, the sibling is cancelled.
package oco

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"

	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Repository is the owned, explicitly initialized pair table. Pairs are never
// physically removed; terminal statuses keep an auditable history.
type Repository struct {
	mu    sync.RWMutex
	pairs map[string]types.OcoPair
}

// NewRepository creates an empty pair repository.
func NewRepository() *Repository {
	return &Repository{
		mu:    sync.RWMutex{},
		pairs: make(map[string]types.OcoPair),
	}
}

// Register stores a new active pair. Registering an existing id is an error.
func (r *Repository) Register(pair types.OcoPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pairs[pair.ID]; ok {
		return errors.Newf(errors.ErrCodePairRegistration, "pair %s already registered", pair.ID)
	}

	r.pairs[pair.ID] = pair

	return nil
}

// Get returns the pair with the given id.
func (r *Repository) Get(id string) (types.OcoPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pair, ok := r.pairs[id]

	return pair, ok
}

// List returns all pairs, including terminal ones.
func (r *Repository) List() []types.OcoPair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.OcoPair, 0, len(r.pairs))
	for _, pair := range r.pairs {
		out = append(out, pair)
	}

	return out
}

// ListByStatus returns all pairs with the given status.
func (r *Repository) ListByStatus(status types.OcoPairStatus) []types.OcoPair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.OcoPair

	for _, pair := range r.pairs {
		if pair.Status == status {
			out = append(out, pair)
		}
	}

	return out
}

// Resolve atomically transitions a pair from ACTIVE to the given terminal
// status. It is a compare-and-set: with racing callers at most one wins and
// the losers get false. Terminal pairs never re-activate.
func (r *Repository) Resolve(id string, status types.OcoPairStatus, triggeredLeg optional.Option[types.OcoLegRole]) bool {
	if status != types.OcoPairStatusTriggered && status != types.OcoPairStatusCancelled {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pair, ok := r.pairs[id]
	if !ok || pair.Status != types.OcoPairStatusActive {
		return false
	}

	pair.Status = status
	pair.ResolvedAt = optional.Some(time.Now())
	pair.TriggeredLeg = triggeredLeg
	r.pairs[id] = pair

	return true
}

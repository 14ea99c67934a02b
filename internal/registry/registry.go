// Package registry holds the keyed per-item processing state for one batch.
// The pipeline driver is the only writer; HTTP handlers read snapshots.
package registry

import (
	"sync"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
)

// Patch is a partial state update. Nil fields are left untouched.
type Patch struct {
	Status     *domain.Status
	Progress   *int
	Error      *string
	ResultURL  *string
	DirectLink *string
	Attempt    *int
}

// Registry maps item IDs to their current ProcessingState, preserving the
// order items were submitted in.
type Registry struct {
	mu     sync.RWMutex
	states map[string]*domain.ProcessingState
	order  []string
}

func New() *Registry {
	return &Registry{
		states: make(map[string]*domain.ProcessingState),
	}
}

// Initialize replaces the whole mapping, setting every item to pending with
// zero progress. The previous registry contents are discarded.
func (r *Registry) Initialize(items []domain.CandidateItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = make(map[string]*domain.ProcessingState, len(items))
	r.order = make([]string, 0, len(items))
	for _, item := range items {
		r.states[item.ID] = &domain.ProcessingState{
			ItemID: item.ID,
			Status: domain.StatusPending,
		}
		r.order = append(r.order, item.ID)
	}
}

// Update merges a partial state into the existing entry. Unknown IDs are
// silently skipped.
func (r *Registry) Update(itemID string, patch Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[itemID]
	if !ok {
		return
	}

	if patch.Status != nil {
		state.Status = *patch.Status
	}
	if patch.Progress != nil {
		state.Progress = *patch.Progress
	}
	if patch.Error != nil {
		state.Error = *patch.Error
	}
	if patch.ResultURL != nil {
		state.ResultURL = *patch.ResultURL
	}
	if patch.DirectLink != nil {
		state.DirectLink = *patch.DirectLink
	}
	if patch.Attempt != nil {
		state.Attempt = *patch.Attempt
	}
}

// Get returns a copy of the current state for the item, if present.
func (r *Registry) Get(itemID string) (domain.ProcessingState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[itemID]
	if !ok {
		return domain.ProcessingState{}, false
	}
	return *state, true
}

// Snapshot returns value copies of all states in submission order.
func (r *Registry) Snapshot() []domain.ProcessingState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ProcessingState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.states[id])
	}
	return out
}

// Len returns the number of tracked items.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

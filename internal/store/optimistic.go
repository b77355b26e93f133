package store

import (
	"github.com/leadcore/go-crm-backend/internal/domain"
)

// Pending is the handle returned by an optimistic apply. It carries the
// version stamped on the optimistic write plus the prior snapshot needed
// for rollback. Handles are single-use values; copying one is harmless.
type Pending struct {
	LeadID  string
	version uint64
	prior   *domain.Lead
}

// Version exposes the stamped write version (mainly for logging).
func (p Pending) Version() uint64 { return p.version }

// Coordinator formalizes the "optimistic write, reconcile later" pattern:
// Apply writes the proposed snapshot before any network round-trip,
// Confirm replaces it with the server-canonical result, and Revert
// restores the prior state, but only while the optimistic write is still
// the latest one for that lead. A rollback that finds itself superseded
// is skipped silently: the newer state is authoritative, and the failed
// older write just reports its error upward.
type Coordinator struct {
	store *LeadStore
}

// NewCoordinator wraps a LeadStore.
func NewCoordinator(s *LeadStore) *Coordinator {
	return &Coordinator{store: s}
}

// Apply writes proposed into the store immediately and returns the
// pending handle for the eventual Confirm or Revert. prior is the
// snapshot the caller read before editing; it may be nil for a lead the
// store has never seen (Revert then removes the optimistic entry).
func (c *Coordinator) Apply(leadID string, proposed, prior *domain.Lead) Pending {
	v := c.store.Put(leadID, proposed)
	return Pending{LeadID: leadID, version: v, prior: prior.Clone()}
}

// Confirm writes the server-canonical snapshot, guarded the same way as
// Revert: if a newer apply has run for the lead since, the late canonical
// result is discarded rather than clobbering the newer optimistic state.
// Returns whether the write landed.
func (c *Coordinator) Confirm(p Pending, canonical *domain.Lead) bool {
	_, ok := c.store.CompareAndPut(p.LeadID, p.version, canonical)
	return ok
}

// Revert restores the prior snapshot if and only if the store's current
// version for the lead still equals the one stamped in the handle.
// Returns false when the rollback was skipped because a newer write is in
// place, an expected outcome rather than a failure.
func (c *Coordinator) Revert(p Pending) bool {
	if p.prior == nil {
		// Nothing existed before the optimistic write; undo means remove,
		// still only while our write is the latest. The version history
		// stays so later handles keep their uniqueness.
		c.store.mu.Lock()
		defer c.store.mu.Unlock()
		cur, ok := c.store.leads[p.LeadID]
		if !ok || cur.version != p.version {
			return false
		}
		cur.version++
		cur.snap = nil
		return true
	}
	_, ok := c.store.CompareAndPut(p.LeadID, p.version, p.prior)
	return ok
}

// Package store holds the central in-memory lead store and the
// optimistic-update coordinator built on top of it. The store is the
// single place UI-facing reads come from between refreshes; every write
// bumps a per-lead version number, which is what makes rollback of a
// failed optimistic write safe under overlapping edits.
package store

import (
	"sync"

	"github.com/leadcore/go-crm-backend/internal/domain"
)

// versioned pairs a snapshot with its per-lead write counter.
type versioned struct {
	snap    *domain.Lead
	version uint64
}

// LeadStore keeps the current snapshot of every lead the client has
// loaded. Versions increase monotonically per lead and never reset while
// the process lives, so a stamped version uniquely identifies one write.
type LeadStore struct {
	mu    sync.Mutex
	leads map[string]*versioned
}

// NewLeadStore returns an empty store.
func NewLeadStore() *LeadStore {
	return &LeadStore{leads: make(map[string]*versioned)}
}

// Get returns a copy of the current snapshot for leadID. A removed lead
// reads as absent even though its version history is retained.
func (s *LeadStore) Get(leadID string) (*domain.Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.leads[leadID]
	if !ok || v.snap == nil {
		return nil, false
	}
	return v.snap.Clone(), true
}

// Put writes a snapshot and returns the version stamped on the write.
func (s *LeadStore) Put(leadID string, snap *domain.Lead) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(leadID, snap)
}

func (s *LeadStore) putLocked(leadID string, snap *domain.Lead) uint64 {
	v, ok := s.leads[leadID]
	if !ok {
		v = &versioned{}
		s.leads[leadID] = v
	}
	v.version++
	v.snap = snap.Clone()
	return v.version
}

// Version returns the current write counter for leadID (zero when the
// lead has never been written).
func (s *LeadStore) Version(leadID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.leads[leadID]; ok {
		return v.version
	}
	return 0
}

// Remove drops a lead's snapshot while keeping its version history.
// The removal counts as a write, so the counter keeps climbing across a
// close/reopen cycle and a handle stamped before the Remove can never
// match a write minted after it.
func (s *LeadStore) Remove(leadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.leads[leadID]
	if !ok {
		return
	}
	v.version++
	v.snap = nil
}

// CompareAndPut writes snap only if the lead's current version still
// equals expect. Returns the new version and true on success, or the
// current version and false when the write was superseded.
func (s *LeadStore) CompareAndPut(leadID string, expect uint64, snap *domain.Lead) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.leads[leadID]
	curVersion := uint64(0)
	if ok {
		curVersion = cur.version
	}
	if curVersion != expect {
		return curVersion, false
	}
	return s.putLocked(leadID, snap), true
}

// This file implements the lead edit flow. Opening a detail view reads
// through the snapshot cache; edits are applied optimistically to the
// central store before the network round-trip, then reconciled with the
// remote confirmation or rolled back behind a version guard. Contact
// names are normalized (whitespace collapsed, title-cased) before the
// optimistic write so the local guess matches what the server will keep.
package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leadcore/go-crm-backend/internal/domain"
	"github.com/leadcore/go-crm-backend/internal/store"
)

// SnapshotCache is the entity-cache contract required by LeadService.
type SnapshotCache interface {
	// Get returns a fresh, validated snapshot, refetching when needed.
	Get(ctx context.Context, leadID string) (*domain.Lead, error)
	// Put overwrites the cached snapshot unconditionally.
	Put(leadID string, snap *domain.Lead)
	// Invalidate removes the cached snapshot.
	Invalidate(leadID string)
}

// LeadUpdater pushes a partial update to the remote CRM and returns the
// server-canonical snapshot.
type LeadUpdater interface {
	UpdateLead(ctx context.Context, leadID string, patch domain.LeadPatch) (*domain.Lead, error)
}

// LeadService coordinates reads through the cache and optimistic writes
// through the central store.
type LeadService struct {
	Cache    SnapshotCache
	Store    *store.LeadStore
	Updater  LeadUpdater
	Notifier Notifier

	coord *store.Coordinator
	caser cases.Caser
	log   zerolog.Logger
}

// NewLeadService wires a LeadService over the given collaborators.
func NewLeadService(c SnapshotCache, s *store.LeadStore, u LeadUpdater, n Notifier, log zerolog.Logger) *LeadService {
	return &LeadService{
		Cache:    c,
		Store:    s,
		Updater:  u,
		Notifier: n,
		coord:    store.NewCoordinator(s),
		caser:    cases.Title(language.English, cases.NoLower),
		log:      log.With().Str("component", "lead_service").Logger(),
	}
}

// Open serves a lead detail view: the cache provides a fresh validated
// snapshot, and the central store is seeded on first open. An already
// loaded lead keeps its store state (which may hold a newer optimistic
// write than the cache).
func (s *LeadService) Open(ctx context.Context, leadID string) (*domain.Lead, error) {
	if snap, ok := s.Store.Get(leadID); ok {
		return snap, nil
	}
	snap, err := s.Cache.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	s.Store.Put(leadID, snap)
	return snap, nil
}

// Update applies an edit optimistically and reconciles with the remote:
// on success the server-canonical snapshot lands in store and cache (the
// server wins over the optimistic guess); on failure the optimistic
// write is rolled back behind the version guard and the error surfaces
// to the caller. A rollback that finds itself superseded by a newer edit
// is skipped silently; the newer state is authoritative.
func (s *LeadService) Update(ctx context.Context, leadID string, patch domain.LeadPatch) (*domain.Lead, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	s.normalizeNames(&patch)

	// Edits come from an open detail view; there is no snapshot to apply
	// a patch against otherwise.
	prior, ok := s.Store.Get(leadID)
	if !ok {
		return nil, ErrLeadNotLoaded
	}

	proposed := prior.Apply(patch)
	pending := s.coord.Apply(leadID, proposed, prior)

	canonical, err := s.Updater.UpdateLead(ctx, leadID, patch)
	if err != nil {
		if s.coord.Revert(pending) {
			s.log.Debug().Str("lead_id", leadID).Uint64("version", pending.Version()).
				Msg("optimistic write rolled back")
		} else {
			// Superseded by a newer edit; expected, not a failure.
			s.log.Debug().Str("lead_id", leadID).Uint64("version", pending.Version()).
				Msg("rollback skipped, newer write in place")
		}
		s.Notifier.Error("could not save lead changes")
		return nil, err
	}

	if s.coord.Confirm(pending, canonical) {
		s.Cache.Put(leadID, canonical)
	} else {
		// A newer optimistic write raced this confirmation; drop the late
		// canonical result and let the newer edit's own round-trip settle
		// the cache.
		s.Cache.Invalidate(leadID)
	}
	s.Notifier.Success("lead updated")
	return canonical, nil
}

// Close drops a lead from the central store, e.g. when its detail view
// closes. Late responses for the lead are still safe: their version
// guards can no longer match.
func (s *LeadService) Close(leadID string) {
	s.Store.Remove(leadID)
}

// normalizeNames trims and collapses whitespace in the patched name
// fields and title-cases them.
func (s *LeadService) normalizeNames(p *domain.LeadPatch) {
	norm := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := whitespaceRE.ReplaceAllString(strings.TrimSpace(*v), " ")
		t = s.caser.String(t)
		return &t
	}
	p.FirstName = norm(p.FirstName)
	p.LastName = norm(p.LastName)
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

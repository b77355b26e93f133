// Package cache implements the per-lead snapshot cache that fronts the
// remote CRM. An entry is served only while it is inside its TTL and,
// when the snapshot carries an assignment, while the assigned user still
// exists. Anything else is a miss that forces a validated refetch.
//
// Concurrency: all miss resolution for a lead is funneled through a
// singleflight group keyed by lead id, so two detail views opening the
// same lead trigger one upstream call and one user-visible error at most.
// A failed refetch leaves any previous entry in place (stale but not
// served); the cache never wedges into a permanently erroring state.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/leadcore/go-crm-backend/internal/domain"
)

var (
	// cacheHits counts gets served straight from a fresh, valid entry.
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lead_cache_hits_total",
		Help: "Lead cache gets served from a fresh entry.",
	})

	// cacheMisses counts gets that forced an upstream refetch, by cause.
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_cache_misses_total",
			Help: "Lead cache gets that forced a refetch.",
		},
		[]string{"cause"}, // cold | expired | stale_ref | check_failed
	)

	// cacheSelfHeals counts dangling assignee references nulled in place.
	cacheSelfHeals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lead_cache_self_heals_total",
		Help: "Dangling assigned-user references healed by the cache.",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, cacheSelfHeals)
}

// DefaultTTL is how long a snapshot may be served before it must be
// revalidated against the remote CRM.
const DefaultTTL = 5 * time.Minute

// UserDirectory checks whether a referenced user still exists. Used
// solely to validate assignedTo liveness.
type UserDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// LeadFetcher retrieves the canonical snapshot of a lead.
type LeadFetcher interface {
	FetchLead(ctx context.Context, leadID string) (*domain.Lead, error)
}

// entry is one cached snapshot. assigneeOK memoizes a positive liveness
// check so a fresh hit is served without touching the network; it resets
// on every Put.
type entry struct {
	snap       *domain.Lead
	storedAt   time.Time
	assigneeOK bool
}

// LeadCache is the per-lead snapshot store. One entry per lead,
// overwritten whole on refresh, never partially merged.
type LeadCache struct {
	ttl   time.Duration
	users UserDirectory
	fetch LeadFetcher
	log   zerolog.Logger

	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

// New constructs a LeadCache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, users UserDirectory, fetch LeadFetcher, log zerolog.Logger) *LeadCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LeadCache{
		ttl:     ttl,
		users:   users,
		fetch:   fetch,
		log:     log.With().Str("component", "lead_cache").Logger(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns a copy of the lead snapshot, serving the cached entry when
// it is fresh and its assignment (if any) is still live, and forcing a
// coalesced refetch otherwise. Liveness-check failures are absorbed into
// the refetch; only a failed refetch surfaces an error, and in that case
// the previous entry is left untouched.
func (c *LeadCache) Get(ctx context.Context, leadID string) (*domain.Lead, error) {
	c.mu.Lock()
	e, ok := c.entries[leadID]
	now := c.now()
	fresh := ok && now.Sub(e.storedAt) < c.ttl
	servable := fresh && (e.snap.AssignedTo == nil || e.assigneeOK)
	var snap *domain.Lead
	if servable {
		snap = e.snap.Clone()
	}
	c.mu.Unlock()

	if servable {
		cacheHits.Inc()
		return snap, nil
	}

	// Everything past this point, liveness check and/or refetch, is
	// deduplicated per lead so concurrent callers share one result.
	v, err, _ := c.group.Do(leadID, func() (any, error) {
		return c.resolve(ctx, leadID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Lead).Clone(), nil
}

// resolve revalidates or refetches a single lead. Runs inside the
// singleflight group.
func (c *LeadCache) resolve(ctx context.Context, leadID string) (*domain.Lead, error) {
	c.mu.Lock()
	e, ok := c.entries[leadID]
	now := c.now()
	fresh := ok && now.Sub(e.storedAt) < c.ttl
	var assignee string
	if fresh && e.snap.AssignedTo != nil && !e.assigneeOK {
		assignee = e.snap.AssignedTo.ID
	}
	c.mu.Unlock()

	cause := "cold"
	if ok {
		cause = "expired"
	}

	var deadUser string
	if assignee != "" {
		exists, err := c.users.UserExists(ctx, assignee)
		switch {
		case err != nil:
			// The check itself failed: treated as a miss, not a crash.
			c.log.Debug().Err(err).Str("lead_id", leadID).Msg("liveness check failed, forcing refetch")
			cause = "check_failed"
		case exists:
			if snap := c.markAssigneeOK(leadID, assignee); snap != nil {
				cacheHits.Inc()
				return snap, nil
			}
			cause = "expired"
		default:
			// Assigned user is gone: heal the stored snapshot so the
			// dangling reference can never be served again.
			deadUser = assignee
			c.healAssignee(leadID, assignee)
			cause = "stale_ref"
		}
	}

	cacheMisses.WithLabelValues(cause).Inc()

	fetched, err := c.fetch.FetchLead(ctx, leadID)
	if err != nil {
		// Previous entry (already healed if needed) stays as-is.
		return nil, err
	}
	fetched = fetched.Clone()
	if deadUser != "" && fetched.AssignedTo != nil && fetched.AssignedTo.ID == deadUser {
		// Upstream still references the deleted user; heal at the boundary.
		fetched.AssignedTo = nil
		cacheSelfHeals.Inc()
	}
	c.Put(leadID, fetched)
	return fetched, nil
}

// markAssigneeOK memoizes a positive liveness result. Returns the
// snapshot if the entry still holds the same assignment and is fresh,
// nil when it was replaced or expired meanwhile.
func (c *LeadCache) markAssigneeOK(leadID, userID string) *domain.Lead {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[leadID]
	if !ok || e.snap.AssignedTo == nil || e.snap.AssignedTo.ID != userID {
		return nil
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return nil
	}
	e.assigneeOK = true
	return e.snap.Clone()
}

// healAssignee nulls a dangling reference on the stored entry in place.
func (c *LeadCache) healAssignee(leadID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[leadID]
	if !ok || e.snap.AssignedTo == nil || e.snap.AssignedTo.ID != userID {
		return
	}
	healed := e.snap.Clone()
	healed.AssignedTo = nil
	e.snap = healed
	e.assigneeOK = false
	cacheSelfHeals.Inc()
	c.log.Info().Str("lead_id", leadID).Str("user_id", userID).Msg("healed dangling assignee reference")
}

// Put stores a snapshot unconditionally, resetting the liveness memo.
func (c *LeadCache) Put(leadID string, snap *domain.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[leadID] = &entry{snap: snap.Clone(), storedAt: c.now()}
}

// Invalidate removes a single lead's entry.
func (c *LeadCache) Invalidate(leadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, leadID)
}

// InvalidateAll drops every entry.
func (c *LeadCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

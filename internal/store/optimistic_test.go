package store

import (
	"testing"

	"github.com/leadcore/go-crm-backend/internal/domain"
)

func named(first string) *domain.Lead {
	return &domain.Lead{ID: "l1", FirstName: first, Status: "new"}
}

func TestPut_VersionsIncreaseMonotonically(t *testing.T) {
	s := NewLeadStore()
	if s.Version("l1") != 0 {
		t.Fatalf("unwritten lead should be at version 0")
	}
	v1 := s.Put("l1", named("Alice"))
	v2 := s.Put("l1", named("Alicia"))
	if v1 != 1 || v2 != 2 {
		t.Fatalf("versions = %d, %d; want 1, 2", v1, v2)
	}
	// Independent aggregates: another lead has its own counter.
	if v := s.Put("l2", named("Bob")); v != 1 {
		t.Fatalf("l2 first version = %d; want 1", v)
	}
}

func TestGet_ReturnsCopies(t *testing.T) {
	s := NewLeadStore()
	s.Put("l1", named("Alice"))
	got, ok := s.Get("l1")
	if !ok {
		t.Fatalf("lead missing")
	}
	got.FirstName = "mutated"
	again, _ := s.Get("l1")
	if again.FirstName != "Alice" {
		t.Fatalf("store leaked internal state")
	}
	if _, ok := s.Get("nope"); ok {
		t.Fatalf("unknown lead should not be found")
	}
}

func TestApplyRevert_RestoresPrior(t *testing.T) {
	s := NewLeadStore()
	c := NewCoordinator(s)
	s.Put("l1", named("Alice"))
	prior, _ := s.Get("l1")

	p := c.Apply("l1", named("Alicia"), prior)
	cur, _ := s.Get("l1")
	if cur.FirstName != "Alicia" {
		t.Fatalf("optimistic write not visible: %q", cur.FirstName)
	}

	if !c.Revert(p) {
		t.Fatalf("revert should run when no newer write exists")
	}
	cur, _ = s.Get("l1")
	if cur.FirstName != "Alice" {
		t.Fatalf("store = %q; want prior restored", cur.FirstName)
	}
}

func TestRevert_SkippedWhenSuperseded(t *testing.T) {
	s := NewLeadStore()
	c := NewCoordinator(s)
	s.Put("l1", named("Alice"))
	prior, _ := s.Get("l1")

	// Update A applies, then update B applies on top.
	pA := c.Apply("l1", named("Alicia"), prior)
	interim, _ := s.Get("l1")
	c.Apply("l1", named("Alice Smith"), interim)

	// A's failure is observed late: its rollback must be a no-op.
	if c.Revert(pA) {
		t.Fatalf("revert of superseded write must be skipped")
	}
	cur, _ := s.Get("l1")
	if cur.FirstName != "Alice Smith" {
		t.Fatalf("store = %q; want the newer write preserved", cur.FirstName)
	}
}

func TestConfirm_WritesCanonicalWhileCurrent(t *testing.T) {
	s := NewLeadStore()
	c := NewCoordinator(s)
	s.Put("l1", named("alice"))
	prior, _ := s.Get("l1")

	p := c.Apply("l1", named("alicia"), prior)
	if !c.Confirm(p, named("Alicia")) { // server normalized the casing
		t.Fatalf("confirm should land while the write is current")
	}
	cur, _ := s.Get("l1")
	if cur.FirstName != "Alicia" {
		t.Fatalf("store = %q; want canonical snapshot", cur.FirstName)
	}
}

func TestConfirm_DiscardedWhenSuperseded(t *testing.T) {
	s := NewLeadStore()
	c := NewCoordinator(s)
	s.Put("l1", named("Alice"))
	prior, _ := s.Get("l1")

	pX := c.Apply("l1", named("Alicia"), prior)
	interim, _ := s.Get("l1")
	c.Apply("l1", named("Alice Smith"), interim)

	if c.Confirm(pX, named("Alicia")) {
		t.Fatalf("late canonical result must not clobber a newer write")
	}
	cur, _ := s.Get("l1")
	if cur.FirstName != "Alice Smith" {
		t.Fatalf("store = %q; want newer optimistic state", cur.FirstName)
	}
}

func TestRevert_WithNilPriorRemovesOptimisticEntry(t *testing.T) {
	s := NewLeadStore()
	c := NewCoordinator(s)

	p := c.Apply("l9", named("Ghost"), nil)
	if _, ok := s.Get("l9"); !ok {
		t.Fatalf("optimistic entry should exist before revert")
	}
	if !c.Revert(p) {
		t.Fatalf("revert should run for a first write")
	}
	if _, ok := s.Get("l9"); ok {
		t.Fatalf("revert of a first write should remove the entry")
	}

	// Superseded variant: a newer write keeps the entry.
	p2 := c.Apply("l9", named("Ghost"), nil)
	cur, _ := s.Get("l9")
	c.Apply("l9", named("Real"), cur)
	if c.Revert(p2) {
		t.Fatalf("superseded first-write revert must be skipped")
	}
	if got, _ := s.Get("l9"); got.FirstName != "Real" {
		t.Fatalf("newer write lost: %q", got.FirstName)
	}
}

func TestRemove_ForgetsSnapshotKeepsHistory(t *testing.T) {
	s := NewLeadStore()
	v1 := s.Put("l1", named("Alice"))
	s.Remove("l1")
	if _, ok := s.Get("l1"); ok {
		t.Fatalf("removed lead still present")
	}
	// The removal is itself a write; the counter must not restart.
	if v := s.Version("l1"); v <= v1 {
		t.Fatalf("version after remove = %d; want > %d", v, v1)
	}
	if v := s.Put("l1", named("Bobby")); v <= v1+1 {
		t.Fatalf("reopen version = %d; want the counter to keep climbing", v)
	}
}

func TestRevert_StaleHandleSkippedAfterRemoveAndReopen(t *testing.T) {
	s := NewLeadStore()
	c := NewCoordinator(s)

	s.Put("l1", named("Alice"))
	prior, _ := s.Get("l1")
	stale := c.Apply("l1", named("Alicia"), prior)

	// Detail view closes, then reopens with fresh server state, and a new
	// edit lands on top of it.
	s.Remove("l1")
	s.Put("l1", named("Bobby"))
	cur, _ := s.Get("l1")
	c.Apply("l1", named("Bobbie"), cur)

	// The pre-close write's failure arrives only now. Its rollback must
	// not touch the reopened lead's state.
	if c.Revert(stale) {
		t.Fatalf("stale revert ran across a close/reopen cycle")
	}
	if got, _ := s.Get("l1"); got.FirstName != "Bobbie" {
		t.Fatalf("store = %q; want the post-reopen write preserved", got.FirstName)
	}

	// Same for a late canonical result.
	if c.Confirm(stale, named("Alicia")) {
		t.Fatalf("stale confirm landed across a close/reopen cycle")
	}
}

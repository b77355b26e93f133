package domain

import (
	"encoding/json"
	"testing"
)

func strptr(s string) *string { return &s }

func TestLeadClone_DeepCopiesAssignee(t *testing.T) {
	l := &Lead{ID: "l1", AssignedTo: &UserRef{ID: "u1", Name: "Dana"}}
	cp := l.Clone()
	cp.AssignedTo.Name = "changed"
	if l.AssignedTo.Name != "Dana" {
		t.Fatalf("clone shares AssignedTo with original")
	}
	var nilLead *Lead
	if nilLead.Clone() != nil {
		t.Fatalf("Clone of nil lead should be nil")
	}
}

func TestLeadApply_PartialFields(t *testing.T) {
	l := &Lead{ID: "l1", FirstName: "Alice", LastName: "Ray", Status: "new"}
	next := l.Apply(LeadPatch{FirstName: strptr("Alicia"), Status: strptr("contacted")})

	if next.FirstName != "Alicia" || next.Status != "contacted" {
		t.Fatalf("patch not applied: %+v", next)
	}
	if next.LastName != "Ray" {
		t.Fatalf("untouched field changed: %q", next.LastName)
	}
	if l.FirstName != "Alice" {
		t.Fatalf("Apply mutated the prior snapshot")
	}
}

func TestLeadApply_AssignmentAndClear(t *testing.T) {
	l := &Lead{ID: "l1"}

	assigned := l.Apply(LeadPatch{AssignedTo: &UserRef{ID: "u7"}})
	if assigned.AssignedTo == nil || assigned.AssignedTo.ID != "u7" {
		t.Fatalf("assignment not applied: %+v", assigned.AssignedTo)
	}

	cleared := assigned.Apply(LeadPatch{ClearAssignee: true})
	if cleared.AssignedTo != nil {
		t.Fatalf("ClearAssignee left a reference: %+v", cleared.AssignedTo)
	}

	// No assignment fields: reference carried over untouched.
	same := assigned.Apply(LeadPatch{Notes: strptr("called twice")})
	if same.AssignedTo == nil || same.AssignedTo.ID != "u7" {
		t.Fatalf("unrelated patch dropped the assignment")
	}
}

func TestLeadPatchEmpty(t *testing.T) {
	if !(LeadPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
	if (LeadPatch{Notes: strptr("x")}).Empty() {
		t.Fatalf("patch with a field should not be empty")
	}
	if (LeadPatch{ClearAssignee: true}).Empty() {
		t.Fatalf("clear-assignee patch should not be empty")
	}
}

func TestFullName(t *testing.T) {
	cases := map[string]Lead{
		"Ada Lovelace": {FirstName: "Ada", LastName: "Lovelace"},
		"Ada":          {FirstName: "Ada"},
		"Lovelace":     {LastName: "Lovelace"},
		"":             {},
	}
	for want, l := range cases {
		if got := l.FullName(); got != want {
			t.Errorf("FullName() = %q; want %q", got, want)
		}
	}
}

func TestUserRef_UnmarshalBothShapes(t *testing.T) {
	var fromID UserRef
	if err := json.Unmarshal([]byte(`"u-42"`), &fromID); err != nil {
		t.Fatalf("unmarshal id form: %v", err)
	}
	if fromID.ID != "u-42" || fromID.Resolved() {
		t.Fatalf("id form normalized wrong: %+v", fromID)
	}

	var fromObj UserRef
	if err := json.Unmarshal([]byte(`{"id":"u-42","name":"Dana","email":"d@x.io"}`), &fromObj); err != nil {
		t.Fatalf("unmarshal object form: %v", err)
	}
	if fromObj.ID != "u-42" || !fromObj.Resolved() {
		t.Fatalf("object form normalized wrong: %+v", fromObj)
	}

	// Inside a lead payload, both shapes decode to the same field.
	var l Lead
	if err := json.Unmarshal([]byte(`{"id":"l1","assigned_to":"u-9"}`), &l); err != nil {
		t.Fatalf("lead with id-form assignment: %v", err)
	}
	if l.AssignedTo == nil || l.AssignedTo.ID != "u-9" {
		t.Fatalf("lead assignment not normalized: %+v", l.AssignedTo)
	}

	if err := json.Unmarshal([]byte(`[1]`), &fromID); err == nil {
		t.Fatalf("expected error for non-string, non-object payload")
	}
}

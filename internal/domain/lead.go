// Package domain defines the in-memory entities of the lead-management
// client core: leads, their weak user references, and reminders. These
// types are plain values. Nothing here is persisted; every structure
// lives for the lifetime of the process and is refreshed from the remote
// CRM API, which remains the source of truth.
package domain

import "time"

// Lead represents a tracked contact moving through a sales pipeline.
// Instances held by the cache and the central store are treated as
// immutable snapshots: mutation always goes through Clone + Apply so that
// older snapshots stay valid for guarded rollback.
//
// Fields:
//   - ID: stable identifier assigned by the remote CRM.
//   - FirstName / LastName / Email / Phone / Company: contact fields.
//   - Status: reference to a pipeline status definition (by name).
//   - Source: acquisition channel (signup form, import, referral, …).
//   - AssignedTo: weak reference to the owning user, nil when unassigned.
//     A non-nil reference must resolve to a currently-existing user; a
//     dangling one is healed (nulled) by the cache before being served.
//   - Notes: free-form annotations.
//   - CreatedAt / UpdatedAt: timestamps managed by the remote CRM.
type Lead struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Status    string    `json:"status"`
	Source    string    `json:"source,omitempty"`
	AssignedTo *UserRef `json:"assigned_to,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the lead. Snapshot copies never share the
// AssignedTo pointer, so healing or patching one copy cannot leak into
// another.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	cp := *l
	if l.AssignedTo != nil {
		ref := *l.AssignedTo
		cp.AssignedTo = &ref
	}
	return &cp
}

// FullName joins the contact's first and last name, tolerating either
// being empty.
func (l *Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	default:
		return l.FirstName + " " + l.LastName
	}
}

// LeadPatch carries a partial field set for a lead update. Nil pointers
// mean "leave unchanged"; ClearAssignee distinguishes "unassign" from
// "don't touch the assignment".
type LeadPatch struct {
	FirstName     *string  `json:"first_name,omitempty"`
	LastName      *string  `json:"last_name,omitempty"`
	Email         *string  `json:"email,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Company       *string  `json:"company,omitempty"`
	Status        *string  `json:"status,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	AssignedTo    *UserRef `json:"assigned_to,omitempty"`
	ClearAssignee bool     `json:"clear_assignee,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p LeadPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Phone == nil && p.Company == nil && p.Status == nil &&
		p.Notes == nil && p.AssignedTo == nil && !p.ClearAssignee
}

// Apply returns a new snapshot with the patch applied on top of l.
// The receiver is not modified.
func (l *Lead) Apply(p LeadPatch) *Lead {
	next := l.Clone()
	if p.FirstName != nil {
		next.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		next.LastName = *p.LastName
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.Phone != nil {
		next.Phone = *p.Phone
	}
	if p.Company != nil {
		next.Company = *p.Company
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.ClearAssignee {
		next.AssignedTo = nil
	} else if p.AssignedTo != nil {
		ref := *p.AssignedTo
		next.AssignedTo = &ref
	}
	return next
}

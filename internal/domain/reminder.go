package domain

import "time"

// ReminderType classifies what kind of follow-up a reminder schedules.
type ReminderType string

// Supported reminder types.
const (
	ReminderCall    ReminderType = "CALL"
	ReminderEmail   ReminderType = "EMAIL"
	ReminderTask    ReminderType = "TASK"
	ReminderMeeting ReminderType = "MEETING"
)

// Valid reports whether t is one of the supported reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case ReminderCall, ReminderEmail, ReminderTask, ReminderMeeting:
		return true
	}
	return false
}

// ReminderStatus is the stored lifecycle state of a reminder. "Due" is
// deliberately not a status: it is derived from the clock on every
// observation (see Reminder.IsDue), never written back.
type ReminderStatus string

// Reminder lifecycle states. COMPLETED and DISMISSED are terminal.
const (
	StatusPending   ReminderStatus = "PENDING"
	StatusSnoozed   ReminderStatus = "SNOOZED"
	StatusCompleted ReminderStatus = "COMPLETED"
	StatusDismissed ReminderStatus = "DISMISSED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s ReminderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDismissed
}

// Valid reports whether s is a known lifecycle state.
func (s ReminderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSnoozed, StatusCompleted, StatusDismissed:
		return true
	}
	return false
}

// Reminder is a scheduled follow-up attached to a lead.
//
// Invariants (enforced by NormalizeStatusFields and the service layer):
//   - CompletedAt is set if and only if Status == COMPLETED.
//   - SnoozedUntil is set if and only if Status == SNOOZED, and was in the
//     future at the moment of snoozing.
type Reminder struct {
	ID           string         `json:"id"`
	LeadID       string         `json:"lead_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Type         ReminderType   `json:"type"`
	Status       ReminderStatus `json:"status"`
	DueAt        time.Time      `json:"due_at"`
	SoundEnabled bool           `json:"sound_enabled"`
	SnoozedUntil *time.Time     `json:"snoozed_until,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedBy    *UserRef       `json:"created_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Clone returns a deep copy of the reminder.
func (r Reminder) Clone() Reminder {
	cp := r
	if r.SnoozedUntil != nil {
		t := *r.SnoozedUntil
		cp.SnoozedUntil = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	if r.CreatedBy != nil {
		u := *r.CreatedBy
		cp.CreatedBy = &u
	}
	return cp
}

// NormalizeStatusFields restores the status-conditional field invariants
// after a partial update: SnoozedUntil only survives in SNOOZED,
// CompletedAt only in COMPLETED.
func (r *Reminder) NormalizeStatusFields() {
	if r.Status != StatusSnoozed {
		r.SnoozedUntil = nil
	}
	if r.Status != StatusCompleted {
		r.CompletedAt = nil
	}
}

// ReminderDraft is the field set needed to create a reminder. The remote
// CRM assigns the id, creator, and creation timestamp.
type ReminderDraft struct {
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Type         ReminderType `json:"type"`
	DueAt        time.Time    `json:"due_at"`
	SoundEnabled bool         `json:"sound_enabled"`
}

// ReminderPatch carries a partial field set for a reminder update. Nil
// pointers mean "leave unchanged".
type ReminderPatch struct {
	Title        *string         `json:"title,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Type         *ReminderType   `json:"type,omitempty"`
	Status       *ReminderStatus `json:"status,omitempty"`
	DueAt        *time.Time      `json:"due_at,omitempty"`
	SoundEnabled *bool           `json:"sound_enabled,omitempty"`
	SnoozedUntil *time.Time      `json:"snoozed_until,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// Apply returns a copy of r with the patch applied and the status-field
// invariants re-normalized.
func (r Reminder) Apply(p ReminderPatch) Reminder {
	next := r.Clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.DueAt != nil {
		next.DueAt = *p.DueAt
	}
	if p.SoundEnabled != nil {
		next.SoundEnabled = *p.SoundEnabled
	}
	if p.SnoozedUntil != nil {
		t := *p.SnoozedUntil
		next.SnoozedUntil = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		next.CompletedAt = &t
	}
	next.NormalizeStatusFields()
	return next
}

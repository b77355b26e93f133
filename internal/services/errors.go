// Package services implements the business logic of the client core: the
// lead edit flow (optimistic apply, confirm, guarded revert) and the
// reminder lifecycle with its polling refresh and alarm recomputation.
// This file centralizes service-level error values so they can be
// consistently returned by service methods and checked by callers.
//
// Remote-originated failures (validation, not-found, network) keep their
// types from the remote package; translation into HTTP results happens at
// the handler layer.
package services

import "errors"

var (
	// ErrLeadNotLoaded is returned when an edit is attempted for a lead
	// whose detail view is not open.
	ErrLeadNotLoaded = errors.New("lead not loaded")

	// ErrEmptyPatch is returned when an update request changes nothing.
	ErrEmptyPatch = errors.New("update contains no fields")

	// ErrRemindersNotLoaded is returned for reminder operations on a lead
	// whose reminder set has not been loaded.
	ErrRemindersNotLoaded = errors.New("reminders not loaded for lead")

	// ErrReminderNotFound indicates the reminder is not in the loaded set.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrEmptyTitle is returned when a reminder is created without a title.
	ErrEmptyTitle = errors.New("reminder title is empty")

	// ErrInvalidReminderType is returned for an unknown reminder type.
	ErrInvalidReminderType = errors.New("invalid reminder type")

	// ErrInvalidTransition is returned when a status change is not among
	// the allowed reminder state-machine transitions.
	ErrInvalidTransition = errors.New("invalid reminder status transition")

	// ErrInvalidSnooze is returned when a snooze deadline is not in the
	// future at the moment of snoozing.
	ErrInvalidSnooze = errors.New("snooze deadline must be in the future")
)

package handlers

// AlarmState reports whether the shared reminder alarm is currently playing.
type AlarmState interface {
	Playing() bool
}

// Handlers groups the HTTP endpoints for leads, reminders, and the alarm.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	leadSvc LeadService
	remSvc  ReminderService
	alarm   AlarmState
}

// New constructs a Handlers instance bound to the given services.
func New(leadSvc LeadService, remSvc ReminderService, alarm AlarmState) *Handlers {
	return &Handlers{leadSvc: leadSvc, remSvc: remSvc, alarm: alarm}
}

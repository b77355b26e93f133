// This file implements the per-lead reminder collections and their state
// machine. Every mutation goes through the remote CRUD collaborator
// first, then updates the local set, then recomputes the alarm arbiter,
// in that order, before returning control to the caller, so the alarm
// never observes an inconsistent intermediate state. A background poll
// loop refreshes every loaded lead's reminders and re-evaluates the due
// predicate on a fixed interval.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/leadcore/go-crm-backend/internal/domain"
)

// reminderMutations counts reminder mutations by operation.
var reminderMutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reminder_mutations_total",
		Help: "Reminder mutations by operation.",
	},
	[]string{"op"}, // create | update | delete | complete | snooze | dismiss | sound
)

func init() {
	prometheus.MustRegister(reminderMutations)
}

// DefaultPollInterval is how often loaded reminder sets are refreshed
// and the due predicate re-evaluated.
const DefaultPollInterval = 60 * time.Second

// ReminderAPI is the remote CRUD collaborator for reminders.
type ReminderAPI interface {
	ListReminders(ctx context.Context, leadID string) ([]domain.Reminder, error)
	CreateReminder(ctx context.Context, leadID string, draft domain.ReminderDraft) (*domain.Reminder, error)
	UpdateReminder(ctx context.Context, leadID, reminderID string, patch domain.ReminderPatch) (*domain.Reminder, error)
	DeleteReminder(ctx context.Context, leadID, reminderID string) error
}

// Recomputer re-derives the shared alarm state from the full loaded
// reminder set. Satisfied by *alarm.Arbiter.
type Recomputer interface {
	Recompute(now time.Time)
}

// ReminderService owns the loaded reminder sets, keyed by lead. It is
// the alarm arbiter's Source: LoadedReminders exposes the union across
// all open leads.
type ReminderService struct {
	api      ReminderAPI
	alarm    Recomputer
	notifier Notifier
	log      zerolog.Logger

	now          func() time.Time
	pollInterval time.Duration

	mu     sync.Mutex
	byLead map[string][]domain.Reminder
}

// NewReminderService wires a ReminderService. A non-positive interval
// falls back to DefaultPollInterval; attach the alarm arbiter with
// AttachAlarm before serving mutations.
func NewReminderService(api ReminderAPI, n Notifier, pollInterval time.Duration, log zerolog.Logger) *ReminderService {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &ReminderService{
		api:          api,
		notifier:     n,
		log:          log.With().Str("component", "reminder_service").Logger(),
		now:          time.Now,
		pollInterval: pollInterval,
		byLead:       make(map[string][]domain.Reminder),
	}
}

// AttachAlarm binds the alarm arbiter. Separate from the constructor
// because the arbiter in turn scans this service's loaded set.
func (s *ReminderService) AttachAlarm(a Recomputer) { s.alarm = a }

// LoadedReminders returns a copy of every reminder currently loaded
// across all leads. Implements alarm.Source.
func (s *ReminderService) LoadedReminders() []domain.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reminder
	for _, rs := range s.byLead {
		out = append(out, rs...)
	}
	return out
}

// Load fetches a lead's reminders from the remote, replaces the local
// set whole, and recomputes the alarm.
func (s *ReminderService) Load(ctx context.Context, leadID string) ([]domain.Reminder, error) {
	rs, err := s.api.ListReminders(ctx, leadID)
	if err != nil {
		return nil, err
	}
	for i := range rs {
		rs[i].NormalizeStatusFields()
	}
	s.mu.Lock()
	s.byLead[leadID] = rs
	out := append([]domain.Reminder(nil), rs...)
	s.mu.Unlock()

	s.recompute()
	return out, nil
}

// List returns the loaded reminder set for a lead without touching the
// network. ErrRemindersNotLoaded when the lead was never loaded.
func (s *ReminderService) List(leadID string) ([]domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.byLead[leadID]
	if !ok {
		return nil, ErrRemindersNotLoaded
	}
	return append([]domain.Reminder(nil), rs...), nil
}

// Unload drops a lead's reminder set, e.g. when its detail view closes,
// and recomputes the alarm so the remaining set decides its state.
func (s *ReminderService) Unload(leadID string) {
	s.mu.Lock()
	delete(s.byLead, leadID)
	s.mu.Unlock()
	s.recompute()
}

// Create adds a reminder to a lead. The created record comes back from
// the remote with its id and creator filled in.
func (s *ReminderService) Create(ctx context.Context, leadID string, draft domain.ReminderDraft) (*domain.Reminder, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, ErrEmptyTitle
	}
	if !draft.Type.Valid() {
		return nil, ErrInvalidReminderType
	}

	created, err := s.api.CreateReminder(ctx, leadID, draft)
	if err != nil {
		s.notifier.Error("could not create reminder")
		return nil, err
	}
	r := created.Clone()
	r.NormalizeStatusFields()

	s.mu.Lock()
	s.byLead[leadID] = append(s.byLead[leadID], r)
	s.mu.Unlock()

	s.recompute()
	reminderMutations.WithLabelValues("create").Inc()
	s.notifier.Success("reminder created")
	return &r, nil
}

// Update applies a partial field edit. Status changes are validated
// against the state machine, and a patch carrying a snooze deadline is
// validated the same way even when it names no status: it is a snooze in
// disguise, so it cannot re-snooze or use a past instant. The due flag is
// never part of a patch, it is derived, not stored.
func (s *ReminderService) Update(ctx context.Context, leadID, reminderID string, patch domain.ReminderPatch) (*domain.Reminder, error) {
	cur, err := s.find(leadID, reminderID)
	if err != nil {
		return nil, err
	}
	switch {
	case patch.Status != nil:
		if err := s.checkTransition(cur, *patch.Status, patch.SnoozedUntil); err != nil {
			return nil, err
		}
	case patch.SnoozedUntil != nil:
		if err := s.checkTransition(cur, domain.StatusSnoozed, patch.SnoozedUntil); err != nil {
			return nil, err
		}
	}
	return s.push(ctx, leadID, reminderID, patch, "update")
}

// Delete removes a reminder remotely and locally.
func (s *ReminderService) Delete(ctx context.Context, leadID, reminderID string) error {
	if _, err := s.find(leadID, reminderID); err != nil {
		return err
	}
	if err := s.api.DeleteReminder(ctx, leadID, reminderID); err != nil {
		s.notifier.Error("could not delete reminder")
		return err
	}

	s.mu.Lock()
	rs := s.byLead[leadID]
	for i := range rs {
		if rs[i].ID == reminderID {
			s.byLead[leadID] = append(rs[:i], rs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.recompute()
	reminderMutations.WithLabelValues("delete").Inc()
	s.notifier.Success("reminder deleted")
	return nil
}

// Complete transitions a reminder to COMPLETED, stamping the completion
// instant.
func (s *ReminderService) Complete(ctx context.Context, leadID, reminderID string) (*domain.Reminder, error) {
	cur, err := s.find(leadID, reminderID)
	if err != nil {
		return nil, err
	}
	target := domain.StatusCompleted
	if err := s.checkTransition(cur, target, nil); err != nil {
		return nil, err
	}
	at := s.now()
	return s.push(ctx, leadID, reminderID, domain.ReminderPatch{Status: &target, CompletedAt: &at}, "complete")
}

// Snooze transitions a PENDING reminder to SNOOZED with the given
// deadline, which must be in the future at the moment of snoozing.
func (s *ReminderService) Snooze(ctx context.Context, leadID, reminderID string, until time.Time) (*domain.Reminder, error) {
	cur, err := s.find(leadID, reminderID)
	if err != nil {
		return nil, err
	}
	target := domain.StatusSnoozed
	if err := s.checkTransition(cur, target, &until); err != nil {
		return nil, err
	}
	return s.push(ctx, leadID, reminderID, domain.ReminderPatch{Status: &target, SnoozedUntil: &until}, "snooze")
}

// Dismiss transitions a reminder to DISMISSED.
func (s *ReminderService) Dismiss(ctx context.Context, leadID, reminderID string) (*domain.Reminder, error) {
	cur, err := s.find(leadID, reminderID)
	if err != nil {
		return nil, err
	}
	target := domain.StatusDismissed
	if err := s.checkTransition(cur, target, nil); err != nil {
		return nil, err
	}
	return s.push(ctx, leadID, reminderID, domain.ReminderPatch{Status: &target}, "dismiss")
}

// SetSound toggles a reminder's sound without touching its status.
func (s *ReminderService) SetSound(ctx context.Context, leadID, reminderID string, enabled bool) (*domain.Reminder, error) {
	if _, err := s.find(leadID, reminderID); err != nil {
		return nil, err
	}
	return s.push(ctx, leadID, reminderID, domain.ReminderPatch{SoundEnabled: &enabled}, "sound")
}

// Start runs the polling loop until ctx is cancelled: every tick, all
// loaded leads' reminder sets are refreshed and the alarm recomputed. A
// failed refresh keeps the previous local set (retryable next tick).
func (s *ReminderService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshAll(ctx)
			}
		}
	}()
}

// refreshAll re-pulls every loaded lead's reminders. Even when nothing
// changed upstream, the recompute matters: time passing can make
// reminders due.
func (s *ReminderService) refreshAll(ctx context.Context) {
	s.mu.Lock()
	leadIDs := make([]string, 0, len(s.byLead))
	for id := range s.byLead {
		leadIDs = append(leadIDs, id)
	}
	s.mu.Unlock()

	for _, leadID := range leadIDs {
		rs, err := s.api.ListReminders(ctx, leadID)
		if err != nil {
			s.log.Warn().Err(err).Str("lead_id", leadID).Msg("reminder refresh failed")
			continue
		}
		for i := range rs {
			rs[i].NormalizeStatusFields()
		}
		s.mu.Lock()
		if _, still := s.byLead[leadID]; still {
			s.byLead[leadID] = rs
		}
		s.mu.Unlock()
	}
	s.recompute()
}

// find returns the loaded reminder or the matching sentinel error.
func (s *ReminderService) find(leadID, reminderID string) (domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.byLead[leadID]
	if !ok {
		return domain.Reminder{}, ErrRemindersNotLoaded
	}
	for _, r := range rs {
		if r.ID == reminderID {
			return r.Clone(), nil
		}
	}
	return domain.Reminder{}, ErrReminderNotFound
}

// checkTransition validates a status change against the state machine:
// PENDING may become COMPLETED, SNOOZED, or DISMISSED; SNOOZED may become
// COMPLETED or DISMISSED; terminal states allow nothing, and re-snoozing
// a snoozed reminder is rejected. Snoozing requires a future deadline.
// There is no stored transition for "snooze expired": elapsed snoozes
// surface through the due predicate only.
func (s *ReminderService) checkTransition(cur domain.Reminder, to domain.ReminderStatus, until *time.Time) error {
	if !to.Valid() {
		return ErrInvalidTransition
	}
	if to == domain.StatusSnoozed {
		if until == nil || !until.After(s.now()) {
			return ErrInvalidSnooze
		}
	}
	// Writing the current status back is a harmless no-op, except for
	// SNOOZED: re-snoozing moves the deadline, which the state machine
	// does not allow.
	if to == cur.Status && to != domain.StatusSnoozed {
		return nil
	}
	allowed := false
	switch cur.Status {
	case domain.StatusPending:
		allowed = to == domain.StatusCompleted || to == domain.StatusSnoozed || to == domain.StatusDismissed
	case domain.StatusSnoozed:
		allowed = to == domain.StatusCompleted || to == domain.StatusDismissed
	}
	if !allowed {
		return ErrInvalidTransition
	}
	return nil
}

// push sends the patch to the remote, replaces the local record with the
// server's version, and recomputes the alarm before returning.
func (s *ReminderService) push(ctx context.Context, leadID, reminderID string, patch domain.ReminderPatch, op string) (*domain.Reminder, error) {
	updated, err := s.api.UpdateReminder(ctx, leadID, reminderID, patch)
	if err != nil {
		s.notifier.Error("could not update reminder")
		return nil, err
	}
	r := updated.Clone()
	r.NormalizeStatusFields()

	s.mu.Lock()
	rs := s.byLead[leadID]
	for i := range rs {
		if rs[i].ID == reminderID {
			rs[i] = r
			break
		}
	}
	s.mu.Unlock()

	s.recompute()
	reminderMutations.WithLabelValues(op).Inc()
	s.notifier.Success("reminder updated")
	return &r, nil
}

// recompute drives the arbiter with the current clock. All alarm state
// transitions route through here; nothing else may start or stop it.
func (s *ReminderService) recompute() {
	if s.alarm != nil {
		s.alarm.Recompute(s.now())
	}
}

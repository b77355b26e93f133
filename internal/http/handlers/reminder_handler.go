// Reminder HTTP handlers.
//
// This file exposes the REST surface for per-lead reminders and the shared
// alarm:
//   - GET    /leads/{id}/reminders                      (load and list)
//   - DELETE /leads/{id}/reminders                      (unload the set)
//   - POST   /leads/{id}/reminders                      (create)
//   - PATCH  /leads/{id}/reminders/{rid}                (partial update)
//   - DELETE /leads/{id}/reminders/{rid}                (delete)
//   - POST   /leads/{id}/reminders/{rid}/complete       (mark done)
//   - POST   /leads/{id}/reminders/{rid}/snooze         (defer due time)
//   - POST   /leads/{id}/reminders/{rid}/dismiss        (silence for good)
//   - POST   /leads/{id}/reminders/{rid}/sound          (toggle sound)
//   - GET    /alarm                                     (alarm state)
//
// Status transitions are enforced by the reminder service; handlers only
// decode inputs and translate errors.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leadcore/go-crm-backend/internal/domain"
	"github.com/leadcore/go-crm-backend/internal/remote"
	"github.com/leadcore/go-crm-backend/internal/services"
)

// ReminderService defines the reminder operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ReminderService interface {
	Load(ctx context.Context, leadID string) ([]domain.Reminder, error)
	List(leadID string) ([]domain.Reminder, error)
	Unload(leadID string)
	Create(ctx context.Context, leadID string, draft domain.ReminderDraft) (*domain.Reminder, error)
	Update(ctx context.Context, leadID, reminderID string, patch domain.ReminderPatch) (*domain.Reminder, error)
	Delete(ctx context.Context, leadID, reminderID string) error
	Complete(ctx context.Context, leadID, reminderID string) (*domain.Reminder, error)
	Snooze(ctx context.Context, leadID, reminderID string, until time.Time) (*domain.Reminder, error)
	Dismiss(ctx context.Context, leadID, reminderID string) (*domain.Reminder, error)
	SetSound(ctx context.Context, leadID, reminderID string, enabled bool) (*domain.Reminder, error)
}

//
// DTOs
//

// ReminderResponse is the JSON envelope for a single reminder.
type ReminderResponse struct {
	Reminder *domain.Reminder `json:"reminder"`
}

// ListRemindersResponse contains the loaded reminder set for a lead.
type ListRemindersResponse struct {
	Reminders []domain.Reminder `json:"reminders"`
}

// SnoozeRequest is the JSON payload for deferring a reminder.
type SnoozeRequest struct {
	// Until is the new wake-up time; it must lie in the future.
	Until time.Time `json:"until" binding:"required"`
}

// SoundRequest is the JSON payload for toggling a reminder's sound flag.
type SoundRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// AlarmResponse reports whether the shared alarm is currently playing.
type AlarmResponse struct {
	Playing bool `json:"playing"`
}

//
// Handlers
//

// ListReminders loads (or refreshes) and returns the reminder set for a lead.
func (h *Handlers) ListReminders(c *gin.Context) {
	leadID, ok2 := reminderLead(c)
	if !ok2 {
		return
	}

	items, err := h.remSvc.Load(c.Request.Context(), leadID)
	if err != nil {
		failReminder(c, err)
		return
	}
	if items == nil {
		items = []domain.Reminder{}
	}
	ok(c, http.StatusOK, ListRemindersResponse{Reminders: items})
}

// UnloadReminders drops the loaded reminder set for a lead.
func (h *Handlers) UnloadReminders(c *gin.Context) {
	leadID, ok2 := reminderLead(c)
	if !ok2 {
		return
	}
	h.remSvc.Unload(leadID)
	noContent(c)
}

// CreateReminder creates a reminder for a lead whose set is loaded.
func (h *Handlers) CreateReminder(c *gin.Context) {
	leadID, ok2 := reminderLead(c)
	if !ok2 {
		return
	}

	var draft domain.ReminderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed reminder")
		return
	}

	r, err := h.remSvc.Create(c.Request.Context(), leadID, draft)
	if err != nil {
		failReminder(c, err)
		return
	}
	ok(c, http.StatusCreated, ReminderResponse{Reminder: r})
}

// UpdateReminder applies a partial update, including explicit status changes
// subject to the reminder state machine.
func (h *Handlers) UpdateReminder(c *gin.Context) {
	leadID, reminderID, ok2 := reminderIDs(c)
	if !ok2 {
		return
	}

	var patch domain.ReminderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed reminder patch")
		return
	}

	r, err := h.remSvc.Update(c.Request.Context(), leadID, reminderID, patch)
	if err != nil {
		failReminder(c, err)
		return
	}
	ok(c, http.StatusOK, ReminderResponse{Reminder: r})
}

// DeleteReminder removes a reminder.
func (h *Handlers) DeleteReminder(c *gin.Context) {
	leadID, reminderID, ok2 := reminderIDs(c)
	if !ok2 {
		return
	}
	if err := h.remSvc.Delete(c.Request.Context(), leadID, reminderID); err != nil {
		failReminder(c, err)
		return
	}
	noContent(c)
}

// CompleteReminder marks a reminder as done.
func (h *Handlers) CompleteReminder(c *gin.Context) {
	h.reminderAction(c, func(ctx context.Context, leadID, reminderID string) (*domain.Reminder, error) {
		return h.remSvc.Complete(ctx, leadID, reminderID)
	})
}

// SnoozeReminder defers a reminder to a future wake-up time.
func (h *Handlers) SnoozeReminder(c *gin.Context) {
	leadID, reminderID, ok2 := reminderIDs(c)
	if !ok2 {
		return
	}

	var req SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "until timestamp required")
		return
	}

	r, err := h.remSvc.Snooze(c.Request.Context(), leadID, reminderID, req.Until)
	if err != nil {
		failReminder(c, err)
		return
	}
	ok(c, http.StatusOK, ReminderResponse{Reminder: r})
}

// DismissReminder permanently silences a reminder.
func (h *Handlers) DismissReminder(c *gin.Context) {
	h.reminderAction(c, func(ctx context.Context, leadID, reminderID string) (*domain.Reminder, error) {
		return h.remSvc.Dismiss(ctx, leadID, reminderID)
	})
}

// SetReminderSound toggles the per-reminder sound flag.
func (h *Handlers) SetReminderSound(c *gin.Context) {
	leadID, reminderID, ok2 := reminderIDs(c)
	if !ok2 {
		return
	}

	var req SoundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "enabled flag required")
		return
	}

	r, err := h.remSvc.SetSound(c.Request.Context(), leadID, reminderID, *req.Enabled)
	if err != nil {
		failReminder(c, err)
		return
	}
	ok(c, http.StatusOK, ReminderResponse{Reminder: r})
}

// GetAlarm reports the current shared alarm state.
func (h *Handlers) GetAlarm(c *gin.Context) {
	ok(c, http.StatusOK, AlarmResponse{Playing: h.alarm.Playing()})
}

//
// Helpers
//

func (h *Handlers) reminderAction(c *gin.Context, fn func(context.Context, string, string) (*domain.Reminder, error)) {
	leadID, reminderID, ok2 := reminderIDs(c)
	if !ok2 {
		return
	}
	r, err := fn(c.Request.Context(), leadID, reminderID)
	if err != nil {
		failReminder(c, err)
		return
	}
	ok(c, http.StatusOK, ReminderResponse{Reminder: r})
}

func reminderLead(c *gin.Context) (string, bool) {
	leadID := strings.TrimSpace(c.Param("id"))
	if leadID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id required")
		return "", false
	}
	return leadID, true
}

func reminderIDs(c *gin.Context) (string, string, bool) {
	leadID, ok2 := reminderLead(c)
	if !ok2 {
		return "", "", false
	}
	reminderID := strings.TrimSpace(c.Param("rid"))
	if reminderID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reminder id required")
		return "", "", false
	}
	return leadID, reminderID, true
}

// failReminder translates reminder service and remote errors into HTTP
// responses.
func failReminder(c *gin.Context, err error) {
	var verr *remote.ValidationError
	switch {
	case errors.Is(err, services.ErrRemindersNotLoaded):
		fail(c, http.StatusConflict, ErrCodeNotLoaded, "reminders not loaded for lead")
	case errors.Is(err, services.ErrReminderNotFound), errors.Is(err, remote.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "reminder not found")
	case errors.Is(err, services.ErrEmptyTitle):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reminder title is empty")
	case errors.Is(err, services.ErrInvalidReminderType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid reminder type")
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeBadTransition, "invalid reminder status transition")
	case errors.Is(err, services.ErrInvalidSnooze):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "snooze deadline must be in the future")
	case errors.As(err, &verr):
		fail(c, http.StatusUnprocessableEntity, ErrCodeValidation, verr.Message)
	case remote.IsNetwork(err):
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "CRM server unreachable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// Lead HTTP handlers.
//
// This file exposes the REST surface for the lead edit flow:
//   - GET    /leads/{id}   (open a lead detail view; cache-backed fetch)
//   - PATCH  /leads/{id}   (optimistic update with server confirmation)
//   - DELETE /leads/{id}   (close the detail view and drop working state)
//
// Handlers are transport-thin: they validate and decode inputs, delegate to
// the lead service, and translate service and remote errors into stable
// error envelopes.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leadcore/go-crm-backend/internal/domain"
	"github.com/leadcore/go-crm-backend/internal/remote"
	"github.com/leadcore/go-crm-backend/internal/services"
)

//
// Service contracts
//

// LeadService defines the lead edit operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LeadService interface {
	// Open returns the lead snapshot for a detail view, fetching and
	// validating it when not already held locally.
	Open(ctx context.Context, leadID string) (*domain.Lead, error)
	// Update applies a partial edit optimistically and confirms it against
	// the server, reverting on failure.
	Update(ctx context.Context, leadID string, patch domain.LeadPatch) (*domain.Lead, error)
	// Close drops the working copy held for an open detail view.
	Close(leadID string)
}

//
// DTOs
//

// LeadResponse is the JSON envelope for a single lead.
type LeadResponse struct {
	Lead *domain.Lead `json:"lead"`
}

//
// Handlers
//

// GetLead opens a lead detail view and returns its snapshot.
func (h *Handlers) GetLead(c *gin.Context) {
	leadID := strings.TrimSpace(c.Param("id"))
	if leadID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id required")
		return
	}

	lead, err := h.leadSvc.Open(c.Request.Context(), leadID)
	if err != nil {
		failLead(c, err)
		return
	}
	ok(c, http.StatusOK, LeadResponse{Lead: lead})
}

// PatchLead applies a partial update to an open lead. The response carries
// the optimistic snapshot; a failed server confirmation surfaces as an error
// after local state has been rolled back.
func (h *Handlers) PatchLead(c *gin.Context) {
	leadID := strings.TrimSpace(c.Param("id"))
	if leadID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id required")
		return
	}

	var patch domain.LeadPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed lead patch")
		return
	}

	lead, err := h.leadSvc.Update(c.Request.Context(), leadID, patch)
	if err != nil {
		failLead(c, err)
		return
	}
	ok(c, http.StatusOK, LeadResponse{Lead: lead})
}

// CloseLead drops the working state held for a lead detail view.
func (h *Handlers) CloseLead(c *gin.Context) {
	leadID := strings.TrimSpace(c.Param("id"))
	if leadID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id required")
		return
	}
	h.leadSvc.Close(leadID)
	noContent(c)
}

// failLead translates lead service and remote errors into HTTP responses.
func failLead(c *gin.Context, err error) {
	var verr *remote.ValidationError
	switch {
	case errors.Is(err, remote.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
	case errors.Is(err, services.ErrLeadNotLoaded):
		fail(c, http.StatusConflict, ErrCodeNotLoaded, "lead is not open")
	case errors.Is(err, services.ErrEmptyPatch):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "update contains no fields")
	case errors.As(err, &verr):
		fail(c, http.StatusUnprocessableEntity, ErrCodeValidation, verr.Message)
	case remote.IsNetwork(err):
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "CRM server unreachable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

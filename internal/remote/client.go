package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadcore/go-crm-backend/internal/domain"
)

// Client talks to the upstream CRM API. It implements the collaborator
// contracts consumed by the cache and the services (lead read/update,
// user existence, reminder CRUD). Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	log     zerolog.Logger
}

// NewClient builds a Client for the given base URL and bearer key. When
// hc is nil a default http.Client with a 15s timeout is used; per-request
// deadlines remain the caller's responsibility via ctx.
func NewClient(baseURL, apiKey string, hc *http.Client, log zerolog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      hc,
		log:     log.With().Str("component", "remote").Logger(),
	}
}

// apiError is the error envelope returned by the CRM API.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchLead retrieves the canonical snapshot of a lead.
func (c *Client) FetchLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	var lead domain.Lead
	if err := c.do(ctx, http.MethodGet, "/leads/"+url.PathEscape(leadID), nil, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// UpdateLead sends a partial field set and returns the server-canonical
// snapshot (the server may normalize casing or fill computed fields).
func (c *Client) UpdateLead(ctx context.Context, leadID string, patch domain.LeadPatch) (*domain.Lead, error) {
	var lead domain.Lead
	if err := c.do(ctx, http.MethodPatch, "/leads/"+url.PathEscape(leadID), patch, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// UserExists checks whether the referenced user still exists. A 404 is a
// definitive "no", not an error; anything non-transport-shaped beyond
// that is reported as an error for the caller to absorb.
func (c *Client) UserExists(ctx context.Context, userID string) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ListReminders returns all reminders attached to a lead.
func (c *Client) ListReminders(ctx context.Context, leadID string) ([]domain.Reminder, error) {
	var out []domain.Reminder
	if err := c.do(ctx, http.MethodGet, "/leads/"+url.PathEscape(leadID)+"/reminders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReminder creates a reminder on a lead and returns the stored record.
func (c *Client) CreateReminder(ctx context.Context, leadID string, draft domain.ReminderDraft) (*domain.Reminder, error) {
	var r domain.Reminder
	if err := c.do(ctx, http.MethodPost, "/leads/"+url.PathEscape(leadID)+"/reminders", draft, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReminder applies a partial update and returns the stored record.
func (c *Client) UpdateReminder(ctx context.Context, leadID, reminderID string, patch domain.ReminderPatch) (*domain.Reminder, error) {
	path := "/leads/" + url.PathEscape(leadID) + "/reminders/" + url.PathEscape(reminderID)
	var r domain.Reminder
	if err := c.do(ctx, http.MethodPatch, path, patch, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReminder removes a reminder.
func (c *Client) DeleteReminder(ctx context.Context, leadID, reminderID string) error {
	path := "/leads/" + url.PathEscape(leadID) + "/reminders/" + url.PathEscape(reminderID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do executes one API call and maps the outcome onto the error taxonomy:
// transport failures and 5xx become *NetworkError, 404 becomes
// ErrNotFound, 400/422 become *ValidationError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		var ae apiError
		if derr := json.NewDecoder(resp.Body).Decode(&ae); derr != nil || ae.Message == "" {
			ae.Message = resp.Status
		}
		return &ValidationError{Code: ae.Code, Message: ae.Message}
	case resp.StatusCode >= 300:
		c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Msg("unexpected upstream status")
		return &NetworkError{Op: op, Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

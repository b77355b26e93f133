package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadcore/go-crm-backend/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", srv.Client(), zerolog.Nop())
}

func TestFetchLead_DecodesAndAuthenticates(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"l1","first_name":"Ada","assigned_to":"u-3","status":"new"}`))
	})

	lead, err := c.FetchLead(context.Background(), "l1")
	if err != nil {
		t.Fatalf("FetchLead: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPath != "/leads/l1" {
		t.Fatalf("path = %q", gotPath)
	}
	if lead.FirstName != "Ada" || lead.AssignedTo == nil || lead.AssignedTo.ID != "u-3" {
		t.Fatalf("lead decoded wrong: %+v", lead)
	}
}

func TestFetchLead_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if _, err := c.FetchLead(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateLead_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s; want PATCH", r.Method)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"invalid_email","message":"email is malformed"}`))
	})

	bad := "not-an-email"
	_, err := c.UpdateLead(context.Background(), "l1", domain.LeadPatch{Email: &bad})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if ve.Code != "invalid_email" || ve.Message != "email is malformed" {
		t.Fatalf("envelope not parsed: %+v", ve)
	}
	if !IsValidation(err) {
		t.Fatalf("IsValidation should report true")
	}
}

func TestValidationError_EmptyBodyFallsBackToStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.UpdateLead(context.Background(), "l1", domain.LeadPatch{})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message == "" {
		t.Fatalf("want ValidationError with fallback message, got %v", err)
	}
}

func TestUserExists_Mapping(t *testing.T) {
	status := http.StatusOK
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	ok, err := c.UserExists(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("200 should mean exists; ok=%v err=%v", ok, err)
	}

	status = http.StatusNotFound
	ok, err = c.UserExists(context.Background(), "u1")
	if err != nil || ok {
		t.Fatalf("404 should mean missing without error; ok=%v err=%v", ok, err)
	}

	status = http.StatusBadGateway
	_, err = c.UserExists(context.Background(), "u1")
	if !IsNetwork(err) {
		t.Fatalf("502 should surface a NetworkError, got %v", err)
	}
}

func TestDo_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	c := NewClient(srv.URL, "", &http.Client{Timeout: time.Second}, zerolog.Nop())

	_, err := c.FetchLead(context.Background(), "l1")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("want NetworkError, got %v", err)
	}
	if ne.Op == "" || ne.Unwrap() == nil {
		t.Fatalf("NetworkError missing context: %+v", ne)
	}
}

func TestReminderCRUD_PathsAndPayloads(t *testing.T) {
	due := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leads/l1/reminders", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"r1","lead_id":"l1","status":"PENDING","type":"CALL"}]`))
	})
	mux.HandleFunc("POST /leads/l1/reminders", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"r2","lead_id":"l1","title":"call back","status":"PENDING","type":"CALL"}`))
	})
	mux.HandleFunc("PATCH /leads/l1/reminders/r1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"r1","lead_id":"l1","status":"COMPLETED","type":"CALL"}`))
	})
	mux.HandleFunc("DELETE /leads/l1/reminders/r1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "", srv.Client(), zerolog.Nop())
	ctx := context.Background()

	list, err := c.ListReminders(ctx, "l1")
	if err != nil || len(list) != 1 || list[0].ID != "r1" {
		t.Fatalf("ListReminders = %+v, %v", list, err)
	}

	created, err := c.CreateReminder(ctx, "l1", domain.ReminderDraft{
		Title: "call back", Type: domain.ReminderCall, DueAt: due, SoundEnabled: true,
	})
	if err != nil || created.ID != "r2" {
		t.Fatalf("CreateReminder = %+v, %v", created, err)
	}

	done := domain.StatusCompleted
	updated, err := c.UpdateReminder(ctx, "l1", "r1", domain.ReminderPatch{Status: &done})
	if err != nil || updated.Status != domain.StatusCompleted {
		t.Fatalf("UpdateReminder = %+v, %v", updated, err)
	}

	if err := c.DeleteReminder(ctx, "l1", "r1"); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/didyoudo/didyoudo/internal/report"
	"github.com/didyoudo/didyoudo/internal/services/mailer"
)

type stubSender struct {
	err error
	to  string
}

func (s *stubSender) Send(ctx context.Context, to, subject, html string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.to = to
	return "email-xyz", nil
}

func newReportRouter(sender mailer.Sender, defaultEmail string) *mux.Router {
	svc := report.NewService(newFakeTaskRepo(), sender, nil)
	r := mux.NewRouter()
	NewReportHandler(svc, defaultEmail, nil).RegisterRoutes(r.PathPrefix("/report").Subrouter())
	return r
}

func TestReportHandler_MissingEmail(t *testing.T) {
	t.Parallel()

	router := newReportRouter(&stubSender{}, "")
	req := httptest.NewRequest(http.MethodPost, "/report/weekly", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReportHandler_MissingCredentials(t *testing.T) {
	t.Parallel()

	// A real client with no API key surfaces the credential error.
	sender := mailer.NewResendClient("", "from@didyoudo.app", nil)
	router := newReportRouter(sender, "user@example.com")

	req := httptest.NewRequest(http.MethodPost, "/report/weekly", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] != "Missing API keys in environment" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestReportHandler_DeliveryFailure(t *testing.T) {
	t.Parallel()

	router := newReportRouter(&stubSender{err: errors.New("provider down")}, "user@example.com")
	req := httptest.NewRequest(http.MethodPost, "/report/weekly", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestReportHandler_Success(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	router := newReportRouter(sender, "user@example.com")
	req := httptest.NewRequest(http.MethodPost, "/report/weekly?test=true", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Message string         `json:"message"`
			EmailID string         `json:"emailId"`
			Stats   map[string]any `json:"stats"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Data.Message != "Test email sent successfully" {
		t.Errorf("message = %q", resp.Data.Message)
	}
	if resp.Data.EmailID != "email-xyz" {
		t.Errorf("emailId = %q", resp.Data.EmailID)
	}
	if resp.Data.Stats == nil {
		t.Error("stats missing from response")
	}
}

func TestReportHandler_EmailQueryOverridesDefault(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	router := newReportRouter(sender, "default@example.com")
	req := httptest.NewRequest(http.MethodPost, "/report/weekly?test=true&email=other@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if sender.to != "other@example.com" {
		t.Errorf("sent to %q, want query override", sender.to)
	}
}

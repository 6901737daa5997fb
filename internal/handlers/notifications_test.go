package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/didyoudo/didyoudo/internal/notify"
	"github.com/didyoudo/didyoudo/internal/queue"
	"github.com/didyoudo/didyoudo/internal/scheduler"
)

func newNotificationRouter(sink notify.Sink, jobs JobEnqueuer) *mux.Router {
	sched := scheduler.New(sink, nil)
	r := mux.NewRouter()
	NewNotificationHandler(sched, sink, jobs, nil).RegisterRoutes(r.PathPrefix("/notifications").Subrouter())
	return r
}

func TestNotificationHandler_Status(t *testing.T) {
	t.Parallel()

	sink := notify.NewMemorySink()
	sink.SetPermission(true)
	router := newNotificationRouter(sink, &fakeEnqueuer{})

	req := httptest.NewRequest(http.MethodGet, "/notifications/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data struct {
			PermissionGranted bool `json:"permission_granted"`
			ActiveCount       int  `json:"active_count"`
			PendingCount      int  `json:"pending_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.PermissionGranted {
		t.Error("permission_granted = false, want true")
	}
}

func TestNotificationHandler_SendTest_PermissionDenied(t *testing.T) {
	t.Parallel()

	sink := notify.NewMemorySink()
	sink.SetPermission(false)
	sink.DenyGrant(true)
	router := newNotificationRouter(sink, &fakeEnqueuer{})

	req := httptest.NewRequest(http.MethodPost, "/notifications/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when permission is denied", w.Code)
	}
}

func TestNotificationHandler_SendTest(t *testing.T) {
	t.Parallel()

	sink := notify.NewMemorySink()
	sink.SetPermission(true)
	router := newNotificationRouter(sink, &fakeEnqueuer{})

	req := httptest.NewRequest(http.MethodPost, "/notifications/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	pending, err := sink.ListPending(req.Context())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != notify.TestNotificationID {
		t.Errorf("pending = %v, want one test notification", pending)
	}
}

func TestNotificationHandler_TriggerReplan(t *testing.T) {
	t.Parallel()

	jobs := &fakeEnqueuer{}
	router := newNotificationRouter(notify.NewMemorySink(), jobs)

	req := httptest.NewRequest(http.MethodPost, "/notifications/replan", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if len(jobs.jobs) != 1 || jobs.jobs[0].Type != queue.JobTypeReplan {
		t.Errorf("jobs = %v, want one replan job", jobs.jobs)
	}
}

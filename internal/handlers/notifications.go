package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/notify"
	"github.com/didyoudo/didyoudo/internal/queue"
	"github.com/didyoudo/didyoudo/internal/scheduler"
)

// NotificationHandler handles reminder and notification requests
type NotificationHandler struct {
	scheduler *scheduler.Scheduler
	sink      notify.Sink
	jobs      JobEnqueuer
	logger    *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(sched *scheduler.Scheduler, sink notify.Sink, jobs JobEnqueuer, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{scheduler: sched, sink: sink, jobs: jobs, logger: logger}
}

// RegisterRoutes registers notification routes on the given router
func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/status", h.Status).Methods("GET")
	r.HandleFunc("/permission", h.RequestPermission).Methods("POST")
	r.HandleFunc("/test", h.SendTest).Methods("POST")
	r.HandleFunc("/replan", h.TriggerReplan).Methods("POST")
}

// Status reports permission state and the current reminder load
func (h *NotificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	granted, err := h.sink.CheckPermission(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to check notification permission")
		return
	}

	pending, err := h.sink.ListPending(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list pending notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"permission_granted": granted,
		"active_count":       h.scheduler.ActiveCount(),
		"pending_count":      len(pending),
	})
}

// RequestPermission asks the sink for notification permission
func (h *NotificationHandler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	granted, err := h.sink.RequestPermission(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to request notification permission")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"permission_granted": granted})
}

// SendTest fires an immediate test notification
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.SendTest(r.Context()); err != nil {
		h.logger.Warn("test_notification_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to send test notification")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Test notification scheduled"})
}

// TriggerReplan enqueues a full reminder replan
func (h *NotificationHandler) TriggerReplan(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Job queue is not available")
		return
	}
	if err := h.jobs.Enqueue(r.Context(), queue.NewJob(queue.JobTypeReplan)); err != nil {
		h.logger.Error("replan_enqueue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to enqueue replan")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"message": "Replan enqueued"})
}

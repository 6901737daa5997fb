package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/report"
	"github.com/didyoudo/didyoudo/internal/services/mailer"
)

// ReportHandler handles weekly report dispatch requests
type ReportHandler struct {
	service      *report.Service
	defaultEmail string
	logger       *zap.Logger
}

// NewReportHandler creates a new report handler. defaultEmail is used when
// the request does not carry an email query parameter.
func NewReportHandler(service *report.Service, defaultEmail string, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{service: service, defaultEmail: defaultEmail, logger: logger}
}

// RegisterRoutes registers report routes on the given router
func (h *ReportHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/weekly", h.SendWeeklyReport).Methods("POST")
}

// SendWeeklyReport composes and sends the weekly report email.
// ?test=true sends without archiving completed tasks; ?email= overrides
// the configured recipient.
func (h *ReportHandler) SendWeeklyReport(w http.ResponseWriter, r *http.Request) {
	test := r.URL.Query().Get("test") == "true"
	email := r.URL.Query().Get("email")
	if email == "" {
		email = h.defaultEmail
	}

	result, err := h.service.Send(r.Context(), email, test)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrMissingEmail):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Email address is required")
		case errors.Is(err, mailer.ErrMissingAPIKey), errors.Is(err, mailer.ErrMissingSender):
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Missing API keys in environment")
		default:
			h.logger.Error("weekly_report_failed", zap.Error(err), zap.Bool("test", test))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to send email")
		}
		return
	}

	message := "Weekly report sent successfully"
	if test {
		message = "Test email sent successfully"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"emailId": result.EmailID,
		"stats":   result.Stats,
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/database"
	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/didyoudo/didyoudo/internal/queue"
	"github.com/didyoudo/didyoudo/internal/validation"
)

// JobEnqueuer is the queue slice handlers need to schedule background work.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo database.TaskRepositoryInterface
	jobs     JobEnqueuer
	logger   *zap.Logger
}

// NewTaskHandler creates a new task handler. jobs may be nil, in which case
// mutations do not trigger a reminder replan.
func NewTaskHandler(taskRepo database.TaskRepositoryInterface, jobs JobEnqueuer, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{taskRepo: taskRepo, jobs: jobs, logger: logger}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{id}/uncomplete", h.UncompleteTask).Methods("POST")
	r.HandleFunc("/{id}/snooze", h.SnoozeTask).Methods("POST")
	r.HandleFunc("/{id}/postpone", h.PostponeTask).Methods("POST")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title             string     `json:"title" validate:"required,min=1,max=100"`
	Description       string     `json:"description" validate:"max=500"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          string     `json:"priority" validate:"required,priority"`
	Categories        []string   `json:"categories" validate:"dive,category"`
	ReminderFrequency string     `json:"reminder_frequency,omitempty" validate:"omitempty,reminder_frequency"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	ClearDueDate      bool       `json:"clear_due_date,omitempty"`
	Priority          *string    `json:"priority,omitempty"`
	Categories        *[]string  `json:"categories,omitempty"`
	ReminderFrequency *string    `json:"reminder_frequency,omitempty"`
}

// SnoozeTaskRequest represents a snooze request
type SnoozeTaskRequest struct {
	SnoozeUntil time.Time `json:"snooze_until" validate:"required"`
}

// PostponeTaskRequest represents a postpone request
type PostponeTaskRequest struct {
	DueDate time.Time `json:"due_date" validate:"required"`
}

// ListTasks lists tasks, optionally including archived ones
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	tasks, err := h.taskRepo.List(r.Context(), includeArchived)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tasks":              tasks,
		"total":              len(tasks),
		"counts_by_priority": models.CountByPriority(tasks),
	})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	req.Description = validation.SanitizeText(req.Description)

	now := time.Now()
	task := &models.Task{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    models.Priority(req.Priority),
		Categories:  toCategories(req.Categories),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.ReminderFrequency != "" {
		task.ReminderFrequency = models.ReminderFrequency(req.ReminderFrequency)
	} else {
		task.ReminderFrequency = task.DeriveFrequency(now)
	}

	if err := h.taskRepo.Create(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	h.enqueueReplan(r.Context())
	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		if title == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(title) > models.MaxTitleLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", models.MaxTitleLength))
			return
		}
		task.Title = title
	}
	if req.Description != nil {
		description := validation.SanitizeText(*req.Description)
		if len(description) > models.MaxDescriptionLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Description exceeds maximum length of %d characters", models.MaxDescriptionLength))
			return
		}
		task.Description = description
	}
	if req.ClearDueDate {
		task.DueDate = nil
	} else if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Priority != nil {
		if err := validation.ValidatePriority(*req.Priority); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Priority = models.Priority(*req.Priority)
	}
	if req.Categories != nil {
		if err := validation.ValidateCategories(*req.Categories); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Categories = toCategories(*req.Categories)
	}
	if req.ReminderFrequency != nil {
		if err := validation.ValidateReminderFrequency(*req.ReminderFrequency); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.ReminderFrequency = models.ReminderFrequency(*req.ReminderFrequency)
	}
	task.UpdatedAt = time.Now()

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	h.enqueueReplan(r.Context())
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	h.enqueueReplan(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskRepo.Complete(r.Context(), id, time.Now()); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to reload task")
		return
	}

	h.enqueueReplan(r.Context())
	respondJSON(w, http.StatusOK, task)
}

// UncompleteTask reopens a completed task
func (h *TaskHandler) UncompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskRepo.Uncomplete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to reload task")
		return
	}

	h.enqueueReplan(r.Context())
	respondJSON(w, http.StatusOK, task)
}

// SnoozeTask pushes a task's reminders out to a later time
func (h *TaskHandler) SnoozeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var req SnoozeTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SnoozeUntil.IsZero() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "snooze_until is required")
		return
	}

	if err := h.taskRepo.Snooze(r.Context(), id, req.SnoozeUntil); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	h.enqueueReplan(r.Context())

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to reload task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// PostponeTask moves a task's due date
func (h *TaskHandler) PostponeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var req PostponeTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DueDate.IsZero() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "due_date is required")
		return
	}

	if err := h.taskRepo.Postpone(r.Context(), id, req.DueDate); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	h.enqueueReplan(r.Context())

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to reload task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// enqueueReplan schedules a reminder replan after a task mutation. Failures
// are logged and swallowed; the mutation itself already succeeded.
func (h *TaskHandler) enqueueReplan(ctx context.Context) {
	if h.jobs == nil {
		return
	}
	if err := h.jobs.Enqueue(ctx, queue.NewJob(queue.JobTypeReplan)); err != nil {
		h.logger.Error("replan_enqueue_failed", zap.Error(err))
	}
}

func (h *TaskHandler) loadTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return nil, false
	}
	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil, false
	}
	return task, true
}

func parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

func respondValidationError(w http.ResponseWriter, err error) {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
			return
		}
	}
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
}

func toCategories(values []string) []models.Category {
	cats := make([]models.Category, len(values))
	for i, v := range values {
		cats[i] = models.Category(v)
	}
	return cats
}

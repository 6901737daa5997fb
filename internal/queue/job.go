package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeWeeklyReport is a job for composing and sending the weekly report email
	JobTypeWeeklyReport JobType = "weekly_report"
	// JobTypeReplan is a job for recomputing the full reminder schedule
	JobTypeReplan JobType = "replan"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`   // Job-specific data
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewWeeklyReportJob creates a weekly report job. When test is set the
// report is sent without archiving completed tasks.
func NewWeeklyReportJob(email string, test bool) *Job {
	job := NewJob(JobTypeWeeklyReport)
	job.Metadata["email"] = email
	job.Metadata["test"] = test
	return job
}

// ReportEmail returns the target email carried by a weekly report job.
func (j *Job) ReportEmail() string {
	if email, ok := j.Metadata["email"].(string); ok {
		return email
	}
	return ""
}

// IsTest reports whether a weekly report job is a test dispatch.
func (j *Job) IsTest() bool {
	test, ok := j.Metadata["test"].(bool)
	return ok && test
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	// Check NotBefore
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	// Check NotAfter
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

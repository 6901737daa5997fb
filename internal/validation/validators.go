package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("category", validateCategory); err != nil {
		panic(fmt.Sprintf("failed to register category validator: %v", err))
	}
	if err := Validate.RegisterValidation("reminder_frequency", validateReminderFrequency); err != nil {
		panic(fmt.Sprintf("failed to register reminder_frequency validator: %v", err))
	}
}

// validatePriority validates that a string is a valid Priority enum value
func validatePriority(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.Priority(value) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return true
	default:
		return false
	}
}

// validateCategory validates that a string is a valid Category enum value
func validateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, c := range models.AllCategories {
		if models.Category(value) == c {
			return true
		}
	}
	return false
}

// validateReminderFrequency validates that a string is a valid ReminderFrequency enum value
func validateReminderFrequency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.ReminderFrequency(value) {
	case models.FrequencyDaily, models.FrequencyWeekly:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	switch models.Priority(value) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'high', 'medium', or 'low')", value)
	}
}

// ValidateCategories validates a list of category string values
func ValidateCategories(values []string) error {
	for _, value := range values {
		valid := false
		for _, c := range models.AllCategories {
			if models.Category(value) == c {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid category: %s", value)
		}
	}
	return nil
}

// ValidateReminderFrequency validates a ReminderFrequency string value
func ValidateReminderFrequency(value string) error {
	switch models.ReminderFrequency(value) {
	case models.FrequencyDaily, models.FrequencyWeekly:
		return nil
	default:
		return fmt.Errorf("invalid reminder_frequency: %s (must be 'daily' or 'weekly')", value)
	}
}

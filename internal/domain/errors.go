package domain

import "fmt"

// ValidationError reports malformed input. It is raised before any
// simulation work begins and never mid-run.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigurationGap reports missing reference data (an unimplemented state
// tax table, an unrecognized strategy name) as opposed to malformed input.
// Like ValidationError it fails fast, before any run starts.
type ConfigurationGap struct {
	Subject string
	Message string
}

func (e *ConfigurationGap) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("configuration gap: %s", e.Message)
	}
	return fmt.Sprintf("configuration gap: %s: %s", e.Subject, e.Message)
}

// NewConfigurationGap creates a configuration-gap error for the given subject.
func NewConfigurationGap(subject, format string, args ...any) *ConfigurationGap {
	return &ConfigurationGap{Subject: subject, Message: fmt.Sprintf(format, args...)}
}

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration after loading. Tag-driven rules run
// first, then the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			return newValidationError(fieldErrors)
		}
		return err
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if cfg.Rate.Burst > 0 && cfg.Rate.RequestsPerSec <= 0 {
		return fmt.Errorf("rate config: burst requires requests_per_sec")
	}

	if (cfg.Auth.Username != "") != (cfg.Auth.Password != "") {
		return fmt.Errorf("auth config: username and password must be set together")
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	if cfg.Level == "" {
		return nil
	}
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, cfg.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			cfg.Level, strings.Join(validLevels, ", "))
	}
	return nil
}

// ValidationError aggregates per-field failures into one error.
type ValidationError struct {
	Errors []FieldError
}

// FieldError describes a single failed field.
type FieldError struct {
	Field   string
	Message string
	Value   string
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fieldErrors := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   err.Namespace(),
			Message: errorMessage(err),
			Value:   fmt.Sprintf("%v", err.Value()),
		})
	}
	return &ValidationError{Errors: fieldErrors}
}

func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "config validation failed"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("config validation failed: %s", ve.Errors[0].Message)
	}
	messages := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		messages = append(messages, fe.Message)
	}
	return fmt.Sprintf("config validation failed: %s", strings.Join(messages, "; "))
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Namespace(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation", fe.Namespace())
	}
}

package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	oneOf := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, ", "), value),
		})
	}

	oneOf("APP_TRIGGER", cfg.App.Trigger, "lambda", "http")
	oneOf("STORAGE_PROVIDER", cfg.Storage.Provider, "s3", "minio")
	oneOf("RECORDS_PROVIDER", cfg.Records.Provider, "dynamodb", "redis", "postgres")
	oneOf("NOTIFY_PROVIDER", cfg.Notify.Provider, "sns", "kafka", "nats")

	if cfg.Records.Table == "" {
		errs = append(errs, ValidationError{Field: "RECORDS_TABLE", Message: "required"})
	}
	if cfg.Notify.Channel == "" {
		errs = append(errs, ValidationError{Field: "NOTIFY_CHANNEL", Message: "required"})
	}

	// minio-go needs a host to dial; the AWS SDK can resolve its own.
	if cfg.Storage.Provider == "minio" && cfg.Storage.Endpoint == "" {
		errs = append(errs, ValidationError{Field: "STORAGE_ENDPOINT", Message: "required for minio"})
	}
	if cfg.Records.Provider == "postgres" && cfg.Records.PostgresDSN == "" {
		errs = append(errs, ValidationError{Field: "RECORDS_POSTGRES_DSN", Message: "required for postgres"})
	}
	if cfg.Notify.Provider == "kafka" && len(cfg.Kafka.Brokers) == 0 {
		errs = append(errs, ValidationError{Field: "KAFKA_BROKERS", Message: "required for kafka"})
	}

	if cfg.Processor.Concurrency < 1 {
		errs = append(errs, ValidationError{Field: "PROCESSOR_CONCURRENCY", Message: "must be at least 1"})
	}
	if cfg.Processor.MaxObjectBytes <= 0 {
		errs = append(errs, ValidationError{Field: "PROCESSOR_MAX_OBJECT_BYTES", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

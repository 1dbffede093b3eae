package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "hanim://config/schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// validateSchema checks a decoded document against the embedded schema.
func validateSchema(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	err = s.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("schema validation: %w", err)
	}
	var errs ValidationErrors
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(ve.Causes) == 0 {
		field := strings.TrimPrefix(ve.InstanceLocation, "/")
		if field == "" {
			field = "(root)"
		}
		*errs = append(*errs, ValidationError{
			Field:   strings.ReplaceAll(field, "/", "."),
			Message: ve.Message,
		})
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// ValidateConfig checks the semantic constraints that hold after
// environment overrides have been applied.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	if strings.TrimSpace(c.Preedit.FontName) == "" {
		errs = append(errs, ValidationError{Field: "preedit.font_name", Message: "must not be empty"})
	}
	if c.Preedit.Padding < 0 || c.Preedit.Padding > 64 {
		errs = append(errs, ValidationError{Field: "preedit.padding", Message: "must be between 0 and 64"})
	}
	if c.Preedit.Foreground > 0xffffff {
		errs = append(errs, ValidationError{Field: "preedit.foreground", Message: "must be a 0xRRGGBB value"})
	}
	if c.Preedit.Background > 0xffffff {
		errs = append(errs, ValidationError{Field: "preedit.background", Message: "must be a 0xRRGGBB value"})
	}

	if c.Engine.ToggleKeycode < 8 || c.Engine.ToggleKeycode > 255 {
		errs = append(errs, ValidationError{Field: "engine.toggle_keycode", Message: "must be an X11 keycode (8-255)"})
	}

	if c.Server.Screen < -1 {
		errs = append(errs, ValidationError{Field: "server.screen", Message: "must be -1 or a screen number"})
	}

	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", l.Level)})
	}
	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", l.Format)})
	}
	switch l.Output {
	case "stderr", "stdout":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{Field: "logging.file_path", Message: "required when output includes file"})
		}
	default:
		errs = append(errs, ValidationError{Field: "logging.output", Message: fmt.Sprintf("unknown output %q", l.Output)})
	}
	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{Field: "logging.max_size_mb", Message: "must be at least 1"})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_backups", Message: "must not be negative"})
	}
	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_age_days", Message: "must not be negative"})
	}
	return errs
}

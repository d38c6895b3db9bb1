package config

import "fmt"

// ValidationError represents a malformed or out-of-range option.
// It is fatal: the pipeline never runs on invalid configuration.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config option %q: %s", e.Field, e.Message)
}

// NotFoundError represents a missing config file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s\n\nCreate one with 'rules-engine config init'", e.Path)
}

// InvalidError represents an unparseable config file.
type InvalidError struct {
	Path string
	Err  error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid config file %s: %v", e.Path, e.Err)
}

func (e *InvalidError) Unwrap() error {
	return e.Err
}

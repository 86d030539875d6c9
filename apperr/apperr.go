// Package apperr holds the error taxonomy shared by storage, the LLM pipeline
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a missing scenario, persona, conversation or template.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// MalformedModelOutputError is returned when a structured request comes back
// without the forced tool call, with another tool's call, or with arguments
// that are not JSON.
type MalformedModelOutputError struct {
	Contract string
	Reason   string
}

func (e *MalformedModelOutputError) Error() string {
	return fmt.Sprintf("malformed model output for %s: %s", e.Contract, e.Reason)
}

// SchemaValidationError lists every field that broke the contract.
type SchemaValidationError struct {
	Contract string
	Problems []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s failed schema validation: %s", e.Contract, strings.Join(e.Problems, "; "))
}

// UpstreamGenerationError wraps a failed or timed out LLM call.
type UpstreamGenerationError struct {
	Op  string
	Err error
}

func (e *UpstreamGenerationError) Error() string {
	return fmt.Sprintf("upstream generation failed during %s: %v", e.Op, e.Err)
}

func (e *UpstreamGenerationError) Unwrap() error { return e.Err }

// StorageError wraps any persistence failure. Attempted and Written are set for
// multi-row writes so callers can tell a clean failure from a partial one.
type StorageError struct {
	Op        string
	Attempted int
	Written   int
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Partial reports whether some, but not all, rows of a multi-row write landed.
func (e *StorageError) Partial() bool {
	return e.Written > 0 && e.Written < e.Attempted
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsMalformedModelOutput(err error) bool {
	var target *MalformedModelOutputError
	return errors.As(err, &target)
}

func IsSchemaValidation(err error) bool {
	var target *SchemaValidationError
	return errors.As(err, &target)
}

func IsUpstreamGeneration(err error) bool {
	var target *UpstreamGenerationError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}
